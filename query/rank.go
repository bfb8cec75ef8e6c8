package query

import (
	"sort"

	"songbook/models"
)

// Relevance points awarded by SearchScore.
const (
	PointsTitleExact    = 100
	PointsTitlePrefix   = 60
	PointsTitleContains = 40
	PointsArtist        = 10
	PointsAlbum         = 8
	PointsGenre         = 5
)

// Rule awards Points when When matches.
type Rule struct {
	When   Expr
	Points int
}

// Tier is an ordered list of mutually exclusive rules: only the first
// matching rule contributes.
type Tier []Rule

// Score is an additive relevance expression: the sum of each tier's
// contribution. A nil Score means results are not ranked.
type Score []Tier

// SearchScore returns the relevance expression for a search term, or nil
// when term is empty.
//
// Title contributes at most one of exact (100), prefix (60) or contains (40).
// Artist, album and genre add 10, 8 and 5. A title match always outranks any
// combination of the other fields.
func SearchScore(term string) Score {
	if term == "" {
		return nil
	}
	return Score{
		{
			{When: Equals(FieldTitle, term), Points: PointsTitleExact},
			{When: HasPrefix(FieldTitle, term), Points: PointsTitlePrefix},
			{When: Contains(FieldTitle, term), Points: PointsTitleContains},
		},
		{{When: Contains(FieldArtist, term), Points: PointsArtist}},
		{{When: Contains(FieldAlbum, term), Points: PointsAlbum}},
		{{When: Contains(FieldGenre, term), Points: PointsGenre}},
	}
}

// Eval computes the score of s.
func (sc Score) Eval(s models.Song) int {
	total := 0
	for _, tier := range sc {
		for _, rule := range tier {
			if rule.When.Match(s) {
				total += rule.Points
				break
			}
		}
	}
	return total
}

// Rank orders songs in place. With a non-nil score, songs are ordered by
// descending score first and each song's Score is set. Remaining ties are
// broken by the requested sort and finally by ID, so the order is total.
func Rank(songs []models.Song, score Score, by Sort) {
	if score != nil {
		for i := range songs {
			v := score.Eval(songs[i])
			songs[i].Score = &v
		}
	}

	sort.SliceStable(songs, func(i, j int) bool {
		a, b := songs[i], songs[j]
		if score != nil {
			if sa, sb := *a.Score, *b.Score; sa != sb {
				return sa > sb
			}
		}
		if c := Compare(by.Field, a, b); c != 0 {
			if by.Order == OrderAsc {
				return c < 0
			}
			return c > 0
		}
		return a.ID < b.ID
	})
}
