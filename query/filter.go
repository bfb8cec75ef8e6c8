package query

// searchFields are the fields a free-text search term is matched against.
var searchFields = []Field{FieldTitle, FieldArtist, FieldAlbum, FieldGenre}

// FilterBuilder collects list conditions and combines them with AND.
type FilterBuilder struct {
	conditions []Expr
}

func NewFilterBuilder() *FilterBuilder {
	return &FilterBuilder{
		conditions: []Expr{},
	}
}

// AddContains requires field to contain value. Empty values are ignored.
func (b *FilterBuilder) AddContains(field Field, value string) {
	if value == "" {
		return
	}
	b.conditions = append(b.conditions, Contains(field, value))
}

// AddSearch requires term to occur in at least one of the searchable fields.
// An empty term is ignored.
func (b *FilterBuilder) AddSearch(term string) {
	if term == "" {
		return
	}
	clauses := make([]Expr, 0, len(searchFields))
	for _, f := range searchFields {
		clauses = append(clauses, Contains(f, term))
	}
	b.conditions = append(b.conditions, Or(clauses...))
}

// Expr returns the conjunction of every added condition, or All when none
// were added.
func (b *FilterBuilder) Expr() Expr {
	return And(b.conditions...)
}

// BuildFilter returns the predicate selecting the records a list request
// should see. Every filter is a case-insensitive literal substring match.
func BuildFilter(d Descriptor) Expr {
	b := NewFilterBuilder()
	b.AddContains(FieldArtist, d.Artist)
	b.AddContains(FieldAlbum, d.Album)
	b.AddContains(FieldGenre, d.Genre)
	b.AddSearch(d.Search)
	return b.Expr()
}
