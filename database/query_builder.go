package database

import (
	"fmt"
	"strings"

	"songbook/query"
)

const (
	columnID        = "id"
	columnTitle     = "title"
	columnArtist    = "artist"
	columnAlbum     = "album"
	columnGenre     = "genre"
	columnCreatedAt = "created_at"
	columnUpdatedAt = "updated_at"
)

var columns = map[query.Field]string{
	query.FieldTitle:     columnTitle,
	query.FieldArtist:    columnArtist,
	query.FieldAlbum:     columnAlbum,
	query.FieldGenre:     columnGenre,
	query.FieldCreatedAt: columnCreatedAt,
	query.FieldUpdatedAt: columnUpdatedAt,
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// QueryBuilder compiles query expressions into parameterised SQL.
// Every value is bound as a $N placeholder; only column names from the
// fixed column map are written into the statement text.
type QueryBuilder struct {
	conditions []string
	args       []interface{}
	argCount   int
}

func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{
		conditions: []string{},
		args:       []interface{}{},
		argCount:   1,
	}
}

// AddFilter adds e as a WHERE condition. All adds nothing.
func (qb *QueryBuilder) AddFilter(e query.Expr) error {
	if e.IsAll() {
		return nil
	}
	cond, err := qb.compile(e)
	if err != nil {
		return err
	}
	qb.conditions = append(qb.conditions, cond)
	return nil
}

// Score returns a SQL expression computing sc for a row.
func (qb *QueryBuilder) Score(sc query.Score) (string, error) {
	if len(sc) == 0 {
		return "0", nil
	}
	terms := make([]string, 0, len(sc))
	for _, tier := range sc {
		if len(tier) == 0 {
			continue
		}
		var b strings.Builder
		b.WriteString("CASE")
		for _, rule := range tier {
			cond, err := qb.compile(rule.When)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&b, " WHEN %s THEN %d", cond, rule.Points)
		}
		b.WriteString(" ELSE 0 END")
		terms = append(terms, b.String())
	}
	if len(terms) == 0 {
		return "0", nil
	}
	return "(" + strings.Join(terms, " + ") + ")", nil
}

func (qb *QueryBuilder) compile(e query.Expr) (string, error) {
	switch e.Kind {
	case query.KindAll:
		return "TRUE", nil
	case query.KindEquals, query.KindPrefix, query.KindContains:
		col, err := column(e.Field)
		if err != nil {
			return "", err
		}
		switch e.Kind {
		case query.KindEquals:
			return fmt.Sprintf("LOWER(%s) = LOWER(%s)", col, qb.bind(e.Value)), nil
		case query.KindPrefix:
			return fmt.Sprintf("%s ILIKE %s", col, qb.bind(likeEscaper.Replace(e.Value)+"%")), nil
		default:
			return fmt.Sprintf("%s ILIKE %s", col, qb.bind("%"+likeEscaper.Replace(e.Value)+"%")), nil
		}
	case query.KindAnd, query.KindOr:
		parts := make([]string, 0, len(e.Operands))
		for _, op := range e.Operands {
			part, err := qb.compile(op)
			if err != nil {
				return "", err
			}
			parts = append(parts, part)
		}
		sep := " AND "
		if e.Kind == query.KindOr {
			sep = " OR "
		}
		return "(" + strings.Join(parts, sep) + ")", nil
	}
	return "", fmt.Errorf("unsupported expression kind %s", e.Kind)
}

func (qb *QueryBuilder) bind(v interface{}) string {
	placeholder := fmt.Sprintf("$%d", qb.argCount)
	qb.args = append(qb.args, v)
	qb.argCount++
	return placeholder
}

func (qb *QueryBuilder) WhereClause() string {
	if len(qb.conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(qb.conditions, " AND ")
}

func (qb *QueryBuilder) Args() []interface{} {
	return qb.args
}

func (qb *QueryBuilder) NextArgNum() int {
	return qb.argCount
}

func column(f query.Field) (string, error) {
	col, ok := columns[f]
	if !ok {
		return "", fmt.Errorf("unknown field %q", f)
	}
	return col, nil
}

// orderClause orders by score first when scored, then by sort, then by id.
func orderClause(by query.Sort, scored bool) (string, error) {
	col, err := column(by.Field)
	if err != nil {
		return "", err
	}
	dir := "DESC"
	if by.Order == query.OrderAsc {
		dir = "ASC"
	}
	clause := fmt.Sprintf("ORDER BY %s %s, %s ASC", col, dir, columnID)
	if scored {
		clause = fmt.Sprintf("ORDER BY score DESC, %s %s, %s ASC", col, dir, columnID)
	}
	return clause, nil
}
