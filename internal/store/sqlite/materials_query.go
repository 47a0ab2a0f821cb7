package sqlite

import (
	"context"
	"strings"

	"github.com/edubase4teachers/edubase-server/internal/domain"
	"github.com/edubase4teachers/edubase-server/internal/search"
)

// The listing query is assembled from typed predicates instead of ad-hoc
// string concatenation. Each active filter contributes one clause; all
// clauses are AND-composed. Values always travel as bind parameters.

// predicate is one conditional piece of the materials listing query.
type predicate interface {
	apply(b *listQueryBuilder)
}

// equalsFilter matches a column against an exact value.
type equalsFilter struct {
	column string // trusted, compile-time column name
	value  string
}

func (f equalsFilter) apply(b *listQueryBuilder) {
	b.where = append(b.where, f.column+" = ?")
	b.args = append(b.args, f.value)
}

// textMatchFilter joins the FTS index and matches the sanitized query
// expression. Also exposes the rank column for relevance ordering.
type textMatchFilter struct {
	query string
}

func (f textMatchFilter) apply(b *listQueryBuilder) {
	b.joins = append(b.joins, "JOIN materials_fts ON materials_fts.rowid = m.id")
	b.where = append(b.where, "materials_fts MATCH ?")
	b.args = append(b.args, ftsMatchExpr(f.query))
}

// ftsMatchExpr converts a normalized term like `foo* bar*` into the FTS5
// expression `"foo"* "bar"*`. Quoting each token keeps barewords that
// collide with query keywords (AND, NOT) or contain hyphens from being
// parsed as syntax. The sanitizer guarantees tokens never contain quotes.
func ftsMatchExpr(term string) string {
	tokens := strings.Fields(term)
	for i, tok := range tokens {
		tokens[i] = `"` + strings.TrimSuffix(tok, "*") + `"*`
	}
	return strings.Join(tokens, " ")
}

// authorFilter restricts results to materials created by one user.
type authorFilter struct {
	userID int64
}

func (f authorFilter) apply(b *listQueryBuilder) {
	b.where = append(b.where, "m.user_id = ?")
	b.args = append(b.args, f.userID)
}

// existsSubqueryFilter requires a favorites row linking the user to the material.
type existsSubqueryFilter struct {
	userID int64
}

func (f existsSubqueryFilter) apply(b *listQueryBuilder) {
	b.where = append(b.where, "EXISTS (SELECT 1 FROM favorites fav WHERE fav.user_id = ? AND fav.material_id = m.id)")
	b.args = append(b.args, f.userID)
}

type listQueryBuilder struct {
	joins []string
	where []string
	args  []any
}

// buildFilters maps the active fields of a normalized query onto predicates.
func buildFilters(q search.Query) []predicate {
	var filters []predicate
	if q.Subject != "" {
		filters = append(filters, equalsFilter{column: "m.subject", value: q.Subject})
	}
	if q.Grade != "" {
		filters = append(filters, equalsFilter{column: "m.grade", value: q.Grade})
	}
	if q.Type != "" {
		filters = append(filters, equalsFilter{column: "m.type", value: q.Type})
	}
	if q.Term != "" {
		filters = append(filters, textMatchFilter{query: q.Term})
	}
	if q.FavoriteOfUserID > 0 {
		filters = append(filters, existsSubqueryFilter{userID: q.FavoriteOfUserID})
	}
	if q.AuthorID > 0 {
		filters = append(filters, authorFilter{userID: q.AuthorID})
	}
	return filters
}

// Order-by expressions per resolved mode. With FTS5's bm25 scoring, a more
// negative rank means a better match, so rank ASC puts the best match first.
const (
	orderByRelevance = "materials_fts.rank ASC, datetime(m.created_at) DESC"
	orderByPopular   = "m.downloads DESC, m.views DESC, datetime(m.created_at) DESC"
	orderByNew       = "datetime(m.created_at) DESC"
)

// resolveOrderBy picks the ordering for a normalized query. Relevance
// ordering only applies when a text match is active; asking for relevance
// without a search term falls back to newest-first. Popular ordering wins
// over relevance even when a term is present.
func resolveOrderBy(q search.Query) string {
	switch {
	case q.Term != "" && (q.Sort == search.SortRelevance || q.Sort == search.SortNew):
		return orderByRelevance
	case q.Sort == search.SortPopular:
		return orderByPopular
	default:
		return orderByNew
	}
}

// ListMaterials runs the ranked, filtered, paginated listing query and
// returns bare material rows with author info attached. Attachments are
// loaded separately by the caller via ListFilesByMaterialIDs.
//
// Rows with equal created_at under the "new" ordering come back in an
// unspecified order; there is deliberately no secondary id tie-break.
func (s *Store) ListMaterials(ctx context.Context, q search.Query) ([]*domain.Material, error) {
	b := &listQueryBuilder{}
	for _, f := range buildFilters(q) {
		f.apply(b)
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + materialColumns + ` FROM materials m JOIN users u ON u.id = m.user_id`)
	for _, join := range b.joins {
		sb.WriteString(" ")
		sb.WriteString(join)
	}
	if len(b.where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.where, " AND "))
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(resolveOrderBy(q))
	sb.WriteString(" LIMIT ? OFFSET ?")

	args := append(b.args, q.Limit, q.Offset)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var materials []*domain.Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return materials, nil
}
