package services

import (
	"context"
	"strings"
	"testing"

	"papermerge/models"

	"github.com/google/uuid"
)

type searchFixture struct {
	search SearchService
	nodes  *fakeNodeRepo
	shared *fakeSharedRepo
	cfs    *fakeCustomFieldRepo
	types  *fakeDocumentTypeRepo
	repo   *fakeSearchRepo
}

func newSearchFixture() *searchFixture {
	nodes := newFakeNodeRepo()
	shared := newFakeSharedRepo()
	cfs := newFakeCustomFieldRepo()
	types := newFakeDocumentTypeRepo(cfs)
	repo := &fakeSearchRepo{}
	svc := NewSearchService(nodes, shared, types, cfs, repo, "english")
	return &searchFixture{search: svc, nodes: nodes, shared: shared, cfs: cfs, types: types, repo: repo}
}

func superActor() Actor {
	return Actor{User: models.User{ID: uuid.New(), IsSuperuser: true}}
}

func whereJoined(f *searchFixture) string {
	return strings.Join(f.repo.lastQuery.Where, " AND ")
}

func TestRewriteFTS(t *testing.T) {
	cases := map[string]string{
		"invoice":          "invoice:*",
		"tax report":       "tax:* & report:*",
		"a&b | c!":         "a:* & b:* & c:*",
		"  spaced   out  ": "spaced:* & out:*",
		"!!!":              "",
	}
	for input, want := range cases {
		if got := rewriteFTS(input); got != want {
			t.Errorf("rewriteFTS(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestRegconfigFor(t *testing.T) {
	cases := map[string]string{
		"de":      "german",
		"EN":      "english",
		"english": "english",
		"german":  "german",
		"xx":      "simple",
		"":        "simple",
	}
	for input, want := range cases {
		if got := regconfigFor(input); got != want {
			t.Errorf("regconfigFor(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSearchFTSClause(t *testing.T) {
	f := newSearchFixture()
	_, err := f.search.SearchDocuments(context.Background(), superActor(), SearchParams{
		Filters: SearchFilters{FTS: "tax report"},
		Lang:    "de",
	})
	if err != nil {
		t.Fatalf("SearchDocuments: %v", err)
	}
	where := whereJoined(f)
	if !strings.Contains(where, "to_tsquery(?::regconfig, ?)") {
		t.Errorf("where = %q", where)
	}
	if f.repo.lastQuery.Args[0] != "german" || f.repo.lastQuery.Args[1] != "tax:* & report:*" {
		t.Errorf("args = %v", f.repo.lastQuery.Args)
	}
}

func TestSearchTagOperators(t *testing.T) {
	f := newSearchFixture()
	_, err := f.search.SearchDocuments(context.Background(), superActor(), SearchParams{
		Filters: SearchFilters{Tags: []ValuesFilter{
			{Operator: "all", Values: []string{"urgent", "paid"}},
			{Operator: "any", Values: []string{"2024"}},
			{Operator: "not", Values: []string{"archived"}},
			{Operator: "any"}, // no values, dropped
		}},
	})
	if err != nil {
		t.Fatalf("SearchDocuments: %v", err)
	}
	q := f.repo.lastQuery
	if len(q.Where) != 3 {
		t.Fatalf("where = %v, want 3 clauses", q.Where)
	}
	if !strings.Contains(q.Where[0], "@> ARRAY[?,?]::text[]") {
		t.Errorf("all clause = %q", q.Where[0])
	}
	if !strings.Contains(q.Where[1], "&& ARRAY[?]::text[]") {
		t.Errorf("any clause = %q", q.Where[1])
	}
	if !strings.HasPrefix(q.Where[2], "NOT (") {
		t.Errorf("not clause = %q", q.Where[2])
	}
	if len(q.Args) != 4 {
		t.Errorf("args = %v, want the 4 tag names", q.Args)
	}

	_, err = f.search.SearchDocuments(context.Background(), superActor(), SearchParams{
		Filters: SearchFilters{Tags: []ValuesFilter{{Operator: "xor", Values: []string{"x"}}}},
	})
	if err == nil {
		t.Error("unknown tag operator accepted")
	}
}

func TestSearchCategoryOperators(t *testing.T) {
	f := newSearchFixture()
	_, err := f.search.SearchDocuments(context.Background(), superActor(), SearchParams{
		Filters: SearchFilters{Categories: []ValuesFilter{
			{Operator: "any", Values: []string{"invoice", "receipt"}},
			{Operator: "not", Values: []string{"draft"}},
		}},
	})
	if err != nil {
		t.Fatalf("SearchDocuments: %v", err)
	}
	q := f.repo.lastQuery
	if !strings.Contains(q.Where[0], "document_type_name IN ?") {
		t.Errorf("any clause = %q", q.Where[0])
	}
	// Untyped documents must also match a negative category filter.
	if !strings.Contains(q.Where[1], "IS NULL OR") {
		t.Errorf("not clause = %q", q.Where[1])
	}
}

func TestSearchAccessScope(t *testing.T) {
	f := newSearchFixture()
	groupID := uuid.New()
	actor := Actor{User: models.User{ID: uuid.New()}, GroupIDs: []uuid.UUID{groupID}}

	sharedRoot := f.nodes.addFolder("shared", nil)
	child := f.nodes.addDocument("doc.pdf", sharedRoot.ID)
	actorID := actor.User.ID
	f.shared.grants = append(f.shared.grants, models.SharedNode{
		ID: uuid.New(), NodeID: sharedRoot.ID, UserID: &actorID, RoleID: uuid.New(),
	})

	_, err := f.search.SearchDocuments(context.Background(), actor, SearchParams{})
	if err != nil {
		t.Fatalf("SearchDocuments: %v", err)
	}
	q := f.repo.lastQuery
	if len(q.Where) != 1 {
		t.Fatalf("where = %v", q.Where)
	}
	scope := q.Where[0]
	if !strings.Contains(scope, "dsi.owner_type = 'user' AND dsi.owner_id = ?") {
		t.Errorf("scope missing direct ownership: %q", scope)
	}
	if !strings.Contains(scope, "dsi.owner_type = 'group' AND dsi.owner_id IN ?") {
		t.Errorf("scope missing group ownership: %q", scope)
	}
	if !strings.Contains(scope, "dsi.document_id IN ?") {
		t.Errorf("scope missing shared reachability: %q", scope)
	}
	// The reachable set must include the granted subtree's descendants.
	reachable, ok := q.Args[len(q.Args)-1].([]uuid.UUID)
	if !ok || len(reachable) != 2 {
		t.Fatalf("reachable arg = %v", q.Args[len(q.Args)-1])
	}
	found := false
	for _, id := range reachable {
		if id == child.ID {
			found = true
		}
	}
	if !found {
		t.Error("descendant of granted node missing from reachable set")
	}

	// Superusers skip scoping entirely.
	_, _ = f.search.SearchDocuments(context.Background(), superActor(), SearchParams{})
	if len(f.repo.lastQuery.Where) != 0 {
		t.Errorf("superuser where = %v, want unscoped", f.repo.lastQuery.Where)
	}
}

func TestTypedSearchCustomFieldFilter(t *testing.T) {
	f := newSearchFixture()
	typeID := uuid.New()
	field := models.CustomField{ID: uuid.New(), Name: "total", TypeHandler: models.CFTypeMonetary}
	f.cfs.fields[field.ID] = field
	f.cfs.fieldsByType[typeID] = []uuid.UUID{field.ID}

	_, err := f.search.SearchDocumentsByType(context.Background(), superActor(), typeID, SearchParams{
		Filters: SearchFilters{CustomFields: []CFFilter{
			{Name: "total", Operator: "gte", Values: []string{"100"}},
		}},
	})
	if err != nil {
		t.Fatalf("SearchDocumentsByType: %v", err)
	}
	q := f.repo.lastQuery
	if len(q.Joins) != 1 {
		t.Fatalf("joins = %v", q.Joins)
	}
	join := q.Joins[0]
	if strings.HasPrefix(join, "LEFT JOIN") {
		t.Errorf("value-matching filter must INNER JOIN, got %q", join)
	}
	if !strings.Contains(join, "cfv1.value_monetary >= ?") {
		t.Errorf("join predicate = %q", join)
	}
	// Join args come before where args: field id, then the threshold,
	// then the type filter's id.
	if q.Args[0] != field.ID {
		t.Errorf("args[0] = %v, want the field id", q.Args[0])
	}
	if q.Args[1] != float64(100) {
		t.Errorf("args[1] = %v, want 100", q.Args[1])
	}
	if q.Args[2] != typeID {
		t.Errorf("args[2] = %v, want the document type id", q.Args[2])
	}
	if !strings.Contains(whereJoined(f), "dsi.document_type_id = ?") {
		t.Errorf("where = %q", whereJoined(f))
	}
}

func TestTypedSearchNullOperatorUsesLeftJoin(t *testing.T) {
	f := newSearchFixture()
	typeID := uuid.New()
	field := models.CustomField{ID: uuid.New(), Name: "reviewed", TypeHandler: models.CFTypeBoolean}
	f.cfs.fields[field.ID] = field
	f.cfs.fieldsByType[typeID] = []uuid.UUID{field.ID}

	_, err := f.search.SearchDocumentsByType(context.Background(), superActor(), typeID, SearchParams{
		Filters: SearchFilters{CustomFields: []CFFilter{
			{Name: "reviewed", Operator: "is_not_checked"},
		}},
	})
	if err != nil {
		t.Fatalf("SearchDocumentsByType: %v", err)
	}
	q := f.repo.lastQuery
	if len(q.Joins) != 1 || !strings.HasPrefix(q.Joins[0], "LEFT JOIN") {
		t.Errorf("joins = %v, want a LEFT JOIN so missing rows match", q.Joins)
	}
	if !strings.Contains(whereJoined(f), "IS DISTINCT FROM TRUE") {
		t.Errorf("where = %q", whereJoined(f))
	}
}

func TestTypedSearchUnknownFieldName(t *testing.T) {
	f := newSearchFixture()
	typeID := uuid.New()
	_, err := f.search.SearchDocumentsByType(context.Background(), superActor(), typeID, SearchParams{
		Filters: SearchFilters{CustomFields: []CFFilter{{Name: "nope", Operator: "eq", Values: []string{"x"}}}},
	})
	if err == nil {
		t.Error("unknown custom field name accepted")
	}
}

func TestUntypedSearchIgnoresCFFilters(t *testing.T) {
	f := newSearchFixture()
	_, err := f.search.SearchDocuments(context.Background(), superActor(), SearchParams{
		Filters: SearchFilters{CustomFields: []CFFilter{{Name: "total", Operator: "eq", Values: []string{"1"}}}},
	})
	if err != nil {
		t.Fatalf("SearchDocuments: %v", err)
	}
	if len(f.repo.lastQuery.Joins) != 0 {
		t.Errorf("untyped search must drop custom field filters, joins = %v", f.repo.lastQuery.Joins)
	}
}

func TestSearchSorting(t *testing.T) {
	f := newSearchFixture()

	_, err := f.search.SearchDocuments(context.Background(), superActor(), SearchParams{})
	if err != nil {
		t.Fatalf("SearchDocuments: %v", err)
	}
	if f.repo.lastQuery.OrderBy != "n.created_at DESC" {
		t.Errorf("default order = %q", f.repo.lastQuery.OrderBy)
	}

	_, err = f.search.SearchDocuments(context.Background(), superActor(), SearchParams{SortBy: "title", SortDirection: "asc"})
	if err != nil {
		t.Fatalf("SearchDocuments: %v", err)
	}
	if f.repo.lastQuery.OrderBy != "n.title ASC" {
		t.Errorf("order = %q", f.repo.lastQuery.OrderBy)
	}

	if _, err := f.search.SearchDocuments(context.Background(), superActor(), SearchParams{SortBy: "size"}); err == nil {
		t.Error("unknown sort column accepted")
	}
	if _, err := f.search.SearchDocuments(context.Background(), superActor(), SearchParams{SortDirection: "sideways"}); err == nil {
		t.Error("bad sort direction accepted")
	}
}

func TestTypedSearchSortByCustomField(t *testing.T) {
	f := newSearchFixture()
	typeID := uuid.New()
	field := models.CustomField{ID: uuid.New(), Name: "total", TypeHandler: models.CFTypeMonetary}
	f.cfs.fields[field.ID] = field
	f.cfs.fieldsByType[typeID] = []uuid.UUID{field.ID}

	_, err := f.search.SearchDocumentsByType(context.Background(), superActor(), typeID, SearchParams{
		SortBy: "total", SortDirection: "asc",
	})
	if err != nil {
		t.Fatalf("SearchDocumentsByType: %v", err)
	}
	q := f.repo.lastQuery
	if q.OrderBy != "cfv1.value_monetary ASC" {
		t.Errorf("order = %q", q.OrderBy)
	}
	if len(q.Joins) != 1 || !strings.HasPrefix(q.Joins[0], "LEFT JOIN") {
		t.Errorf("sort join = %v, want LEFT JOIN so valueless documents still list", q.Joins)
	}
}

func TestSearchPagination(t *testing.T) {
	f := newSearchFixture()
	f.repo.total = 45

	out, err := f.search.SearchDocuments(context.Background(), superActor(), SearchParams{PageNumber: 3, PageSize: 10})
	if err != nil {
		t.Fatalf("SearchDocuments: %v", err)
	}
	if f.repo.lastQuery.Limit != 10 || f.repo.lastQuery.Offset != 20 {
		t.Errorf("limit/offset = %d/%d", f.repo.lastQuery.Limit, f.repo.lastQuery.Offset)
	}
	if out.NumPages != 5 || out.TotalItems != 45 {
		t.Errorf("out = %+v", out)
	}

	// Out-of-range inputs clamp instead of failing.
	if _, err := f.search.SearchDocuments(context.Background(), superActor(), SearchParams{PageNumber: -1, PageSize: 0}); err != nil {
		t.Fatalf("clamped search failed: %v", err)
	}
	if f.repo.lastQuery.Offset != 0 {
		t.Errorf("offset = %d, want 0", f.repo.lastQuery.Offset)
	}
}

func TestSearchTimestampFilters(t *testing.T) {
	f := newSearchFixture()
	_, err := f.search.SearchDocuments(context.Background(), superActor(), SearchParams{
		Filters: SearchFilters{
			CreatedAt: []CondFilter{{Operator: "range", Values: []string{"2024-01-01", "2024-12-31"}}},
			UpdatedAt: []CondFilter{{Operator: "gte", Values: []string{"2024-06-01"}}},
		},
	})
	if err != nil {
		t.Fatalf("SearchDocuments: %v", err)
	}
	where := whereJoined(f)
	if !strings.Contains(where, "n.created_at BETWEEN ? AND ?") {
		t.Errorf("where = %q", where)
	}
	if !strings.Contains(where, "n.updated_at >= ?") {
		t.Errorf("where = %q", where)
	}

	if _, err := f.search.SearchDocuments(context.Background(), superActor(), SearchParams{
		Filters: SearchFilters{CreatedAt: []CondFilter{{Operator: "range", Values: []string{"2024-01-01"}}}},
	}); err == nil {
		t.Error("range with one value accepted")
	}
	if _, err := f.search.SearchDocuments(context.Background(), superActor(), SearchParams{
		Filters: SearchFilters{CreatedAt: []CondFilter{{Operator: "soon", Values: []string{"2024-01-01"}}}},
	}); err == nil {
		t.Error("unknown timestamp operator accepted")
	}
}
