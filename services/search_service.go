package services

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"papermerge/logger"
	"papermerge/models"
	"papermerge/repositories"

	"github.com/google/uuid"
)

// ValuesFilter is a tag or category filter: a set of values and how to
// combine them.
type ValuesFilter struct {
	Operator string   `json:"operator"` // any, all, not
	Values   []string `json:"values"`
}

// CFFilter targets one custom field of the active document type by name.
type CFFilter struct {
	Name     string   `json:"name"`
	Operator string   `json:"operator"`
	Values   []string `json:"values"`
}

// CondFilter is one (operator, value) condition on an audit timestamp.
type CondFilter struct {
	Operator string   `json:"operator"` // eq, gt, gte, lt, lte, range
	Values   []string `json:"values"`
}

type OwnerFilter struct {
	Operator  string    `json:"operator"` // eq, neq
	OwnerType string    `json:"owner_type"`
	OwnerID   uuid.UUID `json:"owner_id"`
}

type SearchFilters struct {
	FTS          string         `json:"fts,omitempty"`
	Tags         []ValuesFilter `json:"tags,omitempty"`
	Categories   []ValuesFilter `json:"categories,omitempty"`
	CustomFields []CFFilter     `json:"custom_fields,omitempty"`
	CreatedAt    []CondFilter   `json:"created_at,omitempty"`
	UpdatedAt    []CondFilter   `json:"updated_at,omitempty"`
	CreatedBy    []uuid.UUID    `json:"created_by,omitempty"`
	UpdatedBy    []uuid.UUID    `json:"updated_by,omitempty"`
	Owner        []OwnerFilter  `json:"owner,omitempty"`
}

type SearchParams struct {
	Filters       SearchFilters `json:"filters"`
	SortBy        string        `json:"sort_by"`
	SortDirection string        `json:"sort_direction"`
	PageNumber    int           `json:"page_number"`
	PageSize      int           `json:"page_size"`
	Lang          string        `json:"lang"`
}

type SearchPageOutput struct {
	Items        []repositories.SearchHit `json:"items"`
	PageNumber   int                      `json:"page_number"`
	PageSize     int                      `json:"page_size"`
	NumPages     int                      `json:"num_pages"`
	TotalItems   int64                    `json:"total_items"`
	CustomFields []models.CustomField     `json:"custom_fields,omitempty"`
}

type SearchService interface {
	SearchDocuments(ctx context.Context, actor Actor, params SearchParams) (SearchPageOutput, error)
	SearchDocumentsByType(ctx context.Context, actor Actor, typeID uuid.UUID, params SearchParams) (SearchPageOutput, error)
}

type searchService struct {
	nodes         repositories.NodeRepository
	shared        repositories.SharedNodeRepository
	documentTypes repositories.DocumentTypeRepository
	customFields  repositories.CustomFieldRepository
	search        repositories.SearchRepository
	defaultLang   string
}

func NewSearchService(
	nodes repositories.NodeRepository,
	shared repositories.SharedNodeRepository,
	documentTypes repositories.DocumentTypeRepository,
	customFields repositories.CustomFieldRepository,
	search repositories.SearchRepository,
	defaultLang string,
) SearchService {
	return &searchService{
		nodes:         nodes,
		shared:        shared,
		documentTypes: documentTypes,
		customFields:  customFields,
		search:        search,
		defaultLang:   defaultLang,
	}
}

// Postgres text search configurations per two-letter language code.
var langConfigs = map[string]string{
	"en": "english",
	"de": "german",
	"fr": "french",
	"es": "spanish",
	"it": "italian",
	"pt": "portuguese",
	"nl": "dutch",
	"ru": "russian",
	"sv": "swedish",
	"da": "danish",
	"fi": "finnish",
	"no": "norwegian",
	"tr": "turkish",
	"hu": "hungarian",
}

func regconfigFor(lang string) string {
	lang = strings.ToLower(lang)
	if cfg, ok := langConfigs[lang]; ok {
		return cfg
	}
	// Full configuration names pass through unchanged.
	for _, cfg := range langConfigs {
		if cfg == lang {
			return lang
		}
	}
	return "simple"
}

// Sortable columns. Custom-field names are resolved separately for
// typed search.
var searchOrderColumns = map[string]string{
	"title":              "n.title",
	"created_at":         "n.created_at",
	"updated_at":         "n.updated_at",
	"document_type_name": "dsi.document_type_name",
	"owner":              "dsi.owner_id",
}

func (s *searchService) SearchDocuments(ctx context.Context, actor Actor, params SearchParams) (SearchPageOutput, error) {
	return s.run(ctx, actor, nil, params)
}

func (s *searchService) SearchDocumentsByType(ctx context.Context, actor Actor, typeID uuid.UUID, params SearchParams) (SearchPageOutput, error) {
	return s.run(ctx, actor, &typeID, params)
}

type queryBuilder struct {
	joins     []string
	joinArgs  []interface{}
	where     []string
	whereArgs []interface{}
	joinSeq   int
}

func (b *queryBuilder) addWhere(cond string, args ...interface{}) {
	b.where = append(b.where, cond)
	b.whereArgs = append(b.whereArgs, args...)
}

func (b *queryBuilder) addJoin(join string, args ...interface{}) {
	b.joins = append(b.joins, join)
	b.joinArgs = append(b.joinArgs, args...)
}

func (b *queryBuilder) nextAlias() string {
	b.joinSeq++
	return fmt.Sprintf("cfv%d", b.joinSeq)
}

// textArrayExpr renders a parameterized text[] constructor.
func textArrayExpr(values []string) (string, []interface{}) {
	marks := make([]string, len(values))
	args := make([]interface{}, len(values))
	for i, v := range values {
		marks[i] = "?"
		args[i] = v
	}
	return "ARRAY[" + strings.Join(marks, ",") + "]::text[]", args
}

// rewriteFTS lexes free text into an AND-combined prefix tsquery,
// stripping characters that carry tsquery syntax.
func rewriteFTS(input string) string {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, input)
	var terms []string
	for _, t := range strings.Fields(clean) {
		terms = append(terms, t+":*")
	}
	return strings.Join(terms, " & ")
}

func (s *searchService) run(ctx context.Context, actor Actor, typeID *uuid.UUID, params SearchParams) (SearchPageOutput, error) {
	page, size := clampPage(params.PageNumber, params.PageSize)
	lang := params.Lang
	if lang == "" {
		lang = s.defaultLang
	}

	b := &queryBuilder{}

	if err := s.applyAccessScope(ctx, actor, b); err != nil {
		return SearchPageOutput{}, err
	}

	var typeFields []models.CustomField
	if typeID != nil {
		b.addWhere("dsi.document_type_id = ?", *typeID)
		fields, err := s.customFields.FieldsForType(ctx, nil, *typeID)
		if err != nil {
			return SearchPageOutput{}, errInternal("failed to load custom fields", err)
		}
		typeFields = fields
	}

	if fts := strings.TrimSpace(params.Filters.FTS); fts != "" {
		query := rewriteFTS(fts)
		if query != "" {
			b.addWhere("dsi.search_vector @@ to_tsquery(?::regconfig, ?)", regconfigFor(lang), query)
		}
	}

	for _, f := range params.Filters.Tags {
		if len(f.Values) == 0 {
			continue
		}
		arr, args := textArrayExpr(f.Values)
		switch f.Operator {
		case "all":
			b.addWhere("dsi.tags @> "+arr, args...)
		case "any", "":
			b.addWhere("dsi.tags && "+arr, args...)
		case "not":
			b.addWhere("NOT (dsi.tags && "+arr+")", args...)
		default:
			return SearchPageOutput{}, errValidation("unknown tag operator: " + f.Operator)
		}
	}

	for _, f := range params.Filters.Categories {
		if len(f.Values) == 0 {
			continue
		}
		switch f.Operator {
		case "any", "":
			b.addWhere("dsi.document_type_name IN ?", f.Values)
		case "all":
			for _, v := range f.Values {
				b.addWhere("dsi.document_type_name = ?", v)
			}
		case "not":
			b.addWhere("(dsi.document_type_name IS NULL OR dsi.document_type_name NOT IN ?)", f.Values)
		default:
			return SearchPageOutput{}, errValidation("unknown category operator: " + f.Operator)
		}
	}

	if err := s.applyCFFilters(b, typeFields, typeID != nil, params.Filters.CustomFields); err != nil {
		return SearchPageOutput{}, err
	}

	if err := applyAuditFilters(b, params.Filters); err != nil {
		return SearchPageOutput{}, err
	}

	orderBy, err := s.buildOrder(b, typeFields, params.SortBy, params.SortDirection)
	if err != nil {
		return SearchPageOutput{}, err
	}

	q := repositories.SearchQuery{
		Joins:   b.joins,
		Where:   b.where,
		Args:    append(append([]interface{}{}, b.joinArgs...), b.whereArgs...),
		OrderBy: orderBy,
		Limit:   size,
		Offset:  (page - 1) * size,
	}

	ids, total, err := s.search.Run(ctx, q)
	if err != nil {
		return SearchPageOutput{}, errInternal("search query failed", err)
	}
	hits, err := s.search.Hydrate(ctx, ids)
	if err != nil {
		return SearchPageOutput{}, errInternal("search hydration failed", err)
	}

	out := SearchPageOutput{
		Items:      hits,
		PageNumber: page,
		PageSize:   size,
		NumPages:   numPages(total, size),
		TotalItems: total,
	}
	if typeID != nil {
		out.CustomFields = typeFields
		if err := s.attachCFVs(ctx, out.Items); err != nil {
			return SearchPageOutput{}, err
		}
	}
	return out, nil
}

// applyAccessScope restricts results to documents the actor owns
// directly, owns through a group, or can reach through a shared subtree.
func (s *searchService) applyAccessScope(ctx context.Context, actor Actor, b *queryBuilder) error {
	if actor.User.IsSuperuser {
		return nil
	}
	conds := []string{"(dsi.owner_type = 'user' AND dsi.owner_id = ?)"}
	args := []interface{}{actor.User.ID}
	if len(actor.GroupIDs) > 0 {
		conds = append(conds, "(dsi.owner_type = 'group' AND dsi.owner_id IN ?)")
		args = append(args, actor.GroupIDs)
	}
	granted, err := s.shared.GrantedNodeIDs(ctx, nil, actor.User.ID, actor.GroupIDs)
	if err != nil {
		return errInternal("failed to load shared grants", err)
	}
	if len(granted) > 0 {
		reachable, err := s.nodes.Descendants(ctx, nil, granted, true)
		if err != nil {
			return errInternal("failed to expand shared subtrees", err)
		}
		if len(reachable) > 0 {
			conds = append(conds, "dsi.document_id IN ?")
			args = append(args, reachable)
		}
	}
	b.addWhere("("+strings.Join(conds, " OR ")+")", args...)
	return nil
}

// applyCFFilters attaches one join per custom-field filter. Null
// operators use a LEFT JOIN so that a missing value row matches too;
// everything else inlines the handler predicate into an INNER JOIN.
func (s *searchService) applyCFFilters(b *queryBuilder, typeFields []models.CustomField, typed bool, filters []CFFilter) error {
	if len(filters) > 0 && !typed {
		logger.Warnf("custom field filters are only supported in typed search; ignoring %d filter(s)", len(filters))
		return nil
	}
	byName := make(map[string]models.CustomField, len(typeFields))
	for _, f := range typeFields {
		byName[f.Name] = f
	}
	for _, f := range filters {
		field, ok := byName[f.Name]
		if !ok {
			return errValidation("unknown custom field name: " + f.Name)
		}
		handler, err := HandlerFor(field.TypeHandler)
		if err != nil {
			return errValidation(err.Error())
		}
		cfg, err := handler.ParseConfig(field.Config)
		if err != nil {
			return errValidation(err.Error())
		}
		alias := b.nextAlias()
		column := alias + "." + handler.SortColumn()
		if IsNullOperator(f.Operator) {
			pred, predArgs, err := handler.FilterExpr(column, f.Operator, f.Values, cfg)
			if err != nil {
				return errValidation(err.Error())
			}
			b.addJoin(fmt.Sprintf(
				"LEFT JOIN custom_field_values %s ON %s.document_id = dsi.document_id AND %s.field_id = ?",
				alias, alias, alias), field.ID)
			b.addWhere(pred, predArgs...)
		} else {
			pred, predArgs, err := handler.FilterExpr(column, f.Operator, f.Values, cfg)
			if err != nil {
				return errValidation(err.Error())
			}
			join := fmt.Sprintf(
				"JOIN custom_field_values %s ON %s.document_id = dsi.document_id AND %s.field_id = ? AND %s",
				alias, alias, alias, pred)
			b.addJoin(join, append([]interface{}{field.ID}, predArgs...)...)
		}
	}
	return nil
}

var auditOperators = map[string]string{
	"eq":  "=",
	"gt":  ">",
	"gte": ">=",
	"lt":  "<",
	"lte": "<=",
}

func applyAuditFilters(b *queryBuilder, filters SearchFilters) error {
	apply := func(column string, conds []CondFilter) error {
		for _, c := range conds {
			if c.Operator == "range" {
				if len(c.Values) != 2 {
					return errValidation("range requires exactly two values")
				}
				from, err := Str2DateTime(c.Values[0])
				if err != nil {
					return errValidation(err.Error())
				}
				to, err := Str2DateTime(c.Values[1])
				if err != nil {
					return errValidation(err.Error())
				}
				b.addWhere(column+" BETWEEN ? AND ?", from, to)
				continue
			}
			op, ok := auditOperators[c.Operator]
			if !ok {
				return errValidation("unknown timestamp operator: " + c.Operator)
			}
			if len(c.Values) != 1 {
				return errValidation(c.Operator + " requires exactly one value")
			}
			v, err := Str2DateTime(c.Values[0])
			if err != nil {
				return errValidation(err.Error())
			}
			b.addWhere(column+" "+op+" ?", v)
		}
		return nil
	}
	if err := apply("n.created_at", filters.CreatedAt); err != nil {
		return err
	}
	if err := apply("n.updated_at", filters.UpdatedAt); err != nil {
		return err
	}
	if len(filters.CreatedBy) > 0 {
		b.addWhere("n.created_by IN ?", filters.CreatedBy)
	}
	if len(filters.UpdatedBy) > 0 {
		b.addWhere("n.updated_by IN ?", filters.UpdatedBy)
	}
	for _, o := range filters.Owner {
		if o.OwnerType != models.OwnerTypeUser && o.OwnerType != models.OwnerTypeGroup {
			return errValidation("owner type must be user or group")
		}
		switch o.Operator {
		case "eq", "":
			b.addWhere("(dsi.owner_type = ? AND dsi.owner_id = ?)", o.OwnerType, o.OwnerID)
		case "neq":
			b.addWhere("NOT (dsi.owner_type = ? AND dsi.owner_id = ?)", o.OwnerType, o.OwnerID)
		default:
			return errValidation("unknown owner operator: " + o.Operator)
		}
	}
	return nil
}

func (s *searchService) buildOrder(b *queryBuilder, typeFields []models.CustomField, sortBy, direction string) (string, error) {
	dir := "DESC"
	switch strings.ToLower(direction) {
	case "", "desc":
	case "asc":
		dir = "ASC"
	default:
		return "", errValidation("sort_direction must be asc or desc")
	}
	if sortBy == "" {
		return "n.created_at DESC", nil
	}
	if col, ok := searchOrderColumns[sortBy]; ok {
		return col + " " + dir, nil
	}
	for _, f := range typeFields {
		if f.Name != sortBy {
			continue
		}
		handler, err := HandlerFor(f.TypeHandler)
		if err != nil {
			return "", errValidation(err.Error())
		}
		alias := b.nextAlias()
		b.addJoin(fmt.Sprintf(
			"LEFT JOIN custom_field_values %s ON %s.document_id = dsi.document_id AND %s.field_id = ?",
			alias, alias, alias), f.ID)
		return fmt.Sprintf("%s.%s %s", alias, handler.SortColumn(), dir), nil
	}
	return "", errValidation("unknown sort column: " + sortBy)
}

// attachCFVs batches custom-field values for one result page.
func (s *searchService) attachCFVs(ctx context.Context, hits []repositories.SearchHit) error {
	if len(hits) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(hits))
	for i, h := range hits {
		ids[i] = h.DocumentID
	}
	values, err := s.customFields.ValuesForDocuments(ctx, nil, ids)
	if err != nil {
		return errInternal("failed to load custom field values", err)
	}
	byDoc := make(map[uuid.UUID][]models.CustomFieldValue)
	for _, v := range values {
		byDoc[v.DocumentID] = append(byDoc[v.DocumentID], v)
	}
	for i := range hits {
		hits[i].CustomFields = byDoc[hits[i].DocumentID]
	}
	return nil
}
