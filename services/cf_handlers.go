package services

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"papermerge/models"
)

// CFConfig is the handler-specific configuration parsed from a custom
// field's config JSON.
type CFConfig struct {
	Currency  string   `json:"currency,omitempty"`
	Precision int      `json:"precision,omitempty"`
	Options   []string `json:"options,omitempty"`
}

// TypeHandler is the per-kind contract: which physical column carries the
// value, how to validate configuration, how to normalize input, and how
// to build a filter predicate over the column.
type TypeHandler interface {
	SortColumn() string
	ParseConfig(raw *string) (CFConfig, error)
	// Coerce returns a value row with exactly one value_* column set.
	Coerce(value interface{}, cfg CFConfig) (models.CustomFieldValue, error)
	// FilterExpr builds a parameterized predicate over the qualified
	// column name.
	FilterExpr(column, operator string, values []string, cfg CFConfig) (string, []interface{}, error)
}

var cfHandlers = map[string]TypeHandler{
	models.CFTypeText:        textHandler{},
	models.CFTypeInteger:     numericHandler{column: "value_numeric", integral: true},
	models.CFTypeNumeric:     numericHandler{column: "value_numeric"},
	models.CFTypeMonetary:    numericHandler{column: "value_monetary"},
	models.CFTypeYearMonth:   yearMonthHandler{},
	models.CFTypeDate:        dateHandler{column: "value_date"},
	models.CFTypeDateTime:    dateHandler{column: "value_datetime", withTime: true},
	models.CFTypeBoolean:     booleanHandler{},
	models.CFTypeSelect:      selectHandler{},
	models.CFTypeMultiselect: multiselectHandler{},
}

// HandlerFor resolves the handler for a type_handler name.
func HandlerFor(typeHandler string) (TypeHandler, error) {
	h, ok := cfHandlers[typeHandler]
	if !ok {
		return nil, fmt.Errorf("unknown custom field type handler %q", typeHandler)
	}
	return h, nil
}

// Null-ish operators need LEFT JOIN semantics so a missing value row also
// matches.
var nullOperators = map[string]bool{
	"is_null":        true,
	"is_not_null":    true,
	"is_not_checked": true,
}

func IsNullOperator(op string) bool {
	return nullOperators[op]
}

func parseCFConfig(raw *string) (CFConfig, error) {
	var cfg CFConfig
	if raw == nil || *raw == "" {
		return cfg, nil
	}
	if err := json.Unmarshal([]byte(*raw), &cfg); err != nil {
		return cfg, fmt.Errorf("invalid custom field config: %w", err)
	}
	return cfg, nil
}

func asString(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("expected a string value, got %T", value)
	}
}

func asFloat(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("expected a number, got %q", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", value)
	}
}

func unknownOperator(handler, op string) error {
	return fmt.Errorf("operator %q is not supported by the %s handler", op, handler)
}

// --- text ---

type textHandler struct{}

func (textHandler) SortColumn() string { return "value_text" }

func (textHandler) ParseConfig(raw *string) (CFConfig, error) { return parseCFConfig(raw) }

func (textHandler) Coerce(value interface{}, _ CFConfig) (models.CustomFieldValue, error) {
	s, err := asString(value)
	if err != nil {
		return models.CustomFieldValue{}, err
	}
	return models.CustomFieldValue{ValueText: &s}, nil
}

func (textHandler) FilterExpr(column, op string, values []string, _ CFConfig) (string, []interface{}, error) {
	if err := requireValues(op, values, 1); err != nil {
		return "", nil, err
	}
	switch op {
	case "eq":
		return column + " = ?", []interface{}{values[0]}, nil
	case "neq":
		return column + " <> ?", []interface{}{values[0]}, nil
	case "contains":
		return column + " ILIKE ?", []interface{}{"%" + values[0] + "%"}, nil
	case "starts_with":
		return column + " ILIKE ?", []interface{}{values[0] + "%"}, nil
	case "ends_with":
		return column + " ILIKE ?", []interface{}{"%" + values[0]}, nil
	case "is_null":
		return column + " IS NULL", nil, nil
	case "is_not_null":
		return column + " IS NOT NULL", nil, nil
	default:
		return "", nil, unknownOperator("text", op)
	}
}

// --- integer / numeric / monetary ---

type numericHandler struct {
	column   string
	integral bool
}

func (h numericHandler) SortColumn() string { return h.column }

func (numericHandler) ParseConfig(raw *string) (CFConfig, error) { return parseCFConfig(raw) }

func (h numericHandler) Coerce(value interface{}, _ CFConfig) (models.CustomFieldValue, error) {
	f, err := asFloat(value)
	if err != nil {
		return models.CustomFieldValue{}, err
	}
	if h.integral && f != float64(int64(f)) {
		return models.CustomFieldValue{}, fmt.Errorf("expected an integer, got %v", value)
	}
	row := models.CustomFieldValue{}
	if h.column == "value_monetary" {
		row.ValueMonetary = &f
	} else {
		row.ValueNumeric = &f
	}
	return row, nil
}

func (h numericHandler) FilterExpr(column, op string, values []string, _ CFConfig) (string, []interface{}, error) {
	return numericFilterExpr(column, op, values, func(s string) (interface{}, error) {
		return strconv.ParseFloat(s, 64)
	})
}

func numericFilterExpr(column, op string, values []string, parse func(string) (interface{}, error)) (string, []interface{}, error) {
	switch op {
	case "is_null":
		return column + " IS NULL", nil, nil
	case "is_not_null":
		return column + " IS NOT NULL", nil, nil
	}

	need := 1
	if op == "between" || op == "range" {
		need = 2
	}
	if err := requireValues(op, values, need); err != nil {
		return "", nil, err
	}

	args := make([]interface{}, 0, need)
	for _, v := range values[:need] {
		parsed, err := parse(v)
		if err != nil {
			return "", nil, err
		}
		args = append(args, parsed)
	}

	switch op {
	case "eq":
		return column + " = ?", args, nil
	case "neq":
		return column + " <> ?", args, nil
	case "lt":
		return column + " < ?", args, nil
	case "lte":
		return column + " <= ?", args, nil
	case "gt":
		return column + " > ?", args, nil
	case "gte":
		return column + " >= ?", args, nil
	case "between", "range":
		return column + " BETWEEN ? AND ?", args, nil
	default:
		return "", nil, unknownOperator("numeric", op)
	}
}

// --- yearmonth ---

// yearMonthHandler stores YYYY-MM as YYYY + MM/100 so that numeric
// ordering matches chronological ordering.
type yearMonthHandler struct{}

func (yearMonthHandler) SortColumn() string { return "value_yearmonth" }

func (yearMonthHandler) ParseConfig(raw *string) (CFConfig, error) { return parseCFConfig(raw) }

func (yearMonthHandler) Coerce(value interface{}, _ CFConfig) (models.CustomFieldValue, error) {
	f, err := parseYearMonth(value)
	if err != nil {
		return models.CustomFieldValue{}, err
	}
	return models.CustomFieldValue{ValueYearMonth: &f}, nil
}

func (yearMonthHandler) FilterExpr(column, op string, values []string, _ CFConfig) (string, []interface{}, error) {
	return numericFilterExpr(column, op, values, func(s string) (interface{}, error) {
		return parseYearMonth(s)
	})
}

func parseYearMonth(value interface{}) (float64, error) {
	if _, isStr := value.(string); !isStr {
		f, err := asFloat(value)
		if err != nil {
			return 0, err
		}
		return validateYearMonth(f)
	}
	s, err := asString(value)
	if err != nil {
		return 0, err
	}
	parts := strings.SplitN(strings.TrimSpace(s), "-", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("expected YYYY-MM, got %q", s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("expected YYYY-MM, got %q", s)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return 0, fmt.Errorf("expected YYYY-MM, got %q", s)
	}
	return float64(year) + float64(month)/100, nil
}

// validateYearMonth checks a numeric value against the YYYY + MM/100
// storage encoding; the fractional part must decode to a month 1..12.
func validateYearMonth(f float64) (float64, error) {
	year := int(f)
	month := int(f*100+0.5) - year*100
	if year < 1 || month < 1 || month > 12 {
		return 0, fmt.Errorf("expected a yearmonth encoded as YYYY.MM, got %v", f)
	}
	return float64(year) + float64(month)/100, nil
}

// --- date / datetime ---

type dateHandler struct {
	column   string
	withTime bool
}

func (h dateHandler) SortColumn() string { return h.column }

func (dateHandler) ParseConfig(raw *string) (CFConfig, error) { return parseCFConfig(raw) }

func (h dateHandler) Coerce(value interface{}, _ CFConfig) (models.CustomFieldValue, error) {
	s, err := asString(value)
	if err != nil {
		return models.CustomFieldValue{}, err
	}
	if h.withTime {
		t, err := Str2DateTime(s)
		if err != nil {
			return models.CustomFieldValue{}, err
		}
		return models.CustomFieldValue{ValueDateTime: &t}, nil
	}
	t, err := Str2Date(s)
	if err != nil {
		return models.CustomFieldValue{}, err
	}
	return models.CustomFieldValue{ValueDate: &t}, nil
}

func (h dateHandler) FilterExpr(column, op string, values []string, _ CFConfig) (string, []interface{}, error) {
	return numericFilterExpr(column, op, values, func(s string) (interface{}, error) {
		if h.withTime {
			return Str2DateTime(s)
		}
		return Str2Date(s)
	})
}

// --- boolean ---

type booleanHandler struct{}

func (booleanHandler) SortColumn() string { return "value_boolean" }

func (booleanHandler) ParseConfig(raw *string) (CFConfig, error) { return parseCFConfig(raw) }

func (booleanHandler) Coerce(value interface{}, _ CFConfig) (models.CustomFieldValue, error) {
	var b bool
	switch v := value.(type) {
	case bool:
		b = v
	case string:
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return models.CustomFieldValue{}, fmt.Errorf("expected a boolean, got %q", v)
		}
		b = parsed
	default:
		return models.CustomFieldValue{}, fmt.Errorf("expected a boolean, got %T", value)
	}
	return models.CustomFieldValue{ValueBoolean: &b}, nil
}

func (booleanHandler) FilterExpr(column, op string, _ []string, _ CFConfig) (string, []interface{}, error) {
	switch op {
	case "is_checked":
		return column + " IS TRUE", nil, nil
	case "is_not_checked":
		// Matches both an explicit false and a missing value row (the
		// column is NULL under the LEFT JOIN).
		return column + " IS DISTINCT FROM TRUE", nil, nil
	default:
		return "", nil, unknownOperator("boolean", op)
	}
}

// --- select ---

type selectHandler struct{}

func (selectHandler) SortColumn() string { return "value_text" }

func (selectHandler) ParseConfig(raw *string) (CFConfig, error) { return parseCFConfig(raw) }

func (selectHandler) Coerce(value interface{}, cfg CFConfig) (models.CustomFieldValue, error) {
	s, err := asString(value)
	if err != nil {
		return models.CustomFieldValue{}, err
	}
	if len(cfg.Options) > 0 && !containsString(cfg.Options, s) {
		return models.CustomFieldValue{}, fmt.Errorf("%q is not one of the configured options", s)
	}
	return models.CustomFieldValue{ValueText: &s}, nil
}

func (selectHandler) FilterExpr(column, op string, values []string, _ CFConfig) (string, []interface{}, error) {
	switch op {
	case "is_null":
		return column + " IS NULL", nil, nil
	case "is_not_null":
		return column + " IS NOT NULL", nil, nil
	}
	if err := requireValues(op, values, 1); err != nil {
		return "", nil, err
	}
	switch op {
	case "eq":
		return column + " = ?", []interface{}{values[0]}, nil
	case "neq":
		return column + " <> ?", []interface{}{values[0]}, nil
	case "in":
		return column + " IN ?", []interface{}{values}, nil
	case "not_in":
		return column + " NOT IN ?", []interface{}{values}, nil
	default:
		return "", nil, unknownOperator("select", op)
	}
}

// --- multiselect ---

// multiselectHandler stores the sorted, deduplicated selection joined by
// commas so equality and containment work on a stable key.
type multiselectHandler struct{}

func (multiselectHandler) SortColumn() string { return "value_text" }

func (multiselectHandler) ParseConfig(raw *string) (CFConfig, error) { return parseCFConfig(raw) }

func (multiselectHandler) Coerce(value interface{}, cfg CFConfig) (models.CustomFieldValue, error) {
	var items []string
	switch v := value.(type) {
	case []interface{}:
		for _, item := range v {
			s, err := asString(item)
			if err != nil {
				return models.CustomFieldValue{}, err
			}
			items = append(items, s)
		}
	case []string:
		items = v
	case string:
		items = strings.Split(v, ",")
	default:
		return models.CustomFieldValue{}, fmt.Errorf("expected a list of strings, got %T", value)
	}

	canonical := CanonicalMultiselect(items)
	if len(cfg.Options) > 0 {
		for _, item := range strings.Split(canonical, ",") {
			if item != "" && !containsString(cfg.Options, item) {
				return models.CustomFieldValue{}, fmt.Errorf("%q is not one of the configured options", item)
			}
		}
	}
	return models.CustomFieldValue{ValueText: &canonical}, nil
}

func (multiselectHandler) FilterExpr(column, op string, values []string, _ CFConfig) (string, []interface{}, error) {
	if err := requireValues(op, values, 1); err != nil {
		return "", nil, err
	}

	member := func(v string) (string, interface{}) {
		return "(',' || " + column + " || ',') LIKE ?", "%," + v + ",%"
	}

	switch op {
	case "any", "all", "none":
		exprs := make([]string, 0, len(values))
		args := make([]interface{}, 0, len(values))
		for _, v := range values {
			expr, arg := member(strings.TrimSpace(v))
			exprs = append(exprs, expr)
			args = append(args, arg)
		}
		switch op {
		case "any":
			return "(" + strings.Join(exprs, " OR ") + ")", args, nil
		case "all":
			return "(" + strings.Join(exprs, " AND ") + ")", args, nil
		default:
			return "NOT (" + strings.Join(exprs, " OR ") + ")", args, nil
		}
	case "eq":
		return column + " = ?", []interface{}{CanonicalMultiselect(values)}, nil
	default:
		return "", nil, unknownOperator("multiselect", op)
	}
}

// CanonicalMultiselect trims, deduplicates and sorts the selection,
// returning the comma-joined storage form.
func CanonicalMultiselect(items []string) string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}

func requireValues(op string, values []string, n int) error {
	if strings.HasSuffix(op, "null") {
		return nil
	}
	if len(values) < n {
		return fmt.Errorf("operator %q requires at least %d value(s)", op, n)
	}
	return nil
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
