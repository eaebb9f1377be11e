package services

import (
	"strings"
	"testing"

	"papermerge/models"
)

func coerce(t *testing.T, typeHandler string, value interface{}, config *string) models.CustomFieldValue {
	t.Helper()
	h, err := HandlerFor(typeHandler)
	if err != nil {
		t.Fatalf("HandlerFor(%s): %v", typeHandler, err)
	}
	cfg, err := h.ParseConfig(config)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	row, err := h.Coerce(value, cfg)
	if err != nil {
		t.Fatalf("Coerce(%v): %v", value, err)
	}
	return row
}

func TestHandlerForUnknown(t *testing.T) {
	if _, err := HandlerFor("geo"); err == nil {
		t.Error("unknown handler name accepted")
	}
}

func TestTextCoerce(t *testing.T) {
	row := coerce(t, models.CFTypeText, "hello", nil)
	if row.ValueText == nil || *row.ValueText != "hello" {
		t.Errorf("row = %+v", row)
	}
	h, _ := HandlerFor(models.CFTypeText)
	if _, err := h.Coerce([]interface{}{"x"}, CFConfig{}); err == nil {
		t.Error("list coerced as text")
	}
}

func TestIntegerCoerceRejectsFraction(t *testing.T) {
	row := coerce(t, models.CFTypeInteger, float64(42), nil)
	if row.ValueNumeric == nil || *row.ValueNumeric != 42 {
		t.Errorf("row = %+v", row)
	}
	h, _ := HandlerFor(models.CFTypeInteger)
	if _, err := h.Coerce(3.14, CFConfig{}); err == nil {
		t.Error("fractional value coerced as integer")
	}
}

func TestMonetaryCoerceFromString(t *testing.T) {
	row := coerce(t, models.CFTypeMonetary, "149.90", nil)
	if row.ValueMonetary == nil || *row.ValueMonetary != 149.90 {
		t.Errorf("row = %+v", row)
	}
	if row.ValueNumeric != nil {
		t.Error("monetary must populate value_monetary only")
	}
}

func TestYearMonthCoerce(t *testing.T) {
	row := coerce(t, models.CFTypeYearMonth, "2024-09", nil)
	if row.ValueYearMonth == nil || *row.ValueYearMonth < 2024.08 || *row.ValueYearMonth > 2024.10 {
		t.Errorf("row = %+v", row)
	}
	// Chronological order must match numeric order across the year
	// boundary.
	dec := coerce(t, models.CFTypeYearMonth, "2024-12", nil)
	jan := coerce(t, models.CFTypeYearMonth, "2025-01", nil)
	if !(*dec.ValueYearMonth < *jan.ValueYearMonth) {
		t.Errorf("2024-12 (%v) must sort before 2025-01 (%v)", *dec.ValueYearMonth, *jan.ValueYearMonth)
	}

	h, _ := HandlerFor(models.CFTypeYearMonth)
	for _, bad := range []string{"2024", "2024-13", "2024-00", "sometime"} {
		if _, err := h.Coerce(bad, CFConfig{}); err == nil {
			t.Errorf("%q coerced as yearmonth", bad)
		}
	}

	// Numeric input must carry a valid month in the fractional part.
	if row, err := h.Coerce(2024.09, CFConfig{}); err != nil || *row.ValueYearMonth < 2024.08 || *row.ValueYearMonth > 2024.10 {
		t.Errorf("2024.09 rejected: %v", err)
	}
	for _, bad := range []float64{2024, 2024.99, 2024.13, -3.05} {
		if _, err := h.Coerce(bad, CFConfig{}); err == nil {
			t.Errorf("%v coerced as yearmonth", bad)
		}
	}
}

func TestBooleanCoerce(t *testing.T) {
	row := coerce(t, models.CFTypeBoolean, true, nil)
	if row.ValueBoolean == nil || !*row.ValueBoolean {
		t.Errorf("row = %+v", row)
	}
	row = coerce(t, models.CFTypeBoolean, "false", nil)
	if row.ValueBoolean == nil || *row.ValueBoolean {
		t.Errorf("row = %+v", row)
	}
}

func TestSelectCoerceValidatesOptions(t *testing.T) {
	config := `{"options":["draft","final"]}`
	row := coerce(t, models.CFTypeSelect, "draft", &config)
	if row.ValueText == nil || *row.ValueText != "draft" {
		t.Errorf("row = %+v", row)
	}
	h, _ := HandlerFor(models.CFTypeSelect)
	cfg, _ := h.ParseConfig(&config)
	if _, err := h.Coerce("published", cfg); err == nil {
		t.Error("value outside the configured options accepted")
	}
}

func TestMultiselectCanonicalForm(t *testing.T) {
	row := coerce(t, models.CFTypeMultiselect, []interface{}{"red", "blue", " red ", ""}, nil)
	if row.ValueText == nil || *row.ValueText != "blue,red" {
		t.Errorf("canonical form = %v, want sorted deduped %q", row.ValueText, "blue,red")
	}
	if got := CanonicalMultiselect([]string{"c", "a", "b", "a"}); got != "a,b,c" {
		t.Errorf("CanonicalMultiselect = %q", got)
	}
}

func TestNumericFilterExpr(t *testing.T) {
	h, _ := HandlerFor(models.CFTypeNumeric)

	expr, args, err := h.FilterExpr("cfv1.value_numeric", "between", []string{"10", "20"}, CFConfig{})
	if err != nil {
		t.Fatalf("FilterExpr: %v", err)
	}
	if expr != "cfv1.value_numeric BETWEEN ? AND ?" || len(args) != 2 {
		t.Errorf("expr = %q args = %v", expr, args)
	}

	if _, _, err := h.FilterExpr("c", "between", []string{"10"}, CFConfig{}); err == nil {
		t.Error("between with one value accepted")
	}
	if _, _, err := h.FilterExpr("c", "like", []string{"10"}, CFConfig{}); err == nil {
		t.Error("unknown operator accepted")
	}

	expr, args, err = h.FilterExpr("c", "is_null", nil, CFConfig{})
	if err != nil || expr != "c IS NULL" || len(args) != 0 {
		t.Errorf("is_null expr = %q args = %v err = %v", expr, args, err)
	}
}

func TestBooleanFilterExpr(t *testing.T) {
	h, _ := HandlerFor(models.CFTypeBoolean)
	expr, _, err := h.FilterExpr("cfv1.value_boolean", "is_not_checked", nil, CFConfig{})
	if err != nil {
		t.Fatalf("FilterExpr: %v", err)
	}
	// Unchecked must also match documents with no value row at all.
	if !strings.Contains(expr, "IS DISTINCT FROM TRUE") {
		t.Errorf("expr = %q", expr)
	}
	if !IsNullOperator("is_not_checked") || !IsNullOperator("is_null") || IsNullOperator("eq") {
		t.Error("IsNullOperator misclassifies")
	}
}

func TestMultiselectFilterExpr(t *testing.T) {
	h, _ := HandlerFor(models.CFTypeMultiselect)

	expr, args, err := h.FilterExpr("c.value_text", "all", []string{"red", "blue"}, CFConfig{})
	if err != nil {
		t.Fatalf("FilterExpr: %v", err)
	}
	if strings.Count(expr, "LIKE ?") != 2 || !strings.Contains(expr, " AND ") || len(args) != 2 {
		t.Errorf("all expr = %q args = %v", expr, args)
	}

	expr, _, err = h.FilterExpr("c.value_text", "none", []string{"red"}, CFConfig{})
	if err != nil || !strings.HasPrefix(expr, "NOT (") {
		t.Errorf("none expr = %q err = %v", expr, err)
	}

	_, args, err = h.FilterExpr("c.value_text", "eq", []string{"b", "a"}, CFConfig{})
	if err != nil {
		t.Fatalf("FilterExpr: %v", err)
	}
	if args[0] != "a,b" {
		t.Errorf("eq must compare against the canonical form, got %v", args[0])
	}
}

func TestTextFilterExprContains(t *testing.T) {
	h, _ := HandlerFor(models.CFTypeText)
	expr, args, err := h.FilterExpr("cfv2.value_text", "contains", []string{"tax"}, CFConfig{})
	if err != nil {
		t.Fatalf("FilterExpr: %v", err)
	}
	if expr != "cfv2.value_text ILIKE ?" || args[0] != "%tax%" {
		t.Errorf("expr = %q args = %v", expr, args)
	}
}
