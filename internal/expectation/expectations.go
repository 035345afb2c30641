package expectation

import (
	"fmt"
	"regexp"
	"slices"
	"sort"

	"github.com/joseignaciorc/great-expectations/internal/datasource"
)

// Supported expectation types.
const (
	TypeTableRowCountBetween     = "expect_table_row_count_to_be_between"
	TypeTableColumnsMatchOrdered = "expect_table_columns_to_match_ordered_list"
	TypeColumnToExist            = "expect_column_to_exist"
	TypeColumnValuesNotNull      = "expect_column_values_to_not_be_null"
	TypeColumnValuesBetween      = "expect_column_values_to_be_between"
	TypeColumnValuesInSet        = "expect_column_values_to_be_in_set"
	TypeColumnValuesMatchRegex   = "expect_column_values_to_match_regex"
	TypeColumnValuesUnique       = "expect_column_values_to_be_unique"
)

// expectFunc evaluates one expectation. The returned map is the result at
// the requested format.
type expectFunc func(t *datasource.Table, kwargs map[string]any, rf ResultFormat) (bool, map[string]any, error)

var registry = map[string]expectFunc{
	TypeTableRowCountBetween:     expectRowCountBetween,
	TypeTableColumnsMatchOrdered: expectColumnsMatchOrderedList,
	TypeColumnToExist:            expectColumnToExist,
	TypeColumnValuesNotNull:      expectValuesNotNull,
	TypeColumnValuesBetween:      expectValuesBetween,
	TypeColumnValuesInSet:        expectValuesInSet,
	TypeColumnValuesMatchRegex:   expectValuesMatchRegex,
	TypeColumnValuesUnique:       expectValuesUnique,
}

// Types lists the supported expectation types, sorted.
func Types() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Supported reports whether an expectation type is implemented.
func Supported(expectationType string) bool {
	_, ok := registry[expectationType]
	return ok
}

func observed(rf ResultFormat, v any) map[string]any {
	if !rf.atLeast(FormatBasic) {
		return map[string]any{}
	}
	return map[string]any{"observed_value": v}
}

func expectRowCountBetween(t *datasource.Table, kwargs map[string]any, rf ResultFormat) (bool, map[string]any, error) {
	lo, err := optionalNumber(kwargs, "min_value")
	if err != nil {
		return false, nil, err
	}
	hi, err := optionalNumber(kwargs, "max_value")
	if err != nil {
		return false, nil, err
	}
	n := t.Len()
	ok := (lo == nil || float64(n) >= *lo) && (hi == nil || float64(n) <= *hi)
	return ok, observed(rf, n), nil
}

func expectColumnsMatchOrderedList(t *datasource.Table, kwargs map[string]any, rf ResultFormat) (bool, map[string]any, error) {
	want, err := listKwarg(kwargs, "column_list")
	if err != nil {
		return false, nil, err
	}
	got := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		got[i] = c
	}
	ok := len(want) == len(got)
	for i := 0; ok && i < len(want); i++ {
		ok = fmt.Sprint(want[i]) == t.Columns[i]
	}
	return ok, observed(rf, got), nil
}

func expectColumnToExist(t *datasource.Table, kwargs map[string]any, _ ResultFormat) (bool, map[string]any, error) {
	col, err := stringKwarg(kwargs, "column")
	if err != nil {
		return false, nil, err
	}
	idx := t.ColumnIndex(col)
	if idx < 0 {
		return false, map[string]any{}, nil
	}
	want, err := optionalNumber(kwargs, "column_index")
	if err != nil {
		return false, nil, err
	}
	if want != nil && int(*want) != idx {
		return false, map[string]any{}, nil
	}
	return true, map[string]any{}, nil
}

func expectValuesNotNull(t *datasource.Table, kwargs map[string]any, rf ResultFormat) (bool, map[string]any, error) {
	return columnMap(t, kwargs, rf, true, func(any) (bool, error) { return true, nil })
}

func expectValuesBetween(t *datasource.Table, kwargs map[string]any, rf ResultFormat) (bool, map[string]any, error) {
	lo, err := optionalNumber(kwargs, "min_value")
	if err != nil {
		return false, nil, err
	}
	hi, err := optionalNumber(kwargs, "max_value")
	if err != nil {
		return false, nil, err
	}
	if lo == nil && hi == nil {
		return false, nil, fmt.Errorf("min_value and max_value cannot both be null")
	}
	strictMin := boolKwarg(kwargs, "strict_min")
	strictMax := boolKwarg(kwargs, "strict_max")

	return columnMap(t, kwargs, rf, false, func(v any) (bool, error) {
		f, ok := toFloat(v)
		if !ok {
			return false, nil
		}
		if lo != nil && (f < *lo || (strictMin && f == *lo)) {
			return false, nil
		}
		if hi != nil && (f > *hi || (strictMax && f == *hi)) {
			return false, nil
		}
		return true, nil
	})
}

func expectValuesInSet(t *datasource.Table, kwargs map[string]any, rf ResultFormat) (bool, map[string]any, error) {
	set, err := listKwarg(kwargs, "value_set")
	if err != nil {
		return false, nil, err
	}
	keys := make(map[string]bool, len(set))
	for _, v := range set {
		keys[valueKey(v)] = true
	}
	return columnMap(t, kwargs, rf, false, func(v any) (bool, error) {
		return keys[valueKey(v)], nil
	})
}

func expectValuesMatchRegex(t *datasource.Table, kwargs map[string]any, rf ResultFormat) (bool, map[string]any, error) {
	pattern, err := stringKwarg(kwargs, "regex")
	if err != nil {
		return false, nil, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, nil, fmt.Errorf("regex: %w", err)
	}
	return columnMap(t, kwargs, rf, false, func(v any) (bool, error) {
		s, ok := v.(string)
		if !ok {
			s = fmt.Sprint(v)
		}
		return re.MatchString(s), nil
	})
}

func expectValuesUnique(t *datasource.Table, kwargs map[string]any, rf ResultFormat) (bool, map[string]any, error) {
	col, err := stringKwarg(kwargs, "column")
	if err != nil {
		return false, nil, err
	}
	values, ok := t.Column(col)
	if !ok {
		return false, nil, fmt.Errorf("column %q not found", col)
	}
	counts := make(map[string]int, len(values))
	for _, v := range values {
		if v != nil {
			counts[valueKey(v)]++
		}
	}
	return columnMap(t, kwargs, rf, false, func(v any) (bool, error) {
		return counts[valueKey(v)] == 1, nil
	})
}

// columnMap runs check over every non-null value of the "column" kwarg and
// builds the result. With nullsUnexpected, nulls are the unexpected values
// instead of being skipped as missing. "mostly" relaxes success to a
// fraction of the non-missing values.
func columnMap(t *datasource.Table, kwargs map[string]any, rf ResultFormat, nullsUnexpected bool, check func(any) (bool, error)) (bool, map[string]any, error) {
	col, err := stringKwarg(kwargs, "column")
	if err != nil {
		return false, nil, err
	}
	values, ok := t.Column(col)
	if !ok {
		return false, nil, fmt.Errorf("column %q not found", col)
	}
	mostly := 1.0
	if m, err := optionalNumber(kwargs, "mostly"); err != nil {
		return false, nil, err
	} else if m != nil {
		mostly = *m
	}

	var unexpected []int
	missing := 0
	for i, v := range values {
		if v == nil {
			if nullsUnexpected {
				unexpected = append(unexpected, i)
			} else {
				missing++
			}
			continue
		}
		ok, err := check(v)
		if err != nil {
			return false, nil, err
		}
		if !ok {
			unexpected = append(unexpected, i)
		}
	}

	nonMissing := len(values) - missing
	success := nonMissing == 0 || float64(nonMissing-len(unexpected))/float64(nonMissing) >= mostly
	return success, columnResult(rf, values, unexpected, missing, nullsUnexpected), nil
}

func percent(n, of int) any {
	if of == 0 {
		return nil
	}
	return float64(n) / float64(of) * 100
}

func columnResult(rf ResultFormat, values []any, unexpected []int, missing int, nullsUnexpected bool) map[string]any {
	res := map[string]any{}
	if !rf.atLeast(FormatBasic) {
		return res
	}

	total := len(values)
	nonMissing := total - missing
	res["element_count"] = total
	res["unexpected_count"] = len(unexpected)
	res["unexpected_percent"] = percent(len(unexpected), total)
	if !nullsUnexpected {
		res["missing_count"] = missing
		res["missing_percent"] = percent(missing, total)
		res["unexpected_percent"] = percent(len(unexpected), nonMissing)
		res["unexpected_percent_total"] = percent(len(unexpected), total)
	}

	partial := unexpected
	if len(partial) > rf.PartialUnexpectedCount {
		partial = partial[:rf.PartialUnexpectedCount]
	}
	res["partial_unexpected_list"] = pick(values, partial)

	if rf.atLeast(FormatSummary) {
		res["partial_unexpected_index_list"] = indexList(partial)
		res["partial_unexpected_counts"] = valueCounts(values, unexpected, rf.PartialUnexpectedCount)
	}
	if rf.atLeast(FormatComplete) {
		res["unexpected_list"] = pick(values, unexpected)
		res["unexpected_index_list"] = indexList(unexpected)
	}
	return res
}

func pick(values []any, idx []int) []any {
	out := make([]any, len(idx))
	for i, j := range idx {
		out[i] = values[j]
	}
	return out
}

func indexList(idx []int) []any {
	out := make([]any, len(idx))
	for i, j := range idx {
		out[i] = j
	}
	return out
}

// valueCounts counts unexpected values, most frequent first, ties in
// order of first occurrence.
func valueCounts(values []any, idx []int, limit int) []any {
	type entry struct {
		value any
		count int
		first int
	}
	var order []string
	byKey := make(map[string]*entry)
	for _, j := range idx {
		k := valueKey(values[j])
		e, ok := byKey[k]
		if !ok {
			e = &entry{value: values[j], first: len(order)}
			byKey[k] = e
			order = append(order, k)
		}
		e.count++
	}
	entries := make([]*entry, 0, len(order))
	for _, k := range order {
		entries = append(entries, byKey[k])
	}
	slices.SortStableFunc(entries, func(a, b *entry) int { return b.count - a.count })
	if len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]any, len(entries))
	for i, e := range entries {
		out[i] = map[string]any{"value": e.value, "count": e.count}
	}
	return out
}
