package expectation

import (
	"fmt"
	"strings"
)

// Result format names.
const (
	FormatBooleanOnly = "BOOLEAN_ONLY"
	FormatBasic       = "BASIC"
	FormatSummary     = "SUMMARY"
	FormatComplete    = "COMPLETE"
)

// DefaultPartialUnexpectedCount caps partial unexpected lists.
const DefaultPartialUnexpectedCount = 20

// ResultFormat controls how much detail a result carries.
type ResultFormat struct {
	Format                 string
	PartialUnexpectedCount int
}

// DefaultResultFormat is BASIC with the default partial count.
func DefaultResultFormat() ResultFormat {
	return ResultFormat{Format: FormatBasic, PartialUnexpectedCount: DefaultPartialUnexpectedCount}
}

// ParseResultFormat reads runtime_configuration.result_format, which is
// either a format name or a mapping with result_format and
// partial_unexpected_count.
func ParseResultFormat(runtimeConfiguration map[string]any) (ResultFormat, error) {
	rf := DefaultResultFormat()
	raw, ok := runtimeConfiguration["result_format"]
	if !ok || raw == nil {
		return rf, nil
	}

	switch v := raw.(type) {
	case string:
		rf.Format = v
	case map[string]any:
		if f, ok := v["result_format"]; ok {
			s, ok := f.(string)
			if !ok {
				return rf, fmt.Errorf("result_format.result_format: expected a string, got %T", f)
			}
			rf.Format = s
		}
		if n, ok := v["partial_unexpected_count"]; ok {
			count, ok := toFloat(n)
			if !ok || count < 0 {
				return rf, fmt.Errorf("result_format.partial_unexpected_count: expected a non-negative number, got %v", n)
			}
			rf.PartialUnexpectedCount = int(count)
		}
	default:
		return rf, fmt.Errorf("result_format: expected a name or a mapping, got %T", raw)
	}

	rf.Format = strings.ToUpper(rf.Format)
	switch rf.Format {
	case FormatBooleanOnly, FormatBasic, FormatSummary, FormatComplete:
	default:
		return rf, fmt.Errorf("result_format: unknown format %q", rf.Format)
	}
	return rf, nil
}

func (f ResultFormat) atLeast(format string) bool {
	return formatRank(f.Format) >= formatRank(format)
}

func formatRank(f string) int {
	switch f {
	case FormatBooleanOnly:
		return 0
	case FormatBasic:
		return 1
	case FormatSummary:
		return 2
	case FormatComplete:
		return 3
	}
	return 1
}
