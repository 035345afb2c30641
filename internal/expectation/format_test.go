package expectation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResultFormat(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]any
		want ResultFormat
	}{
		{"absent", nil, ResultFormat{FormatBasic, 20}},
		{"name", map[string]any{"result_format": "summary"}, ResultFormat{FormatSummary, 20}},
		{"mapping", map[string]any{"result_format": map[string]any{
			"result_format":            "BASIC",
			"partial_unexpected_count": 20,
		}}, ResultFormat{FormatBasic, 20}},
		{"count only", map[string]any{"result_format": map[string]any{
			"partial_unexpected_count": 3,
		}}, ResultFormat{FormatBasic, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResultFormat(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseResultFormatErrors(t *testing.T) {
	for _, in := range []map[string]any{
		{"result_format": "VERBOSE"},
		{"result_format": 3},
		{"result_format": map[string]any{"partial_unexpected_count": -1}},
		{"result_format": map[string]any{"result_format": 1}},
	} {
		_, err := ParseResultFormat(in)
		assert.Error(t, err, "%v", in)
	}
}
