package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalExpression(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"1+2", 3},
		{"1200 + 3450.50", 4650.5},
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"10 / 4", 2.5},
		{"-5 + 3", -2},
		{"-(2 + 3)", -5},
		{"$1,200.00 + $100", 1300},
		{"8750.00", 8750},
		{"1200 + 3450.50 + 5000", 9650.5},
		{"(1200 + 3450.50) / 2", 2325.25},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := EvalExpression(tt.expr)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEvalExpressionErrors(t *testing.T) {
	exprs := []string{
		"",
		"1 +",
		"(1 + 2",
		"1 / 0",
		"abc",
		"1 + 2 zzz",
	}

	for _, expr := range exprs {
		t.Run(expr, func(t *testing.T) {
			_, err := EvalExpression(expr)
			assert.Error(t, err)
		})
	}
}
