package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name  string
		lines []Line
		want  Summary
	}{
		{
			name:  "below threshold pays shipping",
			lines: []Line{{UnitPrice: 150, Quantity: 3}},
			want:  Summary{Subtotal: 450, Shipping: 50, Total: 500},
		},
		{
			name:  "at threshold ships free",
			lines: []Line{{UnitPrice: 250, Quantity: 2}},
			want:  Summary{Subtotal: 500, Shipping: 0, Total: 500},
		},
		{
			name:  "above threshold ships free",
			lines: []Line{{UnitPrice: 200, Quantity: 3}},
			want:  Summary{Subtotal: 600, Shipping: 0, Total: 600},
		},
		{
			name:  "empty cart still charges shipping on zero subtotal",
			lines: nil,
			want:  Summary{Subtotal: 0, Shipping: 50, Total: 50},
		},
		{
			name:  "multiple lines accumulate",
			lines: []Line{{UnitPrice: 120, Quantity: 2}, {UnitPrice: 80, Quantity: 1}, {UnitPrice: 30, Quantity: 4}},
			want:  Summary{Subtotal: 440, Shipping: 50, Total: 490},
		},
		{
			name:  "zero quantity line contributes nothing",
			lines: []Line{{UnitPrice: 900, Quantity: 0}},
			want:  Summary{Subtotal: 0, Shipping: 50, Total: 50},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compute(tt.lines)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompute_RejectsNegativeInputs(t *testing.T) {
	_, err := Compute([]Line{{UnitPrice: -1, Quantity: 2}})
	assert.ErrorIs(t, err, ErrInvalidLine)

	_, err = Compute([]Line{{UnitPrice: 100, Quantity: -2}})
	assert.ErrorIs(t, err, ErrInvalidLine)
}
