package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthlyPayment(t *testing.T) {
	tests := []struct {
		name    string
		total   string
		down    string
		count   int
		want    string
		wantErr bool
	}{
		{
			name:  "exact division",
			total: "1200.00",
			down:  "0",
			count: 12,
			want:  "100",
		},
		{
			name:  "uneven division keeps precision",
			total: "1199.99",
			down:  "300.00",
			count: 12,
			want:  "74.9991666666666667",
		},
		{
			name:  "single installment",
			total: "500.00",
			down:  "100.00",
			count: 1,
			want:  "400",
		},
		{
			name:    "zero count",
			total:   "100.00",
			down:    "0",
			count:   0,
			wantErr: true,
		},
		{
			name:    "negative down payment",
			total:   "100.00",
			down:    "-1",
			count:   3,
			wantErr: true,
		},
		{
			name:    "down payment equals total",
			total:   "999.99",
			down:    "999.99",
			count:   6,
			wantErr: true,
		},
		{
			name:    "down payment above total",
			total:   "100.00",
			down:    "150.00",
			count:   6,
			wantErr: true,
		},
		{
			name:    "zero total",
			total:   "0",
			down:    "0",
			count:   3,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := decimal.RequireFromString(tt.total)
			down := decimal.RequireFromString(tt.down)

			got, err := MonthlyPayment(total, down, tt.count)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidTerms)
				return
			}

			require.NoError(t, err)
			want := decimal.RequireFromString(tt.want)
			assert.True(t, got.Equal(want), "got %s, want %s", got, want)
		})
	}
}

func TestMonthlyPaymentReconstructsTotal(t *testing.T) {
	total := decimal.RequireFromString("1199.99")
	down := decimal.RequireFromString("300.00")
	count := 12

	monthly, err := MonthlyPayment(total, down, count)
	require.NoError(t, err)
	require.True(t, monthly.IsPositive())

	sum := monthly.Mul(decimal.NewFromInt(int64(count))).Add(down)
	diff := total.Sub(sum).Abs()

	// Равномерное деление без переноса остатка: допускаем расхождение
	// меньше цента на весь план.
	assert.True(t, diff.LessThan(decimal.RequireFromString("0.01")),
		"sum %s differs from total %s by %s", sum, total, diff)
}

func TestDueDate(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	first := DueDate(start, 1)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), first)

	twelfth := DueDate(start, 12)
	assert.Equal(t, time.Date(2024, 12, 26, 0, 0, 0, 0, time.UTC), twelfth)
}

func TestValidateTermsOK(t *testing.T) {
	err := ValidateTerms(decimal.RequireFromString("100"), decimal.Zero, 1)
	if err != nil {
		t.Fatalf("ValidateTerms error: %v", err)
	}
	if errors.Is(err, ErrInvalidTerms) {
		t.Fatalf("unexpected ErrInvalidTerms")
	}
}
