package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestSplitFee(t *testing.T) {
	tests := []struct {
		name         string
		amountCents  int64
		wantFee      int64
		wantEarnings int64
	}{
		{"typical price", 2999, 150, 2849},
		{"minimum price", 99, 5, 94},
		{"whole dollars", 10000, 500, 9500},
		{"rounds half up", 1010, 51, 959},
		{"rounds down below half", 1009, 50, 959},
		{"one cent", 1, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, earnings := SplitFee(tt.amountCents)
			assert.Equal(t, tt.wantFee, fee)
			assert.Equal(t, tt.wantEarnings, earnings)
		})
	}
}

func TestSplitFee_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		amount := rapid.Int64Range(1, 1_000_000_00).Draw(t, "amount")
		fee, earnings := SplitFee(amount)

		if fee+earnings != amount {
			t.Fatalf("fee %d + earnings %d != amount %d", fee, earnings, amount)
		}
		if fee < 0 || earnings < 0 {
			t.Fatalf("negative split: fee %d earnings %d", fee, earnings)
		}
		if fee > amount {
			t.Fatalf("fee %d exceeds amount %d", fee, amount)
		}
	})
}

func TestSplitFee_FeeMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Int64Range(1, 1_000_000_00).Draw(t, "a")
		b := rapid.Int64Range(a, 1_000_000_00).Draw(t, "b")

		feeA, _ := SplitFee(a)
		feeB, _ := SplitFee(b)
		if feeA > feeB {
			t.Fatalf("fee not monotonic: SplitFee(%d)=%d > SplitFee(%d)=%d", a, feeA, b, feeB)
		}
	})
}
