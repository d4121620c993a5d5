package money

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Amount
		wantErr bool
	}{
		{"6399.99", 639999, false},
		{"6400", 640000, false},
		{"0.1", 10, false},
		{"-12.50", -1250, false},
		{"1.005", 0, true},
		{"abc", 0, true},
		{"92233720368547758.07", math.MaxInt64, false},
		{"-92233720368547758.08", math.MinInt64, false},
		{"92233720368547758.08", 0, true},
		{"-92233720368547758.09", 0, true},
		{"184467440737095516.17", 0, true},
		{"1e30", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAmountStringAndDecimal(t *testing.T) {
	a := MustParse("20000")
	assert.Equal(t, "20000.00", a.String())
	assert.True(t, a.Decimal().Equal(decimal.NewFromInt(20000)))
	assert.Equal(t, Amount(0), MaxZero(-5))
}

func TestAmountJSON(t *testing.T) {
	type payload struct {
		Amount Amount `json:"amount"`
	}
	out, err := json.Marshal(payload{Amount: 123456})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"1234.56"}`, string(out))

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"10.25"}`), &p))
	assert.Equal(t, Amount(1025), p.Amount)

	require.NoError(t, json.Unmarshal([]byte(`{"amount":7.5}`), &p))
	assert.Equal(t, Amount(750), p.Amount)

	assert.Error(t, json.Unmarshal([]byte(`{"amount":"1.234"}`), &p))
}

func TestAmountScan(t *testing.T) {
	var a Amount
	require.NoError(t, a.Scan(int64(42)))
	assert.Equal(t, Amount(42), a)
	require.NoError(t, a.Scan([]byte("77")))
	assert.Equal(t, Amount(77), a)
	assert.Error(t, a.Scan(3.14))

	v, err := Amount(99).Value()
	require.NoError(t, err)
	assert.Equal(t, int64(99), v)
}

func TestParseOutOfRangeWraps(t *testing.T) {
	_, err := Parse("184467440737095516.17")
	assert.ErrorIs(t, err, ErrOutOfRange)

	var p struct {
		Amount Amount `json:"amount"`
	}
	err = json.Unmarshal([]byte(`{"amount":"184467440737095516.17"}`), &p)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Zero(t, p.Amount)
}

func TestCheckedArithmetic(t *testing.T) {
	maxA, minA := Amount(math.MaxInt64), Amount(math.MinInt64)
	tests := []struct {
		name    string
		op      func() (Amount, error)
		want    Amount
		wantErr bool
	}{
		{"mul", func() (Amount, error) { return Amount(1000).Mul(3) }, 3000, false},
		{"mul by zero", func() (Amount, error) { return maxA.Mul(0) }, 0, false},
		{"mul negative", func() (Amount, error) { return Amount(-250).Mul(4) }, -1000, false},
		{"mul overflow", func() (Amount, error) { return MustParse("92233720368547758.07").Mul(3) }, 0, true},
		{"mul min by -1", func() (Amount, error) { return minA.Mul(-1) }, 0, true},
		{"mul -1 by min", func() (Amount, error) { return Amount(-1).Mul(math.MinInt64) }, 0, true},
		{"add", func() (Amount, error) { return Amount(10).Add(20) }, 30, false},
		{"add overflow", func() (Amount, error) { return maxA.Add(1) }, 0, true},
		{"add underflow", func() (Amount, error) { return minA.Add(-1) }, 0, true},
		{"sub", func() (Amount, error) { return Amount(10).Sub(25) }, -15, false},
		{"sub overflow", func() (Amount, error) { return maxA.Sub(-1) }, 0, true},
		{"sub underflow", func() (Amount, error) { return minA.Sub(1) }, 0, true},
		{"sum", func() (Amount, error) { return Sum(10, 20, 30) }, 60, false},
		{"sum overflow", func() (Amount, error) { return Sum(maxA, 1) }, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrOutOfRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
