package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney_TruncatesExtraDigits(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no fraction", "100", "100.00"},
		{"exact two digits", "100.99", "100.99"},
		{"truncated not rounded", "100.999", "100.99"},
		{"negative truncated toward zero", "-100.999", "-100.99"},
		{"sub-cent dust discarded", "0.005", "0.00"},
		{"zero", "0", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseMoney(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.String())
		})
	}
}

func TestParseMoney_Malformed(t *testing.T) {
	_, err := ParseMoney("ten dollars")
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "ten dollars", parseErr.Input)
}

func TestNewMoney_Truncates(t *testing.T) {
	m := NewMoney(decimal.RequireFromString("12.349"))
	assert.Equal(t, "12.34", m.String())
}

func TestMoney_Arithmetic(t *testing.T) {
	a := MustMoney("10.25")
	b := MustMoney("0.75")

	assert.Equal(t, "11.00", a.Add(b).String())
	assert.Equal(t, "9.50", a.Sub(b).String())
	assert.Equal(t, "30.75", a.MulUnits(3).String())
	assert.True(t, a.GreaterThan(b))
	assert.True(t, b.LessThan(a))
	assert.True(t, a.GreaterThanOrEqual(MustMoney("10.25")))
	assert.True(t, a.LessThanOrEqual(MustMoney("10.25")))
	assert.True(t, a.Equal(MustMoney("10.25")))
	assert.True(t, Zero.IsZero())
	assert.True(t, a.Sub(MustMoney("11.00")).IsNegative())
}

func TestMoney_SubtractUntilZero(t *testing.T) {
	tests := []struct {
		name          string
		start         string
		deduction     string
		wantReduced   string
		wantRemaining string
	}{
		{"deduction fully absorbed", "10.00", "4.00", "6.00", "0.00"},
		{"deduction exactly drains", "10.00", "10.00", "0.00", "0.00"},
		{"deduction overshoots", "10.00", "12.00", "0.00", "2.00"},
		{"nothing to absorb", "0.00", "5.00", "0.00", "5.00"},
		{"zero deduction", "10.00", "0.00", "10.00", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reduced, remaining := MustMoney(tt.start).SubtractUntilZero(MustMoney(tt.deduction))
			assert.Equal(t, tt.wantReduced, reduced.String())
			assert.Equal(t, tt.wantRemaining, remaining.String())
		})
	}
}

func TestMoney_WireRoundTrip(t *testing.T) {
	tests := []struct {
		amount      string
		wantWhole   int64
		wantDecimal int64
	}{
		{"100.99", 100, 99},
		{"100.00", 100, 0},
		{"0.05", 0, 5},
		{"0.00", 0, 0},
		{"-100.99", -100, -99},
		{"-0.50", 0, -50},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			m := MustMoney(tt.amount)
			w := m.Wire()
			assert.Equal(t, tt.wantWhole, w.WholeAmount)
			assert.Equal(t, tt.wantDecimal, w.DecimalAmount)

			back, err := MoneyFromWire(w)
			require.NoError(t, err)
			assert.True(t, m.Equal(back), "wire round-trip must be exact")
		})
	}
}

func TestMoneyFromWire_RejectsOverflowingCents(t *testing.T) {
	_, err := MoneyFromWire(MoneyWire{WholeAmount: 1, DecimalAmount: 100})
	require.Error(t, err)

	_, err = MoneyFromWire(MoneyWire{WholeAmount: -1, DecimalAmount: -150})
	require.Error(t, err)
}

func TestMoney_JSONRoundTrip(t *testing.T) {
	m := MustMoney("-42.07")

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"whole_amount":-42,"decimal_amount":-7}`, string(data))

	var back Money
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, m.Equal(back))
}

func TestMoneyFromMinorUnits(t *testing.T) {
	assert.Equal(t, "1.23", MoneyFromMinorUnits(123).String())
	assert.Equal(t, "-0.07", MoneyFromMinorUnits(-7).String())
}
