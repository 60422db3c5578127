package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money scale: all amounts are USD with exactly two fractional digits.
const moneyScale = 2

// Money is an exact fixed-point currency amount with two fractional
// digits. The zero value is $0.00. Constructors truncate (never round)
// any extra fractional digits, so every Money in the system is already
// normalized and arithmetic on it is exact.
type Money struct {
	value decimal.Decimal
}

// Zero is the distinguished $0.00 amount.
var Zero = Money{}

// NewMoney builds a Money from a decimal, truncating to two fractional
// digits.
func NewMoney(d decimal.Decimal) Money {
	return Money{value: d.Truncate(moneyScale)}
}

// MoneyFromMinorUnits builds a Money from a count of cents.
func MoneyFromMinorUnits(cents int64) Money {
	return Money{value: decimal.New(cents, -moneyScale)}
}

// ParseMoney parses a decimal string such as "100.99". Literals with
// more than two fractional digits are truncated ("100.999" -> 100.99,
// "-100.999" -> -100.99). A non-numeric literal returns a *ParseError.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, &ParseError{Input: s, cause: err}
	}
	return NewMoney(d), nil
}

// MustMoney is ParseMoney for literals known to be valid. It panics on a
// malformed literal and is intended for tests and static tables.
func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Add(other Money) Money {
	return Money{value: m.value.Add(other.value)}
}

func (m Money) Sub(other Money) Money {
	return Money{value: m.value.Sub(other.value)}
}

// MulUnits multiplies the amount by a whole unit count. Used for
// service-line extended charges (unit charge x units); exact because the
// multiplier is an integer.
func (m Money) MulUnits(units int64) Money {
	return Money{value: m.value.Mul(decimal.NewFromInt(units))}
}

// SubtractUntilZero reduces m by deduction without going below zero.
// It returns the reduced value and whatever part of the deduction could
// not be absorbed. This is the primitive behind waterfall allocation:
// the remainder is carried to the next obligation in priority order.
func (m Money) SubtractUntilZero(deduction Money) (reduced, remaining Money) {
	if deduction.GreaterThan(m) {
		return Zero, deduction.Sub(m)
	}
	return m.Sub(deduction), Zero
}

func (m Money) Equal(other Money) bool              { return m.value.Equal(other.value) }
func (m Money) GreaterThan(other Money) bool        { return m.value.GreaterThan(other.value) }
func (m Money) GreaterThanOrEqual(other Money) bool { return m.value.GreaterThanOrEqual(other.value) }
func (m Money) LessThan(other Money) bool           { return m.value.LessThan(other.value) }
func (m Money) LessThanOrEqual(other Money) bool    { return m.value.LessThanOrEqual(other.value) }

func (m Money) IsZero() bool     { return m.value.IsZero() }
func (m Money) IsNegative() bool { return m.value.IsNegative() }

// String renders with exactly two fractional digits, e.g. "100.00".
func (m Money) String() string {
	return m.value.StringFixed(moneyScale)
}

// MoneyWire is the wire representation of a Money: a whole-dollar part
// and a cents part. Both fields carry the sign of the amount, so values
// between -1.00 and 0.00 survive the trip (-0.50 -> {0, -50}).
type MoneyWire struct {
	WholeAmount   int64 `json:"whole_amount"`
	DecimalAmount int64 `json:"decimal_amount"`
}

// Wire converts to the wire pair. Round-trip exact for every Money.
func (m Money) Wire() MoneyWire {
	cents := m.value.Mul(decimal.New(1, moneyScale)).IntPart()
	return MoneyWire{
		WholeAmount:   cents / 100,
		DecimalAmount: cents % 100,
	}
}

// MoneyFromWire converts a wire pair back to a Money.
func MoneyFromWire(w MoneyWire) (Money, error) {
	if w.DecimalAmount <= -100 || w.DecimalAmount >= 100 {
		return Zero, &ParseError{Input: fmt.Sprintf("%+d.%+d", w.WholeAmount, w.DecimalAmount)}
	}
	return MoneyFromMinorUnits(w.WholeAmount*100 + w.DecimalAmount), nil
}

// MarshalJSON encodes via the wire pair so persisted and transported
// values round-trip exactly.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Wire())
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var w MoneyWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	parsed, err := MoneyFromWire(w)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
