package node

import (
	"fmt"
	"math/big"
	"strings"
)

// Number is an arbitrary-precision numeric value that preserves the
// integer/fractional distinction of its source text, so parsing "1e400"
// or "0.1" round-trips losslessly. Backed by math/big so arbitrary
// magnitude is real rather than aspirational.
type Number struct {
	isInt bool
	i     *big.Int
	f     *big.Float
	// literal preserves the exact source text so re-serialization is
	// lossless even for forms big.Float would normalize (e.g. "1e400").
	literal string
}

func IntNumber(i int64) Number {
	return Number{isInt: true, i: big.NewInt(i), literal: fmt.Sprintf("%d", i)}
}

func BigIntNumber(i *big.Int) Number {
	return Number{isInt: true, i: new(big.Int).Set(i), literal: i.String()}
}

func FloatNumber(f float64) Number {
	bf := new(big.Float).SetFloat64(f)
	return Number{isInt: false, f: bf, literal: bf.Text('g', -1)}
}

// ParseNumber parses JSON-number-shaped text (per RFC 8259) into a Number,
// preserving arbitrary precision and the integer/fractional distinction.
func ParseNumber(text string) (Number, error) {
	if text == "" {
		return Number{}, fmt.Errorf("empty number literal")
	}
	isInt := !strings.ContainsAny(text, ".eE")
	if isInt {
		i, ok := new(big.Int).SetString(text, 10)
		if !ok {
			return Number{}, fmt.Errorf("invalid integer literal: %q", text)
		}
		return Number{isInt: true, i: i, literal: text}, nil
	}
	f, _, err := big.ParseFloat(text, 10, 500, big.ToNearestEven)
	if err != nil {
		return Number{}, fmt.Errorf("invalid number literal: %q: %w", text, err)
	}
	return Number{isInt: false, f: f, literal: text}, nil
}

func (n Number) IsInt() bool { return n.isInt }

func (n Number) String() string {
	if n.literal != "" {
		return n.literal
	}
	if n.isInt {
		return n.i.String()
	}
	return n.f.String()
}

func (n Number) AsInt() int {
	return int(n.AsInt64())
}

func (n Number) AsInt64() int64 {
	if n.isInt && n.i != nil {
		return n.i.Int64()
	}
	if n.f != nil {
		i, _ := n.f.Int64()
		return i
	}
	return 0
}

func (n Number) AsFloat64() float64 {
	if n.isInt && n.i != nil {
		f := new(big.Float).SetInt(n.i)
		v, _ := f.Float64()
		return v
	}
	if n.f != nil {
		v, _ := n.f.Float64()
		return v
	}
	return 0
}

// Equal reports structural equality: two numbers are equal when their
// mathematical value matches, independent of literal spelling ("1" and
// "1.0" compare equal).
func (n Number) Equal(other Number) bool {
	if n.isInt && other.isInt {
		return n.i.Cmp(other.i) == 0
	}
	nf := n.bigFloat()
	of := other.bigFloat()
	return nf.Cmp(of) == 0
}

func (n Number) bigFloat() *big.Float {
	if n.isInt {
		return new(big.Float).SetInt(n.i)
	}
	return n.f
}
