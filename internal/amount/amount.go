// Package amount implements CryptoAmount: a non-negative fixed-point
// decimal with an explicit scale, and its conversions to/from a chain's
// wire u256 representation (spec §3, §4.9). Grounded on
// internal/chain/amount.go's big.Int-based decimal string handling —
// generalized from "parse a decimal string at N decimals" into a typed
// value that tracks its own scale and converts between scales.
package amount

import (
	"math/big"

	"github.com/etopay/sigilwallet/pkg/sigilerr"
)

// maxMantissaDigits bounds CryptoAmount to what fits in a signed 128-bit
// decimal, per spec §4.9's "reject if value exceeds the range
// representable as a signed 128-bit decimal with scale d".
const maxMantissaDigits = 38 // 2^127 has 39 decimal digits; 38 is always safe

var maxMantissa = func() *big.Int {
	v, _ := new(big.Int).SetString("170141183460469231731687303715884105727", 10) // 2^127-1
	return v
}()

// CryptoAmount is a non-negative decimal: mantissa * 10^-scale.
type CryptoAmount struct {
	mantissa *big.Int
	scale    int
}

// New constructs a CryptoAmount from an unscaled integer mantissa and a
// scale, rejecting negative mantissas.
func New(mantissa *big.Int, scale int) (CryptoAmount, error) {
	if mantissa == nil {
		return CryptoAmount{}, sigilerr.WithDetails(sigilerr.ErrConversionError, map[string]string{"reason": "nil mantissa"})
	}
	if mantissa.Sign() < 0 {
		return CryptoAmount{}, sigilerr.WithDetails(sigilerr.ErrConversionError, map[string]string{"reason": "negative amount"})
	}
	if scale < 0 {
		return CryptoAmount{}, sigilerr.WithDetails(sigilerr.ErrConversionError, map[string]string{"reason": "negative scale"})
	}
	return normalize(new(big.Int).Set(mantissa), scale), nil
}

// Zero is the additive identity at scale 0.
func Zero() CryptoAmount {
	return CryptoAmount{mantissa: big.NewInt(0), scale: 0}
}

// Scale returns the decimal's current scale.
func (a CryptoAmount) Scale() int { return a.scale }

// Mantissa returns the unscaled integer value (mantissa * 10^-scale == a).
func (a CryptoAmount) Mantissa() *big.Int {
	if a.mantissa == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(a.mantissa)
}

// String renders the decimal in plain form, e.g. "1.5".
func (a CryptoAmount) String() string {
	m := a.Mantissa()
	if a.scale == 0 {
		return m.String()
	}

	str := m.String()
	for len(str) <= a.scale {
		str = "0" + str
	}
	decimalPos := len(str) - a.scale
	result := str[:decimalPos] + "." + str[decimalPos:]
	for len(result) > 1 && result[len(result)-1] == '0' {
		result = result[:len(result)-1]
	}
	if result[len(result)-1] == '.' {
		result = result[:len(result)-1]
	}
	return result
}

// normalize trims trailing zeros off mantissa/scale without changing the
// represented value, per §4.9's "normalise (trim trailing zeros)".
func normalize(mantissa *big.Int, scale int) CryptoAmount {
	ten := big.NewInt(10)
	for scale > 0 {
		q, r := new(big.Int).QuoRem(mantissa, ten, new(big.Int))
		if r.Sign() != 0 {
			break
		}
		mantissa = q
		scale--
	}
	return CryptoAmount{mantissa: mantissa, scale: scale}
}

// FromU256 converts a wire-format u256 value (non-negative) into a
// CryptoAmount at the chain's decimals d, per §4.9.
func FromU256(value *big.Int, decimals int) (CryptoAmount, error) {
	if value == nil || value.Sign() < 0 {
		return CryptoAmount{}, sigilerr.WithDetails(sigilerr.ErrConversionError, map[string]string{"reason": "negative u256"})
	}
	if decimals < 0 {
		return CryptoAmount{}, sigilerr.WithDetails(sigilerr.ErrConversionError, map[string]string{"reason": "negative decimals"})
	}

	digits := new(big.Int).Abs(value).String()
	if value.Sign() == 0 {
		digits = ""
	}
	if len(digits) > maxMantissaDigits {
		return CryptoAmount{}, sigilerr.WithDetails(sigilerr.ErrConversionError, map[string]string{"reason": "value exceeds representable range"})
	}

	return normalize(new(big.Int).Set(value), decimals), nil
}

// ToU256 converts a CryptoAmount to a wire-format u256 at the chain's
// decimals d, per §4.9: rejects precision loss (scale > d), negative
// values, and mantissa overflow after rescaling.
func ToU256(a CryptoAmount, decimals int) (*big.Int, error) {
	n := normalize(a.Mantissa(), a.scale)
	if n.mantissa.Sign() < 0 {
		return nil, sigilerr.WithDetails(sigilerr.ErrConversionError, map[string]string{"reason": "negative amount"})
	}
	if n.scale > decimals {
		return nil, sigilerr.WithDetails(sigilerr.ErrConversionError, map[string]string{"reason": "precision loss"})
	}

	scaleUp := decimals - n.scale
	multiplier := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(scaleUp)), nil)
	result := new(big.Int).Mul(n.mantissa, multiplier)

	if result.CmpAbs(maxMantissa) > 0 {
		return nil, sigilerr.WithDetails(sigilerr.ErrConversionError, map[string]string{"reason": "overflow"})
	}

	return result, nil
}
