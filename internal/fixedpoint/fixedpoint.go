// Package fixedpoint converts venue wire decimals to the integer tick/unit
// representation the engine operates on, and back.
package fixedpoint

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits the wire format carries. It is a
// build-time constant; changing it changes the meaning of every Price and
// Quantity value stored by the engine.
const Scale = 4

var pow10 = int64(math.Pow10(Scale))

// ErrMalformedNumber is returned when a wire string is not a finite decimal,
// or scales to a value outside the representable int64 range.
var ErrMalformedNumber = errors.New("fixedpoint: malformed number")

// Parse converts a wire decimal string into its integer tick representation,
// rounding half-away-from-zero at the Scale-th fractional digit.
//
// decimal.Decimal does the string validation and arbitrary-precision
// arithmetic; this function owns only the rounding rule, because
// decimal.Round uses banker's rounding on exact .5 boundaries and the wire
// contract requires half-away-from-zero instead.
func Parse(s string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedNumber, err)
	}

	scaled := d.Mul(decimal.New(1, Scale))
	neg := scaled.Sign() < 0
	abs := scaled.Abs()

	whole := abs.Truncate(0)
	frac := abs.Sub(whole)
	if frac.Cmp(decimal.New(5, -1)) >= 0 {
		whole = whole.Add(decimal.New(1, 0))
	}

	if neg {
		whole = whole.Neg()
	}

	if !whole.BigInt().IsInt64() {
		return 0, fmt.Errorf("%w: %s out of range", ErrMalformedNumber, s)
	}
	return whole.BigInt().Int64(), nil
}

// Format renders n (in Scale-th ticks) as the shortest decimal string with
// at most Scale fractional digits. It is a total function and round-trips
// any integer produced by Parse: Parse(Format(n)) == n.
func Format(n int64) string {
	neg := n < 0
	abs := uint64(n)
	if neg {
		abs = uint64(-n)
	}

	whole := abs / uint64(pow10)
	frac := abs % uint64(pow10)

	fracStr := strconv.FormatUint(frac, 10)
	fracStr = strings.Repeat("0", Scale-len(fracStr)) + fracStr
	fracStr = strings.TrimRight(fracStr, "0")

	var sb strings.Builder
	if neg && (whole != 0 || frac != 0) {
		sb.WriteByte('-')
	}
	sb.WriteString(strconv.FormatUint(whole, 10))
	if fracStr != "" {
		sb.WriteByte('.')
		sb.WriteString(fracStr)
	}
	return sb.String()
}
