package video

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Rational represents an exact rational number (numerator/denominator).
// Used for time bases and frame rates; all timestamp arithmetic goes
// through rationals so repeated conversions never drift.
type Rational struct {
	Num int // Numerator
	Den int // Denominator
}

// NewRational creates a new rational number
func NewRational(num, den int) Rational {
	if den == 0 {
		den = 1
	}
	return Rational{Num: num, Den: den}
}

// ParseRational parses "num/den" or a plain integer ("50", "30000/1001").
func ParseRational(s string) (Rational, error) {
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(num))
		if err != nil {
			return Rational{}, fmt.Errorf("invalid numerator %q: %w", num, err)
		}
		d, err := strconv.Atoi(strings.TrimSpace(den))
		if err != nil {
			return Rational{}, fmt.Errorf("invalid denominator %q: %w", den, err)
		}
		if d == 0 {
			return Rational{}, fmt.Errorf("zero denominator in %q", s)
		}
		return Rational{Num: n, Den: d}, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return Rational{}, fmt.Errorf("invalid rational %q: %w", s, err)
	}
	return Rational{Num: n, Den: 1}, nil
}

// Float64 returns the floating point representation
func (r Rational) Float64() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// Invert returns the inverted rational (den/num)
func (r Rational) Invert() Rational {
	return Rational{Num: r.Den, Den: r.Num}
}

// IsValid reports whether the rational has a positive value.
func (r Rational) IsValid() bool {
	return r.Num > 0 && r.Den > 0
}

// OrDefault returns r when valid, otherwise def. Used for frames that
// did not declare their own timebase.
func (r Rational) OrDefault(def Rational) Rational {
	if r.IsValid() {
		return r
	}
	return def
}

// String returns "num/den".
func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// GCD returns the greatest common divisor of a and b.
func GCD(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Reduce reduces num/den to its lowest terms, bounded so that neither
// component exceeds max. It returns the reduced rational and whether the
// reduction is exact. An inexact result is a best-effort approximation.
func Reduce(num, den, max int64) (Rational, bool) {
	if den == 0 {
		return Rational{Num: 0, Den: 1}, false
	}
	if g := GCD(num, den); g != 0 {
		num /= g
		den /= g
	}
	exact := true
	for num > max || den > max {
		num >>= 1
		den >>= 1
		exact = false
	}
	if den == 0 {
		den = 1
		exact = false
	}
	return Rational{Num: int(num), Den: int(den)}, exact
}

// RescaleRnd computes a*b/c with rounding to nearest, halves away from
// zero. Intermediate products that overflow int64 fall back to big.Int
// arithmetic so the result stays exact.
func RescaleRnd(a, b, c int64) int64 {
	if c == 0 {
		return 0
	}
	// Fast path while a*b fits in int64.
	if b == 0 || absInt64(a) <= (1<<62)/absInt64(b) {
		p := a * b
		half := c / 2
		if p < 0 {
			return (p - half) / c
		}
		return (p + half) / c
	}
	p := new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
	half := new(big.Int).Quo(big.NewInt(c), big.NewInt(2))
	if p.Sign() < 0 {
		p.Sub(p, half)
	} else {
		p.Add(p, half)
	}
	return new(big.Int).Quo(p, big.NewInt(c)).Int64()
}

// RescaleQ converts timestamp a from timebase bq to timebase cq exactly.
func RescaleQ(a int64, bq, cq Rational) int64 {
	b := int64(bq.Num) * int64(cq.Den)
	c := int64(cq.Num) * int64(bq.Den)
	return RescaleRnd(a, b, c)
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// Common time bases and frame rates.
var (
	TimeBase90kHz = Rational{Num: 1, Den: 90000} // Standard video (MPEG/RTP)
	TimeBase1kHz  = Rational{Num: 1, Den: 1000}  // Millisecond precision

	FrameRate24 = Rational{Num: 24, Den: 1}
	FrameRate25 = Rational{Num: 25, Den: 1} // PAL
	FrameRate30 = Rational{Num: 30, Den: 1}
	FrameRate50 = Rational{Num: 50, Den: 1}
	FrameRate60 = Rational{Num: 60, Den: 1}

	// NTSC frame rates
	FrameRate23_976 = Rational{Num: 24000, Den: 1001}
	FrameRate29_97  = Rational{Num: 30000, Den: 1001}
	FrameRate59_94  = Rational{Num: 60000, Den: 1001}
)
