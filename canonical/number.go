package canonical

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/teranos/medf/errors"
)

// encodeFloat writes f the way ECMAScript Number.prototype.toString does:
// shortest round-trip digits, plain notation for exponents in [-7, 21),
// exponent notation with an explicit sign otherwise, and -0 as 0.
func encodeFloat(buf *bytes.Buffer, f float64, path string) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return errors.NewEncodingError("non-finite number at %s", path)
	}
	if f == 0 {
		buf.WriteByte('0')
		return nil
	}
	if f < 0 {
		buf.WriteByte('-')
		f = -f
	}

	// "d.ddddde±xx" carries the shortest digit string and its exponent.
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	mant, expPart, _ := strings.Cut(sci, "e")
	digits := strings.Replace(mant, ".", "", 1)
	exp, err := strconv.Atoi(expPart)
	if err != nil {
		return errors.AssertionFailedf("unexpected float format %q", sci)
	}

	k := len(digits)
	n := exp + 1

	switch {
	case k <= n && n <= 21:
		buf.WriteString(digits)
		buf.WriteString(strings.Repeat("0", n-k))
	case 0 < n && n <= 21:
		buf.WriteString(digits[:n])
		buf.WriteByte('.')
		buf.WriteString(digits[n:])
	case -6 < n && n <= 0:
		buf.WriteString("0.")
		buf.WriteString(strings.Repeat("0", -n))
		buf.WriteString(digits)
	default:
		buf.WriteByte(digits[0])
		if k > 1 {
			buf.WriteByte('.')
			buf.WriteString(digits[1:])
		}
		buf.WriteByte('e')
		e := n - 1
		if e >= 0 {
			buf.WriteByte('+')
		} else {
			buf.WriteByte('-')
			e = -e
		}
		buf.WriteString(strconv.Itoa(e))
	}
	return nil
}
