// README: Brazilian mobile number mask and completeness check.
package format

// MaskPhone formats digits as (DD) DDDDD-DDDD, progressively for partial
// input, keeping at most eleven digits.
func MaskPhone(v string) string {
	d := Digits(v)
	if len(d) > 11 {
		d = d[:11]
	}
	if len(d) <= 2 {
		return d
	}
	rest := d[2:]
	if len(rest) > 5 {
		rest = rest[:5] + "-" + rest[5:]
	}
	return "(" + d[:2] + ") " + rest
}

// ValidPhone reports whether v carries a complete number: area code plus
// eight or nine subscriber digits, written with digits and mask characters only.
func ValidPhone(v string) bool {
	if !phoneChars.MatchString(v) {
		return false
	}
	n := len(Digits(v))
	return n == 10 || n == 11
}
