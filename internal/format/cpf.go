// README: CPF (Brazilian national ID) checksum validation and display masks.
package format

import (
	"regexp"
	"strings"
)

var (
	nonDigit   = regexp.MustCompile(`\D`)
	phoneChars = regexp.MustCompile(`^[0-9()+\- ]+$`)
)

// Digits strips every non-digit character.
func Digits(v string) string {
	return nonDigit.ReplaceAllString(v, "")
}

// ValidCPF reports whether v holds eleven digits with both check digits
// correct. Punctuation is ignored; repeated-digit numbers are rejected.
func ValidCPF(v string) bool {
	d := Digits(v)
	if len(d) != 11 {
		return false
	}
	if strings.Count(d, d[:1]) == len(d) {
		return false
	}
	return cpfCheckDigit(d[:9], 10) == int(d[9]-'0') &&
		cpfCheckDigit(d[:10], 11) == int(d[10]-'0')
}

func cpfCheckDigit(prefix string, weight int) int {
	sum := 0
	for i := 0; i < len(prefix); i++ {
		sum += int(prefix[i]-'0') * (weight - i)
	}
	rest := (sum * 10) % 11
	if rest == 10 {
		rest = 0
	}
	return rest
}

// MaskCPF formats a partial or complete CPF as 000.000.000-00, dropping
// anything past the eleventh digit.
func MaskCPF(v string) string {
	d := Digits(v)
	if len(d) > 11 {
		d = d[:11]
	}
	var b strings.Builder
	for i := 0; i < len(d); i++ {
		switch i {
		case 3, 6:
			b.WriteByte('.')
		case 9:
			b.WriteByte('-')
		}
		b.WriteByte(d[i])
	}
	return b.String()
}

// MaskHiddenCPF keeps the first three and last two digits visible.
// Input that is not a complete CPF is returned unchanged.
func MaskHiddenCPF(v string) string {
	d := Digits(v)
	if len(d) != 11 {
		return v
	}
	return d[:3] + ".***.***-" + d[9:]
}
