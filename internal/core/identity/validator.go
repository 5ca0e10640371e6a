// Package identity validates the Ecuadorian national identification numbers
// (cédula and RUC) and the contact fields captured by the intake forms.
package identity

import (
	"regexp"
	"strings"
)

var (
	nonDigits    = regexp.MustCompile(`\D`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\d{10,15}$`)
)

// ValidateEcuadorianID checks a 10-digit cédula or a 13-digit RUC.
//
// Non-digits are stripped first. A RUC must end in "001" and is validated on
// its first ten digits. The province prefix must be 01-24, 30, 90 or 99. The
// third digit selects the algorithm: 0-5 natural person (modulo 10), 6 public
// sector (modulo 11 over eight digits), 9 private company (modulo 10 with
// weights 4,3,2,7,6,5,4,3,2). Anything else is rejected.
func ValidateEcuadorianID(id string) bool {
	digits := nonDigits.ReplaceAllString(id, "")
	n := len(digits)
	if n != 10 && n != 13 {
		return false
	}
	if n == 13 && digits[10:] != "001" {
		return false
	}

	base := digits[:10]
	d := make([]int, 10)
	for i := range base {
		d[i] = int(base[i] - '0')
	}

	province := d[0]*10 + d[1]
	if province < 1 || (province > 24 && province != 30 && province != 90 && province != 99) {
		return false
	}

	third := d[2]
	verifier := d[9]
	var expected int

	switch {
	case third >= 0 && third <= 5:
		coefficients := []int{2, 1, 2, 1, 2, 1, 2, 1, 2}
		sum := 0
		for i, c := range coefficients {
			v := d[i] * c
			if v > 9 {
				v -= 9
			}
			sum += v
		}
		expected = checkDigit(sum%10, 10)

	case third == 6:
		coefficients := []int{3, 2, 7, 6, 5, 4, 3, 2}
		sum := 0
		for i, c := range coefficients {
			sum += d[i] * c
		}
		residue := sum % 11
		if residue == 1 {
			return false
		}
		expected = checkDigit(residue, 11)

	case third == 9:
		coefficients := []int{4, 3, 2, 7, 6, 5, 4, 3, 2}
		sum := 0
		for i, c := range coefficients {
			sum += d[i] * c
		}
		expected = checkDigit(sum%10, 10)

	default:
		return false
	}

	return expected == verifier
}

func checkDigit(residue, modulo int) int {
	if residue == 0 {
		return 0
	}
	return modulo - residue
}

// IsValidEmail applies the same loose pattern the web forms use.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// IsValidPhone accepts 10 to 15 digits once spaces, dashes, dots,
// parentheses and a leading plus sign are removed.
func IsValidPhone(phone string) bool {
	return phonePattern.MatchString(stripPhone(phone))
}

// IsValidPhoneDigits is the strict form: the input must already be 10 to 15 digits.
func IsValidPhoneDigits(phone string) bool {
	return phonePattern.MatchString(phone)
}

// FormatPhoneNumber normalizes a local or international number to +593 form.
func FormatPhoneNumber(phone string) string {
	cleaned := nonDigits.ReplaceAllString(phone, "")
	cleaned = strings.TrimPrefix(cleaned, "0")
	if !strings.HasPrefix(cleaned, "593") {
		cleaned = "593" + cleaned
	}
	return "+" + cleaned
}

func stripPhone(phone string) string {
	r := strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")
	return strings.TrimPrefix(r.Replace(strings.TrimSpace(phone)), "+")
}
