package model

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Months are the Indonesian month names used as stored keys.
var Months = [12]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

var monthAliases = map[string]int{
	"jan": 1, "january": 1,
	"feb": 2, "febuari": 2, "february": 2,
	"mar": 3, "march": 3,
	"apr": 4,
	"may": 5,
	"jun": 6, "june": 6,
	"jul": 7, "july": 7,
	"agu": 8, "ags": 8, "agt": 8, "aug": 8, "august": 8,
	"sep": 9, "sept": 9,
	"okt": 10, "oct": 10, "october": 10,
	"nov": 11, "nop": 11,
	"des": 12, "dec": 12, "december": 12,
}

// ParseMonth maps an Indonesian or English month name, a common short form,
// or a month number to the stored Indonesian name.
func ParseMonth(s string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, m := range Months {
		if strings.ToLower(m) == key {
			return m, nil
		}
	}
	if n, ok := monthAliases[key]; ok {
		return Months[n-1], nil
	}
	if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= 12 {
		return Months[n-1], nil
	}
	return "", eris.Errorf("model: unknown month %q", s)
}
