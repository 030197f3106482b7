package parse

import (
	"strconv"
	"strings"
)

// Money parses display price strings like "$1,234" or "$987.65" into a float
// amount. Currency symbols and thousands separators are stripped; anything
// that does not reduce to a number reports ok=false.
func Money(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimPrefix(s, "€")
	s = strings.TrimPrefix(s, "£")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
