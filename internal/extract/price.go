package extract

import (
	"regexp"
	"strconv"
)

// pricePatterns are tried in order; the first one that matches wins.
var pricePatterns = []*regexp.Regexp{
	// "Price: $0.0012", "Entry ... $1.5"
	regexp.MustCompile(`(?i)(?:Price|Entry)[^$]*\$(\d+(?:\.\d+)?)`),
	// bare sub-dollar amount
	regexp.MustCompile(`\$(0\.\d+)`),
}

// Price parses a dollar price out of a trading bot confirmation message.
func Price(text string) (float64, bool) {
	for _, re := range pricePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}
	return 0, false
}
