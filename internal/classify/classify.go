// Package classify decides whether a free-text profile location points at Iceland.
package classify

import "strings"

type Classification int

const (
	Foreign Classification = iota
	Local
)

func (c Classification) String() string {
	if c == Local {
		return "local"
	}
	return "foreign"
}

// Matching is a plain case-sensitive substring test, so "Island" on its own
// (Rhode Island included) counts as local.
var icelandTokens = []string{
	"Iceland", "Ísland", "Island",
	"iceland", "ísland", "island",
	"Reykjavík", "Reykjavik",
}

func Classify(location string) Classification {
	for _, token := range icelandTokens {
		if strings.Contains(location, token) {
			return Local
		}
	}
	return Foreign
}

func IsLocal(location string) bool {
	return Classify(location) == Local
}

// Tokens returns a copy of the matched token set.
func Tokens() []string {
	out := make([]string, len(icelandTokens))
	copy(out, icelandTokens)
	return out
}
