package hillclimber

import "strings"

const maxReasonerResponseLen = 500

// parseReasonerResponse permissively interprets a meta-reasoner's raw text
// response as a ConfigChange. A literal "KEEP", phrases like
// "KEEP THE CURRENT" or "NO CHANGE", an empty response, or anything over
// maxReasonerResponseLen characters all mean keep; otherwise the
// stripped, quote-trimmed text becomes the new hint.
func parseReasonerResponse(raw string) ConfigChange {
	trimmed := strings.TrimSpace(raw)
	upper := strings.ToUpper(trimmed)

	if trimmed == "" || len(trimmed) > maxReasonerResponseLen {
		return ConfigChange{Type: ChangeKeep, Reasoning: "reasoner: empty or over-length response"}
	}
	if upper == "KEEP" || strings.Contains(upper, "KEEP THE CURRENT") || strings.Contains(upper, "NO CHANGE") {
		return ConfigChange{Type: ChangeKeep, Reasoning: "reasoner: explicit keep"}
	}

	newHint := stripQuotes(trimmed)
	return ConfigChange{Type: ChangeUpdateHint, Reasoning: "reasoner: proposed new hint", NewHint: newHint}
}

// stripQuotes trims surrounding matching quote characters (straight double,
// straight single, curly double, then backtick, each tried once in that
// order, so differently quoted layers can all be removed), trimming
// surrounding whitespace after each.
func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	pairs := [][2]rune{{'"', '"'}, {'\'', '\''}, {'“', '”'}, {'`', '`'}}
	for _, p := range pairs {
		r := []rune(s)
		if len(r) >= 2 && r[0] == p[0] && r[len(r)-1] == p[1] {
			s = strings.TrimSpace(string(r[1 : len(r)-1]))
		}
	}
	return s
}
