package testgen

import (
	"fmt"
	"regexp"
	"strings"
)

var funcNameSanitizer = regexp.MustCompile(`[^a-z0-9_]+`)

// SanitizeFunctionName lowercases s and collapses any run of characters
// outside [a-z0-9_] into a single underscore, so generated tests always
// have a syntactically valid pytest function name.
func SanitizeFunctionName(s string) string {
	lower := strings.ToLower(s)
	sanitized := funcNameSanitizer.ReplaceAllString(lower, "_")
	sanitized = strings.Trim(sanitized, "_")
	if sanitized == "" {
		sanitized = "test_case"
	}
	if sanitized[0] >= '0' && sanitized[0] <= '9' {
		sanitized = "t_" + sanitized
	}
	return sanitized
}

// StripQuotes aggressively removes leading/trailing quote runs — single,
// double, or triple, nested any number of times — from s.
func StripQuotes(s string) string {
	for {
		trimmed := strings.TrimSpace(s)
		stripped := false

		for _, q := range []string{`"""`, "'''", `"`, `'`} {
			if len(trimmed) >= 2*len(q) && strings.HasPrefix(trimmed, q) && strings.HasSuffix(trimmed, q) {
				trimmed = trimmed[len(q) : len(trimmed)-len(q)]
				stripped = true
				break
			}
		}

		if !stripped {
			return trimmed
		}
		s = trimmed
	}
}

// PythonLiteral renders s as a Python string literal, choosing single,
// double, or triple-double quoting based on which quote characters and
// newlines s contains, and escaping the chosen quote character and
// backslashes where a single-line literal is chosen.
func PythonLiteral(s string) string {
	hasNewline := strings.Contains(s, "\n")
	hasSingle := strings.Contains(s, "'")
	hasDouble := strings.Contains(s, "\"")

	if hasNewline {
		body := strings.ReplaceAll(s, `"""`, `\"\"\"`)
		return `"""` + body + `"""`
	}

	switch {
	case !hasDouble:
		return `"` + escapeLiteralBody(s, '"') + `"`
	case !hasSingle:
		return `'` + escapeLiteralBody(s, '\'') + `'`
	default:
		return `"""` + strings.ReplaceAll(s, `"""`, `\"\"\"`) + `"""`
	}
}

func escapeLiteralBody(s string, quote byte) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == quote || c == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// ToPytest renders one generated test as a pytest test function body. When
// isRegexTask is true, test.Input is sample text matched against a regex
// pattern read from patternPath via re.findall(pattern, input,
// re.MULTILINE); a nil ExpectedOutput asserts zero matches, otherwise the
// match list is asserted against the stripped expected value.
func ToPytest(test GeneratedTest, isRegexTask bool, patternPath string) string {
	funcName := "test_" + SanitizeFunctionName(test.ID)
	input := StripQuotes(test.Input)

	var sb strings.Builder
	fmt.Fprintf(&sb, "def %s():\n", funcName)
	if test.Reasoning != "" {
		fmt.Fprintf(&sb, "    # %s\n", oneLine(test.Reasoning))
	}

	if isRegexTask {
		fmt.Fprintf(&sb, "    pattern = open(%s).read().strip()\n", PythonLiteral(patternPath))
		fmt.Fprintf(&sb, "    matches = re.findall(pattern, %s, re.MULTILINE)\n", PythonLiteral(input))
		if test.ExpectedOutput == nil {
			sb.WriteString("    assert len(matches) == 0\n")
			return sb.String()
		}
		expected := StripQuotes(*test.ExpectedOutput)
		fmt.Fprintf(&sb, "    assert str(matches) == %s\n", PythonLiteral(expected))
		return sb.String()
	}

	if test.ExpectedOutput == nil {
		fmt.Fprintf(&sb, "    result = run(%s)\n", PythonLiteral(input))
		sb.WriteString("    assert result is None\n")
		return sb.String()
	}

	expected := StripQuotes(*test.ExpectedOutput)
	fmt.Fprintf(&sb, "    result = run(%s)\n", PythonLiteral(input))
	fmt.Fprintf(&sb, "    assert result == %s\n", PythonLiteral(expected))
	return sb.String()
}

func oneLine(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", " "), "\n", " ")
}
