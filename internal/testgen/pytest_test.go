package testgen

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStripQuotesRemovesNestedLayers(t *testing.T) {
	t.Parallel()

	require.Equal(t, "hello", StripQuotes(`"""'hello'"""`))
	require.Equal(t, "hello", StripQuotes(`"hello"`))
	require.Equal(t, "hello", StripQuotes(`  'hello'  `))
	require.Equal(t, "no quotes", StripQuotes("no quotes"))
}

func TestPythonLiteralPicksQuoteStyle(t *testing.T) {
	t.Parallel()

	require.Equal(t, `"plain"`, PythonLiteral("plain"))
	require.Equal(t, `'has "double"'`, PythonLiteral(`has "double"`))
	require.Equal(t, `"has 'single'"`, PythonLiteral("has 'single'"))
	require.Contains(t, PythonLiteral("line1\nline2"), "\n")
}

func TestSanitizeFunctionName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "abc_123", SanitizeFunctionName("ABC 123"))
	require.Equal(t, "t_9abc", SanitizeFunctionName("9abc"))
	require.Equal(t, "a_b_c", SanitizeFunctionName("a!!b??c"))
}

func TestToPytestNullExpectedOutputAssertsNone(t *testing.T) {
	t.Parallel()

	test := GeneratedTest{ID: "t1", Input: "'foo'", ExpectedOutput: nil}
	out := ToPytest(test, false, "")
	require.Contains(t, out, "assert result is None")
}

func TestToPytestRegexNullExpectedAssertsZeroMatches(t *testing.T) {
	t.Parallel()

	test := GeneratedTest{ID: "t1", Input: "no dates here", ExpectedOutput: nil}
	out := ToPytest(test, true, "/app/regex.txt")
	require.Contains(t, out, "assert len(matches) == 0")
	require.Contains(t, out, "re.findall(pattern,")
}

func TestToPytestRegexWithExpectedAssertsMatches(t *testing.T) {
	t.Parallel()

	expected := "['2024-01-01']"
	test := GeneratedTest{ID: "t1", Input: "date: 2024-01-01", ExpectedOutput: &expected}
	out := ToPytest(test, true, "/app/regex.txt")
	require.Contains(t, out, "assert str(matches) ==")
}
