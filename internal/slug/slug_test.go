package slug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerate_CSharpTitle_ContainsSharpAndNoForbiddenChars(t *testing.T) {
	out := Generate("C# Basics!!", DefaultMaxLength)

	require.Contains(t, out, "sharp")
	require.NotContains(t, out, "#")
	require.NotContains(t, out, "!")
	require.NotContains(t, out, " ")
	require.Equal(t, "csharp-basics", out)
}

func TestGenerate_CPlusPlus_ReplacedWithPP(t *testing.T) {
	require.Equal(t, "cpp", Generate("C++", DefaultMaxLength))
}

func TestGenerate_WhitespaceOnly_ReturnsEmpty(t *testing.T) {
	require.Equal(t, "", Generate("  ", DefaultMaxLength))
}

func TestGenerate_EmptyInput_ReturnsEmpty(t *testing.T) {
	require.Equal(t, "", Generate("", DefaultMaxLength))
}

func TestGenerate_AccentedLetters_DegradeToASCIIBase(t *testing.T) {
	require.Equal(t, "cafe-menu", Generate("Café Menü", DefaultMaxLength))
}

func TestGenerate_NonASCII_Stripped(t *testing.T) {
	out := Generate("日本語 guide", DefaultMaxLength)
	require.Equal(t, "guide", out)
}

func TestGenerate_OutputAlphabetInvariants(t *testing.T) {
	inputs := []string{
		"Hello, World!",
		"  --- weird --- input ---  ",
		"MiXeD CaSe With   Spaces",
		"tabs\tand\nnewlines",
		"a.b.c.d",
		"___underscores___",
		strings.Repeat("x y ", 200),
		"!!!",
	}

	for _, in := range inputs {
		out := Generate(in, DefaultMaxLength)
		require.LessOrEqual(t, len(out), DefaultMaxLength, "input %q", in)
		require.False(t, strings.HasPrefix(out, "-"), "input %q -> %q", in, out)
		require.False(t, strings.HasSuffix(out, "-"), "input %q -> %q", in, out)
		require.NotContains(t, out, "--", "input %q -> %q", in, out)
		for _, r := range out {
			ok := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_'
			require.True(t, ok, "input %q produced %q in %q", in, r, out)
		}
	}
}

func TestGenerate_MaxLengthTruncates(t *testing.T) {
	out := Generate(strings.Repeat("abc ", 100), 20)
	require.LessOrEqual(t, len(out), 20)
	require.NotEmpty(t, out)
}

func TestMake_UsesDefaultMaxLength(t *testing.T) {
	require.Equal(t, Generate("Some Title", DefaultMaxLength), Make("Some Title"))
}
