package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func allKinds(t *testing.T, src string) []Kind {
	t.Helper()
	toks, err := New(src).All()
	require.NoError(t, err)

	kinds := make([]Kind, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Kind
	}

	return kinds
}

func TestLexerKeywordsAreCaseInsensitive(t *testing.T) {
	toks, err := New("select FROM SeLeCt").All()
	require.NoError(t, err)
	require.Equal(t, Keyword, toks[0].Kind)
	require.Equal(t, "SELECT", toks[0].Text)
	require.Equal(t, "FROM", toks[1].Text)
	require.Equal(t, "SELECT", toks[2].Text)
}

func TestLexerIdentifierVsKeyword(t *testing.T) {
	toks, err := New("customers").All()
	require.NoError(t, err)
	require.Equal(t, Ident, toks[0].Kind)
	require.Equal(t, "customers", toks[0].Text)
}

func TestLexerIntegerAndFloatLiterals(t *testing.T) {
	toks, err := New("42 3.14 2e10 1.5e-3").All()
	require.NoError(t, err)
	require.Equal(t, Int, toks[0].Kind)
	require.Equal(t, "42", toks[0].Text)
	require.Equal(t, Float, toks[1].Kind)
	require.Equal(t, Float, toks[2].Kind)
	require.Equal(t, Float, toks[3].Kind)
}

func TestLexerStringLiteralWithEscapedQuote(t *testing.T) {
	toks, err := New(`'it\'s fine'`).All()
	require.NoError(t, err)
	require.Equal(t, String, toks[0].Kind)
	require.Equal(t, "it's fine", toks[0].Text)
}

func TestLexerUnterminatedStringErrors(t *testing.T) {
	_, err := New(`'oops`).All()
	require.Error(t, err)
}

func TestLexerTwoCharOperators(t *testing.T) {
	toks, err := New("<> != <= >=").All()
	require.NoError(t, err)
	for i, want := range []string{"<>", "!=", "<=", ">="} {
		require.Equal(t, Operator, toks[i].Kind)
		require.Equal(t, want, toks[i].Text)
	}
}

func TestLexerSkipsLineComments(t *testing.T) {
	toks, err := New("SELECT -- trailing comment\nFROM").All()
	require.NoError(t, err)
	require.Equal(t, "SELECT", toks[0].Text)
	require.Equal(t, "FROM", toks[1].Text)
}

func TestLexerPunctuation(t *testing.T) {
	kinds := allKinds(t, "(a, b.c);")
	require.Equal(t, []Kind{Punct, Ident, Punct, Ident, Punct, Ident, Punct, Punct, EOF}, kinds)
}

func TestLexerUnexpectedCharacterErrors(t *testing.T) {
	_, err := New("SELECT 1 @ 2").All()
	require.Error(t, err)
}

func TestLexerEOFIsFinalToken(t *testing.T) {
	toks, err := New("SELECT 1").All()
	require.NoError(t, err)
	require.Equal(t, EOF, toks[len(toks)-1].Kind)
}
