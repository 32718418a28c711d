package lexer

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	typ  TokenType
	text string
}

func TestLex(t *testing.T) {
	testCases := []struct {
		input string
		items []item
	}{
		{
			input: "(plus 1 2)",
			items: []item{
				{TokenLeftParen, "("},
				{TokenIdent, "plus"},
				{TokenNumber, "1"},
				{TokenNumber, "2"},
				{TokenRightParen, ")"},
				{TokenEOF, ""},
			},
		},
		{
			input: "  (:let\t@x  [1 \"two\" three])\n",
			items: []item{
				{TokenLeftParen, "("},
				{TokenColon, ":"},
				{TokenIdent, "let"},
				{TokenAt, "@"},
				{TokenIdent, "x"},
				{TokenLeftSquare, "["},
				{TokenNumber, "1"},
				{TokenString, "two"},
				{TokenIdent, "three"},
				{TokenRightSquare, "]"},
				{TokenRightParen, ")"},
				{TokenEOF, ""},
			},
		},
		{
			input: `(id "a b ( ) \ ")`,
			items: []item{
				{TokenLeftParen, "("},
				{TokenIdent, "id"},
				{TokenString, `a b ( ) \ `},
				{TokenRightParen, ")"},
				{TokenEOF, ""},
			},
		},
		{
			input: "x1y2 007",
			items: []item{
				{TokenIdent, "x1y2"},
				{TokenNumber, "007"},
				{TokenEOF, ""},
			},
		},
		{
			input: "(minus -5 -0 3)",
			items: []item{
				{TokenLeftParen, "("},
				{TokenIdent, "minus"},
				{TokenNumber, "-5"},
				{TokenNumber, "-0"},
				{TokenNumber, "3"},
				{TokenRightParen, ")"},
				{TokenEOF, ""},
			},
		},
		{
			input: "",
			items: []item{{TokenEOF, ""}},
		},
	}
	for _, tc := range testCases {
		l := New(tc.input)
		for _, ex := range tc.items {
			tok, err := l.Next()
			require.NoError(t, err, tc.input)
			require.Equal(t, ex.typ, tok.Type, "%q: wrong type", tc.input)
			require.Equal(t, ex.text, tok.Text, "%q: wrong text", tc.input)
		}
	}
}

func TestLexNumberValue(t *testing.T) {
	tok, pos, err := Scan("  9223372036854775807)", 0)
	require.NoError(t, err)
	assert.Equal(t, TokenNumber, tok.Type)
	assert.Equal(t, int64(9223372036854775807), tok.Number)
	assert.Equal(t, 2, tok.Offset)
	assert.Equal(t, 21, pos)
}

func TestLexNegativeNumbers(t *testing.T) {
	tok, pos, err := Scan("-9223372036854775808]", 0)
	require.NoError(t, err)
	assert.Equal(t, TokenNumber, tok.Type)
	assert.Equal(t, int64(math.MinInt64), tok.Number)
	assert.Equal(t, 20, pos)

	tok, _, err = Scan("(id -42)", 4)
	require.NoError(t, err)
	assert.Equal(t, int64(-42), tok.Number)
	assert.Equal(t, 4, tok.Offset)
}

func TestScanIsPure(t *testing.T) {
	src := "(a b)"
	first, next, err := Scan(src, 1)
	require.NoError(t, err)
	again, _, err := Scan(src, 1)
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, "a", first.Text)
	assert.Equal(t, 2, next)
}

func TestEOFIsSticky(t *testing.T) {
	l := New("x")
	_, err := l.Next()
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		tok, err := l.Next()
		require.NoError(t, err)
		assert.Equal(t, TokenEOF, tok.Type)
	}
}

func TestLexErrors(t *testing.T) {
	testCases := []struct {
		input      string
		offset     int
		incomplete bool
	}{
		{"(plus 1 +)", 8, false},
		{"(id \"unterminated)", 4, true},
		{"(x_y)", 2, false},
		{"99999999999999999999", 0, false},
		{"(é)", 1, false},
		{"(minus - 1)", 7, false},
		{"(id -x)", 4, false},
		{"-", 0, false},
		{"-9223372036854775809", 0, false},
	}
	for _, tc := range testCases {
		l := New(tc.input)
		var err error
		for {
			var tok Token
			tok, err = l.Next()
			if err != nil || tok.Type == TokenEOF {
				break
			}
		}
		require.Error(t, err, "%s should have failed to lex", tc.input)
		var lexErr *Error
		require.True(t, errors.As(err, &lexErr), "expected *Error, got %T", err)
		assert.Equal(t, tc.offset, lexErr.Offset, tc.input)
		assert.Equal(t, tc.incomplete, lexErr.Incomplete, tc.input)
	}
}
