package execrunner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize_Simple(t *testing.T) {
	toks, err := Tokenize("go test ./...")
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "test", "./..."}, toks)
}

func TestTokenize_DoubleQuotes(t *testing.T) {
	toks, err := Tokenize(`echo "hello world" foo`)
	require.NoError(t, err)
	assert.Equal(t, []string{"echo", "hello world", "foo"}, toks)
}

func TestTokenize_SingleQuotes(t *testing.T) {
	toks, err := Tokenize(`echo 'a b'`)
	require.NoError(t, err)
	assert.Equal(t, []string{"echo", "a b"}, toks)
}

func TestTokenize_UnterminatedQuoteFails(t *testing.T) {
	_, err := Tokenize(`echo "unterminated`)
	assert.Error(t, err)
}

func TestTokenize_NoShellExpansion(t *testing.T) {
	toks, err := Tokenize(`echo $HOME *.go`)
	require.NoError(t, err)
	assert.Equal(t, []string{"echo", "$HOME", "*.go"}, toks)
}

func TestTokenize_Empty(t *testing.T) {
	toks, err := Tokenize("")
	require.NoError(t, err)
	assert.Empty(t, toks)
}
