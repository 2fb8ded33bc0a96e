package textx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeText(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "hello\nworld\t!", SanitizeText("he\x00llo\nwo\x7frld\t!"))
	assert.Equal(t, "Jane Doe\njane@example.com", SanitizeText("  Jane Doe\njane@example.com\x01  "))
	assert.Equal(t, "", SanitizeText("\x00\x1f"))
}

func TestTruncate(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcdefg", Truncate("abcdefg", 7))
	assert.Equal(t, "abcd...", Truncate("abcdefgh", 7))
	assert.Equal(t, "ab", Truncate("abcdefgh", 2))
}
