package moderation

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbedded(t *testing.T) {
	req := require.New(t)

	data, err := LoadEmbedded()
	req.NoError(err)
	req.NotEmpty(data.Words)
	req.ElementsMatch([]string{"en", "fr"}, data.Languages)

	seen := make(map[string]struct{}, len(data.Words))
	for _, word := range data.Words {
		req.Equal(strings.TrimSpace(word), word)
		req.NotEmpty(word)
		_, duplicate := seen[word]
		req.False(duplicate, "duplicate word %q", word)
		seen[word] = struct{}{}
	}
}

func TestLoadEmbedded_FeedsModerator(t *testing.T) {
	req := require.New(t)

	data, err := LoadEmbedded()
	req.NoError(err)

	mod, err := NewModerator(data.Words, replacementChar, logs.GetLoggerFromLevel(slog.LevelError))
	req.NoError(err)

	censored, found := mod.Censor("this is merde")
	req.Equal("this is *****", censored)
	req.NotEmpty(found)
}
