package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCensor_ReplacesForbiddenWord(t *testing.T) {
	req := require.New(t)

	moderator, err := NewModerator([]string{"moron"}, '*')
	req.NoError(err)

	req.Equal("you ***** !", moderator.Censor("you moron !"))
}

func TestCensor_IsCaseAndLeetInsensitive(t *testing.T) {
	req := require.New(t)

	moderator, err := NewModerator([]string{"moron"}, '*')
	req.NoError(err)

	req.Equal("*****", moderator.Censor("MoRoN"))
	req.Equal("*****", moderator.Censor("m0r0n"))
}

func TestCensor_LeavesCleanContentUntouched(t *testing.T) {
	req := require.New(t)

	moderator, err := NewModerator([]string{"moron"}, '*')
	req.NoError(err)

	content := "perfectly polite message"
	req.Equal(content, moderator.Censor(content))
}

func TestLoadWords(t *testing.T) {
	req := require.New(t)

	words, err := LoadWords()
	req.NoError(err)
	req.NotEmpty(words)
	req.Contains(words, "moron")
	req.NotContains(words, "")
}
