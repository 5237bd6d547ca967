package repositories

import (
	"log/slog"
	"testing"

	"talkline/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Append_Then_History(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository, err := NewMessageRepository(db, slog.Default())
	req.NoError(err)
	defer repository.Close()

	stored, err := repository.Append("alice-id", "bob-id", "hi")
	req.NoError(err)
	req.Equal(uint64(1), stored.ID)
	req.Equal("hi", stored.Content)
	req.False(stored.CreatedAt.IsZero())

	messages, err := repository.History("alice-id", "bob-id")
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal(stored, messages[0])
}

func Test_History_Is_Symmetric_And_Ordered(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository, err := NewMessageRepository(db, slog.Default())
	req.NoError(err)
	defer repository.Close()

	contents := []string{"hi", "hello", "still there?"}
	senders := []string{"alice-id", "bob-id", "alice-id"}
	for i, content := range contents {
		receiver := "bob-id"
		if senders[i] == "bob-id" {
			receiver = "alice-id"
		}
		_, err = repository.Append(senders[i], receiver, content)
		req.NoError(err)
	}

	forward, err := repository.History("alice-id", "bob-id")
	req.NoError(err)
	backward, err := repository.History("bob-id", "alice-id")
	req.NoError(err)
	req.Equal(forward, backward)

	req.Len(forward, len(contents))
	for i, m := range forward {
		req.Equal(contents[i], m.Content)
		if i > 0 {
			req.Greater(m.ID, forward[i-1].ID)
			req.False(m.CreatedAt.Before(forward[i-1].CreatedAt))
		}
	}
}

func Test_History_Unknown_Pair_Is_Empty(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository, err := NewMessageRepository(db, slog.Default())
	req.NoError(err)
	defer repository.Close()

	messages, err := repository.History("nobody", "noone")
	req.NoError(err)
	req.Empty(messages)
}

func Test_History_Does_Not_Leak_Other_Pairs(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository, err := NewMessageRepository(db, slog.Default())
	req.NoError(err)
	defer repository.Close()

	_, err = repository.Append("alice-id", "bob-id", "for bob")
	req.NoError(err)
	_, err = repository.Append("alice-id", "clara-id", "for clara")
	req.NoError(err)

	messages, err := repository.History("alice-id", "bob-id")
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal("for bob", messages[0].Content)
}

func Test_Append_Rejects_Empty_Content(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository, err := NewMessageRepository(db, slog.Default())
	req.NoError(err)
	defer repository.Close()

	_, err = repository.Append("alice-id", "bob-id", "")
	req.ErrorIs(err, errors.ErrEmptyContent)

	messages, err := repository.History("alice-id", "bob-id")
	req.NoError(err)
	req.Empty(messages)
}

func Test_History_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository, err := NewMessageRepository(db, slog.Default())
	req.NoError(err)
	defer repository.Close()

	_, err = repository.Append("alice-id", "bob-id", "hi")
	req.NoError(err)
	_, err = repository.Append("bob-id", "alice-id", "hello")
	req.NoError(err)

	first, err := repository.History("alice-id", "bob-id")
	req.NoError(err)
	second, err := repository.History("alice-id", "bob-id")
	req.NoError(err)
	req.Equal(first, second)
}
