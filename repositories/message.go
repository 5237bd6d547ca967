//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"talkline/domain"
	"talkline/errors"

	"github.com/dgraph-io/badger/v4"
)

// messageSeqKey names the badger sequence that hands out message ids.
const messageSeqKey = "seq:message"

type IMessageRepository interface {
	Append(senderID, receiverID, content string) (domain.Message, error)
	History(userA, userB string) ([]domain.Message, error)
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
	seq *badger.Sequence

	// mu keeps id assignment and timestamping a single step, so a later
	// append can never be persisted with an earlier id.
	mu sync.Mutex
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) (*MessageRepository, error) {
	seq, err := db.GetSequence([]byte(messageSeqKey), 64)
	if err != nil {
		return nil, fmt.Errorf("message sequence: %w", err)
	}
	return &MessageRepository{db: db, log: log, seq: seq}, nil
}

// Close releases the unused tail of the id sequence.
func (m *MessageRepository) Close() error {
	return m.seq.Release()
}

// diskMessage is the stored representation of a message.
type diskMessage struct {
	ID         uint64 `json:"id"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
	At         int64  `json:"at"`
}

// Append persists a message in BadgerDB and returns it with its assigned
// id and timestamp. The key is formatted as "msg:{pair_key}:{id_padded}" to:
//  1. Group the two directions of a thread under one prefix.
//  2. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order equals insertion order).
func (m *MessageRepository) Append(senderID, receiverID, content string) (domain.Message, error) {
	if content == "" {
		return domain.Message{}, errors.ErrEmptyContent
	}

	m.mu.Lock()
	next, err := m.seq.Next()
	if err != nil {
		m.mu.Unlock()
		return domain.Message{}, fmt.Errorf("message id: %w", err)
	}
	message := domain.Message{
		// The sequence starts at zero, ids at one.
		ID:         next + 1,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	m.mu.Unlock()

	key := fmt.Sprintf("msg:%s:%019d", domain.PairKey(senderID, receiverID), message.ID)
	bytes, err := json.Marshal(fromMessage(message))
	if err != nil {
		return domain.Message{}, err
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// History retrieves every message of the {userA, userB} thread using a prefix
// scan. Thanks to the padded id in the key, messages come back already sorted
// by (timestamp, id) ascending. An unknown pair yields an empty slice.
func (m *MessageRepository) History(userA, userB string) ([]domain.Message, error) {
	var byteMessages [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", domain.PairKey(userA, userB)))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				byteMessages = append(byteMessages, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(byteMessages))
	for _, b := range byteMessages {
		var dm diskMessage
		if err = json.Unmarshal(b, &dm); err != nil {
			return nil, err
		}
		messages = append(messages, toMessage(dm))
	}
	return messages, nil
}

func fromMessage(message domain.Message) diskMessage {
	return diskMessage{
		ID:         message.ID,
		SenderID:   message.SenderID,
		ReceiverID: message.ReceiverID,
		Content:    message.Content,
		At:         message.CreatedAt.UnixNano(),
	}
}

func toMessage(dm diskMessage) domain.Message {
	return domain.Message{
		ID:         dm.ID,
		SenderID:   dm.SenderID,
		ReceiverID: dm.ReceiverID,
		Content:    dm.Content,
		CreatedAt:  time.Unix(0, dm.At).UTC(),
	}
}
