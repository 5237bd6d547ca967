//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"talkline/domain"
	"talkline/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IUserRepository interface {
	Create(displayName, passwordHash string) (string, error)
	GetByName(displayName string) (User, error)
	Resolve(displayName string) (string, bool, error)
	List(filter string) ([]domain.User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// User is the repository-level representation of an account.
// The directory layer only ever sees the domain.User projection of it.
type User struct {
	ID           string    `json:"id"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// Create persists a new account keyed by display name, which is how the
// uniqueness constraint is enforced. It returns the newly generated user id.
func (u UserRepository) Create(displayName, hashedPassword string) (string, error) {
	newID := uuid.New().String()
	account := User{
		ID:           newID,
		DisplayName:  displayName,
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now().UTC(),
	}

	data, err := json.Marshal(account)
	if err != nil {
		return "", fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		key := []byte("user:" + displayName)
		if _, err = txn.Get(key); err == nil {
			return errors.ErrUserAlreadyExists
		}
		return txn.Set(key, data)
	})

	return newID, err
}

// GetByName retrieves a full account record, password hash included.
func (u UserRepository) GetByName(displayName string) (User, error) {
	var account User

	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("user:" + displayName))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &account)
		})
	})

	if err != nil {
		return User{}, err
	}
	return account, nil
}

// Resolve turns a display name into a user id.
// An unknown name is not an error: the router treats it as a silent drop.
func (u UserRepository) Resolve(displayName string) (string, bool, error) {
	account, err := u.GetByName(displayName)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return "", false, nil
		}
		return "", false, err
	}
	return account.ID, true, nil
}

// List scans the directory, optionally keeping only display names containing
// filter (case-insensitive). Password hashes never leave the repository.
func (u UserRepository) List(filter string) ([]domain.User, error) {
	var accounts []User

	err := u.db.View(func(txn *badger.Txn) error {
		prefix := []byte("user:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var account User
				if err := json.Unmarshal(val, &account); err != nil {
					return err
				}
				accounts = append(accounts, account)
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

	needle := strings.ToLower(filter)
	if needle != "" {
		accounts = lo.Filter(accounts, func(account User, _ int) bool {
			return strings.Contains(strings.ToLower(account.DisplayName), needle)
		})
	}

	return lo.Map(accounts, func(account User, _ int) domain.User {
		return domain.User{ID: account.ID, DisplayName: account.DisplayName}
	}), nil
}
