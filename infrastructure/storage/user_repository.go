//go:generate go run go.uber.org/mock/mockgen -source=user_repository.go -destination=../../mocks/mock_user_repository.go -package=mocks
package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"chat-relay/errors"
)

type IUserRepository interface {
	CreateUser(email, hashedPassword string) (string, error)
	GetUserByEmail(email string) (User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// User is the domain-friendly representation of a user in the repository layer.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateUser persists the user with its already-hashed password in BadgerDB.
// It returns the newly generated user ID.
func (u UserRepository) CreateUser(email, hashedPassword string) (string, error) {
	user := User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hashedPassword,
		Roles:        []string{"user"},
		CreatedAt:    time.Now().UTC(),
	}

	data, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		key := []byte("user:" + email)
		if _, err = txn.Get(key); err == nil {
			return errors.ErrUserAlreadyExists
		}
		return txn.Set(key, data)
	})

	return user.ID, err
}

// GetUserByEmail retrieves a user from Badger.
func (u UserRepository) GetUserByEmail(email string) (User, error) {
	var user User

	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("user:" + email))
		if err != nil {
			return err // Surfaced as invalid credentials at the service layer
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})

	if err != nil {
		return User{}, err
	}
	return user, nil
}
