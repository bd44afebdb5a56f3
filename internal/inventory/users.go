package inventory

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"asset-inventory-api/internal/database"
	"asset-inventory-api/internal/models"
)

var (
	ErrUserNotFound  = errors.New("no user found")
	ErrUsernameTaken = errors.New("Username already exists.")
)

// UserStore persists staff accounts.
type UserStore struct {
	db *database.DB
}

func NewUserStore(db *database.DB) *UserStore {
	return &UserStore{db: db}
}

// FindByUsername returns the account or ErrUserNotFound.
func (s *UserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	q := s.db.Rebind("SELECT id, username, password FROM users WHERE username = ?")
	err := s.db.GetContext(ctx, &u, q, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find user")
	}
	return &u, nil
}

// Create inserts an account. A username collision reports ErrUsernameTaken.
func (s *UserStore) Create(ctx context.Context, username, digest string) (int64, error) {
	var id int64
	var err error
	if s.db.Dialect.Returning {
		q := s.db.Rebind("INSERT INTO users (username, password) VALUES (?, ?) RETURNING id")
		err = s.db.GetContext(ctx, &id, q, username, digest)
	} else {
		var res sql.Result
		res, err = s.db.ExecContext(ctx, "INSERT INTO users (username, password) VALUES (?, ?)", username, digest)
		if err == nil {
			id, err = res.LastInsertId()
		}
	}
	if database.IsUniqueViolation(err) {
		return 0, ErrUsernameTaken
	}
	if err != nil {
		return 0, errors.Wrap(err, "create user")
	}
	return id, nil
}

// UpdatePassword replaces the stored digest. A missing id is not an error.
func (s *UserStore) UpdatePassword(ctx context.Context, id int64, digest string) error {
	q := s.db.Rebind("UPDATE users SET password = ? WHERE id = ?")
	if _, err := s.db.ExecContext(ctx, q, digest, id); err != nil {
		return errors.Wrap(err, "update password")
	}
	return nil
}
