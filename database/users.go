package database

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// EnsureAdmin creates the admin account, or resets its password when it
// already exists.
func (s *Store) EnsureAdmin(ctx context.Context, username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "db.ensure_admin.hash")
	}
	_, err = s.ExecContext(ctx, `
		INSERT INTO user (username, password_hash) VALUES (?, ?)
		ON CONFLICT (username) DO UPDATE SET password_hash = excluded.password_hash`,
		username, hash,
	)
	return errors.Wrap(err, "db.ensure_admin")
}
