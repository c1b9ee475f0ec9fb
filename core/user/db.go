package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("user not found")

func Create(ctx context.Context, db sqlx.ExtContext, usr User) error {
	const q = `
	INSERT INTO users
		(user_id, name, email, phone, password_hash, role, created_at, updated_at)
	VALUES
		(:user_id, :name, :email, :phone, :password_hash, :role, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, usr); err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (User, error) {
	const q = `SELECT * FROM users WHERE user_id = $1`

	var usr User
	if err := sqlx.GetContext(ctx, db, &usr, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("selecting user[%s]: %w", id, err)
	}

	return usr, nil
}

func FetchByEmail(ctx context.Context, db sqlx.ExtContext, email string) (User, error) {
	const q = `SELECT * FROM users WHERE email = $1`

	var usr User
	if err := sqlx.GetContext(ctx, db, &usr, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("selecting user by email: %w", err)
	}

	return usr, nil
}

func UpdatePassword(ctx context.Context, db sqlx.ExtContext, email string, hash []byte) error {
	const q = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE email = $1`

	res, err := db.ExecContext(ctx, q, email, hash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return nil
}
