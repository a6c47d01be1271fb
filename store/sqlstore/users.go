package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andrebq/dolist/authprogram"
	"github.com/cespare/xxhash/v2"
)

func (s *Store) FindByID(ctx context.Context, id string) (*authprogram.User, error) {
	return s.loadUser(ctx, `select user_id, email, password_hash from users where user_id = ?`, id)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*authprogram.User, error) {
	return s.loadUser(ctx, `select user_id, email, password_hash from users where email = ?`, email)
}

func (s *Store) FindByCredentialLookup(ctx context.Context, id, token, purpose string) (*authprogram.User, error) {
	return s.loadUser(ctx, `select u.user_id, u.email, u.password_hash
	from users u
	where u.user_id = ? and exists (
		select 1 from user_tokens t
		where t.user_id = u.user_id and t.token_hash64 = ? and t.token = ? and t.purpose = ?)`,
		id, tokenHash(token), token, purpose)
}

func (s *Store) Insert(ctx context.Context, user *authprogram.User) (*authprogram.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to start transaction, cause %w", err)
	}
	defer tx.Rollback()
	_, err = tx.ExecContext(ctx, s.rebind(`insert into users(user_id, email, password_hash) values (?, ?, ?)`),
		user.ID, user.Email, user.PasswordHash)
	if isUniqueViolation(err) {
		return nil, authprogram.ErrDuplicateEmail
	} else if err != nil {
		return nil, fmt.Errorf("unable to insert user, cause %w", err)
	}
	for _, t := range user.Tokens {
		err = s.insertToken(ctx, tx, user.ID, t)
		if err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("unable to commit user, cause %w", err)
	}
	stored := *user
	stored.Tokens = append([]authprogram.TokenEntry(nil), user.Tokens...)
	return &stored, nil
}

func (s *Store) AppendToken(ctx context.Context, userID string, entry authprogram.TokenEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("unable to start transaction, cause %w", err)
	}
	defer tx.Rollback()
	var one int
	err = tx.QueryRowContext(ctx, s.rebind(`select 1 from users where user_id = ?`), userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return authprogram.ErrUserNotFound
	} else if err != nil {
		return fmt.Errorf("unable to lookup user %v, cause %w", userID, err)
	}
	if err := s.insertToken(ctx, tx, userID, entry); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("unable to commit token, cause %w", err)
	}
	return nil
}

func (s *Store) RemoveToken(ctx context.Context, userID string, token string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`delete from user_tokens where token_id in (
		select token_id from user_tokens
		where user_id = ? and token_hash64 = ? and token = ?
		order by token_id limit 1)`), userID, tokenHash(token), token)
	if err != nil {
		return fmt.Errorf("unable to remove token, cause %w", err)
	}
	return nil
}

func (s *Store) UpdatePassword(ctx context.Context, userID string, newHash string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`update users set password_hash = ? where user_id = ?`), newHash, userID)
	if err != nil {
		return fmt.Errorf("unable to update password, cause %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to check updated rows, cause %w", err)
	} else if n == 0 {
		return authprogram.ErrUserNotFound
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("unable to start transaction, cause %w", err)
	}
	defer tx.Rollback()
	// tokens go first, foreign keys might be disabled on the connection
	_, err = tx.ExecContext(ctx, s.rebind(`delete from user_tokens where user_id = ?`), userID)
	if err != nil {
		return fmt.Errorf("unable to delete tokens of user %v, cause %w", userID, err)
	}
	_, err = tx.ExecContext(ctx, s.rebind(`delete from users where user_id = ?`), userID)
	if err != nil {
		return fmt.Errorf("unable to delete user %v, cause %w", userID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("unable to commit user removal, cause %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (s *Store) insertToken(ctx context.Context, db execer, userID string, entry authprogram.TokenEntry) error {
	_, err := db.ExecContext(ctx, s.rebind(`insert into user_tokens(user_id, purpose, token, token_hash64) values (?, ?, ?, ?)`),
		userID, entry.Purpose, entry.Token, tokenHash(entry.Token))
	if err != nil {
		return fmt.Errorf("unable to append token to user %v, cause %w", userID, err)
	}
	return nil
}

func (s *Store) loadUser(ctx context.Context, query string, args ...interface{}) (*authprogram.User, error) {
	var u authprogram.User
	err := s.db.QueryRowContext(ctx, s.rebind(query), args...).Scan(&u.ID, &u.Email, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("unable to load user, cause %w", err)
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`select purpose, token from user_tokens where user_id = ? order by token_id asc`), u.ID)
	if err != nil {
		return nil, fmt.Errorf("unable to load tokens of user %v, cause %w", u.ID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var t authprogram.TokenEntry
		err = rows.Scan(&t.Purpose, &t.Token)
		if err != nil {
			return nil, fmt.Errorf("unable to scan token of user %v, cause %w", u.ID, err)
		}
		u.Tokens = append(u.Tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("unable to load tokens of user %v, cause %w", u.ID, err)
	}
	return &u, nil
}

func tokenHash(token string) int64 {
	return int64(xxhash.Sum64String(token))
}
