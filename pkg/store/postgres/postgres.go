/*
Copyright 2026 Nscale.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package postgres provides a PostgreSQL backed user store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/unikorn-cloud/sandbox/pkg/log"
	"github.com/unikorn-cloud/sandbox/pkg/store"
)

// uniqueViolation is the SQLSTATE raised on unique index conflicts.
const uniqueViolation = "23505"

const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
)

type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = &Store{}

// Open connects to the database, waiting for it to become available, and
// runs migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	log := log.FromContext(ctx)

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	for i := range connectAttempts {
		if err = pool.Ping(ctx); err == nil {
			break
		}

		log.Info("waiting for database", "attempt", i+1, "of", connectAttempts)

		select {
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		case <-time.After(connectBackoff):
		}
	}

	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("could not reach database after %d attempts: %w", connectAttempts, err)
	}

	s := &Store{
		pool: pool,
	}

	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	log.Info("database connection established")

	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// migrate creates tables and indexes idempotently.
func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            BIGSERIAL   PRIMARY KEY,
			name          TEXT        NOT NULL,
			password_hash BYTEA       NOT NULL,
			password_salt BYTEA       NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_name ON users(name)`,
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

func translate(err error, format string, args ...any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: "+format, append([]any{store.ErrNotFound}, args...)...)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: "+format, append([]any{store.ErrConflict}, args...)...)
	}

	return fmt.Errorf("database error: "+format+": %w", append(args, err)...)
}

const columns = `id, name, password_hash, password_salt, created_at`

func scan(row pgx.Row) (*store.User, error) {
	var u store.User

	if err := row.Scan(&u.ID, &u.Name, &u.PasswordHash, &u.PasswordSalt, &u.CreationTime); err != nil {
		return nil, err
	}

	return &u, nil
}

func (s *Store) Create(ctx context.Context, user *store.User) (*store.User, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO users (name, password_hash, password_salt) VALUES ($1, $2, $3) RETURNING `+columns,
		user.Name, user.PasswordHash, user.PasswordSalt)

	created, err := scan(row)
	if err != nil {
		return nil, translate(err, "creating user %s", user.Name)
	}

	return created, nil
}

func (s *Store) Get(ctx context.Context, id int64) (*store.User, error) {
	u, err := scan(s.pool.QueryRow(ctx, `SELECT `+columns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err, "id %d", id)
	}

	return u, nil
}

func (s *Store) GetByName(ctx context.Context, name string) (*store.User, error) {
	u, err := scan(s.pool.QueryRow(ctx, `SELECT `+columns+` FROM users WHERE name = $1`, name))
	if err != nil {
		return nil, translate(err, "name %s", name)
	}

	return u, nil
}

func (s *Store) List(ctx context.Context) ([]store.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+columns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, translate(err, "listing users")
	}

	defer rows.Close()

	var users []store.User

	for rows.Next() {
		u, err := scan(rows)
		if err != nil {
			return nil, translate(err, "scanning user")
		}

		users = append(users, *u)
	}

	if err := rows.Err(); err != nil {
		return nil, translate(err, "listing users")
	}

	return users, nil
}

func (s *Store) UpdateName(ctx context.Context, id int64, name string) (*store.User, error) {
	row := s.pool.QueryRow(ctx, `UPDATE users SET name = $1 WHERE id = $2 RETURNING `+columns, name, id)

	u, err := scan(row)
	if err != nil {
		return nil, translate(err, "id %d", id)
	}

	return u, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return translate(err, "id %d", id)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", store.ErrNotFound, id)
	}

	return nil
}
