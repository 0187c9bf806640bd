package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type postgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) Store {
	return &postgresStore{db: db}
}

func (s *postgresStore) Get(ctx context.Context, sessionID, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM session_values WHERE session_id = $1 AND key = $2`,
		sessionID, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select session value: %w", err)
	}
	return value, nil
}

func (s *postgresStore) Set(ctx context.Context, sessionID, key string, value []byte) error {
	const upsertSQL = `
INSERT INTO session_values (session_id, key, value, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (session_id, key) DO UPDATE
SET value = EXCLUDED.value, updated_at = NOW()
`
	if _, err := s.db.ExecContext(ctx, upsertSQL, sessionID, key, value); err != nil {
		return fmt.Errorf("upsert session value: %w", err)
	}
	return nil
}

func (s *postgresStore) Delete(ctx context.Context, sessionID, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM session_values WHERE session_id = $1 AND key = $2`,
		sessionID, key,
	)
	return err
}
