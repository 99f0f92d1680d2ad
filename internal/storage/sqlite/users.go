package sqlite

import (
	"context"
	"fmt"
	"time"
)

// GetOrCreateUser finds or creates a user by login name.
// Updates last_seen and display_name on each call.
func (s *Store) GetOrCreateUser(ctx context.Context, login, displayName string) (int, error) {
	now := toNanos(time.Now())
	var id int
	err := s.sqlDB.QueryRowContext(ctx, `
		INSERT INTO users (login, display_name, created_at, last_seen)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (login) DO UPDATE
			SET last_seen = excluded.last_seen,
			    display_name = COALESCE(NULLIF(excluded.display_name, ''), users.display_name)
		RETURNING id`, login, displayName, now, now).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting user: %w", err)
	}
	return id, nil
}
