package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// CartRepo keeps serialized carts in per-session slots. It satisfies cart.Store.
type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

// Load returns the slot payload, or nil when the session has never saved one.
func (r *CartRepo) Load(ctx context.Context, sessionID, slot string) ([]byte, error) {
	var payload string
	err := r.db.GetContext(ctx, &payload, r.db.Rebind(`SELECT payload FROM carts WHERE session_id = ? AND slot = ?`), sessionID, slot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(payload), nil
}

func (r *CartRepo) Save(ctx context.Context, sessionID, slot string, payload []byte) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO carts(session_id, slot, payload, updated_at)
		VALUES(?, ?, ?, ?)
		ON CONFLICT(session_id, slot) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`), sessionID, slot, string(payload), now())
	return err
}

// Move hands every slot of one session to another, used when sign-in rotates the session id.
func (r *CartRepo) Move(ctx context.Context, fromSession, toSession string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE carts SET session_id = ?, updated_at = ? WHERE session_id = ?`),
		toSession, now(), fromSession)
	return err
}
