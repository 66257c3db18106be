package cart

import (
	"context"
	"database/sql"
)

// Repository is the narrow slice of the cart store settlement needs:
// clearing a user's cart after their payment settles.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Clear deletes the user's cart; items cascade with it. Clearing an
// absent cart is a no-op, which keeps redelivered confirmation events
// harmless.
func (r *Repository) Clear(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE user_id = $1`, userID)
	return err
}
