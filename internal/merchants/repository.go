package merchants

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/canteenhq/settlement/internal/domain"
)

// Repository is the merchant registry: one active row per canteen,
// read-only on the payment path.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, merchant *domain.Merchant) error {
	merchant.ID = uuid.New().String()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO merchants (id, canteen_id, name, gateway_key_id, gateway_key_secret, active)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, merchant.ID, merchant.CanteenID, merchant.Name, merchant.KeyID, merchant.KeySecret, merchant.Active)
	return err
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Merchant, error) {
	return r.get(ctx, `WHERE id = $1`, id)
}

func (r *Repository) GetByCanteenID(ctx context.Context, canteenID string) (*domain.Merchant, error) {
	return r.get(ctx, `WHERE canteen_id = $1 AND active`, canteenID)
}

func (r *Repository) get(ctx context.Context, where string, arg any) (*domain.Merchant, error) {
	m := &domain.Merchant{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, canteen_id, name, gateway_key_id, gateway_key_secret, active, created_at
		FROM merchants `+where,
		arg,
	).Scan(&m.ID, &m.CanteenID, &m.Name, &m.KeyID, &m.KeySecret, &m.Active, &m.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}
