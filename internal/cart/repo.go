// Package cart exposes the cart store the order service collaborates with.
// Order creation clears the originating cart; nothing here touches stock.
package cart

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("cart not found")

type Item struct {
	ID        string `json:"id"`
	CartID    string `json:"cart_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type Cart struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Total     string    `json:"total"` // NUMERIC -> string
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Repository interface {
	FindByUser(ctx context.Context, userID string) (*Cart, error)
	Clear(ctx context.Context, userID string) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) FindByUser(ctx context.Context, userID string) (*Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var c Cart
	if err := r.db.QueryRow(ctx, `
		SELECT id, user_id, total::text, updated_at
		FROM carts WHERE user_id=$1
	`, userID).Scan(&c.ID, &c.UserID, &c.Total, &c.UpdatedAt); err != nil {
		return nil, ErrNotFound
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, cart_id, product_id, quantity
		FROM cart_items WHERE cart_id=$1
	`, c.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity); err != nil {
			return nil, err
		}
		c.Items = append(c.Items, it)
	}
	return &c, rows.Err()
}

// Clear empties the user's cart (items gone, total back to zero). Clearing a
// missing cart is a no-op.
func (r *PGRepo) Clear(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		DELETE FROM cart_items
		WHERE cart_id IN (SELECT id FROM carts WHERE user_id=$1)
	`, userID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		UPDATE carts SET total = 0, updated_at = NOW() WHERE user_id=$1
	`, userID)
	return err
}
