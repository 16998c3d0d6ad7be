// Package inventory owns the stock field of products. Every stock mutation in
// the system goes through the Ledger; nothing else writes it.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound   = errors.New("product not found")
	ErrOutOfStock = errors.New("insufficient stock")
)

// Ledger reserves and releases product stock. Reserve must be a single
// check-and-decrement: two concurrent reservations over the last unit must
// never both succeed.
type Ledger interface {
	Reserve(ctx context.Context, productID string, qty int) error
	Release(ctx context.Context, productID string, qty int) error
}

type PGLedger struct{ db *pgxpool.Pool }

func NewPGLedger(db *pgxpool.Pool) *PGLedger { return &PGLedger{db: db} }

// Reserve decrements stock by qty, guarded by stock >= qty in the same
// statement. A zero-row result means either the product is missing or the
// stock is short; a follow-up existence check tells the two apart.
func (l *PGLedger) Reserve(ctx context.Context, productID string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("reserve: quantity must be positive, got %d", qty)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := l.db.Exec(ctx, `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
	`, productID, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := l.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE id=$1)`, productID,
	).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("product %s: %w", productID, ErrNotFound)
	}
	return fmt.Errorf("product %s: %w", productID, ErrOutOfStock)
}

// Release puts qty units back. It never fails for "too much": restoring more
// than was reserved is a caller bug, not a ledger condition.
func (l *PGLedger) Release(ctx context.Context, productID string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("release: quantity must be positive, got %d", qty)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := l.db.Exec(ctx, `
		UPDATE products
		SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1
	`, productID, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", productID, ErrNotFound)
	}
	return nil
}
