package order

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrConflict means the row moved under us (version mismatch): the caller
	// lost the race and must re-read before retrying.
	ErrConflict = errors.New("order was modified concurrently")
)

type Repository interface {
	Create(ctx context.Context, o *Order, items []Item) error
	GetByID(ctx context.Context, id string) (*Order, []Item, error)
	GetItems(ctx context.Context, orderID string) ([]Item, error)
	List(ctx context.Context, limit, offset int) ([]Order, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error)

	// Per-field mutations; all are version-guarded so two racing updates on
	// the same order cannot both apply.
	MarkPaid(ctx context.Context, o *Order) error
	MarkDelivered(ctx context.Context, o *Order) error
	UpdateStatus(ctx context.Context, o *Order) error
	SetTracking(ctx context.Context, o *Order) error
	SetRefund(ctx context.Context, o *Order) error
	SetInvoiceNumber(ctx context.Context, o *Order) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const orderCols = `id, user_id, COALESCE(invoice_number,''), status,
	is_paid, paid_at, is_delivered, delivered_at,
	items_price::text, shipping_price::text, tax_price::text, total_price::text,
	payment_method, COALESCE(payment_result,''),
	ship_street, ship_city, ship_state, ship_postal_code, ship_country,
	COALESCE(tracking_number,''), COALESCE(tracking_company,''),
	COALESCE(refund_amount::text,''), COALESCE(refund_reason,''), refunded_at,
	version, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.InvoiceNumber, &o.Status,
		&o.IsPaid, &o.PaidAt, &o.IsDelivered, &o.DeliveredAt,
		&o.ItemsPrice, &o.ShippingPrice, &o.TaxPrice, &o.TotalPrice,
		&o.PaymentMethod, &o.PaymentResult,
		&o.ShippingAddress.Street, &o.ShippingAddress.City, &o.ShippingAddress.State,
		&o.ShippingAddress.PostalCode, &o.ShippingAddress.Country,
		&o.TrackingNumber, &o.TrackingCompany,
		&o.RefundAmount, &o.RefundReason, &o.RefundedAt,
		&o.Version, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PGRepo) Create(ctx context.Context, o *Order, items []Item) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
    INSERT INTO orders (id, user_id, status,
      items_price, shipping_price, tax_price, total_price,
      payment_method, ship_street, ship_city, ship_state, ship_postal_code, ship_country,
      version, created_at, updated_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,1,NOW(),NOW())
  `, o.ID, o.UserID, o.Status,
		o.ItemsPrice, o.ShippingPrice, o.TaxPrice, o.TotalPrice,
		o.PaymentMethod, o.ShippingAddress.Street, o.ShippingAddress.City,
		o.ShippingAddress.State, o.ShippingAddress.PostalCode, o.ShippingAddress.Country); err != nil {
		return err
	}

	for _, it := range items {
		if _, err := tx.Exec(ctx, `
      INSERT INTO order_items (id, order_id, product_id, product_name, quantity, price)
      VALUES ($1,$2,$3,$4,$5,$6)
    `, it.ID, o.ID, it.ProductID, it.ProductName, it.Quantity, it.Price); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	o.Version = 1
	return nil
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Order, []Item, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE id=$1`, id))
	if err != nil {
		return nil, nil, ErrNotFound
	}
	items, err := r.GetItems(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return o, items, nil
}

func (r *PGRepo) GetItems(ctx context.Context, orderID string) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
    SELECT id, order_id, product_id, product_name, quantity, price::text
    FROM order_items
    WHERE order_id = $1
  `, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Order, error) {
	return r.list(ctx, `SELECT `+orderCols+` FROM orders
    ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error) {
	return r.list(ctx, `SELECT `+orderCols+` FROM orders WHERE user_id=$3
    ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset, userID)
}

func (r *PGRepo) list(ctx context.Context, sql string, limit, offset int, extra ...any) ([]Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	args := append([]any{limit, offset}, extra...)
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// guarded runs a version-checked UPDATE. Zero rows touched means the order is
// gone (ErrNotFound) or someone else bumped the version first (ErrConflict).
// On success the in-memory version advances with the row.
func (r *PGRepo) guarded(ctx context.Context, o *Order, sql string, args ...any) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	args = append([]any{o.ID, o.Version}, args...)
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM orders WHERE id=$1)`, o.ID,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrConflict
	}
	o.Version++
	return nil
}

func (r *PGRepo) MarkPaid(ctx context.Context, o *Order) error {
	return r.guarded(ctx, o, `
    UPDATE orders
    SET is_paid = $3, paid_at = $4, payment_result = NULLIF($5,''),
        version = version + 1, updated_at = NOW()
    WHERE id = $1 AND version = $2
  `, o.IsPaid, o.PaidAt, o.PaymentResult)
}

func (r *PGRepo) MarkDelivered(ctx context.Context, o *Order) error {
	return r.guarded(ctx, o, `
    UPDATE orders
    SET is_delivered = $3, delivered_at = $4, status = $5,
        version = version + 1, updated_at = NOW()
    WHERE id = $1 AND version = $2
  `, o.IsDelivered, o.DeliveredAt, o.Status)
}

func (r *PGRepo) UpdateStatus(ctx context.Context, o *Order) error {
	return r.guarded(ctx, o, `
    UPDATE orders
    SET status = $3, version = version + 1, updated_at = NOW()
    WHERE id = $1 AND version = $2
  `, o.Status)
}

func (r *PGRepo) SetTracking(ctx context.Context, o *Order) error {
	return r.guarded(ctx, o, `
    UPDATE orders
    SET tracking_number = NULLIF($3,''), tracking_company = NULLIF($4,''),
        version = version + 1, updated_at = NOW()
    WHERE id = $1 AND version = $2
  `, o.TrackingNumber, o.TrackingCompany)
}

func (r *PGRepo) SetRefund(ctx context.Context, o *Order) error {
	return r.guarded(ctx, o, `
    UPDATE orders
    SET refund_amount = $3::numeric, refund_reason = NULLIF($4,''), refunded_at = $5,
        status = $6, version = version + 1, updated_at = NOW()
    WHERE id = $1 AND version = $2
  `, o.RefundAmount, o.RefundReason, o.RefundedAt, o.Status)
}

func (r *PGRepo) SetInvoiceNumber(ctx context.Context, o *Order) error {
	return r.guarded(ctx, o, `
    UPDATE orders
    SET invoice_number = $3, version = version + 1, updated_at = NOW()
    WHERE id = $1 AND version = $2
  `, o.InvoiceNumber)
}
