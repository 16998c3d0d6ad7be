package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mercadia/ordenes-admin/internal/cart"
	"github.com/mercadia/ordenes-admin/internal/inventory"
	"github.com/mercadia/ordenes-admin/internal/product"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrValidation        = errors.New("invalid request")
)

// Service is the order state machine. It owns every status/flag change of an
// order and drives the inventory ledger so reservations and releases always
// line up with the transitions that caused them.
type Service struct {
	repo     Repository
	ledger   inventory.Ledger
	products product.Repository
	carts    cart.Repository
	policy   Policy
}

func NewService(repo Repository, ledger inventory.Ledger, products product.Repository, carts cart.Repository) *Service {
	return &Service{repo: repo, ledger: ledger, products: products, carts: carts}
}

// Create reserves stock for every line item and persists the order in pending.
// Reservation is all-or-nothing: a failed reserve rolls back the ones already
// taken in this call, so a rejected order never leaves stock decremented.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest) (*Order, []Item, error) {
	if req.UserID == "" {
		return nil, nil, fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	if len(req.Items) == 0 {
		return nil, nil, fmt.Errorf("%w: items must not be empty", ErrValidation)
	}
	for _, it := range req.Items {
		if it.ProductID == "" {
			return nil, nil, fmt.Errorf("%w: item product_id is required", ErrValidation)
		}
		if it.Quantity <= 0 {
			return nil, nil, fmt.Errorf("%w: item quantity must be positive", ErrValidation)
		}
	}
	itemsPrice, err := parseMoney(req.ItemsPrice, "items_price")
	if err != nil {
		return nil, nil, err
	}
	shippingPrice, err := parseMoney(req.ShippingPrice, "shipping_price")
	if err != nil {
		return nil, nil, err
	}
	taxPrice, err := parseMoney(req.TaxPrice, "tax_price")
	if err != nil {
		return nil, nil, err
	}

	// Price/name snapshot before touching stock.
	snapshots := make([]*product.Product, len(req.Items))
	for i, it := range req.Items {
		p, err := s.products.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, nil, fmt.Errorf("product %s: %w", it.ProductID, product.ErrNotFound)
		}
		snapshots[i] = p
	}

	// Reserve optimistically; roll back earlier reservations on any failure.
	for i, it := range req.Items {
		if err := s.ledger.Reserve(ctx, it.ProductID, it.Quantity); err != nil {
			s.releaseItems(ctx, req.Items[:i])
			if errors.Is(err, inventory.ErrOutOfStock) {
				return nil, nil, fmt.Errorf("insufficient stock for %s: %w", snapshots[i].Name, inventory.ErrOutOfStock)
			}
			return nil, nil, err
		}
	}

	total := itemsPrice.Add(shippingPrice).Add(taxPrice)
	o := &Order{
		ID:              uuid.NewString(),
		UserID:          req.UserID,
		Status:          StatusPending,
		ItemsPrice:      itemsPrice.StringFixed(2),
		ShippingPrice:   shippingPrice.StringFixed(2),
		TaxPrice:        taxPrice.StringFixed(2),
		TotalPrice:      total.StringFixed(2),
		PaymentMethod:   req.PaymentMethod,
		ShippingAddress: req.ShippingAddress,
	}
	items := make([]Item, len(req.Items))
	for i, it := range req.Items {
		items[i] = Item{
			ID:          uuid.NewString(),
			OrderID:     o.ID,
			ProductID:   it.ProductID,
			ProductName: snapshots[i].Name,
			Quantity:    it.Quantity,
			Price:       snapshots[i].Price,
		}
	}

	if err := s.repo.Create(ctx, o, items); err != nil {
		s.releaseItems(ctx, req.Items)
		return nil, nil, err
	}

	// Best effort: the order is committed and reserved at this point, a cart
	// hiccup should not fail the request.
	if err := s.carts.Clear(ctx, req.UserID); err != nil {
		log.Printf("[order] clear cart user=%s: %v", req.UserID, err)
	}
	return o, items, nil
}

func (s *Service) releaseItems(ctx context.Context, items []CreateOrderItem) {
	for _, it := range items {
		if err := s.ledger.Release(ctx, it.ProductID, it.Quantity); err != nil {
			log.Printf("[order] rollback release product=%s qty=%d: %v", it.ProductID, it.Quantity, err)
		}
	}
}

// MarkPaid flips the payment flag without touching status. paidAt is set once;
// repeating the call keeps the original timestamp.
func (s *Service) MarkPaid(ctx context.Context, id, paymentResult string) (*Order, error) {
	o, _, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if IsTerminal(o.Status) {
		return nil, fmt.Errorf("%w: order is %s", ErrInvalidTransition, o.Status)
	}
	if !o.IsPaid {
		o.IsPaid = true
		now := time.Now().UTC()
		o.PaidAt = &now
	}
	if paymentResult != "" {
		o.PaymentResult = paymentResult
	}
	if err := s.repo.MarkPaid(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) MarkDelivered(ctx context.Context, id string) (*Order, error) {
	o, _, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if IsTerminal(o.Status) {
		return nil, fmt.Errorf("%w: order is %s", ErrInvalidTransition, o.Status)
	}
	now := time.Now().UTC()
	o.IsDelivered = true
	o.DeliveredAt = &now
	o.Status = StatusDelivered
	if err := s.repo.MarkDelivered(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// SetStatus is the administrative override: any of the six values, no
// source->target validation, but the terminal lock still applies.
func (s *Service) SetStatus(ctx context.Context, id, status string) (*Order, error) {
	if !ValidStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	o, _, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if IsTerminal(o.Status) {
		return nil, fmt.Errorf("%w: order is %s", ErrInvalidTransition, o.Status)
	}
	o.Status = status
	if err := s.repo.UpdateStatus(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Cancel moves the order to cancelled and returns its quantities to the
// ledger. The status change is claimed first (version guard), so a cancel
// racing another transition can never release stock twice.
func (s *Service) Cancel(ctx context.Context, id string) (*Order, error) {
	o, items, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ok, reason := s.policy.CanCancel(o); !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTransition, reason)
	}
	restore := s.policy.MustRestoreStockOnCancel(o)

	o.Status = StatusCancelled
	if err := s.repo.UpdateStatus(ctx, o); err != nil {
		return nil, err
	}
	if restore {
		if err := s.releaseOrderItems(ctx, items); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Refund has no precondition: any status, paid or not. It always restores the
// recorded line-item quantities and lands on refunded.
func (s *Service) Refund(ctx context.Context, id, amount, reason string) (*Order, error) {
	o, items, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanRefund(o) {
		return nil, fmt.Errorf("%w: refund not permitted", ErrInvalidTransition)
	}

	refund := o.TotalPrice
	if amount != "" {
		d, err := parseMoney(amount, "amount")
		if err != nil {
			return nil, err
		}
		refund = d.StringFixed(2)
	}
	now := time.Now().UTC()
	o.RefundAmount = refund
	o.RefundReason = reason
	o.RefundedAt = &now
	o.Status = StatusRefunded
	if err := s.repo.SetRefund(ctx, o); err != nil {
		return nil, err
	}
	if err := s.releaseOrderItems(ctx, items); err != nil {
		return nil, err
	}
	return o, nil
}

// releaseOrderItems restores exactly the quantities recorded on the order's
// line items, never the current request payload.
func (s *Service) releaseOrderItems(ctx context.Context, items []Item) error {
	for _, it := range items {
		if err := s.ledger.Release(ctx, it.ProductID, it.Quantity); err != nil {
			return fmt.Errorf("restore stock product=%s: %w", it.ProductID, err)
		}
	}
	return nil
}

// AttachTracking sets carrier info; legal in any state.
func (s *Service) AttachTracking(ctx context.Context, id, number, company string) (*Order, error) {
	o, _, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	o.TrackingNumber = number
	o.TrackingCompany = company
	if err := s.repo.SetTracking(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// EnsureInvoiceNumber generates the invoice number on first request and
// returns the stored one afterwards. Two concurrent first requests converge:
// the loser of the version race re-reads the winner's number.
func (s *Service) EnsureInvoiceNumber(ctx context.Context, id string) (*Order, error) {
	o, _, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.InvoiceNumber != "" {
		return o, nil
	}
	o.InvoiceNumber = invoiceNumber(o.ID, time.Now())
	if err := s.repo.SetInvoiceNumber(ctx, o); err != nil {
		if errors.Is(err, ErrConflict) {
			cur, _, err2 := s.repo.GetByID(ctx, id)
			if err2 == nil && cur.InvoiceNumber != "" {
				return cur, nil
			}
		}
		return nil, err
	}
	return o, nil
}

// invoiceNumber builds INV-<epoch_ms>-<last 6 chars of the order id>.
func invoiceNumber(orderID string, at time.Time) string {
	tail := orderID
	if len(tail) > 6 {
		tail = tail[len(tail)-6:]
	}
	return fmt.Sprintf("INV-%d-%s", at.UnixMilli(), tail)
}

func (s *Service) Get(ctx context.Context, id string) (*Order, []Item, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]Order, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func parseMoney(s, field string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s must be a decimal amount", ErrValidation, field)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s must not be negative", ErrValidation, field)
	}
	return d, nil
}
