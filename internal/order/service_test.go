package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/mercadia/ordenes-admin/internal/cart"
	"github.com/mercadia/ordenes-admin/internal/inventory"
	"github.com/mercadia/ordenes-admin/internal/product"
)

//
// ===== STUBS EN MEMORIA =====
//

// memLedger implements inventory.Ledger with the same check-then-decrement
// contract as the SQL version.
type memLedger struct {
	stock map[string]int
}

func (m *memLedger) Reserve(ctx context.Context, productID string, qty int) error {
	s, ok := m.stock[productID]
	if !ok {
		return fmt.Errorf("product %s: %w", productID, inventory.ErrNotFound)
	}
	if s < qty {
		return fmt.Errorf("product %s: %w", productID, inventory.ErrOutOfStock)
	}
	m.stock[productID] = s - qty
	return nil
}

func (m *memLedger) Release(ctx context.Context, productID string, qty int) error {
	if _, ok := m.stock[productID]; !ok {
		return fmt.Errorf("product %s: %w", productID, inventory.ErrNotFound)
	}
	m.stock[productID] += qty
	return nil
}

type memProducts struct {
	items map[string]*product.Product
}

func (m *memProducts) GetByID(ctx context.Context, id string) (*product.Product, error) {
	p, ok := m.items[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) Create(ctx context.Context, p *product.Product) error { return nil }
func (m *memProducts) List(ctx context.Context, q product.Query) ([]product.Product, error) {
	return nil, nil
}
func (m *memProducts) Update(ctx context.Context, p *product.Product, updatePrice bool) error {
	return nil
}
func (m *memProducts) Delete(ctx context.Context, id string) (bool, error) { return false, nil }

type memCarts struct {
	cleared []string
	fail    bool
}

func (m *memCarts) FindByUser(ctx context.Context, userID string) (*cart.Cart, error) {
	return nil, cart.ErrNotFound
}

func (m *memCarts) Clear(ctx context.Context, userID string) error {
	if m.fail {
		return errors.New("cart store down")
	}
	m.cleared = append(m.cleared, userID)
	return nil
}

// memRepo implements Repository with the same version-guard semantics as the
// pgx one: a stale Version yields ErrConflict.
type memRepo struct {
	orders map[string]*Order
	items  map[string][]Item
}

func newMemRepo() *memRepo {
	return &memRepo{orders: map[string]*Order{}, items: map[string][]Item{}}
}

func (m *memRepo) Create(ctx context.Context, o *Order, items []Item) error {
	cp := *o
	cp.Version = 1
	m.orders[o.ID] = &cp
	m.items[o.ID] = append([]Item(nil), items...)
	o.Version = 1
	return nil
}

func (m *memRepo) GetByID(ctx context.Context, id string) (*Order, []Item, error) {
	cur, ok := m.orders[id]
	if !ok {
		return nil, nil, ErrNotFound
	}
	cp := *cur
	return &cp, append([]Item(nil), m.items[id]...), nil
}

func (m *memRepo) GetItems(ctx context.Context, orderID string) ([]Item, error) {
	if _, ok := m.orders[orderID]; !ok {
		return nil, ErrNotFound
	}
	return append([]Item(nil), m.items[orderID]...), nil
}

func (m *memRepo) List(ctx context.Context, limit, offset int) ([]Order, error) {
	var out []Order
	for _, o := range m.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (m *memRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error) {
	var out []Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memRepo) apply(o *Order) error {
	cur, ok := m.orders[o.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != o.Version {
		return ErrConflict
	}
	cp := *o
	cp.Version++
	m.orders[o.ID] = &cp
	o.Version++
	return nil
}

func (m *memRepo) MarkPaid(ctx context.Context, o *Order) error         { return m.apply(o) }
func (m *memRepo) MarkDelivered(ctx context.Context, o *Order) error    { return m.apply(o) }
func (m *memRepo) UpdateStatus(ctx context.Context, o *Order) error     { return m.apply(o) }
func (m *memRepo) SetTracking(ctx context.Context, o *Order) error      { return m.apply(o) }
func (m *memRepo) SetRefund(ctx context.Context, o *Order) error        { return m.apply(o) }
func (m *memRepo) SetInvoiceNumber(ctx context.Context, o *Order) error { return m.apply(o) }

type fixture struct {
	svc    *Service
	repo   *memRepo
	ledger *memLedger
	carts  *memCarts
}

func newFixture(stock map[string]int, prices map[string]string) *fixture {
	products := &memProducts{items: map[string]*product.Product{}}
	for id := range stock {
		price := "10.00"
		if p, ok := prices[id]; ok {
			price = p
		}
		products.items[id] = &product.Product{ID: id, Name: "Prod " + id, Price: price, Stock: stock[id]}
	}
	repo := newMemRepo()
	ledger := &memLedger{stock: stock}
	carts := &memCarts{}
	return &fixture{
		svc:    NewService(repo, ledger, products, carts),
		repo:   repo,
		ledger: ledger,
		carts:  carts,
	}
}

func mustCreate(t *testing.T, f *fixture, userID string, items ...CreateOrderItem) *Order {
	t.Helper()
	o, _, err := f.svc.Create(context.Background(), CreateOrderRequest{
		UserID:        userID,
		Items:         items,
		PaymentMethod: "card",
		ItemsPrice:    "30.00",
		ShippingPrice: "5.00",
		TaxPrice:      "3.50",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return o
}

//
// ===== TESTS =====
//

func TestCreate_ReservesStockAndClearsCart(t *testing.T) {
	f := newFixture(map[string]int{"p1": 5}, map[string]string{"p1": "15.00"})

	o := mustCreate(t, f, "u1", CreateOrderItem{ProductID: "p1", Quantity: 3})

	if o.Status != StatusPending {
		t.Fatalf("status=%s, esperado=pending", o.Status)
	}
	if f.ledger.stock["p1"] != 2 {
		t.Fatalf("stock=%d, esperado=2", f.ledger.stock["p1"])
	}
	if o.TotalPrice != "38.50" {
		t.Fatalf("total=%s, esperado=38.50", o.TotalPrice)
	}
	if len(f.carts.cleared) != 1 || f.carts.cleared[0] != "u1" {
		t.Fatalf("cart no fue limpiado: %v", f.carts.cleared)
	}
	// the line item keeps the price snapshot
	items, _ := f.repo.GetItems(context.Background(), o.ID)
	if len(items) != 1 || items[0].Price != "15.00" || items[0].Quantity != 3 {
		t.Fatalf("items inesperados: %+v", items)
	}
}

func TestCreate_InsufficientStock_NoPartialReservation(t *testing.T) {
	f := newFixture(map[string]int{"p1": 5, "p2": 1}, nil)

	_, _, err := f.svc.Create(context.Background(), CreateOrderRequest{
		UserID: "u1",
		Items: []CreateOrderItem{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "p2", Quantity: 2}, // short by one
		},
	})
	if !errors.Is(err, inventory.ErrOutOfStock) {
		t.Fatalf("esperaba ErrOutOfStock, got %v", err)
	}
	if !strings.Contains(err.Error(), "Prod p2") {
		t.Fatalf("el error debe nombrar el producto: %v", err)
	}
	// the reservation of p1 must have been rolled back
	if f.ledger.stock["p1"] != 5 || f.ledger.stock["p2"] != 1 {
		t.Fatalf("stock filtrado: p1=%d p2=%d", f.ledger.stock["p1"], f.ledger.stock["p2"])
	}
	if len(f.repo.orders) != 0 {
		t.Fatalf("no debió persistirse ninguna orden")
	}
}

func TestCreate_MissingProduct(t *testing.T) {
	f := newFixture(map[string]int{"p1": 5}, nil)

	_, _, err := f.svc.Create(context.Background(), CreateOrderRequest{
		UserID: "u1",
		Items:  []CreateOrderItem{{ProductID: "nope", Quantity: 1}},
	})
	if !errors.Is(err, product.ErrNotFound) {
		t.Fatalf("esperaba product.ErrNotFound, got %v", err)
	}
	if f.ledger.stock["p1"] != 5 {
		t.Fatalf("stock no debía cambiar")
	}
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(map[string]int{"p1": 5}, nil)
	ctx := context.Background()

	cases := []CreateOrderRequest{
		{Items: []CreateOrderItem{{ProductID: "p1", Quantity: 1}}}, // sin user
		{UserID: "u1"}, // sin items
		{UserID: "u1", Items: []CreateOrderItem{{ProductID: "p1"}}},               // qty 0
		{UserID: "u1", Items: []CreateOrderItem{{ProductID: "p1", Quantity: -1}}}, // qty negativa
		{UserID: "u1", Items: []CreateOrderItem{{ProductID: "p1", Quantity: 1}}, ItemsPrice: "abc"},
	}
	for i, req := range cases {
		if _, _, err := f.svc.Create(ctx, req); !errors.Is(err, ErrValidation) {
			t.Fatalf("caso %d: esperaba ErrValidation, got %v", i, err)
		}
	}
}

func TestCancel_UnpaidPending_RestoresStock(t *testing.T) {
	// stock 8, qty 2 -> 6 tras crear; cancelar sin pagar debe volver a 8
	f := newFixture(map[string]int{"p1": 8}, nil)
	o := mustCreate(t, f, "u1", CreateOrderItem{ProductID: "p1", Quantity: 2})
	if f.ledger.stock["p1"] != 6 {
		t.Fatalf("stock post-create=%d, esperado=6", f.ledger.stock["p1"])
	}

	out, err := f.svc.Cancel(context.Background(), o.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if out.Status != StatusCancelled {
		t.Fatalf("status=%s", out.Status)
	}
	if f.ledger.stock["p1"] != 8 {
		t.Fatalf("stock=%d, esperado=8 (la reserva de creación debe liberarse)", f.ledger.stock["p1"])
	}
}

func TestCancel_Twice_RestoresOnce(t *testing.T) {
	f := newFixture(map[string]int{"p1": 5}, nil)
	o := mustCreate(t, f, "u1", CreateOrderItem{ProductID: "p1", Quantity: 3})

	if _, err := f.svc.Cancel(context.Background(), o.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if f.ledger.stock["p1"] != 5 {
		t.Fatalf("stock=%d, esperado=5", f.ledger.stock["p1"])
	}

	_, err := f.svc.Cancel(context.Background(), o.ID)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("esperaba ErrInvalidTransition, got %v", err)
	}
	if f.ledger.stock["p1"] != 5 {
		t.Fatalf("stock restaurado dos veces: %d", f.ledger.stock["p1"])
	}
}

func TestCancel_Delivered_Refused(t *testing.T) {
	f := newFixture(map[string]int{"p1": 5}, nil)
	o := mustCreate(t, f, "u1", CreateOrderItem{ProductID: "p1", Quantity: 2})

	if _, err := f.svc.MarkDelivered(context.Background(), o.ID); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	_, err := f.svc.Cancel(context.Background(), o.ID)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("esperaba ErrInvalidTransition, got %v", err)
	}
	if f.ledger.stock["p1"] != 3 {
		t.Fatalf("stock=%d, no debía cambiar", f.ledger.stock["p1"])
	}
}

func TestScenario_PaidThenCancel(t *testing.T) {
	// stock=5; crear qty=3 -> stock=2, pending. MarkPaid. Cancel -> stock=5.
	f := newFixture(map[string]int{"p1": 5}, nil)
	o := mustCreate(t, f, "u1", CreateOrderItem{ProductID: "p1", Quantity: 3})
	if f.ledger.stock["p1"] != 2 {
		t.Fatalf("stock=%d, esperado=2", f.ledger.stock["p1"])
	}

	paid, err := f.svc.MarkPaid(context.Background(), o.ID, "")
	if err != nil || !paid.IsPaid {
		t.Fatalf("markpaid: %v paid=%v", err, paid.IsPaid)
	}
	out, err := f.svc.Cancel(context.Background(), o.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if out.Status != StatusCancelled || f.ledger.stock["p1"] != 5 {
		t.Fatalf("status=%s stock=%d", out.Status, f.ledger.stock["p1"])
	}
}

func TestRefund_DeliveredOrder_RestoresRecordedQuantities(t *testing.T) {
	f := newFixture(map[string]int{"p1": 10}, nil)
	o := mustCreate(t, f, "u1", CreateOrderItem{ProductID: "p1", Quantity: 4})
	if _, err := f.svc.MarkDelivered(context.Background(), o.ID); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	out, err := f.svc.Refund(context.Background(), o.ID, "", "damaged")
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if out.Status != StatusRefunded {
		t.Fatalf("status=%s", out.Status)
	}
	if out.RefundAmount != o.TotalPrice {
		t.Fatalf("refund=%s, esperado total=%s", out.RefundAmount, o.TotalPrice)
	}
	if out.RefundReason != "damaged" || out.RefundedAt == nil {
		t.Fatalf("refund fields: %+v", out)
	}
	if f.ledger.stock["p1"] != 10 {
		t.Fatalf("stock=%d, esperado=10", f.ledger.stock["p1"])
	}
}

func TestRefund_NeverPaidOrder_Permitted(t *testing.T) {
	// deliberate rule: refund has no precondition
	f := newFixture(map[string]int{"p1": 5}, nil)
	o := mustCreate(t, f, "u1", CreateOrderItem{ProductID: "p1", Quantity: 1})

	out, err := f.svc.Refund(context.Background(), o.ID, "2.00", "")
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if out.RefundAmount != "2.00" || out.Status != StatusRefunded {
		t.Fatalf("refund=%s status=%s", out.RefundAmount, out.Status)
	}
	if f.ledger.stock["p1"] != 5 {
		t.Fatalf("stock=%d, esperado=5", f.ledger.stock["p1"])
	}
}

func TestRefund_InvalidAmount(t *testing.T) {
	f := newFixture(map[string]int{"p1": 5}, nil)
	o := mustCreate(t, f, "u1", CreateOrderItem{ProductID: "p1", Quantity: 1})

	if _, err := f.svc.Refund(context.Background(), o.ID, "not-money", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("esperaba ErrValidation, got %v", err)
	}
}

func TestMarkPaid_SetOnce(t *testing.T) {
	f := newFixture(map[string]int{"p1": 5}, nil)
	o := mustCreate(t, f, "u1", CreateOrderItem{ProductID: "p1", Quantity: 1})

	first, err := f.svc.MarkPaid(context.Background(), o.ID, "ch_1")
	if err != nil {
		t.Fatalf("markpaid: %v", err)
	}
	second, err := f.svc.MarkPaid(context.Background(), o.ID, "")
	if err != nil {
		t.Fatalf("markpaid 2: %v", err)
	}
	if !second.PaidAt.Equal(*first.PaidAt) {
		t.Fatalf("paidAt cambió: %v vs %v", first.PaidAt, second.PaidAt)
	}
	if second.PaymentResult != "ch_1" {
		t.Fatalf("payment result perdido: %q", second.PaymentResult)
	}
}

func TestMarkPaid_TerminalOrder_Refused(t *testing.T) {
	f := newFixture(map[string]int{"p1": 5}, nil)
	o := mustCreate(t, f, "u1", CreateOrderItem{ProductID: "p1", Quantity: 1})
	if _, err := f.svc.Cancel(context.Background(), o.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if _, err := f.svc.MarkPaid(context.Background(), o.ID, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("esperaba ErrInvalidTransition, got %v", err)
	}
}

func TestMarkDelivered_SetsFlagsAndStatus(t *testing.T) {
	f := newFixture(map[string]int{"p1": 5}, nil)
	o := mustCreate(t, f, "u1", CreateOrderItem{ProductID: "p1", Quantity: 1})

	out, err := f.svc.MarkDelivered(context.Background(), o.ID)
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if !out.IsDelivered || out.DeliveredAt == nil || out.Status != StatusDelivered {
		t.Fatalf("delivered fields: %+v", out)
	}
}

func TestSetStatus_InvalidAndTerminal(t *testing.T) {
	f := newFixture(map[string]int{"p1": 5}, nil)
	o := mustCreate(t, f, "u1", CreateOrderItem{ProductID: "p1", Quantity: 1})

	if _, err := f.svc.SetStatus(context.Background(), o.ID, "wtf"); !errors.Is(err, ErrValidation) {
		t.Fatalf("esperaba ErrValidation, got %v", err)
	}
	if _, err := f.svc.SetStatus(context.Background(), o.ID, StatusProcessing); err != nil {
		t.Fatalf("setstatus: %v", err)
	}
	if _, err := f.svc.Cancel(context.Background(), o.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := f.svc.SetStatus(context.Background(), o.ID, StatusPending); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("terminal lock no aplicado: %v", err)
	}
}

func TestAttachTracking_AnyState(t *testing.T) {
	f := newFixture(map[string]int{"p1": 5}, nil)
	o := mustCreate(t, f, "u1", CreateOrderItem{ProductID: "p1", Quantity: 1})
	if _, err := f.svc.Cancel(context.Background(), o.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	out, err := f.svc.AttachTracking(context.Background(), o.ID, "1Z999", "UPS")
	if err != nil {
		t.Fatalf("tracking: %v", err)
	}
	if out.TrackingNumber != "1Z999" || out.TrackingCompany != "UPS" {
		t.Fatalf("tracking fields: %+v", out)
	}
}

func TestEnsureInvoiceNumber_Idempotent(t *testing.T) {
	f := newFixture(map[string]int{"p1": 5}, nil)
	o := mustCreate(t, f, "u1", CreateOrderItem{ProductID: "p1", Quantity: 1})

	first, err := f.svc.EnsureInvoiceNumber(context.Background(), o.ID)
	if err != nil {
		t.Fatalf("invoice: %v", err)
	}
	if !strings.HasPrefix(first.InvoiceNumber, "INV-") {
		t.Fatalf("formato inválido: %q", first.InvoiceNumber)
	}
	if !strings.HasSuffix(first.InvoiceNumber, o.ID[len(o.ID)-6:]) {
		t.Fatalf("el sufijo debe ser los últimos 6 del id: %q", first.InvoiceNumber)
	}

	second, err := f.svc.EnsureInvoiceNumber(context.Background(), o.ID)
	if err != nil {
		t.Fatalf("invoice 2: %v", err)
	}
	if second.InvoiceNumber != first.InvoiceNumber {
		t.Fatalf("no idempotente: %q vs %q", first.InvoiceNumber, second.InvoiceNumber)
	}
}

func TestCreate_CartFailureDoesNotFailOrder(t *testing.T) {
	f := newFixture(map[string]int{"p1": 5}, nil)
	f.carts.fail = true

	o := mustCreate(t, f, "u1", CreateOrderItem{ProductID: "p1", Quantity: 1})
	if o.Status != StatusPending {
		t.Fatalf("status=%s", o.Status)
	}
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture(map[string]int{}, nil)
	if _, _, err := f.svc.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("esperaba ErrNotFound, got %v", err)
	}
}
