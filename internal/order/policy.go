package order

// Policy concentrates the asymmetric cancel/refund rules so the service never
// re-derives them inline.
type Policy struct{}

// CanCancel refuses delivered and already-terminal orders. The reason string
// is surfaced verbatim to the caller.
func (Policy) CanCancel(o *Order) (bool, string) {
	switch o.Status {
	case StatusDelivered:
		return false, "cannot cancel a delivered order"
	case StatusCancelled:
		return false, "order is already cancelled"
	case StatusRefunded:
		return false, "order is already refunded"
	}
	return true, ""
}

// MustRestoreStockOnCancel reports whether a cancel has to put the order's
// quantities back in the ledger. Stock is reserved at creation no matter the
// payment state, so every cancellable order holds a live reservation and the
// answer is yes for all of them. (The upstream rule restored only when
// isPaid || processing || shipped, which leaked the reservation of an unpaid
// pending order.)
func (Policy) MustRestoreStockOnCancel(o *Order) bool {
	return true
}

// CanRefund has no precondition: a refund is accepted from any status,
// delivered and never-paid included. Deliberate business rule, not an
// oversight.
func (Policy) CanRefund(o *Order) bool {
	return true
}
