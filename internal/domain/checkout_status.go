package domain

type FlowStatus string

const (
	FlowStatusCartBuilding      FlowStatus = "CART_BUILDING"
	FlowStatusCheckoutRequested FlowStatus = "CHECKOUT_REQUESTED"
	FlowStatusAwaitingPayment   FlowStatus = "AWAITING_PAYMENT"
	FlowStatusPaymentVerified   FlowStatus = "PAYMENT_VERIFIED"
	FlowStatusOrderMaterialized FlowStatus = "ORDER_MATERIALIZED"
	FlowStatusAbandoned         FlowStatus = "ABANDONED"
	FlowStatusFailed            FlowStatus = "FAILED"
)

var flowTransitions = map[FlowStatus][]FlowStatus{
	FlowStatusCartBuilding:      {FlowStatusCheckoutRequested, FlowStatusFailed},
	FlowStatusCheckoutRequested: {FlowStatusAwaitingPayment, FlowStatusFailed},
	FlowStatusAwaitingPayment:   {FlowStatusPaymentVerified, FlowStatusAbandoned, FlowStatusFailed},
	FlowStatusPaymentVerified:   {FlowStatusOrderMaterialized, FlowStatusFailed},

	// The processor's word outranks a stale local status: a flow swept to
	// ABANDONED or failed by a transient error revives once the session
	// is verified paid.
	FlowStatusAbandoned: {FlowStatusPaymentVerified},
	FlowStatusFailed:    {FlowStatusPaymentVerified},
}

// CanTransitionTo reports whether the checkout flow may move from one
// status to another.
func CanTransitionTo(from, to FlowStatus) bool {
	for _, allowed := range flowTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the flow makes no further progress on its
// own. ABANDONED and FAILED flows still revive if the processor later
// confirms payment.
func (s FlowStatus) IsTerminal() bool {
	return s == FlowStatusOrderMaterialized || s == FlowStatusAbandoned || s == FlowStatusFailed
}

// String representation (for logging)
func (s FlowStatus) String() string {
	return string(s)
}
