package checkout

import "errors"

var (
	ErrEmptyCart    = errors.New("cart is empty, nothing to checkout")
	ErrAuthRequired = errors.New("sign in to complete your booking")

	// ErrNotPaid means the processor reports the session as unpaid; hitting
	// the success callback without paying lands here, never on an order.
	ErrNotPaid = errors.New("payment has not been completed")

	// ErrOrderIntegrity marks an order that exists without its bookings.
	// There is no automatic rollback; an operator has to reconcile it.
	ErrOrderIntegrity = errors.New("order was created but its bookings were not")

	IllegalTransitionError = errors.New("illegal transition of checkout status")
)
