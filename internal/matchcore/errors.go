package matchcore

import "errors"

var (
	// ErrDuplicateOrderID is returned by Submit when order.ID is already
	// resting in the book. The order is rejected; no state change occurs.
	ErrDuplicateOrderID = errors.New("matchcore: duplicate order id")

	// ErrNotMarketable is returned by Submit for an FAK order that cannot
	// match immediately. The order is rejected; no state change occurs.
	ErrNotMarketable = errors.New("matchcore: order not marketable")

	// ErrNotFound is returned by Cancel when order.ID is not resting.
	ErrNotFound = errors.New("matchcore: order not found")
)
