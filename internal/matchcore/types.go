// Package matchcore implements the price/time-priority continuous
// double-auction matcher: add/cancel/modify of GTC and FAK limit orders,
// and trade generation.
package matchcore

import "fmt"

// Price is an integer tick. Zero is reserved for "unset".
type Price int64

// Quantity is an integer unit.
type Quantity uint64

// OrderID uniquely identifies an order within one MatchCore instance.
type OrderID uint64

// Side is which side of the book an order rests on.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "Buy"
	}
	return "Sell"
}

// OrderType selects an order's time-in-force behaviour.
type OrderType int

const (
	// GTC orders rest until filled or explicitly cancelled.
	GTC OrderType = iota
	// FAK orders match whatever they can immediately; any residue is
	// cancelled within the same Submit call.
	FAK
)

func (t OrderType) String() string {
	if t == GTC {
		return "GTC"
	}
	return "FAK"
}

// Order is admitted on Submit and mutated only by the matching loop or by
// an accepted Modify (which re-admits it under the same id).
type Order struct {
	ID                OrderID
	Side              Side
	Price             Price
	Type              OrderType
	InitialQuantity   Quantity
	RemainingQuantity Quantity
}

// Filled reports how much of the order has matched so far.
func (o *Order) Filled() Quantity {
	return o.InitialQuantity - o.RemainingQuantity
}

// IsFilled reports whether the order has no remaining quantity.
func (o *Order) IsFilled() bool {
	return o.RemainingQuantity == 0
}

func (o *Order) String() string {
	return fmt.Sprintf("{id: %d, side: %v, price: %d, type: %v, remaining: %d/%d}",
		o.ID, o.Side, o.Price, o.Type, o.RemainingQuantity, o.InitialQuantity)
}

// Modification describes an accepted change to a resting order. A modify is
// equivalent to Cancel(OrderID) followed by Submit of a new order that
// inherits OrderID and OrderType but takes the new Side/Price/Quantity —
// time priority is intentionally lost.
type Modification struct {
	OrderID  OrderID
	Side     Side
	Price    Price
	Quantity Quantity
}

// TradeLeg is one side of an executed trade. Both legs of a Trade carry the
// same Price: the resting (non-aggressor) side's best price, never the
// aggressor's own limit — see matchPass.
type TradeLeg struct {
	OrderID  OrderID
	Price    Price
	Quantity Quantity
}

// Trade is emitted once per match between a resting bid and a resting ask.
// The order ids are fixed to the orders being filled in that trade, taken
// before either side's remaining quantity is mutated — this resolves the
// distilled spec's flagged ambiguity about reporting an id after a level
// has already been popped.
type Trade struct {
	Bid TradeLeg
	Ask TradeLeg
}

// LevelInfo is one flattened (price, aggregate remaining quantity) pair.
type LevelInfo struct {
	Price    Price
	Quantity Quantity
}

// LevelInfoView is a point-in-time, non-aliasing projection of the book.
type LevelInfoView struct {
	Bids []LevelInfo // descending by price
	Asks []LevelInfo // ascending by price
}
