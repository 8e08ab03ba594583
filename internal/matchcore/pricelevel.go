package matchcore

import "container/list"

// priceLevel is the FIFO queue of resting orders sharing a price. Every
// order it holds has non-zero RemainingQuantity; zero-remaining orders are
// removed from the level (and from the book's index) the instant they
// fill, so a level is never exposed to a caller holding a filled order.
//
// The queue is a container/list rather than a slice so that removal by
// handle (used by Cancel) is O(1): the book's index keeps the *list.Element
// returned by pushBack, and hands it straight to list.Remove.
type priceLevel struct {
	price  Price
	orders *list.List
}

func newPriceLevel(price Price) *priceLevel {
	return &priceLevel{price: price, orders: list.New()}
}

func (l *priceLevel) empty() bool {
	return l.orders.Len() == 0
}

func (l *priceLevel) pushBack(o *Order) *list.Element {
	return l.orders.PushBack(o)
}

func (l *priceLevel) frontElement() *list.Element {
	return l.orders.Front()
}

func (l *priceLevel) removeElement(e *list.Element) {
	l.orders.Remove(e)
}

// totalRemaining sums RemainingQuantity across every order at this level.
func (l *priceLevel) totalRemaining() Quantity {
	var total Quantity
	for e := l.orders.Front(); e != nil; e = e.Next() {
		total += e.Value.(*Order).RemainingQuantity
	}
	return total
}
