package matchcore

import (
	"container/list"

	"github.com/tidwall/btree"
)

// Reporter receives a side-channel notification for every trade and every
// terminal rejection MatchCore produces. It never affects matching
// semantics; a nil Reporter is a valid, no-op default. Adapted from the
// teacher's engine.Engine.Trade/Server.ReportTrade split: the book itself
// stays free of metrics concerns and hands them to whatever is wired in
// (internal/metrics.Collector in cmd/matchengine).
type Reporter interface {
	OnTrade(Trade)
	OnReject(order Order, err error)
}

// NopReporter discards everything. It is the default when New is called
// without WithReporter.
type NopReporter struct{}

func (NopReporter) OnTrade(Trade)         {}
func (NopReporter) OnReject(Order, error) {}

type indexEntry struct {
	side Side
	elem *list.Element
}

// MatchCore is a single-instrument limit order book. Every exported method
// is synchronous and runs to completion; MatchCore performs no internal
// locking and assumes exactly one logical writer (see the distilled spec's
// concurrency model).
type MatchCore struct {
	bids *btree.BTreeG[*priceLevel] // compares greater-price-first: Min() is the best bid
	asks *btree.BTreeG[*priceLevel] // compares lesser-price-first: Min() is the best ask

	index map[OrderID]*indexEntry

	reporter Reporter
}

// Option configures a MatchCore at construction time.
type Option func(*MatchCore)

// WithReporter attaches a Reporter for trade/rejection notifications.
func WithReporter(r Reporter) Option {
	return func(mc *MatchCore) { mc.reporter = r }
}

// New constructs an empty book.
func New(opts ...Option) *MatchCore {
	mc := &MatchCore{
		bids:     btree.NewBTreeG(func(a, b *priceLevel) bool { return a.price > b.price }),
		asks:     btree.NewBTreeG(func(a, b *priceLevel) bool { return a.price < b.price }),
		index:    make(map[OrderID]*indexEntry),
		reporter: NopReporter{},
	}
	for _, opt := range opts {
		opt(mc)
	}
	return mc
}

func (mc *MatchCore) levelsFor(side Side) *btree.BTreeG[*priceLevel] {
	if side == Buy {
		return mc.bids
	}
	return mc.asks
}

// canMatch implements the distilled spec's matchability predicate exactly:
// Buy is marketable against a non-empty ask book whose best price is at or
// below the incoming price; Sell is the mirror image.
func (mc *MatchCore) canMatch(price Price, side Side) bool {
	switch side {
	case Buy:
		best, ok := mc.asks.Min()
		return ok && price >= best.price
	case Sell:
		best, ok := mc.bids.Min()
		return ok && price <= best.price
	}
	return false
}

// Submit admits a new order and immediately runs the matching pass.
//
// It rejects with ErrDuplicateOrderID if order.ID is already resting. An
// FAK order that is not immediately marketable is rejected with
// ErrNotMarketable and never touches book state. Otherwise the order is
// inserted, matchPass runs, and — only for the order just submitted, never
// for any other resting order — an FAK order still resident afterwards is
// cancelled (the distilled spec's resolution of the source's over-eager
// "sweep front of book" ambiguity).
func (mc *MatchCore) Submit(order Order) ([]Trade, error) {
	if _, exists := mc.index[order.ID]; exists {
		if mc.reporter != nil {
			mc.reporter.OnReject(order, ErrDuplicateOrderID)
		}
		return nil, ErrDuplicateOrderID
	}

	if order.Type == FAK && !mc.canMatch(order.Price, order.Side) {
		if mc.reporter != nil {
			mc.reporter.OnReject(order, ErrNotMarketable)
		}
		return nil, ErrNotMarketable
	}

	mc.insert(order)
	trades := mc.matchPass(order.Side)

	if order.Type == FAK {
		if _, stillResting := mc.index[order.ID]; stillResting {
			// Cancel can only fail with ErrNotFound, which cannot happen
			// here: we just confirmed the id is resident.
			_ = mc.Cancel(order.ID)
		}
	}

	if mc.reporter != nil {
		for _, t := range trades {
			mc.reporter.OnTrade(t)
		}
	}
	return trades, nil
}

func (mc *MatchCore) insert(order Order) {
	levels := mc.levelsFor(order.Side)
	level, ok := levels.Get(&priceLevel{price: order.Price})
	if !ok {
		level = newPriceLevel(order.Price)
		levels.Set(level)
	}

	stored := order
	elem := level.pushBack(&stored)
	mc.index[order.ID] = &indexEntry{side: order.Side, elem: elem}
}

// Cancel removes a resting order, dropping its level if it becomes empty.
// It never emits trades.
func (mc *MatchCore) Cancel(id OrderID) error {
	entry, ok := mc.index[id]
	if !ok {
		return ErrNotFound
	}

	order := entry.elem.Value.(*Order)
	levels := mc.levelsFor(entry.side)
	level, ok := levels.Get(&priceLevel{price: order.Price})
	if !ok {
		// Index and book disagree: an invariant from §3 has been violated.
		panic("matchcore: index entry points at a price with no level")
	}

	level.removeElement(entry.elem)
	delete(mc.index, id)

	if level.empty() {
		levels.Delete(level)
	}
	return nil
}

// Modify is equivalent to Cancel(modification.OrderID) followed by Submit
// of a new order that inherits OrderID and OrderType but takes the
// modification's Side/Price/Quantity. Time priority is intentionally lost.
// If the order is not found, Modify returns an empty trade list and makes
// no state change — it does not return ErrNotFound, matching the
// distilled spec's literal description of Modify's contract.
func (mc *MatchCore) Modify(mod Modification) ([]Trade, error) {
	entry, ok := mc.index[mod.OrderID]
	if !ok {
		return nil, nil
	}
	orderType := entry.elem.Value.(*Order).Type

	if err := mc.Cancel(mod.OrderID); err != nil {
		return nil, nil
	}

	return mc.Submit(Order{
		ID:                mod.OrderID,
		Side:              mod.Side,
		Price:             mod.Price,
		Type:              orderType,
		InitialQuantity:   mod.Quantity,
		RemainingQuantity: mod.Quantity,
	})
}

// matchPass drains crossed liquidity in strict price/time priority,
// emitting one Trade per match. Observers never see a crossed book or an
// order with RemainingQuantity == 0 still linked in the index: the whole
// pass runs to completion inside this call before Submit returns.
//
// aggressor is the side of the order that was just inserted and triggered
// this pass. Every trade in the pass executes at the resting (opposite)
// side's best price, never the aggressor's own limit: a marketable buy
// takes the offer it crosses, not its own bid, and symmetrically for a
// marketable sell. This is the price-improvement rule — an aggressor that
// posted a better price than necessary still only pays/receives what the
// book was actually offering.
func (mc *MatchCore) matchPass(aggressor Side) []Trade {
	var trades []Trade

	for {
		bestBid, hasBid := mc.bids.Min()
		bestAsk, hasAsk := mc.asks.Min()
		if !hasBid || !hasAsk || bestBid.price < bestAsk.price {
			break
		}

		execPrice := bestAsk.price
		if aggressor == Sell {
			execPrice = bestBid.price
		}

		for !bestBid.empty() && !bestAsk.empty() {
			bidElem := bestBid.frontElement()
			askElem := bestAsk.frontElement()
			b := bidElem.Value.(*Order)
			a := askElem.Value.(*Order)

			qty := b.RemainingQuantity
			if a.RemainingQuantity < qty {
				qty = a.RemainingQuantity
			}
			b.RemainingQuantity -= qty
			a.RemainingQuantity -= qty

			trades = append(trades, Trade{
				Bid: TradeLeg{OrderID: b.ID, Price: execPrice, Quantity: qty},
				Ask: TradeLeg{OrderID: a.ID, Price: execPrice, Quantity: qty},
			})

			if b.RemainingQuantity == 0 {
				bestBid.removeElement(bidElem)
				delete(mc.index, b.ID)
			}
			if a.RemainingQuantity == 0 {
				bestAsk.removeElement(askElem)
				delete(mc.index, a.ID)
			}
		}

		if bestBid.empty() {
			mc.bids.Delete(bestBid)
		}
		if bestAsk.empty() {
			mc.asks.Delete(bestAsk)
		}
	}

	return trades
}

// BestBidAsk returns the current best bid and ask prices. ok is false if
// either side is empty.
func (mc *MatchCore) BestBidAsk() (bid, ask Price, ok bool) {
	bestBid, hasBid := mc.bids.Min()
	bestAsk, hasAsk := mc.asks.Min()
	if !hasBid || !hasAsk {
		return 0, 0, false
	}
	return bestBid.price, bestAsk.price, true
}

// DepthAt returns the aggregate remaining quantity resting at price, on
// whichever side holds it (zero if neither does).
func (mc *MatchCore) DepthAt(price Price) Quantity {
	var total Quantity
	if level, ok := mc.bids.Get(&priceLevel{price: price}); ok {
		total += level.totalRemaining()
	}
	if level, ok := mc.asks.Get(&priceLevel{price: price}); ok {
		total += level.totalRemaining()
	}
	return total
}

// Size returns the number of resting orders across both sides.
func (mc *MatchCore) Size() int {
	return len(mc.index)
}

// Exists reports whether id is currently resting in the book.
func (mc *MatchCore) Exists(id OrderID) bool {
	_, ok := mc.index[id]
	return ok
}

// Snapshot returns a flattened, non-aliasing view of every occupied price
// level, bids descending and asks ascending.
func (mc *MatchCore) Snapshot() LevelInfoView {
	view := LevelInfoView{}
	mc.bids.Scan(func(level *priceLevel) bool {
		view.Bids = append(view.Bids, LevelInfo{Price: level.price, Quantity: level.totalRemaining()})
		return true
	})
	mc.asks.Scan(func(level *priceLevel) bool {
		view.Asks = append(view.Asks, LevelInfo{Price: level.price, Quantity: level.totalRemaining()})
		return true
	})
	return view
}
