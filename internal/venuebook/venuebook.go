// Package venuebook tracks a deterministic view of an external venue's L2
// order book, fed by two independent update streams (best-bid/ask ticker;
// incremental or partial depth snapshots), reconciled under a monotonic
// update-sequence invariant.
package venuebook

import (
	"errors"

	"github.com/tidwall/btree"
)

// Price and Quantity mirror matchcore's scalar types; VenueBook is an
// independent component (see package doc) and does not import matchcore.
type Price int64
type Quantity uint64

// SeqID is a venue-issued monotonically increasing update sequence number.
type SeqID uint64

// ErrStale is returned by ApplyDepth when upd.Seq is not newer than the
// book's last applied sequence. It is not an error for the caller — it is
// a no-op outcome, and the book is left unchanged.
var ErrStale = errors.New("venuebook: stale depth update")

// TickerUpdate is the decoded best-bid/ask payload. It carries no sequence
// number: the ticker and depth feeds run independently at the venue, so
// binding them to one sequence would cause spurious drops.
type TickerUpdate struct {
	BidPrice Price
	BidQty   Quantity
	AskPrice Price
	AskQty   Quantity
}

// DepthLevel is one (price, quantity) pair from a depth update. A qty of 0
// means "remove this price".
type DepthLevel struct {
	Price Price
	Qty   Quantity
}

// DepthUpdate is the decoded incremental/partial depth payload.
type DepthUpdate struct {
	Seq  SeqID
	Bids []DepthLevel
	Asks []DepthLevel
}

// Quote is a (price, quantity) pair returned by BestBidAsk.
type Quote struct {
	Price Price
	Qty   Quantity
}

type level struct {
	price Price
	qty   Quantity
}

// VenueBook holds the reconciled bid/ask ladders for one symbol. Every
// exported method is a single atomic state transition; like matchcore,
// VenueBook performs no internal locking and assumes exactly one logical
// writer (see the distilled spec's concurrency model).
type VenueBook struct {
	Symbol string

	bids *btree.BTreeG[level] // descending: Min() is the best bid
	asks *btree.BTreeG[level] // ascending: Min() is the best ask

	lastUpdateID SeqID
}

// New constructs an empty book for symbol.
func New(symbol string) *VenueBook {
	return &VenueBook{
		Symbol: symbol,
		bids:   btree.NewBTreeG(func(a, b level) bool { return a.price > b.price }),
		asks:   btree.NewBTreeG(func(a, b level) bool { return a.price < b.price }),
	}
}

// LastUpdateID returns the sequence number of the last applied depth
// update (0 if none has been applied yet).
func (b *VenueBook) LastUpdateID() SeqID {
	return b.lastUpdateID
}

func upsert(tree *btree.BTreeG[level], price Price, qty Quantity) {
	if qty == 0 {
		tree.Delete(level{price: price})
		return
	}
	tree.Set(level{price: price, qty: qty})
}

// ApplyTicker sets the best-bid/ask entries to upd's price/quantity,
// creating or overwriting them. It does not consult the depth sequence —
// the ticker feed is authoritative for the top of book independently of
// the depth feed's ordering. A zero quantity removes the entry, keeping
// the "no zero-quantity entry" invariant uniform across both feeds.
func (b *VenueBook) ApplyTicker(upd TickerUpdate) {
	upsert(b.bids, upd.BidPrice, upd.BidQty)
	upsert(b.asks, upd.AskPrice, upd.AskQty)
}

// ApplyDepth applies an incremental/partial depth update. If upd.Seq is not
// newer than the last applied sequence, the update is a no-op and
// ApplyDepth returns ErrStale; the book is left completely unchanged.
// Otherwise every (price, qty) pair upserts or removes a level, and
// lastUpdateID advances to upd.Seq.
func (b *VenueBook) ApplyDepth(upd DepthUpdate) error {
	if upd.Seq <= b.lastUpdateID {
		return ErrStale
	}

	for _, lvl := range upd.Bids {
		upsert(b.bids, lvl.Price, lvl.Qty)
	}
	for _, lvl := range upd.Asks {
		upsert(b.asks, lvl.Price, lvl.Qty)
	}
	b.lastUpdateID = upd.Seq
	return nil
}

// BestBidAsk returns the best bid and ask (price, quantity) pairs. ok is
// false if either side is empty.
func (b *VenueBook) BestBidAsk() (bid, ask Quote, ok bool) {
	bestBid, hasBid := b.bids.Min()
	bestAsk, hasAsk := b.asks.Min()
	if !hasBid || !hasAsk {
		return Quote{}, Quote{}, false
	}
	return Quote{Price: bestBid.price, Qty: bestBid.qty}, Quote{Price: bestAsk.price, Qty: bestAsk.qty}, true
}

// VolumeAt returns bids[price] + asks[price], treating a missing side as
// 0. Kept for parity with the venue's original single-price query; a given
// price normally belongs to one side only.
func (b *VenueBook) VolumeAt(price Price) Quantity {
	var total Quantity
	if lvl, ok := b.bids.Get(level{price: price}); ok {
		total += lvl.qty
	}
	if lvl, ok := b.asks.Get(level{price: price}); ok {
		total += lvl.qty
	}
	return total
}
