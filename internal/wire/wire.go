// Package wire decodes the venue's JSON book-ticker and depth envelopes
// into VenueBook updates, converting every decimal field through
// internal/fixedpoint. Field layout is grounded on original_source's
// binance_payloads.rs and main.rs structs.
package wire

import (
	"encoding/json"
	"fmt"

	"github.com/raventid/matchcore/internal/fixedpoint"
	"github.com/raventid/matchcore/internal/venuebook"
)

// bookTickerEnvelope is the wire shape of a book-ticker message:
// {"stream": "...", "data": {"u": ..., "s": ..., "b": "...", "B": "...", "a": "...", "A": "..."}}
type bookTickerEnvelope struct {
	Stream string `json:"stream"`
	Data   struct {
		UpdateID uint64 `json:"u"`
		Symbol   string `json:"s"`
		BidPrice string `json:"b"`
		BidQty   string `json:"B"`
		AskPrice string `json:"a"`
		AskQty   string `json:"A"`
	} `json:"data"`
}

// depthEnvelope is the wire shape of a depth message:
// {"stream": "...", "data": {"lastUpdateId": ..., "bids": [["p","q"],...], "asks": [...]}}
type depthEnvelope struct {
	Stream string `json:"stream"`
	Data   struct {
		LastUpdateID uint64      `json:"lastUpdateId"`
		Bids         [][2]string `json:"bids"`
		Asks         [][2]string `json:"asks"`
	} `json:"data"`
}

// DecodeBookTicker parses a book-ticker envelope and converts its decimal
// fields through fixedpoint.Parse. The entire message is rejected on the
// first malformed decimal.
func DecodeBookTicker(raw []byte) (venuebook.TickerUpdate, error) {
	var env bookTickerEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return venuebook.TickerUpdate{}, fmt.Errorf("wire: decode book ticker envelope: %w", err)
	}

	bidPrice, err := fixedpoint.Parse(env.Data.BidPrice)
	if err != nil {
		return venuebook.TickerUpdate{}, err
	}
	bidQty, err := fixedpoint.Parse(env.Data.BidQty)
	if err != nil {
		return venuebook.TickerUpdate{}, err
	}
	askPrice, err := fixedpoint.Parse(env.Data.AskPrice)
	if err != nil {
		return venuebook.TickerUpdate{}, err
	}
	askQty, err := fixedpoint.Parse(env.Data.AskQty)
	if err != nil {
		return venuebook.TickerUpdate{}, err
	}

	return venuebook.TickerUpdate{
		BidPrice: venuebook.Price(bidPrice),
		BidQty:   venuebook.Quantity(bidQty),
		AskPrice: venuebook.Price(askPrice),
		AskQty:   venuebook.Quantity(askQty),
	}, nil
}

// DecodeDepth parses a depth envelope and converts its decimal fields
// through fixedpoint.Parse, preserving the order of price/qty pairs as
// given (VenueBook does not depend on their order). The entire message is
// rejected on the first malformed decimal.
func DecodeDepth(raw []byte) (venuebook.DepthUpdate, error) {
	var env depthEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return venuebook.DepthUpdate{}, fmt.Errorf("wire: decode depth envelope: %w", err)
	}

	bids, err := decodeLevels(env.Data.Bids)
	if err != nil {
		return venuebook.DepthUpdate{}, err
	}
	asks, err := decodeLevels(env.Data.Asks)
	if err != nil {
		return venuebook.DepthUpdate{}, err
	}

	return venuebook.DepthUpdate{
		Seq:  venuebook.SeqID(env.Data.LastUpdateID),
		Bids: bids,
		Asks: asks,
	}, nil
}

func decodeLevels(pairs [][2]string) ([]venuebook.DepthLevel, error) {
	levels := make([]venuebook.DepthLevel, 0, len(pairs))
	for _, pair := range pairs {
		price, err := fixedpoint.Parse(pair[0])
		if err != nil {
			return nil, err
		}
		qty, err := fixedpoint.Parse(pair[1])
		if err != nil {
			return nil, err
		}
		levels = append(levels, venuebook.DepthLevel{Price: venuebook.Price(price), Qty: venuebook.Quantity(qty)})
	}
	return levels, nil
}
