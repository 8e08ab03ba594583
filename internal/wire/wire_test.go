package wire_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raventid/matchcore/internal/venuebook"
	"github.com/raventid/matchcore/internal/wire"
)

func TestDecodeBookTicker(t *testing.T) {
	raw := []byte(`{"stream":"bnbusdt@bookTicker","data":{"u":400900217,"s":"BNBUSDT","b":"25.3519","B":"31.21","a":"25.3652","A":"40.66"}}`)

	upd, err := wire.DecodeBookTicker(raw)
	require.NoError(t, err)
	assert.Equal(t, venuebook.TickerUpdate{
		BidPrice: 253519,
		BidQty:   312100,
		AskPrice: 253652,
		AskQty:   406600,
	}, upd)
}

func TestDecodeBookTicker_Malformed(t *testing.T) {
	raw := []byte(`{"stream":"x","data":{"u":1,"s":"X","b":"not-a-number","B":"1","a":"1","A":"1"}}`)
	_, err := wire.DecodeBookTicker(raw)
	assert.Error(t, err)
}

func TestDecodeDepth(t *testing.T) {
	raw := []byte(`{"stream":"bnbusdt@depth","data":{"lastUpdateId":160,"bids":[["0.0024","10.0"],["0.0025","20.0"]],"asks":[["0.0026","100.0"],["0.0027","200.0"]]}}`)

	upd, err := wire.DecodeDepth(raw)
	require.NoError(t, err)
	assert.Equal(t, venuebook.SeqID(160), upd.Seq)
	assert.Equal(t, []venuebook.DepthLevel{{Price: 24, Qty: 100000}, {Price: 25, Qty: 200000}}, upd.Bids)
	assert.Equal(t, []venuebook.DepthLevel{{Price: 26, Qty: 1000000}, {Price: 27, Qty: 2000000}}, upd.Asks)
}

func TestDecodeDepth_RejectsWholeMessageOnMalformedPair(t *testing.T) {
	raw := []byte(`{"stream":"x","data":{"lastUpdateId":1,"bids":[["0.0024","10.0"],["bad","1"]],"asks":[]}}`)
	_, err := wire.DecodeDepth(raw)
	assert.Error(t, err)
}

func TestDecodeDepth_AppliesToVenueBook(t *testing.T) {
	raw := []byte(`{"stream":"x","data":{"lastUpdateId":1,"bids":[["10","5"]],"asks":[["11","3"]]}}`)
	upd, err := wire.DecodeDepth(raw)
	require.NoError(t, err)

	book := venuebook.New("TEST")
	require.NoError(t, book.ApplyDepth(upd))

	bid, ask, ok := book.BestBidAsk()
	require.True(t, ok)
	assert.Equal(t, venuebook.Price(100000), bid.Price)
	assert.Equal(t, venuebook.Price(110000), ask.Price)
}
