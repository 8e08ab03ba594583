package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raventid/matchcore/internal/venuebook"
)

type countingReporter struct {
	staleDrops  int
	reconnects  int
}

func (r *countingReporter) RecordStaleDepthDrop() { r.staleDrops++ }
func (r *countingReporter) RecordFeedReconnect()  { r.reconnects++ }

func TestNew_ClampsNonPositiveReconnectWait(t *testing.T) {
	c := New("wss://example.com", venuebook.New("TEST"), 0)
	assert.Equal(t, 100*time.Millisecond, c.ReconnectWait)

	c = New("wss://example.com", venuebook.New("TEST"), -time.Second)
	assert.Equal(t, 100*time.Millisecond, c.ReconnectWait)
}

func TestDispatch_RoutesBookTicker(t *testing.T) {
	book := venuebook.New("BNBUSDT")
	c := New("wss://example.com", book, time.Second)

	raw := []byte(`{"stream":"bnbusdt@bookTicker","data":{"u":1,"s":"BNBUSDT","b":"25.35","B":"10","a":"25.36","A":"5"}}`)
	c.dispatch(raw)

	bid, ask, ok := book.BestBidAsk()
	require.True(t, ok)
	assert.Equal(t, venuebook.Price(253500), bid.Price)
	assert.Equal(t, venuebook.Price(253600), ask.Price)
}

func TestDispatch_RoutesDepth(t *testing.T) {
	book := venuebook.New("BNBUSDT")
	c := New("wss://example.com", book, time.Second)

	raw := []byte(`{"stream":"bnbusdt@depth","data":{"lastUpdateId":5,"bids":[["10","1"]],"asks":[["11","1"]]}}`)
	c.dispatch(raw)

	assert.Equal(t, venuebook.SeqID(5), book.LastUpdateID())
}

func TestDispatch_StaleDepthIsCountedNotFatal(t *testing.T) {
	book := venuebook.New("BNBUSDT")
	reporter := &countingReporter{}
	c := New("wss://example.com", book, time.Second)
	c.Reporter = reporter

	first := []byte(`{"stream":"x@depth","data":{"lastUpdateId":10,"bids":[],"asks":[]}}`)
	stale := []byte(`{"stream":"x@depth","data":{"lastUpdateId":5,"bids":[["1","1"]],"asks":[]}}`)

	c.dispatch(first)
	c.dispatch(stale)

	assert.Equal(t, 1, reporter.staleDrops)
	assert.Equal(t, venuebook.SeqID(10), book.LastUpdateID())
}

func TestDispatch_IgnoresUnrecognizedStream(t *testing.T) {
	book := venuebook.New("BNBUSDT")
	c := New("wss://example.com", book, time.Second)

	c.dispatch([]byte(`{"stream":"bnbusdt@trade","data":{}}`))

	_, _, ok := book.BestBidAsk()
	assert.False(t, ok)
}

func TestDispatch_MalformedJSONIsDropped(t *testing.T) {
	book := venuebook.New("BNBUSDT")
	c := New("wss://example.com", book, time.Second)

	assert.NotPanics(t, func() {
		c.dispatch([]byte(`not json`))
	})
}
