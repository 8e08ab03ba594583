// Package feed runs the venue websocket client: a tomb-supervised read loop
// that dials the configured URL, probes each JSON frame's "stream" suffix to
// decide book-ticker vs depth, and applies the decoded update to a
// *venuebook.VenueBook. The supervision shape (single t.Go'd loop, Dying()
// checked each iteration) is the teacher's internal/net/server.go pattern,
// generalized from a TCP accept loop to a websocket read loop; the
// reconnect-with-wait and JSON envelope probe are grounded on the
// polymarket-mm example's exchange.WSFeed.connectAndRead/dispatchMessage.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"github.com/raventid/matchcore/internal/venuebook"
	"github.com/raventid/matchcore/internal/wire"
)

const readLimit = 1 << 20

// Reporter is notified of feed-level events worth counting. A nil Reporter
// disables notification. internal/metrics.Collector implements this.
type Reporter interface {
	RecordStaleDepthDrop()
	RecordFeedReconnect()
}

type nopReporter struct{}

func (nopReporter) RecordStaleDepthDrop() {}
func (nopReporter) RecordFeedReconnect()  {}

// Client dials a venue websocket endpoint and reconciles its book-ticker
// and depth frames into a single VenueBook. Client assumes exactly one
// Run call at a time: it is the VenueBook's sole writer.
type Client struct {
	URL           string
	Book          *venuebook.VenueBook
	ReconnectWait time.Duration
	Reporter      Reporter

	dialer *websocket.Dialer
}

// New constructs a Client. A non-positive reconnectWait is replaced with
// 100ms so a misconfigured zero value cannot busy-loop reconnect attempts;
// positive values are used as given.
func New(url string, book *venuebook.VenueBook, reconnectWait time.Duration) *Client {
	if reconnectWait <= 0 {
		reconnectWait = 100 * time.Millisecond
	}
	return &Client{
		URL:           url,
		Book:          book,
		ReconnectWait: reconnectWait,
		Reporter:      nopReporter{},
		dialer:        websocket.DefaultDialer,
	}
}

// Run dials and reads frames until t is dying, reconnecting after
// ReconnectWait on any read or dial error. It always returns nil: a feed
// outage is not fatal to the process, only to that connection attempt.
func (c *Client) Run(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		default:
		}

		if err := c.connectAndRead(t); err != nil {
			log.Error().Err(err).Str("url", c.URL).Msg("venue feed disconnected")
			c.Reporter.RecordFeedReconnect()
		}

		select {
		case <-t.Dying():
			return nil
		case <-time.After(c.ReconnectWait):
		}
	}
}

func (c *Client) connectAndRead(t *tomb.Tomb) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-t.Dying():
			cancel()
		case <-ctx.Done():
		}
	}()

	conn, _, err := c.dialer.DialContext(ctx, c.URL, nil)
	if err != nil {
		return err
	}
	conn.SetReadLimit(readLimit)
	defer conn.Close()

	log.Info().Str("url", c.URL).Str("symbol", c.Book.Symbol).Msg("venue feed connected")

	for {
		select {
		case <-t.Dying():
			return nil
		default:
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.dispatch(raw)
	}
}

// streamEnvelope probes just enough of a frame to route it without
// decoding the full payload twice.
type streamEnvelope struct {
	Stream string `json:"stream"`
}

// dispatch routes one frame to DecodeBookTicker or DecodeDepth by the
// "stream" field's suffix, then applies it to Book. Decode or apply errors
// are logged and the frame is dropped; they never stop the read loop.
func (c *Client) dispatch(raw []byte) {
	var env streamEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Warn().Err(err).Msg("venue feed: ignoring non-json frame")
		return
	}

	switch {
	case strings.HasSuffix(env.Stream, "@bookTicker"):
		upd, err := wire.DecodeBookTicker(raw)
		if err != nil {
			log.Warn().Err(err).Msg("venue feed: malformed book ticker")
			return
		}
		c.Book.ApplyTicker(upd)

	case strings.HasSuffix(env.Stream, "@depth"):
		upd, err := wire.DecodeDepth(raw)
		if err != nil {
			log.Warn().Err(err).Msg("venue feed: malformed depth update")
			return
		}
		if err := c.Book.ApplyDepth(upd); err != nil {
			if errors.Is(err, venuebook.ErrStale) {
				c.Reporter.RecordStaleDepthDrop()
				return
			}
			log.Warn().Err(err).Msg("venue feed: apply depth failed")
		}

	default:
		log.Debug().Str("stream", env.Stream).Msg("venue feed: unrecognized stream")
	}
}
