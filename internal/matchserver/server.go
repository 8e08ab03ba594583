// Package matchserver is the TCP front end for MatchCore: it accepts
// connections, decodes matchproto requests off a worker pool, and funnels
// every decoded request through a single dispatcher goroutine so MatchCore
// sees exactly one logical caller, matching its no-internal-locking
// concurrency model. Adapted from the teacher's internal/net/server.go —
// same tomb supervision, same worker-pool-reads-connection shape, same
// session map — generalized from the teacher's custom Engine interface to
// matchcore.MatchCore and matchproto's wire format.
package matchserver

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"github.com/raventid/matchcore/internal/matchcore"
	"github.com/raventid/matchcore/internal/matchproto"
	"github.com/raventid/matchcore/internal/workerpool"
)

const (
	maxRecvSize    = 4 * 1024
	connTimeout    = 30 * time.Second
	clientMsgBufSz = 256
)

// Metrics is the subset of internal/metrics.Collector matchserver reports
// through. A nil Metrics disables reporting.
type Metrics interface {
	RecordAccepted(matchcore.Order)
	matchcore.Reporter
	SetSessionsActive(int)
}

type nopMetrics struct{}

func (nopMetrics) RecordAccepted(matchcore.Order)  {}
func (nopMetrics) OnTrade(matchcore.Trade)         {}
func (nopMetrics) OnReject(matchcore.Order, error) {}
func (nopMetrics) SetSessionsActive(int)           {}

// session is one connected client, identified by a uuid stamped at accept
// time rather than its network address — an address can be reused across
// reconnects, a uuid never is.
type session struct {
	id   uuid.UUID
	conn net.Conn
}

type clientMessage struct {
	sessionID uuid.UUID
	request   matchproto.Request
}

// connTask is what the worker pool passes between reads: a connection and
// the session id it was stamped with at accept time.
type connTask struct {
	id   uuid.UUID
	conn net.Conn
}

// Server is MatchCore's TCP front end.
type Server struct {
	address string
	core    *matchcore.MatchCore
	pool    *workerpool.Pool
	metrics Metrics

	sessionsMu sync.Mutex
	sessions   map[uuid.UUID]*session

	// orderOwner tracks which session submitted each resting order, so a
	// trade or rejection can be routed back to the right connection(s).
	// MatchCore itself is order-id keyed and owner-agnostic.
	orderOwner map[matchcore.OrderID]uuid.UUID

	messages chan clientMessage
}

// Option configures a Server at construction time.
type Option func(*Server)

// WithMetrics attaches a Metrics sink.
func WithMetrics(m Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// New constructs a Server with the given worker pool size.
func New(address string, core *matchcore.MatchCore, poolSize int, opts ...Option) *Server {
	s := &Server{
		address:    address,
		core:       core,
		pool:       workerpool.New(poolSize),
		metrics:    nopMetrics{},
		sessions:   make(map[uuid.UUID]*session),
		orderOwner: make(map[matchcore.OrderID]uuid.UUID),
		messages:   make(chan clientMessage, clientMsgBufSz),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run listens on s.address and serves connections until t is dying.
func (s *Server) Run(t *tomb.Tomb) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-t.Dying()
		cancel()
	}()

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.address)
	if err != nil {
		return fmt.Errorf("matchserver: listen: %w", err)
	}
	defer listener.Close()

	t.Go(func() error {
		s.pool.Run(t, s.handleConnection)
		return nil
	})

	t.Go(func() error {
		return s.dispatchLoop(t)
	})

	log.Info().Str("address", s.address).Msg("matchserver listening")

	for {
		select {
		case <-t.Dying():
			return nil
		default:
			conn, err := listener.Accept()
			if err != nil {
				select {
				case <-t.Dying():
					return nil
				default:
					log.Error().Err(err).Msg("matchserver: accept failed")
					continue
				}
			}
			id := s.addSession(conn)
			s.pool.AddTask(connTask{id: id, conn: conn})
		}
	}
}

func (s *Server) addSession(conn net.Conn) uuid.UUID {
	id := uuid.New()
	s.sessionsMu.Lock()
	s.sessions[id] = &session{id: id, conn: conn}
	count := len(s.sessions)
	s.sessionsMu.Unlock()
	s.metrics.SetSessionsActive(count)
	return id
}

func (s *Server) removeSession(id uuid.UUID) {
	s.sessionsMu.Lock()
	delete(s.sessions, id)
	count := len(s.sessions)
	s.sessionsMu.Unlock()
	s.metrics.SetSessionsActive(count)
}

// handleConnection reads exactly one frame off conn, decodes it, and hands
// it to the dispatcher; it then re-queues the connection for its next
// frame. A read error ends that connection's session; a decode error is
// answered with an error report and the connection is re-queued.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	ct, ok := task.(connTask)
	if !ok {
		return fmt.Errorf("matchserver: unexpected task type %T", task)
	}
	id, conn := ct.id, ct.conn

	if err := conn.SetReadDeadline(time.Now().Add(connTimeout)); err != nil {
		log.Error().Err(err).Msg("matchserver: set read deadline")
		s.closeSession(id, conn)
		return nil
	}

	buf := make([]byte, maxRecvSize)
	n, err := conn.Read(buf)
	if err != nil {
		s.closeSession(id, conn)
		return nil
	}

	req, err := matchproto.Decode(buf[:n])
	if err != nil {
		log.Warn().Err(err).Str("session", id.String()).Msg("matchserver: malformed request")
		conn.Write(matchproto.EncodeErrorReport(err))
		s.pool.AddTask(ct)
		return nil
	}

	select {
	case <-t.Dying():
		return nil
	case s.messages <- clientMessage{sessionID: id, request: req}:
	}

	s.pool.AddTask(ct)
	return nil
}

func (s *Server) closeSession(id uuid.UUID, conn net.Conn) {
	conn.Close()
	s.removeSession(id)
}

// dispatchLoop is the single logical caller of every MatchCore mutating
// method, serializing the worker pool's concurrent readers down to
// MatchCore's single-writer contract.
func (s *Server) dispatchLoop(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case msg := <-s.messages:
			s.handleRequest(msg)
		}
	}
}

func (s *Server) handleRequest(msg clientMessage) {
	switch req := msg.request.(type) {
	case matchproto.NewOrderMessage:
		order := req.Order()
		_, hadOwner := s.orderOwner[order.ID]
		if !hadOwner {
			s.orderOwner[order.ID] = msg.sessionID
		}
		trades, err := s.core.Submit(order)
		if err != nil {
			if !hadOwner {
				delete(s.orderOwner, order.ID)
			}
			s.writeError(msg.sessionID, err)
			return
		}
		s.metrics.RecordAccepted(order)
		s.broadcastTrades(trades)
		s.forgetFilled(order.ID, order.InitialQuantity, trades)

	case matchproto.CancelOrderMessage:
		if err := s.core.Cancel(req.OrderID); err != nil {
			s.writeError(msg.sessionID, err)
			return
		}
		delete(s.orderOwner, req.OrderID)

	case matchproto.ModifyOrderMessage:
		mod := req.Modification()
		if !s.core.Exists(mod.OrderID) {
			// Modify silently no-ops on an unknown id; mirror that here
			// rather than fabricating an ownership entry for an order
			// that was never admitted.
			return
		}
		s.orderOwner[mod.OrderID] = msg.sessionID
		trades, err := s.core.Modify(mod)
		if err != nil {
			s.writeError(msg.sessionID, err)
			return
		}
		s.broadcastTrades(trades)
		s.forgetFilled(mod.OrderID, mod.Quantity, trades)

	case matchproto.HeartbeatMessage:
		// No-op: reading the connection already reset its deadline.
	}
}

func (s *Server) broadcastTrades(trades []matchcore.Trade) {
	for _, trade := range trades {
		report := matchproto.EncodeTradeReport(trade)
		s.writeTo(s.orderOwner[trade.Bid.OrderID], report)
		s.writeTo(s.orderOwner[trade.Ask.OrderID], report)
	}
}

// forgetFilled drops the ownership entry for orderID once its trades (all
// of which report the quantity matched on orderID's own side) account for
// its full initial quantity, and drops the entry of every counterparty that
// those trades left no longer resting, so fully-filled orders don't
// accumulate in orderOwner forever. A partially-filled or still-resting
// order keeps its entry; Cancel removes it explicitly.
func (s *Server) forgetFilled(orderID matchcore.OrderID, initial matchcore.Quantity, trades []matchcore.Trade) {
	var filled matchcore.Quantity
	for _, trade := range trades {
		if trade.Bid.OrderID == orderID {
			filled += trade.Bid.Quantity
		} else if !s.core.Exists(trade.Bid.OrderID) {
			delete(s.orderOwner, trade.Bid.OrderID)
		}
		if trade.Ask.OrderID == orderID {
			filled += trade.Ask.Quantity
		} else if !s.core.Exists(trade.Ask.OrderID) {
			delete(s.orderOwner, trade.Ask.OrderID)
		}
	}
	if filled >= initial {
		delete(s.orderOwner, orderID)
	}
}

func (s *Server) writeError(sessionID uuid.UUID, err error) {
	s.writeTo(sessionID, matchproto.EncodeErrorReport(err))
}

func (s *Server) writeTo(sessionID uuid.UUID, payload []byte) {
	s.sessionsMu.Lock()
	sess, ok := s.sessions[sessionID]
	s.sessionsMu.Unlock()
	if !ok {
		return
	}
	if _, err := sess.conn.Write(payload); err != nil {
		log.Error().Err(err).Str("session", sessionID.String()).Msg("matchserver: write failed")
	}
}
