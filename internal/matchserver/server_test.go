package matchserver

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raventid/matchcore/internal/matchcore"
	"github.com/raventid/matchcore/internal/matchproto"
)

// readOneReport reads exactly one frame off conn's far end and returns the
// bytes read, or fails the test after a short timeout.
func readOneReport(t *testing.T, conn net.Conn) []byte {
	t.Helper()
	buf := make([]byte, 4096)
	conn.SetReadDeadline(time.Now().Add(time.Second))
	n, err := conn.Read(buf)
	require.NoError(t, err)
	return buf[:n]
}

func newTestServer() *Server {
	return New(":0", matchcore.New(), 4)
}

func TestHandleRequest_CrossingOrdersNotifyBothOwners(t *testing.T) {
	s := newTestServer()

	sellSrv, sellClient := net.Pipe()
	buySrv, buyClient := net.Pipe()
	defer sellClient.Close()
	defer buyClient.Close()

	sellID := s.addSession(sellSrv)
	buyID := s.addSession(buySrv)

	sellDone := make(chan []byte, 1)
	go func() { sellDone <- readOneReport(t, sellClient) }()

	s.handleRequest(clientMessage{
		sessionID: sellID,
		request: matchproto.NewOrderMessage{
			OrderID: 1, Side: matchcore.Sell, Type: matchcore.GTC, Price: 100, Quantity: 10,
		},
	})
	// Resting order generates no report; nothing is written to sellClient yet.

	buyDone := make(chan []byte, 1)
	go func() { buyDone <- readOneReport(t, buyClient) }()

	s.handleRequest(clientMessage{
		sessionID: buyID,
		request: matchproto.NewOrderMessage{
			OrderID: 2, Side: matchcore.Buy, Type: matchcore.GTC, Price: 100, Quantity: 10,
		},
	})

	sellReport := <-sellDone
	buyReport := <-buyDone

	assert.Equal(t, uint16(matchproto.TradeReportType), be16(sellReport))
	assert.Equal(t, uint16(matchproto.TradeReportType), be16(buyReport))
	assert.Equal(t, sellReport, buyReport)

	// Both orders fully filled: neither should linger in orderOwner.
	assert.NotContains(t, s.orderOwner, matchcore.OrderID(1))
	assert.NotContains(t, s.orderOwner, matchcore.OrderID(2))
}

func TestHandleRequest_DuplicateOrderIDReportsErrorWithoutStompingOwner(t *testing.T) {
	s := newTestServer()

	srvA, clientA := net.Pipe()
	srvB, clientB := net.Pipe()
	defer clientA.Close()
	defer clientB.Close()

	idA := s.addSession(srvA)
	idB := s.addSession(srvB)

	s.handleRequest(clientMessage{
		sessionID: idA,
		request:   matchproto.NewOrderMessage{OrderID: 9, Side: matchcore.Buy, Type: matchcore.GTC, Price: 50, Quantity: 5},
	})

	errDone := make(chan []byte, 1)
	go func() { errDone <- readOneReport(t, clientB) }()

	s.handleRequest(clientMessage{
		sessionID: idB,
		request:   matchproto.NewOrderMessage{OrderID: 9, Side: matchcore.Sell, Type: matchcore.GTC, Price: 50, Quantity: 5},
	})

	report := <-errDone
	assert.Equal(t, uint16(matchproto.ErrorReportType), be16(report))
	assert.Equal(t, idA, s.orderOwner[matchcore.OrderID(9)])
}

func TestHandleRequest_CancelNotFoundReportsError(t *testing.T) {
	s := newTestServer()
	srv, client := net.Pipe()
	defer client.Close()
	id := s.addSession(srv)

	done := make(chan []byte, 1)
	go func() { done <- readOneReport(t, client) }()

	s.handleRequest(clientMessage{sessionID: id, request: matchproto.CancelOrderMessage{OrderID: 404}})

	report := <-done
	assert.Equal(t, uint16(matchproto.ErrorReportType), be16(report))
}

func TestHandleRequest_CancelRemovesOwnership(t *testing.T) {
	s := newTestServer()
	srv, client := net.Pipe()
	defer client.Close()
	id := s.addSession(srv)

	s.handleRequest(clientMessage{
		sessionID: id,
		request:   matchproto.NewOrderMessage{OrderID: 5, Side: matchcore.Buy, Type: matchcore.GTC, Price: 10, Quantity: 1},
	})
	require.Contains(t, s.orderOwner, matchcore.OrderID(5))

	s.handleRequest(clientMessage{sessionID: id, request: matchproto.CancelOrderMessage{OrderID: 5}})
	assert.NotContains(t, s.orderOwner, matchcore.OrderID(5))
}

func TestHandleRequest_ModifyUnknownOrderIsSilentNoOp(t *testing.T) {
	s := newTestServer()
	srv, client := net.Pipe()
	defer client.Close()
	id := s.addSession(srv)

	s.handleRequest(clientMessage{
		sessionID: id,
		request:   matchproto.ModifyOrderMessage{OrderID: 404, Side: matchcore.Buy, Price: 10, Quantity: 1},
	})

	// No report is written and no phantom ownership entry is created for
	// an order that was never admitted.
	assert.NotContains(t, s.orderOwner, matchcore.OrderID(404))

	buf := make([]byte, 4096)
	client.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	_, err := client.Read(buf)
	assert.Error(t, err, "expected no report to be written for an unknown-order modify")
}

func be16(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}
