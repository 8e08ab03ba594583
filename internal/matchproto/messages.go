// Package matchproto is a fixed-width binary wire protocol for driving
// MatchCore over a connection: NewOrder/Cancel/Modify requests and
// TradeReport/ErrorReport responses. It is adapted from the teacher's
// internal/net/messages.go; where the teacher's venue order carried a
// float64 limit price serialized via math.Float64bits, MatchCore's Price
// is already an integer tick, so it is serialized directly as a uint64 bit
// pattern with no float round-trip.
package matchproto

import (
	"encoding/binary"
	"errors"

	"github.com/raventid/matchcore/internal/matchcore"
)

var (
	ErrInvalidMessageType = errors.New("matchproto: invalid message type")
	ErrMessageTooShort    = errors.New("matchproto: message too short")
)

// MessageType identifies a request frame.
type MessageType uint16

const (
	Heartbeat MessageType = iota
	NewOrder
	CancelOrder
	ModifyOrder
)

// ReportType identifies a response frame.
type ReportType uint16

const (
	TradeReportType ReportType = iota
	ErrorReportType
)

const (
	headerLen       = 2                 // MessageType
	newOrderBodyLen = 8 + 1 + 1 + 8 + 8 // OrderID, Side, OrderType, Price, Quantity
	cancelBodyLen   = 8                 // OrderID
	modifyBodyLen   = 8 + 1 + 8 + 8     // OrderID, Side, Price, Quantity
)

// NewOrderMessage requests admission of a new order.
type NewOrderMessage struct {
	OrderID  matchcore.OrderID
	Side     matchcore.Side
	Type     matchcore.OrderType
	Price    matchcore.Price
	Quantity matchcore.Quantity
}

// Order converts the wire message into the matchcore.Order it describes.
func (m NewOrderMessage) Order() matchcore.Order {
	return matchcore.Order{
		ID:                m.OrderID,
		Side:              m.Side,
		Price:             m.Price,
		Type:              m.Type,
		InitialQuantity:   m.Quantity,
		RemainingQuantity: m.Quantity,
	}
}

// Encode serializes a NewOrder request frame.
func (m NewOrderMessage) Encode() []byte {
	buf := make([]byte, headerLen+newOrderBodyLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(NewOrder))
	binary.BigEndian.PutUint64(buf[2:10], uint64(m.OrderID))
	buf[10] = byte(m.Side)
	buf[11] = byte(m.Type)
	binary.BigEndian.PutUint64(buf[12:20], uint64(m.Price))
	binary.BigEndian.PutUint64(buf[20:28], uint64(m.Quantity))
	return buf
}

func decodeNewOrder(body []byte) (NewOrderMessage, error) {
	if len(body) < newOrderBodyLen {
		return NewOrderMessage{}, ErrMessageTooShort
	}
	return NewOrderMessage{
		OrderID:  matchcore.OrderID(binary.BigEndian.Uint64(body[0:8])),
		Side:     matchcore.Side(body[8]),
		Type:     matchcore.OrderType(body[9]),
		Price:    matchcore.Price(binary.BigEndian.Uint64(body[10:18])),
		Quantity: matchcore.Quantity(binary.BigEndian.Uint64(body[18:26])),
	}, nil
}

// CancelOrderMessage requests removal of a resting order.
type CancelOrderMessage struct {
	OrderID matchcore.OrderID
}

func (m CancelOrderMessage) Encode() []byte {
	buf := make([]byte, headerLen+cancelBodyLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(CancelOrder))
	binary.BigEndian.PutUint64(buf[2:10], uint64(m.OrderID))
	return buf
}

func decodeCancelOrder(body []byte) (CancelOrderMessage, error) {
	if len(body) < cancelBodyLen {
		return CancelOrderMessage{}, ErrMessageTooShort
	}
	return CancelOrderMessage{OrderID: matchcore.OrderID(binary.BigEndian.Uint64(body[0:8]))}, nil
}

// ModifyOrderMessage requests a price/size/side change to a resting order.
type ModifyOrderMessage struct {
	OrderID  matchcore.OrderID
	Side     matchcore.Side
	Price    matchcore.Price
	Quantity matchcore.Quantity
}

func (m ModifyOrderMessage) Modification() matchcore.Modification {
	return matchcore.Modification{
		OrderID:  m.OrderID,
		Side:     m.Side,
		Price:    m.Price,
		Quantity: m.Quantity,
	}
}

func (m ModifyOrderMessage) Encode() []byte {
	buf := make([]byte, headerLen+modifyBodyLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(ModifyOrder))
	binary.BigEndian.PutUint64(buf[2:10], uint64(m.OrderID))
	buf[10] = byte(m.Side)
	binary.BigEndian.PutUint64(buf[11:19], uint64(m.Price))
	binary.BigEndian.PutUint64(buf[19:27], uint64(m.Quantity))
	return buf
}

func decodeModifyOrder(body []byte) (ModifyOrderMessage, error) {
	if len(body) < modifyBodyLen {
		return ModifyOrderMessage{}, ErrMessageTooShort
	}
	return ModifyOrderMessage{
		OrderID:  matchcore.OrderID(binary.BigEndian.Uint64(body[0:8])),
		Side:     matchcore.Side(body[8]),
		Price:    matchcore.Price(binary.BigEndian.Uint64(body[9:17])),
		Quantity: matchcore.Quantity(binary.BigEndian.Uint64(body[17:25])),
	}, nil
}

// Request is any decoded client request frame.
type Request interface {
	isRequest()
}

func (NewOrderMessage) isRequest()    {}
func (CancelOrderMessage) isRequest() {}
func (ModifyOrderMessage) isRequest() {}
func (HeartbeatMessage) isRequest()   {}

// HeartbeatMessage keeps a connection alive with no side effect.
type HeartbeatMessage struct{}

// Decode parses a request frame's type header and dispatches to the
// matching body decoder.
func Decode(msg []byte) (Request, error) {
	if len(msg) < headerLen {
		return nil, ErrMessageTooShort
	}
	typ := MessageType(binary.BigEndian.Uint16(msg[0:2]))
	body := msg[headerLen:]

	switch typ {
	case Heartbeat:
		return HeartbeatMessage{}, nil
	case NewOrder:
		return decodeNewOrder(body)
	case CancelOrder:
		return decodeCancelOrder(body)
	case ModifyOrder:
		return decodeModifyOrder(body)
	default:
		return nil, ErrInvalidMessageType
	}
}

const tradeReportBodyLen = 2 + 8 + 8 + 8 + 8 + 8 + 8 // type, bidID, bidPrice, bidQty, askID, askPrice, askQty

// EncodeTradeReport serializes a matchcore.Trade as a response frame.
func EncodeTradeReport(trade matchcore.Trade) []byte {
	buf := make([]byte, tradeReportBodyLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(TradeReportType))
	binary.BigEndian.PutUint64(buf[2:10], uint64(trade.Bid.OrderID))
	binary.BigEndian.PutUint64(buf[10:18], uint64(trade.Bid.Price))
	binary.BigEndian.PutUint64(buf[18:26], uint64(trade.Bid.Quantity))
	binary.BigEndian.PutUint64(buf[26:34], uint64(trade.Ask.OrderID))
	binary.BigEndian.PutUint64(buf[34:42], uint64(trade.Ask.Price))
	binary.BigEndian.PutUint64(buf[42:50], uint64(trade.Ask.Quantity))
	return buf
}

// EncodeErrorReport serializes err's message as a response frame.
func EncodeErrorReport(err error) []byte {
	msg := err.Error()
	buf := make([]byte, 2+2+len(msg))
	binary.BigEndian.PutUint16(buf[0:2], uint16(ErrorReportType))
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(msg)))
	copy(buf[4:], msg)
	return buf
}

// Response is any decoded server response frame.
type Response interface {
	isResponse()
}

// TradeReport is the decoded form of EncodeTradeReport's output.
type TradeReport struct {
	Bid matchcore.TradeLeg
	Ask matchcore.TradeLeg
}

func (TradeReport) isResponse() {}

// ErrorReport is the decoded form of EncodeErrorReport's output.
type ErrorReport struct {
	Message string
}

func (ErrorReport) isResponse() {}

// DecodeReport parses a response frame written by EncodeTradeReport or
// EncodeErrorReport.
func DecodeReport(msg []byte) (Response, error) {
	if len(msg) < headerLen {
		return nil, ErrMessageTooShort
	}
	typ := ReportType(binary.BigEndian.Uint16(msg[0:2]))
	body := msg[headerLen:]

	switch typ {
	case TradeReportType:
		if len(body) < tradeReportBodyLen-headerLen {
			return nil, ErrMessageTooShort
		}
		return TradeReport{
			Bid: matchcore.TradeLeg{
				OrderID:  matchcore.OrderID(binary.BigEndian.Uint64(body[0:8])),
				Price:    matchcore.Price(binary.BigEndian.Uint64(body[8:16])),
				Quantity: matchcore.Quantity(binary.BigEndian.Uint64(body[16:24])),
			},
			Ask: matchcore.TradeLeg{
				OrderID:  matchcore.OrderID(binary.BigEndian.Uint64(body[24:32])),
				Price:    matchcore.Price(binary.BigEndian.Uint64(body[32:40])),
				Quantity: matchcore.Quantity(binary.BigEndian.Uint64(body[40:48])),
			},
		}, nil
	case ErrorReportType:
		if len(body) < 2 {
			return nil, ErrMessageTooShort
		}
		n := binary.BigEndian.Uint16(body[0:2])
		if len(body) < int(2+n) {
			return nil, ErrMessageTooShort
		}
		return ErrorReport{Message: string(body[2 : 2+n])}, nil
	default:
		return nil, ErrInvalidMessageType
	}
}
