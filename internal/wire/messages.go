// Package wire is the binary TCP protocol that lets a remote client
// submit orders to an engine.Engine. It is a command interface external
// to the matching core, modeled on the teacher's own net package.
package wire

import (
	"encoding/binary"
	"errors"
	"math/big"

	"github.com/google/uuid"

	"limitbook/internal/order"
)

var (
	ErrInvalidMessageType = errors.New("wire: invalid message type")
	ErrMessageTooShort    = errors.New("wire: message too short")
)

// MessageType identifies a client-to-server message.
type MessageType uint16

const (
	NewOrder MessageType = iota
	CancelOrder
	Query
)

// ReportType identifies a server-to-client message.
type ReportType uint8

const (
	ExecutionReport ReportType = iota
	ErrorReport
)

// widthUint128 is the fixed wire width used for every price/quantity
// field, matching the 128-bit representable range spec'd for these
// values.
const widthUint128 = 16

// BaseHeaderLen is the length, in bytes, of the MessageType prefix every
// client message starts with.
const BaseHeaderLen = 2

// NewOrderMessage requests a new limit order. Wire layout after the
// 2-byte type prefix:
//
//	symbolLen(1) symbol(n) side(1) price(16) qty(16) owner(16 uuid)
type NewOrderMessage struct {
	Symbol string
	Side   order.Side
	Price  *big.Int
	Qty    *big.Int
	Owner  uuid.UUID
}

func (m NewOrderMessage) MarshalBinary() ([]byte, error) {
	symbol := []byte(m.Symbol)
	buf := make([]byte, BaseHeaderLen+1+len(symbol)+1+widthUint128+widthUint128+16)

	binary.BigEndian.PutUint16(buf[0:2], uint16(NewOrder))
	buf[2] = byte(len(symbol))
	offset := 3
	copy(buf[offset:], symbol)
	offset += len(symbol)
	buf[offset] = byte(m.Side)
	offset++
	m.Price.FillBytes(buf[offset : offset+widthUint128])
	offset += widthUint128
	m.Qty.FillBytes(buf[offset : offset+widthUint128])
	offset += widthUint128
	copy(buf[offset:], m.Owner[:])

	return buf, nil
}

// ParseNewOrder decodes a NewOrderMessage from the bytes following the
// 2-byte type prefix.
func ParseNewOrder(body []byte) (NewOrderMessage, error) {
	if len(body) < 1 {
		return NewOrderMessage{}, ErrMessageTooShort
	}
	symbolLen := int(body[0])
	want := 1 + symbolLen + 1 + widthUint128 + widthUint128 + 16
	if len(body) < want {
		return NewOrderMessage{}, ErrMessageTooShort
	}

	offset := 1
	symbol := string(body[offset : offset+symbolLen])
	offset += symbolLen
	side := order.Side(body[offset])
	offset++
	price := new(big.Int).SetBytes(body[offset : offset+widthUint128])
	offset += widthUint128
	qty := new(big.Int).SetBytes(body[offset : offset+widthUint128])
	offset += widthUint128

	var owner uuid.UUID
	copy(owner[:], body[offset:offset+16])

	return NewOrderMessage{Symbol: symbol, Side: side, Price: price, Qty: qty, Owner: owner}, nil
}

// CancelOrderMessage requests cancellation of a resting order. Wire
// layout after the 2-byte type prefix: symbolLen(1) symbol(n) orderID(16).
type CancelOrderMessage struct {
	Symbol  string
	OrderID uuid.UUID
}

func (m CancelOrderMessage) MarshalBinary() ([]byte, error) {
	symbol := []byte(m.Symbol)
	buf := make([]byte, BaseHeaderLen+1+len(symbol)+16)

	binary.BigEndian.PutUint16(buf[0:2], uint16(CancelOrder))
	buf[2] = byte(len(symbol))
	offset := 3
	copy(buf[offset:], symbol)
	offset += len(symbol)
	copy(buf[offset:], m.OrderID[:])

	return buf, nil
}

// ParseCancelOrder decodes a CancelOrderMessage from the bytes following
// the 2-byte type prefix.
func ParseCancelOrder(body []byte) (CancelOrderMessage, error) {
	if len(body) < 1 {
		return CancelOrderMessage{}, ErrMessageTooShort
	}
	symbolLen := int(body[0])
	want := 1 + symbolLen + 16
	if len(body) < want {
		return CancelOrderMessage{}, ErrMessageTooShort
	}

	offset := 1
	symbol := string(body[offset : offset+symbolLen])
	offset += symbolLen

	var id uuid.UUID
	copy(id[:], body[offset:offset+16])

	return CancelOrderMessage{Symbol: symbol, OrderID: id}, nil
}

// QueryMessage requests top-of-book and last-traded-price for a symbol.
// Wire layout after the 2-byte type prefix: symbolLen(1) symbol(n).
type QueryMessage struct {
	Symbol string
}

func (m QueryMessage) MarshalBinary() ([]byte, error) {
	symbol := []byte(m.Symbol)
	buf := make([]byte, BaseHeaderLen+1+len(symbol))
	binary.BigEndian.PutUint16(buf[0:2], uint16(Query))
	buf[2] = byte(len(symbol))
	copy(buf[3:], symbol)
	return buf, nil
}

func ParseQuery(body []byte) (QueryMessage, error) {
	if len(body) < 1 {
		return QueryMessage{}, ErrMessageTooShort
	}
	symbolLen := int(body[0])
	if len(body) < 1+symbolLen {
		return QueryMessage{}, ErrMessageTooShort
	}
	return QueryMessage{Symbol: string(body[1 : 1+symbolLen])}, nil
}

// ClientMessage is a decoded message type together with its payload.
type ClientMessage struct {
	Type    MessageType
	New     NewOrderMessage
	Cancel  CancelOrderMessage
	QueryOf QueryMessage
}

// Parse reads the message type prefix and dispatches to the matching
// decoder.
func Parse(raw []byte) (ClientMessage, error) {
	if len(raw) < BaseHeaderLen {
		return ClientMessage{}, ErrMessageTooShort
	}
	typ := MessageType(binary.BigEndian.Uint16(raw[0:2]))
	body := raw[BaseHeaderLen:]

	switch typ {
	case NewOrder:
		m, err := ParseNewOrder(body)
		return ClientMessage{Type: typ, New: m}, err
	case CancelOrder:
		m, err := ParseCancelOrder(body)
		return ClientMessage{Type: typ, Cancel: m}, err
	case Query:
		m, err := ParseQuery(body)
		return ClientMessage{Type: typ, QueryOf: m}, err
	default:
		return ClientMessage{}, ErrInvalidMessageType
	}
}

// Report is a server-to-client response: either an execution report
// (order placed/cancelled/queried successfully) or an error report.
type Report struct {
	Type    ReportType
	OrderID uuid.UUID
	BestBid *big.Int
	BestAsk *big.Int
	LTP     *big.Int
	Traded  bool
	Err     string
}

// Serialize encodes a Report for the wire: type(1) orderID(16)
// hasBid(1) bid(16) hasAsk(1) ask(16) traded(1) ltp(16) errLen(2) err(n).
func (r Report) Serialize() []byte {
	errBytes := []byte(r.Err)
	buf := make([]byte, 1+16+1+widthUint128+1+widthUint128+1+widthUint128+2+len(errBytes))

	offset := 0
	buf[offset] = byte(r.Type)
	offset++
	copy(buf[offset:], r.OrderID[:])
	offset += 16

	offset = putOptionalBigInt(buf, offset, r.BestBid)
	offset = putOptionalBigInt(buf, offset, r.BestAsk)

	if r.Traded {
		buf[offset] = 1
	}
	offset++
	if r.LTP != nil {
		r.LTP.FillBytes(buf[offset : offset+widthUint128])
	}
	offset += widthUint128

	binary.BigEndian.PutUint16(buf[offset:offset+2], uint16(len(errBytes)))
	offset += 2
	copy(buf[offset:], errBytes)

	return buf
}

func putOptionalBigInt(buf []byte, offset int, v *big.Int) int {
	if v != nil {
		buf[offset] = 1
	}
	offset++
	if v != nil {
		v.FillBytes(buf[offset : offset+widthUint128])
	}
	offset += widthUint128
	return offset
}
