// Package order defines the immutable limit order descriptor submitted
// to a book.
package order

import (
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"limitbook/internal/account"
)

// ID opaquely identifies an order, unique for the lifetime of the book
// it rests in.
type ID = uuid.UUID

// Side is the direction of an order.
type Side int

const (
	// Bid is a buy-side order.
	Bid Side = iota
	// Ask is a sell-side order.
	Ask
)

func (s Side) String() string {
	switch s {
	case Bid:
		return "BID"
	case Ask:
		return "ASK"
	default:
		return "UNKNOWN"
	}
}

// Order is a submission record: id, side, limit price, quantity, and the
// id of the owning account. Price and quantity are fixed at submission
// time and never mutated here; a resting order's residual quantity after
// partial fills is tracked by the book, not on this struct, since a book
// may need to persist it across matches while this Order's Quantity
// still reflects what was originally sent in.
type Order struct {
	id      ID
	side    Side
	price   *big.Int
	qty     *big.Int
	ownerID account.ID
}

// New constructs an order. price and qty must be strictly positive; the
// book does not validate this itself (order-acceptance policy, like risk
// and margin checks, is the submitter's concern).
func New(id ID, side Side, price, qty *big.Int, ownerID account.ID) *Order {
	return &Order{
		id:      id,
		side:    side,
		price:   new(big.Int).Set(price),
		qty:     new(big.Int).Set(qty),
		ownerID: ownerID,
	}
}

// ID returns the order's identifier.
func (o *Order) ID() ID { return o.id }

// Side returns the order's side.
func (o *Order) Side() Side { return o.side }

// Price returns the order's limit price. The returned value is a copy.
func (o *Order) Price() *big.Int { return new(big.Int).Set(o.price) }

// Quantity returns the order's quantity as submitted. The returned value
// is a copy.
func (o *Order) Quantity() *big.Int { return new(big.Int).Set(o.qty) }

// OwnerID returns the id of the account that submitted this order.
func (o *Order) OwnerID() account.ID { return o.ownerID }

func (o *Order) String() string {
	return fmt.Sprintf("%s: %s @ %s for %s", o.id, o.side, o.price, o.qty)
}
