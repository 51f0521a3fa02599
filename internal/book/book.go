// Package book implements a single-instrument price-time priority limit
// order book: matching, settlement, cancellation, and top-of-book / last-
// traded-price queries.
package book

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/tidwall/btree"

	"limitbook/internal/account"
	"limitbook/internal/order"
)

// ID opaquely identifies a book.
type ID = uuid.UUID

var (
	// ErrOrderNotFound is returned by Cancel when no order with the given
	// id is resting in this book.
	ErrOrderNotFound = errors.New("book: order not found")
)

// restingOrder pairs a submitted order with its remaining quantity while
// it rests in the book. A bare order.Order is immutable, so partial-fill
// residuals are tracked here rather than on the order itself.
type restingOrder struct {
	order     *order.Order
	remaining *big.Int
}

// priceLevel is the FIFO queue of resting orders at one price.
type priceLevel struct {
	price  *big.Int
	orders []*restingOrder
}

// sides are each keyed by price in a balanced ordered tree, giving
// O(log n) best-price access and ordered iteration in both directions.
type side = btree.BTreeG[*priceLevel]

// restingLocation is the resting-id index's entry: enough to find an
// order's level directly instead of scanning both sides from scratch on
// cancel.
type restingLocation struct {
	orderSide order.Side
	price     *big.Int
}

// Book is a single-instrument matching engine: two price-indexed queues
// (bids, asks), the last-traded price, and an index of currently-resting
// order ids. Submit and Cancel are synchronous and not reentrant; an
// external driver is expected to serialize calls against the same Book.
type Book struct {
	id       ID
	name     string
	symbol   string
	accounts *account.Registry

	bids *side
	asks *side

	resting map[order.ID]*restingLocation

	ltp       *big.Int
	hasTraded bool
}

// New constructs an empty book for symbol, settling fills against
// accounts resolved through registry.
func New(id ID, name, symbol string, registry *account.Registry) *Book {
	bids := btree.NewBTreeG(func(a, b *priceLevel) bool {
		return a.price.Cmp(b.price) > 0 // descending: best bid is highest
	})
	asks := btree.NewBTreeG(func(a, b *priceLevel) bool {
		return a.price.Cmp(b.price) < 0 // ascending: best ask is lowest
	})
	return &Book{
		id:       id,
		name:     name,
		symbol:   symbol,
		accounts: registry,
		bids:     bids,
		asks:     asks,
		resting:  make(map[order.ID]*restingLocation),
	}
}

// ID returns the book's identifier.
func (b *Book) ID() ID { return b.id }

// Name returns the book's display name.
func (b *Book) Name() string { return b.name }

// Symbol returns the book's traded symbol.
func (b *Book) Symbol() string { return b.symbol }

// Top returns the best bid and best ask currently resting, or nil for a
// side with no resting orders.
func (b *Book) Top() (bestBid, bestAsk *big.Int) {
	if lvl, ok := b.bids.MinMut(); ok {
		bestBid = new(big.Int).Set(lvl.price)
	}
	if lvl, ok := b.asks.MinMut(); ok {
		bestAsk = new(big.Int).Set(lvl.price)
	}
	return bestBid, bestAsk
}

// LastTradedPrice returns the most recent fill's trade price, and
// whether the book has ever traded.
func (b *Book) LastTradedPrice() (*big.Int, bool) {
	if !b.hasTraded {
		return nil, false
	}
	return new(big.Int).Set(b.ltp), true
}

// restingAt returns the resting order ids at price on the given side, in
// FIFO order, for test inspection.
func (b *Book) restingAt(s order.Side, price *big.Int) []order.ID {
	lvl, ok := b.sideOf(s).GetMut(&priceLevel{price: price})
	if !ok {
		return nil
	}
	ids := make([]order.ID, len(lvl.orders))
	for i, ro := range lvl.orders {
		ids[i] = ro.order.ID()
	}
	return ids
}

// sideOf returns the side an order with the given Side rests on.
func (b *Book) sideOf(s order.Side) *side {
	if s == order.Bid {
		return b.bids
	}
	return b.asks
}

// oppositeOf returns the side opposing s.
func (b *Book) oppositeOf(s order.Side) *side {
	if s == order.Bid {
		return b.asks
	}
	return b.bids
}

// crosses reports whether price P on side S crosses the best quote B on
// the opposite side.
func crosses(s order.Side, limit, best *big.Int) bool {
	if s == order.Bid {
		return limit.Cmp(best) >= 0
	}
	return limit.Cmp(best) <= 0
}

// Submit attempts to match incoming against the opposite side in
// price-then-time order, settling each fill immediately, then rests any
// unmatched residual on incoming's own side. A settlement error aborts
// the walk at the point of failure and is returned unchanged; the book is
// left in whatever state the successful fills before it produced.
func (b *Book) Submit(incoming *order.Order) error {
	remaining := incoming.Quantity()
	opposite := b.oppositeOf(incoming.Side())

	for remaining.Sign() > 0 {
		bestLevel, ok := opposite.MinMut()
		if !ok {
			break
		}
		if !crosses(incoming.Side(), incoming.Price(), bestLevel.price) {
			break
		}

		head := bestLevel.orders[0]
		tradePrice := bestLevel.price
		fillQty := new(big.Int)
		if remaining.Cmp(head.remaining) < 0 {
			fillQty.Set(remaining)
		} else {
			fillQty.Set(head.remaining)
		}

		if err := b.settle(incoming, head.order, tradePrice, fillQty); err != nil {
			return err
		}

		remaining = new(big.Int).Sub(remaining, fillQty)
		head.remaining = new(big.Int).Sub(head.remaining, fillQty)

		b.hasTraded = true
		b.ltp = new(big.Int).Set(tradePrice)

		if head.remaining.Sign() == 0 {
			bestLevel.orders = bestLevel.orders[1:]
			delete(b.resting, head.order.ID())
			if len(bestLevel.orders) == 0 {
				opposite.Delete(bestLevel)
			}
		}
	}

	if remaining.Sign() > 0 {
		b.rest(incoming, remaining)
	}
	return nil
}

// rest enqueues incoming at the tail of its own side's queue for its
// limit price, recording the residual quantity and the resting-id index
// entry.
func (b *Book) rest(incoming *order.Order, remaining *big.Int) {
	own := b.sideOf(incoming.Side())
	key := &priceLevel{price: incoming.Price()}

	lvl, ok := own.GetMut(key)
	if !ok {
		lvl = key
		own.Set(lvl)
	}
	lvl.orders = append(lvl.orders, &restingOrder{
		order:     incoming,
		remaining: new(big.Int).Set(remaining),
	})
	b.resting[incoming.ID()] = &restingLocation{
		orderSide: incoming.Side(),
		price:     lvl.price,
	}
}

// settle executes one fill of qty units at price between incoming (the
// taker, side S) and resting (the maker). The buyer's cash and the
// seller's holding are checked before either account is mutated, so a
// fill that either side cannot cover leaves both accounts untouched. The
// credit legs (the seller's balance, the buyer's holding) are not checked
// against account.MaxMagnitude in advance; an overflow there is returned
// after the earlier legs have already been applied.
func (b *Book) settle(incoming, resting *order.Order, price, qty *big.Int) error {
	takerAcct, err := b.accounts.Lookup(incoming.OwnerID())
	if err != nil {
		return err
	}
	makerAcct, err := b.accounts.Lookup(resting.OwnerID())
	if err != nil {
		return err
	}

	amount := new(big.Int).Mul(price, qty)

	var buyer, seller *account.Account
	if incoming.Side() == order.Bid {
		buyer, seller = takerAcct, makerAcct
	} else {
		buyer, seller = makerAcct, takerAcct
	}

	if !account.CanSettle(buyer, seller, b.symbol, amount, qty) {
		return fmt.Errorf("%w or %w", account.ErrBalanceOutOfBounds, account.ErrHoldingOutOfBounds)
	}

	if err := seller.TakeHolding(b.symbol, qty); err != nil {
		return err
	}
	if err := seller.AddBalance(amount); err != nil {
		return err
	}
	if err := buyer.TakeBalance(amount); err != nil {
		return err
	}
	if err := buyer.AddHolding(b.symbol, qty); err != nil {
		return err
	}
	return nil
}

// Cancel removes the resting order with the given id. Fails with
// ErrOrderNotFound if no such id is currently resting.
func (b *Book) Cancel(id order.ID) error {
	loc, ok := b.resting[id]
	if !ok {
		return ErrOrderNotFound
	}

	s := b.sideOf(loc.orderSide)
	lvl, ok := s.GetMut(&priceLevel{price: loc.price})
	if !ok {
		return ErrOrderNotFound
	}

	idx := -1
	for i, ro := range lvl.orders {
		if ro.order.ID() == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrOrderNotFound
	}

	lvl.orders = append(lvl.orders[:idx], lvl.orders[idx+1:]...)
	delete(b.resting, id)
	if len(lvl.orders) == 0 {
		s.Delete(lvl)
	}
	return nil
}
