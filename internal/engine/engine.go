// Package engine is the driver collaborator the core book spec treats as
// external: it owns one book per symbol, serializes submit/cancel
// against each, mints order ids, and logs state transitions.
package engine

import (
	"errors"
	"math/big"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"limitbook/internal/account"
	"limitbook/internal/book"
	"limitbook/internal/order"
)

// ErrUnknownSymbol is returned when an operation names a symbol the
// engine has no book for.
var ErrUnknownSymbol = errors.New("engine: unknown symbol")

// bookHandle pairs a book with the mutex that serializes access to it.
// Different symbols' books are independent and may be driven
// concurrently; operations against the same symbol are not.
type bookHandle struct {
	mu sync.Mutex
	b  *book.Book
}

// Engine routes submissions to the book for their symbol, allocates
// order ids, and owns the account registry every book settles against.
type Engine struct {
	Accounts *account.Registry

	mu    sync.RWMutex
	books map[string]*bookHandle
}

// New constructs an engine with one empty book per symbol.
func New(symbols ...string) *Engine {
	registry := account.NewRegistry()
	e := &Engine{
		Accounts: registry,
		books:    make(map[string]*bookHandle),
	}
	for _, symbol := range symbols {
		e.books[symbol] = &bookHandle{b: book.New(uuid.New(), symbol+" book", symbol, registry)}
	}
	log.Info().Strs("symbols", symbols).Msg("engine started")
	return e
}

func (e *Engine) handle(symbol string) (*bookHandle, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	h, ok := e.books[symbol]
	if !ok {
		return nil, ErrUnknownSymbol
	}
	return h, nil
}

// PlaceOrder allocates an id for a new limit order on symbol and submits
// it to that symbol's book. Returns the allocated order id so the caller
// can cancel later.
func (e *Engine) PlaceOrder(symbol string, side order.Side, price, qty *big.Int, owner account.ID) (order.ID, error) {
	h, err := e.handle(symbol)
	if err != nil {
		return order.ID{}, err
	}

	id := uuid.New()
	o := order.New(id, side, price, qty, owner)

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.b.Submit(o); err != nil {
		log.Error().Err(err).Str("symbol", symbol).Str("order", id.String()).Msg("submit failed")
		return order.ID{}, err
	}

	log.Info().
		Str("symbol", symbol).
		Str("order", id.String()).
		Str("side", side.String()).
		Str("price", price.String()).
		Str("qty", qty.String()).
		Msg("order placed")
	return id, nil
}

// CancelOrder removes a resting order from symbol's book.
func (e *Engine) CancelOrder(symbol string, id order.ID) error {
	h, err := e.handle(symbol)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.b.Cancel(id); err != nil {
		log.Error().Err(err).Str("symbol", symbol).Str("order", id.String()).Msg("cancel failed")
		return err
	}
	log.Info().Str("symbol", symbol).Str("order", id.String()).Msg("order cancelled")
	return nil
}

// Top returns the best bid and ask for symbol.
func (e *Engine) Top(symbol string) (bestBid, bestAsk *big.Int, err error) {
	h, err := e.handle(symbol)
	if err != nil {
		return nil, nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	bestBid, bestAsk = h.b.Top()
	return bestBid, bestAsk, nil
}

// LastTradedPrice returns the most recent trade price for symbol.
func (e *Engine) LastTradedPrice(symbol string) (*big.Int, bool, error) {
	h, err := e.handle(symbol)
	if err != nil {
		return nil, false, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	ltp, traded := h.b.LastTradedPrice()
	return ltp, traded, nil
}
