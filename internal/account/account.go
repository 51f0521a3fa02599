// Package account holds participant cash balances and asset holdings,
// mutated only through checked arithmetic.
package account

import (
	"errors"
	"math/big"

	"github.com/google/uuid"
)

// ID opaquely identifies an account, unique for the lifetime of the
// registry that issued it.
type ID = uuid.UUID

var (
	// ErrBalanceOutOfBounds covers both insufficient funds on a debit and
	// overflow past MaxMagnitude on a credit.
	ErrBalanceOutOfBounds = errors.New("account: balance out of bounds")
	// ErrHoldingOutOfBounds covers both insufficient holdings on a debit
	// and overflow past MaxMagnitude on a credit.
	ErrHoldingOutOfBounds = errors.New("account: holding out of bounds")
	// ErrAssetNotFound is returned when taking a holding in a symbol the
	// account does not carry at all.
	ErrAssetNotFound = errors.New("account: asset not found")
)

// MaxMagnitude is the largest value a checked credit may leave in a
// balance or holding.
// It stands in for the 128-bit representable range spec'd for a native
// fixed-width integer; big.Int has no natural overflow point of its own,
// so one is imposed here to keep "out of bounds" a meaningful, testable
// condition.
var MaxMagnitude = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// Account holds one participant's cash balance and per-symbol holdings.
// The checked operations never take a balance or holding below zero or
// credit one past MaxMagnitude. New does not check its starting balance,
// and AddHolding inserts a symbol the account does not yet carry without
// a bound check.
type Account struct {
	id       ID
	name     string
	balance  *big.Int
	holdings map[string]*big.Int
}

// New constructs an account with the given starting balance. balance must
// be non-negative and at most MaxMagnitude; callers (the account
// provider/driver) are expected to have validated this externally, as the
// engine never mints value.
func New(id ID, name string, balance *big.Int) *Account {
	b := new(big.Int).Set(balance)
	return &Account{
		id:       id,
		name:     name,
		balance:  b,
		holdings: make(map[string]*big.Int),
	}
}

// ID returns the account's identifier.
func (a *Account) ID() ID { return a.id }

// Name returns the account's display name.
func (a *Account) Name() string { return a.name }

// Balance returns the current cash balance. The returned value is a copy;
// mutating it does not affect the account.
func (a *Account) Balance() *big.Int {
	return new(big.Int).Set(a.balance)
}

// Holding returns the current quantity held in symbol, and whether the
// account carries that symbol at all. An absent symbol is reported as
// (nil, false) rather than a zero holding.
func (a *Account) Holding(symbol string) (*big.Int, bool) {
	h, ok := a.holdings[symbol]
	if !ok {
		return nil, false
	}
	return new(big.Int).Set(h), true
}

// AddBalance credits amount to the balance. Fails with
// ErrBalanceOutOfBounds if the result would exceed MaxMagnitude.
func (a *Account) AddBalance(amount *big.Int) error {
	sum := new(big.Int).Add(a.balance, amount)
	if sum.Cmp(MaxMagnitude) > 0 {
		return ErrBalanceOutOfBounds
	}
	a.balance = sum
	return nil
}

// TakeBalance debits amount from the balance. Fails with
// ErrBalanceOutOfBounds if amount exceeds the current balance.
func (a *Account) TakeBalance(amount *big.Int) error {
	if amount.Cmp(a.balance) > 0 {
		return ErrBalanceOutOfBounds
	}
	a.balance = new(big.Int).Sub(a.balance, amount)
	return nil
}

// AddHolding credits amount of symbol. If the account does not yet carry
// symbol, it is inserted with quantity amount. Otherwise fails with
// ErrHoldingOutOfBounds if the result would exceed MaxMagnitude.
func (a *Account) AddHolding(symbol string, amount *big.Int) error {
	current, ok := a.holdings[symbol]
	if !ok {
		a.holdings[symbol] = new(big.Int).Set(amount)
		return nil
	}
	sum := new(big.Int).Add(current, amount)
	if sum.Cmp(MaxMagnitude) > 0 {
		return ErrHoldingOutOfBounds
	}
	a.holdings[symbol] = sum
	return nil
}

// TakeHolding debits amount of symbol. Fails with ErrAssetNotFound if the
// account does not carry symbol, or ErrHoldingOutOfBounds if amount
// exceeds the current holding.
func (a *Account) TakeHolding(symbol string, amount *big.Int) error {
	current, ok := a.holdings[symbol]
	if !ok {
		return ErrAssetNotFound
	}
	if amount.Cmp(current) > 0 {
		return ErrHoldingOutOfBounds
	}
	a.holdings[symbol] = new(big.Int).Sub(current, amount)
	return nil
}

// canTakeBalance reports whether TakeBalance(amount) would succeed,
// without mutating the account. Used by the book's pre-validation pass
// so a fill either fully commits or fully rejects.
func (a *Account) canTakeBalance(amount *big.Int) bool {
	return amount.Cmp(a.balance) <= 0
}

// canTakeHolding reports whether TakeHolding(symbol, amount) would
// succeed, without mutating the account.
func (a *Account) canTakeHolding(symbol string, amount *big.Int) bool {
	current, ok := a.holdings[symbol]
	if !ok {
		return false
	}
	return amount.Cmp(current) <= 0
}

// CanSettle reports whether both legs of a fill are currently affordable:
// the buyer (taker or maker on the Bid side) must have amount of free
// cash, and the seller must hold qty of symbol. It never mutates either
// account. Callers should validate both accounts before mutating either,
// per the atomicity discipline for a single fill.
func CanSettle(buyer, seller *Account, symbol string, amount, qty *big.Int) bool {
	return buyer.canTakeBalance(amount) && seller.canTakeHolding(symbol, qty)
}
