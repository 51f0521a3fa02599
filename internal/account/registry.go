package account

import (
	"errors"
	"math/big"
	"sync"

	"github.com/google/uuid"
)

// ErrAccountNotFound is returned by Registry.Lookup when no account with
// the given id exists.
var ErrAccountNotFound = errors.New("account: not found")

// Registry is the arena of accounts a driver owns for the lifetime of a
// process. Orders reference accounts by ID; a Book resolves that ID
// through a Registry at fill time rather than holding a live pointer
// directly, so settlement never depends on the submitter retaining a
// handle. A Registry also doubles as the "account provider" collaborator
// the core treats as external: it is the only place new value (funding)
// enters the system.
type Registry struct {
	mu       sync.Mutex
	accounts map[ID]*Account
}

// NewRegistry constructs an empty account arena.
func NewRegistry() *Registry {
	return &Registry{accounts: make(map[ID]*Account)}
}

// Open creates and registers a new account with the given starting
// balance under a freshly allocated ID, returning the new account.
func (r *Registry) Open(name string, balance *big.Int) *Account {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.New()
	acct := New(id, name, balance)
	r.accounts[id] = acct
	return acct
}

// Lookup resolves an account ID to its live Account, failing with
// ErrAccountNotFound if the registry holds no such account.
func (r *Registry) Lookup(id ID) (*Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acct, ok := r.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return acct, nil
}

// Fund credits amount to an existing account's cash balance, outside of
// any trade. This is how value enters the system; the matching engine
// itself never mints balance or holdings.
func (r *Registry) Fund(id ID, amount *big.Int) error {
	acct, err := r.Lookup(id)
	if err != nil {
		return err
	}
	return acct.AddBalance(amount)
}

// Credit deposits amount of symbol into an existing account's holdings,
// outside of any trade.
func (r *Registry) Credit(id ID, symbol string, amount *big.Int) error {
	acct, err := r.Lookup(id)
	if err != nil {
		return err
	}
	return acct.AddHolding(symbol, amount)
}
