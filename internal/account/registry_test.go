package account

import (
	"math/big"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_OpenAndLookup(t *testing.T) {
	reg := NewRegistry()
	acct := reg.Open("Acct1", big.NewInt(2500))

	found, err := reg.Lookup(acct.ID())
	require.NoError(t, err)
	assert.Same(t, acct, found)
}

func TestRegistry_LookupMissing(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Lookup(uuid.New())
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestRegistry_Fund(t *testing.T) {
	reg := NewRegistry()
	acct := reg.Open("Acct1", big.NewInt(0))

	require.NoError(t, reg.Fund(acct.ID(), big.NewInt(500)))
	assert.Equal(t, big.NewInt(500), acct.Balance())
}

func TestRegistry_Credit(t *testing.T) {
	reg := NewRegistry()
	acct := reg.Open("Acct2", big.NewInt(0))

	require.NoError(t, reg.Credit(acct.ID(), "VOC", big.NewInt(20)))
	h, ok := acct.Holding("VOC")
	require.True(t, ok)
	assert.Equal(t, big.NewInt(20), h)
}
