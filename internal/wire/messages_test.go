package wire

import (
	"math/big"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"limitbook/internal/order"
)

func TestNewOrderMessage_RoundTrip(t *testing.T) {
	owner := uuid.New()
	msg := NewOrderMessage{
		Symbol: "VOC",
		Side:   order.Bid,
		Price:  big.NewInt(125),
		Qty:    big.NewInt(20),
		Owner:  owner,
	}

	raw, err := msg.MarshalBinary()
	require.NoError(t, err)

	parsed, err := Parse(raw)
	require.NoError(t, err)
	require.Equal(t, NewOrder, parsed.Type)

	assert.Equal(t, "VOC", parsed.New.Symbol)
	assert.Equal(t, order.Bid, parsed.New.Side)
	assert.Equal(t, big.NewInt(125), parsed.New.Price)
	assert.Equal(t, big.NewInt(20), parsed.New.Qty)
	assert.Equal(t, owner, parsed.New.Owner)
}

func TestCancelOrderMessage_RoundTrip(t *testing.T) {
	id := uuid.New()
	msg := CancelOrderMessage{Symbol: "VOC", OrderID: id}

	raw, err := msg.MarshalBinary()
	require.NoError(t, err)

	parsed, err := Parse(raw)
	require.NoError(t, err)
	require.Equal(t, CancelOrder, parsed.Type)
	assert.Equal(t, "VOC", parsed.Cancel.Symbol)
	assert.Equal(t, id, parsed.Cancel.OrderID)
}

func TestQueryMessage_RoundTrip(t *testing.T) {
	msg := QueryMessage{Symbol: "MSFT"}
	raw, err := msg.MarshalBinary()
	require.NoError(t, err)

	parsed, err := Parse(raw)
	require.NoError(t, err)
	require.Equal(t, Query, parsed.Type)
	assert.Equal(t, "MSFT", parsed.QueryOf.Symbol)
}

func TestParse_TooShort(t *testing.T) {
	_, err := Parse([]byte{0})
	assert.ErrorIs(t, err, ErrMessageTooShort)
}

func TestParse_InvalidType(t *testing.T) {
	_, err := Parse([]byte{0xFF, 0xFF})
	assert.ErrorIs(t, err, ErrInvalidMessageType)
}

func TestReport_Serialize_ExecutionWithQuotes(t *testing.T) {
	r := Report{
		Type:    ExecutionReport,
		BestBid: big.NewInt(100),
		BestAsk: big.NewInt(105),
		LTP:     big.NewInt(102),
		Traded:  true,
	}
	raw := r.Serialize()
	assert.NotEmpty(t, raw)
	assert.Equal(t, byte(ExecutionReport), raw[0])
}

func TestReport_Serialize_Error(t *testing.T) {
	r := Report{Type: ErrorReport, Err: "order not found"}
	raw := r.Serialize()
	assert.Equal(t, byte(ErrorReport), raw[0])
	assert.Contains(t, string(raw), "order not found")
}
