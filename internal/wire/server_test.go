package wire

import (
	"errors"
	"math/big"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"limitbook/internal/order"
)

type stubDriver struct {
	placeID  order.ID
	placeErr error
	cancelErr error
	bestBid, bestAsk, ltp *big.Int
	traded   bool
	topErr   error
}

func (s *stubDriver) PlaceOrder(symbol string, side order.Side, price, qty *big.Int, owner uuid.UUID) (order.ID, error) {
	return s.placeID, s.placeErr
}

func (s *stubDriver) CancelOrder(symbol string, id order.ID) error {
	return s.cancelErr
}

func (s *stubDriver) Top(symbol string) (*big.Int, *big.Int, error) {
	return s.bestBid, s.bestAsk, s.topErr
}

func (s *stubDriver) LastTradedPrice(symbol string) (*big.Int, bool, error) {
	return s.ltp, s.traded, s.topErr
}

func TestHandleMessage_NewOrder_Success(t *testing.T) {
	wantID := uuid.New()
	srv := &Server{driver: &stubDriver{placeID: wantID}}

	report := srv.handleMessage(ClientMessage{
		Type: NewOrder,
		New: NewOrderMessage{
			Symbol: "VOC", Side: order.Bid,
			Price: big.NewInt(10), Qty: big.NewInt(1), Owner: uuid.New(),
		},
	})

	assert.Equal(t, ExecutionReport, report.Type)
	assert.Equal(t, wantID, report.OrderID)
}

func TestHandleMessage_NewOrder_Failure(t *testing.T) {
	srv := &Server{driver: &stubDriver{placeErr: errors.New("boom")}}

	report := srv.handleMessage(ClientMessage{Type: NewOrder, New: NewOrderMessage{Symbol: "VOC"}})
	require.Equal(t, ErrorReport, report.Type)
	assert.Equal(t, "boom", report.Err)
}

func TestHandleMessage_Cancel(t *testing.T) {
	srv := &Server{driver: &stubDriver{cancelErr: errors.New("not found")}}

	report := srv.handleMessage(ClientMessage{Type: CancelOrder, Cancel: CancelOrderMessage{Symbol: "VOC"}})
	assert.Equal(t, ErrorReport, report.Type)
}

func TestHandleMessage_Query(t *testing.T) {
	srv := &Server{driver: &stubDriver{bestBid: big.NewInt(100), bestAsk: big.NewInt(101), ltp: big.NewInt(100), traded: true}}

	report := srv.handleMessage(ClientMessage{Type: Query, QueryOf: QueryMessage{Symbol: "VOC"}})
	require.Equal(t, ExecutionReport, report.Type)
	assert.Equal(t, big.NewInt(100), report.BestBid)
	assert.Equal(t, big.NewInt(101), report.BestAsk)
	assert.True(t, report.Traded)
}
