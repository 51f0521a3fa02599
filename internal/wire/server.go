package wire

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"limitbook/internal/order"
)

const (
	maxRecvSize     = 4 * 1024
	defaultWorkers  = 10
	defaultReadWait = time.Second
)

var ErrImproperConversion = errors.New("wire: improper type conversion")

// Driver is the subset of engine.Engine the wire server needs. Declared
// here, at the consumer, so this package does not depend on engine's
// concrete type.
type Driver interface {
	PlaceOrder(symbol string, side order.Side, price, qty *big.Int, owner uuid.UUID) (order.ID, error)
	CancelOrder(symbol string, id order.ID) error
	Top(symbol string) (bestBid, bestAsk *big.Int, err error)
	LastTradedPrice(symbol string) (*big.Int, bool, error)
}

type clientSession struct {
	conn net.Conn
}

// Server accepts TCP connections, decodes wire messages, and drives a
// Driver on their behalf. It is the external command interface the core
// matching book never depends on.
type Server struct {
	address string
	port    int
	driver  Driver

	pool   WorkerPool
	cancel context.CancelFunc

	sessionsMu sync.Mutex
	sessions   map[string]clientSession
}

// New constructs a wire server listening on address:port, driving driver.
func New(address string, port int, driver Driver) *Server {
	return &Server{
		address:  address,
		port:     port,
		driver:   driver,
		pool:     NewWorkerPool(defaultWorkers),
		sessions: make(map[string]clientSession),
	}
}

// Shutdown cancels the server's context, unwinding its worker pool and
// session handler.
func (s *Server) Shutdown() {
	log.Info().Msg("wire server shutting down")
	if s.cancel != nil {
		s.cancel()
	}
}

// Run listens and serves until ctx is cancelled or a fatal error occurs.
func (s *Server) Run(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)
	defer s.Shutdown()

	t, ctx := tomb.WithContext(ctx)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.address, s.port))
	if err != nil {
		return fmt.Errorf("wire: listen: %w", err)
	}
	defer listener.Close()

	// Unblock Accept once ctx is done so the loop below can return.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	t.Go(func() error {
		s.pool.Setup(t, s.handleConnection)
		return nil
	})

	log.Info().Str("address", s.address).Int("port", s.port).Msg("wire server running")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			conn, err := listener.Accept()
			if err != nil {
				log.Error().Err(err).Msg("accept failed")
				continue
			}
			s.addSession(conn)
			s.pool.AddTask(conn)
		}
	}
}

func (s *Server) addSession(conn net.Conn) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	s.sessions[conn.RemoteAddr().String()] = clientSession{conn: conn}
}

func (s *Server) deleteSession(address string) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	delete(s.sessions, address)
}

// handleConnection reads exactly one message off conn, actions it, and
// writes back a Report before re-queuing the connection for its next
// message. Any error returned here is fatal to the worker pool's tomb.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return ErrImproperConversion
	}

	if err := conn.SetDeadline(time.Now().Add(defaultReadWait)); err != nil {
		log.Error().Err(err).Msg("failed setting read deadline")
		conn.Close()
		s.deleteSession(conn.RemoteAddr().String())
		return nil
	}

	select {
	case <-t.Dying():
		conn.Close()
		return nil
	default:
	}

	buf := make([]byte, maxRecvSize)
	n, err := conn.Read(buf)
	if err != nil {
		s.deleteSession(conn.RemoteAddr().String())
		conn.Close()
		return nil
	}

	msg, err := Parse(buf[:n])
	if err != nil {
		s.reply(conn, Report{Type: ErrorReport, Err: err.Error()})
		s.pool.AddTask(conn)
		return nil
	}

	report := s.handleMessage(msg)
	s.reply(conn, report)
	s.pool.AddTask(conn)
	return nil
}

func (s *Server) reply(conn net.Conn, report Report) {
	if _, err := conn.Write(report.Serialize()); err != nil {
		log.Error().Err(err).Str("address", conn.RemoteAddr().String()).Msg("failed writing report")
	}
}

func (s *Server) handleMessage(msg ClientMessage) Report {
	switch msg.Type {
	case NewOrder:
		id, err := s.driver.PlaceOrder(msg.New.Symbol, msg.New.Side, msg.New.Price, msg.New.Qty, msg.New.Owner)
		if err != nil {
			return Report{Type: ErrorReport, Err: err.Error()}
		}
		return Report{Type: ExecutionReport, OrderID: id}

	case CancelOrder:
		if err := s.driver.CancelOrder(msg.Cancel.Symbol, msg.Cancel.OrderID); err != nil {
			return Report{Type: ErrorReport, Err: err.Error()}
		}
		return Report{Type: ExecutionReport, OrderID: msg.Cancel.OrderID}

	case Query:
		bestBid, bestAsk, err := s.driver.Top(msg.QueryOf.Symbol)
		if err != nil {
			return Report{Type: ErrorReport, Err: err.Error()}
		}
		ltp, traded, err := s.driver.LastTradedPrice(msg.QueryOf.Symbol)
		if err != nil {
			return Report{Type: ErrorReport, Err: err.Error()}
		}
		return Report{Type: ExecutionReport, BestBid: bestBid, BestAsk: bestAsk, LTP: ltp, Traded: traded}

	default:
		return Report{Type: ErrorReport, Err: ErrInvalidMessageType.Error()}
	}
}
