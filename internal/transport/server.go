package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"github.com/kryptic-exchange/matchcore/internal/engine"
	"github.com/kryptic-exchange/matchcore/internal/workerpool"
)

const (
	defaultWorkers     = 10
	defaultConnTimeout = 5 * time.Second
)

// Server is the TCP front door for the Engine surface (spec §6.1).
// Grounded on the teacher's internal/net.Server: a tomb-supervised listener
// handing accepted connections to a worker pool. Simplified from the
// teacher's fire-and-forget message/report split into synchronous
// request/response per frame, since every Engine operation here already
// returns its result directly rather than being reported back out-of-band.
type Server struct {
	address string
	port    int
	engine  engine.Engine
	pool    *workerpool.Pool
	cancel  context.CancelFunc
}

// NewServer constructs a Server bound to address:port, dispatching every
// decoded request to eng.
func NewServer(address string, port int, eng engine.Engine) *Server {
	return &Server{
		address: address,
		port:    port,
		engine:  eng,
		pool:    workerpool.New(defaultWorkers),
	}
}

// Shutdown cancels the server's run context.
func (s *Server) Shutdown() {
	log.Info().Msg("transport server shutting down")
	if s.cancel != nil {
		s.cancel()
	}
}

// Run accepts connections until ctx is cancelled, handing each to the
// worker pool.
func (s *Server) Run(ctx context.Context) error {
	defer s.Shutdown()
	ctx, s.cancel = context.WithCancel(ctx)
	t, ctx := tomb.WithContext(ctx)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.address, s.port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	// Closing the listener once ctx is done unblocks a pending Accept.
	go func() {
		<-ctx.Done()
		if err := listener.Close(); err != nil {
			log.Error().Err(err).Msg("error closing listener")
		}
	}()

	t.Go(func() error {
		return s.pool.Run(t, s.handleConnection)
	})

	log.Info().Str("address", listener.Addr().String()).Msg("transport server running")

	for {
		select {
		case <-ctx.Done():
			return t.Wait()
		default:
			conn, err := listener.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return t.Wait()
				}
				log.Error().Err(err).Msg("error accepting client")
				continue
			}
			s.pool.AddTask(conn)
		}
	}
}

// handleConnection services one connection's request frames until it
// closes, errors, or the pool's tomb dies.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return fmt.Errorf("workerpool task was not a net.Conn")
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Debug().Err(err).Msg("error closing connection")
		}
	}()

	for {
		select {
		case <-t.Dying():
			return nil
		default:
		}

		if err := conn.SetDeadline(time.Now().Add(defaultConnTimeout)); err != nil {
			log.Error().Err(err).Msg("failed setting connection deadline")
			return nil
		}

		frame, err := readFrame(conn)
		if err != nil {
			if err != io.EOF {
				log.Debug().Err(err).Str("address", conn.RemoteAddr().String()).Msg("connection closed")
			}
			return nil
		}

		resp, err := s.dispatch(frame)
		if err != nil {
			log.Error().Err(err).Str("address", conn.RemoteAddr().String()).Msg("error dispatching request")
			return nil
		}

		if err := writeFrame(conn, resp); err != nil {
			log.Error().Err(err).Msg("error writing response")
			return nil
		}
	}
}

func (s *Server) dispatch(frame []byte) ([]byte, error) {
	req, err := decodeRequest(frame)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	switch req.Type {
	case MsgSubmit:
		submitReq, err := decodeSubmitRequest(req.Payload)
		if err != nil {
			return nil, err
		}
		result, err := s.engine.Submit(ctx, submitReq)
		return EncodeSubmitResponse(result, err), nil

	case MsgCancel:
		symbol, orderID, err := decodeCancelRequest(req.Payload)
		if err != nil {
			return nil, err
		}
		found, err := s.engine.Cancel(ctx, symbol, orderID)
		return EncodeCancelResponse(found, err), nil

	case MsgSnapshot:
		symbol, depth, err := decodeSnapshotRequest(req.Payload)
		if err != nil {
			return nil, err
		}
		snap, err := s.engine.Snapshot(symbol, depth)
		return EncodeSnapshotResponse(snap, err), nil

	case MsgBBO:
		symbol, err := decodeBBORequest(req.Payload)
		if err != nil {
			return nil, err
		}
		bbo, err := s.engine.BBO(symbol)
		return EncodeBBOResponse(bbo, err), nil

	case MsgRecentTrades:
		symbol, limit, err := decodeRecentTradesRequest(req.Payload)
		if err != nil {
			return nil, err
		}
		trades, err := s.engine.RecentTrades(symbol, limit)
		return EncodeRecentTradesResponse(trades, err), nil

	default:
		return nil, fmt.Errorf("unknown message type %d", req.Type)
	}
}
