package transport

import (
	"fmt"
	"net"

	"github.com/kryptic-exchange/matchcore/internal/domain"
)

// Client is a blocking, single-connection client for cmd/client and tests
// to exercise the Engine surface over the wire (spec §6.1).
type Client struct {
	conn net.Conn
}

// Dial opens a connection to a transport Server at address ("host:port").
func Dial(address string) (*Client, error) {
	conn, err := net.Dial("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }

// Submit sends a submission request and waits for its response.
func (c *Client) Submit(req domain.SubmitRequest) (domain.SubmitResult, error) {
	if err := writeFrame(c.conn, EncodeSubmitRequest(req)); err != nil {
		return domain.SubmitResult{}, err
	}
	frame, err := readFrame(c.conn)
	if err != nil {
		return domain.SubmitResult{}, err
	}
	result, ok, err := decodeSubmitResponse(frame)
	if err != nil {
		return result, err
	}
	if !ok {
		return result, fmt.Errorf("submit rejected: %s", result.RejectReason)
	}
	return result, nil
}

// Cancel sends a cancel request and waits for its response.
func (c *Client) Cancel(symbol, orderID string) (bool, error) {
	if err := writeFrame(c.conn, EncodeCancelRequest(symbol, orderID)); err != nil {
		return false, err
	}
	frame, err := readFrame(c.conn)
	if err != nil {
		return false, err
	}
	ok, found, err := decodeCancelResponse(frame)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, fmt.Errorf("cancel rejected")
	}
	return found, nil
}

// Snapshot requests a book depth snapshot.
func (c *Client) Snapshot(symbol string, depth int) (domain.BookSnapshot, error) {
	if err := writeFrame(c.conn, EncodeSnapshotRequest(symbol, depth)); err != nil {
		return domain.BookSnapshot{}, err
	}
	frame, err := readFrame(c.conn)
	if err != nil {
		return domain.BookSnapshot{}, err
	}
	snap, ok, err := decodeSnapshotResponse(frame)
	if err != nil {
		return snap, err
	}
	if !ok {
		return snap, fmt.Errorf("snapshot rejected")
	}
	return snap, nil
}

// BBO requests the current best bid/offer.
func (c *Client) BBO(symbol string) (domain.BBOSnapshot, error) {
	if err := writeFrame(c.conn, EncodeBBORequest(symbol)); err != nil {
		return domain.BBOSnapshot{}, err
	}
	frame, err := readFrame(c.conn)
	if err != nil {
		return domain.BBOSnapshot{}, err
	}
	bbo, ok, err := decodeBBOResponse(frame)
	if err != nil {
		return bbo, err
	}
	if !ok {
		return bbo, fmt.Errorf("bbo rejected")
	}
	return bbo, nil
}

// RecentTrades requests up to limit of the most recent trades, newest
// first.
func (c *Client) RecentTrades(symbol string, limit int) ([]domain.Trade, error) {
	if err := writeFrame(c.conn, EncodeRecentTradesRequest(symbol, limit)); err != nil {
		return nil, err
	}
	frame, err := readFrame(c.conn)
	if err != nil {
		return nil, err
	}
	trades, ok, err := decodeRecentTradesResponse(frame)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("recent trades rejected")
	}
	return trades, nil
}
