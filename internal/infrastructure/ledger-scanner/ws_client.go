package ledger_scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/armagg/coin-payments/internal/core/domain"
	"github.com/armagg/coin-payments/internal/core/ports"
)

// wsClient is a single websocket connection to a ledger server. Requests are
// correlated by id; server-pushed "transaction" messages are forwarded to the
// notify callback. Once the read loop observes a broken connection every
// pending and future call fails with domain.ErrTransportDisconnected.
type wsClient struct {
	conn    *websocket.Conn
	nextId  uint64
	pending map[uint64]chan response
	closed  bool
	notify  func(payment ports.LedgerPayment)
	lock    sync.Mutex

	log  func(format string, a ...interface{})
	warn func(err error, format string, a ...interface{})
}

func newWSClient(
	ctx context.Context, addr string, notify func(ports.LedgerPayment),
) (*wsClient, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrTransportDisconnected, err)
	}

	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("ledger scanner: %s", format)
		log.Debugf(format, a...)
	}
	warnFn := func(err error, format string, a ...interface{}) {
		format = fmt.Sprintf("ledger scanner: %s", format)
		log.WithError(err).Warnf(format, a...)
	}

	client := &wsClient{
		conn:    conn,
		pending: make(map[uint64]chan response),
		notify:  notify,
		log:     logFn,
		warn:    warnFn,
	}
	go client.listen()
	return client, nil
}

func (c *wsClient) listen() {
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			c.dropPending(err)
			return
		}

		var resp response
		if err := json.Unmarshal(msg, &resp); err != nil {
			c.warn(err, "discarding unparsable message from socket")
			continue
		}

		if resp.Type == "transaction" {
			var payment paymentJSON
			if err := json.Unmarshal(resp.Result, &payment); err != nil {
				c.warn(err, "discarding unparsable pushed transaction")
				continue
			}
			if c.notify != nil {
				c.notify(payment.toPayment())
			}
			continue
		}

		c.lock.Lock()
		ch, ok := c.pending[resp.Id]
		if ok {
			delete(c.pending, resp.Id)
		}
		c.lock.Unlock()
		if ok {
			ch <- resp
		}
	}
}

// call performs one request/response round-trip on the connection.
func (c *wsClient) call(
	ctx context.Context, command string, params map[string]interface{},
	result interface{},
) error {
	c.lock.Lock()
	if c.closed {
		c.lock.Unlock()
		return domain.ErrTransportDisconnected
	}
	c.nextId++
	id := c.nextId
	ch := make(chan response, 1)
	c.pending[id] = ch

	req := request{Id: id, Command: command, Params: params}
	if err := c.conn.WriteJSON(req); err != nil {
		delete(c.pending, id)
		c.lock.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrTransportDisconnected, err)
	}
	c.lock.Unlock()

	select {
	case <-ctx.Done():
		c.lock.Lock()
		delete(c.pending, id)
		c.lock.Unlock()
		return ctx.Err()
	case resp, ok := <-ch:
		if !ok {
			return domain.ErrTransportDisconnected
		}
		if err := resp.error(); err != nil {
			return fmt.Errorf("%w: %s", domain.ErrServerError, err)
		}
		if result != nil && len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("unexpected result for %s: %s", command, err)
			}
		}
		return nil
	}
}

// dropPending fails every in-flight request and marks the client unusable.
func (c *wsClient) dropPending(cause error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.warn(cause, "connection dropped")
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}

func (c *wsClient) isClosed() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.closed
}

func (c *wsClient) close() {
	c.conn.Close()
	c.dropPending(fmt.Errorf("closed by caller"))
}
