package subscribe

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ecashkit/cashu"
)

// WSTransport is the minimal WebSocket surface a Manager needs: send a
// JSON-RPC frame, and receive a stream of decoded frames from the server
// until the connection closes or ctx is canceled. A real implementation
// wraps a gorilla/websocket (or nhooyr.io/websocket) connection; tests use
// an in-memory fake.
type WSTransport interface {
	Send(ctx context.Context, frame interface{}) error
	Recv(ctx context.Context) (json.RawMessage, error)
	Close() error
}

// Handle is a live subscription: Notifications delivers payloads as they
// arrive, and Cancel unsubscribes and releases the handle. The channel is
// closed when the manager's read loop exits (transport closed, or Cancel
// called), so a range over Notifications() always terminates.
type Handle struct {
	subID string
	kind  Kind
	ch    chan json.RawMessage
	mgr   *Manager
}

// Notifications returns the channel of raw, Kind-specific payloads
// pushed for this subscription.
func (h *Handle) Notifications() <-chan json.RawMessage { return h.ch }

// Cancel unsubscribes from the mint and stops delivering notifications to
// this handle.
func (h *Handle) Cancel(ctx context.Context) error {
	return h.mgr.unsubscribe(ctx, h)
}

// Manager multiplexes one WebSocket connection across many live
// subscriptions, matching each inbound notification to its handle by
// subId and fanning requests out with fresh, monotonically increasing
// JSON-RPC ids.
type Manager struct {
	transport WSTransport

	mu      sync.Mutex
	nextID  int
	pending map[int]chan Response
	subs    map[string]*Handle
}

// NewManager wraps transport in a Manager. Callers must call Run in a
// goroutine before any subscription will receive notifications.
func NewManager(transport WSTransport) *Manager {
	return &Manager{
		transport: transport,
		pending:   make(map[int]chan Response),
		subs:      make(map[string]*Handle),
	}
}

// Run pumps the transport's inbound frames until ctx is canceled or the
// transport errors, dispatching responses to waiting callers and
// notifications to their subscription handles. It returns when the read
// loop ends, closing every live handle's channel.
func (m *Manager) Run(ctx context.Context) error {
	defer m.closeAll()
	for {
		raw, err := m.transport.Recv(ctx)
		if err != nil {
			return err
		}
		m.dispatch(raw)
	}
}

func (m *Manager) dispatch(raw json.RawMessage) {
	var probe struct {
		ID     *int   `json:"id"`
		Method string `json:"method"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return
	}

	if probe.Method == "subscribe" || probe.Method == "" && probe.ID == nil {
		var note Notification
		if err := json.Unmarshal(raw, &note); err != nil {
			return
		}
		m.mu.Lock()
		h, ok := m.subs[note.Params.SubID]
		m.mu.Unlock()
		if ok {
			select {
			case h.ch <- note.Params.Payload:
			default:
			}
		}
		return
	}

	if probe.ID != nil {
		var resp Response
		if err := json.Unmarshal(raw, &resp); err != nil {
			return
		}
		m.mu.Lock()
		ch, ok := m.pending[*probe.ID]
		delete(m.pending, *probe.ID)
		m.mu.Unlock()
		if ok {
			ch <- resp
		}
	}
}

func (m *Manager) closeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.subs {
		close(h.ch)
	}
	m.subs = make(map[string]*Handle)
}

func (m *Manager) call(ctx context.Context, method string, params interface{}) (Response, error) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	replyCh := make(chan Response, 1)
	m.pending[id] = replyCh
	m.mu.Unlock()

	frame := Request{JSONRPC: "2.0", ID: id, Method: method, Params: params}
	if err := m.transport.Send(ctx, frame); err != nil {
		m.mu.Lock()
		delete(m.pending, id)
		m.mu.Unlock()
		return Response{}, err
	}

	select {
	case resp := <-replyCh:
		if resp.Error != nil {
			return resp, cashu.NewTransportError(0, resp.Error.Message, fmt.Errorf("rpc error %d", resp.Error.Code))
		}
		return resp, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

// Subscribe opens a subscription for kind over filters (quote ids or
// proof Y points depending on kind) and returns a live Handle.
func (m *Manager) Subscribe(ctx context.Context, kind Kind, filters []string) (*Handle, error) {
	subID := uuid.NewString()
	h := &Handle{subID: subID, kind: kind, ch: make(chan json.RawMessage, 16), mgr: m}

	m.mu.Lock()
	m.subs[subID] = h
	m.mu.Unlock()

	_, err := m.call(ctx, "subscribe", SubscribeParams{Kind: kind, Filters: filters, SubID: subID})
	if err != nil {
		m.mu.Lock()
		delete(m.subs, subID)
		m.mu.Unlock()
		return nil, err
	}
	return h, nil
}

func (m *Manager) unsubscribe(ctx context.Context, h *Handle) error {
	_, err := m.call(ctx, "unsubscribe", UnsubscribeParams{SubID: h.subID})
	m.mu.Lock()
	_, live := m.subs[h.subID]
	delete(m.subs, h.subID)
	m.mu.Unlock()
	// closeAll may have already closed the channel if the read loop exited
	// between the caller's Cancel and here.
	if live {
		close(h.ch)
	}
	return err
}
