package hub

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"interview-scheduler/internal/domain"
)

const TypeSetInterview = "SET_INTERVIEW"

const sendBufferSize = 32

// Event is a single appointment change. Interview is nil when the slot
// was cleared.
type Event struct {
	ID        int
	Interview *domain.Interview
}

type wireEvent struct {
	Type      string            `json:"type"`
	ID        int               `json:"id"`
	Interview *domain.Interview `json:"interview"`
}

// Client is one registered connection. The outbound channel is drained by
// a single writer goroutine owned by the transport layer and closed on
// unregister.
type Client struct {
	id string

	mu     sync.Mutex
	closed bool
	send   chan []byte
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) Outbound() <-chan []byte {
	return c.send
}

// Send enqueues payload without blocking. It reports false when the client
// is closed or its buffer is full.
func (c *Client) Send(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Hub owns the live client set. Broadcast is best-effort: a client that
// cannot keep up is dropped rather than allowed to block others.
type Hub struct {
	logger *slog.Logger

	mu      sync.Mutex
	clients map[*Client]struct{}
	closed  bool
}

func New(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:  logger.With(slog.String("component", "hub")),
		clients: make(map[*Client]struct{}),
	}
}

// Register adds a new client to the live set. There is no backlog replay;
// the client sees changes made after this call.
func (h *Hub) Register() *Client {
	c := &Client{
		id:   uuid.NewString(),
		send: make(chan []byte, sendBufferSize),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		c.close()
		return c
	}
	h.clients[c] = struct{}{}
	h.logger.Debug("client registered", slog.String("client_id", c.id), slog.Int("clients", len(h.clients)))
	return c
}

// Unregister removes the client and closes its outbound channel. Safe to
// call more than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(c)
}

// remove is called with h.mu held.
func (h *Hub) remove(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	c.close()
	h.logger.Debug("client unregistered", slog.String("client_id", c.id), slog.Int("clients", len(h.clients)))
}

// Broadcast serializes the event once and enqueues it for every live
// client. A client whose buffer is full is unregistered on the spot.
func (h *Hub) Broadcast(ev Event) {
	payload, err := json.Marshal(wireEvent{Type: TypeSetInterview, ID: ev.ID, Interview: ev.Interview})
	if err != nil {
		h.logger.Error("marshal event", slog.Any("err", err), slog.Int("appointment_id", ev.ID))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if !c.Send(payload) {
			h.logger.Warn("dropping slow client", slog.String("client_id", c.id))
			h.remove(c)
		}
	}
}

// AppointmentChanged satisfies the booking service's notifier.
func (h *Hub) AppointmentChanged(id int, interview *domain.Interview) {
	h.Broadcast(Event{ID: id, Interview: interview})
}

// CloseAll unregisters every client and refuses future registrations.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.remove(c)
	}
}
