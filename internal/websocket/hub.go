package websocket

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/dom/squad-roster/internal/domain"
)

// Hub tracks connected clients and fans state changes out to all of them.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	changes    chan *domain.AppState
	stop       chan struct{}
	done       chan struct{} // closed when Run() exits
	stopped    bool
	roster     Roster
	emitter    *EventEmitter
	log        logrus.FieldLogger
	mu         sync.RWMutex
}

func NewHub(roster Roster, log logrus.FieldLogger) *Hub {
	if log == nil {
		log = logrus.New()
	}
	h := &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		changes:    make(chan *domain.AppState, 16),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		roster:     roster,
		log:        log,
	}
	h.emitter = NewEventEmitter(h)
	return h
}

func (h *Hub) Run() {
	defer close(h.done) // Signal that Run() has exited

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			h.stopped = true
			for client := range h.clients {
				client.Close()
			}
			h.clients = make(map[*Client]bool)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if !h.stopped {
				h.clients[client] = true
			}
			h.mu.Unlock()
			h.emitter.StateSync(client, h.roster.State())
			h.log.WithField("client", client.id.String()).Debug("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if !h.stopped {
				if _, ok := h.clients[client]; ok {
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mu.Unlock()

		case state := <-h.changes:
			h.emitter.StateChanged(state)
		}
	}
}

// Stop gracefully shuts down the hub and closes every client.
// It blocks until Run has exited.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	close(h.stop)
	<-h.done // Wait for Run() to finish
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

// Unregister safely unregisters a client, handling the case where the hub may be stopped.
func (h *Hub) Unregister(client *Client) {
	h.mu.RLock()
	stopped := h.stopped
	h.mu.RUnlock()

	if stopped {
		return
	}

	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// BroadcastState queues a state change for every client. It is meant to be
// registered as a roster change listener.
func (h *Hub) BroadcastState(state *domain.AppState) {
	select {
	case h.changes <- state:
	case <-h.done:
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
