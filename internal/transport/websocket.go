// SPDX-License-Identifier: MIT
package transport

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	applog "github.com/tkm427/spectrum-analyzer/internal/log"
)

// WebSocketTransport broadcasts band frames as JSON to every connected
// WebSocket client. Frames are dropped, not queued indefinitely, when the
// broadcast channel is full; a display consumer only ever wants the latest
// data.
type WebSocketTransport struct {
	addr      string
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan BandFrame
	done      chan struct{}
	stopOnce  sync.Once
	server    *http.Server
}

var _ Transport = (*WebSocketTransport)(nil)

// NewWebSocketTransport starts an HTTP server on addr serving the /ws
// endpoint and begins broadcasting.
func NewWebSocketTransport(addr string) *WebSocketTransport {
	t := &WebSocketTransport{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan BandFrame, 256),
		done:      make(chan struct{}),
	}
	t.start()
	return t
}

func (t *WebSocketTransport) start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", t.handleWebSocket)
	t.server = &http.Server{Addr: t.addr, Handler: mux}

	go func() {
		applog.Infof("WebSocket: serving on %s", t.addr)
		if err := t.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			applog.Errorf("WebSocket: server error: %v", err)
		}
	}()
	go t.handleBroadcasts()
}

func (t *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Errorf("WebSocket: upgrade error: %v", err)
		return
	}

	t.clientsMu.Lock()
	t.clients[conn] = true
	total := len(t.clients)
	t.clientsMu.Unlock()
	applog.Infof("WebSocket: client connected, total: %d", total)

	go func() {
		// Block until the client goes away.
		if _, _, err := conn.ReadMessage(); err != nil {
			t.clientsMu.Lock()
			delete(t.clients, conn)
			total := len(t.clients)
			t.clientsMu.Unlock()
			conn.Close()
			applog.Infof("WebSocket: client disconnected, total: %d", total)
		}
	}()
}

func (t *WebSocketTransport) handleBroadcasts() {
	for {
		select {
		case <-t.done:
			return
		case frame := <-t.broadcast:
			t.clientsMu.Lock()
			for client := range t.clients {
				if err := client.WriteJSON(frame); err != nil {
					applog.Warnf("WebSocket: dropping client: %v", err)
					client.Close()
					delete(t.clients, client)
				}
			}
			t.clientsMu.Unlock()
		}
	}
}

// Send queues a frame for broadcast. A full queue drops the frame silently.
func (t *WebSocketTransport) Send(frame BandFrame) error {
	select {
	case t.broadcast <- frame:
	default:
	}
	return nil
}

// Close stops the broadcaster, disconnects all clients, and shuts the server
// down. Idempotent.
func (t *WebSocketTransport) Close() error {
	applog.Infof("WebSocket: closing server")

	t.stopOnce.Do(func() { close(t.done) })

	t.clientsMu.Lock()
	for client := range t.clients {
		client.Close()
	}
	t.clients = make(map[*websocket.Conn]bool)
	t.clientsMu.Unlock()

	if t.server != nil {
		return t.server.Close()
	}
	return nil
}
