// Package feed раздаёт события изменения контента подключенным клиентам
// через websocket.
package feed

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/godivatech/contentsync/pkg/api"
)

const (
	// sendBuffer размер очереди сообщений одного клиента
	sendBuffer = 64
	// writeTimeout потолок времени записи одного сообщения
	writeTimeout = 10 * time.Second
)

// client представляет одно websocket-соединение
type client struct {
	conn *websocket.Conn
	send chan api.ChangeMessage
}

// Hub держит подключенных слушателей change feed и рассылает им события.
// Медленный клиент, не успевающий вычитывать свою очередь, отключается:
// один зависший подписчик не должен тормозить рассылку остальным.
type Hub struct {
	logger   *slog.Logger
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	mu       sync.Mutex
	closed   bool
}

// NewHub создает hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Клиенты админки приходят с произвольных origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP обрабатывает GET /api/v1/feed: апгрейд до websocket и
// регистрация клиента до разрыва соединения
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan api.ChangeMessage, sendBuffer),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("feed client connected", "remote_addr", r.RemoteAddr, "clients", total)

	go h.writeLoop(c)
	h.readLoop(c)
}

// Broadcast рассылает событие всем подключенным клиентам
func (h *Hub) Broadcast(msg api.ChangeMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// Очередь клиента переполнена — отключаем
			h.logger.Warn("dropping slow feed client")
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// ClientCount возвращает число подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close отключает всех клиентов и запрещает новые подключения
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// writeLoop переливает очередь клиента в соединение
func (h *Hub) writeLoop(c *client) {
	defer func() {
		_ = c.conn.Close()
	}()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteJSON(msg); err != nil {
			h.remove(c)
			return
		}
	}
}

// readLoop вычитывает входящие кадры до разрыва: клиент ничего не шлёт,
// но без чтения не обрабатываются control-кадры close/ping
func (h *Hub) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.remove(c)
			return
		}
	}
}

// remove убирает клиента из реестра
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		h.logger.Info("feed client disconnected", "clients", len(h.clients))
	}
	_ = c.conn.Close()
}
