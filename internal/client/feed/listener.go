package feed

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/godivatech/contentsync/pkg/api"
)

// Параметры переподключения слушателя
const (
	reconnectBase = time.Second
	reconnectMax  = 30 * time.Second
)

// Listener держит websocket-соединение с change feed сервера и отдаёт
// входящие события реконсилятору. Разрыв соединения лечится повторным
// подключением с экспоненциальной задержкой; после восстановления
// планируется пересинхронизация отслеживаемых коллекций, потому что
// события за время разрыва потеряны безвозвратно.
type Listener struct {
	reconciler  *Reconciler
	logger      *slog.Logger
	feedURL     string
	collections []string
}

// NewListener создает слушатель change feed. collections — коллекции,
// которые пересинхронизируются после восстановления соединения.
func NewListener(baseURL string, reconciler *Reconciler, collections []string, logger *slog.Logger) (*Listener, error) {
	feedURL, err := feedEndpoint(baseURL)
	if err != nil {
		return nil, err
	}
	return &Listener{
		feedURL:     feedURL,
		reconciler:  reconciler,
		collections: collections,
		logger:      logger,
	}, nil
}

// Run блокирует до отмены контекста, поддерживая соединение живым
func (l *Listener) Run(ctx context.Context) {
	delay := reconnectBase
	connectedBefore := false

	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, l.feedURL, nil)
		if err != nil {
			l.logger.Warn("feed connection failed", "url", l.feedURL, "retry_in", delay, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			delay = nextDelay(delay)
			continue
		}

		l.logger.Info("feed connected", "url", l.feedURL)
		delay = reconnectBase

		if connectedBefore {
			// Пока соединения не было, события терялись
			for _, collection := range l.collections {
				l.reconciler.Schedule(collection)
			}
		}
		connectedBefore = true

		l.readLoop(ctx, conn)
	}
}

// readLoop читает события до разрыва соединения или отмены контекста
func (l *Listener) readLoop(ctx context.Context, conn *websocket.Conn) {
	// Отмена контекста рвёт блокирующее чтение закрытием соединения
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	defer func() {
		_ = conn.Close()
	}()

	for {
		var msg api.ChangeMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() == nil {
				l.logger.Warn("feed connection lost", "error", err)
			}
			return
		}
		l.reconciler.Apply(msg)
	}
}

// feedEndpoint превращает базовый HTTP URL в websocket URL эндпоинта feed
func feedEndpoint(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/v1/feed"
	return u.String(), nil
}

func nextDelay(d time.Duration) time.Duration {
	d *= 2
	if d > reconnectMax {
		return reconnectMax
	}
	return d
}
