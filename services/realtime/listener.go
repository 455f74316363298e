package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// ChangeEvent is one row-change notification emitted by the database
// triggers: which table changed, how, and for which tenant and entity.
type ChangeEvent struct {
	Table    string    `json:"table"`
	Op       string    `json:"op"`
	TenantID uuid.UUID `json:"tenant_id"`
	EntityID uuid.UUID `json:"entity_id"`
}

// Handler consumes change events. Handlers must be idempotent: the feed may
// deliver duplicates, and after a reconnect events may be missing entirely
// (subscribers get a reset callback instead).
type Handler func(event ChangeEvent)

// Listener bridges Postgres LISTEN/NOTIFY to in-process subscribers. Used to
// invalidate cached aggregates per affected tenant instead of refetching
// everything on every change.
type Listener struct {
	pql     *pq.Listener
	channel string
	logger  *zap.Logger

	mu          sync.RWMutex
	handlers    map[string][]Handler // keyed by table name; "" matches all
	onReconnect []func()
}

const (
	minReconnectInterval = 10 * time.Second
	maxReconnectInterval = time.Minute
	pingInterval         = 90 * time.Second
)

// NewListener creates a listener on the given notification channel
func NewListener(dsn, channel string, logger *zap.Logger) *Listener {
	l := &Listener{
		channel:  channel,
		logger:   logger,
		handlers: make(map[string][]Handler),
	}

	l.pql = pq.NewListener(dsn, minReconnectInterval, maxReconnectInterval, func(event pq.ListenerEventType, err error) {
		if err != nil {
			logger.Error("listener connection event", zap.Int("event", int(event)), zap.Error(err))
		}
	})
	return l
}

// Subscribe registers a handler for one table's change events. An empty
// table subscribes to every event.
func (l *Listener) Subscribe(table string, handler Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers[table] = append(l.handlers[table], handler)
}

// OnReconnect registers a callback invoked when the connection is
// re-established. Notifications sent while disconnected are lost, so
// subscribers must treat a reconnect as "anything may have changed".
func (l *Listener) OnReconnect(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onReconnect = append(l.onReconnect, fn)
}

// Start listens on the channel and dispatches notifications until the
// context is cancelled. Blocks; run in its own goroutine.
func (l *Listener) Start(ctx context.Context) error {
	if err := l.pql.Listen(l.channel); err != nil {
		return err
	}
	l.logger.Info("realtime listener started", zap.String("channel", l.channel))

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	defer l.pql.Close()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("stopping realtime listener")
			return nil

		case n := <-l.pql.Notify:
			if n == nil {
				// nil notification marks a reconnect; buffered events were lost
				l.logger.Warn("listener reconnected, resetting subscribers")
				l.fireReconnect()
				continue
			}
			l.dispatch(n.Extra)

		case <-ping.C:
			if err := l.pql.Ping(); err != nil {
				l.logger.Error("listener ping failed", zap.Error(err))
			}
		}
	}
}

func (l *Listener) dispatch(payload string) {
	var event ChangeEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		l.logger.Error("failed to decode change notification",
			zap.Error(err),
			zap.String("payload", payload))
		return
	}

	l.mu.RLock()
	handlers := append([]Handler(nil), l.handlers[event.Table]...)
	handlers = append(handlers, l.handlers[""]...)
	l.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}

	l.logger.Debug("change event dispatched",
		zap.String("table", event.Table),
		zap.String("op", event.Op),
		zap.String("tenant_id", event.TenantID.String()))
}

func (l *Listener) fireReconnect() {
	l.mu.RLock()
	callbacks := append([]func(){}, l.onReconnect...)
	l.mu.RUnlock()

	for _, fn := range callbacks {
		fn()
	}
}
