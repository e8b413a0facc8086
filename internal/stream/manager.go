// Package stream owns the single server-push connection to the backend's
// stock-event endpoint and fans decoded events out to every registered
// subscriber, so all UI surfaces see the same events in the same order
// over one connection.
package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Kind distinguishes decoded stock events from synthetic connection
// errors. Errors are never raised across the event boundary; they arrive
// as events like everything else.
type Kind int

const (
	KindStockShortage Kind = iota
	KindConnectionError
)

// Event is one decoded message from the stock stream.
type Event struct {
	Kind       Kind
	Message    string
	ReceivedAt time.Time
}

// Messages containing this phrase mean "nothing to report" and are
// discarded rather than surfaced.
const sentinel = "No falta stock"

const connectionErrorMessage = "Error de conexión con el servidor de notificaciones"

// Manager maintains one persistent connection to the stream endpoint,
// reconnecting after a fixed delay whenever it drops.
type Manager struct {
	url    string
	delay  time.Duration
	client *http.Client
	logger *zap.Logger

	mu      sync.Mutex
	subs    map[int]chan Event
	nextSub int
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewManager creates a stream manager for the given endpoint. delay is
// the wait between a connection drop and the next attempt.
func NewManager(url string, delay time.Duration, client *http.Client, logger *zap.Logger) *Manager {
	if client == nil {
		client = http.DefaultClient
	}
	return &Manager{
		url:    url,
		delay:  delay,
		client: client,
		logger: logger,
		subs:   make(map[int]chan Event),
	}
}

// Start opens the connection and begins delivering events. Calling Start
// on a running manager is a no-op; after Close, Start opens a fresh
// connection.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.mu.Unlock()

	go m.run(ctx)
}

// Close tears the connection down. No events are delivered after Close
// returns.
func (m *Manager) Close() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel, done := m.cancel, m.done
	m.running = false
	m.mu.Unlock()

	cancel()
	<-done
}

// Subscribe registers a listener and returns its event channel plus an
// unsubscribe function. A subscriber that falls behind its buffer misses
// events rather than blocking the fan-out.
func (m *Manager) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}

	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	ch := make(chan Event, buffer)
	m.subs[id] = ch
	m.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
			close(ch)
		})
	}

	return ch, unsubscribe
}

func (m *Manager) run(ctx context.Context) {
	defer close(m.done)

	bo := backoff.NewConstantBackOff(m.delay)

	for {
		err := m.consume(ctx)
		if ctx.Err() != nil {
			return
		}

		m.logger.Warn("Stock stream disconnected", zap.Error(err))
		m.publish(Event{
			Kind:       KindConnectionError,
			Message:    connectionErrorMessage,
			ReceivedAt: time.Now(),
		})

		// One reconnect per drop, never earlier than the configured delay.
		select {
		case <-ctx.Done():
			return
		case <-time.After(bo.NextBackOff()):
		}
	}
}

func (m *Manager) consume(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream endpoint returned %d", resp.StatusCode)
	}

	m.logger.Info("Stock stream connected", zap.String("url", m.url))

	scanner := bufio.NewScanner(resp.Body)
	var data []string

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			if len(data) > 0 {
				m.dispatch(strings.Join(data, "\n"))
				data = data[:0]
			}
			continue
		}

		if rest, ok := strings.CutPrefix(line, "data:"); ok {
			data = append(data, strings.TrimPrefix(rest, " "))
		}
		// Comment lines and other SSE fields are ignored.
	}

	if err := scanner.Err(); err != nil {
		return err
	}
	return errors.New("stream closed by server")
}

func (m *Manager) dispatch(message string) {
	if strings.Contains(message, sentinel) {
		return
	}

	m.publish(Event{
		Kind:       KindStockShortage,
		Message:    message,
		ReceivedAt: time.Now(),
	})
}

func (m *Manager) publish(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ch := range m.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
