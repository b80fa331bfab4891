package events

import (
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sentio/internal/common"
	"github.com/ternarybob/sentio/internal/interfaces"
)

// Service implements EventService with an in-process pub/sub pattern.
// Handlers registered for an event type all receive every published event
// of that type; a panicking handler is recovered and logged without
// affecting the other handlers or the publisher.
type Service struct {
	subscribers map[string][]interfaces.EventHandler
	mu          sync.RWMutex
	closed      bool
	logger      arbor.ILogger
}

// NewService creates a new event service
func NewService(logger arbor.ILogger) interfaces.EventService {
	return &Service{
		subscribers: make(map[string][]interfaces.EventHandler),
		logger:      logger,
	}
}

// Subscribe registers a handler for an event type. Nil handlers are ignored.
func (s *Service) Subscribe(eventType string, handler interfaces.EventHandler) {
	if handler == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.subscribers[eventType] = append(s.subscribers[eventType], handler)

	s.logger.Debug().
		Str("event_type", eventType).
		Int("subscriber_count", len(s.subscribers[eventType])).
		Msg("Event handler subscribed")
}

// Publish sends an event to all subscribers asynchronously. It returns
// immediately; handlers run on their own goroutines.
func (s *Service) Publish(event interfaces.Event) {
	handlers := s.handlersFor(event.Type)
	if len(handlers) == 0 {
		return
	}

	s.logger.Debug().
		Str("event_type", event.Type).
		Int("subscriber_count", len(handlers)).
		Msg("Publishing event")

	for _, handler := range handlers {
		h := handler
		common.SafeGo(s.logger, "event:"+event.Type, func() {
			h(event)
		})
	}
}

// PublishSync sends an event and waits for all handlers to complete
func (s *Service) PublishSync(event interfaces.Event) {
	handlers := s.handlersFor(event.Type)
	if len(handlers) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, handler := range handlers {
		wg.Add(1)
		h := handler
		common.SafeGo(s.logger, "event:"+event.Type, func() {
			defer wg.Done()
			h(event)
		})
	}
	wg.Wait()
}

// Close drops all subscriptions. Events published after Close are discarded.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.subscribers = make(map[string][]interfaces.EventHandler)
	s.logger.Debug().Msg("Event service closed")
}

func (s *Service) handlersFor(eventType string) []interfaces.EventHandler {
	s.mu.RLock()
	defer s.mu.RUnlock()

	handlers := s.subscribers[eventType]
	if len(handlers) == 0 {
		return nil
	}
	copied := make([]interfaces.EventHandler, len(handlers))
	copy(copied, handlers)
	return copied
}
