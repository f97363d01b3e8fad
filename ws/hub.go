package ws

import (
	"fmt"
	"sync"
)

const (
	TopicShipments     = "shipments"
	TopicShipmentStats = "shipments_stats"
)

// Event adalah payload yang dikirim ke subscriber websocket
type Event struct {
	Model   string `json:"model,omitempty"`
	Action  string `json:"action,omitempty"`
	ID      int64  `json:"id,omitempty"`
	Message string `json:"message"`
}

type Subscriber struct {
	topic string
	send  chan Event
}

func (s *Subscriber) Send() <-chan Event {
	return s.send
}

// Hub melakukan fan-out event per topic. Pengiriman best-effort: tanpa
// subscriber event dibuang, dan subscriber yang buffer-nya penuh
// melewatkan event daripada memblokir publisher.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscriber]bool
}

func NewHub() *Hub {
	return &Hub{topics: make(map[string]map[*Subscriber]bool)}
}

func (h *Hub) Subscribe(topic string) *Subscriber {
	sub := &Subscriber{topic: topic, send: make(chan Event, 16)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*Subscriber]bool)
	}
	h.topics[topic][sub] = true
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.topics[sub.topic]; ok && subs[sub] {
		delete(subs, sub)
		close(sub.send)
	}
}

func (h *Hub) Publish(topic string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.topics[topic] {
		select {
		case sub.send <- event:
		default:
		}
	}
}

var modelLabels = map[string]string{
	"in_shipment":  "inbound shipment",
	"out_shipment": "outbound shipment",
	"destination":  "destination",
	"company":      "company",
}

func makeMessage(model string, action string) string {
	label, ok := modelLabels[model]
	if !ok {
		label = model
	}
	return fmt.Sprintf("%s %s successfully", label, action)
}

// PublishShipmentEvent mengirim event perubahan entity ke topic shipments
func (h *Hub) PublishShipmentEvent(model string, action string, id int64) {
	h.Publish(TopicShipments, Event{
		Model:   model,
		Action:  action,
		ID:      id,
		Message: makeMessage(model, action),
	})
}

// PublishStatsChanged mengirim sinyal refresh ke dashboard statistik
func (h *Hub) PublishStatsChanged() {
	h.Publish(TopicShipmentStats, Event{Message: "update stats"})
}
