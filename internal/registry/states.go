package registry

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/availwatch/internal/report"
)

// statePayload is the wire format of a state topic message.
type statePayload struct {
	Status    string `json:"status"`
	ChangedAt string `json:"changed_at,omitempty"`
}

// StateStore tracks the live status of every monitored entity.
//
// It is fed by the state topic: each message carries the entity's current
// status and, optionally, when it changed. LastChanged is preserved across
// repeated reports of the same status, so durations measure time since the
// actual transition rather than time since the last message.
//
// All methods are safe for concurrent use.
type StateStore struct {
	mu     sync.RWMutex
	states map[string]report.EntityState
	logger Logger
	now    func() time.Time

	// onTransition fires once per actual status change, never for
	// re-reports. Used to record transitions as telemetry.
	onTransition func(entityID string, status report.Status)
}

// NewStateStore creates an empty state store.
func NewStateStore() *StateStore {
	return &StateStore{
		states: make(map[string]report.EntityState),
		logger: noopLogger{},
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetLogger sets the logger for the store.
func (s *StateStore) SetLogger(logger Logger) {
	s.logger = logger
}

// SetTransitionHook registers a callback invoked on every actual status
// transition. Must be called before the store starts receiving messages.
func (s *StateStore) SetTransitionHook(hook func(entityID string, status report.Status)) {
	s.onTransition = hook
}

// Set records an entity's status. LastChanged updates only when the status
// actually differs from the previous one; changedAt overrides the
// transition time when non-zero.
func (s *StateStore) Set(entityID string, status report.Status, changedAt time.Time) {
	s.mu.Lock()

	prev, known := s.states[entityID]
	if known && prev.Status == status {
		// Same status re-reported; keep the original transition time.
		s.mu.Unlock()
		return
	}

	if changedAt.IsZero() {
		changedAt = s.now()
	}

	s.states[entityID] = report.EntityState{
		EntityID:    entityID,
		Status:      status,
		LastChanged: changedAt.UTC(),
	}
	s.mu.Unlock()

	// Hook runs outside the lock; the telemetry write must not be able
	// to stall state ingestion.
	if s.onTransition != nil {
		s.onTransition(entityID, status)
	}
}

// Get returns the stored state for an entity id.
func (s *StateStore) Get(entityID string) (report.EntityState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[entityID]
	return st, ok
}

// Remove forgets an entity's state. Used when an entity is removed from
// the registry so stale states do not linger.
func (s *StateStore) Remove(entityIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range entityIDs {
		delete(s.states, id)
	}
}

// Len returns the number of tracked entities.
func (s *StateStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

// All returns every tracked state sorted by entity id. The returned slice
// is a copy and safe to retain.
func (s *StateStore) All() []report.EntityState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	states := make([]report.EntityState, 0, len(s.states))
	for _, st := range s.states {
		states = append(states, st)
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].EntityID < states[j].EntityID
	})
	return states
}

// HandleStateMessage ingests one state topic message. The topic's last
// segment is the entity id; the payload carries status and an optional
// RFC3339 transition time.
//
//	availwatch/state/sensor.kitchen_temp
//	{"status": "unavailable", "changed_at": "2026-08-30T10:15:00Z"}
func (s *StateStore) HandleStateMessage(topic string, payload []byte) error {
	entityID := topic[strings.LastIndex(topic, "/")+1:]
	if entityID == "" {
		return fmt.Errorf("state topic %q has no entity id", topic)
	}

	var msg statePayload
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decoding state payload for %s: %w", entityID, err)
	}
	if msg.Status == "" {
		return fmt.Errorf("state payload for %s has no status", entityID)
	}

	var changedAt time.Time
	if msg.ChangedAt != "" {
		t, err := time.Parse(time.RFC3339, msg.ChangedAt)
		if err != nil {
			return fmt.Errorf("parsing changed_at for %s: %w", entityID, err)
		}
		changedAt = t
	}

	s.Set(entityID, report.Status(msg.Status), changedAt)
	s.logger.Debug("entity state updated", "entity_id", entityID, "status", msg.Status)
	return nil
}
