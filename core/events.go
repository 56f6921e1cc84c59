package core

import (
	"runtime/debug"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// EventKind enumerates the cognitive creation events the bridge observes,
// plus the network-layer events discovery and the bridge emit. It is a
// named string type, so an untyped string constant still converts to it: a
// misspelled kind compiles, and simply has no subscribers.
type EventKind string

const (
	EventModelCreated          EventKind = "model_created"
	EventPredictionMade        EventKind = "prediction_made"
	EventPrincipleCrystallized EventKind = "principle_crystallized"
	EventWorkflowCreated       EventKind = "workflow_created"
	EventCorrectionAdded       EventKind = "correction_added"
	EventDreamCompleted        EventKind = "dream_completed"
	EventEpisodeEnded          EventKind = "episode_ended"
	EventHandoffSaved          EventKind = "handoff_saved"
	EventSynthesisCreated      EventKind = "synthesis_created"
	EventOutcomeRecorded       EventKind = "outcome_recorded"

	EventNetworkStarted   EventKind = "network_started"
	EventNetworkStopped   EventKind = "network_stopped"
	EventPeerDiscovered   EventKind = "peer_discovered"
	EventPeerLost         EventKind = "peer_lost"
	EventArtifactValidated EventKind = "artifact_validated"
)

// artifactTags maps the ten creation events the bridge validates to the
// artifact-type tag it stamps into a record's metadata. Events absent from
// this map are ignored by the bridge.
var artifactTags = map[EventKind]string{
	EventModelCreated:          "model",
	EventPredictionMade:        "prediction",
	EventPrincipleCrystallized: "principle",
	EventWorkflowCreated:       "workflow",
	EventCorrectionAdded:       "correction",
	EventDreamCompleted:        "dream",
	EventEpisodeEnded:          "episode",
	EventHandoffSaved:          "handoff",
	EventSynthesisCreated:      "synthesis",
	EventOutcomeRecorded:       "outcome",
}

// ArtifactTag returns the artifact-type tag for kind and whether the bridge
// validates events of this kind at all.
func ArtifactTag(kind EventKind) (string, bool) {
	tag, ok := artifactTags[kind]
	return tag, ok
}

// Event is a single tagged notification on the bus. Data carries the
// variant's payload as a plain map — the bridge's per-variant extraction
// logic (artifact_id/summary fallback chains) reads out of it explicitly
// rather than via reflection over a dynamically-typed object.
type Event struct {
	Kind EventKind
	Data map[string]interface{}
}

// Handler processes one event. Subscribers never see a panic or error from
// another subscriber's handler.
type Handler func(Event)

type subscription struct {
	priority int
	source   string
	handler  Handler
}

// EventBus is a minimal in-process pub/sub bus. Unlike the teacher's
// package-level singleton, a bus is constructed explicitly and handed to
// whatever component needs to publish or subscribe — there is no global
// instance to initialize out of order.
type EventBus struct {
	mu   sync.RWMutex
	subs map[EventKind][]subscription
	log  *logrus.Entry
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{
		subs: make(map[EventKind][]subscription),
		log:  Logger("elara.events"),
	}
}

// On registers handler for kind at the given priority (lower runs first)
// and tags it with source, which shows up in logs from runSafe.
func (b *EventBus) On(kind EventKind, priority int, source string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := append(b.subs[kind], subscription{priority: priority, source: source, handler: handler})
	sort.SliceStable(subs, func(i, j int) bool { return subs[i].priority < subs[j].priority })
	b.subs[kind] = subs
}

// Emit delivers event synchronously to every subscriber of its kind, in
// priority order, each wrapped in runSafe so one failing handler never
// blocks or corrupts another.
func (b *EventBus) Emit(event Event) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subs[event.Kind]...)
	b.mu.RUnlock()

	for _, s := range subs {
		runSafe(b.log, s.source, event, s.handler)
	}
}

// runSafe invokes handler(event), recovering any panic and logging it with
// its full stack so the event bus never observes — let alone propagates
// — a subscriber's internal failure.
func runSafe(log *logrus.Entry, source string, event Event, handler Handler) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(logrus.Fields{
				"source": source,
				"kind":   event.Kind,
				"stack":  string(debug.Stack()),
			}).Errorf("handler panic: %v", r)
		}
	}()
	handler(event)
}
