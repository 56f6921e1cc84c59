package core

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// bridgeSubscriberPriority is the priority the bridge registers its handler
// at — the middle of the range, so other observers of the same event can
// choose to run before or after validation by picking a lower or higher
// number.
const bridgeSubscriberPriority = 50

// artifactIDKeys is the fallback sequence of event-data keys tried, in
// order, to find an artifact's identifier.
var artifactIDKeys = []string{"artifact_id", "id", "model_id", "prediction_id", "principle_id", "workflow_id"}

// summaryKeys is the fallback sequence of event-data keys tried, in order,
// to find a human-readable summary.
var summaryKeys = []string{"summary", "description", "content", "text", "title"}

const maxSummaryLen = 200

// L1Bridge turns domain-level cognitive events into signed, chained
// validation records without blocking producers.
type L1Bridge struct {
	mu sync.Mutex

	identity  *Identity
	dag       *LocalDAG
	bus       *EventBus
	log       *logrus.Entry
	version   string
	lastHash  string
}

// NewL1Bridge bootstraps a bridge bound to container's identity, DAG, and
// event bus, and subscribes it to the validated-event allowlist. It never
// returns an error in this module — elara_protocol is not an optional
// dependency here, it is the module itself — but the signature is kept
// error-returning so a future optional-build mode can make it dormant the
// way the original does.
func NewL1Bridge(c *Container) (*L1Bridge, error) {
	b := &L1Bridge{
		identity: c.Identity,
		dag:      c.DAG,
		bus:      c.Bus,
		log:      Logger("elara.layer1_bridge"),
		version:  "v0.1.0",
	}
	b.initLastHash()
	b.setup()

	b.log.WithFields(logrus.Fields{
		"identity":     shortHash(c.Identity.IdentityHash),
		"dag_records":  c.DAG.Len(),
	}).Info("layer 1 bridge initialized")
	return b, nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// initLastHash recovers last_validated_hash from the DAG's current tips,
// preferring the lexicographically last one when several exist so restarts
// are deterministic.
func (b *L1Bridge) initLastHash() {
	tips := b.dag.Tips()
	if len(tips) == 0 {
		return
	}
	sort.Strings(tips)
	b.lastHash = tips[len(tips)-1]
}

// setup subscribes the bridge to every creation event it validates.
func (b *L1Bridge) setup() {
	for kind := range artifactTags {
		b.bus.On(kind, bridgeSubscriberPriority, "layer1_bridge", b.handleEvent)
	}
}

// handleEvent routes one creation event to validation. It never panics or
// returns an error to the bus: failures are logged and dropped.
func (b *L1Bridge) handleEvent(event Event) {
	artifactType, ok := ArtifactTag(event.Kind)
	if !ok {
		return
	}

	content, err := buildArtifactContent(event.Kind, event.Data)
	if err != nil {
		b.log.WithError(err).Error("bridge failed building artifact content")
		return
	}
	metadata := buildMetadata(artifactType, event.Data, b.version)

	recordID, err := b.validate(content, metadata)
	if err != nil {
		b.log.WithError(err).Errorf("bridge error handling %s", event.Kind)
		return
	}

	b.log.WithFields(logrus.Fields{
		"artifact_type": artifactType,
		"artifact_id":   shortHash(fmt.Sprint(metadata["artifact_id"])),
		"record_id":     shortHash(recordID),
	}).Debug("validated artifact")
}

// buildArtifactContent produces deterministic content bytes: canonical
// JSON of {event_type, data} with sorted keys and no whitespace.
func buildArtifactContent(kind EventKind, data map[string]interface{}) ([]byte, error) {
	payload := map[string]interface{}{
		"event_type": string(kind),
		"data":       data,
	}
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := make(orderedMap, 0, len(keys))
	for _, k := range keys {
		ordered = append(ordered, orderedEntry{k, payload[k]})
	}
	return json.Marshal(ordered)
}

// buildMetadata extracts artifact_id and a truncated summary via fallback
// key sequences, stamps the artifact type and source version, and copies
// domain and confidence when present. It adds no classification key.
func buildMetadata(artifactType string, data map[string]interface{}, version string) map[string]interface{} {
	md := map[string]interface{}{
		"artifact_type": artifactType,
		"source_version": version,
	}
	if id := firstNonEmpty(data, artifactIDKeys); id != "" {
		md["artifact_id"] = id
	}
	if summary := firstNonEmpty(data, summaryKeys); summary != "" {
		if len(summary) > maxSummaryLen {
			summary = summary[:maxSummaryLen]
		}
		md["summary"] = summary
	}
	if domain, ok := data["domain"]; ok {
		md["domain"] = domain
	}
	if confidence, ok := data["confidence"]; ok {
		md["confidence"] = confidence
	}
	return md
}

func firstNonEmpty(data map[string]interface{}, keys []string) string {
	for _, k := range keys {
		if v, ok := data[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// validate signs content+metadata into a ValidationRecord chained to the
// bridge's last validated hash, inserts it into the DAG, advances the
// chain, and emits ARTIFACT_VALIDATED. Chaining is a linear per-process
// spine, not a per-artifact history: every new record points at whatever
// record this bridge produced previously, regardless of artifact type.
func (b *L1Bridge) validate(content []byte, metadata map[string]interface{}) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var parents []string
	if b.lastHash != "" {
		parents = []string{b.lastHash}
	}

	rec := CreateRecord(content, b.identity.PrimaryPublicKey, parents, Sovereign, metadata)
	if err := rec.Sign(b.identity); err != nil {
		return "", err
	}
	if _, err := b.dag.Insert(rec, true); err != nil {
		return "", err
	}

	b.lastHash = rec.ID

	b.bus.Emit(Event{Kind: EventArtifactValidated, Data: map[string]interface{}{
		"record_id":     rec.ID,
		"record_hash":   rec.ID,
		"artifact_type": metadata["artifact_type"],
		"artifact_id":   metadata["artifact_id"],
	}})
	return rec.ID, nil
}

// Stats returns DAG statistics plus this bridge's identity fingerprint.
func (b *L1Bridge) Stats() map[string]interface{} {
	stats := b.dag.Stats()
	stats["identity"] = b.identity.IdentityHash
	return stats
}

// Provenance scans records authored by this bridge's identity whose
// metadata artifact_id matches id, returning compact summaries.
func (b *L1Bridge) Provenance(artifactID string) []map[string]interface{} {
	return ProvenanceScan(b.dag, b.identity.PrimaryPublicKey, artifactID)
}

// ProvenanceScan scans records authored by creatorPublicKey in dag whose
// metadata artifact_id matches artifactID, returning compact summaries.
// Factored out of L1Bridge.Provenance so read-only tools (the CLI) can
// reuse it without constructing a full bridge.
func ProvenanceScan(dag *LocalDAG, creatorPublicKey []byte, artifactID string) []map[string]interface{} {
	ids := dag.QueryByCreator(creatorPublicKey)
	var out []map[string]interface{}
	for _, id := range ids {
		rec, ok := dag.Get(id)
		if !ok {
			continue
		}
		md := rec.Metadata()
		if fmt.Sprint(md["artifact_id"]) != artifactID {
			continue
		}
		out = append(out, map[string]interface{}{
			"record_id":     rec.ID,
			"artifact_type": md["artifact_type"],
			"timestamp":     rec.Timestamp,
			"parents":       rec.Parents,
		})
	}
	return out
}
