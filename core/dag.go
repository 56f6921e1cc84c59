package core

import (
	"encoding/hex"
	"encoding/json"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
)

// DAGConfig controls where the DAG's WAL lives and how large its hot-record
// cache is.
type DAGConfig struct {
	WALPath   string
	CacheSize int
}

// walEntry is the journal's on-disk shape: the record's opaque wire bytes,
// hex-encoded so the journal (which writes JSON lines) can carry them.
type walEntry struct {
	WireHex string `json:"wire_hex"`
}

// LocalDAG is a durable, content-addressed store of ValidationRecords. It
// is a local causal history, not a blockchain: there is no global ordering
// or consensus, only parent references and incrementally maintained tips.
type LocalDAG struct {
	mu sync.RWMutex

	records   map[string]*ValidationRecord
	hasChild  map[string]struct{} // record ids that are somebody's parent
	byCreator map[string][]string

	cache *lru.Cache[string, *ValidationRecord]
	wal   *journal
	log   *logrus.Entry
}

// OpenDAG opens (creating if absent) the DAG WAL at cfg.WALPath and replays
// it to rebuild in-memory indexes.
func OpenDAG(cfg DAGConfig) (*LocalDAG, error) {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 512
	}
	cache, err := lru.New[string, *ValidationRecord](cfg.CacheSize)
	if err != nil {
		return nil, Fail(ErrVerify, "create dag cache: %v", err)
	}

	d := &LocalDAG{
		records:   make(map[string]*ValidationRecord),
		hasChild:  make(map[string]struct{}),
		byCreator: make(map[string][]string),
		cache:     cache,
		log:       Logger("elara.dag"),
	}

	wal, err := openJournal(cfg.WALPath, func(line []byte) error {
		var e walEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return Fail(ErrVerify, "decode dag wal entry: %v", err)
		}
		wire, err := hex.DecodeString(e.WireHex)
		if err != nil {
			return Fail(ErrVerify, "decode dag wal hex: %v", err)
		}
		rec, err := RecordFromBytes(wire)
		if err != nil {
			return err
		}
		d.index(rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	d.wal = wal
	d.log.WithField("records", len(d.records)).Info("dag opened")
	return d, nil
}

// index updates in-memory indexes for rec. Caller must hold mu for write,
// or call this only during single-threaded WAL replay.
func (d *LocalDAG) index(rec *ValidationRecord) {
	d.records[rec.ID] = rec
	d.byCreator[hex.EncodeToString(rec.CreatorPublicKey)] = append(
		d.byCreator[hex.EncodeToString(rec.CreatorPublicKey)], rec.ID,
	)
	for _, p := range rec.Parents {
		d.hasChild[p] = struct{}{}
	}
}

// Insert verifies rec's id and signature (when verify is true), then durably
// appends it. Parent references are not checked. Insertion is a no-op returning (false, nil) if the
// record id is already present — the boundary server relies on this for
// idempotent duplicate submissions.
func (d *LocalDAG) Insert(rec *ValidationRecord, verify bool) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.records[rec.ID]; exists {
		return false, nil
	}

	if verify {
		ok, err := rec.Verify()
		if err != nil {
			return false, err
		}
		if !ok {
			return false, Fail(ErrVerify, "record %s fails signature verification", rec.ID)
		}
	}

	// A parent absent from this store is allowed — it may be an
	// externally-declared root whose creation predates this node joining
	// the network — so there is no parent-presence check here.

	wire, err := rec.ToBytes()
	if err != nil {
		return false, err
	}
	if err := d.wal.append(walEntry{WireHex: hex.EncodeToString(wire)}); err != nil {
		return false, err
	}

	d.index(rec)
	d.cache.Add(rec.ID, rec)
	return true, nil
}

// Get returns the record with the given id, if present.
func (d *LocalDAG) Get(id string) (*ValidationRecord, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if rec, ok := d.cache.Get(id); ok {
		return rec, true
	}
	rec, ok := d.records[id]
	return rec, ok
}

// QueryByCreator returns every record id created by the given public key,
// in insertion order.
func (d *LocalDAG) QueryByCreator(creatorPublicKey []byte) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := d.byCreator[hex.EncodeToString(creatorPublicKey)]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// Since returns every record inserted with a timestamp strictly after
// since, ordered oldest first, capped at limit (0 means unlimited).
func (d *LocalDAG) Since(since int64, limit int) []*ValidationRecord {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*ValidationRecord, 0, len(d.records))
	for _, rec := range d.records {
		if rec.Timestamp.Unix() > since {
			out = append(out, rec)
		}
	}
	sortRecordsByTime(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func sortRecordsByTime(recs []*ValidationRecord) {
	for i := 1; i < len(recs); i++ {
		for j := i; j > 0 && recs[j].Timestamp.Before(recs[j-1].Timestamp); j-- {
			recs[j], recs[j-1] = recs[j-1], recs[j]
		}
	}
}

// Tips returns the ids of every record in the store that is nobody's
// parent — the current frontier of the local causal history.
func (d *LocalDAG) Tips() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var tips []string
	for id := range d.records {
		if _, has := d.hasChild[id]; !has {
			tips = append(tips, id)
		}
	}
	return tips
}

// Len reports the number of records currently stored.
func (d *LocalDAG) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.records)
}

// Stats summarizes the DAG for status endpoints.
func (d *LocalDAG) Stats() map[string]interface{} {
	d.mu.RLock()
	defer d.mu.RUnlock()
	tips := 0
	for id := range d.records {
		if _, has := d.hasChild[id]; !has {
			tips++
		}
	}
	return map[string]interface{}{
		"record_count": len(d.records),
		"tip_count":    tips,
	}
}

// Close releases the underlying WAL file handle.
func (d *LocalDAG) Close() error {
	return d.wal.Close()
}
