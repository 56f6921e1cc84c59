package core

import (
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// WitnessAttestation is a witness's counter-signature over a record's
// signable bytes, establishing independent corroboration.
type WitnessAttestation struct {
	RecordID            string    `json:"record_id"`
	WitnessIdentityHash string    `json:"witness_identity_hash"`
	WitnessPublicKey    []byte    `json:"witness_public_key"`
	WitnessSignature    []byte    `json:"witness_signature"`
	Timestamp           time.Time `json:"timestamp"`

	// WitnessSecondarySignature is set only when the witness is a Profile A
	// identity. It is stored as a local audit artifact alongside the
	// primary counter-signature; it is never independently re-verified
	// over the network (see ValidationRecord.Verify's doc comment for why).
	WitnessSecondarySignature []byte `json:"witness_secondary_signature,omitempty"`
}

// Verify checks the attestation's signature over signable using the
// primary post-quantum algorithm, the same one used for witness
// counter-signatures regardless of the witnessed record's creator profile.
func (a *WitnessAttestation) Verify(signable []byte) (bool, error) {
	return PQVerify(AlgoPrimary, a.WitnessPublicKey, signable, a.WitnessSignature)
}

// witnessWALEntry is the journal's on-disk shape for an attestation.
type witnessWALEntry struct {
	RecordID                     string `json:"record_id"`
	WitnessIdentityHash          string `json:"witness_identity_hash"`
	WitnessPublicKeyHex          string `json:"witness_public_key_hex"`
	WitnessSignatureHex          string `json:"witness_signature_hex"`
	WitnessSecondarySignatureHex string `json:"witness_secondary_signature_hex,omitempty"`
	TimestampUnixNano            int64  `json:"timestamp_unix_nano"`
}

// WitnessStore is a durable, deduplicated attestation index keyed by
// record id. At most one attestation per (record, witness) pair is kept.
type WitnessStore struct {
	mu   sync.RWMutex
	byID map[string][]*WitnessAttestation
	seen map[string]struct{} // recordID + "|" + witnessIdentityHash

	wal *journal
	log *logrus.Entry
}

// OpenWitnessStore opens (creating if absent) the witness WAL at path.
func OpenWitnessStore(path string) (*WitnessStore, error) {
	s := &WitnessStore{
		byID: make(map[string][]*WitnessAttestation),
		seen: make(map[string]struct{}),
		log:  Logger("elara.witness"),
	}

	wal, err := openJournal(path, func(line []byte) error {
		var e witnessWALEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return Fail(ErrVerify, "decode witness wal entry: %v", err)
		}
		pub, err := hex.DecodeString(e.WitnessPublicKeyHex)
		if err != nil {
			return Fail(ErrVerify, "decode witness pubkey hex: %v", err)
		}
		sig, err := hex.DecodeString(e.WitnessSignatureHex)
		if err != nil {
			return Fail(ErrVerify, "decode witness sig hex: %v", err)
		}
		var secondarySig []byte
		if e.WitnessSecondarySignatureHex != "" {
			secondarySig, err = hex.DecodeString(e.WitnessSecondarySignatureHex)
			if err != nil {
				return Fail(ErrVerify, "decode witness secondary sig hex: %v", err)
			}
		}
		s.index(&WitnessAttestation{
			RecordID:                  e.RecordID,
			WitnessIdentityHash:       e.WitnessIdentityHash,
			WitnessPublicKey:          pub,
			WitnessSignature:          sig,
			WitnessSecondarySignature: secondarySig,
			Timestamp:                 time.Unix(0, e.TimestampUnixNano).UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.wal = wal
	return s, nil
}

func dedupKey(recordID, witnessIdentityHash string) string {
	return recordID + "|" + witnessIdentityHash
}

func (s *WitnessStore) index(a *WitnessAttestation) {
	key := dedupKey(a.RecordID, a.WitnessIdentityHash)
	if _, dup := s.seen[key]; dup {
		return
	}
	s.seen[key] = struct{}{}
	s.byID[a.RecordID] = append(s.byID[a.RecordID], a)
}

// Add stores a, deduplicating by (record, witness). Returns false without
// error if this witness already attested to this record.
func (s *WitnessStore) Add(a *WitnessAttestation) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := dedupKey(a.RecordID, a.WitnessIdentityHash)
	if _, dup := s.seen[key]; dup {
		return false, nil
	}

	entry := witnessWALEntry{
		RecordID:            a.RecordID,
		WitnessIdentityHash: a.WitnessIdentityHash,
		WitnessPublicKeyHex: hex.EncodeToString(a.WitnessPublicKey),
		WitnessSignatureHex: hex.EncodeToString(a.WitnessSignature),
		TimestampUnixNano:   a.Timestamp.UnixNano(),
	}
	if len(a.WitnessSecondarySignature) > 0 {
		entry.WitnessSecondarySignatureHex = hex.EncodeToString(a.WitnessSecondarySignature)
	}
	if err := s.wal.append(entry); err != nil {
		return false, err
	}
	s.index(a)
	return true, nil
}

// Get returns every attestation stored for recordID.
func (s *WitnessStore) Get(recordID string) []*WitnessAttestation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.byID[recordID]
	out := make([]*WitnessAttestation, len(src))
	copy(out, src)
	return out
}

// Count returns the number of unique witnesses for recordID.
func (s *WitnessStore) Count(recordID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID[recordID])
}

// Stats summarizes the store for status endpoints.
func (s *WitnessStore) Stats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, v := range s.byID {
		total += len(v)
	}
	return map[string]interface{}{
		"records_witnessed":  len(s.byID),
		"total_attestations": total,
	}
}

// Close releases the underlying WAL file handle.
func (s *WitnessStore) Close() error {
	return s.wal.Close()
}
