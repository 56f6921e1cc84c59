package core

import (
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/rlp"
)

// Classification controls how far a record is allowed to travel.
type Classification uint8

const (
	// Sovereign records never leave their origin node.
	Sovereign Classification = iota
	// Restricted records travel only with explicit consent.
	Restricted
	// Shared records travel to authorized peers.
	Shared
	// Public records travel freely.
	Public
)

func (c Classification) String() string {
	switch c {
	case Sovereign:
		return "SOVEREIGN"
	case Restricted:
		return "RESTRICTED"
	case Shared:
		return "SHARED"
	case Public:
		return "PUBLIC"
	default:
		return "UNKNOWN"
	}
}

// ParseClassification maps a classification name back to its enum value.
func ParseClassification(s string) (Classification, bool) {
	switch s {
	case "SOVEREIGN":
		return Sovereign, true
	case "RESTRICTED":
		return Restricted, true
	case "SHARED":
		return Shared, true
	case "PUBLIC":
		return Public, true
	default:
		return 0, false
	}
}

// wireRecord is the RLP-encodable shape of a ValidationRecord. RLP has no
// native map support, so Metadata travels as pre-serialized canonical JSON
// (sorted keys, no whitespace) and is exposed to callers as a map through
// ValidationRecord.Metadata().
type wireRecord struct {
	SchemaVersion      uint8
	Content            []byte
	CreatorPublicKey   []byte
	Parents            []string
	Classification     uint8
	MetadataJSON       []byte
	Timestamp          uint64
	Signature          []byte
	SecondarySignature []byte
	HasSecondarySig    bool
}

// currentSchemaVersion is stamped onto every record this module creates.
// It travels in signable_bytes() so a future wire-format change can be
// detected by readers without a separate RPC.
const currentSchemaVersion uint8 = 1

// ValidationRecord is the immutable, signed, content-addressed unit the
// whole network deals in. Once signed and inserted into a LocalDAG it is
// never modified; id is a pure function of signable_bytes().
type ValidationRecord struct {
	ID                 string
	SchemaVersion      uint8
	Content            []byte
	CreatorPublicKey   []byte
	Parents            []string
	Classification     Classification
	metadata           map[string]interface{}
	Timestamp          time.Time
	Signature          []byte
	SecondarySignature []byte
}

// CreateRecord builds an unsigned record from its constituent parts.
// Metadata is copied defensively; callers may not mutate it afterward.
func CreateRecord(content, creatorPublicKey []byte, parents []string, classification Classification, metadata map[string]interface{}) *ValidationRecord {
	md := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}
	return &ValidationRecord{
		SchemaVersion:    currentSchemaVersion,
		Content:          content,
		CreatorPublicKey: creatorPublicKey,
		Parents:          append([]string(nil), parents...),
		Classification:   classification,
		metadata:         md,
		Timestamp:        time.Now().UTC(),
	}
}

// Metadata returns a copy of the record's metadata mapping.
func (r *ValidationRecord) Metadata() map[string]interface{} {
	md := make(map[string]interface{}, len(r.metadata))
	for k, v := range r.metadata {
		md[k] = v
	}
	return md
}

func (r *ValidationRecord) metadataJSON() ([]byte, error) {
	if r.metadata == nil {
		return []byte("{}"), nil
	}
	keys := make([]string, 0, len(r.metadata))
	for k := range r.metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := make(orderedMap, 0, len(keys))
	for _, k := range keys {
		ordered = append(ordered, orderedEntry{k, r.metadata[k]})
	}
	return json.Marshal(ordered)
}

// orderedMap/orderedEntry force json.Marshal to emit object keys in the
// sorted order we already computed. Values are marshalled by encoding/json,
// which itself sorts the keys of any nested string-keyed map.
type orderedEntry struct {
	Key   string
	Value interface{}
}
type orderedMap []orderedEntry

func (m orderedMap) MarshalJSON() ([]byte, error) {
	var buf []byte
	buf = append(buf, '{')
	for i, e := range m {
		if i > 0 {
			buf = append(buf, ',')
		}
		kb, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf = append(buf, kb...)
		buf = append(buf, ':')
		buf = append(buf, vb...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// SignableBytes is the deterministic serialization over which signatures
// and the record id are computed. It covers every field except the
// signature slots themselves.
func (r *ValidationRecord) SignableBytes() ([]byte, error) {
	mdJSON, err := r.metadataJSON()
	if err != nil {
		return nil, Fail(ErrVerify, "encode metadata: %v", err)
	}
	w := wireRecord{
		SchemaVersion:    r.schemaVersionOrDefault(),
		Content:          r.Content,
		CreatorPublicKey: r.CreatorPublicKey,
		Parents:          r.Parents,
		Classification:   uint8(r.Classification),
		MetadataJSON:     mdJSON,
		Timestamp:        uint64(r.Timestamp.UnixNano()),
	}
	buf, err := rlp.EncodeToBytes(&w)
	if err != nil {
		return nil, Fail(ErrVerify, "encode signable bytes: %v", err)
	}
	return buf, nil
}

// schemaVersionOrDefault reports r.SchemaVersion, defaulting to the current
// version for records built before this field existed (SchemaVersion's
// zero value, 0, is not a version this module ever stamps).
func (r *ValidationRecord) schemaVersionOrDefault() uint8 {
	if r.SchemaVersion == 0 {
		return currentSchemaVersion
	}
	return r.SchemaVersion
}

// ComputeID sets ID to the content hash over SignableBytes and returns it.
func (r *ValidationRecord) ComputeID() (string, error) {
	b, err := r.SignableBytes()
	if err != nil {
		return "", err
	}
	sum := ContentHash(b)
	r.ID = hex.EncodeToString(sum[:])
	return r.ID, nil
}

// Sign computes the id and the primary signature, and the
// secondary signature when signer carries a secondary key.
func (r *ValidationRecord) Sign(signer *Identity) error {
	if _, err := r.ComputeID(); err != nil {
		return err
	}
	signable, err := r.SignableBytes()
	if err != nil {
		return err
	}
	sig, err := signer.Sign(signable)
	if err != nil {
		return Fail(ErrVerify, "sign record: %v", err)
	}
	r.Signature = sig

	if signer.Profile == ProfileA {
		secSig, err := signer.SignSecondary(signable)
		if err != nil {
			return Fail(ErrVerify, "secondary-sign record: %v", err)
		}
		r.SecondarySignature = secSig
	}
	return nil
}

// Verify checks the record's id and its primary signature against
// CreatorPublicKey. The secondary signature, when present, is not
// independently verifiable over the network: the wire contract (and the
// network protocol this is ported from) carries only one public key per
// record, so secondary-signature verification is a local-only audit trail
// for dual-signing identities rather than a network-level trust input.
func (r *ValidationRecord) Verify() (bool, error) {
	signable, err := r.SignableBytes()
	if err != nil {
		return false, err
	}
	sum := ContentHash(signable)
	if hex.EncodeToString(sum[:]) != r.ID {
		return false, nil
	}
	return PQVerify(AlgoPrimary, r.CreatorPublicKey, signable, r.Signature)
}

// ToBytes encodes the full record, including signatures, into the opaque
// wire format exchanged over /records and /witness.
func (r *ValidationRecord) ToBytes() ([]byte, error) {
	mdJSON, err := r.metadataJSON()
	if err != nil {
		return nil, Fail(ErrVerify, "encode metadata: %v", err)
	}
	w := wireRecord{
		SchemaVersion:      r.schemaVersionOrDefault(),
		Content:            r.Content,
		CreatorPublicKey:   r.CreatorPublicKey,
		Parents:            r.Parents,
		Classification:     uint8(r.Classification),
		MetadataJSON:       mdJSON,
		Timestamp:          uint64(r.Timestamp.UnixNano()),
		Signature:          r.Signature,
		SecondarySignature: r.SecondarySignature,
		HasSecondarySig:    len(r.SecondarySignature) > 0,
	}
	buf, err := rlp.EncodeToBytes(&w)
	if err != nil {
		return nil, Fail(ErrVerify, "encode record: %v", err)
	}
	return buf, nil
}

// RecordFromBytes reconstructs a ValidationRecord from its wire form,
// including signatures, and recomputes its id.
func RecordFromBytes(data []byte) (*ValidationRecord, error) {
	var w wireRecord
	if err := rlp.DecodeBytes(data, &w); err != nil {
		return nil, Fail(ErrVerify, "decode record: %v", err)
	}
	var md map[string]interface{}
	if len(w.MetadataJSON) > 0 {
		if err := json.Unmarshal(w.MetadataJSON, &md); err != nil {
			return nil, Fail(ErrVerify, "decode metadata: %v", err)
		}
	} else {
		md = map[string]interface{}{}
	}
	r := &ValidationRecord{
		SchemaVersion:    w.SchemaVersion,
		Content:          w.Content,
		CreatorPublicKey: w.CreatorPublicKey,
		Parents:          w.Parents,
		Classification:   Classification(w.Classification),
		metadata:         md,
		Timestamp:        time.Unix(0, int64(w.Timestamp)).UTC(),
		Signature:        w.Signature,
	}
	if w.HasSecondarySig {
		r.SecondarySignature = w.SecondarySignature
	}
	if _, err := r.ComputeID(); err != nil {
		return nil, err
	}
	return r, nil
}
