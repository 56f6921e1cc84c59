package core

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// EntityType tags who or what an identity represents.
type EntityType string

const (
	EntityAI      EntityType = "AI"
	EntityHuman   EntityType = "HUMAN"
	EntityService EntityType = "SERVICE"
)

// Profile selects how many post-quantum signatures an identity produces per
// record. ProfileA is dual-signing; ProfileStandard signs with the primary
// algorithm only.
type Profile string

const (
	ProfileStandard Profile = "STANDARD"
	ProfileA        Profile = "A"
)

// Identity is the durable keypair bundle described in spec.md §3. It is
// generated once, loaded thereafter, and never rotated in-flight.
type Identity struct {
	IdentityHash string     `json:"identity_hash"`
	EntityType   EntityType `json:"entity_type"`
	Profile      Profile    `json:"profile"`
	CreatedAt    int64      `json:"created_at"`

	PrimaryPublicKey  []byte `json:"primary_public_key"`
	PrimaryPrivateKey []byte `json:"primary_private_key"`

	SecondaryPublicKey  []byte `json:"secondary_public_key,omitempty"`
	SecondaryPrivateKey []byte `json:"secondary_private_key,omitempty"`
}

// GenerateIdentity mints a fresh identity bound to entityType and profile.
func GenerateIdentity(entityType EntityType, profile Profile) (*Identity, error) {
	pub, priv, err := PQKeypair(AlgoPrimary)
	if err != nil {
		return nil, Fail(ErrVerify, "generate primary keypair: %v", err)
	}

	id := &Identity{
		EntityType:        entityType,
		Profile:           profile,
		CreatedAt:         time.Now().Unix(),
		PrimaryPublicKey:  pub,
		PrimaryPrivateKey: priv,
	}

	fingerprint := pub
	if profile == ProfileA {
		spub, spriv, err := PQKeypair(AlgoSecondary)
		if err != nil {
			return nil, Fail(ErrVerify, "generate secondary keypair: %v", err)
		}
		id.SecondaryPublicKey = spub
		id.SecondaryPrivateKey = spriv
		fingerprint = append(append([]byte{}, pub...), spub...)
	}

	sum := ContentHash(fingerprint)
	id.IdentityHash = hex.EncodeToString(sum[:])
	return id, nil
}

// LoadIdentity reads an identity from path, generating and persisting a new
// one if the file does not exist. This is the "generated once if absent;
// loaded thereafter" lifecycle from spec.md §3.
func LoadIdentity(path string, entityType EntityType, profile Profile) (*Identity, error) {
	raw, err := os.ReadFile(path)
	if err == nil {
		var id Identity
		if jerr := json.Unmarshal(raw, &id); jerr != nil {
			return nil, Fail(ErrVerify, "decode identity file: %v", jerr)
		}
		return &id, nil
	}
	if !os.IsNotExist(err) {
		return nil, Fail(ErrVerify, "read identity file: %v", err)
	}

	id, genErr := GenerateIdentity(entityType, profile)
	if genErr != nil {
		return nil, genErr
	}
	if err := id.Save(path); err != nil {
		return nil, err
	}
	return id, nil
}

// Save persists the identity to path with owner-only permissions.
func (id *Identity) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return Fail(ErrVerify, "create identity dir: %v", err)
		}
	}
	blob, err := json.Marshal(id)
	if err != nil {
		return Fail(ErrVerify, "encode identity: %v", err)
	}
	if err := os.WriteFile(path, blob, 0o600); err != nil {
		return Fail(ErrVerify, "write identity file: %v", err)
	}
	return os.Chmod(path, 0o600)
}

// Sign produces the primary post-quantum signature over msg.
func (id *Identity) Sign(msg []byte) ([]byte, error) {
	return PQSign(AlgoPrimary, id.PrimaryPrivateKey, msg)
}

// SignSecondary produces the secondary post-quantum signature over msg. It
// fails for identities that are not Profile A.
func (id *Identity) SignSecondary(msg []byte) ([]byte, error) {
	if id.Profile != ProfileA {
		return nil, Fail(ErrVerify, "identity is not profile A: no secondary key")
	}
	return PQSign(AlgoSecondary, id.SecondaryPrivateKey, msg)
}

// VerifyPrimary checks sig against msg under pub using the primary algorithm.
func VerifyPrimary(pub, msg, sig []byte) (bool, error) {
	return PQVerify(AlgoPrimary, pub, msg, sig)
}

// VerifySecondary checks sig against msg under pub using the secondary
// algorithm.
func VerifySecondary(pub, msg, sig []byte) (bool, error) {
	return PQVerify(AlgoSecondary, pub, msg, sig)
}
