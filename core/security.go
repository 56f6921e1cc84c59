// SPDX-License-Identifier: Apache-2.0
// Package core – post-quantum signing primitives for Elara identities.
//
// Both signature slots on a ValidationRecord are produced by CRYSTALS-Dilithium
// (circl), at two distinct parameter sets: mode3 for the primary signature
// every identity carries, and mode2 for the secondary signature Profile A
// identities add. We do not re-specify Dilithium itself here — only its
// keygen/sign/verify contract, the same three calls the teacher used for its
// own quantum-resistant node.
package core

import (
	"crypto"
	"crypto/rand"
	"crypto/sha256"
	"errors"

	mode2 "github.com/cloudflare/circl/sign/dilithium/mode2"
	mode3 "github.com/cloudflare/circl/sign/dilithium/mode3"
)

// PQAlgo identifies which Dilithium parameter set backs a signature slot.
type PQAlgo uint8

const (
	// AlgoPrimary is CRYSTALS-Dilithium3 (mode3), used by every identity's
	// primary signature regardless of profile.
	AlgoPrimary PQAlgo = iota
	// AlgoSecondary is CRYSTALS-Dilithium2 (mode2), used only by Profile A
	// identities for the secondary signature slot.
	AlgoSecondary
)

// PQKeypair generates a fresh post-quantum keypair for algo.
func PQKeypair(algo PQAlgo) (pub, priv []byte, err error) {
	switch algo {
	case AlgoPrimary:
		pk, sk, err := mode3.GenerateKey(rand.Reader)
		if err != nil {
			return nil, nil, err
		}
		return pk.Bytes(), sk.Bytes(), nil
	case AlgoSecondary:
		pk, sk, err := mode2.GenerateKey(rand.Reader)
		if err != nil {
			return nil, nil, err
		}
		return pk.Bytes(), sk.Bytes(), nil
	default:
		return nil, nil, errors.New("core: unknown pq algo")
	}
}

// PQSign signs msg with a packed private key under algo.
func PQSign(algo PQAlgo, priv, msg []byte) ([]byte, error) {
	switch algo {
	case AlgoPrimary:
		var sk mode3.PrivateKey
		if err := sk.UnmarshalBinary(priv); err != nil {
			return nil, err
		}
		return sk.Sign(rand.Reader, msg, crypto.Hash(0))
	case AlgoSecondary:
		var sk mode2.PrivateKey
		if err := sk.UnmarshalBinary(priv); err != nil {
			return nil, err
		}
		return sk.Sign(rand.Reader, msg, crypto.Hash(0))
	default:
		return nil, errors.New("core: unknown pq algo")
	}
}

// PQVerify verifies a signature produced by PQSign under algo.
func PQVerify(algo PQAlgo, pub, msg, sig []byte) (bool, error) {
	switch algo {
	case AlgoPrimary:
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return false, err
		}
		return mode3.Verify(&pk, msg, sig), nil
	case AlgoSecondary:
		var pk mode2.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return false, err
		}
		return mode2.Verify(&pk, msg, sig), nil
	default:
		return false, errors.New("core: unknown pq algo")
	}
}

// ContentHash returns the hex-less sha256 digest used throughout the module
// for record ids and identity fingerprints. sha256 is used directly here,
// matching the teacher's own choice for Block.Hash()/Merkle leaves, rather
// than introducing a second hash primitive for content addressing.
func ContentHash(data []byte) [32]byte {
	return sha256.Sum256(data)
}
