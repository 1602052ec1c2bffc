// Plain signing-key derivation.
//
// Ed25519 keys follow SLIP-0010 hierarchical derivation: an HMAC-SHA512
// chain keyed with "ed25519 seed", hardened-only children. The derivation
// path is an explicit parameter threaded through every call; there is no
// ambient path state.
//
// secp256k1 keys use the same hardened HMAC-SHA512 chain keyed with
// "Bitcoin seed", for the transparent address path.
package crypto

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/suffix-labs/namada-signer/pkg/txn"
)

// HardenedOffset marks a hardened child index.
const HardenedOffset uint32 = 0x80000000

// DefaultPath is the fixed Namada derivation path m/44'/877'/0'/0'/0'.
func DefaultPath() []uint32 {
	return []uint32{
		44 | HardenedOffset,
		877 | HardenedOffset,
		0 | HardenedOffset,
		0 | HardenedOffset,
		0 | HardenedOffset,
	}
}

// Zeroize overwrites b with zeros. Every function touching private key
// material calls this on all exit paths, success included.
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// deriveChain walks a hardened HMAC-SHA512 chain from the seed and
// returns the final 32-byte key. The caller owns zeroizing the result.
func deriveChain(masterKey string, seed []byte, path []uint32) ([32]byte, error) {
	var key [32]byte
	if len(seed) == 0 {
		return key, txn.ErrNoData
	}
	if len(path) == 0 {
		return key, fmt.Errorf("%w: empty derivation path", txn.ErrInvalidSettings)
	}

	mac := hmac.New(sha512.New, []byte(masterKey))
	mac.Write(seed)
	i := mac.Sum(nil)

	var chain [32]byte
	copy(key[:], i[:32])
	copy(chain[:], i[32:])
	Zeroize(i)

	ok := true
	for _, idx := range path {
		if idx < HardenedOffset {
			ok = false
			break
		}
		var data [37]byte
		data[0] = 0x00
		copy(data[1:33], key[:])
		binary.BigEndian.PutUint32(data[33:], idx)

		mac = hmac.New(sha512.New, chain[:])
		mac.Write(data[:])
		i = mac.Sum(nil)
		copy(key[:], i[:32])
		copy(chain[:], i[32:])
		Zeroize(i)
		Zeroize(data[:])
	}
	Zeroize(chain[:])

	if !ok {
		Zeroize(key[:])
		return key, fmt.Errorf("%w: non-hardened index in path", txn.ErrInvalidSettings)
	}
	return key, nil
}

// ExtractPublicKeyEd25519 derives the device's Ed25519 public key for the
// path. The private scalar never leaves this function.
func ExtractPublicKeyEd25519(seed []byte, path []uint32) ([txn.PubKeyLenEd25519]byte, error) {
	var pub [txn.PubKeyLenEd25519]byte
	key, err := deriveChain("ed25519 seed", seed, path)
	defer Zeroize(key[:])
	if err != nil {
		return pub, err
	}
	priv := ed25519.NewKeyFromSeed(key[:])
	defer Zeroize(priv)
	copy(pub[:], priv[ed25519.SeedSize:])
	return pub, nil
}

// SignEd25519 derives the path's private key, signs message with it, and
// zeroizes the key before returning. An empty message is rejected.
func SignEd25519(seed []byte, path []uint32, message []byte) ([txn.SigLenEd25519]byte, error) {
	var sig [txn.SigLenEd25519]byte
	if len(message) == 0 {
		return sig, txn.ErrUnknown
	}
	key, err := deriveChain("ed25519 seed", seed, path)
	defer Zeroize(key[:])
	if err != nil {
		return sig, err
	}
	priv := ed25519.NewKeyFromSeed(key[:])
	defer Zeroize(priv)
	copy(sig[:], ed25519.Sign(priv, message))
	return sig, nil
}

// ExtractPublicKeySecp256k1 derives the compressed secp256k1 public key
// for the path.
func ExtractPublicKeySecp256k1(seed []byte, path []uint32) ([txn.PubKeyLenSecp256k1]byte, error) {
	var pub [txn.PubKeyLenSecp256k1]byte
	key, err := deriveChain("Bitcoin seed", seed, path)
	defer Zeroize(key[:])
	if err != nil {
		return pub, err
	}
	priv := secp256k1.PrivKeyFromBytes(key[:])
	defer priv.Zero()
	copy(pub[:], priv.PubKey().SerializeCompressed())
	return pub, nil
}
