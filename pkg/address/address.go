// Package address renders Namada public keys and implicit addresses in
// their human-readable bech32m form.
package address

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"

	"github.com/suffix-labs/namada-signer/pkg/txn"
)

// Human-readable parts for the mainline address formats.
const (
	HRPAddress   = "tnam"
	HRPPublicKey = "tpknam"
)

// Raw address payload: a one-byte tag followed by a 20-byte hash.
const (
	implicitTag     = 0x00
	implicitHashLen = 20
)

// EncodePublicKey renders a tagged public key. The payload is the key
// kind tag followed by the compressed key bytes, so ed25519 and
// secp256k1 keys stay distinguishable after decoding.
func EncodePublicKey(kind txn.KeyKind, pub []byte) (string, error) {
	want := kind.PubKeyLen()
	if want == 0 {
		return "", fmt.Errorf("%w: key kind %d", txn.ErrUnknown, kind)
	}
	if len(pub) != want {
		return "", fmt.Errorf("%w: public key length %d", txn.ErrInvalidSettings, len(pub))
	}
	payload := make([]byte, 0, 1+len(pub))
	payload = append(payload, byte(kind))
	payload = append(payload, pub...)
	return encode(HRPPublicKey, payload)
}

// EncodeImplicit renders the implicit address owned by a public key:
// the establishment tag over the first twenty bytes of the key hash.
// The hash covers the same tagged payload the public key encoding uses.
func EncodeImplicit(kind txn.KeyKind, pub []byte) (string, error) {
	want := kind.PubKeyLen()
	if want == 0 {
		return "", fmt.Errorf("%w: key kind %d", txn.ErrUnknown, kind)
	}
	if len(pub) != want {
		return "", fmt.Errorf("%w: public key length %d", txn.ErrInvalidSettings, len(pub))
	}
	h := sha256.New()
	h.Write([]byte{byte(kind)})
	h.Write(pub)
	sum := h.Sum(nil)

	payload := make([]byte, 0, 1+implicitHashLen)
	payload = append(payload, implicitTag)
	payload = append(payload, sum[:implicitHashLen]...)
	return encode(HRPAddress, payload)
}

func encode(hrp string, payload []byte) (string, error) {
	// Convert 8-bit bytes to 5-bit bech32 data
	data, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("%w: %v", txn.ErrEncodingFailed, err)
	}
	out, err := bech32.EncodeM(hrp, data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", txn.ErrEncodingFailed, err)
	}
	return out, nil
}

// Decode reverses either encoding, returning the human-readable part and
// the raw payload bytes.
func Decode(addr string) (string, []byte, error) {
	hrp, data, err := bech32.DecodeNoLimit(addr)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", txn.ErrEncodingFailed, err)
	}
	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", txn.ErrEncodingFailed, err)
	}
	return hrp, payload, nil
}
