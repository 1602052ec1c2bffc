// Canonical section hashing.
//
// Every digest in the hash tree is SHA-256 over a fixed byte layout.
// The signature-section layout matches the Borsh serialization hashed by
// namada_tx::Signature::get_raw_hash / get_hash: salt, hash count, hash
// entries, signer, key material, signature list. The signed form is
// hashed under the 0x03 section discriminant so it can never collide with
// the unsigned form it authorizes.
package crypto

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"hash"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/suffix-labs/namada-signer/pkg/txn"
)

const (
	// SigSectionPrefix is the domain-separation discriminant prepended
	// when hashing a signed signature section into the tree.
	SigSectionPrefix byte = 0x03

	// headerDiscriminant prefixes every header hash.
	headerDiscriminant byte = 0x07

	// headerRawSub trails the raw header hash, distinguishing it from
	// the fee-header form.
	headerRawSub byte = 0x00

	// Section payload discriminants.
	codeDiscriminant byte = 0x01
	dataDiscriminant byte = 0x02
	memoDiscriminant byte = 0x04
)

// HashSignatureSection computes the 32-byte digest of a signature
// section's canonical layout, with an optional domain prefix. It is pure
// and order-sensitive: the same section always yields the same digest,
// and the unsigned and 0x03-prefixed signed forms always differ.
func HashSignatureSection(sec *txn.SignatureSection, prefix []byte) ([txn.HashLen]byte, error) {
	var out [txn.HashLen]byte
	if sec == nil {
		return out, txn.ErrNoData
	}
	if len(sec.Hashes) > txn.MaxSignatureHashes {
		return out, txn.ErrHashTreeFull
	}

	h := sha256.New()
	if len(prefix) > 0 {
		h.Write(prefix)
	}
	h.Write(sec.Salt[:])

	writeUint32LE(h, uint32(len(sec.Hashes)))
	for i := range sec.Hashes {
		h.Write(sec.Hashes[i].Hash[:])
	}

	h.Write([]byte{byte(sec.Signer)})
	switch sec.Signer {
	case txn.SignerPubKeys:
		writeUint32LE(h, uint32(len(sec.PubKeys)))
		for i, pk := range sec.PubKeys {
			if err := hashPubKey(h, i, pk); err != nil {
				return out, err
			}
		}
	case txn.SignerAddress:
		h.Write(sec.Address)
	default:
		return out, fmt.Errorf("%w: signer discriminant 0x%02x", txn.ErrUnknown, byte(sec.Signer))
	}

	writeUint32LE(h, uint32(len(sec.Signatures)))
	for i, sig := range sec.Signatures {
		want := sig.Kind.SigLen()
		if want == 0 {
			return out, fmt.Errorf("%w: signature %d key kind 0x%02x", txn.ErrUnknown, i, byte(sig.Kind))
		}
		if len(sig.Bytes) != want {
			return out, fmt.Errorf("%w: signature %d is %d bytes, want %d", txn.ErrUnknown, i, len(sig.Bytes), want)
		}
		h.Write([]byte{sig.Slot, byte(sig.Kind)})
		h.Write(sig.Bytes)
	}

	copy(out[:], h.Sum(nil))
	return out, nil
}

// hashPubKey feeds one tagged public key into the digest. Unknown kind
// tags are a hard error, not a skip; secp256k1 keys must additionally be
// parseable curve points.
func hashPubKey(h hash.Hash, i int, pk txn.TaggedPubKey) error {
	want := pk.Kind.PubKeyLen()
	if want == 0 {
		return fmt.Errorf("%w: public key %d key kind 0x%02x", txn.ErrUnknown, i, byte(pk.Kind))
	}
	if len(pk.Bytes) != want {
		return fmt.Errorf("%w: public key %d is %d bytes, want %d", txn.ErrUnknown, i, len(pk.Bytes), want)
	}
	if pk.Kind == txn.KeySecp256k1 {
		if _, err := secp256k1.ParsePubKey(pk.Bytes); err != nil {
			return fmt.Errorf("%w: public key %d: %v", txn.ErrUnknown, i, err)
		}
	}
	h.Write([]byte{byte(pk.Kind)})
	h.Write(pk.Bytes)
	return nil
}

// HashRawHeader digests the header's raw bytes for the inner signature:
// discriminant, header bytes, trailing sub-discriminant.
func HashRawHeader(hdr *txn.Header) ([txn.HashLen]byte, error) {
	var out [txn.HashLen]byte
	if hdr == nil {
		return out, txn.ErrNoData
	}
	if len(hdr.Bytes) == 0 {
		return out, fmt.Errorf("%w: empty header", txn.ErrInvalidSettings)
	}
	h := sha256.New()
	h.Write([]byte{headerDiscriminant})
	h.Write(hdr.Bytes)
	h.Write([]byte{headerRawSub})
	copy(out[:], h.Sum(nil))
	return out, nil
}

// HashFeeHeader digests the header's fee-extension bytes for the outer
// signature. No trailing sub-discriminant: the fee form is the base form.
func HashFeeHeader(hdr *txn.Header) ([txn.HashLen]byte, error) {
	var out [txn.HashLen]byte
	if hdr == nil {
		return out, txn.ErrNoData
	}
	if len(hdr.FeeBytes) == 0 {
		return out, fmt.Errorf("%w: empty fee header", txn.ErrInvalidSettings)
	}
	h := sha256.New()
	h.Write([]byte{headerDiscriminant})
	h.Write(hdr.FeeBytes)
	copy(out[:], h.Sum(nil))
	return out, nil
}

// HashSection digests a code, data or memo section payload under its kind
// discriminant.
func HashSection(sec *txn.Section) ([txn.HashLen]byte, error) {
	var out [txn.HashLen]byte
	if sec == nil {
		return out, txn.ErrNoData
	}
	var disc byte
	switch sec.Kind {
	case txn.SectionCode:
		disc = codeDiscriminant
	case txn.SectionData:
		disc = dataDiscriminant
	case txn.SectionMemo:
		disc = memoDiscriminant
	default:
		return out, fmt.Errorf("%w: section kind %d", txn.ErrUnknown, sec.Kind)
	}
	h := sha256.New()
	h.Write([]byte{disc})
	h.Write(sec.Bytes)
	copy(out[:], h.Sum(nil))
	return out, nil
}

func writeUint32LE(h hash.Hash, v uint32) {
	binary.Write(h, binary.LittleEndian, v)
}
