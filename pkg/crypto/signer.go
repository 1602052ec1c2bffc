// Transaction signing: the hash-tree builder and the two top-level
// Ed25519 signatures.
//
// The tree order is fixed by protocol: raw header, type-specific extra
// hashes, the device's own signature section, code, data, optional memo,
// then any recognized prior signature sections. The inner ("raw")
// signature covers the tree as it stands before code and data are
// appended; the outer ("wrapper") signature covers the full tree with the
// fee header swapped into slot 0. The wrapper section intentionally
// carries zero public keys and zero signatures when hashed, so the
// wrapper's own identity is never part of what it signs.
package crypto

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/suffix-labs/namada-signer/pkg/txn"
)

// SignResult is the signing output: one backing buffer plus the offsets
// of every typed field within it. The byte layout is fixed:
//
//	[1-byte tag | 32-byte pubkey][32-byte salt]
//	[1-byte tag | 64-byte raw signature][1-byte tag | 64-byte wrapper signature]
//	[1-byte count | raw indices][1-byte count | final indices]
type SignResult struct {
	Output []byte

	PubKeyOff       int
	SaltOff         int
	RawSigOff       int
	WrapperSigOff   int
	RawIndicesOff   int
	FinalIndicesOff int
}

// PubKey returns the tagged public key field (tag byte included).
func (r *SignResult) PubKey() []byte {
	return r.Output[r.PubKeyOff : r.PubKeyOff+1+txn.PubKeyLenEd25519]
}

// Salt returns the signature-section salt.
func (r *SignResult) Salt() [txn.SaltLen]byte {
	var s [txn.SaltLen]byte
	copy(s[:], r.Output[r.SaltOff:])
	return s
}

// RawSignature returns the 64-byte inner signature (tag byte excluded).
func (r *SignResult) RawSignature() []byte {
	return r.Output[r.RawSigOff+1 : r.RawSigOff+1+txn.SigLenEd25519]
}

// WrapperSignature returns the 64-byte outer signature (tag excluded).
func (r *SignResult) WrapperSignature() []byte {
	return r.Output[r.WrapperSigOff+1 : r.WrapperSigOff+1+txn.SigLenEd25519]
}

// RawIndices returns the index list the raw signature covered.
func (r *SignResult) RawIndices() []byte {
	n := int(r.Output[r.RawIndicesOff])
	return r.Output[r.RawIndicesOff+1 : r.RawIndicesOff+1+n]
}

// FinalIndices returns the index list of the completed tree.
func (r *SignResult) FinalIndices() []byte {
	n := int(r.Output[r.FinalIndicesOff])
	return r.Output[r.FinalIndicesOff+1 : r.FinalIndicesOff+1+n]
}

// outputBuilder appends typed fields to a growable byte sequence and
// records their offsets. Nothing is surfaced until every step has
// succeeded, so a failure can never leak a partial signature.
type outputBuilder struct {
	buf []byte
}

func (b *outputBuilder) taggedField(tag byte, data []byte) int {
	off := len(b.buf)
	b.buf = append(b.buf, tag)
	b.buf = append(b.buf, data...)
	return off
}

func (b *outputBuilder) field(data []byte) int {
	off := len(b.buf)
	b.buf = append(b.buf, data...)
	return off
}

func (b *outputBuilder) countedField(data []byte) int {
	off := len(b.buf)
	b.buf = append(b.buf, byte(len(data)))
	b.buf = append(b.buf, data...)
	return off
}

// SignTransaction authorizes the transaction: it builds the canonical
// hash tree, signs it twice with the Ed25519 key derived for path, and
// returns the signatures plus the index metadata a verifier needs to
// reassemble the tree. rng supplies the section salt; nil uses the
// hardware randomness source.
func SignTransaction(txObj *txn.Transaction, seed []byte, path []uint32, rng io.Reader) (*SignResult, error) {
	if txObj == nil {
		return nil, txn.ErrNoData
	}
	if len(seed) == 0 {
		return nil, txn.ErrNoData
	}
	if rng == nil {
		rng = rand.Reader
	}

	pub, err := ExtractPublicKeyEd25519(seed, path)
	if err != nil {
		return nil, err
	}

	tree := txn.NewHashTree()

	// Slot 0: the raw header, attributable to no section during the
	// inner-signature phase.
	headerHash, err := HashRawHeader(&txObj.Header)
	if err != nil {
		return nil, err
	}
	if err := tree.Append(headerHash, txn.Owner{Kind: txn.OwnerNone}); err != nil {
		return nil, err
	}

	if err := appendKindHashes(txObj, tree); err != nil {
		return nil, err
	}

	var salt [txn.SaltLen]byte
	if _, err := io.ReadFull(rng, salt[:]); err != nil {
		return nil, fmt.Errorf("%w: salt: %v", txn.ErrUnknown, err)
	}

	// Unsigned raw signature section over the tree so far.
	rawSec := txn.SignatureSection{
		Salt:   salt,
		Hashes: tree.Entries(),
		Signer: txn.SignerPubKeys,
		PubKeys: []txn.TaggedPubKey{
			{Kind: txn.KeyEd25519, Bytes: pub[:]},
		},
	}
	rawSigHash, err := HashSignatureSection(&rawSec, nil)
	if err != nil {
		return nil, err
	}

	rawSig, err := SignEd25519(seed, path, rawSigHash[:])
	if err != nil {
		return nil, err
	}
	rawIndices := tree.WireIndices(txObj.SectionCount)

	// Promote to signed form and fold it into the tree under the section
	// discriminant.
	rawSec.Signatures = []txn.TaggedSignature{
		{Slot: 0, Kind: txn.KeyEd25519, Bytes: rawSig[:]},
	}
	signedSecHash, err := HashSignatureSection(&rawSec, []byte{SigSectionPrefix})
	if err != nil {
		return nil, err
	}
	if err := tree.Append(signedSecHash, txn.Owner{Kind: txn.OwnerRawSigSection}); err != nil {
		return nil, err
	}

	codeHash, err := HashSection(&txObj.Code)
	if err != nil {
		return nil, err
	}
	if err := tree.Append(codeHash, txn.Owner{Kind: txn.OwnerSection, Section: txObj.Code.Idx}); err != nil {
		return nil, err
	}
	dataHash, err := HashSection(&txObj.Data)
	if err != nil {
		return nil, err
	}
	if err := tree.Append(dataHash, txn.Owner{Kind: txn.OwnerSection, Section: txObj.Data.Idx}); err != nil {
		return nil, err
	}

	if txObj.Memo != nil {
		memoHash, err := HashSection(txObj.Memo)
		if err != nil {
			return nil, err
		}
		if err := tree.Append(memoHash, txn.Owner{Kind: txn.OwnerSection, Section: txObj.Memo.Idx}); err != nil {
			return nil, err
		}
	}

	if err := appendPriorSignatures(txObj, tree); err != nil {
		return nil, err
	}

	// The outer signature commits to the fee header, not the raw header,
	// at slot 0.
	feeHash, err := HashFeeHeader(&txObj.Header)
	if err != nil {
		return nil, err
	}
	if err := tree.SetSlot(0, feeHash, txn.Owner{Kind: txn.OwnerHeader}); err != nil {
		return nil, err
	}

	// The wrapper section hashes with zero keys and zero signatures.
	wrapperSec := txn.SignatureSection{
		Salt:   salt,
		Hashes: tree.Entries(),
		Signer: txn.SignerPubKeys,
	}
	wrapperSigHash, err := HashSignatureSection(&wrapperSec, nil)
	if err != nil {
		return nil, err
	}
	wrapperSig, err := SignEd25519(seed, path, wrapperSigHash[:])
	if err != nil {
		return nil, err
	}

	b := &outputBuilder{}
	res := &SignResult{}
	res.PubKeyOff = b.taggedField(byte(txn.KeyEd25519), pub[:])
	res.SaltOff = b.field(salt[:])
	res.RawSigOff = b.taggedField(byte(txn.KeyEd25519), rawSig[:])
	res.WrapperSigOff = b.taggedField(byte(txn.KeyEd25519), wrapperSig[:])
	res.RawIndicesOff = b.countedField(rawIndices)
	res.FinalIndicesOff = b.countedField(tree.WireIndices(txObj.SectionCount))
	res.Output = b.buf
	return res, nil
}

// appendKindHashes appends the extra hashes contributed by the
// transaction type: the VP-type section for account and validator
// initialization and VP updates, the content and optional proposal-code
// sections for proposal initialization.
func appendKindHashes(txObj *txn.Transaction, tree *txn.HashTree) error {
	switch txObj.Kind {
	case txn.TxInitAccount, txn.TxInitValidator, txn.TxUpdateVP:
		if txObj.VpType == nil {
			return txn.ErrNoData
		}
		return tree.Append(txObj.VpType.Hash, txn.Owner{Kind: txn.OwnerSection, Section: txObj.VpType.Idx})

	case txn.TxInitProposal:
		if txObj.ProposalContent == nil {
			return txn.ErrNoData
		}
		if err := tree.Append(txObj.ProposalContent.Hash, txn.Owner{Kind: txn.OwnerSection, Section: txObj.ProposalContent.Idx}); err != nil {
			return err
		}
		if txObj.ProposalCode != nil {
			return tree.Append(txObj.ProposalCode.Hash, txn.Owner{Kind: txn.OwnerSection, Section: txObj.ProposalCode.Idx})
		}
		return nil

	default:
		// Other transaction kinds contribute no extra hashes.
		return nil
	}
}

// appendPriorSignatures folds already-present signature sections into the
// tree. A section is accepted only if every hash it covers is already in
// the tree; a signature over content this device cannot verify is skipped
// entirely rather than partially trusted.
func appendPriorSignatures(txObj *txn.Transaction, tree *txn.HashTree) error {
	for i := range txObj.PriorSignatures {
		sec := &txObj.PriorSignatures[i]

		recognized := true
		for _, cov := range sec.Hashes {
			if !tree.Contains(cov.Hash) {
				recognized = false
				break
			}
		}
		if !recognized {
			continue
		}

		h, err := HashSignatureSection(sec, []byte{SigSectionPrefix})
		if err != nil {
			return err
		}
		if err := tree.Append(h, txn.Owner{Kind: txn.OwnerSection, Section: sec.Idx}); err != nil {
			return err
		}
	}
	return nil
}
