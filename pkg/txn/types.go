// Package txn defines the in-memory model of a parsed Namada transaction
// as seen by the authorization core.
//
// The structures here mirror the section-based transaction format of the
// Namada SDK:
//   - namada_tx::Section / namada_tx::data (section kinds and payloads)
//   - namada_tx::Signature (the salt + hashes + signer + signatures record)
//
// Parsing wire bytes into these structures is the job of an external
// parser; the core trusts the shape of a Transaction but not its semantic
// content. Shielded commitments in particular are re-derived and checked
// against secret material before anything is signed.
package txn

// Fixed sizes used throughout the signing core.
const (
	// HashLen is the size of every digest in the hash tree (SHA-256).
	HashLen = 32

	// SaltLen is the size of a signature-section salt.
	SaltLen = 32

	// MaxSignatureHashes bounds the hash tree and every signature
	// section's coverage list. Transactions that would exceed it are
	// rejected outright, never truncated.
	MaxSignatureHashes = 10

	// Ed25519 material sizes.
	PubKeyLenEd25519 = 32
	SigLenEd25519    = 64

	// secp256k1 material sizes (compressed key, recoverable signature).
	PubKeyLenSecp256k1 = 33
	SigLenSecp256k1    = 65
)

// KeyKind tags a public key or signature with its scheme.
//
// The tag byte is part of the canonical hashing layout, so the values
// must match the discriminants of namada_core's common::PublicKey enum.
type KeyKind uint8

const (
	KeyEd25519   KeyKind = 0x00
	KeySecp256k1 KeyKind = 0x01
)

// PubKeyLen returns the fixed key size for the kind, or 0 when unknown.
func (k KeyKind) PubKeyLen() int {
	switch k {
	case KeyEd25519:
		return PubKeyLenEd25519
	case KeySecp256k1:
		return PubKeyLenSecp256k1
	}
	return 0
}

// SigLen returns the fixed signature size for the kind, or 0 when unknown.
func (k KeyKind) SigLen() int {
	switch k {
	case KeyEd25519:
		return SigLenEd25519
	case KeySecp256k1:
		return SigLenSecp256k1
	}
	return 0
}

// SignerKind is the discriminant of a signature section's signer field.
type SignerKind uint8

const (
	SignerAddress SignerKind = 0x00
	SignerPubKeys SignerKind = 0x01
)

// SectionKind identifies one addressable component of a transaction.
type SectionKind uint8

const (
	SectionCode SectionKind = iota
	SectionData
	SectionMemo
	SectionSignature
)

// Section is one component of a transaction. Sections are immutable once
// parsed; ownership belongs to the transaction.
type Section struct {
	Kind  SectionKind
	Idx   uint8
	Bytes []byte
}

// TaggedPubKey is a (kind, key bytes) pair inside a signature section.
type TaggedPubKey struct {
	Kind  KeyKind
	Bytes []byte
}

// TaggedSignature is a (slot, kind, signature bytes) triple inside a
// signature section. Slot is the index of the authorizing key within the
// section's key list.
type TaggedSignature struct {
	Slot  uint8
	Kind  KeyKind
	Bytes []byte
}

// SignatureSection is a self-describing record binding a salt, a list of
// covered section hashes, a signer identity, and zero or more signatures.
//
// The unsigned and signed forms of the same section hash to different
// digests: the signed form is hashed under the 0x03 domain prefix with its
// signature list populated.
type SignatureSection struct {
	Salt       [SaltLen]byte
	Hashes     []IndexedHash
	Signer     SignerKind
	PubKeys    []TaggedPubKey // Signer == SignerPubKeys
	Address    []byte         // Signer == SignerAddress
	Signatures []TaggedSignature

	// Idx is the section's own index within the transaction's section
	// list. Only meaningful for sections already present on the wire.
	Idx uint8
}

// Header carries the transaction header's raw bytes (committed to by the
// inner signature) and its fee-extension bytes (committed to by the outer
// signature).
type Header struct {
	Bytes    []byte
	FeeBytes []byte
}

// TxKind discriminates transaction types. Only a few kinds contribute
// extra hashes to the tree; the rest are listed for completeness of the
// parsed model.
type TxKind uint8

const (
	TxTransfer TxKind = iota
	TxBond
	TxUnbond
	TxWithdraw
	TxInitAccount
	TxInitValidator
	TxUpdateVP
	TxInitProposal
	TxVoteProposal
	TxRevealPubKey
	TxCustom
)

// ExtraHash is a pre-computed section hash contributed by a type-specific
// payload (VP code, proposal content), tagged with its section index.
type ExtraHash struct {
	Hash [HashLen]byte
	Idx  uint8
}

// Transaction is the single in-memory transaction object held by the
// device. It is read-only during signing.
type Transaction struct {
	Kind   TxKind
	Header Header
	Code   Section
	Data   Section
	Memo   *Section

	// PriorSignatures are signature sections already present on the wire
	// (from other parties). They are accepted into the hash tree only if
	// their full coverage is recognized.
	PriorSignatures []SignatureSection

	// SectionCount is the number of sections in the transaction's
	// section list; the freshly built raw signature section is assigned
	// wire index SectionCount+1.
	SectionCount uint8

	// VpType is set for InitAccount, InitValidator and UpdateVP kinds.
	VpType *ExtraHash

	// ProposalContent and ProposalCode are set for InitProposal;
	// ProposalCode is optional.
	ProposalContent *ExtraHash
	ProposalCode    *ExtraHash

	// Masp is present for shielded transfers.
	Masp *MaspBundle

	// Raw holds the full wire-format transaction buffer. The shielded
	// flow returns its SHA-256 as the externally-verifiable commitment.
	Raw []byte
}

// SpendDescription is the builder-side view of one shielded spend: the
// claimed value and asset, to be checked against the transaction's
// embedded commitments.
type SpendDescription struct {
	Value   uint64
	AssetID [32]byte
}

// SpendCommitment is the transaction-side view of one shielded spend.
type SpendCommitment struct {
	CV [32]byte
	Rk [32]byte
}

// OutputDescription is the builder-side view of one shielded output.
type OutputDescription struct {
	Value   uint64
	AssetID [32]byte
}

// OutputCommitment is the transaction-side view of one shielded output.
type OutputCommitment struct {
	CV [32]byte
}

// ConvertDescription is the builder-side view of one shielded convert.
type ConvertDescription struct {
	Value   uint64
	AssetID [32]byte
}

// ConvertCommitment is the transaction-side view of one shielded convert.
type ConvertCommitment struct {
	CV [32]byte
}

// MaspBundle carries both sides of the shielded data: the untrusted
// builder descriptions and the transaction's embedded commitments.
type MaspBundle struct {
	BuilderSpends []SpendDescription
	Spends        []SpendCommitment

	BuilderOutputs []OutputDescription
	Outputs        []OutputCommitment

	// OutputIndices redirects builder output i to transaction output
	// OutputIndices[i]. Empty means identity order.
	OutputIndices []uint8

	BuilderConverts []ConvertDescription
	Converts        []ConvertCommitment

	// SigningData is the byte string the per-spend signatures commit to.
	SigningData []byte
}
