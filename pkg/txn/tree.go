package txn

// OwnerKind tags a hash-tree entry with where its digest came from.
//
// The wire encoding overloads two sentinel bytes (0 for the header slot,
// 255 for "no section yet") and assigns the freshly built raw signature
// section the index one past the transaction's section count. Those magic
// values exist only in WireIndex; everywhere else the owner is an explicit
// tagged value.
type OwnerKind uint8

const (
	// OwnerSection marks a digest of a real transaction section.
	OwnerSection OwnerKind = iota

	// OwnerHeader marks the fee-header digest occupying slot 0 of the
	// final tree.
	OwnerHeader

	// OwnerNone marks a digest not attributable to any section: the raw
	// header hash during the inner-signature phase.
	OwnerNone

	// OwnerRawSigSection marks the digest of the raw signature section
	// built by the device itself.
	OwnerRawSigSection
)

// Owner identifies the origin of one hash-tree entry.
type Owner struct {
	Kind OwnerKind

	// Section is the section index; meaningful only for OwnerSection.
	Section uint8
}

// WireIndex encodes the owner as the single byte emitted in the raw and
// final index lists. sectionCount is the transaction's section count.
func (o Owner) WireIndex(sectionCount uint8) uint8 {
	switch o.Kind {
	case OwnerHeader:
		return 0
	case OwnerNone:
		return 255
	case OwnerRawSigSection:
		return sectionCount + 1
	default:
		return o.Section
	}
}

// IndexedHash is one (owner, digest) entry of the hash tree or of a
// signature section's coverage list. Only the digest participates in
// hashing; the owner is bookkeeping for the emitted index metadata.
type IndexedHash struct {
	Owner Owner
	Hash  [HashLen]byte
}

// HashTree is the working hash-tree state: a capacity-bounded, append-only
// ordered sequence of digests with parallel owner tags. Order is fixed by
// protocol, not by implementation convenience.
type HashTree struct {
	entries [MaxSignatureHashes]IndexedHash
	n       int
}

// NewHashTree returns an empty tree.
func NewHashTree() *HashTree {
	return &HashTree{}
}

// Len reports the number of entries appended so far.
func (t *HashTree) Len() int {
	return t.n
}

// Append adds a digest to the tree. Exceeding the capacity bound fails
// with ErrHashTreeFull; callers must size transactions within the bound.
func (t *HashTree) Append(hash [HashLen]byte, owner Owner) error {
	if t.n >= MaxSignatureHashes {
		return ErrHashTreeFull
	}
	t.entries[t.n] = IndexedHash{Owner: owner, Hash: hash}
	t.n++
	return nil
}

// SetSlot overwrites an existing entry in place. Used once, to swap the
// raw-header digest in slot 0 for the fee-header digest before the outer
// signature is built.
func (t *HashTree) SetSlot(i int, hash [HashLen]byte, owner Owner) error {
	if i < 0 || i >= t.n {
		return ErrInvalidSettings
	}
	t.entries[i] = IndexedHash{Owner: owner, Hash: hash}
	return nil
}

// Entries returns a copy of the current entry list, suitable for embedding
// in a signature section's coverage list.
func (t *HashTree) Entries() []IndexedHash {
	out := make([]IndexedHash, t.n)
	copy(out, t.entries[:t.n])
	return out
}

// Contains reports whether the digest is already present in the tree.
func (t *HashTree) Contains(hash [HashLen]byte) bool {
	for i := 0; i < t.n; i++ {
		if t.entries[i].Hash == hash {
			return true
		}
	}
	return false
}

// WireIndices encodes the owner of every entry, in order, as the one-byte
// index list a verifier uses to reassemble the tree.
func (t *HashTree) WireIndices(sectionCount uint8) []byte {
	out := make([]byte, t.n)
	for i := 0; i < t.n; i++ {
		out[i] = t.entries[i].Owner.WireIndex(sectionCount)
	}
	return out
}
