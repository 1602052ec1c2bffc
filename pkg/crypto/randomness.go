// Randomness Manager.
//
// During transaction construction the host asks the device for the
// commitment randomness (and, for spends, the rerandomization scalar)
// that will go into the builder structures. Each scalar is the wide
// reduction of 64 bytes of hardware randomness, appended to a persisted
// list so the later validation and signing phases can retrieve exactly
// the same values by index. An index is never reused for a different
// role.
package crypto

import (
	"crypto/rand"
	"fmt"
	"io"

	"filippo.io/edwards25519"

	"github.com/suffix-labs/namada-signer/pkg/store"
	"github.com/suffix-labs/namada-signer/pkg/txn"
)

// Persisted item sizes.
const (
	spendItemLen  = 64 // rcv || alpha
	outputItemLen = 32 // rcv
)

// RandomnessManager mints per-item scalars and owns their persistence.
type RandomnessManager struct {
	rng      io.Reader
	spends   store.ItemList
	outputs  store.ItemList
	converts store.ItemList
}

// NewRandomnessManager wires the manager to the three independent lists.
// rng nil uses the hardware randomness source.
func NewRandomnessManager(spends, outputs, converts store.ItemList, rng io.Reader) *RandomnessManager {
	if rng == nil {
		rng = rand.Reader
	}
	return &RandomnessManager{rng: rng, spends: spends, outputs: outputs, converts: converts}
}

// sampleScalar wide-reduces 64 bytes of randomness into the scalar
// field.
func (m *RandomnessManager) sampleScalar() (*edwards25519.Scalar, error) {
	var wide [64]byte
	if _, err := io.ReadFull(m.rng, wide[:]); err != nil {
		return nil, fmt.Errorf("%w: randomness: %v", txn.ErrUnknown, err)
	}
	s, err := edwards25519.NewScalar().SetUniformBytes(wide[:])
	Zeroize(wide[:])
	if err != nil {
		return nil, fmt.Errorf("%w: wide reduction: %v", txn.ErrUnknown, err)
	}
	return s, nil
}

// MintSpend produces the (rcv, alpha) pair for the next spend item and
// persists it. The returned bytes are canonical scalar encodings.
func (m *RandomnessManager) MintSpend() (rcv, alpha [32]byte, index uint32, err error) {
	rcvS, err := m.sampleScalar()
	if err != nil {
		return rcv, alpha, 0, err
	}
	alphaS, err := m.sampleScalar()
	if err != nil {
		wipeScalar(rcvS)
		return rcv, alpha, 0, err
	}
	item := make([]byte, 0, spendItemLen)
	item = append(item, rcvS.Bytes()...)
	item = append(item, alphaS.Bytes()...)
	wipeScalar(rcvS)
	wipeScalar(alphaS)
	index, err = m.spends.Append(item)
	if err != nil {
		Zeroize(item)
		return rcv, alpha, 0, fmt.Errorf("persist spend randomness: %w", err)
	}
	copy(rcv[:], item[:32])
	copy(alpha[:], item[32:])
	Zeroize(item)
	return rcv, alpha, index, nil
}

// MintOutput produces the rcv scalar for the next output item.
func (m *RandomnessManager) MintOutput() (rcv [32]byte, index uint32, err error) {
	return m.mintSingle(m.outputs, "output")
}

// MintConvert produces the rcv scalar for the next convert item.
func (m *RandomnessManager) MintConvert() (rcv [32]byte, index uint32, err error) {
	return m.mintSingle(m.converts, "convert")
}

func (m *RandomnessManager) mintSingle(list store.ItemList, kind string) (rcv [32]byte, index uint32, err error) {
	s, err := m.sampleScalar()
	if err != nil {
		return rcv, 0, err
	}
	item := s.Bytes()
	wipeScalar(s)
	index, err = list.Append(item)
	if err != nil {
		Zeroize(item)
		return rcv, 0, fmt.Errorf("persist %s randomness: %w", kind, err)
	}
	copy(rcv[:], item)
	Zeroize(item)
	return rcv, index, nil
}

// spendRandomnessAt retrieves and decodes the persisted (rcv, alpha) pair
// for a spend index.
func spendRandomnessAt(list store.ItemList, index uint32) (rcv, alpha *edwards25519.Scalar, err error) {
	item, err := list.Get(index)
	if err != nil {
		return nil, nil, err
	}
	defer Zeroize(item)
	if len(item) != spendItemLen {
		return nil, nil, fmt.Errorf("%w: spend item %d is %d bytes", txn.ErrInvalidSettings, index, len(item))
	}
	rcv, err = edwards25519.NewScalar().SetCanonicalBytes(item[:32])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: spend rcv %d: %v", txn.ErrInvalidSettings, index, err)
	}
	alpha, err = edwards25519.NewScalar().SetCanonicalBytes(item[32:])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: spend alpha %d: %v", txn.ErrInvalidSettings, index, err)
	}
	return rcv, alpha, nil
}

// singleRandomnessAt retrieves the persisted rcv scalar for an output or
// convert index.
func singleRandomnessAt(list store.ItemList, index uint32) (*edwards25519.Scalar, error) {
	item, err := list.Get(index)
	if err != nil {
		return nil, err
	}
	defer Zeroize(item)
	if len(item) != outputItemLen {
		return nil, fmt.Errorf("%w: randomness item %d is %d bytes", txn.ErrInvalidSettings, index, len(item))
	}
	s, err := edwards25519.NewScalar().SetCanonicalBytes(item)
	if err != nil {
		return nil, fmt.Errorf("%w: rcv %d: %v", txn.ErrInvalidSettings, index, err)
	}
	return s, nil
}
