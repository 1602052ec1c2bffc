// Shielded Authorization Engine.
//
// The flow is a strict one-way state machine:
//
//	KeysReady -> Validated -> Signed -> Hashed
//
// KeysReady derives the shielded hierarchy from a freshly supplied seed.
// Validated recomputes every builder-claimed value commitment (and, per
// spend, the rerandomized verification key) from persisted randomness and
// compares it byte-for-byte against the untrusted transaction. Signed
// produces one rerandomized spend signature per spend and appends it to
// the persisted signature list. Hashed returns the SHA-256 of the full
// wire-format transaction as the externally-verifiable commitment.
//
// Any failure aborts the whole flow and wipes the derived key material.
// Signatures already appended to the external list are left as-is; the
// list owner is responsible for its own consistency across aborts.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/suffix-labs/namada-signer/pkg/store"
	"github.com/suffix-labs/namada-signer/pkg/txn"
)

// ShieldedPhase is the engine's position in the authorization flow.
type ShieldedPhase uint8

const (
	PhaseKeysReady ShieldedPhase = iota
	PhaseValidated
	PhaseSigned
	PhaseHashed
	phaseAborted
)

func (p ShieldedPhase) String() string {
	switch p {
	case PhaseKeysReady:
		return "KeysReady"
	case PhaseValidated:
		return "Validated"
	case PhaseSigned:
		return "Signed"
	case PhaseHashed:
		return "Hashed"
	default:
		return "Aborted"
	}
}

// ShieldedLists groups the persisted collaborator lists the engine reads
// and writes.
type ShieldedLists struct {
	SpendRandomness   store.ItemList
	OutputRandomness  store.ItemList
	ConvertRandomness store.ItemList
	SpendSignatures   store.ItemList
}

// ShieldedAuthorizer validates and signs one shielded transaction.
type ShieldedAuthorizer struct {
	keys   *ShieldedKeys
	lists  ShieldedLists
	strict bool
	rng    io.Reader
	phase  ShieldedPhase
}

// NewShieldedAuthorizer derives the key hierarchy and enters KeysReady.
// strict enables the rerandomized-key check during validation; it is an
// explicit option so both modes are exercisable without rebuilding. rng
// nil uses the hardware randomness source.
func NewShieldedAuthorizer(seed []byte, path []uint32, lists ShieldedLists, strict bool, rng io.Reader) (*ShieldedAuthorizer, error) {
	keys, err := DeriveShieldedKeys(seed, path)
	if err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.Reader
	}
	return &ShieldedAuthorizer{
		keys:   keys,
		lists:  lists,
		strict: strict,
		rng:    rng,
		phase:  PhaseKeysReady,
	}, nil
}

// Keys exposes the derived hierarchy's public halves.
func (a *ShieldedAuthorizer) Keys() *ShieldedKeys {
	return a.keys
}

// Phase reports the engine's current state.
func (a *ShieldedAuthorizer) Phase() ShieldedPhase {
	return a.phase
}

// Wipe zeroizes the derived key material and poisons the engine.
func (a *ShieldedAuthorizer) Wipe() {
	if a == nil {
		return
	}
	a.keys.Wipe()
	a.phase = phaseAborted
}

// abort wipes keys and returns the causing error.
func (a *ShieldedAuthorizer) abort(err error) error {
	a.Wipe()
	return err
}

func (a *ShieldedAuthorizer) requirePhase(op string, want ShieldedPhase) error {
	if a.phase != want {
		return &txn.PhaseError{Op: op, Want: want.String(), Got: a.phase.String()}
	}
	return nil
}

// Validate runs checkSpends, checkOutputs and checkConverts and advances
// to Validated. Any mismatch aborts with key wipe.
func (a *ShieldedAuthorizer) Validate(txObj *txn.Transaction) error {
	if err := a.requirePhase("validate", PhaseKeysReady); err != nil {
		return err
	}
	if txObj == nil || txObj.Masp == nil {
		return a.abort(txn.ErrNoData)
	}
	bundle := txObj.Masp

	if err := a.checkSpends(bundle); err != nil {
		return a.abort(err)
	}
	if err := a.checkOutputs(bundle); err != nil {
		return a.abort(err)
	}
	if err := a.checkConverts(bundle); err != nil {
		return a.abort(err)
	}
	a.phase = PhaseValidated
	return nil
}

func (a *ShieldedAuthorizer) checkSpends(bundle *txn.MaspBundle) error {
	if len(bundle.BuilderSpends) != len(bundle.Spends) {
		return &txn.CountError{
			Code: txn.ErrCodeInvalidSpendCount,
			Want: len(bundle.BuilderSpends),
			Got:  len(bundle.Spends),
		}
	}
	for i, desc := range bundle.BuilderSpends {
		rcv, alpha, err := spendRandomnessAt(a.lists.SpendRandomness, uint32(i))
		if err != nil {
			return err
		}
		cv, err := ValueCommitment(desc.Value, rcv, desc.AssetID)
		wipeScalar(rcv)
		if err != nil {
			wipeScalar(alpha)
			return err
		}
		if !constantTimeEqual(cv[:], bundle.Spends[i].CV[:]) {
			wipeScalar(alpha)
			return &txn.CommitmentError{Kind: "spend", Index: i}
		}
		if a.strict {
			rk, err := a.keys.RandomizedVerificationKey(alpha)
			if err != nil {
				wipeScalar(alpha)
				return err
			}
			if !constantTimeEqual(rk[:], bundle.Spends[i].Rk[:]) {
				wipeScalar(alpha)
				return &txn.RandomizedKeyError{Index: i}
			}
		}
		wipeScalar(alpha)
	}
	return nil
}

func (a *ShieldedAuthorizer) checkOutputs(bundle *txn.MaspBundle) error {
	if len(bundle.BuilderOutputs) != len(bundle.Outputs) {
		return &txn.CountError{
			Code: txn.ErrCodeInvalidOutputCount,
			Want: len(bundle.BuilderOutputs),
			Got:  len(bundle.Outputs),
		}
	}
	if len(bundle.OutputIndices) != 0 {
		if len(bundle.OutputIndices) != len(bundle.BuilderOutputs) {
			return fmt.Errorf("%w: output index list length %d", txn.ErrInvalidSettings, len(bundle.OutputIndices))
		}
		// The redirect list must be a permutation: every transaction
		// output referenced exactly once.
		seen := make([]bool, len(bundle.Outputs))
		for i, idx := range bundle.OutputIndices {
			if int(idx) >= len(bundle.Outputs) {
				return fmt.Errorf("%w: output redirect %d -> %d", txn.ErrInvalidSettings, i, idx)
			}
			if seen[idx] {
				return fmt.Errorf("%w: output redirect %d -> %d referenced twice", txn.ErrInvalidSettings, i, idx)
			}
			seen[idx] = true
		}
	}
	for i, desc := range bundle.BuilderOutputs {
		// Outputs may be listed out of order relative to the builder;
		// the side index stream redirects them.
		txIdx := i
		if len(bundle.OutputIndices) != 0 {
			txIdx = int(bundle.OutputIndices[i])
		}
		rcv, err := singleRandomnessAt(a.lists.OutputRandomness, uint32(i))
		if err != nil {
			return err
		}
		cv, err := ValueCommitment(desc.Value, rcv, desc.AssetID)
		wipeScalar(rcv)
		if err != nil {
			return err
		}
		if !constantTimeEqual(cv[:], bundle.Outputs[txIdx].CV[:]) {
			return &txn.CommitmentError{Kind: "output", Index: i}
		}
	}
	return nil
}

func (a *ShieldedAuthorizer) checkConverts(bundle *txn.MaspBundle) error {
	if len(bundle.BuilderConverts) != len(bundle.Converts) {
		return &txn.CountError{
			Code: txn.ErrCodeInvalidConvertCount,
			Want: len(bundle.BuilderConverts),
			Got:  len(bundle.Converts),
		}
	}
	for i, desc := range bundle.BuilderConverts {
		rcv, err := singleRandomnessAt(a.lists.ConvertRandomness, uint32(i))
		if err != nil {
			return err
		}
		cv, err := ValueCommitment(desc.Value, rcv, desc.AssetID)
		wipeScalar(rcv)
		if err != nil {
			return err
		}
		if !constantTimeEqual(cv[:], bundle.Converts[i].CV[:]) {
			return &txn.CommitmentError{Kind: "convert", Index: i}
		}
	}
	return nil
}

// SignSpends computes the message-wide signing hash once, then produces
// one rerandomized signature per spend, in order, appending each to the
// persisted signature list. Advances to Signed.
func (a *ShieldedAuthorizer) SignSpends(txObj *txn.Transaction) error {
	if err := a.requirePhase("sign spends", PhaseValidated); err != nil {
		return err
	}
	if txObj == nil || txObj.Masp == nil {
		return a.abort(txn.ErrNoData)
	}
	bundle := txObj.Masp

	signHash := sha256.Sum256(bundle.SigningData)

	for i := range bundle.BuilderSpends {
		_, alpha, err := spendRandomnessAt(a.lists.SpendRandomness, uint32(i))
		if err != nil {
			return a.abort(err)
		}

		rsk, err := a.keys.RandomizedSpendKey(alpha)
		if err != nil {
			wipeScalar(alpha)
			return a.abort(err)
		}
		rk, err := a.keys.RandomizedVerificationKey(alpha)
		wipeScalar(alpha)
		if err != nil {
			wipeScalar(rsk)
			return a.abort(err)
		}

		var t [80]byte
		if _, err := io.ReadFull(a.rng, t[:]); err != nil {
			wipeScalar(rsk)
			return a.abort(fmt.Errorf("%w: signing randomness: %v", txn.ErrUnknown, err))
		}
		sig, err := signSpend(rsk, rk, signHash[:], t)
		wipeScalar(rsk)
		Zeroize(t[:])
		if err != nil {
			return a.abort(err)
		}
		if _, err := a.lists.SpendSignatures.Append(sig[:]); err != nil {
			return a.abort(fmt.Errorf("persist spend signature: %w", err))
		}
	}
	a.phase = PhaseSigned
	return nil
}

// HashTransaction hashes the full wire-format transaction buffer once and
// returns the digest. Advances to Hashed and wipes the key material: the
// flow is complete.
func (a *ShieldedAuthorizer) HashTransaction(txObj *txn.Transaction) ([txn.HashLen]byte, error) {
	var out [txn.HashLen]byte
	if err := a.requirePhase("hash transaction", PhaseSigned); err != nil {
		return out, err
	}
	if txObj == nil || len(txObj.Raw) == 0 {
		return out, a.abort(txn.ErrNoData)
	}
	out = sha256.Sum256(txObj.Raw)
	a.keys.Wipe()
	a.phase = PhaseHashed
	return out, nil
}
