// Package txn error types.
//
// The taxonomy mirrors the coarse result codes the device reports to the
// host: malformed parameters, missing inputs, generic internal failure,
// plus the structured shielded-validation failures that carry enough
// context for the host to point at the offending item.
package txn

import (
	"errors"
	"fmt"
)

// Coarse failure conditions reported at the command boundary.
var (
	// ErrInvalidSettings signals malformed or undersized parameters.
	ErrInvalidSettings = errors.New("invalid crypto settings")

	// ErrUnknown is the generic internal failure: unrecognized tags,
	// undersized outputs, hashing-primitive failure.
	ErrUnknown = errors.New("unknown failure")

	// ErrNoData signals a missing required input object.
	ErrNoData = errors.New("no data")

	// ErrBufferTooSmall signals an undersized caller-provided buffer.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrEncodingFailed signals a text-encoding failure in the address
	// path.
	ErrEncodingFailed = errors.New("encoding failed")

	// ErrHashTreeFull signals a transaction whose sections would exceed
	// the fixed hash-tree capacity.
	ErrHashTreeFull = errors.New("hash tree capacity exceeded")
)

// Error codes for shielded validation failures.
const (
	ErrCodeInvalidSpendCount   = "INVALID_NUM_SPENDS"
	ErrCodeInvalidOutputCount  = "INVALID_NUM_OUTPUTS"
	ErrCodeInvalidConvertCount = "INVALID_NUM_CONVERTS"
	ErrCodeInvalidCommitment   = "INVALID_CV"
	ErrCodeInvalidRk           = "INVALID_RK"
)

// CountError is returned when the builder-side description count does not
// match the transaction-side description count for one shielded kind.
type CountError struct {
	Code string // ErrCodeInvalid{Spend,Output,Convert}Count
	Want int    // builder-side count
	Got  int    // transaction-side count
}

func (e *CountError) Error() string {
	return fmt.Sprintf("shielded validation [%s]: builder has %d, transaction has %d", e.Code, e.Want, e.Got)
}

// CommitmentError is returned when a recomputed value commitment does not
// byte-equal the commitment embedded in the transaction.
type CommitmentError struct {
	Kind  string // "spend", "output" or "convert"
	Index int    // builder-side item index
}

func (e *CommitmentError) Error() string {
	return fmt.Sprintf("shielded validation [%s]: %s %d commitment mismatch", ErrCodeInvalidCommitment, e.Kind, e.Index)
}

// RandomizedKeyError is returned when a recomputed rerandomized
// verification key does not byte-equal the one embedded in the
// transaction.
type RandomizedKeyError struct {
	Index int // spend index
}

func (e *RandomizedKeyError) Error() string {
	return fmt.Sprintf("shielded validation [%s]: spend %d randomized key mismatch", ErrCodeInvalidRk, e.Index)
}

// PhaseError is returned when a shielded operation is invoked out of
// order. The flow is strictly KeysReady -> Validated -> Signed -> Hashed,
// no retries.
type PhaseError struct {
	Op   string
	Want string
	Got  string
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s requires phase %s, session is %s", e.Op, e.Want, e.Got)
}
