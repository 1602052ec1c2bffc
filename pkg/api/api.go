// Package api provides the high-level public API for transaction
// authorization.
//
// This is the main entry point for applications using the namada-signer
// library. It implements the core operations of the signing flow:
//
//  1. FillAddress - Derives a public key and renders its addresses
//  2. SignTransaction - Builds the hash tree and signs raw + wrapper
//  3. MintSpendRandomness / MintOutputRandomness / MintConvertRandomness -
//     Samples and persists shielded builder randomness
//  4. SignShielded - Runs the full shielded authorization flow
//  5. Reset - Discards persisted randomness and signatures
//
// A Session owns the persisted lists and the randomness manager; the key
// seed is resolved per operation through a SeedProvider so it never sits
// in long-lived session state.
package api

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/suffix-labs/namada-signer/pkg/address"
	"github.com/suffix-labs/namada-signer/pkg/crypto"
	"github.com/suffix-labs/namada-signer/pkg/store"
	"github.com/suffix-labs/namada-signer/pkg/txn"
)

// SeedProvider resolves the master seed on demand. Implementations must
// return a fresh copy; callers zeroize what they receive.
type SeedProvider interface {
	Seed() ([]byte, error)
}

// StaticSeed is a SeedProvider over a fixed in-memory seed.
type StaticSeed []byte

func (s StaticSeed) Seed() ([]byte, error) {
	if len(s) == 0 {
		return nil, txn.ErrNoData
	}
	out := make([]byte, len(s))
	copy(out, s)
	return out, nil
}

// Config carries session-level options.
type Config struct {
	// StorePath is the bolt database file backing the persisted lists.
	// Empty means in-memory lists only.
	StorePath string

	// StrictValidation enables the rerandomized-key check during
	// shielded validation. Zero value of Config keeps it off; use
	// DefaultConfig for the recommended settings.
	StrictValidation bool

	// Path is the derivation path. Nil means the default account path.
	Path []uint32

	// Rand overrides the randomness source, nil means crypto/rand.
	Rand io.Reader

	// Logger receives operational logs. Nil means no logging.
	Logger *zap.Logger
}

// DefaultConfig returns the recommended session settings.
func DefaultConfig() Config {
	return Config{StrictValidation: true}
}

// Addresses is the result of FillAddress.
type Addresses struct {
	PublicKey []byte
	Encoded   string
	Implicit  string
}

// Session is a stateful signing context over a seed provider and a set
// of persisted lists.
type Session struct {
	seeds  SeedProvider
	cfg    Config
	log    *zap.Logger
	db     *store.DB
	lists crypto.ShieldedLists
	rand  *crypto.RandomnessManager

	mu     sync.Mutex
	active bool
}

// beginFlow marks a shielded flow in progress. Reports false if one
// already is.
func (s *Session) beginFlow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return false
	}
	s.active = true
	return true
}

func (s *Session) endFlow() {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
}

func (s *Session) flowActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// NewSession opens the backing store (if configured) and prepares the
// randomness manager. Close releases the store.
func NewSession(seeds SeedProvider, cfg Config) (*Session, error) {
	if seeds == nil {
		return nil, fmt.Errorf("%w: seed provider required", txn.ErrInvalidSettings)
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Path == nil {
		cfg.Path = crypto.DefaultPath()
	}

	s := &Session{seeds: seeds, cfg: cfg, log: log}

	if cfg.StorePath != "" {
		db, err := store.Open(cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		s.db = db
		s.lists = crypto.ShieldedLists{
			SpendRandomness:   db.List(store.RoleSpendRandomness),
			OutputRandomness:  db.List(store.RoleOutputRandomness),
			ConvertRandomness: db.List(store.RoleConvertRandomness),
			SpendSignatures:   db.List(store.RoleSpendSignatures),
		}
	} else {
		s.lists = crypto.ShieldedLists{
			SpendRandomness:   store.NewMemoryList(),
			OutputRandomness:  store.NewMemoryList(),
			ConvertRandomness: store.NewMemoryList(),
			SpendSignatures:   store.NewMemoryList(),
		}
	}

	s.rand = crypto.NewRandomnessManager(
		s.lists.SpendRandomness,
		s.lists.OutputRandomness,
		s.lists.ConvertRandomness,
		cfg.Rand,
	)
	return s, nil
}

// Close releases the backing store.
func (s *Session) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Lists exposes the session's persisted lists, for verification flows
// that need to read back signatures.
func (s *Session) Lists() crypto.ShieldedLists {
	return s.lists
}

// FillAddress derives the session's ed25519 public key and renders its
// bech32m public key and implicit address encodings.
func (s *Session) FillAddress() (*Addresses, error) {
	seed, err := s.seeds.Seed()
	if err != nil {
		return nil, err
	}
	defer crypto.Zeroize(seed)

	pub, err := crypto.ExtractPublicKeyEd25519(seed, s.cfg.Path)
	if err != nil {
		return nil, err
	}
	encoded, err := address.EncodePublicKey(txn.KeyEd25519, pub[:])
	if err != nil {
		return nil, err
	}
	implicit, err := address.EncodeImplicit(txn.KeyEd25519, pub[:])
	if err != nil {
		return nil, err
	}
	s.log.Debug("derived address", zap.String("address", implicit))
	return &Addresses{PublicKey: pub[:], Encoded: encoded, Implicit: implicit}, nil
}

// SignTransaction authorizes a transparent transaction: it builds the
// section hash tree, signs the raw form, then signs the wrapper form.
func (s *Session) SignTransaction(txObj *txn.Transaction) (*crypto.SignResult, error) {
	seed, err := s.seeds.Seed()
	if err != nil {
		return nil, err
	}
	defer crypto.Zeroize(seed)

	res, err := crypto.SignTransaction(txObj, seed, s.cfg.Path, s.cfg.Rand)
	if err != nil {
		s.log.Warn("transaction signing failed", zap.Error(err))
		return nil, err
	}
	s.log.Info("transaction signed",
		zap.Int("raw_hashes", len(res.RawIndices())),
		zap.Int("final_hashes", len(res.FinalIndices())))
	return res, nil
}

// MintSpendRandomness samples rcv and alpha for the next spend and
// persists them. Rejected while a shielded flow is running so the
// validated randomness set stays frozen.
func (s *Session) MintSpendRandomness() (rcv, alpha [32]byte, index uint32, err error) {
	if s.flowActive() {
		err = &txn.PhaseError{Op: "mint spend randomness", Want: "KeysReady", Got: "flow active"}
		return
	}
	return s.rand.MintSpend()
}

// MintOutputRandomness samples rcv for the next output and persists it.
func (s *Session) MintOutputRandomness() (rcv [32]byte, index uint32, err error) {
	if s.flowActive() {
		err = &txn.PhaseError{Op: "mint output randomness", Want: "KeysReady", Got: "flow active"}
		return
	}
	return s.rand.MintOutput()
}

// MintConvertRandomness samples rcv for the next convert and persists it.
func (s *Session) MintConvertRandomness() (rcv [32]byte, index uint32, err error) {
	if s.flowActive() {
		err = &txn.PhaseError{Op: "mint convert randomness", Want: "KeysReady", Got: "flow active"}
		return
	}
	return s.rand.MintConvert()
}

// SignShielded runs the full shielded authorization flow over a masp
// transaction: key derivation, commitment validation, spend signing and
// the final transaction hash. Signatures land in the session's spend
// signature list; the returned digest commits to the signed bytes.
// While the flow runs, concurrent minting and a second shielded flow
// are rejected with a PhaseError.
func (s *Session) SignShielded(txObj *txn.Transaction) ([txn.HashLen]byte, error) {
	var out [txn.HashLen]byte

	if !s.beginFlow() {
		return out, &txn.PhaseError{Op: "sign shielded", Want: "idle", Got: "flow active"}
	}
	defer s.endFlow()

	seed, err := s.seeds.Seed()
	if err != nil {
		return out, err
	}
	defer crypto.Zeroize(seed)

	auth, err := crypto.NewShieldedAuthorizer(seed, s.cfg.Path, s.lists, s.cfg.StrictValidation, s.cfg.Rand)
	if err != nil {
		return out, err
	}
	defer auth.Wipe()

	if err := auth.Validate(txObj); err != nil {
		s.log.Warn("shielded validation failed", zap.Error(err))
		return out, err
	}
	s.log.Debug("shielded bundle validated")

	if err := auth.SignSpends(txObj); err != nil {
		s.log.Warn("spend signing failed", zap.Error(err))
		return out, err
	}
	s.log.Debug("spends signed")

	out, err = auth.HashTransaction(txObj)
	if err != nil {
		return out, err
	}
	s.log.Info("shielded transaction authorized")
	return out, nil
}

// Reset clears all persisted randomness and signatures. Call between
// transactions; stale randomness from another flow must never validate.
func (s *Session) Reset() error {
	for _, l := range []store.ItemList{
		s.lists.SpendRandomness,
		s.lists.OutputRandomness,
		s.lists.ConvertRandomness,
		s.lists.SpendSignatures,
	} {
		if err := l.Clear(); err != nil {
			return fmt.Errorf("clear list: %w", err)
		}
	}
	s.log.Debug("session state cleared")
	return nil
}
