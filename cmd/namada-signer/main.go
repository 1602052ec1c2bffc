// namada-signer CLI - Transaction authorization tool
//
// This CLI demonstrates the namada-signer library's signing flows against
// transactions described in YAML files.
//
// Example usage:
//   # Show the account's public key and implicit address
//   namada-signer address profile.yaml
//
//   # Authorize a transparent transaction
//   namada-signer sign profile.yaml transfer.yaml
//
//   # Authorize a shielded transaction
//   namada-signer sign-masp profile.yaml shielded.yaml
//
//   # Discard persisted randomness and signatures
//   namada-signer reset profile.yaml
//
// The seed is derived from a passphrase read from the
// NAMADA_SIGNER_PASSPHRASE environment variable, stretched with PBKDF2
// over the profile's salt.
package main

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/crypto/pbkdf2"
	"gopkg.in/yaml.v3"

	"github.com/suffix-labs/namada-signer/pkg/api"
	"github.com/suffix-labs/namada-signer/pkg/crypto"
	"github.com/suffix-labs/namada-signer/pkg/txn"
)

const passphraseEnv = "NAMADA_SIGNER_PASSPHRASE"

const kdfIterations = 4096

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "address":
		cmdAddress()
	case "sign":
		cmdSign()
	case "sign-masp":
		cmdSignMasp()
	case "reset":
		cmdReset()
	case "version":
		cmdVersion()
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`namada-signer - Namada transaction authorization tool

Usage:
  namada-signer <command> [options]

Commands:
  address <profile>            Show the account public key and addresses
  sign <profile> <tx>          Authorize a transparent transaction
  sign-masp <profile> <tx>     Authorize a shielded (MASP) transaction
  reset <profile>              Clear persisted randomness and signatures
  version                      Show version information
  help                         Show this help message

The profile is a YAML file:

  store: signer.db             # optional; omitted = in-memory lists
  salt: 6e616d616461           # hex, stretches the passphrase
  strict: true                 # verify rerandomized keys during validation
  path: [44, 877, 0, 0, 0]     # derivation path, hardened automatically

Set ` + passphraseEnv + ` to the account passphrase before running.`)
}

func cmdVersion() {
	fmt.Println("namada-signer v0.1.0")
	fmt.Println("Transaction authorization core for Namada accounts")
}

// ============================================================================
// Profile
// ============================================================================

type profile struct {
	Store  string   `yaml:"store"`
	Salt   string   `yaml:"salt"`
	Strict *bool    `yaml:"strict"`
	Path   []uint32 `yaml:"path"`
	Debug  bool     `yaml:"debug"`
}

func loadProfile(path string) (*profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	var p profile
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	return &p, nil
}

func (p *profile) seed() ([]byte, error) {
	pass := os.Getenv(passphraseEnv)
	if pass == "" {
		return nil, fmt.Errorf("%s not set", passphraseEnv)
	}
	salt, err := hex.DecodeString(p.Salt)
	if err != nil {
		return nil, fmt.Errorf("profile salt: %w", err)
	}
	return pbkdf2.Key([]byte(pass), salt, kdfIterations, 64, sha512.New), nil
}

func (p *profile) session() (*api.Session, error) {
	seed, err := p.seed()
	if err != nil {
		return nil, err
	}

	cfg := api.DefaultConfig()
	cfg.StorePath = p.Store
	if p.Strict != nil {
		cfg.StrictValidation = *p.Strict
	}
	if len(p.Path) > 0 {
		path := make([]uint32, len(p.Path))
		for i, idx := range p.Path {
			path[i] = idx | crypto.HardenedOffset
		}
		cfg.Path = path
	}
	if p.Debug {
		log, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		cfg.Logger = log
	}

	sess, err := api.NewSession(api.StaticSeed(seed), cfg)
	crypto.Zeroize(seed)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// ============================================================================
// Transaction file
// ============================================================================

type txFile struct {
	Kind      string `yaml:"kind"`
	Header    string `yaml:"header"`
	FeeHeader string `yaml:"fee_header"`
	Code      string `yaml:"code"`
	Data      string `yaml:"data"`
	Memo      string `yaml:"memo"`
	Sections  uint8  `yaml:"sections"`

	VpType          string `yaml:"vp_type"`
	VpTypeIdx       uint8  `yaml:"vp_type_idx"`
	ProposalContent string `yaml:"proposal_content"`
	ProposalIdx     uint8  `yaml:"proposal_idx"`

	Masp *maspFile `yaml:"masp"`
	Raw  string    `yaml:"raw"`
}

type maspFile struct {
	SigningData   string         `yaml:"signing_data"`
	Spends        []spendEntry   `yaml:"spends"`
	Outputs       []outputEntry  `yaml:"outputs"`
	OutputIndices []uint8        `yaml:"output_indices"`
	Converts      []convertEntry `yaml:"converts"`
}

type spendEntry struct {
	Value uint64 `yaml:"value"`
	Asset string `yaml:"asset"`
	CV    string `yaml:"cv"`
	Rk    string `yaml:"rk"`
}

type outputEntry struct {
	Value uint64 `yaml:"value"`
	Asset string `yaml:"asset"`
	CV    string `yaml:"cv"`
}

type convertEntry struct {
	Value uint64 `yaml:"value"`
	Asset string `yaml:"asset"`
	CV    string `yaml:"cv"`
}

var txKinds = map[string]txn.TxKind{
	"transfer":       txn.TxTransfer,
	"bond":           txn.TxBond,
	"unbond":         txn.TxUnbond,
	"withdraw":       txn.TxWithdraw,
	"init-account":   txn.TxInitAccount,
	"init-validator": txn.TxInitValidator,
	"update-vp":      txn.TxUpdateVP,
	"init-proposal":  txn.TxInitProposal,
	"vote-proposal":  txn.TxVoteProposal,
	"reveal-pk":      txn.TxRevealPubKey,
	"custom":         txn.TxCustom,
}

func mustHex(field, s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		fatalf("invalid hex in %s: %v", field, err)
	}
	return b
}

func mustHash(field, s string) [32]byte {
	b := mustHex(field, s)
	if len(b) != 32 {
		fatalf("%s must be 32 bytes, got %d", field, len(b))
	}
	var out [32]byte
	copy(out[:], b)
	return out
}

func loadTransaction(path string) *txn.Transaction {
	raw, err := os.ReadFile(path)
	if err != nil {
		fatalf("read transaction: %v", err)
	}
	var f txFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		fatalf("parse transaction: %v", err)
	}

	kind, ok := txKinds[f.Kind]
	if !ok {
		fatalf("unknown transaction kind %q", f.Kind)
	}

	tx := &txn.Transaction{
		Kind: kind,
		Header: txn.Header{
			Bytes:    mustHex("header", f.Header),
			FeeBytes: mustHex("fee_header", f.FeeHeader),
		},
		Code:         txn.Section{Kind: txn.SectionCode, Idx: 1, Bytes: mustHex("code", f.Code)},
		Data:         txn.Section{Kind: txn.SectionData, Idx: 2, Bytes: mustHex("data", f.Data)},
		SectionCount: f.Sections,
	}
	if f.Memo != "" {
		tx.Memo = &txn.Section{Kind: txn.SectionMemo, Idx: 3, Bytes: mustHex("memo", f.Memo)}
	}
	if f.VpType != "" {
		tx.VpType = &txn.ExtraHash{Hash: mustHash("vp_type", f.VpType), Idx: f.VpTypeIdx}
	}
	if f.ProposalContent != "" {
		tx.ProposalContent = &txn.ExtraHash{Hash: mustHash("proposal_content", f.ProposalContent), Idx: f.ProposalIdx}
	}
	if f.Raw != "" {
		tx.Raw = mustHex("raw", f.Raw)
	}
	if f.Masp != nil {
		tx.Masp = loadMaspBundle(f.Masp)
	}
	return tx
}

func loadMaspBundle(f *maspFile) *txn.MaspBundle {
	b := &txn.MaspBundle{
		SigningData:   mustHex("masp.signing_data", f.SigningData),
		OutputIndices: f.OutputIndices,
	}
	for _, s := range f.Spends {
		b.BuilderSpends = append(b.BuilderSpends, txn.SpendDescription{
			Value:   s.Value,
			AssetID: mustHash("spend asset", s.Asset),
		})
		b.Spends = append(b.Spends, txn.SpendCommitment{
			CV: mustHash("spend cv", s.CV),
			Rk: mustHash("spend rk", s.Rk),
		})
	}
	for _, o := range f.Outputs {
		b.BuilderOutputs = append(b.BuilderOutputs, txn.OutputDescription{
			Value:   o.Value,
			AssetID: mustHash("output asset", o.Asset),
		})
		b.Outputs = append(b.Outputs, txn.OutputCommitment{CV: mustHash("output cv", o.CV)})
	}
	for _, c := range f.Converts {
		b.BuilderConverts = append(b.BuilderConverts, txn.ConvertDescription{
			Value:   c.Value,
			AssetID: mustHash("convert asset", c.Asset),
		})
		b.Converts = append(b.Converts, txn.ConvertCommitment{CV: mustHash("convert cv", c.CV)})
	}
	return b
}

// ============================================================================
// Commands
// ============================================================================

func cmdAddress() {
	p := requireProfile("address")
	sess, err := p.session()
	if err != nil {
		fatalf("%v", err)
	}
	defer sess.Close()

	addrs, err := sess.FillAddress()
	if err != nil {
		fatalf("derive address: %v", err)
	}

	fmt.Printf("Public key: %s\n", hex.EncodeToString(addrs.PublicKey))
	fmt.Printf("Encoded:    %s\n", addrs.Encoded)
	fmt.Printf("Implicit:   %s\n", addrs.Implicit)
}

func cmdSign() {
	p := requireProfile("sign")
	if len(os.Args) < 4 {
		fatalf("Usage: namada-signer sign <profile> <tx>")
	}
	tx := loadTransaction(os.Args[3])

	sess, err := p.session()
	if err != nil {
		fatalf("%v", err)
	}
	defer sess.Close()

	res, err := sess.SignTransaction(tx)
	if err != nil {
		fatalf("sign: %v", err)
	}

	salt := res.Salt()
	fmt.Printf("Public key:        %s\n", hex.EncodeToString(res.PubKey()))
	fmt.Printf("Salt:              %s\n", hex.EncodeToString(salt[:]))
	fmt.Printf("Raw signature:     %s\n", hex.EncodeToString(res.RawSignature()))
	fmt.Printf("Wrapper signature: %s\n", hex.EncodeToString(res.WrapperSignature()))
	fmt.Printf("Raw indices:       %v\n", res.RawIndices())
	fmt.Printf("Final indices:     %v\n", res.FinalIndices())
}

func cmdSignMasp() {
	p := requireProfile("sign-masp")
	if len(os.Args) < 4 {
		fatalf("Usage: namada-signer sign-masp <profile> <tx>")
	}
	tx := loadTransaction(os.Args[3])
	if tx.Masp == nil {
		fatalf("transaction has no masp bundle")
	}

	sess, err := p.session()
	if err != nil {
		fatalf("%v", err)
	}
	defer sess.Close()

	digest, err := sess.SignShielded(tx)
	if err != nil {
		fatalf("sign-masp: %v", err)
	}

	fmt.Printf("Transaction hash: %s\n", hex.EncodeToString(digest[:]))

	sigs := sess.Lists().SpendSignatures
	n, err := sigs.Len()
	if err != nil {
		fatalf("read signatures: %v", err)
	}
	for i := uint32(0); i < n; i++ {
		sig, err := sigs.Get(i)
		if err != nil {
			fatalf("read signature %d: %v", i, err)
		}
		fmt.Printf("Spend signature %d: %s\n", i, hex.EncodeToString(sig))
	}
}

func cmdReset() {
	p := requireProfile("reset")
	sess, err := p.session()
	if err != nil {
		fatalf("%v", err)
	}
	defer sess.Close()

	if err := sess.Reset(); err != nil {
		fatalf("reset: %v", err)
	}
	fmt.Println("Session state cleared.")
}

func requireProfile(cmd string) *profile {
	if len(os.Args) < 3 {
		fatalf("Usage: namada-signer %s <profile> ...", cmd)
	}
	p, err := loadProfile(os.Args[2])
	if err != nil {
		fatalf("%v", err)
	}
	return p
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
