package genesis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"sort"
	"strings"
	"time"

	"bridgechain/crypto"
	"bridgechain/native/bridge"
)

// GenesisSpec describes the initial bridge state.
type GenesisSpec struct {
	GenesisTime string            `json:"genesisTime"`
	Validators  []string          `json:"validators"`
	Alloc       map[string]string `json:"alloc"` // addr -> amount
	Operational *bool             `json:"operational,omitempty"`

	genesisTimestamp time.Time
	validators       [][20]byte
	alloc            []Allocation
}

// Allocation is one decoded balance entry.
type Allocation struct {
	Account [20]byte
	Amount  *big.Int
}

// LoadGenesisSpec reads and validates a JSON genesis file. Unknown fields are
// rejected.
func LoadGenesisSpec(path string) (*GenesisSpec, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("genesis spec path must be provided")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis spec %q: %w", path, err)
	}
	spec, err := ParseGenesisSpec(raw)
	if err != nil {
		return nil, fmt.Errorf("genesis spec %q: %w", path, err)
	}
	return spec, nil
}

// ParseGenesisSpec decodes and validates raw JSON.
func ParseGenesisSpec(raw []byte) (*GenesisSpec, error) {
	var spec GenesisSpec
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := spec.validate(); err != nil {
		return nil, fmt.Errorf("invalid: %w", err)
	}
	return &spec, nil
}

func (s *GenesisSpec) GenesisTimestamp() time.Time { return s.genesisTimestamp }

// ValidatorAccounts returns the decoded validator set in file order.
func (s *GenesisSpec) ValidatorAccounts() [][20]byte {
	return append([][20]byte(nil), s.validators...)
}

// Allocations returns the decoded balances sorted by account.
func (s *GenesisSpec) Allocations() []Allocation {
	return append([]Allocation(nil), s.alloc...)
}

// IsOperational reports the initial gate flag; it defaults to open.
func (s *GenesisSpec) IsOperational() bool {
	return s.Operational == nil || *s.Operational
}

func (s *GenesisSpec) validate() error {
	ts, err := parseGenesisTime(s.GenesisTime)
	if err != nil {
		return err
	}
	s.genesisTimestamp = ts

	if len(s.Validators) == 0 {
		return fmt.Errorf("at least one validator must be provided")
	}
	if uint32(len(s.Validators)) > bridge.MaxValidators {
		return fmt.Errorf("validator set exceeds %d members", bridge.MaxValidators)
	}
	seen := make(map[[20]byte]struct{}, len(s.Validators))
	s.validators = s.validators[:0]
	for i, raw := range s.Validators {
		account, err := crypto.ParseAccount(raw)
		if err != nil {
			return fmt.Errorf("validators[%d]: %w", i, err)
		}
		if _, dup := seen[account]; dup {
			return fmt.Errorf("validators[%d]: duplicate validator %s", i, raw)
		}
		seen[account] = struct{}{}
		s.validators = append(s.validators, account)
	}

	s.alloc = s.alloc[:0]
	for addr, value := range s.Alloc {
		account, err := crypto.ParseAccount(addr)
		if err != nil {
			return fmt.Errorf("alloc %q: %w", addr, err)
		}
		amount, err := parseAmountString(value)
		if err != nil {
			return fmt.Errorf("alloc %q: %w", addr, err)
		}
		s.alloc = append(s.alloc, Allocation{Account: account, Amount: amount})
	}
	sort.Slice(s.alloc, func(i, j int) bool {
		return bytes.Compare(s.alloc[i].Account[:], s.alloc[j].Account[:]) < 0
	})
	return nil
}

func parseAmountString(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	return amount, nil
}

func parseGenesisTime(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, fmt.Errorf("genesisTime must be provided")
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, nil
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("invalid genesisTime %q", value)
}
