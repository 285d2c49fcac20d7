package genesis

import (
	"errors"
	"fmt"

	"bridgechain/core/state"
	"bridgechain/native/bridge"
	"bridgechain/native/token"
)

// ErrAlreadyApplied is returned when the store already holds a genesis.
var ErrAlreadyApplied = errors.New("genesis: state already initialised")

var appliedKey = []byte("genesis/applied-at")

// Applied reports whether a genesis has been committed to the store.
func Applied(manager *state.Manager) (bool, error) {
	return manager.KVGet(appliedKey, nil)
}

// Apply seeds the validator set, gate flag and balances, then commits. It
// refuses to run twice against the same store.
func Apply(spec *GenesisSpec, manager *state.Manager) error {
	if spec == nil {
		return fmt.Errorf("genesis spec must not be nil")
	}
	if manager == nil {
		return fmt.Errorf("state manager must not be nil")
	}
	applied, err := Applied(manager)
	if err != nil {
		return err
	}
	if applied {
		return ErrAlreadyApplied
	}

	engine := bridge.NewEngine()
	engine.SetState(manager)
	ledger := token.NewEngine()
	ledger.SetState(manager)

	if err := engine.SeedValidators(spec.ValidatorAccounts(), spec.IsOperational()); err != nil {
		manager.Revert()
		return fmt.Errorf("seed validators: %w", err)
	}
	for _, alloc := range spec.Allocations() {
		if err := ledger.Mint(alloc.Account, alloc.Amount); err != nil {
			manager.Revert()
			return fmt.Errorf("alloc: %w", err)
		}
	}
	if err := manager.KVPut(appliedKey, uint64(spec.GenesisTimestamp().Unix())); err != nil {
		manager.Revert()
		return err
	}
	return manager.Commit()
}
