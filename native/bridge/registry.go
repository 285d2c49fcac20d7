package bridge

import (
	"errors"
	"fmt"

	nativecommon "bridgechain/native/common"
)

func (e *Engine) checkValidator(account [20]byte) error {
	trusted, err := e.state.BridgeIsValidator(account)
	if err != nil {
		return err
	}
	if !trusted {
		return ErrNotAuthorized
	}
	return nil
}

// ensureOperational rejects gated calls while the bridge is paused.
func (e *Engine) ensureOperational() error {
	operational, err := e.state.BridgeIsOperational()
	if err != nil {
		return err
	}
	view := nativecommon.PauseFunc(func(module string) bool {
		return module == ModuleName && !operational
	})
	if err := nativecommon.Guard(view, ModuleName); err != nil {
		if errors.Is(err, nativecommon.ErrModulePaused) {
			return ErrGateClosed
		}
		return err
	}
	return nil
}

// IsValidator reports whether account is in the trusted set.
func (e *Engine) IsValidator(account [20]byte) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	return e.state.BridgeIsValidator(account)
}

// ValidatorCount returns the live size of the trusted set.
func (e *Engine) ValidatorCount() (uint32, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	return e.state.BridgeValidatorCount()
}

// IsOperational reports the gate flag.
func (e *Engine) IsOperational() (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	return e.state.BridgeIsOperational()
}

// SeedValidators installs the initial trusted set and gate flag. Duplicate
// accounts are counted once. It is meant for genesis and refuses to run once
// any validator is registered.
func (e *Engine) SeedValidators(validators [][20]byte, operational bool) error {
	if err := e.ready(); err != nil {
		return err
	}
	count, err := e.state.BridgeValidatorCount()
	if err != nil {
		return err
	}
	if count != 0 {
		return fmt.Errorf("bridge: validator set already seeded with %d members", count)
	}
	seen := make(map[[20]byte]struct{}, len(validators))
	unique := make([][20]byte, 0, len(validators))
	for _, account := range validators {
		if _, dup := seen[account]; dup {
			continue
		}
		if uint32(len(unique)) >= MaxValidators {
			return ErrCapacityExceeded
		}
		seen[account] = struct{}{}
		unique = append(unique, account)
	}
	if err := e.state.BridgeSeedValidators(unique); err != nil {
		return err
	}
	if err := e.state.BridgeSetValidatorCount(uint32(len(unique))); err != nil {
		return err
	}
	return e.state.BridgeSetOperational(operational)
}

func (e *Engine) bumpMembership(account [20]byte) error {
	generation, err := e.state.BridgeMembershipGeneration(account)
	if err != nil {
		return err
	}
	return e.state.BridgeSetMembershipGeneration(account, generation+1)
}
