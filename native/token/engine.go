package token

import "math/big"

type tokenState interface {
	TokenBalance(account [20]byte) (*big.Int, error)
	TokenSetBalance(account [20]byte, amount *big.Int) error
	TokenLocked(account [20]byte) (*big.Int, error)
	TokenSetLocked(account [20]byte, amount *big.Int) error
	TokenTotalSupply() (*big.Int, error)
	TokenSetTotalSupply(amount *big.Int) error
}

// Engine keeps balances, locked amounts and the total supply of the bridged
// token. An account's balance includes its locked funds; only the
// difference is available.
type Engine struct {
	state tokenState
}

// NewEngine returns an unwired token engine.
func NewEngine() *Engine { return &Engine{} }

// SetState wires the persistence backend.
func (e *Engine) SetState(state tokenState) { e.state = state }

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errStateNotConfigured
	}
	return nil
}

func validAmount(amount *big.Int) bool {
	return amount != nil && amount.Sign() >= 0
}

// BalanceOf returns the full balance of account, locked funds included.
func (e *Engine) BalanceOf(account [20]byte) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.state.TokenBalance(account)
}

// LockedOf returns the encumbered part of the balance.
func (e *Engine) LockedOf(account [20]byte) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.state.TokenLocked(account)
}

// AvailableOf returns balance minus locked.
func (e *Engine) AvailableOf(account [20]byte) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	balance, err := e.state.TokenBalance(account)
	if err != nil {
		return nil, err
	}
	locked, err := e.state.TokenLocked(account)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Sub(balance, locked), nil
}

// TotalSupply returns the amount in circulation.
func (e *Engine) TotalSupply() (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.state.TokenTotalSupply()
}

// Lock encumbers amount of the available balance.
func (e *Engine) Lock(account [20]byte, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if !validAmount(amount) {
		return ErrInvalidAmount
	}
	available, err := e.AvailableOf(account)
	if err != nil {
		return err
	}
	if available.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	locked, err := e.state.TokenLocked(account)
	if err != nil {
		return err
	}
	return e.state.TokenSetLocked(account, new(big.Int).Add(locked, amount))
}

// Unlock releases amount of previously locked funds.
func (e *Engine) Unlock(account [20]byte, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if !validAmount(amount) {
		return ErrInvalidAmount
	}
	locked, err := e.state.TokenLocked(account)
	if err != nil {
		return err
	}
	if locked.Cmp(amount) < 0 {
		return ErrInsufficientLocked
	}
	return e.state.TokenSetLocked(account, new(big.Int).Sub(locked, amount))
}

// Mint credits amount to account and grows the supply.
func (e *Engine) Mint(account [20]byte, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if !validAmount(amount) {
		return ErrInvalidAmount
	}
	balance, err := e.state.TokenBalance(account)
	if err != nil {
		return err
	}
	supply, err := e.state.TokenTotalSupply()
	if err != nil {
		return err
	}
	if err := e.state.TokenSetBalance(account, new(big.Int).Add(balance, amount)); err != nil {
		return err
	}
	return e.state.TokenSetTotalSupply(new(big.Int).Add(supply, amount))
}

// Burn destroys amount from the available balance and shrinks the supply.
// Locked funds must be unlocked before they can be burned.
func (e *Engine) Burn(account [20]byte, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if !validAmount(amount) {
		return ErrInvalidAmount
	}
	available, err := e.AvailableOf(account)
	if err != nil {
		return err
	}
	if available.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	balance, err := e.state.TokenBalance(account)
	if err != nil {
		return err
	}
	supply, err := e.state.TokenTotalSupply()
	if err != nil {
		return err
	}
	if err := e.state.TokenSetBalance(account, new(big.Int).Sub(balance, amount)); err != nil {
		return err
	}
	return e.state.TokenSetTotalSupply(new(big.Int).Sub(supply, amount))
}
