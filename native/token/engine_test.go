package token

import (
	"errors"
	"math/big"
	"testing"
)

type mockTokenState struct {
	balances map[[20]byte]*big.Int
	locked   map[[20]byte]*big.Int
	supply   *big.Int
}

func newMockTokenState() *mockTokenState {
	return &mockTokenState{
		balances: make(map[[20]byte]*big.Int),
		locked:   make(map[[20]byte]*big.Int),
		supply:   big.NewInt(0),
	}
}

func read(m map[[20]byte]*big.Int, account [20]byte) *big.Int {
	if v, ok := m[account]; ok {
		return new(big.Int).Set(v)
	}
	return big.NewInt(0)
}

func (m *mockTokenState) TokenBalance(account [20]byte) (*big.Int, error) {
	return read(m.balances, account), nil
}

func (m *mockTokenState) TokenSetBalance(account [20]byte, amount *big.Int) error {
	m.balances[account] = new(big.Int).Set(amount)
	return nil
}

func (m *mockTokenState) TokenLocked(account [20]byte) (*big.Int, error) {
	return read(m.locked, account), nil
}

func (m *mockTokenState) TokenSetLocked(account [20]byte, amount *big.Int) error {
	m.locked[account] = new(big.Int).Set(amount)
	return nil
}

func (m *mockTokenState) TokenTotalSupply() (*big.Int, error) {
	return new(big.Int).Set(m.supply), nil
}

func (m *mockTokenState) TokenSetTotalSupply(amount *big.Int) error {
	m.supply = new(big.Int).Set(amount)
	return nil
}

func newTestEngine() (*Engine, *mockTokenState) {
	state := newMockTokenState()
	engine := NewEngine()
	engine.SetState(state)
	return engine, state
}

var alice = [20]byte{19: 0x01}

func TestMintAndBurn(t *testing.T) {
	engine, _ := newTestEngine()
	if err := engine.Mint(alice, big.NewInt(1000)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := engine.Burn(alice, big.NewInt(400)); err != nil {
		t.Fatalf("burn: %v", err)
	}
	balance, _ := engine.BalanceOf(alice)
	supply, _ := engine.TotalSupply()
	if balance.Cmp(big.NewInt(600)) != 0 || supply.Cmp(big.NewInt(600)) != 0 {
		t.Fatalf("balance=%s supply=%s, want 600/600", balance, supply)
	}
	if err := engine.Burn(alice, big.NewInt(601)); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestLockUnlock(t *testing.T) {
	engine, _ := newTestEngine()
	_ = engine.Mint(alice, big.NewInt(1000))

	if err := engine.Lock(alice, big.NewInt(500)); err != nil {
		t.Fatalf("lock: %v", err)
	}
	balance, _ := engine.BalanceOf(alice)
	available, _ := engine.AvailableOf(alice)
	if balance.Cmp(big.NewInt(1000)) != 0 || available.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("balance=%s available=%s", balance, available)
	}
	if err := engine.Lock(alice, big.NewInt(501)); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if err := engine.Burn(alice, big.NewInt(501)); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("locked funds must not be burnable, got %v", err)
	}
	if err := engine.Unlock(alice, big.NewInt(501)); !errors.Is(err, ErrInsufficientLocked) {
		t.Fatalf("expected ErrInsufficientLocked, got %v", err)
	}
	if err := engine.Unlock(alice, big.NewInt(500)); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	locked, _ := engine.LockedOf(alice)
	if locked.Sign() != 0 {
		t.Fatalf("locked = %s, want 0", locked)
	}
}

func TestRejectsInvalidAmounts(t *testing.T) {
	engine, _ := newTestEngine()
	for name, fn := range map[string]func([20]byte, *big.Int) error{
		"lock":   engine.Lock,
		"unlock": engine.Unlock,
		"mint":   engine.Mint,
		"burn":   engine.Burn,
	} {
		if err := fn(alice, nil); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("%s(nil): expected ErrInvalidAmount, got %v", name, err)
		}
		if err := fn(alice, big.NewInt(-1)); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("%s(-1): expected ErrInvalidAmount, got %v", name, err)
		}
	}
}

func TestFailedCallsLeaveStateUntouched(t *testing.T) {
	engine, state := newTestEngine()
	_ = engine.Mint(alice, big.NewInt(10))
	_ = engine.Lock(alice, big.NewInt(20))
	_ = engine.Unlock(alice, big.NewInt(1))
	if read(state.locked, alice).Sign() != 0 || read(state.balances, alice).Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("rejected calls mutated state")
	}
}

func TestRequiresState(t *testing.T) {
	if err := NewEngine().Mint(alice, big.NewInt(1)); !errors.Is(err, errStateNotConfigured) {
		t.Fatalf("expected errStateNotConfigured, got %v", err)
	}
}
