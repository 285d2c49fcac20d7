package state

import "math/big"

var (
	tokenBalancePrefix = []byte("token/balance/")
	tokenLockedPrefix  = []byte("token/locked/")
	tokenSupplyKey     = []byte("token/supply")
)

func (m *Manager) getBig(key []byte) (*big.Int, error) {
	value := new(big.Int)
	if _, err := m.KVGet(key, value); err != nil {
		return nil, err
	}
	return value, nil
}

func (m *Manager) putBig(key []byte, amount *big.Int) error {
	if amount == nil {
		amount = big.NewInt(0)
	}
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	return m.KVPut(key, amount)
}

// TokenBalance returns the full balance of account.
func (m *Manager) TokenBalance(account [20]byte) (*big.Int, error) {
	return m.getBig(prefixed(tokenBalancePrefix, account[:]))
}

// TokenSetBalance stores the balance of account.
func (m *Manager) TokenSetBalance(account [20]byte, amount *big.Int) error {
	return m.putBig(prefixed(tokenBalancePrefix, account[:]), amount)
}

// TokenLocked returns the locked part of the balance of account.
func (m *Manager) TokenLocked(account [20]byte) (*big.Int, error) {
	return m.getBig(prefixed(tokenLockedPrefix, account[:]))
}

// TokenSetLocked stores the locked amount of account.
func (m *Manager) TokenSetLocked(account [20]byte, amount *big.Int) error {
	return m.putBig(prefixed(tokenLockedPrefix, account[:]), amount)
}

// TokenTotalSupply returns the circulating supply.
func (m *Manager) TokenTotalSupply() (*big.Int, error) {
	return m.getBig(tokenSupplyKey)
}

// TokenSetTotalSupply stores the circulating supply.
func (m *Manager) TokenSetTotalSupply(amount *big.Int) error {
	return m.putBig(tokenSupplyKey, amount)
}
