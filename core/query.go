package core

import (
	"math/big"

	"bridgechain/native/bridge"
)

// Status summarises the registry, gate and supply.
type Status struct {
	Validators    uint32
	Operational   bool
	ProposalCount uint32
	TotalSupply   *big.Int
	Threshold     float64
}

// AccountBalance is the token position of one account.
type AccountBalance struct {
	Balance   *big.Int
	Locked    *big.Int
	Available *big.Int
}

func query[T any](n *Node, fn func() (T, error)) (T, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return fn()
}

// Status returns the current bridge status.
func (n *Node) Status() (*Status, error) {
	return query(n, func() (*Status, error) {
		count, err := n.bridge.ValidatorCount()
		if err != nil {
			return nil, err
		}
		operational, err := n.bridge.IsOperational()
		if err != nil {
			return nil, err
		}
		proposals, err := n.bridge.ProposalCount()
		if err != nil {
			return nil, err
		}
		supply, err := n.token.TotalSupply()
		if err != nil {
			return nil, err
		}
		return &Status{
			Validators:    count,
			Operational:   operational,
			ProposalCount: proposals,
			TotalSupply:   supply,
			Threshold:     n.bridge.Threshold(),
		}, nil
	})
}

// Proposal returns a proposal by id.
func (n *Node) Proposal(id bridge.ProposalID) (*bridge.Proposal, error) {
	return query(n, func() (*bridge.Proposal, error) { return n.bridge.Proposal(id) })
}

// ProposalByMessage returns the proposal indexed by a message hash.
func (n *Node) ProposalByMessage(hash [32]byte) (*bridge.Proposal, error) {
	return query(n, func() (*bridge.Proposal, error) { return n.bridge.ProposalByMessage(hash) })
}

// TransferMessage returns a transfer message.
func (n *Node) TransferMessage(hash [32]byte) (*bridge.TransferMessage, error) {
	return query(n, func() (*bridge.TransferMessage, error) { return n.bridge.TransferMessage(hash) })
}

// ValidatorMessage returns a pending or confirmed validator change message.
func (n *Node) ValidatorMessage(hash [32]byte) (*bridge.ValidatorMessage, error) {
	return query(n, func() (*bridge.ValidatorMessage, error) { return n.bridge.ValidatorMessage(hash) })
}

// ValidatorMessageStatus reports the status of a validator change, including
// Revoked for executed removals.
func (n *Node) ValidatorMessageStatus(hash [32]byte) (bridge.Status, error) {
	return query(n, func() (bridge.Status, error) { return n.bridge.ValidatorMessageStatus(hash) })
}

// BridgeMessage returns a pause/resume message.
func (n *Node) BridgeMessage(hash [32]byte) (*bridge.BridgeMessage, error) {
	return query(n, func() (*bridge.BridgeMessage, error) { return n.bridge.BridgeMessage(hash) })
}

// Validators returns the trusted set sorted by account.
func (n *Node) Validators() ([][20]byte, error) {
	return query(n, func() ([][20]byte, error) { return n.state.BridgeValidators() })
}

// IsValidator reports trusted-set membership.
func (n *Node) IsValidator(account [20]byte) (bool, error) {
	return query(n, func() (bool, error) { return n.bridge.IsValidator(account) })
}

// Account returns the token position of account.
func (n *Node) Account(account [20]byte) (*AccountBalance, error) {
	return query(n, func() (*AccountBalance, error) {
		balance, err := n.token.BalanceOf(account)
		if err != nil {
			return nil, err
		}
		locked, err := n.token.LockedOf(account)
		if err != nil {
			return nil, err
		}
		return &AccountBalance{
			Balance:   balance,
			Locked:    locked,
			Available: new(big.Int).Sub(balance, locked),
		}, nil
	})
}
