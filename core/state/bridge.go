package state

import (
	"bytes"
	"encoding/binary"
	"sort"

	"bridgechain/native/bridge"
)

var (
	bridgeProposalCountKey  = []byte("bridge/proposal-count")
	bridgeProposalPrefix    = []byte("bridge/proposal/")
	bridgeHashIndexPrefix   = []byte("bridge/index/hash/")
	bridgeIDIndexPrefix     = []byte("bridge/index/id/")
	bridgeTransferPrefix    = []byte("bridge/message/transfer/")
	bridgeValidatorMsgPref  = []byte("bridge/message/validator/")
	bridgeControlPrefix     = []byte("bridge/message/control/")
	bridgeValidatorPrefix   = []byte("bridge/validator/")
	bridgeValidatorListKey  = []byte("bridge/validator-list")
	bridgeValidatorCountKey = []byte("bridge/validator-count")
	bridgeOperationalKey    = []byte("bridge/operational")
	bridgeNoncePrefix       = []byte("bridge/nonce/")
	bridgeMembershipPrefix  = []byte("bridge/membership-generation/")
	bridgeGateGenerationKey = []byte("bridge/gate-generation")
)

func prefixed(prefix []byte, suffix []byte) []byte {
	buf := make([]byte, len(prefix)+len(suffix))
	copy(buf, prefix)
	copy(buf[len(prefix):], suffix)
	return buf
}

func proposalIDBytes(id bridge.ProposalID) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(id))
	return buf[:]
}

func (m *Manager) getUint32(key []byte) (uint32, error) {
	var v uint32
	if _, err := m.KVGet(key, &v); err != nil {
		return 0, err
	}
	return v, nil
}

func (m *Manager) getUint64(key []byte) (uint64, error) {
	var v uint64
	if _, err := m.KVGet(key, &v); err != nil {
		return 0, err
	}
	return v, nil
}

// BridgeProposalCount returns the number of allocated proposal ids.
func (m *Manager) BridgeProposalCount() (uint32, error) {
	return m.getUint32(bridgeProposalCountKey)
}

// BridgeSetProposalCount stores the proposal id counter.
func (m *Manager) BridgeSetProposalCount(count uint32) error {
	return m.KVPut(bridgeProposalCountKey, count)
}

// BridgeGetProposal loads a proposal by id.
func (m *Manager) BridgeGetProposal(id bridge.ProposalID) (*bridge.Proposal, bool, error) {
	proposal := new(bridge.Proposal)
	ok, err := m.KVGet(prefixed(bridgeProposalPrefix, proposalIDBytes(id)), proposal)
	if err != nil || !ok {
		return nil, false, err
	}
	return proposal, true, nil
}

// BridgePutProposal stores a proposal under its id.
func (m *Manager) BridgePutProposal(p *bridge.Proposal) error {
	return m.KVPut(prefixed(bridgeProposalPrefix, proposalIDBytes(p.ID)), p)
}

// BridgeProposalIDByHash resolves the proposal indexed by a message hash.
func (m *Manager) BridgeProposalIDByHash(hash [32]byte) (bridge.ProposalID, bool, error) {
	var id uint32
	ok, err := m.KVGet(prefixed(bridgeHashIndexPrefix, hash[:]), &id)
	if err != nil || !ok {
		return 0, false, err
	}
	return bridge.ProposalID(id), true, nil
}

// BridgeMessageHashByProposalID resolves the message hash of a proposal.
func (m *Manager) BridgeMessageHashByProposalID(id bridge.ProposalID) ([32]byte, bool, error) {
	var hash [32]byte
	ok, err := m.KVGet(prefixed(bridgeIDIndexPrefix, proposalIDBytes(id)), &hash)
	if err != nil || !ok {
		return [32]byte{}, false, err
	}
	return hash, true, nil
}

// BridgeIndexProposal records both directions of the hash/id index.
func (m *Manager) BridgeIndexProposal(hash [32]byte, id bridge.ProposalID) error {
	if err := m.KVPut(prefixed(bridgeHashIndexPrefix, hash[:]), uint32(id)); err != nil {
		return err
	}
	return m.KVPut(prefixed(bridgeIDIndexPrefix, proposalIDBytes(id)), hash)
}

// BridgeGetTransferMessage loads a transfer message.
func (m *Manager) BridgeGetTransferMessage(hash [32]byte) (*bridge.TransferMessage, bool, error) {
	msg := new(bridge.TransferMessage)
	ok, err := m.KVGet(prefixed(bridgeTransferPrefix, hash[:]), msg)
	if err != nil || !ok {
		return nil, false, err
	}
	return msg, true, nil
}

// BridgePutTransferMessage stores a transfer message.
func (m *Manager) BridgePutTransferMessage(msg *bridge.TransferMessage) error {
	return m.KVPut(prefixed(bridgeTransferPrefix, msg.MessageID[:]), msg)
}

// BridgeGetValidatorMessage loads a validator change message.
func (m *Manager) BridgeGetValidatorMessage(hash [32]byte) (*bridge.ValidatorMessage, bool, error) {
	msg := new(bridge.ValidatorMessage)
	ok, err := m.KVGet(prefixed(bridgeValidatorMsgPref, hash[:]), msg)
	if err != nil || !ok {
		return nil, false, err
	}
	return msg, true, nil
}

// BridgePutValidatorMessage stores a validator change message.
func (m *Manager) BridgePutValidatorMessage(msg *bridge.ValidatorMessage) error {
	return m.KVPut(prefixed(bridgeValidatorMsgPref, msg.MessageID[:]), msg)
}

// BridgeDeleteValidatorMessage purges a validator change message.
func (m *Manager) BridgeDeleteValidatorMessage(hash [32]byte) error {
	return m.KVDelete(prefixed(bridgeValidatorMsgPref, hash[:]))
}

// BridgeGetBridgeMessage loads a pause/resume message.
func (m *Manager) BridgeGetBridgeMessage(hash [32]byte) (*bridge.BridgeMessage, bool, error) {
	msg := new(bridge.BridgeMessage)
	ok, err := m.KVGet(prefixed(bridgeControlPrefix, hash[:]), msg)
	if err != nil || !ok {
		return nil, false, err
	}
	return msg, true, nil
}

// BridgePutBridgeMessage stores a pause/resume message.
func (m *Manager) BridgePutBridgeMessage(msg *bridge.BridgeMessage) error {
	return m.KVPut(prefixed(bridgeControlPrefix, msg.MessageID[:]), msg)
}

// BridgeIsValidator reports trusted-set membership.
func (m *Manager) BridgeIsValidator(account [20]byte) (bool, error) {
	var trusted bool
	if _, err := m.KVGet(prefixed(bridgeValidatorPrefix, account[:]), &trusted); err != nil {
		return false, err
	}
	return trusted, nil
}

// BridgeSetValidator adds or removes account from the trusted set and patches
// the sorted membership list in place. The count is maintained separately.
func (m *Manager) BridgeSetValidator(account [20]byte, trusted bool) error {
	key := prefixed(bridgeValidatorPrefix, account[:])
	list, err := m.BridgeValidators()
	if err != nil {
		return err
	}
	idx := sort.Search(len(list), func(i int) bool {
		return bytes.Compare(list[i][:], account[:]) >= 0
	})
	present := idx < len(list) && list[idx] == account
	if trusted {
		if err := m.KVPut(key, true); err != nil {
			return err
		}
		if present {
			return nil
		}
		list = append(list, [20]byte{})
		copy(list[idx+1:], list[idx:])
		list[idx] = account
	} else {
		if err := m.KVDelete(key); err != nil {
			return err
		}
		if !present {
			return nil
		}
		list = append(list[:idx], list[idx+1:]...)
	}
	return m.KVPut(bridgeValidatorListKey, list)
}

// BridgeSeedValidators marks every account trusted and writes the membership
// list once. Accounts must be free of duplicates; order does not matter.
func (m *Manager) BridgeSeedValidators(accounts [][20]byte) error {
	list := make([][20]byte, len(accounts))
	copy(list, accounts)
	sortAccounts(list)
	for _, account := range list {
		if err := m.KVPut(prefixed(bridgeValidatorPrefix, account[:]), true); err != nil {
			return err
		}
	}
	return m.KVPut(bridgeValidatorListKey, list)
}

// BridgeValidators returns the trusted set sorted by account bytes.
func (m *Manager) BridgeValidators() ([][20]byte, error) {
	var list [][20]byte
	if _, err := m.KVGet(bridgeValidatorListKey, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func sortAccounts(list [][20]byte) {
	sort.Slice(list, func(i, j int) bool {
		return bytes.Compare(list[i][:], list[j][:]) < 0
	})
}

// BridgeValidatorCount returns the stored size of the trusted set.
func (m *Manager) BridgeValidatorCount() (uint32, error) {
	return m.getUint32(bridgeValidatorCountKey)
}

// BridgeSetValidatorCount stores the size of the trusted set.
func (m *Manager) BridgeSetValidatorCount(count uint32) error {
	return m.KVPut(bridgeValidatorCountKey, count)
}

// BridgeIsOperational reports the gate flag. An unset flag reads as closed.
func (m *Manager) BridgeIsOperational() (bool, error) {
	var operational bool
	if _, err := m.KVGet(bridgeOperationalKey, &operational); err != nil {
		return false, err
	}
	return operational, nil
}

// BridgeSetOperational stores the gate flag.
func (m *Manager) BridgeSetOperational(operational bool) error {
	return m.KVPut(bridgeOperationalKey, operational)
}

// BridgeWithdrawalNonce returns the withdrawal counter of account.
func (m *Manager) BridgeWithdrawalNonce(account [20]byte) (uint64, error) {
	return m.getUint64(prefixed(bridgeNoncePrefix, account[:]))
}

// BridgeSetWithdrawalNonce stores the withdrawal counter of account.
func (m *Manager) BridgeSetWithdrawalNonce(account [20]byte, nonce uint64) error {
	return m.KVPut(prefixed(bridgeNoncePrefix, account[:]), nonce)
}

// BridgeMembershipGeneration returns how many membership changes account has
// gone through.
func (m *Manager) BridgeMembershipGeneration(account [20]byte) (uint64, error) {
	return m.getUint64(prefixed(bridgeMembershipPrefix, account[:]))
}

// BridgeSetMembershipGeneration stores the membership generation of account.
func (m *Manager) BridgeSetMembershipGeneration(account [20]byte, generation uint64) error {
	return m.KVPut(prefixed(bridgeMembershipPrefix, account[:]), generation)
}

// BridgeGateGeneration returns how many times the gate flipped.
func (m *Manager) BridgeGateGeneration() (uint64, error) {
	return m.getUint64(bridgeGateGenerationKey)
}

// BridgeSetGateGeneration stores the gate generation.
func (m *Manager) BridgeSetGateGeneration(generation uint64) error {
	return m.KVPut(bridgeGateGenerationKey, generation)
}
