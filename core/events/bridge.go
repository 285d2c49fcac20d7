package events

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"bridgechain/core/types"
	"bridgechain/crypto"
)

const (
	// TypeBridgeRelayRequested is emitted when an account submits a withdrawal.
	TypeBridgeRelayRequested = "bridge.relay.requested"
	// TypeBridgeRelayApproved is emitted once a withdrawal reached quorum and
	// the funds are locked awaiting release on the paired chain.
	TypeBridgeRelayApproved = "bridge.relay.approved"
	// TypeBridgeMinted is emitted after a deposit assertion minted funds.
	TypeBridgeMinted = "bridge.minted"
	// TypeBridgeBurned is emitted after a confirmed withdrawal burned funds.
	TypeBridgeBurned = "bridge.burned"
	// TypeBridgeTransferCanceled is emitted when a validator cancels a withdrawal.
	TypeBridgeTransferCanceled = "bridge.transfer.canceled"
	// TypeBridgeVoteRecorded is emitted for every vote that is counted.
	TypeBridgeVoteRecorded = "bridge.vote"
	// TypeBridgeValidatorAdded marks a finalized validator addition.
	TypeBridgeValidatorAdded = "bridge.validator.added"
	// TypeBridgeValidatorRemoved marks a finalized validator removal.
	TypeBridgeValidatorRemoved = "bridge.validator.removed"
	// TypeBridgePaused marks the gate closing.
	TypeBridgePaused = "bridge.paused"
	// TypeBridgeResumed marks the gate opening.
	TypeBridgeResumed = "bridge.resumed"
)

func formatHash(h [32]byte) string {
	return "0x" + hex.EncodeToString(h[:])
}

func formatAccount(a [20]byte) string {
	return crypto.AccountAddress(a).String()
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

type BridgeRelayRequested struct {
	MessageID [32]byte
	From      [20]byte
	To        common.Address
	Amount    *big.Int
}

func (BridgeRelayRequested) EventType() string { return TypeBridgeRelayRequested }

func (e BridgeRelayRequested) Event() *types.Event {
	return &types.Event{
		Type: TypeBridgeRelayRequested,
		Attributes: map[string]string{
			"messageId": formatHash(e.MessageID),
			"from":      formatAccount(e.From),
			"to":        e.To.Hex(),
			"amount":    formatAmount(e.Amount),
		},
	}
}

type BridgeRelayApproved struct {
	MessageID [32]byte
	From      [20]byte
	To        common.Address
	Amount    *big.Int
}

func (BridgeRelayApproved) EventType() string { return TypeBridgeRelayApproved }

func (e BridgeRelayApproved) Event() *types.Event {
	return &types.Event{
		Type: TypeBridgeRelayApproved,
		Attributes: map[string]string{
			"messageId": formatHash(e.MessageID),
			"from":      formatAccount(e.From),
			"to":        e.To.Hex(),
			"amount":    formatAmount(e.Amount),
		},
	}
}

type BridgeMinted struct {
	MessageID [32]byte
	To        [20]byte
	Amount    *big.Int
}

func (BridgeMinted) EventType() string { return TypeBridgeMinted }

func (e BridgeMinted) Event() *types.Event {
	return &types.Event{
		Type: TypeBridgeMinted,
		Attributes: map[string]string{
			"messageId": formatHash(e.MessageID),
			"to":        formatAccount(e.To),
			"amount":    formatAmount(e.Amount),
		},
	}
}

type BridgeBurned struct {
	MessageID [32]byte
	From      [20]byte
	To        common.Address
	Amount    *big.Int
}

func (BridgeBurned) EventType() string { return TypeBridgeBurned }

func (e BridgeBurned) Event() *types.Event {
	return &types.Event{
		Type: TypeBridgeBurned,
		Attributes: map[string]string{
			"messageId": formatHash(e.MessageID),
			"from":      formatAccount(e.From),
			"to":        e.To.Hex(),
			"amount":    formatAmount(e.Amount),
		},
	}
}

type BridgeTransferCanceled struct {
	MessageID [32]byte
	Validator [20]byte
	Account   [20]byte
	Amount    *big.Int
	Unlocked  bool
}

func (BridgeTransferCanceled) EventType() string { return TypeBridgeTransferCanceled }

func (e BridgeTransferCanceled) Event() *types.Event {
	return &types.Event{
		Type: TypeBridgeTransferCanceled,
		Attributes: map[string]string{
			"messageId": formatHash(e.MessageID),
			"validator": formatAccount(e.Validator),
			"account":   formatAccount(e.Account),
			"amount":    formatAmount(e.Amount),
			"unlocked":  strconv.FormatBool(e.Unlocked),
		},
	}
}

type BridgeVoteRecorded struct {
	ProposalID uint32
	MessageID  [32]byte
	Voter      [20]byte
	Kind       string
	Votes      uint32
	Validators uint32
	Finalized  bool
}

func (BridgeVoteRecorded) EventType() string { return TypeBridgeVoteRecorded }

func (e BridgeVoteRecorded) Event() *types.Event {
	return &types.Event{
		Type: TypeBridgeVoteRecorded,
		Attributes: map[string]string{
			"proposalId": strconv.FormatUint(uint64(e.ProposalID), 10),
			"messageId":  formatHash(e.MessageID),
			"voter":      formatAccount(e.Voter),
			"kind":       e.Kind,
			"votes":      strconv.FormatUint(uint64(e.Votes), 10),
			"validators": strconv.FormatUint(uint64(e.Validators), 10),
			"finalized":  strconv.FormatBool(e.Finalized),
		},
	}
}

// BridgeValidatorChanged covers both additions and removals; Added selects
// the event type.
type BridgeValidatorChanged struct {
	MessageID [32]byte
	Account   [20]byte
	Count     uint32
	Added     bool
}

func (e BridgeValidatorChanged) EventType() string {
	if e.Added {
		return TypeBridgeValidatorAdded
	}
	return TypeBridgeValidatorRemoved
}

func (e BridgeValidatorChanged) Event() *types.Event {
	return &types.Event{
		Type: e.EventType(),
		Attributes: map[string]string{
			"messageId": formatHash(e.MessageID),
			"account":   formatAccount(e.Account),
			"count":     strconv.FormatUint(uint64(e.Count), 10),
		},
	}
}

// BridgeGateChanged reports the operational flag after a pause or resume.
type BridgeGateChanged struct {
	MessageID   [32]byte
	Operational bool
}

func (e BridgeGateChanged) EventType() string {
	if e.Operational {
		return TypeBridgeResumed
	}
	return TypeBridgePaused
}

func (e BridgeGateChanged) Event() *types.Event {
	return &types.Event{
		Type: e.EventType(),
		Attributes: map[string]string{
			"messageId":   formatHash(e.MessageID),
			"operational": strconv.FormatBool(e.Operational),
		},
	}
}
