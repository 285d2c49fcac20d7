package bridge

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// MaxValidators bounds the size of the trusted validator set.
const MaxValidators uint32 = 100_000

// DefaultQuorumThreshold is the fraction of the live validator count that must
// vote before a proposal finalizes.
const DefaultQuorumThreshold = 0.51

// ProposalID identifies a proposal. Identifiers are dense and allocated from
// zero.
type ProposalID uint32

// Kind selects which message store and finalizer a proposal uses.
type Kind uint8

const (
	KindTransfer Kind = iota + 1
	KindValidator
	KindBridge
)

// String implements fmt.Stringer for logging and event emission.
func (k Kind) String() string {
	switch k {
	case KindTransfer:
		return "transfer"
	case KindValidator:
		return "validator"
	case KindBridge:
		return "bridge"
	default:
		return "unknown"
	}
}

// Status is the mutable lifecycle tag carried by every message.
type Status uint8

const (
	StatusUnspecified Status = iota
	StatusDeposit
	StatusWithdraw
	StatusAddValidator
	StatusRemoveValidator
	StatusPauseTheBridge
	StatusResumeTheBridge
	StatusPending
	StatusApproved
	StatusConfirmed
	StatusCanceled
	StatusRevoked
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusDeposit:
		return "Deposit"
	case StatusWithdraw:
		return "Withdraw"
	case StatusAddValidator:
		return "AddValidator"
	case StatusRemoveValidator:
		return "RemoveValidator"
	case StatusPauseTheBridge:
		return "PauseTheBridge"
	case StatusResumeTheBridge:
		return "ResumeTheBridge"
	case StatusPending:
		return "Pending"
	case StatusApproved:
		return "Approved"
	case StatusConfirmed:
		return "Confirmed"
	case StatusCanceled:
		return "Canceled"
	case StatusRevoked:
		return "Revoked"
	default:
		return "Unspecified"
	}
}

// Action is the immutable intent recorded when a message is created.
type Action uint8

const (
	ActionUnspecified Action = iota
	ActionDeposit
	ActionWithdraw
	ActionAddValidator
	ActionRemoveValidator
	ActionPauseTheBridge
	ActionResumeTheBridge
)

// InitialStatus returns the lifecycle label a freshly created message carries.
// The initial status deliberately repeats the action label; call sites branch
// on the pair.
func (a Action) InitialStatus() Status {
	switch a {
	case ActionDeposit:
		return StatusDeposit
	case ActionWithdraw:
		return StatusWithdraw
	case ActionAddValidator:
		return StatusAddValidator
	case ActionRemoveValidator:
		return StatusRemoveValidator
	case ActionPauseTheBridge:
		return StatusPauseTheBridge
	case ActionResumeTheBridge:
		return StatusResumeTheBridge
	default:
		return StatusUnspecified
	}
}

// String implements fmt.Stringer.
func (a Action) String() string { return a.InitialStatus().String() }

// Proposal is a votable unit referencing exactly one message by hash.
type Proposal struct {
	ID          ProposalID
	MessageHash [32]byte
	Kind        Kind
	Open        bool
	Votes       uint32
	// Reopened is set once the proposal entered its burn-confirmation round.
	Reopened bool
	// Voters is only populated when distinct-voter enforcement is enabled.
	Voters [][20]byte
}

// Clone returns a deep copy so callers never alias stored records.
func (p *Proposal) Clone() *Proposal {
	if p == nil {
		return nil
	}
	clone := *p
	if p.Voters != nil {
		clone.Voters = append([][20]byte(nil), p.Voters...)
	}
	return &clone
}

func (p *Proposal) hasVoted(voter [20]byte) bool {
	for _, v := range p.Voters {
		if v == voter {
			return true
		}
	}
	return false
}

// TransferMessage records a deposit assertion or a withdrawal request.
type TransferMessage struct {
	MessageID       [32]byte
	ExternalAddress common.Address
	LocalAccount    [20]byte
	Amount          *big.Int
	Action          Action
	Status          Status
}

// Clone returns a deep copy of the message.
func (m *TransferMessage) Clone() *TransferMessage {
	if m == nil {
		return nil
	}
	clone := *m
	if m.Amount != nil {
		clone.Amount = new(big.Int).Set(m.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	return &clone
}

// ValidatorMessage records a pending change to the validator set.
type ValidatorMessage struct {
	MessageID [32]byte
	Account   [20]byte
	Action    Action
	Status    Status
}

// BridgeMessage records a pause or resume request.
type BridgeMessage struct {
	MessageID         [32]byte
	SubmittingAccount [20]byte
	Action            Action
	Status            Status
}
