package bridge

import (
	"math/big"

	"bridgechain/core/events"
)

// ModuleName is the pause-guard key of the bridge module.
const ModuleName = "bridge"

type engineState interface {
	BridgeProposalCount() (uint32, error)
	BridgeSetProposalCount(count uint32) error
	BridgeGetProposal(id ProposalID) (*Proposal, bool, error)
	BridgePutProposal(p *Proposal) error
	BridgeProposalIDByHash(hash [32]byte) (ProposalID, bool, error)
	BridgeMessageHashByProposalID(id ProposalID) ([32]byte, bool, error)
	BridgeIndexProposal(hash [32]byte, id ProposalID) error

	BridgeGetTransferMessage(hash [32]byte) (*TransferMessage, bool, error)
	BridgePutTransferMessage(m *TransferMessage) error
	BridgeGetValidatorMessage(hash [32]byte) (*ValidatorMessage, bool, error)
	BridgePutValidatorMessage(m *ValidatorMessage) error
	BridgeDeleteValidatorMessage(hash [32]byte) error
	BridgeGetBridgeMessage(hash [32]byte) (*BridgeMessage, bool, error)
	BridgePutBridgeMessage(m *BridgeMessage) error

	BridgeIsValidator(account [20]byte) (bool, error)
	BridgeSetValidator(account [20]byte, trusted bool) error
	BridgeSeedValidators(accounts [][20]byte) error
	BridgeValidatorCount() (uint32, error)
	BridgeSetValidatorCount(count uint32) error

	BridgeIsOperational() (bool, error)
	BridgeSetOperational(operational bool) error

	BridgeWithdrawalNonce(account [20]byte) (uint64, error)
	BridgeSetWithdrawalNonce(account [20]byte, nonce uint64) error
	BridgeMembershipGeneration(account [20]byte) (uint64, error)
	BridgeSetMembershipGeneration(account [20]byte, generation uint64) error
	BridgeGateGeneration() (uint64, error)
	BridgeSetGateGeneration(generation uint64) error
}

// Ledger is the token bookkeeping contract the bridge drives. Implementations
// must leave balances untouched when they return an error.
type Ledger interface {
	Lock(account [20]byte, amount *big.Int) error
	Unlock(account [20]byte, amount *big.Int) error
	Mint(account [20]byte, amount *big.Int) error
	Burn(account [20]byte, amount *big.Int) error
}

// Receipt summarises the effect of an entry point call.
type Receipt struct {
	MessageID  [32]byte
	ProposalID ProposalID
	Votes      uint32
	Finalized  bool
	Status     Status
}

// Engine implements the bridge voting and finalization rules. It performs no
// locking of its own: the host must run one call at a time and discard the
// state overlay when a call returns an error.
type Engine struct {
	state          engineState
	ledger         Ledger
	emitter        events.Emitter
	threshold      float64
	distinctVoters bool
}

// NewEngine constructs a bridge engine with a no-op emitter and the default
// quorum threshold.
func NewEngine() *Engine {
	return &Engine{
		emitter:   events.NoopEmitter{},
		threshold: DefaultQuorumThreshold,
	}
}

// SetState wires the engine to the state backend providing persistence helpers.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetLedger wires the token ledger used by transfer finalizers.
func (e *Engine) SetLedger(ledger Ledger) { e.ledger = ledger }

// SetEmitter configures the event emitter used by the engine. Passing nil resets
// the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetThreshold overrides the quorum fraction. Values outside (0,1] restore the
// default.
func (e *Engine) SetThreshold(threshold float64) {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultQuorumThreshold
	}
	e.threshold = threshold
}

// Threshold returns the configured quorum fraction.
func (e *Engine) Threshold() float64 { return e.threshold }

// SetDistinctVoters toggles rejection of repeated votes from one validator on
// the same proposal round. The default accepts repeats.
func (e *Engine) SetDistinctVoters(enabled bool) { e.distinctVoters = enabled }

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errStateNotConfigured
	}
	return nil
}

func positive(amount *big.Int) bool {
	return amount != nil && amount.Sign() > 0
}
