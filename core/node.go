package core

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"bridgechain/core/events"
	"bridgechain/core/genesis"
	"bridgechain/core/state"
	"bridgechain/crypto"
	"bridgechain/native/bridge"
	"bridgechain/native/token"
	"bridgechain/observability"
	"bridgechain/storage"
)

// Node hosts the bridge engine. It runs one call at a time: every entry point
// either commits all of its writes and notifications or none of them.
type Node struct {
	db      storage.Database
	state   *state.Manager
	bridge  *bridge.Engine
	token   *token.Engine
	buffer  *events.Buffer
	emitter events.Emitter
	metrics *observability.BridgeMetrics
	logger  *slog.Logger
	mu      sync.Mutex
}

// Option customises a Node.
type Option func(*Node)

// WithEmitter forwards committed notifications to emitter.
func WithEmitter(emitter events.Emitter) Option {
	return func(n *Node) {
		if emitter != nil {
			n.emitter = emitter
		}
	}
}

// WithMetrics records call outcomes and registry gauges.
func WithMetrics(metrics *observability.BridgeMetrics) Option {
	return func(n *Node) { n.metrics = metrics }
}

// WithLogger overrides the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Node) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithQuorumThreshold overrides the default 0.51 quorum fraction.
func WithQuorumThreshold(threshold float64) Option {
	return func(n *Node) { n.bridge.SetThreshold(threshold) }
}

// WithDistinctVoters rejects repeated votes from one validator.
func WithDistinctVoters(enabled bool) Option {
	return func(n *Node) { n.bridge.SetDistinctVoters(enabled) }
}

// NewNode wires the bridge and token engines to a state manager over db.
func NewNode(db storage.Database, opts ...Option) (*Node, error) {
	if db == nil {
		return nil, fmt.Errorf("core: database must not be nil")
	}
	manager := state.NewManager(db)
	buffer := events.NewBuffer()

	ledger := token.NewEngine()
	ledger.SetState(manager)

	engine := bridge.NewEngine()
	engine.SetState(manager)
	engine.SetLedger(ledger)
	engine.SetEmitter(buffer)

	n := &Node{
		db:      db,
		state:   manager,
		bridge:  engine,
		token:   ledger,
		buffer:  buffer,
		emitter: events.NoopEmitter{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// InitGenesis applies spec to an empty store. A store that already holds a
// genesis is left untouched.
func (n *Node) InitGenesis(spec *genesis.GenesisSpec) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	err := genesis.Apply(spec, n.state)
	if errors.Is(err, genesis.ErrAlreadyApplied) {
		n.logger.Info("genesis already applied")
		err = nil
	} else if err == nil {
		n.logger.Info("genesis applied",
			slog.Int("validators", len(spec.ValidatorAccounts())),
			slog.Bool("operational", spec.IsOperational()))
	}
	if err != nil {
		return err
	}
	n.refreshGauges()
	return nil
}

// Threshold returns the configured quorum fraction.
func (n *Node) Threshold() float64 { return n.bridge.Threshold() }

func (n *Node) execute(op string, caller [20]byte, fn func() (*bridge.Receipt, error)) (*bridge.Receipt, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	start := time.Now()
	receipt, err := fn()
	if err == nil {
		err = n.state.Commit()
	}
	n.metrics.ObserveCall(op, err, time.Since(start))
	if err != nil {
		n.state.Revert()
		n.buffer.Discard()
		n.logger.Warn("bridge call rejected",
			slog.String("op", op),
			slog.String("caller", crypto.AccountAddress(caller).String()),
			slog.String("error", err.Error()))
		return nil, err
	}
	n.buffer.Flush(n.emitter)

	if receipt != nil && receipt.Finalized {
		kind := ""
		if proposal, perr := n.bridge.Proposal(receipt.ProposalID); perr == nil {
			kind = proposal.Kind.String()
		}
		n.metrics.RecordFinalized(kind)
		n.logger.Info("proposal finalized",
			slog.String("op", op),
			slog.Uint64("proposal", uint64(receipt.ProposalID)),
			slog.String("kind", kind),
			slog.String("status", receipt.Status.String()),
			slog.String("message_id", common.Hash(receipt.MessageID).Hex()))
		n.refreshGauges()
	}
	return receipt, nil
}

func (n *Node) refreshGauges() {
	if n.metrics == nil {
		return
	}
	count, err := n.bridge.ValidatorCount()
	if err != nil {
		return
	}
	operational, err := n.bridge.IsOperational()
	if err != nil {
		return
	}
	n.metrics.SetRegistry(count, operational)
}

// SubmitWithdrawal opens a withdrawal from caller to an external address.
func (n *Node) SubmitWithdrawal(caller [20]byte, to common.Address, amount *big.Int) (*bridge.Receipt, error) {
	return n.execute("submit_withdrawal", caller, func() (*bridge.Receipt, error) {
		return n.bridge.SubmitWithdrawal(caller, to, amount)
	})
}

// SubmitDeposit records or votes on a deposit assertion.
func (n *Node) SubmitDeposit(caller [20]byte, messageID [32]byte, from common.Address, to [20]byte, amount *big.Int) (*bridge.Receipt, error) {
	return n.execute("submit_deposit", caller, func() (*bridge.Receipt, error) {
		return n.bridge.SubmitDeposit(caller, messageID, from, to, amount)
	})
}

// ApproveTransfer votes on the proposal indexed by messageID.
func (n *Node) ApproveTransfer(caller [20]byte, messageID [32]byte) (*bridge.Receipt, error) {
	return n.execute("approve_transfer", caller, func() (*bridge.Receipt, error) {
		return n.bridge.ApproveTransfer(caller, messageID)
	})
}

// ConfirmTransfer votes in the burn round of a withdrawal.
func (n *Node) ConfirmTransfer(caller [20]byte, messageID [32]byte) (*bridge.Receipt, error) {
	return n.execute("confirm_transfer", caller, func() (*bridge.Receipt, error) {
		return n.bridge.ConfirmTransfer(caller, messageID)
	})
}

// CancelTransfer abandons a withdrawal and unlocks its funds.
func (n *Node) CancelTransfer(caller [20]byte, messageID [32]byte) (*bridge.Receipt, error) {
	return n.execute("cancel_transfer", caller, func() (*bridge.Receipt, error) {
		return n.bridge.CancelTransfer(caller, messageID)
	})
}

// AddValidator proposes or votes for trusting account.
func (n *Node) AddValidator(caller, account [20]byte) (*bridge.Receipt, error) {
	return n.execute("add_validator", caller, func() (*bridge.Receipt, error) {
		return n.bridge.AddValidator(caller, account)
	})
}

// RemoveValidator proposes or votes for untrusting account.
func (n *Node) RemoveValidator(caller, account [20]byte) (*bridge.Receipt, error) {
	return n.execute("remove_validator", caller, func() (*bridge.Receipt, error) {
		return n.bridge.RemoveValidator(caller, account)
	})
}

// PauseBridge proposes or votes for closing the gate.
func (n *Node) PauseBridge(caller [20]byte) (*bridge.Receipt, error) {
	return n.execute("pause_bridge", caller, func() (*bridge.Receipt, error) {
		return n.bridge.PauseBridge(caller)
	})
}

// ResumeBridge proposes or votes for opening the gate.
func (n *Node) ResumeBridge(caller [20]byte) (*bridge.Receipt, error) {
	return n.execute("resume_bridge", caller, func() (*bridge.Receipt, error) {
		return n.bridge.ResumeBridge(caller)
	})
}
