package bridge

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"bridgechain/core/events"
)

// SubmitWithdrawal opens a withdrawal of amount from caller to the external
// address. Any account may call it; no vote is cast.
func (e *Engine) SubmitWithdrawal(caller [20]byte, to common.Address, amount *big.Int) (*Receipt, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.ensureOperational(); err != nil {
		return nil, err
	}
	if !positive(amount) {
		return nil, ErrInvalidAmount
	}
	nonce, err := e.state.BridgeWithdrawalNonce(caller)
	if err != nil {
		return nil, err
	}
	hash, err := WithdrawalHash(caller, to, amount, nonce)
	if err != nil {
		return nil, err
	}
	if err := e.state.BridgeSetWithdrawalNonce(caller, nonce+1); err != nil {
		return nil, err
	}
	id, err := e.createProposal(hash, KindTransfer)
	if err != nil {
		return nil, err
	}
	msg := &TransferMessage{
		MessageID:       hash,
		ExternalAddress: to,
		LocalAccount:    caller,
		Amount:          new(big.Int).Set(amount),
		Action:          ActionWithdraw,
		Status:          ActionWithdraw.InitialStatus(),
	}
	if err := e.state.BridgePutTransferMessage(msg); err != nil {
		return nil, err
	}
	e.emit(events.BridgeRelayRequested{MessageID: hash, From: caller, To: to, Amount: msg.Amount})
	return &Receipt{MessageID: hash, ProposalID: id, Status: msg.Status}, nil
}

// SubmitDeposit records or votes on a validator assertion that amount was
// locked on the paired chain for the local account. The first call creates
// the message; later calls with the same id must carry the same payload.
func (e *Engine) SubmitDeposit(caller [20]byte, messageID [32]byte, from common.Address, to [20]byte, amount *big.Int) (*Receipt, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.ensureOperational(); err != nil {
		return nil, err
	}
	if err := e.checkValidator(caller); err != nil {
		return nil, err
	}
	if !positive(amount) {
		return nil, ErrInvalidAmount
	}
	existing, ok, err := e.state.BridgeGetTransferMessage(messageID)
	if err != nil {
		return nil, err
	}
	if ok && existing != nil {
		if existing.Action != ActionDeposit {
			return nil, unsupported(KindTransfer, ActionDeposit, existing.Status)
		}
		if existing.ExternalAddress != from || existing.LocalAccount != to || existing.Amount.Cmp(amount) != 0 {
			return nil, ErrPayloadMismatch
		}
	} else {
		msg := &TransferMessage{
			MessageID:       messageID,
			ExternalAddress: from,
			LocalAccount:    to,
			Amount:          new(big.Int).Set(amount),
			Action:          ActionDeposit,
			Status:          ActionDeposit.InitialStatus(),
		}
		if err := e.state.BridgePutTransferMessage(msg); err != nil {
			return nil, err
		}
	}
	id, err := e.findOrCreateProposal(messageID, KindTransfer)
	if err != nil {
		return nil, err
	}
	return e.sign(caller, id)
}

// ApproveTransfer casts a vote on the proposal indexed by messageID.
func (e *Engine) ApproveTransfer(caller [20]byte, messageID [32]byte) (*Receipt, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.ensureOperational(); err != nil {
		return nil, err
	}
	if err := e.checkValidator(caller); err != nil {
		return nil, err
	}
	id, err := e.proposalIDForMessage(messageID)
	if err != nil {
		return nil, err
	}
	return e.sign(caller, id)
}

// AddValidator proposes, or votes for, trusting account.
func (e *Engine) AddValidator(caller, account [20]byte) (*Receipt, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.ensureOperational(); err != nil {
		return nil, err
	}
	if err := e.checkValidator(caller); err != nil {
		return nil, err
	}
	count, err := e.state.BridgeValidatorCount()
	if err != nil {
		return nil, err
	}
	if count >= MaxValidators {
		return nil, ErrCapacityExceeded
	}
	trusted, err := e.state.BridgeIsValidator(account)
	if err != nil {
		return nil, err
	}
	if trusted {
		return nil, ErrAlreadyValidator
	}
	return e.proposeValidatorChange(caller, account, ActionAddValidator)
}

// RemoveValidator proposes, or votes for, untrusting account.
func (e *Engine) RemoveValidator(caller, account [20]byte) (*Receipt, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.ensureOperational(); err != nil {
		return nil, err
	}
	if err := e.checkValidator(caller); err != nil {
		return nil, err
	}
	count, err := e.state.BridgeValidatorCount()
	if err != nil {
		return nil, err
	}
	if count <= 1 {
		return nil, ErrLastValidator
	}
	trusted, err := e.state.BridgeIsValidator(account)
	if err != nil {
		return nil, err
	}
	if !trusted {
		return nil, ErrNotValidatorTarget
	}
	return e.proposeValidatorChange(caller, account, ActionRemoveValidator)
}

func (e *Engine) proposeValidatorChange(caller, account [20]byte, action Action) (*Receipt, error) {
	generation, err := e.state.BridgeMembershipGeneration(account)
	if err != nil {
		return nil, err
	}
	hash, err := ValidatorChangeHash(action, account, generation)
	if err != nil {
		return nil, err
	}
	_, exists, err := e.state.BridgeGetValidatorMessage(hash)
	if err != nil {
		return nil, err
	}
	if !exists {
		msg := &ValidatorMessage{
			MessageID: hash,
			Account:   account,
			Action:    action,
			Status:    action.InitialStatus(),
		}
		if err := e.state.BridgePutValidatorMessage(msg); err != nil {
			return nil, err
		}
	}
	id, err := e.findOrCreateProposal(hash, KindValidator)
	if err != nil {
		return nil, err
	}
	return e.sign(caller, id)
}

// PauseBridge proposes, or votes for, closing the gate. It fails with
// ErrAlreadyPaused while the gate is already closed.
func (e *Engine) PauseBridge(caller [20]byte) (*Receipt, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.checkValidator(caller); err != nil {
		return nil, err
	}
	operational, err := e.state.BridgeIsOperational()
	if err != nil {
		return nil, err
	}
	if !operational {
		return nil, ErrAlreadyPaused
	}
	return e.proposeGateChange(caller, ActionPauseTheBridge)
}

// ResumeBridge proposes, or votes for, opening the gate. It fails with
// ErrAlreadyOperational while the gate is open.
func (e *Engine) ResumeBridge(caller [20]byte) (*Receipt, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.checkValidator(caller); err != nil {
		return nil, err
	}
	operational, err := e.state.BridgeIsOperational()
	if err != nil {
		return nil, err
	}
	if operational {
		return nil, ErrAlreadyOperational
	}
	return e.proposeGateChange(caller, ActionResumeTheBridge)
}

func (e *Engine) proposeGateChange(caller [20]byte, action Action) (*Receipt, error) {
	generation, err := e.state.BridgeGateGeneration()
	if err != nil {
		return nil, err
	}
	hash, err := GateChangeHash(action, generation)
	if err != nil {
		return nil, err
	}
	_, exists, err := e.state.BridgeGetBridgeMessage(hash)
	if err != nil {
		return nil, err
	}
	if !exists {
		msg := &BridgeMessage{
			MessageID:         hash,
			SubmittingAccount: caller,
			Action:            action,
			Status:            action.InitialStatus(),
		}
		if err := e.state.BridgePutBridgeMessage(msg); err != nil {
			return nil, err
		}
	}
	id, err := e.findOrCreateProposal(hash, KindBridge)
	if err != nil {
		return nil, err
	}
	return e.sign(caller, id)
}

// ConfirmTransfer asserts that an approved withdrawal was released on the
// paired chain. The first confirmation re-opens the proposal for the burn
// round; every call casts a vote in that round.
func (e *Engine) ConfirmTransfer(caller [20]byte, messageID [32]byte) (*Receipt, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.ensureOperational(); err != nil {
		return nil, err
	}
	if err := e.checkValidator(caller); err != nil {
		return nil, err
	}
	msg, err := e.loadTransfer(messageID)
	if err != nil {
		return nil, err
	}
	if msg.Action != ActionWithdraw {
		return nil, ErrNotWithdrawal
	}
	if msg.Status != StatusApproved && msg.Status != StatusConfirmed {
		return nil, ErrNotApproved
	}
	id, err := e.proposalIDForMessage(messageID)
	if err != nil {
		return nil, err
	}
	if msg.Status == StatusApproved {
		if err := e.updateStatus(KindTransfer, messageID, StatusConfirmed); err != nil {
			return nil, err
		}
	}
	if err := e.reopenForBurnConfirmation(messageID); err != nil {
		return nil, err
	}
	return e.sign(caller, id)
}

// CancelTransfer lets a single validator abandon a withdrawal before it is
// burned. Locked funds are returned to the account and the proposal closes.
func (e *Engine) CancelTransfer(caller [20]byte, messageID [32]byte) (*Receipt, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.ensureOperational(); err != nil {
		return nil, err
	}
	if err := e.checkValidator(caller); err != nil {
		return nil, err
	}
	msg, err := e.loadTransfer(messageID)
	if err != nil {
		return nil, err
	}
	if msg.Action != ActionWithdraw {
		return nil, ErrNotWithdrawal
	}
	id, err := e.proposalIDForMessage(messageID)
	if err != nil {
		return nil, err
	}
	proposal, err := e.loadProposal(id)
	if err != nil {
		return nil, err
	}
	burned := !proposal.Open && proposal.Reopened && msg.Status == StatusConfirmed
	if msg.Status == StatusCanceled || burned {
		return nil, ErrTransferFinished
	}
	unlocked := msg.Status == StatusApproved || msg.Status == StatusConfirmed
	if unlocked {
		if e.ledger == nil {
			return nil, errLedgerNotConfigured
		}
		if err := e.ledger.Unlock(msg.LocalAccount, msg.Amount); err != nil {
			return nil, err
		}
	}
	if err := e.updateStatus(KindTransfer, messageID, StatusCanceled); err != nil {
		return nil, err
	}
	proposal.Open = false
	if err := e.state.BridgePutProposal(proposal); err != nil {
		return nil, err
	}
	e.emit(events.BridgeTransferCanceled{
		MessageID: messageID,
		Validator: caller,
		Account:   msg.LocalAccount,
		Amount:    msg.Amount,
		Unlocked:  unlocked,
	})
	return &Receipt{MessageID: messageID, ProposalID: id, Votes: proposal.Votes, Status: StatusCanceled}, nil
}
