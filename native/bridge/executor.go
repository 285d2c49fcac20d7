package bridge

import "bridgechain/core/events"

// execute dispatches a proposal that reached quorum to the finalizer of its
// kind. Any action/status pair that is not handled aborts the call.
func (e *Engine) execute(proposal *Proposal) error {
	switch proposal.Kind {
	case KindTransfer:
		msg, err := e.loadTransfer(proposal.MessageHash)
		if err != nil {
			return err
		}
		return e.executeTransfer(msg)
	case KindValidator:
		msg, err := e.loadValidatorMessage(proposal.MessageHash)
		if err != nil {
			return err
		}
		return e.manageValidator(msg)
	case KindBridge:
		msg, err := e.loadBridgeMessage(proposal.MessageHash)
		if err != nil {
			return err
		}
		return e.manageBridge(msg)
	default:
		return ErrKindMismatch
	}
}

func (e *Engine) executeTransfer(msg *TransferMessage) error {
	if e.ledger == nil {
		return errLedgerNotConfigured
	}
	switch msg.Action {
	case ActionDeposit:
		if msg.Status != StatusApproved {
			return unsupported(KindTransfer, msg.Action, msg.Status)
		}
		if err := e.ledger.Mint(msg.LocalAccount, msg.Amount); err != nil {
			return err
		}
		e.emit(events.BridgeMinted{MessageID: msg.MessageID, To: msg.LocalAccount, Amount: msg.Amount})
		return e.updateStatus(KindTransfer, msg.MessageID, StatusConfirmed)
	case ActionWithdraw:
		switch msg.Status {
		case StatusApproved:
			if err := e.ledger.Lock(msg.LocalAccount, msg.Amount); err != nil {
				return err
			}
			e.emit(events.BridgeRelayApproved{
				MessageID: msg.MessageID,
				From:      msg.LocalAccount,
				To:        msg.ExternalAddress,
				Amount:    msg.Amount,
			})
			return e.updateStatus(KindTransfer, msg.MessageID, StatusApproved)
		case StatusConfirmed:
			return e.executeBurn(msg)
		default:
			return unsupported(KindTransfer, msg.Action, msg.Status)
		}
	default:
		return unsupported(KindTransfer, msg.Action, msg.Status)
	}
}

// executeBurn releases the funds locked at approval and destroys them.
func (e *Engine) executeBurn(msg *TransferMessage) error {
	if err := e.ledger.Unlock(msg.LocalAccount, msg.Amount); err != nil {
		return err
	}
	if err := e.ledger.Burn(msg.LocalAccount, msg.Amount); err != nil {
		return err
	}
	e.emit(events.BridgeBurned{
		MessageID: msg.MessageID,
		From:      msg.LocalAccount,
		To:        msg.ExternalAddress,
		Amount:    msg.Amount,
	})
	return nil
}

func (e *Engine) manageValidator(msg *ValidatorMessage) error {
	if msg.Status != StatusApproved {
		return unsupported(KindValidator, msg.Action, msg.Status)
	}
	switch msg.Action {
	case ActionAddValidator:
		return e.addValidator(msg)
	case ActionRemoveValidator:
		return e.removeValidator(msg)
	default:
		return unsupported(KindValidator, msg.Action, msg.Status)
	}
}

func (e *Engine) addValidator(msg *ValidatorMessage) error {
	count, err := e.state.BridgeValidatorCount()
	if err != nil {
		return err
	}
	if count >= MaxValidators {
		return ErrCapacityExceeded
	}
	trusted, err := e.state.BridgeIsValidator(msg.Account)
	if err != nil {
		return err
	}
	if trusted {
		return ErrAlreadyValidator
	}
	if err := e.state.BridgeSetValidator(msg.Account, true); err != nil {
		return err
	}
	if err := e.state.BridgeSetValidatorCount(count + 1); err != nil {
		return err
	}
	if err := e.bumpMembership(msg.Account); err != nil {
		return err
	}
	e.emit(events.BridgeValidatorChanged{MessageID: msg.MessageID, Account: msg.Account, Count: count + 1, Added: true})
	return e.updateStatus(KindValidator, msg.MessageID, StatusConfirmed)
}

// removeValidator is the one finalizer that deletes its message record.
func (e *Engine) removeValidator(msg *ValidatorMessage) error {
	count, err := e.state.BridgeValidatorCount()
	if err != nil {
		return err
	}
	if count <= 1 {
		return ErrLastValidator
	}
	trusted, err := e.state.BridgeIsValidator(msg.Account)
	if err != nil {
		return err
	}
	if !trusted {
		return ErrNotValidatorTarget
	}
	if err := e.state.BridgeSetValidator(msg.Account, false); err != nil {
		return err
	}
	if err := e.state.BridgeSetValidatorCount(count - 1); err != nil {
		return err
	}
	if err := e.bumpMembership(msg.Account); err != nil {
		return err
	}
	e.emit(events.BridgeValidatorChanged{MessageID: msg.MessageID, Account: msg.Account, Count: count - 1})
	return e.state.BridgeDeleteValidatorMessage(msg.MessageID)
}

func (e *Engine) manageBridge(msg *BridgeMessage) error {
	if msg.Status != StatusApproved {
		return unsupported(KindBridge, msg.Action, msg.Status)
	}
	switch msg.Action {
	case ActionPauseTheBridge:
		return e.setGate(msg, false)
	case ActionResumeTheBridge:
		return e.setGate(msg, true)
	default:
		return unsupported(KindBridge, msg.Action, msg.Status)
	}
}

// setGate stores the flag and advances the gate generation when it flips.
func (e *Engine) setGate(msg *BridgeMessage, operational bool) error {
	current, err := e.state.BridgeIsOperational()
	if err != nil {
		return err
	}
	if current != operational {
		if err := e.state.BridgeSetOperational(operational); err != nil {
			return err
		}
		generation, err := e.state.BridgeGateGeneration()
		if err != nil {
			return err
		}
		if err := e.state.BridgeSetGateGeneration(generation + 1); err != nil {
			return err
		}
	}
	e.emit(events.BridgeGateChanged{MessageID: msg.MessageID, Operational: operational})
	return e.updateStatus(KindBridge, msg.MessageID, StatusConfirmed)
}
