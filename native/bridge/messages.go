package bridge

func (e *Engine) loadTransfer(hash [32]byte) (*TransferMessage, error) {
	msg, ok, err := e.state.BridgeGetTransferMessage(hash)
	if err != nil {
		return nil, err
	}
	if !ok || msg == nil {
		return nil, ErrMessageNotFound
	}
	return msg, nil
}

func (e *Engine) loadValidatorMessage(hash [32]byte) (*ValidatorMessage, error) {
	msg, ok, err := e.state.BridgeGetValidatorMessage(hash)
	if err != nil {
		return nil, err
	}
	if !ok || msg == nil {
		return nil, ErrMessageNotFound
	}
	return msg, nil
}

func (e *Engine) loadBridgeMessage(hash [32]byte) (*BridgeMessage, error) {
	msg, ok, err := e.state.BridgeGetBridgeMessage(hash)
	if err != nil {
		return nil, err
	}
	if !ok || msg == nil {
		return nil, ErrMessageNotFound
	}
	return msg, nil
}

// messageStatus reads the status of the message a proposal references.
func (e *Engine) messageStatus(kind Kind, hash [32]byte) (Status, error) {
	switch kind {
	case KindTransfer:
		msg, err := e.loadTransfer(hash)
		if err != nil {
			return StatusUnspecified, err
		}
		return msg.Status, nil
	case KindValidator:
		msg, err := e.loadValidatorMessage(hash)
		if err != nil {
			return StatusUnspecified, err
		}
		return msg.Status, nil
	case KindBridge:
		msg, err := e.loadBridgeMessage(hash)
		if err != nil {
			return StatusUnspecified, err
		}
		return msg.Status, nil
	default:
		return StatusUnspecified, ErrKindMismatch
	}
}

// updateStatus rewrites the status of the message stored under hash in the
// store selected by kind.
func (e *Engine) updateStatus(kind Kind, hash [32]byte, status Status) error {
	switch kind {
	case KindTransfer:
		msg, err := e.loadTransfer(hash)
		if err != nil {
			return err
		}
		msg.Status = status
		return e.state.BridgePutTransferMessage(msg)
	case KindValidator:
		msg, err := e.loadValidatorMessage(hash)
		if err != nil {
			return err
		}
		msg.Status = status
		return e.state.BridgePutValidatorMessage(msg)
	case KindBridge:
		msg, err := e.loadBridgeMessage(hash)
		if err != nil {
			return err
		}
		msg.Status = status
		return e.state.BridgePutBridgeMessage(msg)
	default:
		return ErrKindMismatch
	}
}

// TransferMessage returns a copy of the stored transfer message.
func (e *Engine) TransferMessage(hash [32]byte) (*TransferMessage, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	msg, err := e.loadTransfer(hash)
	if err != nil {
		return nil, err
	}
	return msg.Clone(), nil
}

// ValidatorMessage returns a copy of the stored validator message.
func (e *Engine) ValidatorMessage(hash [32]byte) (*ValidatorMessage, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	msg, err := e.loadValidatorMessage(hash)
	if err != nil {
		return nil, err
	}
	clone := *msg
	return &clone, nil
}

// ValidatorMessageStatus reports the status of a validator message. Executed
// removals are purged from the store; while their proposal is still indexed
// they report StatusRevoked.
func (e *Engine) ValidatorMessageStatus(hash [32]byte) (Status, error) {
	if err := e.ready(); err != nil {
		return StatusUnspecified, err
	}
	msg, ok, err := e.state.BridgeGetValidatorMessage(hash)
	if err != nil {
		return StatusUnspecified, err
	}
	if ok && msg != nil {
		return msg.Status, nil
	}
	id, indexed, err := e.state.BridgeProposalIDByHash(hash)
	if err != nil {
		return StatusUnspecified, err
	}
	if !indexed {
		return StatusUnspecified, ErrMessageNotFound
	}
	proposal, err := e.loadProposal(id)
	if err != nil {
		return StatusUnspecified, err
	}
	if proposal.Kind != KindValidator || proposal.Open {
		return StatusUnspecified, ErrMessageNotFound
	}
	return StatusRevoked, nil
}

// BridgeMessage returns a copy of the stored pause/resume message.
func (e *Engine) BridgeMessage(hash [32]byte) (*BridgeMessage, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	msg, err := e.loadBridgeMessage(hash)
	if err != nil {
		return nil, err
	}
	clone := *msg
	return &clone, nil
}
