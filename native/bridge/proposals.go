package bridge

import "math"

func (e *Engine) createProposal(hash [32]byte, kind Kind) (ProposalID, error) {
	if _, exists, err := e.state.BridgeProposalIDByHash(hash); err != nil {
		return 0, err
	} else if exists {
		return 0, ErrAlreadyExists
	}
	count, err := e.state.BridgeProposalCount()
	if err != nil {
		return 0, err
	}
	if count == math.MaxUint32 {
		return 0, ErrOverflow
	}
	id := ProposalID(count)
	proposal := &Proposal{
		ID:          id,
		MessageHash: hash,
		Kind:        kind,
		Open:        true,
	}
	if err := e.state.BridgePutProposal(proposal); err != nil {
		return 0, err
	}
	if err := e.state.BridgeSetProposalCount(count + 1); err != nil {
		return 0, err
	}
	if err := e.state.BridgeIndexProposal(hash, id); err != nil {
		return 0, err
	}
	return id, nil
}

// findOrCreateProposal returns the proposal indexed by hash, allocating one on
// first use. An existing proposal of another kind is never reused.
func (e *Engine) findOrCreateProposal(hash [32]byte, kind Kind) (ProposalID, error) {
	id, exists, err := e.state.BridgeProposalIDByHash(hash)
	if err != nil {
		return 0, err
	}
	if !exists {
		return e.createProposal(hash, kind)
	}
	proposal, err := e.loadProposal(id)
	if err != nil {
		return 0, err
	}
	if proposal.Kind != kind {
		return 0, ErrKindMismatch
	}
	return id, nil
}

func (e *Engine) loadProposal(id ProposalID) (*Proposal, error) {
	proposal, ok, err := e.state.BridgeGetProposal(id)
	if err != nil {
		return nil, err
	}
	if !ok || proposal == nil {
		return nil, ErrProposalNotFound
	}
	return proposal, nil
}

func (e *Engine) proposalIDForMessage(hash [32]byte) (ProposalID, error) {
	id, ok, err := e.state.BridgeProposalIDByHash(hash)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrMessageNotFound
	}
	return id, nil
}

// Proposal returns a copy of the stored proposal.
func (e *Engine) Proposal(id ProposalID) (*Proposal, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	proposal, err := e.loadProposal(id)
	if err != nil {
		return nil, err
	}
	return proposal.Clone(), nil
}

// ProposalByMessage resolves the proposal indexed by a message hash.
func (e *Engine) ProposalByMessage(hash [32]byte) (*Proposal, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	id, err := e.proposalIDForMessage(hash)
	if err != nil {
		return nil, err
	}
	return e.Proposal(id)
}

// ProposalCount returns the number of proposals ever allocated.
func (e *Engine) ProposalCount() (uint32, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	return e.state.BridgeProposalCount()
}
