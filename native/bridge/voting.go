package bridge

import (
	"math"

	"bridgechain/core/events"
)

// quorumReached compares the vote share against the live validator count
// using floating point division.
func quorumReached(votes, validators uint32, threshold float64) bool {
	if validators == 0 {
		return false
	}
	return float64(votes)/float64(validators) >= threshold
}

// sign records one vote on the proposal and finalizes it when quorum is
// reached. Side effects happen only on the transition to closed.
func (e *Engine) sign(voter [20]byte, id ProposalID) (*Receipt, error) {
	proposal, err := e.loadProposal(id)
	if err != nil {
		return nil, err
	}
	if !proposal.Open {
		return nil, ErrNotOpen
	}
	if e.distinctVoters {
		if proposal.hasVoted(voter) {
			return nil, ErrAlreadyVoted
		}
		proposal.Voters = append(proposal.Voters, voter)
	}
	if proposal.Votes == math.MaxUint32 {
		return nil, ErrOverflow
	}
	proposal.Votes++

	validators, err := e.state.BridgeValidatorCount()
	if err != nil {
		return nil, err
	}
	status, err := e.messageStatus(proposal.Kind, proposal.MessageHash)
	if err != nil {
		return nil, err
	}

	finalized := quorumReached(proposal.Votes, validators, e.threshold)
	if finalized {
		// A confirmed withdrawal keeps its status through the burn round.
		if status != StatusConfirmed {
			if err := e.updateStatus(proposal.Kind, proposal.MessageHash, StatusApproved); err != nil {
				return nil, err
			}
		}
		if err := e.execute(proposal); err != nil {
			return nil, err
		}
		proposal.Open = false
	} else if status != StatusConfirmed {
		if err := e.updateStatus(proposal.Kind, proposal.MessageHash, StatusPending); err != nil {
			return nil, err
		}
	}

	if err := e.state.BridgePutProposal(proposal); err != nil {
		return nil, err
	}

	e.emit(events.BridgeVoteRecorded{
		ProposalID: uint32(proposal.ID),
		MessageID:  proposal.MessageHash,
		Voter:      voter,
		Kind:       proposal.Kind.String(),
		Votes:      proposal.Votes,
		Validators: validators,
		Finalized:  finalized,
	})

	receipt := &Receipt{
		MessageID:  proposal.MessageHash,
		ProposalID: proposal.ID,
		Votes:      proposal.Votes,
		Finalized:  finalized,
	}
	// Removal messages are purged on execution, so a missing record after
	// finalization reports Revoked.
	if current, err := e.messageStatus(proposal.Kind, proposal.MessageHash); err == nil {
		receipt.Status = current
	} else if finalized && proposal.Kind == KindValidator {
		receipt.Status = StatusRevoked
	} else {
		return nil, err
	}
	return receipt, nil
}

// reopenForBurnConfirmation gives a closed, confirmed withdrawal a second
// quorum round. It applies once per proposal and only to withdrawals.
func (e *Engine) reopenForBurnConfirmation(hash [32]byte) error {
	msg, err := e.loadTransfer(hash)
	if err != nil {
		return err
	}
	id, err := e.proposalIDForMessage(hash)
	if err != nil {
		return err
	}
	proposal, err := e.loadProposal(id)
	if err != nil {
		return err
	}
	if proposal.Kind != KindTransfer || msg.Action != ActionWithdraw {
		return nil
	}
	if proposal.Open || proposal.Reopened || msg.Status != StatusConfirmed {
		return nil
	}
	proposal.Votes = 0
	proposal.Open = true
	proposal.Reopened = true
	proposal.Voters = nil
	return e.state.BridgePutProposal(proposal)
}
