package bridge

import (
	"errors"
	"fmt"
)

var (
	errStateNotConfigured  = errors.New("bridge: state not configured")
	errLedgerNotConfigured = errors.New("bridge: token ledger not configured")

	// ErrNotAuthorized is returned when the caller is not a trusted validator.
	ErrNotAuthorized = errors.New("bridge: only validators can call this function")
	// ErrGateClosed is returned while the bridge is paused.
	ErrGateClosed = errors.New("bridge: bridge is not operational")
	// ErrAlreadyPaused is returned by pause requests while the gate is closed.
	// It matches ErrGateClosed under errors.Is.
	ErrAlreadyPaused = fmt.Errorf("%w: already paused", ErrGateClosed)
	// ErrAlreadyOperational is returned by resume requests while the gate is
	// open.
	ErrAlreadyOperational = errors.New("bridge: bridge is already operational")
	// ErrNotOpen is returned for votes on a closed proposal.
	ErrNotOpen = errors.New("bridge: proposal is not open")
	// ErrUnsupportedStatusForAction is returned when a finalizer meets an
	// action/status pair it does not handle.
	ErrUnsupportedStatusForAction = errors.New("bridge: unsupported status for action")
	// ErrCapacityExceeded is returned when the validator set is full.
	ErrCapacityExceeded = errors.New("bridge: validators maximum reached")
	// ErrLastValidator is returned when removing the only remaining validator.
	ErrLastValidator = errors.New("bridge: can not remove last validator")
	// ErrOverflow is returned when the proposal id space is exhausted.
	ErrOverflow = errors.New("bridge: overflow adding a new proposal")
	// ErrAlreadyExists is returned when creating a proposal for an indexed hash.
	ErrAlreadyExists = errors.New("bridge: proposal already exists for message")
	// ErrProposalNotFound is returned when a proposal id is unknown.
	ErrProposalNotFound = errors.New("bridge: proposal not found")
	// ErrMessageNotFound is returned when a message id is unknown.
	ErrMessageNotFound = errors.New("bridge: message not found")
	// ErrKindMismatch is returned when a hash is indexed under another kind.
	ErrKindMismatch = errors.New("bridge: message indexed under a different kind")
	// ErrNotApproved is returned when confirming a withdrawal that has not
	// cleared its approval round.
	ErrNotApproved = errors.New("bridge: transfer must be approved first")
	// ErrNotWithdrawal is returned when a withdrawal-only call targets a
	// deposit message.
	ErrNotWithdrawal = fmt.Errorf("%w: message is not a withdrawal", ErrUnsupportedStatusForAction)
	// ErrTransferFinished is returned when cancelling a withdrawal that was
	// already canceled or burned.
	ErrTransferFinished = errors.New("bridge: transfer already finished")
	// ErrAlreadyValidator is returned when adding a trusted account.
	ErrAlreadyValidator = errors.New("bridge: account is already a validator")
	// ErrNotValidatorTarget is returned when removing an untrusted account.
	ErrNotValidatorTarget = errors.New("bridge: account is not a validator")
	// ErrAlreadyVoted is returned by the optional distinct-voter guard.
	ErrAlreadyVoted = errors.New("bridge: validator already voted on proposal")
	// ErrPayloadMismatch is returned when a deposit vote disagrees with the
	// recorded assertion for the same message id.
	ErrPayloadMismatch = errors.New("bridge: deposit payload differs from recorded message")
	// ErrInvalidAmount is returned for nil, zero or negative amounts.
	ErrInvalidAmount = errors.New("bridge: amount must be positive")
)

func unsupported(kind Kind, action Action, status Status) error {
	return fmt.Errorf("%w: tried to execute %s %s with status %s", ErrUnsupportedStatusForAction, kind, action, status)
}
