package rpc

import (
	"encoding/json"
	"errors"
	"net/http"

	"bridgechain/native/bridge"
	"bridgechain/native/token"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorClass struct {
	err    error
	status int
	code   string
}

// Order matters: wrapped sentinels must precede the errors they wrap.
var errorClasses = []errorClass{
	{bridge.ErrNotAuthorized, http.StatusForbidden, "not_authorized"},
	{bridge.ErrAlreadyPaused, http.StatusConflict, "already_paused"},
	{bridge.ErrGateClosed, http.StatusConflict, "gate_closed"},
	{bridge.ErrAlreadyOperational, http.StatusConflict, "already_operational"},
	{bridge.ErrNotOpen, http.StatusConflict, "proposal_closed"},
	{bridge.ErrAlreadyExists, http.StatusConflict, "proposal_exists"},
	{bridge.ErrAlreadyVoted, http.StatusConflict, "already_voted"},
	{bridge.ErrAlreadyValidator, http.StatusConflict, "already_validator"},
	{bridge.ErrNotValidatorTarget, http.StatusConflict, "not_validator"},
	{bridge.ErrLastValidator, http.StatusConflict, "last_validator"},
	{bridge.ErrCapacityExceeded, http.StatusConflict, "capacity_exceeded"},
	{bridge.ErrTransferFinished, http.StatusConflict, "transfer_finished"},
	{bridge.ErrNotApproved, http.StatusConflict, "not_approved"},
	{bridge.ErrPayloadMismatch, http.StatusConflict, "payload_mismatch"},
	{bridge.ErrKindMismatch, http.StatusConflict, "kind_mismatch"},
	{bridge.ErrNotWithdrawal, http.StatusUnprocessableEntity, "not_withdrawal"},
	{bridge.ErrUnsupportedStatusForAction, http.StatusUnprocessableEntity, "unsupported_status"},
	{bridge.ErrOverflow, http.StatusUnprocessableEntity, "overflow"},
	{token.ErrInsufficientFunds, http.StatusUnprocessableEntity, "insufficient_funds"},
	{token.ErrInsufficientLocked, http.StatusUnprocessableEntity, "insufficient_locked"},
	{bridge.ErrMessageNotFound, http.StatusNotFound, "message_not_found"},
	{bridge.ErrProposalNotFound, http.StatusNotFound, "proposal_not_found"},
	{bridge.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{token.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
}

func classify(err error) (int, string) {
	for _, class := range errorClasses {
		if errors.Is(err, class.err) {
			return class.status, class.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

func writeBridgeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	writeError(w, status, code, message)
}
