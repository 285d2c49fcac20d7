package rpc

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"bridgechain/crypto"
	"bridgechain/native/bridge"
	"bridgechain/services/eventlog"
)

func decodeBody(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", fmt.Sprintf("decode request: %v", err))
		return false
	}
	return true
}

func badRequest(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, fn func(caller [20]byte) (*bridge.Receipt, error)) {
	caller, ok := CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", errMissingCaller.Error())
		return
	}
	receipt, err := fn(caller)
	if err != nil {
		writeBridgeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receiptResponse(receipt))
}

func messageIDParam(w http.ResponseWriter, r *http.Request) ([32]byte, bool) {
	id, err := parseMessageID(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, err)
		return id, false
	}
	return id, true
}

func accountParam(w http.ResponseWriter, raw string) ([20]byte, bool) {
	account, err := crypto.ParseAccount(raw)
	if err != nil {
		badRequest(w, fmt.Errorf("invalid account: %w", err))
		return account, false
	}
	return account, true
}

func (s *Server) handleSubmitWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req WithdrawalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	to, err := parseExternal(req.To)
	if err != nil {
		badRequest(w, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		badRequest(w, err)
		return
	}
	s.respond(w, r, func(caller [20]byte) (*bridge.Receipt, error) {
		return s.backend.SubmitWithdrawal(caller, to, amount)
	})
}

func (s *Server) handleSubmitDeposit(w http.ResponseWriter, r *http.Request) {
	var req DepositRequest
	if !decodeBody(w, r, &req) {
		return
	}
	id, err := parseMessageID(req.MessageID)
	if err != nil {
		badRequest(w, err)
		return
	}
	from, err := parseExternal(req.From)
	if err != nil {
		badRequest(w, err)
		return
	}
	to, ok := accountParam(w, req.To)
	if !ok {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		badRequest(w, err)
		return
	}
	s.respond(w, r, func(caller [20]byte) (*bridge.Receipt, error) {
		return s.backend.SubmitDeposit(caller, id, from, to, amount)
	})
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	id, ok := messageIDParam(w, r)
	if !ok {
		return
	}
	s.respond(w, r, func(caller [20]byte) (*bridge.Receipt, error) {
		return s.backend.ApproveTransfer(caller, id)
	})
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	id, ok := messageIDParam(w, r)
	if !ok {
		return
	}
	s.respond(w, r, func(caller [20]byte) (*bridge.Receipt, error) {
		return s.backend.ConfirmTransfer(caller, id)
	})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, ok := messageIDParam(w, r)
	if !ok {
		return
	}
	s.respond(w, r, func(caller [20]byte) (*bridge.Receipt, error) {
		return s.backend.CancelTransfer(caller, id)
	})
}

func (s *Server) handleAddValidator(w http.ResponseWriter, r *http.Request) {
	var req ValidatorRequest
	if !decodeBody(w, r, &req) {
		return
	}
	account, ok := accountParam(w, req.Account)
	if !ok {
		return
	}
	s.respond(w, r, func(caller [20]byte) (*bridge.Receipt, error) {
		return s.backend.AddValidator(caller, account)
	})
}

func (s *Server) handleRemoveValidator(w http.ResponseWriter, r *http.Request) {
	account, ok := accountParam(w, chi.URLParam(r, "account"))
	if !ok {
		return
	}
	s.respond(w, r, func(caller [20]byte) (*bridge.Receipt, error) {
		return s.backend.RemoveValidator(caller, account)
	})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, s.backend.PauseBridge)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, s.backend.ResumeBridge)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	status, err := s.backend.Status()
	if err != nil {
		writeBridgeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse(status))
}

func (s *Server) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		badRequest(w, fmt.Errorf("invalid proposal id %q", raw))
		return
	}
	proposal, err := s.backend.Proposal(bridge.ProposalID(id))
	if err != nil {
		writeBridgeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proposalResponse(proposal))
}

func (s *Server) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := messageIDParam(w, r)
	if !ok {
		return
	}
	proposal, err := s.backend.ProposalByMessage(id)
	if err != nil {
		writeBridgeError(w, err)
		return
	}
	resp := MessageResponse{MessageID: formatHash(id), Kind: proposal.Kind.String()}
	switch proposal.Kind {
	case bridge.KindTransfer:
		msg, err := s.backend.TransferMessage(id)
		if err != nil {
			writeBridgeError(w, err)
			return
		}
		resp.Action = msg.Action.String()
		resp.Status = msg.Status.String()
		resp.ExternalAddress = msg.ExternalAddress.Hex()
		resp.LocalAccount = formatAccount(msg.LocalAccount)
		resp.Amount = msg.Amount.String()
	case bridge.KindValidator:
		status, err := s.backend.ValidatorMessageStatus(id)
		if err != nil {
			writeBridgeError(w, err)
			return
		}
		resp.Status = status.String()
		if status != bridge.StatusRevoked {
			msg, err := s.backend.ValidatorMessage(id)
			if err != nil {
				writeBridgeError(w, err)
				return
			}
			resp.Action = msg.Action.String()
			resp.Account = formatAccount(msg.Account)
		}
	case bridge.KindBridge:
		msg, err := s.backend.BridgeMessage(id)
		if err != nil {
			writeBridgeError(w, err)
			return
		}
		resp.Action = msg.Action.String()
		resp.Status = msg.Status.String()
		resp.Submitter = formatAccount(msg.SubmittingAccount)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListValidators(w http.ResponseWriter, _ *http.Request) {
	validators, err := s.backend.Validators()
	if err != nil {
		writeBridgeError(w, err)
		return
	}
	resp := ValidatorsResponse{Count: len(validators), Validators: make([]string, 0, len(validators))}
	for _, v := range validators {
		resp.Validators = append(resp.Validators, formatAccount(v))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	account, ok := accountParam(w, chi.URLParam(r, "account"))
	if !ok {
		return
	}
	pos, err := s.backend.Account(account)
	if err != nil {
		writeBridgeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AccountResponse{
		Account:   formatAccount(account),
		Balance:   pos.Balance.String(),
		Locked:    pos.Locked.String(),
		Available: pos.Available.String(),
	})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeError(w, http.StatusNotFound, "archive_disabled", "event archive not configured")
		return
	}
	query := r.URL.Query()
	q := eventlog.Query{Type: strings.TrimSpace(query.Get("type"))}
	if raw := query.Get("messageId"); raw != "" {
		id, err := parseMessageID(raw)
		if err != nil {
			badRequest(w, err)
			return
		}
		q.MessageID = formatHash(id)
	}
	if raw := query.Get("after"); raw != "" {
		after, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			badRequest(w, fmt.Errorf("invalid after %q", raw))
			return
		}
		q.After = after
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			badRequest(w, fmt.Errorf("invalid limit %q", raw))
			return
		}
		q.Limit = limit
	}
	records, err := s.events.List(r.Context(), q)
	if err != nil {
		s.logger.Error("list archived events", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	out := make([]EventResponse, 0, len(records))
	for _, record := range records {
		evt, err := eventResponse(record)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal", "internal error")
			return
		}
		out = append(out, evt)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": out})
}
