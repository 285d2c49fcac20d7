package rpc

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"bridgechain/core"
	"bridgechain/crypto"
	"bridgechain/native/bridge"
	"bridgechain/services/eventlog"
)

// WithdrawalRequest asks to move funds from the caller to the paired chain.
type WithdrawalRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// DepositRequest is a validator assertion about a paired-chain deposit.
type DepositRequest struct {
	MessageID string `json:"messageId"`
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    string `json:"amount"`
}

// ValidatorRequest names the account to add.
type ValidatorRequest struct {
	Account string `json:"account"`
}

// ReceiptResponse reports the outcome of a call that cast or created a vote.
type ReceiptResponse struct {
	MessageID  string `json:"messageId"`
	ProposalID uint32 `json:"proposalId"`
	Votes      uint32 `json:"votes"`
	Finalized  bool   `json:"finalized"`
	Status     string `json:"status"`
}

// ProposalResponse mirrors a stored proposal.
type ProposalResponse struct {
	ID        uint32   `json:"id"`
	MessageID string   `json:"messageId"`
	Kind      string   `json:"kind"`
	Open      bool     `json:"open"`
	Votes     uint32   `json:"votes"`
	Reopened  bool     `json:"reopened"`
	Voters    []string `json:"voters,omitempty"`
}

// MessageResponse is the union view of the three message kinds.
type MessageResponse struct {
	MessageID       string `json:"messageId"`
	Kind            string `json:"kind"`
	Action          string `json:"action,omitempty"`
	Status          string `json:"status"`
	ExternalAddress string `json:"externalAddress,omitempty"`
	LocalAccount    string `json:"localAccount,omitempty"`
	Amount          string `json:"amount,omitempty"`
	Account         string `json:"account,omitempty"`
	Submitter       string `json:"submitter,omitempty"`
}

// ValidatorsResponse lists the trusted set.
type ValidatorsResponse struct {
	Count      int      `json:"count"`
	Validators []string `json:"validators"`
}

// StatusResponse summarises the bridge.
type StatusResponse struct {
	Validators    uint32  `json:"validators"`
	Operational   bool    `json:"operational"`
	ProposalCount uint32  `json:"proposalCount"`
	TotalSupply   string  `json:"totalSupply"`
	Threshold     float64 `json:"threshold"`
}

// AccountResponse reports a token position.
type AccountResponse struct {
	Account   string `json:"account"`
	Balance   string `json:"balance"`
	Locked    string `json:"locked"`
	Available string `json:"available"`
}

// EventResponse is one archived notification.
type EventResponse struct {
	Sequence   uint64            `json:"sequence"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
	CreatedAt  int64             `json:"createdAt"`
}

func formatHash(h [32]byte) string { return common.Hash(h).Hex() }

func formatAccount(a [20]byte) string { return crypto.AccountAddress(a).String() }

func receiptResponse(r *bridge.Receipt) ReceiptResponse {
	return ReceiptResponse{
		MessageID:  formatHash(r.MessageID),
		ProposalID: uint32(r.ProposalID),
		Votes:      r.Votes,
		Finalized:  r.Finalized,
		Status:     r.Status.String(),
	}
}

func proposalResponse(p *bridge.Proposal) ProposalResponse {
	resp := ProposalResponse{
		ID:        uint32(p.ID),
		MessageID: formatHash(p.MessageHash),
		Kind:      p.Kind.String(),
		Open:      p.Open,
		Votes:     p.Votes,
		Reopened:  p.Reopened,
	}
	for _, voter := range p.Voters {
		resp.Voters = append(resp.Voters, formatAccount(voter))
	}
	return resp
}

func statusResponse(s *core.Status) StatusResponse {
	return StatusResponse{
		Validators:    s.Validators,
		Operational:   s.Operational,
		ProposalCount: s.ProposalCount,
		TotalSupply:   s.TotalSupply.String(),
		Threshold:     s.Threshold,
	}
}

func eventResponse(r eventlog.Record) (EventResponse, error) {
	attrs, err := r.Decode()
	if err != nil {
		return EventResponse{}, err
	}
	return EventResponse{Sequence: r.Sequence, Type: r.Type, Attributes: attrs, CreatedAt: r.CreatedAt.Unix()}, nil
}

// parseAmount accepts a base-10 integer that fits in 256 bits.
func parseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	value, err := uint256.FromDecimal(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return value.ToBig(), nil
}

func parseMessageID(raw string) ([32]byte, error) {
	var out [32]byte
	trimmed := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(raw), "0x"), "0X")
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return out, fmt.Errorf("invalid message id: %w", err)
	}
	if len(decoded) != len(out) {
		return out, fmt.Errorf("message id must be 32 bytes")
	}
	copy(out[:], decoded)
	return out, nil
}

func parseExternal(raw string) (common.Address, error) {
	trimmed := strings.TrimSpace(raw)
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, fmt.Errorf("invalid external address %q", raw)
	}
	return common.HexToAddress(trimmed), nil
}
