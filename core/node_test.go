package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"bridgechain/core/events"
	"bridgechain/core/genesis"
	"bridgechain/crypto"
	"bridgechain/native/bridge"
	"bridgechain/native/token"
	"bridgechain/storage"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingEmitter) Emit(evt events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recordingEmitter) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, evt := range r.events {
		out = append(out, evt.EventType())
	}
	return out
}

func (r *recordingEmitter) count(eventType string) int {
	n := 0
	for _, t := range r.types() {
		if t == eventType {
			n++
		}
	}
	return n
}

func acct(b byte) [20]byte {
	var out [20]byte
	copy(out[:], bytes.Repeat([]byte{b}, 20))
	return out
}

var (
	v1     = acct(0x01)
	v2     = acct(0x02)
	v3     = acct(0x03)
	holder = acct(0x10)
	peer   = common.HexToAddress("0x00b46c2526e227482e2EbB8f4C69E4674d262E75")
)

func newTestNode(t *testing.T, validators [][20]byte, alloc map[[20]byte]int64, opts ...Option) (*Node, *recordingEmitter) {
	t.Helper()
	list := make([]string, 0, len(validators))
	for _, v := range validators {
		list = append(list, crypto.AccountAddress(v).String())
	}
	balances := make(map[string]string, len(alloc))
	for account, amount := range alloc {
		balances[crypto.AccountAddress(account).String()] = big.NewInt(amount).String()
	}
	raw, err := json.Marshal(map[string]interface{}{
		"genesisTime": "2024-01-01T00:00:00Z",
		"validators":  list,
		"alloc":       balances,
	})
	require.NoError(t, err)
	spec, err := genesis.ParseGenesisSpec(raw)
	require.NoError(t, err)

	recorder := &recordingEmitter{}
	node, err := NewNode(storage.NewMemDB(), append([]Option{WithEmitter(recorder)}, opts...)...)
	require.NoError(t, err)
	require.NoError(t, node.InitGenesis(spec))
	return node, recorder
}

func requireBalance(t *testing.T, node *Node, account [20]byte, balance, locked int64) {
	t.Helper()
	pos, err := node.Account(account)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(balance).String(), pos.Balance.String(), "balance")
	require.Equal(t, big.NewInt(locked).String(), pos.Locked.String(), "locked")
	require.Equal(t, big.NewInt(balance-locked).String(), pos.Available.String(), "available")
}

func TestNodeRequiresDatabase(t *testing.T) {
	_, err := NewNode(nil)
	require.Error(t, err)
}

func TestNodeGenesisIsIdempotent(t *testing.T) {
	node, _ := newTestNode(t, [][20]byte{v1, v2}, map[[20]byte]int64{holder: 50})
	status, err := node.Status()
	require.NoError(t, err)
	require.Equal(t, uint32(2), status.Validators)
	require.True(t, status.Operational)
	require.Equal(t, "50", status.TotalSupply.String())

	spec, err := genesis.ParseGenesisSpec([]byte(`{"genesisTime":"2024-01-01T00:00:00Z","validators":["` +
		crypto.AccountAddress(v3).String() + `"]}`))
	require.NoError(t, err)
	require.NoError(t, node.InitGenesis(spec))

	validators, err := node.Validators()
	require.NoError(t, err)
	require.Equal(t, [][20]byte{v1, v2}, validators)
}

func TestNodeDepositLifecycle(t *testing.T) {
	node, recorder := newTestNode(t, [][20]byte{v1, v2, v3}, nil)
	id := [32]byte{0xaa}

	receipt, err := node.SubmitDeposit(v1, id, peer, holder, big.NewInt(40))
	require.NoError(t, err)
	require.False(t, receipt.Finalized)
	require.Equal(t, bridge.StatusPending, receipt.Status)
	requireBalance(t, node, holder, 0, 0)

	receipt, err = node.SubmitDeposit(v2, id, peer, holder, big.NewInt(40))
	require.NoError(t, err)
	require.True(t, receipt.Finalized)
	require.Equal(t, bridge.StatusConfirmed, receipt.Status)
	requireBalance(t, node, holder, 40, 0)
	require.Equal(t, 1, recorder.count(events.TypeBridgeMinted))

	_, err = node.ApproveTransfer(v3, id)
	require.ErrorIs(t, err, bridge.ErrNotOpen)
	requireBalance(t, node, holder, 40, 0)

	proposal, err := node.ProposalByMessage(id)
	require.NoError(t, err)
	require.False(t, proposal.Open)
	require.Equal(t, uint32(2), proposal.Votes)
}

func TestNodeWithdrawalLifecycle(t *testing.T) {
	node, recorder := newTestNode(t, [][20]byte{v1, v2, v3}, map[[20]byte]int64{holder: 100})

	receipt, err := node.SubmitWithdrawal(holder, peer, big.NewInt(30))
	require.NoError(t, err)
	id := receipt.MessageID
	require.Equal(t, 1, recorder.count(events.TypeBridgeRelayRequested))

	for _, v := range [][20]byte{v1, v2} {
		_, err = node.ApproveTransfer(v, id)
		require.NoError(t, err)
	}
	requireBalance(t, node, holder, 100, 30)
	msg, err := node.TransferMessage(id)
	require.NoError(t, err)
	require.Equal(t, bridge.StatusApproved, msg.Status)

	receipt, err = node.ConfirmTransfer(v3, id)
	require.NoError(t, err)
	require.False(t, receipt.Finalized)
	require.Equal(t, bridge.StatusConfirmed, receipt.Status)

	receipt, err = node.ConfirmTransfer(v1, id)
	require.NoError(t, err)
	require.True(t, receipt.Finalized)
	requireBalance(t, node, holder, 70, 0)

	status, err := node.Status()
	require.NoError(t, err)
	require.Equal(t, "70", status.TotalSupply.String())
	require.Equal(t, 1, recorder.count(events.TypeBridgeBurned))

	_, err = node.CancelTransfer(v2, id)
	require.ErrorIs(t, err, bridge.ErrTransferFinished)
}

func TestNodeCancelUnlocksFunds(t *testing.T) {
	node, recorder := newTestNode(t, [][20]byte{v1, v2}, map[[20]byte]int64{holder: 100})
	receipt, err := node.SubmitWithdrawal(holder, peer, big.NewInt(25))
	require.NoError(t, err)
	id := receipt.MessageID

	for _, v := range [][20]byte{v1, v2} {
		_, err = node.ApproveTransfer(v, id)
		require.NoError(t, err)
	}
	requireBalance(t, node, holder, 100, 25)

	receipt, err = node.CancelTransfer(v2, id)
	require.NoError(t, err)
	require.Equal(t, bridge.StatusCanceled, receipt.Status)
	requireBalance(t, node, holder, 100, 0)
	require.Equal(t, 1, recorder.count(events.TypeBridgeTransferCanceled))

	_, err = node.ApproveTransfer(v1, id)
	require.ErrorIs(t, err, bridge.ErrNotOpen)
}

func TestNodeRevertsFailedFinalization(t *testing.T) {
	node, recorder := newTestNode(t, [][20]byte{v1, v2, v3}, map[[20]byte]int64{holder: 100})

	first, err := node.SubmitWithdrawal(holder, peer, big.NewInt(60))
	require.NoError(t, err)
	second, err := node.SubmitWithdrawal(holder, peer, big.NewInt(60))
	require.NoError(t, err)
	require.NotEqual(t, first.MessageID, second.MessageID)

	for _, v := range [][20]byte{v1, v2} {
		_, err = node.ApproveTransfer(v, first.MessageID)
		require.NoError(t, err)
	}
	_, err = node.ApproveTransfer(v1, second.MessageID)
	require.NoError(t, err)

	before := len(recorder.types())
	_, err = node.ApproveTransfer(v2, second.MessageID)
	require.ErrorIs(t, err, token.ErrInsufficientFunds)
	require.Len(t, recorder.types(), before, "rejected call must not publish events")

	proposal, err := node.ProposalByMessage(second.MessageID)
	require.NoError(t, err)
	require.True(t, proposal.Open)
	require.Equal(t, uint32(1), proposal.Votes)
	msg, err := node.TransferMessage(second.MessageID)
	require.NoError(t, err)
	require.Equal(t, bridge.StatusPending, msg.Status)
	requireBalance(t, node, holder, 100, 60)
}

func TestNodeRevertsRejectedDepositRecord(t *testing.T) {
	node, _ := newTestNode(t, [][20]byte{v1, v2, v3}, nil)
	id := [32]byte{0x42}
	_, err := node.SubmitDeposit(v1, id, peer, holder, big.NewInt(5))
	require.NoError(t, err)

	_, err = node.SubmitDeposit(v2, id, peer, holder, big.NewInt(6))
	require.ErrorIs(t, err, bridge.ErrPayloadMismatch)

	msg, err := node.TransferMessage(id)
	require.NoError(t, err)
	require.Equal(t, "5", msg.Amount.String())
	proposal, err := node.ProposalByMessage(id)
	require.NoError(t, err)
	require.Equal(t, uint32(1), proposal.Votes)
}

func TestNodeValidatorRegistry(t *testing.T) {
	node, recorder := newTestNode(t, [][20]byte{v1, v2}, nil)

	receipt, err := node.AddValidator(v1, v3)
	require.NoError(t, err)
	require.False(t, receipt.Finalized)
	receipt, err = node.AddValidator(v2, v3)
	require.NoError(t, err)
	require.True(t, receipt.Finalized)
	ok, err := node.IsValidator(v3)
	require.NoError(t, err)
	require.True(t, ok)

	validators, err := node.Validators()
	require.NoError(t, err)
	require.Equal(t, [][20]byte{v1, v2, v3}, validators)
	require.Equal(t, 1, recorder.count(events.TypeBridgeValidatorAdded))

	_, err = node.RemoveValidator(v1, v2)
	require.NoError(t, err)
	receipt, err = node.RemoveValidator(v3, v2)
	require.NoError(t, err)
	require.True(t, receipt.Finalized)
	require.Equal(t, bridge.StatusRevoked, receipt.Status)

	status, err := node.ValidatorMessageStatus(receipt.MessageID)
	require.NoError(t, err)
	require.Equal(t, bridge.StatusRevoked, status)

	_, err = node.ApproveTransfer(v2, [32]byte{0x01})
	require.ErrorIs(t, err, bridge.ErrNotAuthorized)
}

func TestNodeRevertsLastValidatorRemoval(t *testing.T) {
	node, _ := newTestNode(t, [][20]byte{v1, v2}, nil)

	first, err := node.RemoveValidator(v1, v1)
	require.NoError(t, err)
	second, err := node.RemoveValidator(v1, v2)
	require.NoError(t, err)

	receipt, err := node.ApproveTransfer(v2, first.MessageID)
	require.NoError(t, err)
	require.True(t, receipt.Finalized)

	_, err = node.ApproveTransfer(v2, second.MessageID)
	require.ErrorIs(t, err, bridge.ErrLastValidator)

	proposal, err := node.ProposalByMessage(second.MessageID)
	require.NoError(t, err)
	require.True(t, proposal.Open)
	require.Equal(t, uint32(1), proposal.Votes)
	validators, err := node.Validators()
	require.NoError(t, err)
	require.Equal(t, [][20]byte{v2}, validators)
}

func TestNodePauseBlocksTransfers(t *testing.T) {
	node, recorder := newTestNode(t, [][20]byte{v1, v2}, map[[20]byte]int64{holder: 10})

	receipt, err := node.PauseBridge(v1)
	require.NoError(t, err)
	require.False(t, receipt.Finalized)
	receipt, err = node.PauseBridge(v2)
	require.NoError(t, err)
	require.True(t, receipt.Finalized)
	require.Equal(t, 1, recorder.count(events.TypeBridgePaused))

	_, err = node.SubmitWithdrawal(holder, peer, big.NewInt(1))
	require.ErrorIs(t, err, bridge.ErrGateClosed)
	_, err = node.PauseBridge(v2)
	require.ErrorIs(t, err, bridge.ErrAlreadyPaused)

	for _, v := range [][20]byte{v1, v2} {
		_, err = node.ResumeBridge(v)
		require.NoError(t, err)
	}
	status, err := node.Status()
	require.NoError(t, err)
	require.True(t, status.Operational)

	_, err = node.SubmitWithdrawal(holder, peer, big.NewInt(1))
	require.NoError(t, err)
	_, err = node.ResumeBridge(v1)
	require.ErrorIs(t, err, bridge.ErrAlreadyOperational)
}

func TestNodeSerialisesConcurrentVotes(t *testing.T) {
	node, recorder := newTestNode(t, [][20]byte{v1, v2, v3}, nil)
	id := [32]byte{0x77}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		committed int
		closed    int
	)
	for i := 0; i < 12; i++ {
		voter := [][20]byte{v1, v2, v3}[i%3]
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := node.SubmitDeposit(voter, id, peer, holder, big.NewInt(9))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				committed++
			case errors.Is(err, bridge.ErrNotOpen):
				closed++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 2, committed)
	require.Equal(t, 10, closed)
	require.Equal(t, 1, recorder.count(events.TypeBridgeMinted))
	requireBalance(t, node, holder, 9, 0)
}

func TestNodeThresholdOption(t *testing.T) {
	node, _ := newTestNode(t, [][20]byte{v1, v2, v3}, nil, WithQuorumThreshold(1))
	require.Equal(t, 1.0, node.Threshold())
	id := [32]byte{0x01}
	for i, v := range [][20]byte{v1, v2, v3} {
		receipt, err := node.SubmitDeposit(v, id, peer, holder, big.NewInt(3))
		require.NoError(t, err)
		require.Equal(t, i == 2, receipt.Finalized)
	}
}
