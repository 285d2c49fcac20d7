package bridge

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestWithdrawalHashSalting(t *testing.T) {
	to := common.HexToAddress("0x00b46c2526e227482e2EbB8f4C69E4674d262E75")
	from := testAccount(1)

	a, err := WithdrawalHash(from, to, big.NewInt(500), 0)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	again, _ := WithdrawalHash(from, to, big.NewInt(500), 0)
	if a != again {
		t.Fatalf("hash is not deterministic")
	}
	next, _ := WithdrawalHash(from, to, big.NewInt(500), 1)
	if a == next {
		t.Fatalf("nonce does not salt the hash")
	}
	other, _ := WithdrawalHash(from, to, big.NewInt(501), 0)
	if a == other {
		t.Fatalf("amount does not affect the hash")
	}
	if _, err := WithdrawalHash(from, to, nil, 0); err != nil {
		t.Fatalf("nil amount: %v", err)
	}
}

func TestChangeHashesSeparateActions(t *testing.T) {
	account := testAccount(7)
	add, _ := ValidatorChangeHash(ActionAddValidator, account, 0)
	remove, _ := ValidatorChangeHash(ActionRemoveValidator, account, 0)
	addNext, _ := ValidatorChangeHash(ActionAddValidator, account, 1)
	if add == remove || add == addNext {
		t.Fatalf("validator change hashes collide")
	}

	pause, _ := GateChangeHash(ActionPauseTheBridge, 0)
	resume, _ := GateChangeHash(ActionResumeTheBridge, 0)
	pauseNext, _ := GateChangeHash(ActionPauseTheBridge, 1)
	if pause == resume || pause == pauseNext {
		t.Fatalf("gate change hashes collide")
	}
}

func TestInitialStatusMirrorsAction(t *testing.T) {
	pairs := map[Action]Status{
		ActionDeposit:         StatusDeposit,
		ActionWithdraw:        StatusWithdraw,
		ActionAddValidator:    StatusAddValidator,
		ActionRemoveValidator: StatusRemoveValidator,
		ActionPauseTheBridge:  StatusPauseTheBridge,
		ActionResumeTheBridge: StatusResumeTheBridge,
		ActionUnspecified:     StatusUnspecified,
	}
	for action, status := range pairs {
		if got := action.InitialStatus(); got != status {
			t.Errorf("%v.InitialStatus() = %v, want %v", action, got, status)
		}
	}
}
