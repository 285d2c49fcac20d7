package bridge

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

const (
	labelAdd    = "add"
	labelRemove = "remove"
	labelPause  = "pause"
	labelResume = "resume"
)

func hashTuple(values ...interface{}) ([32]byte, error) {
	encoded, err := rlp.EncodeToBytes(values)
	if err != nil {
		return [32]byte{}, err
	}
	var out [32]byte
	copy(out[:], ethcrypto.Keccak256(encoded))
	return out, nil
}

// WithdrawalHash derives the message id of a withdrawal. The nonce is the
// submitting account's withdrawal counter so identical requests stay distinct.
func WithdrawalHash(from [20]byte, to common.Address, amount *big.Int, nonce uint64) ([32]byte, error) {
	if amount == nil {
		amount = big.NewInt(0)
	}
	return hashTuple(from, to, amount, nonce)
}

// ValidatorChangeHash derives the message id of an add or remove request for
// account at the given membership generation.
func ValidatorChangeHash(action Action, account [20]byte, generation uint64) ([32]byte, error) {
	label := labelAdd
	if action == ActionRemoveValidator {
		label = labelRemove
	}
	return hashTuple(label, account, generation)
}

// GateChangeHash derives the message id of a pause or resume request at the
// given gate generation.
func GateChangeHash(action Action, generation uint64) ([32]byte, error) {
	label := labelPause
	if action == ActionResumeTheBridge {
		label = labelResume
	}
	return hashTuple(label, generation)
}
