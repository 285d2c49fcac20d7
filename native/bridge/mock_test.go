package bridge

import (
	"errors"
	"math/big"

	"bridgechain/core/events"
)

type mockBridgeState struct {
	proposalCount uint32
	proposals     map[ProposalID]*Proposal
	idByHash      map[[32]byte]ProposalID
	hashByID      map[ProposalID][32]byte
	transfers     map[[32]byte]*TransferMessage
	validatorMsgs map[[32]byte]*ValidatorMessage
	bridgeMsgs    map[[32]byte]*BridgeMessage
	validators    map[[20]byte]bool
	count         uint32
	operational   bool
	nonces        map[[20]byte]uint64
	generations   map[[20]byte]uint64
	gateGen       uint64
}

func newMockBridgeState() *mockBridgeState {
	return &mockBridgeState{
		proposals:     make(map[ProposalID]*Proposal),
		idByHash:      make(map[[32]byte]ProposalID),
		hashByID:      make(map[ProposalID][32]byte),
		transfers:     make(map[[32]byte]*TransferMessage),
		validatorMsgs: make(map[[32]byte]*ValidatorMessage),
		bridgeMsgs:    make(map[[32]byte]*BridgeMessage),
		validators:    make(map[[20]byte]bool),
		nonces:        make(map[[20]byte]uint64),
		generations:   make(map[[20]byte]uint64),
	}
}

func (m *mockBridgeState) BridgeProposalCount() (uint32, error) { return m.proposalCount, nil }

func (m *mockBridgeState) BridgeSetProposalCount(count uint32) error {
	m.proposalCount = count
	return nil
}

func (m *mockBridgeState) BridgeGetProposal(id ProposalID) (*Proposal, bool, error) {
	p, ok := m.proposals[id]
	if !ok {
		return nil, false, nil
	}
	return p.Clone(), true, nil
}

func (m *mockBridgeState) BridgePutProposal(p *Proposal) error {
	if p == nil {
		return errors.New("nil proposal")
	}
	m.proposals[p.ID] = p.Clone()
	return nil
}

func (m *mockBridgeState) BridgeProposalIDByHash(hash [32]byte) (ProposalID, bool, error) {
	id, ok := m.idByHash[hash]
	return id, ok, nil
}

func (m *mockBridgeState) BridgeMessageHashByProposalID(id ProposalID) ([32]byte, bool, error) {
	hash, ok := m.hashByID[id]
	return hash, ok, nil
}

func (m *mockBridgeState) BridgeIndexProposal(hash [32]byte, id ProposalID) error {
	m.idByHash[hash] = id
	m.hashByID[id] = hash
	return nil
}

func (m *mockBridgeState) BridgeGetTransferMessage(hash [32]byte) (*TransferMessage, bool, error) {
	msg, ok := m.transfers[hash]
	if !ok {
		return nil, false, nil
	}
	return msg.Clone(), true, nil
}

func (m *mockBridgeState) BridgePutTransferMessage(msg *TransferMessage) error {
	m.transfers[msg.MessageID] = msg.Clone()
	return nil
}

func (m *mockBridgeState) BridgeGetValidatorMessage(hash [32]byte) (*ValidatorMessage, bool, error) {
	msg, ok := m.validatorMsgs[hash]
	if !ok {
		return nil, false, nil
	}
	clone := *msg
	return &clone, true, nil
}

func (m *mockBridgeState) BridgePutValidatorMessage(msg *ValidatorMessage) error {
	clone := *msg
	m.validatorMsgs[msg.MessageID] = &clone
	return nil
}

func (m *mockBridgeState) BridgeDeleteValidatorMessage(hash [32]byte) error {
	delete(m.validatorMsgs, hash)
	return nil
}

func (m *mockBridgeState) BridgeGetBridgeMessage(hash [32]byte) (*BridgeMessage, bool, error) {
	msg, ok := m.bridgeMsgs[hash]
	if !ok {
		return nil, false, nil
	}
	clone := *msg
	return &clone, true, nil
}

func (m *mockBridgeState) BridgePutBridgeMessage(msg *BridgeMessage) error {
	clone := *msg
	m.bridgeMsgs[msg.MessageID] = &clone
	return nil
}

func (m *mockBridgeState) BridgeIsValidator(account [20]byte) (bool, error) {
	return m.validators[account], nil
}

func (m *mockBridgeState) BridgeSetValidator(account [20]byte, trusted bool) error {
	if trusted {
		m.validators[account] = true
	} else {
		delete(m.validators, account)
	}
	return nil
}

func (m *mockBridgeState) BridgeSeedValidators(accounts [][20]byte) error {
	for _, account := range accounts {
		m.validators[account] = true
	}
	return nil
}

func (m *mockBridgeState) BridgeValidatorCount() (uint32, error) { return m.count, nil }

func (m *mockBridgeState) BridgeSetValidatorCount(count uint32) error {
	m.count = count
	return nil
}

func (m *mockBridgeState) BridgeIsOperational() (bool, error) { return m.operational, nil }

func (m *mockBridgeState) BridgeSetOperational(operational bool) error {
	m.operational = operational
	return nil
}

func (m *mockBridgeState) BridgeWithdrawalNonce(account [20]byte) (uint64, error) {
	return m.nonces[account], nil
}

func (m *mockBridgeState) BridgeSetWithdrawalNonce(account [20]byte, nonce uint64) error {
	m.nonces[account] = nonce
	return nil
}

func (m *mockBridgeState) BridgeMembershipGeneration(account [20]byte) (uint64, error) {
	return m.generations[account], nil
}

func (m *mockBridgeState) BridgeSetMembershipGeneration(account [20]byte, generation uint64) error {
	m.generations[account] = generation
	return nil
}

func (m *mockBridgeState) BridgeGateGeneration() (uint64, error) { return m.gateGen, nil }

func (m *mockBridgeState) BridgeSetGateGeneration(generation uint64) error {
	m.gateGen = generation
	return nil
}

var (
	errMockInsufficientFunds  = errors.New("mock: insufficient funds")
	errMockInsufficientLocked = errors.New("mock: insufficient locked")
)

type mockLedger struct {
	balances map[[20]byte]*big.Int
	locked   map[[20]byte]*big.Int
	supply   *big.Int
}

func newMockLedger() *mockLedger {
	return &mockLedger{
		balances: make(map[[20]byte]*big.Int),
		locked:   make(map[[20]byte]*big.Int),
		supply:   big.NewInt(0),
	}
}

func (l *mockLedger) get(m map[[20]byte]*big.Int, account [20]byte) *big.Int {
	if v, ok := m[account]; ok {
		return new(big.Int).Set(v)
	}
	return big.NewInt(0)
}

func (l *mockLedger) balance(account [20]byte) *big.Int { return l.get(l.balances, account) }

func (l *mockLedger) lockedOf(account [20]byte) *big.Int { return l.get(l.locked, account) }

func (l *mockLedger) Lock(account [20]byte, amount *big.Int) error {
	available := new(big.Int).Sub(l.balance(account), l.lockedOf(account))
	if available.Cmp(amount) < 0 {
		return errMockInsufficientFunds
	}
	l.locked[account] = new(big.Int).Add(l.lockedOf(account), amount)
	return nil
}

func (l *mockLedger) Unlock(account [20]byte, amount *big.Int) error {
	locked := l.lockedOf(account)
	if locked.Cmp(amount) < 0 {
		return errMockInsufficientLocked
	}
	l.locked[account] = locked.Sub(locked, amount)
	return nil
}

func (l *mockLedger) Mint(account [20]byte, amount *big.Int) error {
	l.balances[account] = new(big.Int).Add(l.balance(account), amount)
	l.supply = new(big.Int).Add(l.supply, amount)
	return nil
}

func (l *mockLedger) Burn(account [20]byte, amount *big.Int) error {
	balance := l.balance(account)
	if balance.Cmp(amount) < 0 {
		return errMockInsufficientFunds
	}
	l.balances[account] = balance.Sub(balance, amount)
	l.supply = new(big.Int).Sub(l.supply, amount)
	return nil
}

type captureEmitter struct {
	events []events.Event
}

func (c *captureEmitter) Emit(evt events.Event) {
	c.events = append(c.events, evt)
}

func (c *captureEmitter) ofType(eventType string) []events.Event {
	var out []events.Event
	for _, evt := range c.events {
		if evt.EventType() == eventType {
			out = append(out, evt)
		}
	}
	return out
}

func testAccount(b byte) [20]byte {
	var a [20]byte
	a[19] = b
	return a
}

type harness struct {
	engine  *Engine
	state   *mockBridgeState
	ledger  *mockLedger
	emitter *captureEmitter
}

// newHarness seeds n validators (accounts 1..n) with the gate open.
func newHarness(n int) *harness {
	state := newMockBridgeState()
	ledger := newMockLedger()
	emitter := &captureEmitter{}
	engine := NewEngine()
	engine.SetState(state)
	engine.SetLedger(ledger)
	engine.SetEmitter(emitter)
	validators := make([][20]byte, 0, n)
	for i := 1; i <= n; i++ {
		validators = append(validators, testAccount(byte(i)))
	}
	if err := engine.SeedValidators(validators, true); err != nil {
		panic(err)
	}
	return &harness{engine: engine, state: state, ledger: ledger, emitter: emitter}
}
