package chain

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/dyadfuzz/dyadfuzz/chain/types"
)

// Account represents the ledger state of a single address: its balance, nonce and, for code-bearing
// accounts, its installed code object and storage mapping.
type Account struct {
	// Balance describes the native token balance held by the account.
	Balance *uint256.Int

	// Nonce describes the number of deployments/state-changing operations attributed to the account.
	Nonce uint64

	// Code describes the runtime code object installed at this account, or nil for non-code accounts.
	Code *types.CodeObject

	// Storage describes the account's storage mapping. Reads and writes are only meaningful for
	// code-bearing accounts, but the ledger permits raw access for cheatcode use.
	Storage map[types.Word]types.Word
}

// newAccount creates a fresh account with a zero balance and empty storage.
func newAccount() *Account {
	return &Account{
		Balance: uint256.NewInt(0),
		Storage: make(map[types.Word]types.Word),
	}
}

// copyAccount produces a deep copy of an account, used when capturing ledger snapshots.
func copyAccount(a *Account) *Account {
	storage := make(map[types.Word]types.Word, len(a.Storage))
	for k, v := range a.Storage {
		storage[k] = v
	}
	cp := &Account{
		Balance: new(uint256.Int).Set(a.Balance),
		Nonce:   a.Nonce,
		Storage: storage,
	}
	if a.Code != nil {
		cp.Code = a.Code.Copy()
	}
	return cp
}

// Ledger represents the simulated account ledger shared by both virtual machine back-ends. It is owned
// exclusively by one test case's execution at a time and must not be accessed concurrently.
type Ledger struct {
	// accounts describes the mapping of addresses to account state.
	accounts map[types.Address]*Account

	// snapshots describes the stack of captured ledger states which Revert can restore.
	snapshots []map[types.Address]*Account
}

// NewLedger creates a new, empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		accounts: make(map[types.Address]*Account),
	}
}

// account obtains the account for the given address, creating an empty one if it does not yet exist.
func (l *Ledger) account(addr types.Address) *Account {
	acct, ok := l.accounts[addr]
	if !ok {
		acct = newAccount()
		l.accounts[addr] = acct
	}
	return acct
}

// AccountExists indicates whether the ledger holds state for the given address.
func (l *Ledger) AccountExists(addr types.Address) bool {
	_, ok := l.accounts[addr]
	return ok
}

// GetBalance obtains the balance of the given address. Unknown addresses have a zero balance.
func (l *Ledger) GetBalance(addr types.Address) *uint256.Int {
	if acct, ok := l.accounts[addr]; ok {
		return new(uint256.Int).Set(acct.Balance)
	}
	return uint256.NewInt(0)
}

// SetBalance sets the balance of the given address to the exact amount provided.
func (l *Ledger) SetBalance(addr types.Address, amount *uint256.Int) {
	l.account(addr).Balance = new(uint256.Int).Set(amount)
}

// Transfer moves balance from one account to another.
// Returns an error if the sender's balance is insufficient.
func (l *Ledger) Transfer(from types.Address, to types.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	sender := l.account(from)
	if sender.Balance.Lt(amount) {
		return errors.Errorf("insufficient balance: %s holds %s, tried to send %s", from, sender.Balance, amount)
	}
	sender.Balance = new(uint256.Int).Sub(sender.Balance, amount)
	receiver := l.account(to)
	receiver.Balance = new(uint256.Int).Add(receiver.Balance, amount)
	return nil
}

// GetNonce obtains the nonce of the given address. Unknown addresses have a zero nonce.
func (l *Ledger) GetNonce(addr types.Address) uint64 {
	if acct, ok := l.accounts[addr]; ok {
		return acct.Nonce
	}
	return 0
}

// SetNonce sets the nonce of the given address.
func (l *Ledger) SetNonce(addr types.Address, nonce uint64) {
	l.account(addr).Nonce = nonce
}

// IncrementNonce increments the nonce of the given address, returning the value prior to incrementing.
func (l *Ledger) IncrementNonce(addr types.Address) uint64 {
	acct := l.account(addr)
	nonce := acct.Nonce
	acct.Nonce++
	return nonce
}

// GetCode obtains the code object installed at the given address, or nil if the account bears no code.
func (l *Ledger) GetCode(addr types.Address) *types.CodeObject {
	if acct, ok := l.accounts[addr]; ok {
		return acct.Code
	}
	return nil
}

// SetCode installs a code object at the given address, replacing any previously installed code.
func (l *Ledger) SetCode(addr types.Address, code *types.CodeObject) {
	l.account(addr).Code = code
}

// GetState obtains a raw storage word from the given address and slot. Addresses with no code, or slots
// never written, read as the zero word.
func (l *Ledger) GetState(addr types.Address, slot types.Word) types.Word {
	if acct, ok := l.accounts[addr]; ok {
		return acct.Storage[slot]
	}
	return types.Word{}
}

// SetState writes a raw storage word to the given address and slot. The account is created if it does
// not yet exist, so cheatcodes may seed storage ahead of deployment.
func (l *Ledger) SetState(addr types.Address, slot types.Word, value types.Word) {
	l.account(addr).Storage[slot] = value
}

// Snapshot captures the current ledger state and returns an identifier which can later be passed to
// Revert to restore it.
func (l *Ledger) Snapshot() int {
	snapshot := make(map[types.Address]*Account, len(l.accounts))
	for addr, acct := range l.accounts {
		snapshot[addr] = copyAccount(acct)
	}
	l.snapshots = append(l.snapshots, snapshot)
	return len(l.snapshots) - 1
}

// Revert restores the ledger to a previously captured snapshot. Snapshots taken after the restored one
// are discarded. The restored snapshot remains available for repeated reverts, which the fuzz loop relies
// on to reset state between iterations.
// Returns an error if the snapshot identifier is unknown.
func (l *Ledger) Revert(snapshotID int) error {
	if snapshotID < 0 || snapshotID >= len(l.snapshots) {
		return errors.Errorf("cannot revert to unknown ledger snapshot %d", snapshotID)
	}
	snapshot := l.snapshots[snapshotID]
	l.snapshots = l.snapshots[:snapshotID+1]

	// Restore a deep copy so the retained snapshot stays untouched by later mutation.
	restored := make(map[types.Address]*Account, len(snapshot))
	for addr, acct := range snapshot {
		restored[addr] = copyAccount(acct)
	}
	l.accounts = restored
	return nil
}
