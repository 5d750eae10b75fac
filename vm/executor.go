package vm

import (
	"encoding/binary"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"

	"github.com/dyadfuzz/dyadfuzz/chain"
	"github.com/dyadfuzz/dyadfuzz/chain/types"
)

// Executor provides the uniform execution surface over the registered virtual machine back-ends. It owns
// a ledger and an execution context, routes deployments and calls to the back-end matching the target
// code object's kind, and interposes the cheatcode layer on every call. The driver and cheatcode layer
// never branch on which machine is active; the kind tag is consumed here and at the deployment bridge
// boundary only.
type Executor struct {
	// ledger describes the simulated account ledger this executor operates on.
	ledger *chain.Ledger

	// context describes the ambient execution context applied to calls, including cheatcode overrides.
	context *chain.ExecutionContext

	// backends describes the registered virtual machine back-ends, keyed by the code kind they execute.
	backends map[types.VMKind]Backend

	// interposer describes the cheatcode interposition layer consulted on every call.
	interposer Interposer

	// logs accumulates the log records emitted during the current top-level call.
	logs []types.LogRecord

	// depth tracks the current call nesting depth. Zero indicates no call is executing.
	depth int

	// verdictErr retains the first verdict-affecting error (assertion failure, discarded input, unmet
	// expectation) raised during the current execution, for the driver to collect afterwards.
	verdictErr error
}

// NewExecutor creates an Executor over the provided ledger and execution context, with the provided
// cheatcode interposition layer attached.
func NewExecutor(ledger *chain.Ledger, context *chain.ExecutionContext, interposer Interposer) *Executor {
	return &Executor{
		ledger:     ledger,
		context:    context,
		backends:   make(map[types.VMKind]Backend),
		interposer: interposer,
	}
}

// RegisterBackend registers a virtual machine back-end with the executor.
// Returns an error if a back-end is already registered for the same kind.
func (e *Executor) RegisterBackend(backend Backend) error {
	if _, exists := e.backends[backend.Kind()]; exists {
		return errors.Errorf("a back-end is already registered for virtual machine kind '%s'", backend.Kind())
	}
	e.backends[backend.Kind()] = backend
	return nil
}

// Ledger exposes the ledger the executor operates on.
func (e *Executor) Ledger() *chain.Ledger {
	return e.ledger
}

// Context exposes the execution context the executor applies to calls.
func (e *Executor) Context() *chain.ExecutionContext {
	return e.context
}

// Snapshot captures the current ledger state, returning an identifier Rollback accepts.
func (e *Executor) Snapshot() int {
	return e.ledger.Snapshot()
}

// Rollback restores the ledger to a previously captured snapshot.
func (e *Executor) Rollback(snapshotID int) error {
	return e.ledger.Revert(snapshotID)
}

// ReadStorage reads a raw storage word from the given address and slot.
func (e *Executor) ReadStorage(addr types.Address, slot types.Word) types.Word {
	return e.ledger.GetState(addr, slot)
}

// WriteStorage writes a raw storage word to the given address and slot.
func (e *Executor) WriteStorage(addr types.Address, slot types.Word, value types.Word) {
	e.ledger.SetState(addr, slot, value)
}

// TakeVerdictError collects and clears the first verdict-affecting error raised during execution since
// the last collection. The fuzzing driver consults this after every test invocation, before classifying
// the call result itself, so assertion failures and discarded inputs raised deep inside nested calls are
// never masked by a contract swallowing a revert.
func (e *Executor) TakeVerdictError() error {
	err := e.verdictErr
	e.verdictErr = nil
	return err
}

// recordVerdictError retains the first verdict-affecting error of the current execution.
func (e *Executor) recordVerdictError(err error) {
	if e.verdictErr == nil {
		e.verdictErr = err
	}
}

// DeploymentAddress computes the deterministic address for a deployment performed by the given sender
// with the given account nonce and optional salt.
func DeploymentAddress(sender types.Address, nonce uint64, salt []byte) types.Address {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(sender.Bytes())
	var nonceBytes [8]byte
	binary.BigEndian.PutUint64(nonceBytes[:], nonce)
	hasher.Write(nonceBytes[:])
	hasher.Write(salt)
	return types.BytesToAddress(hasher.Sum(nil)[12:])
}

// Deploy deploys the provided code object onto the ledger through the back-end matching its kind. The
// sender is resolved through the execution context, so sender overrides apply to deployments exactly as
// they do to calls. A failed deployment is surfaced as a reverted call result, not an error; errors are
// reserved for executor misconfiguration.
// Returns the deployed address and the deployment call result, or an error.
func (e *Executor) Deploy(code *types.CodeObject, value *uint256.Int, salt []byte) (types.Address, *types.CallResult, error) {
	sender := e.context.ResolveSender(types.Address{})
	return e.deploy(code, value, salt, sender)
}

// deploy performs the deployment flow for a resolved sender.
func (e *Executor) deploy(code *types.CodeObject, value *uint256.Int, salt []byte, sender types.Address) (types.Address, *types.CallResult, error) {
	if code == nil {
		return types.Address{}, nil, errors.New("cannot deploy a nil code object")
	}
	backend, ok := e.backends[code.Kind]
	if !ok {
		return types.Address{}, nil, errors.Errorf("no back-end registered for virtual machine kind '%s'", code.Kind)
	}
	if value == nil {
		value = uint256.NewInt(0)
	}

	// Derive the deployment address and enforce address uniqueness for code-bearing accounts.
	nonce := e.ledger.IncrementNonce(sender)
	addr := DeploymentAddress(sender, nonce, salt)
	if e.ledger.GetCode(addr) != nil {
		return types.Address{}, nil, errors.Errorf("deployment address collision at %s", addr)
	}

	// Capture state so a failed deployment leaves no trace beyond the consumed nonce.
	snapshotID := e.ledger.Snapshot()
	if err := e.ledger.Transfer(sender, addr, value); err != nil {
		return addr, &types.CallResult{Reverted: true, RevertReason: err.Error()}, nil
	}

	frame := &callFrame{executor: e, self: addr, caller: sender, value: value}
	e.depth++
	runtime, err := backend.Deploy(frame, code, value)
	e.depth--
	if err != nil {
		// Deployment failures (including malformed cross-deployment payloads) surface as a normal
		// reverted outcome within the test.
		if revertErr := e.ledger.Revert(snapshotID); revertErr != nil {
			return addr, nil, revertErr
		}
		return addr, &types.CallResult{Reverted: true, RevertReason: err.Error()}, nil
	}

	e.ledger.SetCode(addr, runtime)
	return addr, &types.CallResult{}, nil
}

// Call executes a call to the given address and selector with the provided encoded input. The sender is
// resolved through the execution context unless the target is the cheatcode contract, which never
// consumes sender overrides. Results reflect any substitutions made by armed cheatcode expectations.
func (e *Executor) Call(to types.Address, selector types.Selector, input []byte, sender types.Address, value *uint256.Int) (*types.CallResult, error) {
	return e.call(to, selector, input, sender, value, e.depth > 0)
}

// call implements the shared call path for top-level and nested calls. Expectation checks from the
// interposition layer only apply to nested calls: expectations are armed inside an executing test body,
// so the frame that armed them is already on the stack and must not itself consume them.
func (e *Executor) call(to types.Address, selector types.Selector, input []byte, sender types.Address, value *uint256.Int, nested bool) (*types.CallResult, error) {
	if value == nil {
		value = uint256.NewInt(0)
	}
	if e.depth == 0 {
		e.logs = nil
	}

	// Cheatcode calls are intercepted before any back-end or sender override is involved.
	if to == e.interposer.ContractAddress() {
		if sender.IsZero() {
			sender = e.context.DefaultSender
		}
		msg := &types.CallMessage{From: sender, To: to, Value: value, Selector: selector, InputData: input}
		frame := &callFrame{executor: e, self: to, caller: sender, value: value}
		result, err := e.interposer.Intercept(frame, msg)
		if err != nil {
			e.recordVerdictError(err)
			return &types.CallResult{Reverted: true, RevertReason: err.Error()}, nil
		}
		return result, nil
	}

	from := e.context.ResolveSender(sender)
	msg := &types.CallMessage{From: from, To: to, Value: value, Selector: selector, InputData: input}

	result, err := e.execute(msg)
	if err != nil {
		return nil, err
	}

	if nested {
		result, err = e.interposer.AfterCall(msg, result)
		if err != nil {
			e.recordVerdictError(err)
			return &types.CallResult{Reverted: true, RevertReason: err.Error()}, nil
		}
	}
	return result, nil
}

// execute performs the ledger transfer and back-end dispatch of a resolved call message.
func (e *Executor) execute(msg *types.CallMessage) (*types.CallResult, error) {
	snapshotID := e.ledger.Snapshot()
	logMark := len(e.logs)

	if err := e.ledger.Transfer(msg.From, msg.To, msg.Value); err != nil {
		return &types.CallResult{Reverted: true, RevertReason: err.Error()}, nil
	}

	// Calls to non-code accounts are plain balance transfers.
	code := e.ledger.GetCode(msg.To)
	if code == nil {
		return &types.CallResult{}, nil
	}

	backend, ok := e.backends[code.Kind]
	if !ok {
		return nil, errors.Errorf("account %s bears code of kind '%s' but no back-end is registered for it", msg.To, code.Kind)
	}

	frame := &callFrame{executor: e, self: msg.To, caller: msg.From, value: msg.Value}
	e.depth++
	result, err := backend.Call(frame, code, msg)
	e.depth--
	if err != nil {
		// Execution faults are surfaced as reverts; verdict errors raised by cheatcodes deeper in the
		// call were already recorded when they were intercepted.
		result = &types.CallResult{Reverted: true, RevertReason: err.Error()}
	}

	if result.Reverted {
		if revertErr := e.ledger.Revert(snapshotID); revertErr != nil {
			return nil, revertErr
		}
		e.logs = e.logs[:logMark]
	} else {
		result.Logs = append([]types.LogRecord{}, e.logs[logMark:]...)
	}
	return result, nil
}
