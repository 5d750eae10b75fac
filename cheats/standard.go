package cheats

import (
	"github.com/pkg/errors"

	"github.com/dyadfuzz/dyadfuzz/chain/types"
	"github.com/dyadfuzz/dyadfuzz/utils"
	"github.com/dyadfuzz/dyadfuzz/vm"
)

// registerStandardMethods registers the standard cheatcode catalog on the contract. Every method's
// semantics are identical regardless of which virtual machine issued the call: handlers only touch the
// ledger, the execution context and the filesystem collaborator.
func registerStandardMethods(c *Contract) {
	// assume: Discards the current fuzz input when the condition is false.
	c.addMethod("assume", []string{"bool"}, func(c *Contract, host vm.Host, args []any) ([]any, error) {
		condition, err := argBool(args, 0)
		if err != nil {
			return nil, err
		}
		if !condition {
			return nil, &DiscardedError{Reason: "assume: condition was false"}
		}
		return nil, nil
	})

	// deal: Sets an account balance to the exact amount provided.
	c.addMethod("deal", []string{"address", "uint256"}, func(c *Contract, host vm.Host, args []any) ([]any, error) {
		account, err := argAddress(args, 0)
		if err != nil {
			return nil, err
		}
		amount, err := argUint256(args, 1)
		if err != nil {
			return nil, err
		}
		c.ledger.SetBalance(account, amount)
		return nil, nil
	})

	// prank: Overrides the sender for exactly the next call. Arming a second override before the
	// first is consumed is a usage error.
	c.addMethod("prank", []string{"address"}, func(c *Contract, host vm.Host, args []any) ([]any, error) {
		sender, err := argAddress(args, 0)
		if err != nil {
			return nil, err
		}
		if err = c.context.ArmNextSender(sender); err != nil {
			return nil, &UsageError{Message: err.Error()}
		}
		return nil, nil
	})

	// startPrank: Overrides the sender for every call until stopPrank.
	c.addMethod("startPrank", []string{"address"}, func(c *Contract, host vm.Host, args []any) ([]any, error) {
		sender, err := argAddress(args, 0)
		if err != nil {
			return nil, err
		}
		c.context.StartSenderOverride(sender)
		return nil, nil
	})

	// stopPrank: Stops a sticky sender override. A no-op when none is active.
	c.addMethod("stopPrank", []string{}, func(c *Contract, host vm.Host, args []any) ([]any, error) {
		c.context.StopSenderOverride()
		return nil, nil
	})

	// warp: Overrides the block timestamp.
	c.addMethod("warp", []string{"uint64"}, func(c *Contract, host vm.Host, args []any) ([]any, error) {
		timestamp, err := argUint64(args, 0)
		if err != nil {
			return nil, err
		}
		c.context.Warp(timestamp)
		return nil, nil
	})

	// roll: Overrides the block number.
	c.addMethod("roll", []string{"uint64"}, func(c *Contract, host vm.Host, args []any) ([]any, error) {
		number, err := argUint64(args, 0)
		if err != nil {
			return nil, err
		}
		c.context.Roll(number)
		return nil, nil
	})

	// fee: Overrides the block base fee.
	c.addMethod("fee", []string{"uint256"}, func(c *Contract, host vm.Host, args []any) ([]any, error) {
		baseFee, err := argUint256(args, 0)
		if err != nil {
			return nil, err
		}
		c.context.SetBaseFee(baseFee)
		return nil, nil
	})

	// load: Reads a raw storage word. Addresses with no code read as the zero word.
	c.addMethod("load", []string{"address", "bytes32"}, func(c *Contract, host vm.Host, args []any) ([]any, error) {
		account, err := argAddress(args, 0)
		if err != nil {
			return nil, err
		}
		slot, err := argWord(args, 1)
		if err != nil {
			return nil, err
		}
		return []any{c.ledger.GetState(account, slot)}, nil
	})

	// store: Writes a raw storage word.
	c.addMethod("store", []string{"address", "bytes32", "bytes32"}, func(c *Contract, host vm.Host, args []any) ([]any, error) {
		account, err := argAddress(args, 0)
		if err != nil {
			return nil, err
		}
		slot, err := argWord(args, 1)
		if err != nil {
			return nil, err
		}
		value, err := argWord(args, 2)
		if err != nil {
			return nil, err
		}
		c.ledger.SetState(account, slot, value)
		return nil, nil
	})

	// etch: Replaces an account's code object. WASM modules are recognized by their magic so the
	// installed code routes to the right back-end.
	c.addMethod("etch", []string{"address", "bytes"}, func(c *Contract, host vm.Host, args []any) ([]any, error) {
		account, err := argAddress(args, 0)
		if err != nil {
			return nil, err
		}
		code, err := argBytes(args, 1)
		if err != nil {
			return nil, err
		}
		kind := types.VMKindBytecode
		if utils.HasWasmMagic(code) {
			kind = types.VMKindWasm
		}
		c.ledger.SetCode(account, &types.CodeObject{Kind: kind, Data: append([]byte{}, code...)})
		return nil, nil
	})

	// readFile: Reads a project-root-relative file as text through the filesystem collaborator.
	c.addMethod("readFile", []string{"string"}, func(c *Contract, host vm.Host, args []any) ([]any, error) {
		path, err := argString(args, 0)
		if err != nil {
			return nil, err
		}
		contents, err := c.files.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return []any{string(contents)}, nil
	})

	// readFileBinary: Reads a project-root-relative file as raw bytes.
	c.addMethod("readFileBinary", []string{"string"}, func(c *Contract, host vm.Host, args []any) ([]any, error) {
		path, err := argString(args, 0)
		if err != nil {
			return nil, err
		}
		contents, err := c.files.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return []any{contents}, nil
	})

	// expectRevert: Arms a one-shot expectation that the next call must fail.
	c.addMethod("expectRevert", []string{}, func(c *Contract, host vm.Host, args []any) ([]any, error) {
		c.expectRevert = true
		return nil, nil
	})

	// expectEmit: Arms a one-shot expectation that the next call emits at least one log record.
	c.addMethod("expectEmit", []string{}, func(c *Contract, host vm.Host, args []any) ([]any, error) {
		c.expectEmit = &emitExpectation{}
		return nil, nil
	})

	// expectEmit(address): As expectEmit, restricted to records emitted by the given address.
	c.addMethod("expectEmit", []string{"address"}, func(c *Contract, host vm.Host, args []any) ([]any, error) {
		emitter, err := argAddress(args, 0)
		if err != nil {
			return nil, err
		}
		c.expectEmit = &emitExpectation{emitter: &emitter}
		return nil, nil
	})

	// expectEmit(bytes32[]): As expectEmit, requiring a matching record to carry exactly the given
	// topic words.
	c.addMethod("expectEmit", []string{"bytes32[]"}, func(c *Contract, host vm.Host, args []any) ([]any, error) {
		topics, err := argWordList(args, 0)
		if err != nil {
			return nil, err
		}
		c.expectEmit = &emitExpectation{topics: topics}
		return nil, nil
	})

	// expectEmit(bytes32[],bytes): As expectEmit(bytes32[]), additionally requiring a matching
	// record to carry exactly the given data payload.
	c.addMethod("expectEmit", []string{"bytes32[]", "bytes"}, func(c *Contract, host vm.Host, args []any) ([]any, error) {
		topics, err := argWordList(args, 0)
		if err != nil {
			return nil, err
		}
		data, err := argBytes(args, 1)
		if err != nil {
			return nil, err
		}
		c.expectEmit = &emitExpectation{topics: topics, data: data, matchData: true}
		return nil, nil
	})

	// sign: Produces a deterministic recoverable signature over a 32-byte digest.
	c.addMethod("sign", []string{"uint256", "bytes32"}, func(c *Contract, host vm.Host, args []any) ([]any, error) {
		keyValue, err := argUint256(args, 0)
		if err != nil {
			return nil, err
		}
		digest, err := argWord(args, 1)
		if err != nil {
			return nil, err
		}
		privateKey, err := utils.GetPrivateKey(keyValue.Bytes())
		if err != nil {
			return nil, errors.Wrap(err, "sign")
		}
		v, r, s := utils.SignDigest(privateKey, digest)
		return []any{v, r, s}, nil
	})

	// addr: Derives the address corresponding to a private key.
	c.addMethod("addr", []string{"uint256"}, func(c *Contract, host vm.Host, args []any) ([]any, error) {
		keyValue, err := argUint256(args, 0)
		if err != nil {
			return nil, err
		}
		privateKey, err := utils.GetPrivateKey(keyValue.Bytes())
		if err != nil {
			return nil, errors.Wrap(err, "addr")
		}
		return []any{utils.PublicKeyToAddress(privateKey.PubKey())}, nil
	})

	// getNonce: Reads an account nonce.
	c.addMethod("getNonce", []string{"address"}, func(c *Contract, host vm.Host, args []any) ([]any, error) {
		account, err := argAddress(args, 0)
		if err != nil {
			return nil, err
		}
		return []any{c.ledger.GetNonce(account)}, nil
	})

	// setNonce: Sets an account nonce.
	c.addMethod("setNonce", []string{"address", "uint64"}, func(c *Contract, host vm.Host, args []any) ([]any, error) {
		account, err := argAddress(args, 0)
		if err != nil {
			return nil, err
		}
		nonce, err := argUint64(args, 1)
		if err != nil {
			return nil, err
		}
		c.ledger.SetNonce(account, nonce)
		return nil, nil
	})

	// assertTrue: Fails the current test iteration immediately when the condition is false.
	c.addMethod("assertTrue", []string{"bool"}, func(c *Contract, host vm.Host, args []any) ([]any, error) {
		condition, err := argBool(args, 0)
		if err != nil {
			return nil, err
		}
		if !condition {
			return nil, &AssertionFailedError{Message: "assertTrue: condition was false"}
		}
		return nil, nil
	})
}
