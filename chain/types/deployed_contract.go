package types

// DeployedContract describes a contract which has been deployed onto the simulated ledger. Its Kind tag
// reflects the virtual machine which will execute calls to it, which may differ from the code object's
// native kind when the contract was cross-deployed through the deployment bridge.
type DeployedContract struct {
	// Address describes the ledger address the contract was deployed at.
	Address Address

	// Kind describes the virtual machine which executes calls targeting this contract.
	Kind VMKind

	// Code describes the runtime code object installed at the address.
	Code *CodeObject
}
