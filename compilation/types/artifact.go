// Package types defines the compiled artifact model the fuzzer consumes. Compilation itself is an
// external concern; the fuzzer only reads artifact files the compiler produced.
package types

import (
	"os"
	"strconv"

	"github.com/Masterminds/semver"
	"github.com/fxamacker/cbor"
	"github.com/pkg/errors"

	chainTypes "github.com/dyadfuzz/dyadfuzz/chain/types"
	"github.com/dyadfuzz/dyadfuzz/cheats"
)

// ArtifactFormatVersion describes the artifact format version this build of the fuzzer writes.
const ArtifactFormatVersion = "1.0.0"

// artifactFormatConstraint describes the artifact format versions this build of the fuzzer accepts.
const artifactFormatConstraint = "~1"

// ParamKind identifies the category of an entry point parameter type.
type ParamKind string

const (
	// ParamUint describes a fixed-width unsigned integer parameter.
	ParamUint ParamKind = "uint"

	// ParamInt describes a fixed-width signed integer parameter.
	ParamInt ParamKind = "int"

	// ParamBool describes a boolean parameter.
	ParamBool ParamKind = "bool"

	// ParamAddress describes an account address parameter.
	ParamAddress ParamKind = "address"

	// ParamBytes describes a dynamic-length byte sequence parameter.
	ParamBytes ParamKind = "bytes"

	// ParamFixedBytes describes a fixed-length byte sequence parameter.
	ParamFixedBytes ParamKind = "fixedBytes"

	// ParamString describes a text string parameter.
	ParamString ParamKind = "string"
)

// ParamType describes the declared type of one entry point parameter slot.
type ParamType struct {
	// Kind describes the parameter type category.
	Kind ParamKind `cbor:"kind"`

	// Bits describes the bit width for integer kinds.
	Bits int `cbor:"bits,omitempty"`

	// Size describes the byte length for the fixed-length byte kind.
	Size int `cbor:"size,omitempty"`
}

// String returns the canonical type name used in signatures and witness reporting.
func (t ParamType) String() string {
	switch t.Kind {
	case ParamUint:
		return "uint" + strconv.Itoa(t.Bits)
	case ParamInt:
		return "int" + strconv.Itoa(t.Bits)
	case ParamFixedBytes:
		return "bytes" + strconv.Itoa(t.Size)
	default:
		return string(t.Kind)
	}
}

// EntryPoint describes one callable entry point declared by a compiled contract.
type EntryPoint struct {
	// Name describes the entry point's declared name.
	Name string `cbor:"name"`

	// Inputs describes the ordered parameter slots the entry point declares.
	Inputs []ParamType `cbor:"inputs,omitempty"`

	// Outputs describes the number of values the entry point returns. Test entry points must
	// declare zero outputs.
	Outputs int `cbor:"outputs,omitempty"`
}

// Selector derives the entry point's four-byte call selector from its name.
func (e *EntryPoint) Selector() chainTypes.Selector {
	return cheats.ComputeSelector(e.Name)
}

// ContractArtifact describes one compiled contract within an artifact.
type ContractArtifact struct {
	// Name describes the contract's declared name.
	Name string `cbor:"name"`

	// Kind describes the virtual machine the contract's code object targets.
	Kind chainTypes.VMKind `cbor:"kind"`

	// Code contains the raw deployable code bytes.
	Code []byte `cbor:"code"`

	// EntryPoints describes the contract's callable entry points, in declaration order.
	EntryPoints []EntryPoint `cbor:"entryPoints,omitempty"`
}

// CodeObject returns the contract's code as a deployable code object.
func (c *ContractArtifact) CodeObject() *chainTypes.CodeObject {
	return &chainTypes.CodeObject{Kind: c.Kind, Data: c.Code}
}

// Artifact describes the contents of one compiled artifact file.
type Artifact struct {
	// FormatVersion describes the artifact format version the file was written with.
	FormatVersion string `cbor:"formatVersion"`

	// Contracts describes every compiled contract in the artifact.
	Contracts []ContractArtifact `cbor:"contracts"`
}

// Validate verifies the artifact's format version is one this build accepts and that every contract is
// structurally sound.
func (a *Artifact) Validate() error {
	version, err := semver.NewVersion(a.FormatVersion)
	if err != nil {
		return errors.Wrapf(err, "artifact carries an invalid format version '%s'", a.FormatVersion)
	}
	constraint, err := semver.NewConstraint(artifactFormatConstraint)
	if err != nil {
		return errors.WithStack(err)
	}
	if !constraint.Check(version) {
		return errors.Errorf("artifact format version '%s' is not supported by this build (requires '%s')", a.FormatVersion, artifactFormatConstraint)
	}
	for i := range a.Contracts {
		if err = a.Contracts[i].CodeObject().Validate(); err != nil {
			return errors.Wrapf(err, "contract '%s' is invalid", a.Contracts[i].Name)
		}
	}
	return nil
}

// ReadArtifactFile reads and validates an artifact file from the given path.
func ReadArtifactFile(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read artifact file '%s'", path)
	}
	var artifact Artifact
	if err = cbor.Unmarshal(data, &artifact); err != nil {
		return nil, errors.Wrapf(err, "could not decode artifact file '%s'", path)
	}
	if err = artifact.Validate(); err != nil {
		return nil, err
	}
	return &artifact, nil
}

// WriteToFile encodes the artifact and writes it to the given path.
func (a *Artifact) WriteToFile(path string) error {
	data, err := cbor.Marshal(a, cbor.EncOptions{})
	if err != nil {
		return errors.Wrap(err, "could not encode artifact")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "could not write artifact file '%s'", path)
}
