// Package compilation drives the external compiler collaborator which turns contract sources into
// artifact files the fuzzer consumes.
package compilation

import (
	"os/exec"
	"path/filepath"

	"github.com/pkg/errors"

	compilationTypes "github.com/dyadfuzz/dyadfuzz/compilation/types"
)

// Config describes how to invoke the external compiler for a project.
type Config struct {
	// Command describes the compiler command line to run, as program followed by arguments. The
	// command is expected to produce the artifact file at ArtifactPath.
	Command []string `json:"command"`

	// ArtifactPath describes the path, relative to the working directory, of the artifact file the
	// compiler produces.
	ArtifactPath string `json:"artifactPath"`
}

// Validate verifies the compilation configuration is usable.
func (c *Config) Validate() error {
	if len(c.Command) == 0 {
		return errors.New("compilation config must provide a compiler command")
	}
	if c.ArtifactPath == "" {
		return errors.New("compilation config must provide an artifact path")
	}
	return nil
}

// Compile runs the external compiler in the given working directory and reads the artifact it produced.
// Returns the artifact and the compiler's combined output, or an error.
func (c *Config) Compile(workingDirectory string) (*compilationTypes.Artifact, string, error) {
	if err := c.Validate(); err != nil {
		return nil, "", err
	}

	cmd := exec.Command(c.Command[0], c.Command[1:]...)
	cmd.Dir = workingDirectory
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, string(output), errors.Wrapf(err, "compiler command '%s' failed", c.Command[0])
	}

	artifactPath := filepath.Join(workingDirectory, c.ArtifactPath)
	artifact, err := compilationTypes.ReadArtifactFile(artifactPath)
	if err != nil {
		return nil, string(output), err
	}
	return artifact, string(output), nil
}
