package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDefaultProjectConfigIsValid verifies the shipped defaults pass validation.
func TestDefaultProjectConfigIsValid(t *testing.T) {
	assert.NoError(t, GetDefaultProjectConfig().Validate())
}

// TestValidateRejections verifies each required setting is enforced.
func TestValidateRejections(t *testing.T) {
	base := GetDefaultProjectConfig()

	cfg := *base
	cfg.Fuzzing.MaxExamples = 0
	assert.Error(t, cfg.Validate())

	cfg = *base
	cfg.Fuzzing.DiscardRetryMultiplier = 0
	assert.Error(t, cfg.Validate())

	cfg = *base
	cfg.Fuzzing.TestPrefixes = nil
	assert.Error(t, cfg.Validate())

	cfg = *base
	cfg.Fuzzing.DeployerAddress = ""
	assert.Error(t, cfg.Validate())

	cfg = *base
	cfg.Fuzzing.SenderAddresses = nil
	assert.Error(t, cfg.Validate())
}

// TestConfigFileRoundTrip verifies a written config reads back with file values overlaid on defaults.
func TestConfigFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dyadfuzz.json")

	original := GetDefaultProjectConfig()
	original.Fuzzing.MaxExamples = 250
	original.Fuzzing.TestPrefixes = []string{"prop_"}
	assert.NoError(t, original.WriteToFile(path))

	read, err := ReadProjectConfigFromFile(path)
	assert.NoError(t, err)
	assert.Equal(t, 250, read.Fuzzing.MaxExamples)
	assert.Equal(t, []string{"prop_"}, read.Fuzzing.TestPrefixes)

	// Settings absent from the file keep their defaults.
	assert.Equal(t, original.Fuzzing.DeployerAddress, read.Fuzzing.DeployerAddress)
}

// TestReadProjectConfigMissingFile verifies a missing config file surfaces as an error.
func TestReadProjectConfigMissingFile(t *testing.T) {
	_, err := ReadProjectConfigFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
