package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckRequiredConfig(t *testing.T) {
	t.Setenv(EnvTokenKey, "")
	assert.Equal(t, []string{EnvTokenKey}, CheckRequiredConfig())

	t.Setenv(EnvTokenKey, "secret")
	assert.Empty(t, CheckRequiredConfig())
}

func TestDBPathDefault(t *testing.T) {
	t.Setenv(EnvDBPath, "")
	assert.Equal(t, "tokens.db", DBPath())

	t.Setenv(EnvDBPath, "/tmp/custom.db")
	assert.Equal(t, "/tmp/custom.db", DBPath())
}
