package environment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	assert.Equal(t, QA, Parse("qa"))
	assert.Equal(t, Stage, Parse(" Stage "))
	assert.Equal(t, Stage, Parse("stg"))
	assert.Equal(t, Prod, Parse("PROD"))
	assert.Equal(t, Prod, Parse(""))
	assert.Equal(t, Prod, Parse("dev"))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("qa"))
	assert.True(t, Valid("PROD"))
	assert.False(t, Valid(""))
	assert.False(t, Valid("dev"))
}

func TestBindings_Resolve(t *testing.T) {
	b := DefaultBindings()

	assert.Equal(t, "my.qa.charitableimpact.com", b.Resolve("QA"))
	assert.Equal(t, "my.stg.charitableimpact.com", b.Resolve("STAGE"))
	assert.Equal(t, "my.charitableimpact.com", b.Resolve("PROD"))
	assert.Equal(t, "my.charitableimpact.com", b.Resolve(""))
	assert.Equal(t, b.Default(), b.Resolve("unknown"))
}

func TestBindings_ValidateDomain(t *testing.T) {
	b := NewBindings("qa.example", "stg.example", "example")

	assert.NoError(t, b.ValidateDomain("qa.example"))
	assert.NoError(t, b.ValidateDomain(General))
	assert.NoError(t, b.ValidateDomain(""))
	assert.ErrorIs(t, b.ValidateDomain("dev.example"), ErrUnknownDomain)
}

func TestBindings_EnvironmentOf(t *testing.T) {
	b := DefaultBindings()

	env, ok := b.EnvironmentOf("my.stg.charitableimpact.com")
	assert.True(t, ok)
	assert.Equal(t, Stage, env)

	_, ok = b.EnvironmentOf(General)
	assert.False(t, ok)
}
