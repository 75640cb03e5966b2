package securefile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupSecuredEnv(t *testing.T) {
	t.Setenv("SECUREFILE_TEST_VAR", "value")

	v, ok := LookupSecuredEnv("SECUREFILE_TEST_VAR")
	assert.True(t, ok)
	assert.Equal(t, "value", v)

	_, ok = LookupSecuredEnv("SECUREFILE_TEST_VAR_ABSENT")
	assert.False(t, ok)

	_, ok = LookupSecuredEnv("")
	assert.False(t, ok)
}

func TestLookupSecuredEnvEmptyValue(t *testing.T) {
	t.Setenv("SECUREFILE_TEST_EMPTY", "")

	v, ok := LookupSecuredEnv("SECUREFILE_TEST_EMPTY")
	assert.True(t, ok, "present-but-empty is still present")
	assert.Empty(t, v)
}
