package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeaders(t *testing.T) {
	headers, err := parseHeaders([]string{
		"Authorization: Bearer abc",
		"X-Custom:value",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", headers["Authorization"])
	assert.Equal(t, "value", headers["X-Custom"])
}

func TestParseHeadersEmpty(t *testing.T) {
	headers, err := parseHeaders(nil)
	require.NoError(t, err)
	assert.Nil(t, headers)
}

func TestParseHeadersInvalid(t *testing.T) {
	_, err := parseHeaders([]string{"no-separator"})
	assert.Error(t, err)

	_, err = parseHeaders([]string{": empty-name"})
	assert.Error(t, err)
}

func TestEnvFallbacks(t *testing.T) {
	t.Setenv("LOADFLOW_TEST_STR", "hello")
	assert.Equal(t, "hello", getEnvString("LOADFLOW_TEST_STR", "fallback"))
	assert.Equal(t, "fallback", getEnvString("LOADFLOW_TEST_UNSET", "fallback"))

	t.Setenv("LOADFLOW_TEST_INT", "42")
	assert.Equal(t, 42, getEnvInt("LOADFLOW_TEST_INT", 7))
	assert.Equal(t, 7, getEnvInt("LOADFLOW_TEST_UNSET", 7))

	t.Setenv("LOADFLOW_TEST_BOOL", "true")
	assert.True(t, getEnvBool("LOADFLOW_TEST_BOOL", false))
	assert.False(t, getEnvBool("LOADFLOW_TEST_UNSET", false))

	t.Setenv("LOADFLOW_TEST_BADINT", "abc")
	assert.Equal(t, 7, getEnvInt("LOADFLOW_TEST_BADINT", 7))
}
