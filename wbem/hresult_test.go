package wbem

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHRESULTValues(t *testing.T) {
	assert.Equal(t, "0x80041017", WBEM_E_INVALID_QUERY.String())
	assert.Equal(t, HRESULT(-2147217385), WBEM_E_INVALID_QUERY)
	assert.True(t, WBEM_E_INVALID_QUERY.Failed())
	assert.True(t, S_FALSE.Succeeded())
	assert.True(t, WBEM_S_TIMEDOUT.Succeeded())
}

func TestCheck(t *testing.T) {
	assert.NoError(t, Check(S_OK))
	assert.NoError(t, Check(WBEM_S_FALSE))

	err := Check(WBEM_E_NOT_FOUND)
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, WBEM_E_NOT_FOUND, se.Code)
	assert.Contains(t, err.Error(), "WBEM_E_NOT_FOUND")
	assert.Contains(t, err.Error(), "0x80041002")
}

func TestIsStatusThroughWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", Check(WBEM_E_INVALID_CLASS))
	assert.True(t, IsStatus(err, WBEM_E_INVALID_CLASS))
	assert.False(t, IsStatus(err, WBEM_E_INVALID_QUERY))
	assert.False(t, IsStatus(errors.New("plain"), WBEM_E_INVALID_CLASS))
}

func TestStatusNames(t *testing.T) {
	assert.Equal(t, "WBEM_E_INVALID_QUERY", StatusName(WBEM_E_INVALID_QUERY))
	assert.Equal(t, "0x80049999", StatusName(HRESULT(0x80049999-hrBias)))

	hr, ok := ParseStatusName("WBEM_E_ACCESS_DENIED")
	require.True(t, ok)
	assert.Equal(t, WBEM_E_ACCESS_DENIED, hr)

	_, ok = ParseStatusName("NOPE")
	assert.False(t, ok)
}

func TestStatusText(t *testing.T) {
	assert.Equal(t, "the query was not syntactically valid", StatusText(WBEM_E_INVALID_QUERY))
	assert.Equal(t, "unknown provider failure", StatusText(HRESULT(0x80049999-hrBias)))
	assert.Equal(t, "unknown provider status", StatusText(HRESULT(7)))
}
