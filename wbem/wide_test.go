package wbem

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeWide(t *testing.T) {
	units, err := EncodeWide("WQL")
	require.NoError(t, err)
	assert.Equal(t, []uint16{'W', 'Q', 'L', 0}, units)

	units, err = EncodeWide("\U0001F600")
	require.NoError(t, err)
	assert.Equal(t, []uint16{0xD83D, 0xDE00, 0}, units)

	units, err = EncodeWide("")
	require.NoError(t, err)
	assert.Equal(t, []uint16{0}, units)
}

func TestEncodeWideRejectsMalformed(t *testing.T) {
	_, err := EncodeWide("SELECT \x00 FROM X")
	assert.True(t, errors.Is(err, ErrMalformedText))

	_, err = EncodeWide("SELECT \xff FROM X")
	assert.True(t, errors.Is(err, ErrMalformedText))
}

func TestDecodeWide(t *testing.T) {
	units, err := EncodeWide("SELECT Caption FROM Win32_OperatingSystem")
	require.NoError(t, err)

	s, err := DecodeWide(units)
	require.NoError(t, err)
	assert.Equal(t, "SELECT Caption FROM Win32_OperatingSystem", s)

	s, err = DecodeWide([]uint16{'a', 0, 'b'})
	require.NoError(t, err)
	assert.Equal(t, "a", s)
}
