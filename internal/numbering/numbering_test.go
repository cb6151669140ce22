package numbering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFirstSystemSevenDigits(t *testing.T) {
	id, err := ParseFirstSystem("2222002")
	require.NoError(t, err)
	assert.Equal(t, uint8(2), id.Nationality)
	assert.Equal(t, uint8(2), id.Exchange)
	assert.Equal(t, uint16(22002), id.Rest)
}

func TestParseFirstSystemElevenDigitsWithPrefix(t *testing.T) {
	id, err := ParseFirstSystem("01602222002")
	require.NoError(t, err)
	assert.Equal(t, uint16(22002), id.Rest)
}

func TestParseFirstSystemBadPrefixRejected(t *testing.T) {
	_, err := ParseFirstSystem("99992222002")
	assert.Error(t, err)
}

func TestParseFirstSystemBoundaryLength(t *testing.T) {
	_, err := ParseFirstSystem("222200")
	assert.Error(t, err, "6 digits must be rejected")
	_, err = ParseFirstSystem("22220022")
	assert.Error(t, err, "8 digits must be rejected")
	_, err = ParseFirstSystem("0160222200")
	assert.Error(t, err, "10 digits with prefix must be rejected")
}

func TestParseFirstSystemRestNumberBoundary(t *testing.T) {
	id, err := ParseFirstSystem("0065535")
	require.NoError(t, err)
	assert.Equal(t, uint16(65535), id.Rest)

	_, err = ParseFirstSystem("0065536")
	assert.Error(t, err)
}

func TestParseSecondSystem(t *testing.T) {
	id, err := ParseSecondSystem("700123456")
	require.NoError(t, err)
	assert.Equal(t, uint8(7), id.Type)
	assert.Equal(t, uint16(1), id.Relay)
	assert.Equal(t, uint32(23456), id.MobileID)
}

func TestParseSecondSystemTypeBoundary(t *testing.T) {
	_, err := ParseSecondSystem("800000000")
	assert.Error(t, err, "mobile type 8 exceeds 7")
}

func TestParseSecondSystemWrongLength(t *testing.T) {
	_, err := ParseSecondSystem("12345678")
	assert.Error(t, err)
}
