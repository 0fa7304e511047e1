package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDPIHMACIsDeterministic(t *testing.T) {
	cipher := NewDPICipher(nil, []byte("0123456789abcdef0123456789abcdef"))

	first := cipher.HMAC("1234567890123")
	second := cipher.HMAC("1234567890123")
	other := cipher.HMAC("1234567890124")

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.Regexp(t, `^[0-9a-f]{64}$`, first)
}

func TestDPIHMACDependsOnKey(t *testing.T) {
	a := NewDPICipher(nil, []byte("0123456789abcdef0123456789abcdef"))
	b := NewDPICipher(nil, []byte("fedcba9876543210fedcba9876543210"))

	assert.NotEqual(t, a.HMAC("1234567890123"), b.HMAC("1234567890123"))
}
