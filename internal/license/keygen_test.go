package license

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCredentials_Complete(t *testing.T) {
	full := Credentials{AccountID: "a", ProductID: "p", ProductToken: "t", LicenseKey: "k"}
	assert.True(t, full.Complete())

	partial := full
	partial.ProductToken = ""
	assert.False(t, partial.Complete())
	assert.False(t, Credentials{}.Complete())
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "****", maskKey("short"))
	assert.Equal(t, "ABCD1234...", maskKey("ABCD1234-EFGH-5678"))
}
