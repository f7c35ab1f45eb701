package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWipeByteArray(t *testing.T) {
	b := []byte("1234")
	WipeByteArray(b)
	assert.Equal(t, []byte{0, 0, 0, 0}, b)

	WipeByteArray(nil)
}
