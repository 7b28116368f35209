package crc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCcittSingle(t *testing.T) {
	crc := CRC16(0)
	crc.Single(10)
	assert.EqualValues(t, 0xA14A, crc)
}

func TestCcittBlockMatchesSingle(t *testing.T) {
	data := []byte("the quick brown fox")

	viaSingle := CRC16(0)
	for _, b := range data {
		viaSingle.Single(b)
	}

	viaBlock := CRC16(0)
	viaBlock.Block(data)

	assert.Equal(t, viaSingle, viaBlock)
}

func TestCRC32CKnownVector(t *testing.T) {
	// "123456789" is the standard CRC-32C check vector.
	assert.EqualValues(t, 0xE3069283, Sum32C([]byte("123456789")))
}

func TestCRC32CFragmentationInvariant(t *testing.T) {
	data := []byte("segment header and payload bytes, split across buffers")

	whole := Sum32C(data)

	for split := 0; split <= len(data); split++ {
		fragmented := Segments(data[:split], data[split:])
		assert.Equalf(t, whole, fragmented, "split at %d should not change the result", split)
	}
}

func TestCRC32CEmpty(t *testing.T) {
	assert.EqualValues(t, 0, Sum32C(nil))
}
