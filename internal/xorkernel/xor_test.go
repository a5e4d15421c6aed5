package xorkernel

import (
	"bytes"
	"testing"
)

func TestIntoIsSelfInverse(t *testing.T) {
	a := []byte{0x12, 0x34, 0x56, 0x78}
	b := []byte{0xAB, 0xCD, 0xEF, 0x01}

	got := make([]byte, len(a))
	copy(got, a)

	Into(got, b)
	Into(got, b)

	if !bytes.Equal(got, a) {
		t.Error("XOR is not self-inverse")
	}
}

func TestIntoReconstructsMissingOperand(t *testing.T) {
	blocks := [][]byte{
		{0x11, 0x22, 0x33, 0x44},
		{0x55, 0x66, 0x77, 0x88},
		{0x99, 0xAA, 0xBB, 0xCC},
	}

	parity := make([]byte, 4)
	for _, blk := range blocks {
		Into(parity, blk)
	}

	reconstructed := make([]byte, 4)
	copy(reconstructed, parity)
	Into(reconstructed, blocks[1])
	Into(reconstructed, blocks[2])

	if !bytes.Equal(reconstructed, blocks[0]) {
		t.Error("XOR reconstruction of the missing operand failed")
	}
}
