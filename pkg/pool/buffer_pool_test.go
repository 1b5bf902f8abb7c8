package pool

import "testing"

func TestGetBufferIsReset(t *testing.T) {
	buf := GetBuffer()
	buf.WriteString("partition=0")
	PutBuffer(buf)

	again := GetBuffer()
	if again.Len() != 0 {
		t.Fatalf("pooled buffer not reset, len=%d", again.Len())
	}
	PutBuffer(again)
}

func TestPutBufferIgnoresNilAndOversized(t *testing.T) {
	PutBuffer(nil)

	big := GetBuffer()
	big.Grow(maxPooledSize * 2)
	PutBuffer(big)
}
