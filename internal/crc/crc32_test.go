package crc

import "testing"

func TestComputeDeterministic(t *testing.T) {
	data := []byte("EBS-EPS-DIAG-FRAME")
	first := Compute(data)
	second := Compute(data)
	if first != second {
		t.Fatalf("expected deterministic CRC, got %x then %x", first, second)
	}
}

func TestVerifyDetectsCorruption(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04}
	sum := Compute(data)
	if !Verify(data, sum) {
		t.Fatal("expected verify to pass on unmodified data")
	}
	data[0] ^= 0xFF
	if Verify(data, sum) {
		t.Fatal("expected verify to fail after corruption")
	}
}

func TestSingleMatchesWrite(t *testing.T) {
	data := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	var incremental CRC32
	for _, b := range data {
		incremental.Single(b)
	}
	if incremental.Value() != Compute(data) {
		t.Fatalf("incremental CRC %x != one-shot CRC %x", incremental.Value(), Compute(data))
	}
}
