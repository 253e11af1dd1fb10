package wsserver

import (
	"bytes"
	"testing"
)

func TestAcceptKeyVector(t *testing.T) {
	got := acceptKey("dGhlIHNhbXBsZSBub25jZQ==")
	want := "s3pPLMBiTxaQ9kYGzzhZRbK+xOo="
	if got != want {
		t.Errorf("acceptKey() = %q, want %q", got, want)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	for _, length := range []int{0, 125, 126, 65535, 65536} {
		payload := make([]byte, length)
		for i := range payload {
			payload[i] = byte(i % 256)
		}

		encoded := encodeText(payload)
		f, err := readFrame(bytes.NewReader(encoded))
		if err != nil {
			t.Fatalf("length %d: readFrame error: %v", length, err)
		}
		if !f.fin {
			t.Errorf("length %d: expected FIN set", length)
		}
		if f.opcode != opText {
			t.Errorf("length %d: expected text opcode, got %d", length, f.opcode)
		}
		if !bytes.Equal(f.payload, payload) {
			t.Errorf("length %d: payload mismatch", length)
		}
	}
}

func TestReadFrameMasked(t *testing.T) {
	payload := []byte("hello")
	mask := [4]byte{0x01, 0x02, 0x03, 0x04}
	masked := make([]byte, len(payload))
	for i, b := range payload {
		masked[i] = b ^ mask[i%4]
	}

	raw := []byte{0x81, 0x80 | byte(len(payload))}
	raw = append(raw, mask[:]...)
	raw = append(raw, masked...)

	f, err := readFrame(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("readFrame error: %v", err)
	}
	if !bytes.Equal(f.payload, payload) {
		t.Errorf("unmasked payload = %q, want %q", f.payload, payload)
	}
}

func TestValidateFrameRejectsBadOpcode(t *testing.T) {
	f := &frame{opcode: 0x0F}
	if err := validateFrame(f); err == nil {
		t.Error("expected error for invalid opcode")
	}
}
