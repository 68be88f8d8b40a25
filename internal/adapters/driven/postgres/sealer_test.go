package postgres

import (
	"bytes"
	"errors"
	"testing"
)

var testKey = []byte("01234567890123456789012345678901")

func TestPayloadSealer_RoundTrip(t *testing.T) {
	sealer, err := NewPayloadSealer(testKey)
	if err != nil {
		t.Fatalf("NewPayloadSealer: %v", err)
	}

	payload := []byte(`[{"id":"1","title":"Delta soils","content":"Alluvial","timestamp":"2024-05-10T08:00:00.000Z"}]`)

	blob, err := sealer.Seal(payload)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if blob[0] != sealVersion {
		t.Errorf("version byte: got %d, want %d", blob[0], sealVersion)
	}
	if bytes.Contains(blob, []byte("Delta soils")) {
		t.Error("sealed payload must not contain plaintext")
	}

	opened, err := sealer.Open(blob)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(opened, payload) {
		t.Errorf("got %q, want %q", opened, payload)
	}
}

func TestPayloadSealer_InvalidKeySize(t *testing.T) {
	for _, size := range []int{0, 16, 31, 33, 64} {
		_, err := NewPayloadSealer(make([]byte, size))
		if !errors.Is(err, ErrInvalidKeySize) {
			t.Errorf("size %d: expected ErrInvalidKeySize, got %v", size, err)
		}
	}
}

func TestPayloadSealer_OpenInvalid(t *testing.T) {
	sealer, _ := NewPayloadSealer(testKey)
	blob, _ := sealer.Seal([]byte("payload"))

	tampered := append([]byte(nil), blob...)
	tampered[len(tampered)-1] ^= 0xff

	wrongVersion := append([]byte(nil), blob...)
	wrongVersion[0] = 0x7f

	tests := []struct {
		name string
		blob []byte
		want error
	}{
		{"empty", nil, ErrInvalidBlobSize},
		{"short", []byte{sealVersion, 1, 2}, ErrInvalidBlobSize},
		{"version", wrongVersion, ErrUnsupportedVersion},
		{"tampered", tampered, ErrDecryptionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := sealer.Open(tt.blob); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestPayloadSealer_WrongKey(t *testing.T) {
	a, _ := NewPayloadSealer(testKey)
	b, _ := NewPayloadSealer([]byte("abcdefghijklmnopqrstuvwxyz012345"))

	blob, _ := a.Seal([]byte("payload"))
	if _, err := b.Open(blob); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestPayloadSealer_UniqueNonce(t *testing.T) {
	sealer, _ := NewPayloadSealer(testKey)

	first, _ := sealer.Seal([]byte("same"))
	second, _ := sealer.Seal([]byte("same"))
	if bytes.Equal(first, second) {
		t.Error("sealing twice must produce different blobs")
	}
}
