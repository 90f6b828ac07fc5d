package secrets

import (
	"bytes"
	"strings"
	"testing"
)

func testKey(t *testing.T, fill byte) *[KeySize]byte {
	t.Helper()
	var key [KeySize]byte
	for i := range key {
		key[i] = fill
	}
	return &key
}

func TestSealAndOpen(t *testing.T) {
	key := testKey(t, 0x42)
	plaintext := []byte(`{"access_token":"abc","refresh_token":"def","cookie":"ghi"}`)

	sealed, err := Seal(key, plaintext)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if bytes.Contains(sealed, []byte("access_token")) {
		t.Error("expected ciphertext to not contain plaintext")
	}

	opened, err := Open(key, sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Errorf("round trip mismatch: got %q", opened)
	}
}

func TestSealProducesFreshNonce(t *testing.T) {
	key := testKey(t, 0x42)

	a, _ := Seal(key, []byte("same plaintext"))
	b, _ := Seal(key, []byte("same plaintext"))
	if bytes.Equal(a, b) {
		t.Error("expected distinct ciphertexts for the same plaintext")
	}
}

func TestOpenWrongKey(t *testing.T) {
	sealed, _ := Seal(testKey(t, 0x01), []byte("secret"))

	if _, err := Open(testKey(t, 0x02), sealed); err == nil {
		t.Error("expected error for wrong key")
	}
}

func TestOpenTampered(t *testing.T) {
	key := testKey(t, 0x42)
	sealed, _ := Seal(key, []byte("secret"))
	sealed[len(sealed)-1] ^= 0xff

	if _, err := Open(key, sealed); err == nil {
		t.Error("expected error for tampered ciphertext")
	}
}

func TestOpenTooShort(t *testing.T) {
	if _, err := Open(testKey(t, 0x42), []byte("short")); err == nil {
		t.Error("expected error for truncated ciphertext")
	}
}

func TestParseKey(t *testing.T) {
	valid := strings.Repeat("ab", KeySize)

	key, err := ParseKey(valid)
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	if key[0] != 0xab {
		t.Errorf("expected first byte 0xab, got %x", key[0])
	}

	if _, err := ParseKey("not-hex"); err == nil {
		t.Error("expected error for non-hex key")
	}
	if _, err := ParseKey("abcd"); err == nil {
		t.Error("expected error for short key")
	}
}
