package crypto

import "testing"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := "0123456789abcdef0123456789abcdef"
	sealed, err := Encrypt(key, `{"tasks":[]}`)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	opened, err := Decrypt(key, sealed)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if opened != `{"tasks":[]}` {
		t.Fatalf("unexpected plaintext: %s", opened)
	}
}

func TestEncryptRejectsShortKey(t *testing.T) {
	if _, err := Encrypt("short", "data"); err == nil {
		t.Fatalf("expected error for short key")
	}
}

func TestDecryptRejectsTamperedData(t *testing.T) {
	key := "0123456789abcdef0123456789abcdef"
	if _, err := Decrypt(key, "bm90LXJlYWwtY2lwaGVydGV4dA"); err == nil {
		t.Fatalf("expected error for bogus ciphertext")
	}
}
