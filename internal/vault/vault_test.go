package vault

import (
	"bytes"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	v := New("test-passphrase")
	plaintext := []byte("sk-very-secret")

	ciphertext, nonce, err := v.Seal(plaintext)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	opened, err := v.Open(ciphertext, nonce)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if !bytes.Equal(plaintext, opened) {
		t.Fatalf("got %q, want %q", opened, plaintext)
	}
}

func TestWrongPassphrase(t *testing.T) {
	v1 := New("correct-passphrase")
	v2 := New("wrong-passphrase")

	ciphertext, nonce, err := v1.Seal([]byte("secret"))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	if _, err := v2.Open(ciphertext, nonce); err == nil {
		t.Fatal("expected error opening with wrong passphrase")
	}
}

func TestDifferentPassphrasesDifferentKeys(t *testing.T) {
	v1 := New("passphrase-one")
	v2 := New("passphrase-two")

	if v1.key == v2.key {
		t.Fatal("different passphrases produced the same key")
	}
}

func TestStableKeyAcrossInstances(t *testing.T) {
	v1 := New("same")
	v2 := New("same")

	ciphertext, nonce, err := v1.Seal([]byte("payload"))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	opened, err := v2.Open(ciphertext, nonce)
	if err != nil {
		t.Fatalf("open with second instance: %v", err)
	}
	if string(opened) != "payload" {
		t.Fatalf("got %q, want payload", opened)
	}
}
