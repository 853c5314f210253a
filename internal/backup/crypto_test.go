package backup

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestDeriveKeyDeterminism(t *testing.T) {
	salt := []byte("1234567890abcdef")

	key1 := deriveKey("mypassphrase", salt)
	key2 := deriveKey("mypassphrase", salt)

	if !bytes.Equal(key1, key2) {
		t.Error("same passphrase+salt should produce same key")
	}
	if len(key1) != keySize {
		t.Errorf("key length = %d, want %d", len(key1), keySize)
	}

	other := deriveKey("otherpassphrase", salt)
	if bytes.Equal(key1, other) {
		t.Error("different passphrases should produce different keys")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "source.db")
	encPath := filepath.Join(dir, "encrypted.db.enc")
	decPath := filepath.Join(dir, "decrypted.db")

	original := []byte("This is test database content with some data in it.")
	if err := os.WriteFile(srcPath, original, 0600); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if err := EncryptFile(srcPath, encPath, "correct horse battery staple"); err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	encrypted, err := os.ReadFile(encPath)
	if err != nil {
		t.Fatalf("read encrypted: %v", err)
	}
	if bytes.Contains(encrypted, original) {
		t.Error("ciphertext contains plaintext")
	}

	if err := DecryptFile(encPath, decPath, "correct horse battery staple"); err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	decrypted, err := os.ReadFile(decPath)
	if err != nil {
		t.Fatalf("read decrypted: %v", err)
	}
	if !bytes.Equal(decrypted, original) {
		t.Error("round trip did not restore the original content")
	}
}

func TestDecryptWrongPassphrase(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "source.db")
	encPath := filepath.Join(dir, "encrypted.db.enc")
	decPath := filepath.Join(dir, "decrypted.db")

	if err := os.WriteFile(srcPath, []byte("secret content"), 0600); err != nil {
		t.Fatalf("write source: %v", err)
	}
	if err := EncryptFile(srcPath, encPath, "right"); err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	if err := DecryptFile(encPath, decPath, "wrong"); err == nil {
		t.Error("expected authentication failure with wrong passphrase")
	}
}

func TestDecryptTruncatedFile(t *testing.T) {
	dir := t.TempDir()
	encPath := filepath.Join(dir, "short.enc")
	if err := os.WriteFile(encPath, []byte("tooshort"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := DecryptFile(encPath, filepath.Join(dir, "out.db"), "x"); err == nil {
		t.Error("expected error for truncated file")
	}
}

func TestEncryptFreshSaltPerFile(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "source.db")
	if err := os.WriteFile(srcPath, []byte("same content"), 0600); err != nil {
		t.Fatalf("write source: %v", err)
	}

	encA := filepath.Join(dir, "a.enc")
	encB := filepath.Join(dir, "b.enc")
	if err := EncryptFile(srcPath, encA, "pass"); err != nil {
		t.Fatalf("encrypt a: %v", err)
	}
	if err := EncryptFile(srcPath, encB, "pass"); err != nil {
		t.Fatalf("encrypt b: %v", err)
	}

	a, _ := os.ReadFile(encA)
	b, _ := os.ReadFile(encB)
	if bytes.Equal(a[:saltSize], b[:saltSize]) {
		t.Error("salt reused across files")
	}
}
