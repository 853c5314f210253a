package webpush

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"io"
	"testing"
)

func newTestSubscription(t *testing.T) (*ecdh.PrivateKey, *SubscriptionKeys) {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate subscriber key: %v", err)
	}
	auth := make([]byte, authLen)
	if _, err := io.ReadFull(rand.Reader, auth); err != nil {
		t.Fatalf("generate auth secret: %v", err)
	}
	return key, &SubscriptionKeys{P256dh: key.PublicKey().Bytes(), Auth: auth}
}

// decrypt plays the subscriber's side: parse the aes128gcm header, run
// the key agreement and HKDF chain from the subscriber's private key, and
// open the record.
func decrypt(t *testing.T, sub *ecdh.PrivateKey, authSecret, body []byte) []byte {
	t.Helper()
	if len(body) < headerLen+gcmTagLen {
		t.Fatalf("body too short: %d bytes", len(body))
	}

	salt := body[:saltLen]
	rs := binary.BigEndian.Uint32(body[saltLen : saltLen+4])
	if rs != recordSize {
		t.Fatalf("record size = %d, want %d", rs, recordSize)
	}
	idLen := int(body[saltLen+4])
	if idLen != pointLen {
		t.Fatalf("key id length = %d, want %d", idLen, pointLen)
	}
	senderPub := body[saltLen+5 : saltLen+5+idLen]
	ciphertext := body[saltLen+5+idLen:]

	senderKey, err := ecdh.P256().NewPublicKey(senderPub)
	if err != nil {
		t.Fatalf("sender public key: %v", err)
	}
	shared, err := sub.ECDH(senderKey)
	if err != nil {
		t.Fatalf("ECDH: %v", err)
	}

	key, nonce := deriveKeyNonce(shared, authSecret, sub.PublicKey().Bytes(), senderPub, salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatalf("aes: %v", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		t.Fatalf("gcm: %v", err)
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		t.Fatalf("open record: %v", err)
	}

	if len(plaintext) == 0 || plaintext[len(plaintext)-1] != 0x02 {
		t.Fatalf("missing 0x02 record delimiter")
	}
	return plaintext[:len(plaintext)-1]
}

func TestEncryptRoundTrip(t *testing.T) {
	subKey, keys := newTestSubscription(t)
	payload := []byte(`{"title":"Meal reminder","body":"Almost time for lunch."}`)

	msg, err := Encrypt(payload, keys)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	got := decrypt(t, subKey, keys.Auth, msg.Body)
	if !bytes.Equal(got, payload) {
		t.Errorf("decrypted payload = %q, want %q", got, payload)
	}
}

func TestEncryptBodyLayout(t *testing.T) {
	_, keys := newTestSubscription(t)
	payload := []byte("hello")

	msg, err := Encrypt(payload, keys)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	// header + plaintext + delimiter + GCM tag
	want := headerLen + len(payload) + 1 + gcmTagLen
	if len(msg.Body) != want {
		t.Errorf("body length = %d, want %d", len(msg.Body), want)
	}
	if !bytes.Equal(msg.Body[:saltLen], msg.Salt) {
		t.Error("salt in header does not match msg.Salt")
	}
	if !bytes.Equal(msg.Body[saltLen+5:saltLen+5+pointLen], msg.SenderPublicKey) {
		t.Error("sender key in header does not match msg.SenderPublicKey")
	}
}

func TestEncryptFreshMaterialPerMessage(t *testing.T) {
	_, keys := newTestSubscription(t)

	a, err := Encrypt([]byte("one"), keys)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	b, err := Encrypt([]byte("one"), keys)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	if bytes.Equal(a.Salt, b.Salt) {
		t.Error("salt reused across messages")
	}
	if bytes.Equal(a.SenderPublicKey, b.SenderPublicKey) {
		t.Error("sender key pair reused across messages")
	}
}

func TestEncryptPayloadTooLarge(t *testing.T) {
	_, keys := newTestSubscription(t)

	if _, err := Encrypt(make([]byte, recordSize), keys); err == nil {
		t.Error("expected error for oversized payload")
	}
}

func TestDecodeSubscriptionKeys(t *testing.T) {
	subKey, _ := newTestSubscription(t)
	pub := base64.RawURLEncoding.EncodeToString(subKey.PublicKey().Bytes())
	auth := base64.RawURLEncoding.EncodeToString(make([]byte, authLen))

	keys, err := DecodeSubscriptionKeys(pub, auth)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(keys.P256dh) != pointLen || len(keys.Auth) != authLen {
		t.Errorf("decoded sizes = %d/%d, want %d/%d", len(keys.P256dh), len(keys.Auth), pointLen, authLen)
	}

	// Some clients send padded standard base64; both must decode.
	padded := base64.StdEncoding.EncodeToString(subKey.PublicKey().Bytes())
	if _, err := DecodeSubscriptionKeys(padded, auth); err != nil {
		t.Errorf("padded standard encoding rejected: %v", err)
	}
}

func TestDecodeSubscriptionKeysRejectsBadSizes(t *testing.T) {
	auth := base64.RawURLEncoding.EncodeToString(make([]byte, authLen))
	shortPub := base64.RawURLEncoding.EncodeToString(make([]byte, 33))
	if _, err := DecodeSubscriptionKeys(shortPub, auth); err == nil {
		t.Error("expected error for 33-byte p256dh key")
	}

	subKey, _ := newTestSubscription(t)
	pub := base64.RawURLEncoding.EncodeToString(subKey.PublicKey().Bytes())
	shortAuth := base64.RawURLEncoding.EncodeToString(make([]byte, 8))
	if _, err := DecodeSubscriptionKeys(pub, shortAuth); err == nil {
		t.Error("expected error for 8-byte auth secret")
	}
}
