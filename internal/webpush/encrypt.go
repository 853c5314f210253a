package webpush

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	saltLen   = 16
	authLen   = 16
	pointLen  = 65 // uncompressed P-256 point
	gcmTagLen = 16

	// recordSize is written into the aes128gcm header. Reminder payloads
	// are a fraction of this; we always emit a single record.
	recordSize = 4096

	// headerLen is salt(16) + record size(4) + key id length(1) + sender
	// public key(65).
	headerLen = saltLen + 4 + 1 + pointLen
)

// SubscriptionKeys is the decoded, validated key material of one push
// subscription.
type SubscriptionKeys struct {
	P256dh []byte // 65-byte uncompressed subscriber public key
	Auth   []byte // 16-byte auth secret
}

// DecodeSubscriptionKeys validates stored subscription key material.
// Malformed records are rejected here, before any crypto runs, so one bad
// row is a per-subscription error rather than a crashed batch.
func DecodeSubscriptionKeys(p256dh, auth string) (*SubscriptionKeys, error) {
	pub, err := decodeKey(p256dh)
	if err != nil {
		return nil, fmt.Errorf("decode p256dh key: %w", err)
	}
	if len(pub) != pointLen {
		return nil, fmt.Errorf("p256dh key must be %d bytes, got %d", pointLen, len(pub))
	}

	secret, err := decodeKey(auth)
	if err != nil {
		return nil, fmt.Errorf("decode auth secret: %w", err)
	}
	if len(secret) != authLen {
		return nil, fmt.Errorf("auth secret must be %d bytes, got %d", authLen, len(secret))
	}

	return &SubscriptionKeys{P256dh: pub, Auth: secret}, nil
}

// EncryptedMessage is an aes128gcm-framed request body ready to POST to a
// push service. Salt and SenderPublicKey are also available separately
// for verification; both are already embedded in Body.
type EncryptedMessage struct {
	Body            []byte
	Salt            []byte
	SenderPublicKey []byte
}

// Encrypt performs RFC 8291 message encryption: a one-off ECDH key
// agreement against the subscriber's public key, the two-stage HKDF
// chain, AES-128-GCM, and the RFC 8188 single-record framing.
//
// A fresh key pair and salt are generated for every message; reusing
// either would break the scheme, so there is no way to supply them.
func Encrypt(payload []byte, keys *SubscriptionKeys) (*EncryptedMessage, error) {
	if len(payload)+1+gcmTagLen > recordSize {
		return nil, fmt.Errorf("payload of %d bytes exceeds record size", len(payload))
	}

	curve := ecdh.P256()
	sender, err := curve.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate sender key: %w", err)
	}
	subscriberPub, err := curve.NewPublicKey(keys.P256dh)
	if err != nil {
		return nil, fmt.Errorf("subscriber public key: %w", err)
	}
	sharedSecret, err := sender.ECDH(subscriberPub)
	if err != nil {
		return nil, fmt.Errorf("ECDH agreement: %w", err)
	}

	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	senderPub := sender.PublicKey().Bytes()
	key, nonce := deriveKeyNonce(sharedSecret, keys.Auth, keys.P256dh, senderPub, salt)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}

	// Single final record: plaintext, then the 0x02 delimiter, no
	// padding bytes.
	plaintext := make([]byte, 0, len(payload)+1)
	plaintext = append(plaintext, payload...)
	plaintext = append(plaintext, 0x02)
	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	body := make([]byte, 0, headerLen+len(ciphertext))
	body = append(body, salt...)
	body = binary.BigEndian.AppendUint32(body, recordSize)
	body = append(body, byte(len(senderPub)))
	body = append(body, senderPub...)
	body = append(body, ciphertext...)

	return &EncryptedMessage{Body: body, Salt: salt, SenderPublicKey: senderPub}, nil
}

// deriveKeyNonce runs the RFC 8291 HKDF chain: the ECDH secret is first
// bound to both parties' public keys via the "WebPush: info" expansion,
// then the content-encryption key and nonce are expanded from that under
// the per-message salt.
func deriveKeyNonce(sharedSecret, authSecret, subscriberPub, senderPub, salt []byte) (key, nonce []byte) {
	info := make([]byte, 0, 14+2*pointLen)
	info = append(info, "WebPush: info\x00"...)
	info = append(info, subscriberPub...)
	info = append(info, senderPub...)
	ikm := hkdfExpand(sharedSecret, authSecret, info, 32)

	key = hkdfExpand(ikm, salt, []byte("Content-Encoding: aes128gcm\x00"), 16)
	nonce = hkdfExpand(ikm, salt, []byte("Content-Encoding: nonce\x00"), 12)
	return key, nonce
}

func hkdfExpand(secret, salt, info []byte, length int) []byte {
	out := make([]byte, length)
	// Read cannot fail for outputs this far below the HKDF limit.
	io.ReadFull(hkdf.New(sha256.New, secret, salt, info), out)
	return out
}
