// Package token issues and validates the encrypted session tokens
// carried by the "token" cookie. A token is base64(nonce || ciphertext)
// where the ciphertext is an AES-GCM sealed JSON claims object and the
// key is the SHA-256 digest of the server secret.
package token

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

const nonceSize = 12

var (
	ErrInvalid = errors.New("invalid token")
	ErrExpired = errors.New("token expired")
)

type Claims struct {
	Username string `json:"username"`
	Level    int    `json:"level"`
	Role     Role   `json:"role"`
	IssuedAt int64  `json:"iat"`
}

type Service struct {
	aead cipher.AEAD
	ttl  time.Duration
	now  func() time.Time
}

// New derives the AES-256 key from secret. A zero ttl disables the
// expiry check on Validate.
func New(secret string, ttl time.Duration) (*Service, error) {
	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Service{aead: aead, ttl: ttl, now: time.Now}, nil
}

func (s *Service) TTL() time.Duration {
	return s.ttl
}

func (s *Service) Issue(username string, level int) (string, error) {
	claims := Claims{
		Username: username,
		Level:    level,
		Role:     RoleForLevel(level),
		IssuedAt: s.now().UnixMilli(),
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := s.aead.Seal(nonce, nonce, payload, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Validate decrypts and decodes a token. It returns ErrInvalid on
// malformed base64, truncated input, authentication failure or bad
// JSON, and ErrExpired when the claims are older than the TTL.
func (s *Service) Validate(tok string) (Claims, error) {
	data, err := base64.StdEncoding.DecodeString(tok)
	if err != nil || len(data) <= nonceSize {
		return Claims{}, ErrInvalid
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	payload, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return Claims{}, ErrInvalid
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return Claims{}, ErrInvalid
	}

	if s.ttl > 0 {
		issued := time.UnixMilli(claims.IssuedAt)
		if s.now().After(issued.Add(s.ttl)) {
			return Claims{}, ErrExpired
		}
	}

	return claims, nil
}
