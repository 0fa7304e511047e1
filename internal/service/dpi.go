package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"strings"

	"golang.org/x/crypto/openpgp"

	"banca-api/internal/crypto"
)

// DPICipher protects the DPI national-ID field: PGP encryption at rest plus
// a deterministic HMAC-SHA256 digest so uniqueness can be checked without
// decrypting anything.
type DPICipher struct {
	pgpKey  *openpgp.Entity
	hmacKey []byte
}

func NewDPICipher(pgpKey *openpgp.Entity, hmacKey []byte) *DPICipher {
	return &DPICipher{pgpKey: pgpKey, hmacKey: hmacKey}
}

func (c *DPICipher) Encrypt(dpi string) (string, error) {
	encrypted, err := crypto.Encrypt(c.pgpKey, dpi)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt DPI: %w", err)
	}
	return encrypted, nil
}

func (c *DPICipher) Decrypt(encrypted string) (string, error) {
	dpi, err := crypto.Decrypt(c.pgpKey, encrypted)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt DPI: %w", err)
	}
	return dpi, nil
}

// HMAC returns the hex digest used for the uniqueness check.
func (c *DPICipher) HMAC(dpi string) string {
	h := hmac.New(sha256.New, c.hmacKey)
	h.Write([]byte(dpi))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// MaskDPI keeps the last four digits visible.
func MaskDPI(dpi string) string {
	if len(dpi) <= 4 {
		return dpi
	}
	return strings.Repeat("*", len(dpi)-4) + dpi[len(dpi)-4:]
}
