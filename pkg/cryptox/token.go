package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// InviteCodeBytes is the entropy behind an invite code (32 hex characters).
const InviteCodeBytes = 16

// GenerateInviteCode returns a cryptographically random, hex-encoded invite
// code. Uniqueness across all invites is backed by the store's unique index;
// the 128 bits of entropy make a collision effectively impossible anyway.
func GenerateInviteCode() (string, error) {
	buf := make([]byte, InviteCodeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: failed to generate invite code: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// submissionCodeAlphabet omits easily-confused characters (0/O, 1/I/L).
const submissionCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateSubmissionCode returns a short human-shareable code, e.g. "K7XQ2M".
// Applicants quote it back over email so it has to survive being read aloud.
func GenerateSubmissionCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("cryptox: code length must be positive, got %d", length)
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: failed to generate submission code: %w", err)
	}
	for i, b := range buf {
		buf[i] = submissionCodeAlphabet[int(b)%len(submissionCodeAlphabet)]
	}
	return string(buf), nil
}

// FingerprintToken returns a deterministic SHA-256 fingerprint of a token,
// base64url encoded. Session records store the fingerprint rather than the
// bearer token itself.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
