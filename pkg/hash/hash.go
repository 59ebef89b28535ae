package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

// DigestLen is the length of a hex-encoded SHA256 digest.
const DigestLen = 64

// SHA256Hex returns the hex-encoded SHA256 hash of the input string.
func SHA256Hex(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}

// HashIP hashes a client address with a server-side salt: SHA256(salt + ip).
// The same address always maps to the same token under a fixed salt, so the
// result can key rate limits and vote ownership without storing the address.
func HashIP(ip, salt string) string {
	return SHA256Hex(salt + ip)
}

// Prefix returns the first n characters of a digest, or the digest itself if
// it is shorter. Used for log correlation.
func Prefix(digest string, n int) string {
	if n >= len(digest) {
		return digest
	}
	return digest[:n]
}

// IsHexDigest reports whether s looks like a lowercase hex SHA256 digest.
func IsHexDigest(s string) bool {
	if len(s) != DigestLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
