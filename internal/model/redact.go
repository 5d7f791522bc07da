package model

// SuffixLength is how many trailing characters of a secret may be shown.
const SuffixLength = 4

// Suffix returns the display-only tail of a secret. The full value must
// never be persisted or logged client-side.
func Suffix(secret string) string {
	if len(secret) <= SuffixLength {
		return secret
	}

	return secret[len(secret)-SuffixLength:]
}
