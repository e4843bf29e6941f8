package probe

import (
	"crypto/rand"
	"math/big"
)

const (
	// ShortSecretLen is used for throwaway usernames and the response-shape
	// oracle's password.
	ShortSecretLen = 8
	// LongSecretLen inflates server-side password processing so the timing
	// difference between valid and invalid accounts becomes measurable.
	LongSecretLen = 64000
)

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// RandomAlphanumeric returns n characters drawn uniformly from [A-Za-z0-9].
func RandomAlphanumeric(n int) string {
	if n <= 0 {
		return ""
	}

	// Read a block of random bytes and reject values that would bias the
	// modulo; fall back to big.Int draws if the reader misbehaves.
	out := make([]byte, 0, n)
	buf := make([]byte, n+n/4+8)
	limit := byte(256 - 256%len(alphanumeric))

	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return slowAlphanumeric(n)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, alphanumeric[int(b)%len(alphanumeric)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out)
}

func slowAlphanumeric(n int) string {
	out := make([]byte, n)
	max := big.NewInt(int64(len(alphanumeric)))
	for i := range out {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing twice leaves nothing better to do.
			panic("probe: crypto/rand unavailable: " + err.Error())
		}
		out[i] = alphanumeric[v.Int64()]
	}
	return string(out)
}
