package canonical

import (
	"fmt"
	"hash/fnv"
)

// fingerprintSalt prefixes the second FNV-1a pass so the two 64-bit
// halves of a fingerprint are independent.
const fingerprintSalt byte = 0x9d

// FingerprintHex computes a 128-bit content fingerprint of data as two
// concatenated 64-bit FNV-1a digests, the second over the salted input.
//
// This is a content fingerprint for change detection and cache keying,
// not a security primitive. Use SumHex where integrity matters.
func FingerprintHex(data []byte) string {
	h1 := fnv.New64a()
	h1.Write(data)

	h2 := fnv.New64a()
	h2.Write([]byte{fingerprintSalt})
	h2.Write(data)

	return fmt.Sprintf("%016x%016x", h1.Sum64(), h2.Sum64())
}

// Fingerprint computes the 128-bit fingerprint of the canonical form of v.
func Fingerprint(v interface{}) (string, error) {
	b, err := MarshalCanonical(v)
	if err != nil {
		return "", err
	}
	return FingerprintHex(b), nil
}
