// Package canonical provides RFC 8785 (JSON Canonicalization Scheme)
// serialization and the content hashing used across the geometry authority.
//
// Every hash in the system is computed over canonical bytes: two
// semantically identical values always serialize to the same byte
// sequence, regardless of map iteration order or the key order of the
// incoming JSON.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/gowebpki/jcs"
)

// HashPrefix identifies the digest algorithm in content references.
const HashPrefix = "sha256:"

// Transform returns the RFC 8785 canonical form of already-serialized JSON.
func Transform(raw []byte) ([]byte, error) {
	out, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonical: transform failed: %w", err)
	}
	return out, nil
}

// MarshalCanonical serializes v to RFC 8785 canonical JSON.
//
// The value is first marshaled with encoding/json so struct tags are
// respected, then canonicalized. This is the only serialization that may
// feed a hash.
func MarshalCanonical(v interface{}) ([]byte, error) {
	intermediate, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonical: pre-marshal failed: %w", err)
	}
	return Transform(intermediate)
}

// SumHex computes the SHA-256 digest of data and returns it as a
// "sha256:<hex>" content reference.
func SumHex(data []byte) string {
	h := sha256.Sum256(data)
	return HashPrefix + hex.EncodeToString(h[:])
}

// Sum computes the SHA-256 digest of the canonical form of v.
func Sum(v interface{}) (string, error) {
	b, err := MarshalCanonical(v)
	if err != nil {
		return "", err
	}
	return SumHex(b), nil
}

// HashFields aggregates a string-keyed map of hashes into one digest.
// Keys are sorted, each pair contributes one "k=v\n" line, and the
// concatenation is hashed. Insertion order never affects the result.
func HashFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(fields[k])
		sb.WriteByte('\n')
	}
	return SumHex([]byte(sb.String()))
}

// StripPrefix returns the bare hex digest of a content reference,
// tolerating refs that never carried the algorithm prefix.
func StripPrefix(ref string) string {
	return strings.TrimPrefix(ref, HashPrefix)
}
