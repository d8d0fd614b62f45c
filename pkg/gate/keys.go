package gate

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// clearanceKeySalt versions the derivation; bumping it rotates every
// project key at once.
const clearanceKeySalt = "maquette-clearance-v1"

// KeyDeriver derives per-project clearance signing keys from one master
// secret. Keys for distinct projects are cryptographically independent.
type KeyDeriver struct {
	master []byte
}

func NewKeyDeriver(master []byte) (*KeyDeriver, error) {
	if len(master) < 32 {
		return nil, fmt.Errorf("master secret too short: need 32 bytes, got %d", len(master))
	}
	return &KeyDeriver{master: master}, nil
}

// ProjectKey derives the HS256 signing key for one project.
func (d *KeyDeriver) ProjectKey(projectID string) ([]byte, error) {
	if projectID == "" {
		return nil, fmt.Errorf("project id required")
	}
	r := hkdf.New(sha256.New, d.master, []byte(clearanceKeySalt), []byte(projectID))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive key for project %s: %w", projectID, err)
	}
	return key, nil
}
