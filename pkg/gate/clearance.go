package gate

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ClearanceClaims bind a minted clearance to one sheet and the exact
// geometry it was accepted against. Composition verifies the token and
// refuses to composite when the geometry hash no longer matches.
type ClearanceClaims struct {
	jwt.RegisteredClaims
	SheetID      string `json:"sheet_id"`
	GeometryHash string `json:"geometry_hash"`
	DesignHash   string `json:"design_hash"`
	RunID        string `json:"run_id"`
}

const (
	clearanceIssuer   = "maquette/gate"
	clearanceAudience = "maquette/compose"

	// DefaultClearanceTTL bounds how long an accepted sheet may wait
	// before composition without re-evaluation.
	DefaultClearanceTTL = time.Hour
)

// ClearanceIssuer mints and verifies composition clearances for one
// project. Tokens are HS256 signed with the project's derived key.
type ClearanceIssuer struct {
	deriver   *KeyDeriver
	projectID string
	ttl       time.Duration
	now       func() time.Time
}

type ClearanceOption func(*ClearanceIssuer)

func WithClearanceTTL(ttl time.Duration) ClearanceOption {
	return func(ci *ClearanceIssuer) {
		if ttl > 0 {
			ci.ttl = ttl
		}
	}
}

func WithClearanceClock(now func() time.Time) ClearanceOption {
	return func(ci *ClearanceIssuer) {
		if now != nil {
			ci.now = now
		}
	}
}

func NewClearanceIssuer(deriver *KeyDeriver, projectID string, opts ...ClearanceOption) (*ClearanceIssuer, error) {
	if deriver == nil {
		return nil, fmt.Errorf("key deriver required")
	}
	if projectID == "" {
		return nil, fmt.Errorf("project id required")
	}
	ci := &ClearanceIssuer{
		deriver:   deriver,
		projectID: projectID,
		ttl:       DefaultClearanceTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(ci)
	}
	return ci, nil
}

// Mint issues a clearance for an accepted decision.
func (ci *ClearanceIssuer) Mint(d *Decision) (string, error) {
	if d == nil || d.Report == nil {
		return "", fmt.Errorf("decision with report required")
	}
	if d.State != StateAccepted {
		return "", fmt.Errorf("clearance requires an accepted decision, got %s", d.State)
	}

	now := ci.now().UTC()
	claims := ClearanceClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        d.Report.RunID,
			Subject:   d.Report.SheetID,
			Issuer:    clearanceIssuer,
			Audience:  jwt.ClaimStrings{clearanceAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ci.ttl)),
		},
		SheetID:      d.Report.SheetID,
		GeometryHash: d.Report.GeometryHash,
		DesignHash:   d.Report.DesignHash,
		RunID:        d.Report.RunID,
	}

	key, err := ci.deriver.ProjectKey(ci.projectID)
	if err != nil {
		return "", err
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign clearance: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a clearance token.
func (ci *ClearanceIssuer) Verify(tokenString string) (*ClearanceClaims, error) {
	key, err := ci.deriver.ProjectKey(ci.projectID)
	if err != nil {
		return nil, err
	}

	token, err := jwt.ParseWithClaims(tokenString, &ClearanceClaims{},
		func(t *jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(clearanceIssuer),
		jwt.WithAudience(clearanceAudience),
		jwt.WithTimeFunc(ci.now),
	)
	if err != nil {
		return nil, fmt.Errorf("verify clearance: %w", err)
	}

	claims, ok := token.Claims.(*ClearanceClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	return claims, nil
}
