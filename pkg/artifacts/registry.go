package artifacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Plinth-Labs/maquette/pkg/canonical"
)

// DefaultMaxPayloadBytes caps a single panel raster. Presentation
// panels render large, but an unbounded payload is a storage DoS.
const DefaultMaxPayloadBytes = 32 << 20

// Registry validates and persists panel envelopes over a Store. The
// envelope is canonicalized before storing, so identical claims always
// yield the identical envelope ref.
type Registry struct {
	store Store
	limit int64
}

// RegistryOption adjusts registry behavior.
type RegistryOption func(*Registry)

// WithPayloadLimit overrides the maximum accepted raster size.
func WithPayloadLimit(n int64) RegistryOption {
	return func(r *Registry) { r.limit = n }
}

// NewRegistry builds a panel registry over a blob store.
func NewRegistry(store Store, opts ...RegistryOption) *Registry {
	r := &Registry{
		store: store,
		limit: DefaultMaxPayloadBytes,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PutPanel stores the raster payload, completes the envelope and stores
// the envelope itself, returning the envelope's content ref.
func (r *Registry) PutPanel(ctx context.Context, env *PanelEnvelope, payload []byte) (string, error) {
	if err := env.Validate(); err != nil {
		return "", err
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("panel %s: empty payload", env.PanelType)
	}
	if int64(len(payload)) > r.limit {
		return "", fmt.Errorf("panel %s: payload is %d bytes, limit %d", env.PanelType, len(payload), r.limit)
	}

	ref, err := r.store.Store(ctx, payload)
	if err != nil {
		return "", fmt.Errorf("store panel %s payload: %w", env.PanelType, err)
	}

	env.Schema = EnvelopeSchema
	env.PayloadRef = ref
	env.PayloadBytes = int64(len(payload))
	if env.ContentType == "" {
		env.ContentType = "image/png"
	}
	if env.RenderedAt.IsZero() {
		env.RenderedAt = time.Now().UTC()
	}

	data, err := canonical.MarshalCanonical(env)
	if err != nil {
		return "", fmt.Errorf("marshal panel %s envelope: %w", env.PanelType, err)
	}
	envRef, err := r.store.Store(ctx, data)
	if err != nil {
		return "", fmt.Errorf("store panel %s envelope: %w", env.PanelType, err)
	}
	return envRef, nil
}

// GetPanel loads an envelope by its content ref.
func (r *Registry) GetPanel(ctx context.Context, ref string) (*PanelEnvelope, error) {
	data, err := r.store.Get(ctx, ref)
	if err != nil {
		return nil, err
	}

	var env PanelEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("corrupt panel envelope %s: %w", ref, err)
	}
	if env.Schema != EnvelopeSchema {
		return nil, fmt.Errorf("panel envelope %s: unsupported schema %q", ref, env.Schema)
	}
	return &env, nil
}

// Payload loads the raster blob an envelope points at. The store has
// already verified the bytes against the payload ref; the length check
// catches an envelope edited after the fact.
func (r *Registry) Payload(ctx context.Context, env *PanelEnvelope) ([]byte, error) {
	if env == nil || env.PayloadRef == "" {
		return nil, errors.New("panel envelope has no payload ref")
	}
	data, err := r.store.Get(ctx, env.PayloadRef)
	if err != nil {
		return nil, err
	}
	if env.PayloadBytes != 0 && int64(len(data)) != env.PayloadBytes {
		return nil, fmt.Errorf("panel %s: payload is %d bytes, envelope recorded %d",
			env.PanelType, len(data), env.PayloadBytes)
	}
	return data, nil
}

// Resolve loads an envelope and its raster in one step.
func (r *Registry) Resolve(ctx context.Context, ref string) (*PanelEnvelope, []byte, error) {
	env, err := r.GetPanel(ctx, ref)
	if err != nil {
		return nil, nil, err
	}
	payload, err := r.Payload(ctx, env)
	if err != nil {
		return nil, nil, err
	}
	return env, payload, nil
}
