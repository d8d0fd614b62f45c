package artifacts

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func testEnvelope() *PanelEnvelope {
	return &PanelEnvelope{
		PanelType:                "elevation_north",
		SheetID:                  "sheet-7",
		RunID:                    "run-1",
		ConditioningGeometryHash: "sha256:aabbccddeeff00112233445566778899aabbccddeeff00112233445566778899",
		ConditioningDesignHash:   "5f2b9c0d1e3a5f2b9c0d1e3a5f2b9c0d1e3a5f2b9c0d1e3a5f2b9c0d1e3a5f2b",
		RenderedAt:               time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}
}

func TestRegistry_PutAndResolve(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	reg := NewRegistry(store)
	ctx := context.Background()
	payload := []byte("png bytes for the north elevation")

	env := testEnvelope()
	ref, err := reg.PutPanel(ctx, env, payload)
	if err != nil {
		t.Fatalf("PutPanel failed: %v", err)
	}

	got, gotPayload, err := reg.Resolve(ctx, ref)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.Schema != EnvelopeSchema {
		t.Errorf("schema = %q, want %q", got.Schema, EnvelopeSchema)
	}
	if got.PanelType != "elevation_north" || got.SheetID != "sheet-7" {
		t.Errorf("envelope claims lost: %+v", got)
	}
	if got.ContentType != "image/png" {
		t.Errorf("content type = %q, want image/png default", got.ContentType)
	}
	if got.PayloadBytes != int64(len(payload)) {
		t.Errorf("payload bytes = %d, want %d", got.PayloadBytes, len(payload))
	}
	if !bytes.Equal(gotPayload, payload) {
		t.Error("resolved payload differs from stored payload")
	}
}

func TestRegistry_DeterministicEnvelopeRef(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	reg := NewRegistry(store)
	ctx := context.Background()
	payload := []byte("stable raster")

	first, err := reg.PutPanel(ctx, testEnvelope(), payload)
	if err != nil {
		t.Fatalf("first PutPanel failed: %v", err)
	}
	second, err := reg.PutPanel(ctx, testEnvelope(), payload)
	if err != nil {
		t.Fatalf("second PutPanel failed: %v", err)
	}
	if first != second {
		t.Errorf("same claims stored twice gave refs %q and %q", first, second)
	}
}

func TestRegistry_RejectsIncompleteClaims(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	reg := NewRegistry(store)
	ctx := context.Background()

	if _, err := reg.PutPanel(ctx, nil, []byte("x")); err == nil {
		t.Error("nil envelope accepted")
	}

	noType := testEnvelope()
	noType.PanelType = ""
	if _, err := reg.PutPanel(ctx, noType, []byte("x")); err == nil {
		t.Error("envelope without panel type accepted")
	}

	noHash := testEnvelope()
	noHash.ConditioningGeometryHash = ""
	if _, err := reg.PutPanel(ctx, noHash, []byte("x")); err == nil {
		t.Error("envelope without geometry hash accepted")
	}

	if _, err := reg.PutPanel(ctx, testEnvelope(), nil); err == nil {
		t.Error("empty payload accepted")
	}
}

func TestRegistry_PayloadLimit(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	reg := NewRegistry(store, WithPayloadLimit(8))

	_, err = reg.PutPanel(context.Background(), testEnvelope(), []byte("nine bytes"))
	if err == nil {
		t.Fatal("oversized payload accepted")
	}
	if !strings.Contains(err.Error(), "limit") {
		t.Errorf("error %q does not mention the limit", err)
	}
}

func TestRegistry_GetPanelRejectsForeignBlob(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	reg := NewRegistry(store)
	ctx := context.Background()

	// A raw blob is not an envelope.
	ref, err := store.Store(ctx, []byte("not json"))
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if _, err := reg.GetPanel(ctx, ref); err == nil {
		t.Error("GetPanel decoded a non-envelope blob")
	}

	// Valid JSON with the wrong schema marker is still refused.
	other, err := store.Store(ctx, []byte(`{"schema":"something/else/v9"}`))
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if _, err := reg.GetPanel(ctx, other); err == nil {
		t.Error("GetPanel accepted a foreign schema")
	}
}
