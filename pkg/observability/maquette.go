// Domain instrumentation helpers for panels, packs and gate decisions.
package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Semantic convention attributes for the geometry authority.
var (
	AttrProjectID = attribute.Key("maquette.project.id")
	AttrSheetID   = attribute.Key("maquette.sheet.id")
	AttrRunID     = attribute.Key("maquette.run.id")

	AttrPanelType     = attribute.Key("maquette.panel.type")
	AttrPanelCategory = attribute.Key("maquette.panel.category")
	AttrPanelCount    = attribute.Key("maquette.sheet.panel_count")

	AttrGeometryHash = attribute.Key("maquette.pack.geometry_hash")
	AttrDesignHash   = attribute.Key("maquette.pack.design_hash")

	AttrDecision   = attribute.Key("maquette.gate.decision")
	AttrDriftScore = attribute.Key("maquette.gate.drift_score")

	AttrStoreBackend = attribute.Key("maquette.artifacts.backend")
)

// GateOperation builds attributes for one gate evaluation.
func GateOperation(sheetID, runID string, panels int) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrSheetID.String(sheetID),
		AttrRunID.String(runID),
		AttrPanelCount.Int(panels),
	}
}

// PackOperation builds attributes for pack assembly.
func PackOperation(projectID, geometryHash string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrProjectID.String(projectID),
		AttrGeometryHash.String(geometryHash),
	}
}

// PanelOperation builds attributes for a single panel comparison.
func PanelOperation(panelType, category string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrPanelType.String(panelType),
		AttrPanelCategory.String(category),
	}
}

// SpanFromContext extracts the active span.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// AddSpanEvent adds an event to the active span.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}

// SetSpanStatus records err on the active span when non-nil.
func SetSpanStatus(ctx context.Context, err error) {
	if err != nil {
		trace.SpanFromContext(ctx).RecordError(err)
	}
}
