package artifacts

import (
	"errors"
	"fmt"
	"time"
)

// EnvelopeSchema versions the stored panel envelope format.
const EnvelopeSchema = "maquette/panel-envelope/v1"

// PanelEnvelope is the stored record of one rendered panel: the raster
// blob by ref plus the conditioning hashes the renderer claims it was
// generated under. The gate replays those claims against the
// authoritative pack, so an envelope is evidence, not truth.
type PanelEnvelope struct {
	Schema                   string    `json:"schema"`
	PanelType                string    `json:"panelType"`
	SheetID                  string    `json:"sheetId"`
	RunID                    string    `json:"runId,omitempty"`
	ContentType              string    `json:"contentType"`
	PayloadRef               string    `json:"payloadRef"`
	PayloadBytes             int64     `json:"payloadBytes"`
	ConditioningGeometryHash string    `json:"conditioningGeometryHash"`
	ConditioningDesignHash   string    `json:"conditioningDesignHash"`
	RenderedAt               time.Time `json:"renderedAt"`
}

// Validate checks the claim fields the gate cannot evaluate without.
// Payload fields are filled in at store time and are not checked here.
func (e *PanelEnvelope) Validate() error {
	if e == nil {
		return errors.New("nil panel envelope")
	}
	if e.PanelType == "" {
		return errors.New("panel envelope missing panel type")
	}
	if e.SheetID == "" {
		return errors.New("panel envelope missing sheet id")
	}
	if e.ConditioningGeometryHash == "" {
		return fmt.Errorf("panel %s: missing conditioning geometry hash", e.PanelType)
	}
	if e.ConditioningDesignHash == "" {
		return fmt.Errorf("panel %s: missing conditioning design hash", e.PanelType)
	}
	return nil
}
