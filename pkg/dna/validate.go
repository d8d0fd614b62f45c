package dna

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// buildingSchema is the ingestion contract for authored descriptions.
// It is deliberately permissive about solver-emitted walls and openings
// (their points arrive in two encodings) and strict about the authored
// core.
const buildingSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["dimensions"],
  "properties": {
    "id": {"type": "string"},
    "style": {"type": "string"},
    "projectType": {"type": "string"},
    "notes": {"type": "string"},
    "dimensions": {
      "type": "object",
      "properties": {
        "lengthM": {"type": "number", "minimum": 0},
        "widthM": {"type": "number", "minimum": 0},
        "heightM": {"type": "number", "minimum": 0},
        "floors": {"type": "integer", "minimum": 0},
        "floorHeightsM": {"type": "array", "items": {"type": "number", "exclusiveMinimum": 0}}
      }
    },
    "materials": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "application"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "color": {"type": "string"},
          "application": {"type": "string", "minLength": 1}
        }
      }
    },
    "rooms": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "floor": {"type": "integer", "minimum": 0},
          "areaM2": {"type": "number", "minimum": 0},
          "widthM": {"type": "number", "minimum": 0},
          "depthM": {"type": "number", "minimum": 0}
        }
      }
    },
    "walls": {"type": "array"},
    "openings": {"type": "array"}
  }
}`

const schemaURL = "https://maquette.schemas.local/building-description.schema.json"

// ValidationError represents a specific ingestion failure.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Field, e.Message, e.Code)
}

// ValidationResult contains the outcome of description validation.
// Fingerprint is set only when the input is valid.
type ValidationResult struct {
	Valid       bool              `json:"valid"`
	Errors      []ValidationError `json:"errors,omitempty"`
	Fingerprint string            `json:"fingerprint,omitempty"`
}

// Validator checks raw building-description payloads against the
// ingestion schema. The schema is compiled once at construction.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the ingestion schema.
func NewValidator() (*Validator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(schemaURL, strings.NewReader(buildingSchema)); err != nil {
		return nil, fmt.Errorf("dna: schema load failed: %w", err)
	}
	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("dna: schema compile failed: %w", err)
	}
	return &Validator{schema: compiled}, nil
}

// Validate checks a raw payload. It is fail-closed on shape: anything
// that is not a JSON object is invalid, and schema faults are collected
// rather than aborting on the first.
func (v *Validator) Validate(raw []byte) *ValidationResult {
	result := &ValidationResult{Valid: true}

	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		v.addError(result, "", "INVALID_JSON", err.Error())
		return result
	}

	obj, ok := generic.(map[string]interface{})
	if !ok {
		v.addError(result, "", "NOT_AN_OBJECT", "building description must be a JSON object")
		return result
	}

	if err := v.schema.Validate(obj); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			for _, leaf := range flattenCauses(ve) {
				v.addError(result, instanceField(leaf.InstanceLocation), "SCHEMA", leaf.Message)
			}
		} else {
			v.addError(result, "", "SCHEMA", err.Error())
		}
	}

	if result.Valid {
		if desc, err := Parse(raw); err == nil {
			if fp, err := Fingerprint(desc); err == nil {
				result.Fingerprint = fp
			}
		}
	}

	return result
}

func (v *Validator) addError(result *ValidationResult, field, code, message string) {
	result.Valid = false
	result.Errors = append(result.Errors, ValidationError{
		Field:   field,
		Code:    code,
		Message: message,
	})
}

// Parse decodes a raw payload into a BuildingDescription. Top-level
// non-objects are rejected; use Validator.Validate for field-level
// diagnostics.
func Parse(raw []byte) (BuildingDescription, error) {
	var desc BuildingDescription
	if err := json.Unmarshal(raw, &desc); err != nil {
		return BuildingDescription{}, fmt.Errorf("dna: parse description: %w", err)
	}
	return desc, nil
}

// flattenCauses walks a schema error tree and returns its leaves, which
// carry the actionable messages.
func flattenCauses(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var leaves []*jsonschema.ValidationError
	for _, c := range ve.Causes {
		leaves = append(leaves, flattenCauses(c)...)
	}
	return leaves
}

func instanceField(loc string) string {
	return strings.TrimPrefix(strings.ReplaceAll(loc, "/", "."), ".")
}
