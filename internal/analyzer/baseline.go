package analyzer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// BaselineEntry holds the accepted-as-good reference values for one
// endpoint of one service.
type BaselineEntry struct {
	ExpectedRPS   float64  `json:"expected_rps"`
	ExpectedP95Ms float64  `json:"expected_p95_ms"`
	ExpectedP99Ms float64  `json:"expected_p99_ms"`
	MaxCPUPercent float64  `json:"max_cpu_percent"`
	MaxMemoryMB   float64  `json:"max_memory_mb"`
	MaxErrorRate  float64  `json:"max_error_rate"`
	Tags          []string `json:"tags,omitempty"`
}

// BaselineDocument is the versioned baseline file, keyed
// service -> endpoint -> entry. It is read-only during analysis.
type BaselineDocument struct {
	Version   string                              `json:"version"`
	CreatedAt time.Time                           `json:"created_at"`
	Services  map[string]map[string]BaselineEntry `json:"services"`
}

// baselineSchema validates the document shape before it is trusted.
const baselineSchema = `{
	"type": "object",
	"required": ["version", "services"],
	"properties": {
		"version": {"type": "string", "minLength": 1},
		"created_at": {"type": "string"},
		"services": {
			"type": "object",
			"additionalProperties": {
				"type": "object",
				"additionalProperties": {
					"type": "object",
					"required": ["expected_rps"],
					"properties": {
						"expected_rps": {"type": "number", "minimum": 0},
						"expected_p95_ms": {"type": "number", "minimum": 0},
						"expected_p99_ms": {"type": "number", "minimum": 0},
						"max_cpu_percent": {"type": "number", "minimum": 0, "maximum": 100},
						"max_memory_mb": {"type": "number", "minimum": 0},
						"max_error_rate": {"type": "number", "minimum": 0, "maximum": 1},
						"tags": {"type": "array", "items": {"type": "string"}}
					}
				}
			}
		}
	}
}`

// ParseBaseline validates and parses a baseline document. A malformed
// document returns an explicit error and is never partially applied.
func ParseBaseline(data []byte) (*BaselineDocument, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(baselineSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("analyzer: baseline is not valid JSON: %w", err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("analyzer: baseline failed schema validation: %v", result.Errors())
	}

	var doc BaselineDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("analyzer: parse baseline: %w", err)
	}
	if len(doc.Services) == 0 {
		return nil, fmt.Errorf("analyzer: baseline %q defines no services", doc.Version)
	}
	return &doc, nil
}

// Lookup returns the entry for a service endpoint, if present.
func (d *BaselineDocument) Lookup(service, endpoint string) (BaselineEntry, bool) {
	endpoints, ok := d.Services[service]
	if !ok {
		return BaselineEntry{}, false
	}
	entry, ok := endpoints[endpoint]
	return entry, ok
}

// Marshal renders the document for persistence.
func (d *BaselineDocument) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("analyzer: marshal baseline: %w", err)
	}
	return data, nil
}
