package schema

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/graphgate/graphgate/internal/telemetry"
)

// ValidationError reports everything wrong with a vertex payload in one
// pass, so the caller can fix the input without replaying the request
// per field.
type ValidationError struct {
	// MissingRequired lists declared required attributes absent from the
	// payload.
	MissingRequired []string

	// TypeMismatches maps attribute names to the declared data type the
	// supplied value did not match.
	TypeMismatches map[string]string

	// UnknownAttributes lists payload attributes not declared on the
	// type. Only populated in closed-schema mode.
	UnknownAttributes []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.MissingRequired) > 0 {
		parts = append(parts, fmt.Sprintf("missing required attributes: %s", strings.Join(e.MissingRequired, ", ")))
	}
	for _, name := range sortedKeys(e.TypeMismatches) {
		parts = append(parts, fmt.Sprintf("attribute %q must be a %s", name, e.TypeMismatches[name]))
	}
	if len(e.UnknownAttributes) > 0 {
		parts = append(parts, fmt.Sprintf("unknown attributes: %s", strings.Join(e.UnknownAttributes, ", ")))
	}
	return strings.Join(parts, "; ")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidateVertexPayload checks a vertex payload against the attribute set
// declared on the node type. Every required attribute must be present and
// every supplied value must match its declared data type. Unknown
// attribute names pass by default; in closed-schema mode they are
// rejected. Returns a *ValidationError describing all violations at once,
// or nil if the payload is valid.
func (c *Catalog) ValidateVertexPayload(ctx context.Context, typeID uuid.UUID, values map[string]any) error {
	attrs, err := c.schema.ListAttributes(ctx, typeID)
	if err != nil {
		return fmt.Errorf("failed to load attributes: %w", err)
	}

	declared := make(map[string]struct{}, len(attrs))
	verr := &ValidationError{TypeMismatches: make(map[string]string)}

	for _, attr := range attrs {
		declared[attr.Name] = struct{}{}

		value, present := values[attr.Name]
		if !present {
			if attr.Required {
				verr.MissingRequired = append(verr.MissingRequired, attr.Name)
			}
			continue
		}

		if !matchesDataType(attr.DataType, value) {
			verr.TypeMismatches[attr.Name] = attr.DataType
		}
	}

	if c.cfg.ClosedSchema {
		for name := range values {
			if _, ok := declared[name]; !ok {
				verr.UnknownAttributes = append(verr.UnknownAttributes, name)
			}
		}
		sort.Strings(verr.UnknownAttributes)
	}

	sort.Strings(verr.MissingRequired)

	if len(verr.MissingRequired) > 0 || len(verr.TypeMismatches) > 0 || len(verr.UnknownAttributes) > 0 {
		telemetry.GetMetrics().ValidationFailuresTotal.Add(ctx, 1)
		return verr
	}

	return nil
}

// matchesDataType reports whether a runtime value's kind matches the
// declared data type. JSON decoding hands numbers over as float64, so
// integer acceptance checks the value is integral rather than the Go
// type.
func matchesDataType(dataType string, value any) bool {
	switch dataType {
	case DataTypeString:
		_, ok := value.(string)
		return ok

	case DataTypeInteger:
		switch v := value.(type) {
		case int, int32, int64:
			return true
		case float64:
			return v == math.Trunc(v)
		case float32:
			return float64(v) == math.Trunc(float64(v))
		default:
			return false
		}

	case DataTypeFloat:
		switch value.(type) {
		case float32, float64, int, int32, int64:
			return true
		default:
			return false
		}

	case DataTypeBoolean:
		_, ok := value.(bool)
		return ok

	case DataTypeTimestamp:
		switch v := value.(type) {
		case time.Time:
			return true
		case string:
			_, err := time.Parse(time.RFC3339, v)
			return err == nil
		default:
			return false
		}

	default:
		return false
	}
}
