// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidateAgainstSchema validates a Go value (struct or map) against a JSON
// schema expressed as a map. Used for outbound event payloads whose shape is a
// published contract for downstream consumers.
func ValidateAgainstSchema(data interface{}, schemaMap map[string]interface{}) error {
	schemaLoader := gojsonschema.NewGoLoader(schemaMap)
	documentLoader := gojsonschema.NewGoLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("payload does not match schema: %s", strings.Join(msgs, "; "))
	}

	return nil
}
