package render

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/agrosense/plant-health/internal/reporting"
)

// EncodePayload writes the archive form of a payload: indented UTF-8 JSON
// without HTML escaping.
func EncodePayload(p reporting.Payload) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// JSONRenderer produces the archived JSON form.
type JSONRenderer struct{}

func (JSONRenderer) Format() Format      { return FormatJSON }
func (JSONRenderer) ContentType() string { return "application/json" }

func (JSONRenderer) Render(in Input) ([]byte, error) {
	return EncodePayload(in.Payload)
}
