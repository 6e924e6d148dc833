// Package render turns a shaped payload and its detail rows into
// downloadable artifacts.
package render

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/agrosense/plant-health/internal/models"
	"github.com/agrosense/plant-health/internal/reporting"
)

// Format identifies an output artifact type. Its value doubles as the file
// extension.
type Format string

const (
	FormatJSON        Format = "json"
	FormatSpreadsheet Format = "xlsx"
	FormatDocument    Format = "pdf"
)

// ErrFormatUnavailable is returned for formats that were not registered at
// startup.
var ErrFormatUnavailable = errors.New("render format unavailable")

// Input is everything a renderer needs for one report.
type Input struct {
	Report   models.Report
	Payload  reporting.Payload
	Details  reporting.Details
	Location *time.Location
}

func (in Input) location() *time.Location {
	if in.Location == nil {
		return time.UTC
	}
	return in.Location
}

// Renderer serializes an Input into one artifact format.
type Renderer interface {
	Format() Format
	ContentType() string
	Render(in Input) ([]byte, error)
}

// Registry holds the renderers enabled for this process.
type Registry struct {
	renderers map[Format]Renderer
}

// NewRegistry registers the given renderers.
func NewRegistry(renderers ...Renderer) *Registry {
	r := &Registry{renderers: make(map[Format]Renderer)}
	for _, rnd := range renderers {
		r.Register(rnd)
	}
	return r
}

// Register adds or replaces the renderer for its format.
func (r *Registry) Register(rnd Renderer) {
	r.renderers[rnd.Format()] = rnd
}

// Lookup returns the renderer for format.
func (r *Registry) Lookup(format Format) (Renderer, error) {
	rnd, ok := r.renderers[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFormatUnavailable, format)
	}
	return rnd, nil
}

// Formats lists the registered formats in a stable order.
func (r *Registry) Formats() []Format {
	out := make([]Format, 0, len(r.renderers))
	for f := range r.renderers {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// FileName is the download name of a report artifact.
func FileName(reportID int64, format Format) string {
	return fmt.Sprintf("report_%d.%s", reportID, format)
}
