package output

import (
	"bytes"
	"encoding/json"

	"github.com/jamesainslie/rig/pkg/rig/types"
)

// document is the structure shared by the json and yaml formatters.
type document struct {
	Version   string        `json:"version" yaml:"version"`
	Type      string        `json:"type,omitempty" yaml:"type,omitempty"`
	Platform  string        `json:"platform" yaml:"platform"`
	Root      string        `json:"root" yaml:"root"`
	MainClass string        `json:"main_class" yaml:"main_class"`
	Runtime   Runtime       `json:"runtime" yaml:"runtime"`
	Summary   []KindSummary `json:"summary" yaml:"summary"`
	TotalSize int64         `json:"total_size" yaml:"total_size"`
	Items     []types.Item  `json:"items" yaml:"items"`
}

func buildDocument(r *Result) document {
	items := r.Items
	if items == nil {
		items = []types.Item{}
	}
	return document{
		Version:   r.Version,
		Type:      r.Type,
		Platform:  r.Platform,
		Root:      r.Root,
		MainClass: r.MainClass,
		Runtime:   r.Runtime,
		Summary:   r.Summary(),
		TotalSize: r.TotalSize(),
		Items:     items,
	}
}

// JSONFormatter formats the plan as a single indented JSON object.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildDocument(r))
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

var _ Formatter = (*JSONFormatter)(nil)
