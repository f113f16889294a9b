package scenario

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed scenarios.yaml
var defaultTable []byte

type document struct {
	AltText   string      `yaml:"alt_text"`
	Fallback  Scenario    `yaml:"fallback"`
	Scenarios []Scenario  `yaml:"scenarios"`
	Floors    floorGuides `yaml:"floors"`
}

// floorGuides expands into one scenario per item: push the floor's account
// image and the shared pushes, then reply with the shared menu.
type floorGuides struct {
	Pushes []Message   `yaml:"pushes"`
	Reply  *Message    `yaml:"reply"`
	Items  []floorItem `yaml:"items"`
}

type floorItem struct {
	Trigger string `yaml:"trigger"`
	Image   string `yaml:"image"`
}

// Load reads the scenario table from path, or the built-in table when path
// is empty.
func Load(path string) (*Table, error) {
	if path == "" {
		return Parse(defaultTable)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}
	return Parse(data)
}

// Default returns the built-in table.
func Default() (*Table, error) {
	return Parse(defaultTable)
}

// Parse decodes a YAML scenario document and registers it. Unknown keys are
// rejected so a typo cannot silently drop a field.
func Parse(data []byte) (*Table, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing scenario yaml: %w", err)
	}

	scenarios := append([]Scenario(nil), doc.Scenarios...)
	scenarios = append(scenarios, doc.Floors.expand()...)
	return NewTable(doc.AltText, doc.Fallback, scenarios)
}

func (f floorGuides) expand() []Scenario {
	out := make([]Scenario, 0, len(f.Items))
	for _, item := range f.Items {
		out = append(out, Scenario{
			Trigger: item.Trigger,
			Pushes:  append([]Message{{Kind: KindImage, Path: item.Image}}, f.Pushes...),
			Reply:   f.Reply,
		})
	}
	return out
}
