// Package scenario holds the conversation flowchart: a read-only table of
// scenarios keyed by their exact trigger text, the resolver that maps inbound
// text to a scenario and the renderer that turns a scenario into LINE messages.
package scenario

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ID identifies a scenario. It is the scenario's trigger text.
type ID string

// Fallback is returned by Resolve when no trigger matches. Triggers can never
// be empty, so the zero ID is free to mean "render the top-level menu".
const Fallback ID = ""

// Kind tags a message specification.
type Kind string

const (
	KindText     Kind = "text"
	KindButtons  Kind = "buttons"
	KindConfirm  Kind = "confirm"
	KindCarousel Kind = "carousel"
	KindImage    Kind = "image"
)

// Scenario is one node of the flowchart.
type Scenario struct {
	Trigger string    `yaml:"trigger"`
	Pushes  []Message `yaml:"pushes,omitempty"`
	Reply   *Message  `yaml:"reply"`
}

// Message is a message specification. Which fields apply depends on Kind:
//
//	text:     Body, QuickReplies
//	buttons:  Title, Body, Count, Options
//	confirm:  Body, Affirmative, Negative
//	carousel: Columns
//	image:    Path
type Message struct {
	Kind Kind `yaml:"kind"`

	Title string `yaml:"title,omitempty"`
	Body  string `yaml:"body,omitempty"`

	// Count is the number of buttons the author meant to declare. Zero means
	// "not declared"; otherwise it must equal len(Options).
	Count   int      `yaml:"count,omitempty"`
	Options []Option `yaml:"options,omitempty"`

	QuickReplies []Option `yaml:"quick_replies,omitempty"`

	Affirmative string `yaml:"affirmative,omitempty"`
	Negative    string `yaml:"negative,omitempty"`

	Columns []Column `yaml:"columns,omitempty"`

	Path string `yaml:"path,omitempty"`
}

// Option is a tappable choice that sends Trigger back to the bot.
type Option struct {
	Label   string `yaml:"label"`
	Trigger string `yaml:"trigger"`
}

// UnmarshalYAML accepts either a mapping or a bare string. A bare string is
// used as both label and trigger, which is how most buttons are written.
func (o *Option) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		o.Label = value.Value
		o.Trigger = value.Value
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: option must be a string or a mapping", value.Line)
	}
	// Decoded by hand: value.Decode would not honour KnownFields.
	var p Option
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: option field %q must be a string", val.Line, key.Value)
		}
		switch key.Value {
		case "label":
			p.Label = val.Value
		case "trigger":
			p.Trigger = val.Value
		default:
			return fmt.Errorf("line %d: option: unknown field %q", key.Line, key.Value)
		}
	}
	*o = p
	return nil
}

// Column is one card of a carousel. Exactly one of Action or Link is set.
type Column struct {
	Thumbnail string  `yaml:"thumbnail"`
	Title     string  `yaml:"title"`
	Body      string  `yaml:"body"`
	Action    *Option `yaml:"action,omitempty"`
	Link      *Link   `yaml:"link,omitempty"`
}

// Link opens an external page instead of sending text.
type Link struct {
	Label string `yaml:"label"`
	URI   string `yaml:"uri"`
}

// targets lists every trigger text the message can send back when tapped.
func (m *Message) targets() []string {
	var out []string
	for _, o := range m.Options {
		out = append(out, o.Trigger)
	}
	for _, o := range m.QuickReplies {
		out = append(out, o.Trigger)
	}
	if m.Kind == KindConfirm {
		out = append(out, m.Affirmative, m.Negative)
	}
	for _, c := range m.Columns {
		if c.Action != nil {
			out = append(out, c.Action.Trigger)
		}
	}
	return out
}
