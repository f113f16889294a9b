package scenario

import (
	"errors"
	"strings"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// Table is the registered flowchart. It is built once by NewTable and never
// mutated afterwards, so it is safe for concurrent use without locking.
type Table struct {
	altText   string
	fallback  ID
	scenarios map[ID]*Scenario
	order     []ID
}

// Response is a rendered scenario: pushes are sent first, in order, then the
// single reply consumes the event's reply token.
type Response struct {
	Trigger string
	Pushes  []messaging_api.MessageInterface
	Reply   messaging_api.MessageInterface
}

// Messages returns the pushes followed by the reply.
func (r *Response) Messages() []messaging_api.MessageInterface {
	out := make([]messaging_api.MessageInterface, 0, len(r.Pushes)+1)
	out = append(out, r.Pushes...)
	return append(out, r.Reply)
}

// NewTable registers fallback and scenarios, validating the whole table.
// All problems are collected and returned joined; a table with any problem
// is never returned.
func NewTable(altText string, fallback Scenario, scenarios []Scenario) (*Table, error) {
	t := &Table{
		altText:   altText,
		fallback:  ID(fallback.Trigger),
		scenarios: make(map[ID]*Scenario, len(scenarios)+1),
	}

	var errs []error
	if strings.TrimSpace(altText) == "" {
		errs = append(errs, configErr(ProblemMalformed, "", "alt text must not be empty"))
	}

	all := append([]Scenario{fallback}, scenarios...)
	for i := range all {
		s := &all[i]
		errs = append(errs, validateScenario(s)...)
		if s.Trigger == "" {
			continue
		}
		id := ID(s.Trigger)
		if _, dup := t.scenarios[id]; dup {
			errs = append(errs, configErr(ProblemDuplicateTrigger, s.Trigger, "trigger registered more than once"))
			continue
		}
		t.scenarios[id] = s
		t.order = append(t.order, id)
	}

	for _, id := range t.order {
		s := t.scenarios[id]
		msgs := append([]Message(nil), s.Pushes...)
		if s.Reply != nil {
			msgs = append(msgs, *s.Reply)
		}
		for i := range msgs {
			for _, target := range msgs[i].targets() {
				if target == "" {
					continue
				}
				if _, ok := t.scenarios[ID(target)]; !ok {
					errs = append(errs, configErr(ProblemDanglingTarget, s.Trigger, "option sends %q, which no scenario handles", target))
				}
			}
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return t, nil
}

// Resolve maps inbound text to a scenario by exact, case-sensitive equality.
// Anything unregistered, including the empty string, resolves to Fallback.
func (t *Table) Resolve(text string) ID {
	if _, ok := t.scenarios[ID(text)]; ok {
		return ID(text)
	}
	return Fallback
}

// Render builds the LINE messages for id. baseURL prefixes every asset path
// and is the only input that is not part of the table.
func (t *Table) Render(id ID, baseURL string) (*Response, error) {
	if id == Fallback {
		id = t.fallback
	}
	s, ok := t.scenarios[id]
	if !ok {
		return nil, configErr(ProblemUnknownScenario, string(id), "not registered")
	}

	baseURL = strings.TrimRight(baseURL, "/")
	resp := &Response{
		Trigger: s.Trigger,
		Pushes:  make([]messaging_api.MessageInterface, 0, len(s.Pushes)),
	}
	for i := range s.Pushes {
		resp.Pushes = append(resp.Pushes, t.build(&s.Pushes[i], baseURL))
	}
	resp.Reply = t.build(s.Reply, baseURL)
	return resp, nil
}

// FallbackTrigger is the trigger of the scenario rendered for unknown text.
func (t *Table) FallbackTrigger() string { return string(t.fallback) }

// Triggers returns every registered trigger in registration order.
func (t *Table) Triggers() []string {
	out := make([]string, len(t.order))
	for i, id := range t.order {
		out[i] = string(id)
	}
	return out
}

// Scenario returns the registered record for id.
func (t *Table) Scenario(id ID) (Scenario, bool) {
	s, ok := t.scenarios[id]
	if !ok {
		return Scenario{}, false
	}
	return *s, true
}

// Len reports how many scenarios are registered, fallback included.
func (t *Table) Len() int { return len(t.order) }
