package scenario

import (
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"
)

// LINE Messaging API limits.
// Reference: https://developers.line.biz/en/reference/messaging-api/#template-messages
const (
	maxPushes       = 5
	maxButtons      = 4
	maxColumns      = 10
	maxQuickReplies = 13
	maxLabelRunes   = 20
	maxTitleRunes   = 40
	maxButtonsBody  = 160
	maxConfirmBody  = 240
	maxColumnBody   = 120
	maxTextBody     = 5000

	// Buttons and columns showing a title or thumbnail get less text.
	maxDecoratedBody = 60
)

// validateScenario checks one scenario in isolation. Cross-scenario checks
// (duplicates, dangling targets) live in NewTable.
func validateScenario(s *Scenario) []error {
	var errs []error
	if s.Trigger == "" {
		errs = append(errs, configErr(ProblemEmptyTrigger, "", "trigger must not be empty"))
	}
	if s.Reply == nil {
		errs = append(errs, configErr(ProblemMissingReply, s.Trigger, "every scenario ends with exactly one reply"))
	} else {
		errs = append(errs, validateMessage(s.Trigger, "reply", s.Reply)...)
	}
	if len(s.Pushes) > maxPushes {
		errs = append(errs, configErr(ProblemTooManyPushes, s.Trigger, "%d pushes, at most %d", len(s.Pushes), maxPushes))
	}
	for i := range s.Pushes {
		errs = append(errs, validateMessage(s.Trigger, pushName(i), &s.Pushes[i])...)
	}
	return errs
}

func validateMessage(trigger, where string, m *Message) []error {
	var errs []error
	add := func(p Problem, format string, args ...any) {
		errs = append(errs, configErr(p, trigger, where+": "+format, args...))
	}

	switch m.Kind {
	case KindText:
		if m.Body == "" || utf8.RuneCountInString(m.Body) > maxTextBody {
			add(ProblemMalformed, "text body must be 1-%d characters", maxTextBody)
		}
		if len(m.QuickReplies) > maxQuickReplies {
			add(ProblemOptionLimit, "%d quick replies, at most %d", len(m.QuickReplies), maxQuickReplies)
		}
		for _, o := range m.QuickReplies {
			errs = append(errs, validateOption(trigger, where, o)...)
		}

	case KindButtons:
		if m.Count != 0 && m.Count != len(m.Options) {
			add(ProblemCountMismatch, "declared %d buttons but listed %d", m.Count, len(m.Options))
		}
		if len(m.Options) == 0 || len(m.Options) > maxButtons {
			add(ProblemOptionLimit, "%d buttons, want 1-%d", len(m.Options), maxButtons)
		}
		if utf8.RuneCountInString(m.Title) > maxTitleRunes {
			add(ProblemMalformed, "title over %d characters", maxTitleRunes)
		}
		if limit := bodyLimit(maxButtonsBody, m.Title, ""); m.Body == "" || utf8.RuneCountInString(m.Body) > limit {
			add(ProblemMalformed, "buttons body must be 1-%d characters", limit)
		}
		for _, o := range m.Options {
			errs = append(errs, validateOption(trigger, where, o)...)
		}

	case KindConfirm:
		if m.Body == "" || utf8.RuneCountInString(m.Body) > maxConfirmBody {
			add(ProblemMalformed, "confirm body must be 1-%d characters", maxConfirmBody)
		}
		if m.Affirmative == "" || m.Negative == "" {
			add(ProblemOptionLimit, "confirm needs both affirmative and negative options")
		}
		for _, label := range []string{m.Affirmative, m.Negative} {
			if utf8.RuneCountInString(label) > maxLabelRunes {
				add(ProblemInvalidLabel, "label %q over %d characters", label, maxLabelRunes)
			}
		}

	case KindCarousel:
		if len(m.Columns) == 0 || len(m.Columns) > maxColumns {
			add(ProblemOptionLimit, "%d columns, want 1-%d", len(m.Columns), maxColumns)
		}
		for i, c := range m.Columns {
			if !isAssetPath(c.Thumbnail) {
				add(ProblemMalformed, "column %d: thumbnail %q must be an absolute path", i, c.Thumbnail)
			}
			if utf8.RuneCountInString(c.Title) > maxTitleRunes {
				add(ProblemMalformed, "column %d: title over %d characters", i, maxTitleRunes)
			}
			if limit := bodyLimit(maxColumnBody, c.Title, c.Thumbnail); c.Body == "" || utf8.RuneCountInString(c.Body) > limit {
				add(ProblemMalformed, "column %d: body must be 1-%d characters", i, limit)
			}
			switch {
			case c.Action != nil && c.Link != nil, c.Action == nil && c.Link == nil:
				add(ProblemMalformed, "column %d: needs exactly one of action or link", i)
			case c.Action != nil:
				errs = append(errs, validateOption(trigger, where, *c.Action)...)
			default:
				if c.Link.Label == "" || utf8.RuneCountInString(c.Link.Label) > maxLabelRunes {
					add(ProblemInvalidLabel, "column %d: link label must be 1-%d characters", i, maxLabelRunes)
				}
				if u, err := url.Parse(c.Link.URI); err != nil || u.Scheme != "https" || u.Host == "" {
					add(ProblemMalformed, "column %d: link %q must be an absolute https URL", i, c.Link.URI)
				}
			}
		}

	case KindImage:
		if !isAssetPath(m.Path) {
			add(ProblemMalformed, "image path %q must be an absolute path", m.Path)
		}

	default:
		add(ProblemMalformed, "unknown message kind %q", m.Kind)
	}
	return errs
}

func validateOption(trigger, where string, o Option) []error {
	var errs []error
	if o.Label == "" || utf8.RuneCountInString(o.Label) > maxLabelRunes {
		errs = append(errs, configErr(ProblemInvalidLabel, trigger, "%s: label %q must be 1-%d characters", where, o.Label, maxLabelRunes))
	}
	if o.Trigger == "" {
		errs = append(errs, configErr(ProblemMalformed, trigger, "%s: option %q sends empty text", where, o.Label))
	}
	return errs
}

func bodyLimit(plain int, title, thumbnail string) int {
	if title != "" || thumbnail != "" {
		return maxDecoratedBody
	}
	return plain
}

func isAssetPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//")
}

func pushName(i int) string {
	return "push[" + strconv.Itoa(i) + "]"
}
