package scenario

import (
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// build converts a validated message spec into its LINE wire type.
func (t *Table) build(m *Message, baseURL string) messaging_api.MessageInterface {
	switch m.Kind {
	case KindButtons:
		return buttonsMessage(t.altText, m)
	case KindConfirm:
		return confirmMessage(t.altText, m)
	case KindCarousel:
		return carouselMessage(t.altText, baseURL, m)
	case KindImage:
		return imageMessage(baseURL + m.Path)
	default:
		return textMessage(m)
	}
}

func textMessage(m *Message) *messaging_api.TextMessage {
	msg := &messaging_api.TextMessage{Text: m.Body}
	if len(m.QuickReplies) > 0 {
		items := make([]messaging_api.QuickReplyItem, len(m.QuickReplies))
		for i, o := range m.QuickReplies {
			items[i] = messaging_api.QuickReplyItem{Action: messageAction(o)}
		}
		msg.QuickReply = &messaging_api.QuickReply{Items: items}
	}
	return msg
}

func buttonsMessage(altText string, m *Message) *messaging_api.TemplateMessage {
	return &messaging_api.TemplateMessage{
		AltText: altText,
		Template: &messaging_api.ButtonsTemplate{
			Title:   m.Title,
			Text:    m.Body,
			Actions: messageActions(m.Options),
		},
	}
}

func confirmMessage(altText string, m *Message) *messaging_api.TemplateMessage {
	return &messaging_api.TemplateMessage{
		AltText: altText,
		Template: &messaging_api.ConfirmTemplate{
			Text: m.Body,
			Actions: messageActions([]Option{
				{Label: m.Affirmative, Trigger: m.Affirmative},
				{Label: m.Negative, Trigger: m.Negative},
			}),
		},
	}
}

func carouselMessage(altText, baseURL string, m *Message) *messaging_api.TemplateMessage {
	columns := make([]messaging_api.CarouselColumn, len(m.Columns))
	for i, c := range m.Columns {
		var action messaging_api.ActionInterface
		if c.Link != nil {
			action = &messaging_api.UriAction{Label: c.Link.Label, Uri: c.Link.URI}
		} else {
			action = messageAction(*c.Action)
		}
		columns[i] = messaging_api.CarouselColumn{
			ThumbnailImageUrl: baseURL + c.Thumbnail,
			Title:             c.Title,
			Text:              c.Body,
			Actions:           []messaging_api.ActionInterface{action},
		}
	}
	return &messaging_api.TemplateMessage{
		AltText:  altText,
		Template: &messaging_api.CarouselTemplate{Columns: columns},
	}
}

// imageMessage uses the same URL for the original and the preview.
func imageMessage(url string) *messaging_api.ImageMessage {
	return &messaging_api.ImageMessage{
		OriginalContentUrl: url,
		PreviewImageUrl:    url,
	}
}

func messageAction(o Option) *messaging_api.MessageAction {
	return &messaging_api.MessageAction{Label: o.Label, Text: o.Trigger}
}

func messageActions(opts []Option) []messaging_api.ActionInterface {
	actions := make([]messaging_api.ActionInterface, len(opts))
	for i, o := range opts {
		actions[i] = messageAction(o)
	}
	return actions
}
