package line

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// Client sends messages through the LINE Messaging API.
type Client struct {
	api *messaging_api.MessagingApiAPI
}

// Option configures the underlying SDK client.
type Option = messaging_api.MessagingApiAPIOption

// WithEndpoint points the client at a different API host.
func WithEndpoint(endpoint string) Option {
	return messaging_api.WithEndpoint(endpoint)
}

func NewClient(channelToken string, opts ...Option) (*Client, error) {
	opts = append([]Option{messaging_api.WithHTTPClient(&http.Client{Timeout: 15 * time.Second})}, opts...)
	api, err := messaging_api.NewMessagingApiAPI(channelToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating messaging api client: %w", err)
	}
	return &Client{api: api}, nil
}

// Reply answers an inbound event. A reply token is valid for one call only.
func (c *Client) Reply(ctx context.Context, replyToken string, msgs []messaging_api.MessageInterface) error {
	_, err := c.bind(ctx).ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages:   msgs,
	})
	if err != nil {
		return fmt.Errorf("reply: %w", err)
	}
	return nil
}

// Push sends msgs to a user outside the reply flow. Each call carries a fresh
// retry key so the platform can drop accidental duplicates.
func (c *Client) Push(ctx context.Context, userID string, msgs []messaging_api.MessageInterface) error {
	_, err := c.bind(ctx).PushMessage(&messaging_api.PushMessageRequest{
		To:       userID,
		Messages: msgs,
	}, uuid.NewString())
	if err != nil {
		return fmt.Errorf("push: %w", err)
	}
	return nil
}

// bind returns a per-call copy of the SDK client: WithContext stores the
// context on its receiver, so the shared client must not be touched.
func (c *Client) bind(ctx context.Context) *messaging_api.MessagingApiAPI {
	api := *c.api
	return api.WithContext(ctx)
}
