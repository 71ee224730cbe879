package slackapi

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/attendance-bot/internal/domain/identity"
	"github.com/cmlabs-hris/attendance-bot/internal/domain/notification"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/upstream"
	"github.com/slack-go/slack"
)

// Client wraps the Slack Web API. Every call goes through the upstream
// retry policy.
type Client struct {
	api    *slack.Client
	policy upstream.Policy
}

func NewClient(token string, policy upstream.Policy, opts ...slack.Option) *Client {
	return &Client{
		api:    slack.New(token, opts...),
		policy: policy,
	}
}

// Lookup implements identity.Directory with users.info.
func (c *Client) Lookup(ctx context.Context, userID string) (identity.Profile, error) {
	user, err := upstream.Value(ctx, c.policy, "slack users.info", func(ctx context.Context) (*slack.User, error) {
		u, err := c.api.GetUserInfoContext(ctx, userID)
		return u, classify(err)
	})
	if err != nil {
		return identity.Profile{}, notFound(err)
	}
	return profileOf(user), nil
}

// LookupByEmail implements identity.Directory with users.lookupByEmail.
func (c *Client) LookupByEmail(ctx context.Context, email string) (identity.Profile, error) {
	user, err := upstream.Value(ctx, c.policy, "slack users.lookupByEmail", func(ctx context.Context) (*slack.User, error) {
		u, err := c.api.GetUserByEmailContext(ctx, email)
		return u, classify(err)
	})
	if err != nil {
		return identity.Profile{}, notFound(err)
	}
	return profileOf(user), nil
}

// Send implements notification.Sender. The recipient's user ID is used as
// the channel, which lands in the bot's direct message with them.
func (c *Client) Send(ctx context.Context, n notification.Notification) error {
	opts := []slack.MsgOption{
		slack.MsgOptionText(n.Title, false),
		slack.MsgOptionBlocks(Blocks(n)...),
	}
	return upstream.Call(ctx, c.policy, "slack chat.postMessage", func(ctx context.Context) error {
		_, _, err := c.api.PostMessageContext(ctx, n.RecipientID, opts...)
		return classify(err)
	})
}

// Respond delivers a deferred reply to a slash command or interaction
// response_url.
func (c *Client) Respond(ctx context.Context, responseURL string, reply Reply) error {
	msg := reply.WebhookMessage()
	return upstream.Call(ctx, c.policy, "slack response_url", func(ctx context.Context) error {
		return classify(slack.PostWebhookContext(ctx, responseURL, &msg))
	})
}

// Blocks renders n as a section followed by its buttons, if any.
func Blocks(n notification.Notification) []slack.Block {
	text := n.Message
	if n.Title != "" {
		text = "*" + n.Title + "*\n" + text
	}
	blocks := []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil),
	}
	if len(n.Actions) == 0 {
		return blocks
	}

	elements := make([]slack.BlockElement, 0, len(n.Actions))
	for _, a := range n.Actions {
		btn := slack.NewButtonBlockElement(a.ID, a.Value, slack.NewTextBlockObject(slack.PlainTextType, a.Text, false, false))
		if a.Style != notification.StyleDefault {
			btn = btn.WithStyle(slack.Style(a.Style))
		}
		elements = append(elements, btn)
	}
	return append(blocks, slack.NewActionBlock(string(n.Type), elements...))
}

// DisplayName picks the profile display name, then the real name, then the
// handle.
func DisplayName(u *slack.User) string {
	for _, name := range []string{u.Profile.DisplayName, u.RealName, u.Profile.RealName, u.Name} {
		if name = strings.TrimSpace(name); name != "" {
			return name
		}
	}
	return identity.UnknownName
}

func profileOf(u *slack.User) identity.Profile {
	return identity.Profile{
		ID:          u.ID,
		DisplayName: DisplayName(u),
		Email:       u.Profile.Email,
	}
}

// classify marks Slack API errors that retrying cannot fix as permanent.
// Rate limits, 5xx responses and transport errors stay retryable.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var rateLimited *slack.RateLimitedError
	if errors.As(err, &rateLimited) {
		return err
	}

	var statusErr slack.StatusCodeError
	if errors.As(err, &statusErr) {
		if statusErr.Code >= 500 || statusErr.Code == 429 {
			return err
		}
		return upstream.Permanent(err)
	}

	var apiErr slack.SlackErrorResponse
	if errors.As(err, &apiErr) {
		return upstream.Permanent(err)
	}
	return err
}

func notFound(err error) error {
	var apiErr slack.SlackErrorResponse
	if errors.As(err, &apiErr) && (apiErr.Err == "user_not_found" || apiErr.Err == "users_not_found") {
		return fmt.Errorf("%w: %s", identity.ErrUserNotFound, apiErr.Err)
	}
	return err
}
