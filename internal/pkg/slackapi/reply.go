package slackapi

import (
	"github.com/slack-go/slack"
)

// Reply is the answer to a slash command or button press.
type Reply struct {
	Text string
	// InChannel makes the reply visible to the whole channel instead of
	// only the caller.
	InChannel bool
	// ReplaceOriginal swaps the message that carried the pressed button.
	ReplaceOriginal bool
}

func (r Reply) responseType() string {
	if r.InChannel {
		return slack.ResponseTypeInChannel
	}
	return slack.ResponseTypeEphemeral
}

// Msg is the synchronous HTTP body Slack expects from a command handler.
func (r Reply) Msg() slack.Msg {
	return slack.Msg{
		Text:            r.Text,
		ResponseType:    r.responseType(),
		ReplaceOriginal: r.ReplaceOriginal,
	}
}

// WebhookMessage is the same reply posted later to a response_url.
func (r Reply) WebhookMessage() slack.WebhookMessage {
	return slack.WebhookMessage{
		Text:            r.Text,
		ResponseType:    r.responseType(),
		ReplaceOriginal: r.ReplaceOriginal,
	}
}
