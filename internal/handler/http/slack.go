package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-bot/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/slackapi"
	"github.com/cmlabs-hris/attendance-bot/internal/service/command"
	"github.com/go-chi/chi/v5"
	"github.com/slack-go/slack"
)

type SlackHandler interface {
	// Command handles POST /slack/commands and /slack/command/{command}
	Command(w http.ResponseWriter, r *http.Request)
	// Interaction handles POST /slack/interactions
	Interaction(w http.ResponseWriter, r *http.Request)
}

type slackHandlerImpl struct {
	dispatcher *command.Dispatcher
}

func NewSlackHandler(dispatcher *command.Dispatcher) SlackHandler {
	return &slackHandlerImpl{
		dispatcher: dispatcher,
	}
}

// Command implements SlackHandler.
func (h *slackHandlerImpl) Command(w http.ResponseWriter, r *http.Request) {
	sc, err := slack.SlashCommandParse(r)
	if err != nil {
		slog.Error("Failed to parse slash command", "error", err)
		response.BadRequest(w, "Invalid slash command payload", nil)
		return
	}

	// The per-command route wins over the form field.
	if name := chi.URLParam(r, "command"); name != "" {
		sc.Command = name
	}

	reply := h.dispatcher.Dispatch(r.Context(), command.Invocation{
		Command:     sc.Command,
		Text:        sc.Text,
		UserID:      sc.UserID,
		UserName:    sc.UserName,
		ChannelID:   sc.ChannelID,
		ResponseURL: sc.ResponseURL,
	})
	writeReply(w, reply)
}

// Interaction implements SlackHandler. Slack only needs an empty 200 here;
// the outcome is posted to the response_url.
func (h *slackHandlerImpl) Interaction(w http.ResponseWriter, r *http.Request) {
	payload := r.FormValue("payload")
	if payload == "" {
		response.BadRequest(w, "Field 'payload' is required", nil)
		return
	}

	var cb slack.InteractionCallback
	if err := json.Unmarshal([]byte(payload), &cb); err != nil {
		slog.Error("Failed to unmarshal interaction payload", "error", err)
		response.BadRequest(w, "Invalid interaction payload", nil)
		return
	}

	if cb.Type != slack.InteractionTypeBlockActions || len(cb.ActionCallback.BlockActions) == 0 {
		slog.Debug("Ignoring interaction", "type", cb.Type)
		w.WriteHeader(http.StatusOK)
		return
	}

	action := cb.ActionCallback.BlockActions[0]
	h.dispatcher.HandleDecisionAsync(command.Decision{
		ActionID:    action.ActionID,
		RequestID:   action.Value,
		UserID:      cb.User.ID,
		ResponseURL: cb.ResponseURL,
	})
	w.WriteHeader(http.StatusOK)
}

func writeReply(w http.ResponseWriter, reply slackapi.Reply) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(reply.Msg()); err != nil {
		slog.Error("Failed to encode Slack reply", "error", err)
	}
}
