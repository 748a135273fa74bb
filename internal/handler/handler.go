package handler

import (
	"time"

	"warcalendar/backend/internal/auth"
	"warcalendar/backend/internal/hub"
	"warcalendar/backend/internal/store"

	"github.com/rs/zerolog"
)

// Handler serves the tag, event, token and change-feed routes.
type Handler struct {
	Tags     *store.TagStore
	Events   *store.EventStore
	Hub      *hub.Hub
	Verifier *auth.Verifier
	TokenTTL time.Duration
	Now      func() time.Time
	Log      zerolog.Logger
}

func New(tags *store.TagStore, events *store.EventStore, h *hub.Hub, v *auth.Verifier, tokenTTL time.Duration, log zerolog.Logger) *Handler {
	useJSONFieldNames()
	return &Handler{
		Tags:     tags,
		Events:   events,
		Hub:      h,
		Verifier: v,
		TokenTTL: tokenTTL,
		Now:      time.Now,
		Log:      log,
	}
}

// publish notifies change-feed subscribers. Failures are logged only.
func (h *Handler) publish(kind string, payload any) {
	if h.Hub == nil {
		return
	}
	if err := h.Hub.Broadcast(hub.Message{Type: kind, Payload: payload}); err != nil {
		h.Log.Warn().Err(err).Str("type", kind).Msg("change notification dropped")
	}
}
