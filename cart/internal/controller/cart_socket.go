package controller

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Alturino/sneakerzone/cart/pkg/response"
	"github.com/Alturino/sneakerzone/internal"
	"github.com/Alturino/sneakerzone/internal/log"
	"github.com/Alturino/sneakerzone/internal/otel"
)

const writeWait = 10 * time.Second

// newUpgrader accepts handshakes from allowedOrigins only. With no origins configured it falls
// back to the websocket package's same-origin check.
func newUpgrader(allowedOrigins []string) *websocket.Upgrader {
	upgrader := &websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024}
	if len(allowedOrigins) == 0 {
		return upgrader
	}

	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[strings.ToLower(strings.TrimSuffix(origin, "/"))] = struct{}{}
	}
	upgrader.CheckOrigin = func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[strings.ToLower(origin)]
		return ok
	}
	return upgrader
}

// Watch streams the session's cart over a websocket: the current cart first, then every change.
func (ctrl CartController) Watch(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController Watch")
	defer span.End()

	session, _ := internal.SessionFromContext(c)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController Watch").
		Str(log.KeySessionID, session.ID.String()).
		Logger()

	conn, err := ctrl.upgrader.Upgrade(w, r, nil)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	defer conn.Close()

	// holds at most the latest cart; a slow reader skips intermediate snapshots
	updates := make(chan response.Cart, 1)
	push := func(cart response.Cart) {
		for {
			select {
			case updates <- cart:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	}

	store := ctrl.service.Store(logger.WithContext(c), session.ID)
	token := store.Subscribe(push)
	defer store.Unsubscribe(token)
	push(store.Cart())
	logger = logger.With().Uint64(log.KeySubscription, uint64(token)).Logger()
	logger.Info().Msg("watching cart")

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			logger.Info().Msg("stopped watching cart")
			return
		case <-c.Done():
			_ = conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait),
			)
			return
		case cart := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(cart); err != nil {
				otel.RecordError(err, span)
				logger.Warn().Err(err).Msg("failed pushing cart")
				return
			}
		}
	}
}
