package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"messenger/internal/pubsub"
	"messenger/pkg/logger"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// SubscriptionHandler streams bus events of one kind to a websocket client.
type SubscriptionHandler struct {
	bus *pubsub.Bus
	log logger.Logger
}

func NewSubscriptionHandler(bus *pubsub.Bus, log logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		bus: bus,
		log: log,
	}
}

func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	kind, ok := pubsub.ParseKind(c.Query("kind"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown subscription kind"})
		return
	}

	filter := pubsub.RecipientFilter
	if kind == pubsub.KindUserActivityChanged {
		filter = pubsub.AllFilter
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	events := h.bus.Subscribe(ctx, kind, pubsub.Params{UserID: userID}, filter)
	h.log.Info("Subscription opened", "user_id", userID, "kind", kind)

	// The client sends nothing; reading only detects the close.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for event := range events {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(event); err != nil {
			h.log.Warn("Failed to write event", "error", err, "user_id", userID)
			break
		}
	}
	cancel()
	h.log.Info("Subscription closed", "user_id", userID, "kind", kind)
}
