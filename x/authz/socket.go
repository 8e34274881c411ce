package authz

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/offbit-ai/zeal-auth/core"
)

// SocketMessage is the request frame clients send over an authorized
// streaming connection
type SocketMessage struct {
	Type     string   `json:"type"`
	Channels []string `json:"channels,omitempty"`
}

// Conn wraps a websocket connection with its authenticated subject. Writes
// go through the mutex; gorilla allows a single concurrent writer.
type Conn struct {
	ws      *websocket.Conn
	mutex   sync.Mutex
	Subject core.Subject
}

func (c *Conn) WriteJSON(value any) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.ws.WriteJSON(value)
}

// MessageHook screens an inbound frame before it takes effect. Returning an
// error reports it to the client and drops the frame.
type MessageHook func(ctx context.Context, conn *Conn, message *SocketMessage) error

// RateLimitHook throttles frames per subject
func RateLimitHook(limiter core.RateLimitService) MessageHook {
	return func(ctx context.Context, conn *Conn, message *SocketMessage) error {
		ok, err := limiter.IsAllowed(ctx, "socket:"+conn.Subject.ID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("rate limit exceeded")
		}
		return nil
	}
}

// ChannelAuthorizationHook authorizes every channel of a subscribe frame as
// a read on a channel resource
func ChannelAuthorizationHook(s Service) MessageHook {
	return func(ctx context.Context, conn *Conn, message *SocketMessage) error {
		if message.Type != "subscribe" {
			return nil
		}
		for _, channel := range message.Channels {
			result, err := s.Authorize(ctx, conn.Subject, core.Resource{Type: core.ResourceChannel, ID: channel}, core.Action{Name: core.ActionRead})
			if err != nil {
				return err
			}
			if !result.Allowed {
				return core.NewErrorPermissionDenied("channel " + channel + ": " + result.Reason)
			}
		}
		return nil
	}
}

// SocketHandler upgrades authorized clients to a websocket and relays the
// redis channels they subscribe to
type SocketHandler struct {
	service Service
	rdb     *redis.Client
	hooks   []MessageHook
}

func NewSocketHandler(service Service, rdb *redis.Client, hooks ...MessageHook) *SocketHandler {
	return &SocketHandler{
		service: service,
		rdb:     rdb,
		hooks:   hooks,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Connect authenticates the caller, authorizes the websocket connect and
// serves the subscribe loop. Browsers cannot set headers on websocket
// requests, so the token is also accepted as a query parameter.
func (h *SocketHandler) Connect(c echo.Context) error {
	ctx := c.Request().Context()

	token := c.QueryParam("token")
	if token == "" {
		token, _ = bearerToken(c.Request().Header.Get("authorization"))
	}
	if token == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"error": "authentication required",
		})
	}

	subject, err := h.service.ResolveSubject(ctx, token)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"error":  "authentication required",
			"detail": err.Error(),
		})
	}

	result, err := h.service.Authorize(ctx, subject, core.Resource{Type: core.ResourceWebsocket}, core.Action{Name: "connect"})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": err.Error(),
		})
	}
	if !result.Allowed {
		return c.JSON(http.StatusForbidden, echo.Map{
			"error":  "you are not authorized to perform this action",
			"detail": result.Reason,
		})
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return err
	}
	defer ws.Close()

	conn := &Conn{ws: ws, Subject: subject}

	pubsub := h.rdb.Subscribe(ctx)
	defer pubsub.Close()

	go func() {
		for {
			message, err := pubsub.ReceiveMessage(ctx)
			if err != nil {
				return
			}
			err = conn.WriteJSON(echo.Map{
				"type":    "message",
				"channel": message.Channel,
				"payload": message.Payload,
			})
			if err != nil {
				slog.Debug("websocket write failed", slog.String("error", err.Error()))
				return
			}
		}
	}()

	hooks := h.hooks
	if len(hooks) == 0 {
		hooks = []MessageHook{ChannelAuthorizationHook(h.service)}
	}

	for {
		var message SocketMessage
		err := ws.ReadJSON(&message)
		if err != nil {
			break
		}

		rejected := false
		for _, hook := range hooks {
			err = hook(ctx, conn, &message)
			if err != nil {
				conn.WriteJSON(echo.Map{
					"type":  "error",
					"error": err.Error(),
				})
				rejected = true
				break
			}
		}
		if rejected {
			continue
		}

		switch message.Type {
		case "subscribe":
			for _, channel := range message.Channels {
				err = pubsub.Subscribe(ctx, channelKey(subject.TenantID, channel))
				if err != nil {
					slog.Error("failed to subscribe",
						slog.String("channel", channel),
						slog.String("error", err.Error()),
					)
				}
			}
		case "unsubscribe":
			for _, channel := range message.Channels {
				err = pubsub.Unsubscribe(ctx, channelKey(subject.TenantID, channel))
				if err != nil {
					slog.Error("failed to unsubscribe",
						slog.String("channel", channel),
						slog.String("error", err.Error()),
					)
				}
			}
		case "ping":
			conn.WriteJSON(echo.Map{"type": "pong"})
		}
	}

	return nil
}

// channelKey namespaces redis channels per tenant so a subscription can
// never cross tenants even when a bare name slips through authorization
func channelKey(tenantID, channel string) string {
	return fmt.Sprintf("channel:%s:%s", tenantID, channel)
}
