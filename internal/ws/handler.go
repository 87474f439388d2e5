package ws

import (
	"context"
	"net/http"
	"time"

	"university-chat/backend/internal/models"
	"university-chat/backend/pkg/jwt"
	"university-chat/backend/pkg/logger"
	"university-chat/backend/pkg/observability"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Origin policy is enforced by the surrounding deployment
	},
	HandshakeTimeout: 10 * time.Second,
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
}

// Relay wires the pieces every session needs
type Relay struct {
	registry   *Registry
	store      MessageStore
	jwtService *jwt.Service
	presence   Presence
	metrics    *observability.RelayMetrics
	sendBuffer int
	log        *logger.Logger
}

// NewRelay creates the websocket entry point. presence and metrics may be nil.
func NewRelay(registry *Registry, store MessageStore, jwtService *jwt.Service,
	presence Presence, metrics *observability.RelayMetrics, log *logger.Logger) *Relay {
	return &Relay{
		registry:   registry,
		store:      store,
		jwtService: jwtService,
		presence:   presence,
		metrics:    metrics,
		sendBuffer: 256,
		log:        log.WithComponent("relay"),
	}
}

// ServeWs authenticates the connection and, on success, upgrades it and starts
// the session pumps. The session identity always comes from the verified
// token claim; identities in the path or query are never trusted.
func (r *Relay) ServeWs(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		// Fall back to a standard Authorization header for clients that
		// can set one on the handshake request
		if header := c.GetHeader("Authorization"); header != "" {
			stripped, err := jwt.StripBearer(header)
			if err != nil {
				c.JSON(http.StatusUnauthorized, models.Fail(http.StatusUnauthorized, "Invalid authentication scheme"))
				return
			}
			token = stripped
		}
	}

	claims, err := r.jwtService.ValidateToken(token)
	if err != nil {
		// Rejected before upgrade: no registry entry is ever created for
		// a failed authentication
		r.log.Warn("websocket auth rejected", "error", err.Error())
		c.JSON(http.StatusUnauthorized, models.Fail(http.StatusUnauthorized, "Invalid or expired token"))
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		r.log.Warn("websocket upgrade failed", "error", err.Error())
		return
	}

	client := &Client{
		identity: claims.UserID,
		conn:     conn,
		send:     make(chan []byte, r.sendBuffer),
		done:     make(chan struct{}),
		registry: r.registry,
		store:    r.store,
		presence: r.presence,
		metrics:  r.metrics,
		log:      r.log,
	}

	r.registry.Register(client.identity, client)
	if r.presence != nil {
		r.presence.MarkOnline(context.Background(), client.identity)
	}
	r.metrics.ConnectionOpened()

	go client.WritePump()
	go client.ReadPump()
}
