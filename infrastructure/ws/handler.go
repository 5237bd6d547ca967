package ws

import (
	"log/slog"
	"net/http"

	"talkline/auth"
	"talkline/domain"
	"talkline/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades authenticated requests to websocket sessions.
type Handler struct {
	log        *slog.Logger
	chat       services.IChatService
	bufferSize int
}

func NewHandler(log *slog.Logger, chat services.IChatService, bufferSize int) *Handler {
	return &Handler{log: log, chat: chat, bufferSize: bufferSize}
}

// Serve authenticates the token query parameter, upgrades the connection
// and runs the session pumps. Rejections happen before the upgrade so the
// caller gets a plain HTTP status back.
func (h *Handler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("Upgrade failed", "error", err)
		return
	}

	identity := domain.Identity{UserID: claims.UserID, DisplayName: claims.DisplayName}
	client := newClient(h.log, conn, identity, h.chat, h.bufferSize)

	h.chat.Connect(identity.UserID, client.connID, client.sink)
	h.log.Debug("Connection opened", "user", identity.DisplayName, "conn", client.connID)

	go client.writePump()
	client.readPump()
}
