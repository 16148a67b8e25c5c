package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alexanderramin/horae/internal/notify"
)

type registerPushRequest struct {
	Endpoint   string `json:"endpoint" binding:"required"`
	P256dhKey  string `json:"p256dh_key" binding:"required"`
	AuthKey    string `json:"auth_key" binding:"required"`
	UserAgent  string `json:"user_agent"`
	DeviceType string `json:"device_type"`
}

func (s *Server) registerPush(c *gin.Context) {
	var req registerPushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.bindError(c, err)
		return
	}
	sub, err := s.pusher.Register(c.Request.Context(), userID(c), notify.RegisterInput{
		Endpoint:   req.Endpoint,
		P256dhKey:  req.P256dhKey,
		AuthKey:    req.AuthKey,
		UserAgent:  req.UserAgent,
		DeviceType: req.DeviceType,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": sub.ID, "endpoint": sub.Endpoint})
}

type unregisterPushRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

func (s *Server) unregisterPush(c *gin.Context) {
	var req unregisterPushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.bindError(c, err)
		return
	}
	if err := s.pusher.Unregister(c.Request.Context(), userID(c), req.Endpoint); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// notificationSocket upgrades to a websocket and parks the connection in the
// hub. The read loop exists only to detect the close; the hub does all
// writing.
func (s *Server) notificationSocket(c *gin.Context) {
	user := userID(c)
	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		s.log.Warn("websocket upgrade failed", "user_id", user, "error", err)
		return
	}
	client := s.hub.Register(user, ws)
	s.log.Debug("notification socket open", "user_id", user)

	go func() {
		defer s.hub.Deregister(user, client)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
