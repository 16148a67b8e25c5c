// Package httpapi exposes planning, schedules, work sessions, reschedule
// suggestions and notification channels over HTTP.
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/alexanderramin/horae/internal/contract"
	"github.com/alexanderramin/horae/internal/notify"
	"github.com/alexanderramin/horae/internal/planner"
	"github.com/alexanderramin/horae/internal/repository"
	"github.com/alexanderramin/horae/internal/reschedule"
	"github.com/alexanderramin/horae/internal/session"
)

// userHeader identifies the acting user on every request.
const userHeader = "X-Horae-User"

const userKey = "horae.user"

// Server wires the service layer to gin handlers.
type Server struct {
	planner   *planner.Pipeline
	sessions  *session.Engine
	resched   *reschedule.Engine
	hub       *notify.Hub
	pusher    *notify.Pusher
	schedules repository.ScheduleRepo
	log       *slog.Logger
	upgrader  websocket.Upgrader
}

func NewServer(
	pipeline *planner.Pipeline,
	sessions *session.Engine,
	resched *reschedule.Engine,
	hub *notify.Hub,
	pusher *notify.Pusher,
	schedules repository.ScheduleRepo,
	log *slog.Logger,
) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		planner:   pipeline,
		sessions:  sessions,
		resched:   resched,
		hub:       hub,
		pusher:    pusher,
		schedules: schedules,
		log:       log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect from the app origin only.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Router builds the full route tree.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api", s.requireUser)

	api.POST("/planning/weekly", s.planWeekly)
	api.POST("/planning/daily", s.planDaily)

	api.GET("/schedules/daily", s.listDailySchedules)
	api.GET("/schedules/daily/:date", s.getDailySchedule)
	api.PUT("/schedules/daily/:date", s.putDailySchedule)
	api.GET("/schedules/weekly/:week_start", s.getWeeklySchedule)
	api.GET("/schedules/weekly-options", s.listWeeklyOptions)

	api.POST("/sessions/start", s.startSession)
	api.GET("/sessions/current", s.currentSession)
	api.GET("/sessions/history", s.sessionHistory)
	api.POST("/sessions/pause", s.pauseSession)
	api.POST("/sessions/resume", s.resumeSession)
	api.POST("/sessions/snooze", s.snoozeSession)
	api.POST("/sessions/checkout", s.checkoutSession)
	api.PATCH("/sessions/:id/kpt", s.updateKPT)

	api.GET("/suggestions", s.listSuggestions)
	api.POST("/suggestions/:id/accept", s.acceptSuggestion)
	api.POST("/suggestions/:id/reject", s.rejectSuggestion)

	api.POST("/push/subscriptions", s.registerPush)
	api.DELETE("/push/subscriptions", s.unregisterPush)

	api.GET("/notifications/ws", s.notificationSocket)

	return r
}

func (s *Server) requireUser(c *gin.Context) {
	user := c.GetHeader(userHeader)
	if user == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"code":    string(contract.CodeInvalid),
			"message": userHeader + " header is required",
		})
		return
	}
	c.Set(userKey, user)
	c.Next()
}

func userID(c *gin.Context) string {
	return c.GetString(userKey)
}

// writeError maps a service error to its HTTP status. Unclassified errors
// are logged and surfaced as 500 without internals.
func (s *Server) writeError(c *gin.Context, err error) {
	var se *contract.ServiceError
	if errors.As(err, &se) {
		status := http.StatusInternalServerError
		switch se.Code {
		case contract.CodeNotFound:
			status = http.StatusNotFound
		case contract.CodeConflict:
			status = http.StatusConflict
		case contract.CodeInvalid:
			status = http.StatusBadRequest
		}
		if status == http.StatusInternalServerError {
			s.log.Error("request failed", "path", c.FullPath(), "error", err)
		}
		c.JSON(status, gin.H{"code": string(se.Code), "message": se.Message})
		return
	}
	s.log.Error("request failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    string(contract.CodeInternal),
		"message": "internal error",
	})
}

func (s *Server) bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"code":    string(contract.CodeInvalid),
		"message": err.Error(),
	})
}
