package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alexanderramin/horae/internal/contract"
	"github.com/alexanderramin/horae/internal/domain"
	"github.com/alexanderramin/horae/internal/session"
)

type startSessionRequest struct {
	TaskID            string    `json:"task_id" binding:"required"`
	PlannedCheckoutAt time.Time `json:"planned_checkout_at" binding:"required"`
	PlannedOutcome    string    `json:"planned_outcome"`
}

func (s *Server) startSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.bindError(c, err)
		return
	}
	sess, err := s.sessions.Start(c.Request.Context(), userID(c), session.StartInput{
		TaskID:            req.TaskID,
		PlannedCheckoutAt: req.PlannedCheckoutAt,
		PlannedOutcome:    req.PlannedOutcome,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSessionView(sess))
}

func (s *Server) currentSession(c *gin.Context) {
	sess, err := s.sessions.Current(c.Request.Context(), userID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionView(sess))
}

func (s *Server) sessionHistory(c *gin.Context) {
	skip, limit := pagination(c, 20)
	sessions, err := s.sessions.History(c.Request.Context(), userID(c), skip, limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": toSessionViews(sessions)})
}

func (s *Server) pauseSession(c *gin.Context) {
	sess, err := s.sessions.Pause(c.Request.Context(), userID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionView(sess))
}

type resumeSessionRequest struct {
	ExtendCheckout bool `json:"extend_checkout"`
}

func (s *Server) resumeSession(c *gin.Context) {
	var req resumeSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.bindError(c, err)
		return
	}
	sess, err := s.sessions.Resume(c.Request.Context(), userID(c), req.ExtendCheckout)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionView(sess))
}

type snoozeSessionRequest struct {
	SnoozeMinutes int `json:"snooze_minutes" binding:"required"`
}

func (s *Server) snoozeSession(c *gin.Context) {
	var req snoozeSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.bindError(c, err)
		return
	}
	sess, err := s.sessions.Snooze(c.Request.Context(), userID(c), req.SnoozeMinutes)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionView(sess))
}

type checkoutRequest struct {
	CheckoutType           string   `json:"checkout_type"`
	Decision               string   `json:"decision" binding:"required"`
	ContinueReason         string   `json:"continue_reason"`
	KeepNote               string   `json:"keep_note"`
	ProblemNote            string   `json:"problem_note"`
	TryNote                string   `json:"try_note"`
	RemainingEstimateHours *float64 `json:"remaining_estimate_hours"`
	NextTaskID             string   `json:"next_task_id"`
}

func (s *Server) checkoutSession(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.bindError(c, err)
		return
	}
	if !domain.ValidCheckoutDecisions[req.Decision] {
		s.writeError(c, contract.Invalid("unknown decision %q", req.Decision))
		return
	}
	checkoutType := domain.CheckoutType(req.CheckoutType)
	if checkoutType == "" {
		checkoutType = domain.CheckoutManual
	}
	result, err := s.sessions.Checkout(c.Request.Context(), userID(c), domain.CheckoutInput{
		CheckoutType:           checkoutType,
		Decision:               domain.CheckoutDecision(req.Decision),
		ContinueReason:         req.ContinueReason,
		KeepNote:               req.KeepNote,
		ProblemNote:            req.ProblemNote,
		TryNote:                req.TryNote,
		RemainingEstimateHours: req.RemainingEstimateHours,
		NextTaskID:             req.NextTaskID,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	// The checkout itself is committed; a failure to derive a reschedule
	// suggestion must not fail the request.
	suggestion, err := s.resched.MaybeSuggest(c.Request.Context(), result.Session)
	if err != nil {
		s.log.Warn("reschedule suggestion failed",
			"session_id", result.Session.ID, "error", err)
		suggestion = nil
	}

	c.JSON(http.StatusOK, toCheckoutView(result, suggestion))
}

type kptUpdateRequest struct {
	KeepNote    *string `json:"keep_note"`
	ProblemNote *string `json:"problem_note"`
	TryNote     *string `json:"try_note"`
}

func (s *Server) updateKPT(c *gin.Context) {
	var req kptUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.bindError(c, err)
		return
	}
	if req.KeepNote == nil && req.ProblemNote == nil && req.TryNote == nil {
		s.writeError(c, contract.Invalid("at least one of keep_note, problem_note, try_note is required"))
		return
	}
	sess, err := s.sessions.UpdateKPT(c.Request.Context(), userID(c), c.Param("id"), session.KPTUpdate{
		Keep:    req.KeepNote,
		Problem: req.ProblemNote,
		Try:     req.TryNote,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionView(sess))
}
