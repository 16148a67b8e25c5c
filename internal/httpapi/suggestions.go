package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alexanderramin/horae/internal/contract"
	"github.com/alexanderramin/horae/internal/domain"
)

var validSuggestionStatuses = map[string]bool{
	string(domain.SuggestionPending):  true,
	string(domain.SuggestionAccepted): true,
	string(domain.SuggestionRejected): true,
	string(domain.SuggestionExpired):  true,
}

func (s *Server) listSuggestions(c *gin.Context) {
	status := c.DefaultQuery("status", string(domain.SuggestionPending))
	if !validSuggestionStatuses[status] {
		s.writeError(c, contract.Invalid("unknown status %q", status))
		return
	}
	suggestions, err := s.resched.List(c.Request.Context(), userID(c), domain.SuggestionStatus(status))
	if err != nil {
		s.writeError(c, err)
		return
	}
	views := make([]suggestionView, 0, len(suggestions))
	for _, sug := range suggestions {
		views = append(views, toSuggestionView(sug))
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": views})
}

type decideSuggestionRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) acceptSuggestion(c *gin.Context) {
	s.decideSuggestion(c, true)
}

func (s *Server) rejectSuggestion(c *gin.Context) {
	s.decideSuggestion(c, false)
}

func (s *Server) decideSuggestion(c *gin.Context, accept bool) {
	var req decideSuggestionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			s.bindError(c, err)
			return
		}
	}
	decide := s.resched.Reject
	if accept {
		decide = s.resched.Accept
	}
	sug, err := decide(c.Request.Context(), userID(c), c.Param("id"), req.Reason)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSuggestionView(sug))
}
