package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alexanderramin/horae/internal/contract"
)

func (s *Server) planWeekly(c *gin.Context) {
	var req contract.WeeklyPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.bindError(c, err)
		return
	}
	resp, err := s.planner.PlanWeekly(c.Request.Context(), userID(c), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) planDaily(c *gin.Context) {
	var req contract.DailyPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.bindError(c, err)
		return
	}
	resp, err := s.planner.PlanDaily(c.Request.Context(), userID(c), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
