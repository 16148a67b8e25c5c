package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alexanderramin/horae/internal/contract"
	"github.com/alexanderramin/horae/internal/domain"
	"github.com/alexanderramin/horae/internal/repository"
)

const maxScheduleLimit = 100

func (s *Server) getDailySchedule(c *gin.Context) {
	date := c.Param("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		s.writeError(c, contract.Invalid("date must be YYYY-MM-DD"))
		return
	}
	sched, err := s.schedules.GetDaily(c.Request.Context(), userID(c), date)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.writeError(c, contract.NotFound("no schedule for %s", date))
			return
		}
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDailyScheduleView(sched))
}

func (s *Server) putDailySchedule(c *gin.Context) {
	date := c.Param("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		s.writeError(c, contract.Invalid("date must be YYYY-MM-DD"))
		return
	}
	var plan domain.DayPlan
	if err := c.ShouldBindJSON(&plan); err != nil {
		s.bindError(c, err)
		return
	}
	plan.Date = date
	now := time.Now().UTC()
	sched := &domain.DailySchedule{
		UserID:    userID(c),
		Date:      date,
		Plan:      plan,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.schedules.PutDaily(c.Request.Context(), sched); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDailyScheduleView(sched))
}

func (s *Server) listDailySchedules(c *gin.Context) {
	skip, limit := pagination(c, 20)
	scheds, err := s.schedules.ListDaily(c.Request.Context(), userID(c), skip, limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	views := make([]dailyScheduleView, 0, len(scheds))
	for _, sched := range scheds {
		views = append(views, toDailyScheduleView(sched))
	}
	c.JSON(http.StatusOK, gin.H{"schedules": views})
}

func (s *Server) getWeeklySchedule(c *gin.Context) {
	weekStart := c.Param("week_start")
	if _, err := time.Parse("2006-01-02", weekStart); err != nil {
		s.writeError(c, contract.Invalid("week_start must be YYYY-MM-DD"))
		return
	}
	sched, err := s.schedules.GetWeekly(c.Request.Context(), userID(c), weekStart)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.writeError(c, contract.NotFound("no weekly schedule for %s", weekStart))
			return
		}
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, weeklyScheduleView{
		UserID:    sched.UserID,
		WeekStart: sched.WeekStart,
		Record:    sched.Record,
		CreatedAt: sched.CreatedAt,
		UpdatedAt: sched.UpdatedAt,
	})
}

func (s *Server) listWeeklyOptions(c *gin.Context) {
	options, err := s.schedules.ListWeeklyOptions(c.Request.Context(), userID(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"options": options})
}

// pagination reads skip/limit query params, clamping limit to 100.
func pagination(c *gin.Context, defaultLimit int) (skip, limit int) {
	skip, _ = strconv.Atoi(c.DefaultQuery("skip", "0"))
	if skip < 0 {
		skip = 0
	}
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxScheduleLimit {
		limit = maxScheduleLimit
	}
	return skip, limit
}
