package main

import (
	"database/sql"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/alexanderramin/horae/internal/config"
	"github.com/alexanderramin/horae/internal/db"
	"github.com/alexanderramin/horae/internal/llm"
	"github.com/alexanderramin/horae/internal/notify"
	"github.com/alexanderramin/horae/internal/planner"
	"github.com/alexanderramin/horae/internal/priority"
	"github.com/alexanderramin/horae/internal/repository"
	"github.com/alexanderramin/horae/internal/reschedule"
	"github.com/alexanderramin/horae/internal/session"
)

// services is the fully wired server side of horae.
type services struct {
	cfg *config.Config
	db  *sql.DB
	log *slog.Logger

	pipeline  *planner.Pipeline
	sessions  *session.Engine
	resched   *reschedule.Engine
	hub       *notify.Hub
	pusher    *notify.Pusher
	escalator *notify.Escalator
	schedules repository.ScheduleRepo
}

func (s *services) Close() error { return s.db.Close() }

// newLogger writes text to an interactive terminal and JSON otherwise.
func newLogger() *slog.Logger {
	var handler slog.Handler
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		handler = slog.NewTextHandler(os.Stderr, nil)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, nil)
	}
	return slog.New(handler)
}

func buildServices() (*services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := newLogger()

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	tasks := repository.NewSQLiteTaskRepo(database)
	goals := repository.NewSQLiteGoalRepo(database)
	logs := repository.NewSQLiteWorkLogRepo(database)
	deps := repository.NewSQLiteDependencyRepo(database)
	recurring := repository.NewSQLiteRecurringTaskRepo(database)
	sessionRepo := repository.NewSQLiteWorkSessionRepo(database)
	schedules := repository.NewSQLiteScheduleRepo(database)
	suggestions := repository.NewSQLiteSuggestionRepo(database)
	profiles := repository.NewSQLiteUserProfileRepo(database)
	subs := repository.NewSQLitePushSubscriptionRepo(database)

	uow := db.NewSQLiteUnitOfWork(database)

	// The priority oracle is optional; without it planning always uses the
	// deterministic scorer.
	oracleCfg := llm.LoadConfig()
	var oracle priority.Oracle
	if oracleCfg.Enabled {
		var observer llm.Observer = llm.NoopObserver{}
		if oracleCfg.LogCalls {
			observer = llm.NewSlogObserver(log)
		}
		oracle = priority.NewAIOracle(llm.NewChatClient(oracleCfg, observer))
	}
	priorities := priority.NewService(oracle, log)

	hub := notify.NewHub(log)
	pusher := notify.NewPusher(subs, notify.WebPushConfig{
		VAPIDPublicKey:  cfg.Push.VAPIDPublicKey,
		VAPIDPrivateKey: cfg.Push.VAPIDPrivateKey,
		Subscriber:      cfg.Push.Subscriber,
	}, log)

	return &services{
		cfg: cfg,
		db:  database,
		log: log,
		pipeline: planner.NewPipeline(
			tasks, goals, recurring, logs, deps, schedules, profiles,
			priorities, planner.NewPlanCache(planner.DefaultCacheTTL), log,
		),
		sessions:  session.NewEngine(sessionRepo, tasks, logs, uow, log),
		resched:   reschedule.NewEngine(schedules, suggestions, profiles, uow, log),
		hub:       hub,
		pusher:    pusher,
		escalator: notify.NewEscalator(sessionRepo, uow, hub, pusher, log),
		schedules: schedules,
	}, nil
}
