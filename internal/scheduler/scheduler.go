package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairy-advisor/internal/config"
	"github.com/mamadbah2/dairy-advisor/internal/domain/models"
	"github.com/mamadbah2/dairy-advisor/internal/repository/sheets"
	"github.com/mamadbah2/dairy-advisor/internal/session"
	"github.com/mamadbah2/dairy-advisor/pkg/clients/alerts"
)

// Scheduler runs the daily advisory digest: one snapshot per live session,
// exported to Google Sheets and pushed to the alert webhook when a
// high-priority suggestion is active. Exporter and alert client are both
// optional; nil disables that leg.
type Scheduler struct {
	cron     *cron.Cron
	store    *session.Store
	exporter sheets.Exporter
	alerts   alerts.Client
	cfg      config.DigestConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(cfg config.DigestConfig, store *session.Store, exporter sheets.Exporter, alertClient alerts.Client, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	// robfig/cron/v3 default parser is standard cron (5 fields: min, hour,
	// dom, month, dow).
	c := cron.New()
	if loc, err := time.LoadLocation(cfg.Timezone); err == nil {
		c = cron.New(cron.WithLocation(loc))
	} else {
		logger.Warn("invalid timezone, scheduler falls back to local time", zap.String("timezone", cfg.Timezone), zap.Error(err))
	}

	return &Scheduler{
		cron:     c,
		store:    store,
		exporter: exporter,
		alerts:   alertClient,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Start registers the digest job and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.CronSchedule))

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.runDigest); err != nil {
		s.logger.Error("failed to schedule advisory digest", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) runDigest() {
	s.logger.Info("generating advisory digest")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	for _, st := range s.store.Snapshots() {
		s.digestSession(ctx, st)
	}
}

func (s *Scheduler) digestSession(ctx context.Context, st *session.State) {
	text := digestText(st)
	if err := s.store.AppendAlert(st.ID, text); err != nil {
		s.logger.Warn("failed to log digest into session", zap.String("session_id", st.ID), zap.Error(err))
	}

	if s.exporter != nil {
		row := sheets.DigestRow{
			Date:            s.now(),
			SessionID:       st.ID,
			ConcentrateFeed: st.Params.ConcentrateFeed,
			NitrogenRate:    st.Params.NitrogenRate,
			Emissions:       st.Metrics.Emissions,
			Yield:           st.Metrics.Yield,
			CostPerLitre:    st.Metrics.CostPerLitre,
			TotalScore:      st.Score.Total,
			TopSuggestion:   topSuggestionAction(st.Suggestions),
		}
		if err := s.exporter.AppendDigest(ctx, row); err != nil {
			s.logger.Error("failed to export digest row", zap.String("session_id", st.ID), zap.Error(err))
		}
	}

	if s.alerts == nil {
		return
	}
	for _, sg := range st.Suggestions {
		if sg.Priority != models.PriorityHigh {
			continue
		}
		alert := alerts.Alert{
			SessionID: st.ID,
			Priority:  sg.Priority,
			Category:  sg.Category,
			Action:    sg.Action,
			Impact:    sg.Impact,
		}
		if err := s.alerts.SendAlert(ctx, alert); err != nil {
			s.logger.Error("failed to send advisory alert", zap.String("session_id", st.ID), zap.String("category", sg.Category), zap.Error(err))
		}
	}
}

func digestText(st *session.State) string {
	if len(st.Suggestions) == 0 {
		return fmt.Sprintf("Daily advisory digest: total score %.1f, no outstanding suggestions.", st.Score.Total)
	}
	return fmt.Sprintf("Daily advisory digest: total score %.1f, %d open suggestion(s). Top: %s",
		st.Score.Total, len(st.Suggestions), st.Suggestions[0].Action)
}

func topSuggestionAction(suggestions []models.Suggestion) string {
	if len(suggestions) == 0 {
		return ""
	}
	return suggestions[0].Action
}
