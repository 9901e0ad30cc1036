package services

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CronService manages scheduled background jobs
type CronService struct {
	cron    *cron.Cron
	catalog *RouteCatalog
	source  RouteSource
	logger  *logrus.Logger
}

// NewCronService creates a new CronService
func NewCronService(catalog *RouteCatalog, source RouteSource, logger *logrus.Logger) *CronService {
	// Cron format: second minute hour day month weekday
	c := cron.New(cron.WithSeconds())

	return &CronService{
		cron:    c,
		catalog: catalog,
		source:  source,
		logger:  logger,
	}
}

// Start schedules the catalog reload and starts the scheduler. An empty spec
// leaves the scheduler idle.
func (s *CronService) Start(reloadSpec string) error {
	s.logger.Info("Starting cron service...")

	if reloadSpec != "" {
		// e.g. "0 0 3 * * *" = At 3:00 AM every day
		if _, err := s.cron.AddFunc(reloadSpec, s.reloadRoutesJob); err != nil {
			return fmt.Errorf("failed to schedule route reload job: %w", err)
		}
		s.logger.WithField("spec", reloadSpec).Info("Scheduled: Reload route catalog")
	}

	s.cron.Start()
	s.logger.Info("Cron service started successfully")

	return nil
}

// Stop stops all cron jobs and waits for running ones to finish
func (s *CronService) Stop() {
	s.logger.Info("Stopping cron service...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

// reloadRoutesJob swaps in a fresh route snapshot
func (s *CronService) reloadRoutesJob() {
	s.logger.Info("[CRON] Starting route catalog reload...")
	startTime := time.Now()

	snapshot, err := s.catalog.Load(s.source)
	if err != nil {
		s.logger.WithError(err).Error("[CRON] Route catalog reload failed, keeping previous snapshot")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"routes":   len(snapshot.Routes),
		"version":  snapshot.Version,
		"duration": time.Since(startTime).String(),
	}).Info("[CRON] Route catalog reloaded")
}

// RunReloadNow runs the reload job immediately
func (s *CronService) RunReloadNow() {
	s.logger.Info("[MANUAL] Running route catalog reload now...")
	s.reloadRoutesJob()
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
