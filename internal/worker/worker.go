// Package worker runs the job queue drain loop for the standalone worker
// binary. Each cycle claims and processes at most one batch; the HTTP trigger
// endpoint shares the same usecase, so both entry points behave identically.
package worker

import (
	"context"
	"time"

	"github.com/pixelbank/archive-service/internal/config"
	"github.com/pixelbank/archive-service/internal/downloads"
	"github.com/pixelbank/archive-service/pkg/logger"
	"github.com/pixelbank/archive-service/pkg/utils"
)

type Worker struct {
	cfg         *config.Config
	downloadsUC downloads.UseCase
	logger      logger.Logger
}

func New(cfg *config.Config, downloadsUC downloads.UseCase, log logger.Logger) *Worker {
	return &Worker{
		cfg:         cfg,
		downloadsUC: downloadsUC,
		logger:      log,
	}
}

// Run polls the queue until ctx is canceled. Cycles are skipped while the
// host CPU is under pressure so archive packaging never starves the box.
func (w *Worker) Run(ctx context.Context) {
	interval := time.Duration(w.cfg.Worker.PollIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.logger.Infof("worker started, polling every %s", interval)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopped")
			return
		case <-ticker.C:
			w.runCycle(ctx)
		}
	}
}

func (w *Worker) runCycle(ctx context.Context) {
	if canAcceptJob, usage := utils.CheckCPUUsage(w.cfg.Worker.MaxCPUUsage); !canAcceptJob {
		w.logger.Infof("cpu usage %.2f%% too high, skipping cycle", usage)
		return
	}

	report, err := w.downloadsUC.RunWorker(ctx, nil)
	if err != nil {
		w.logger.Errorf("worker cycle failed: %v", err)
		return
	}
	if report.Processed > 0 {
		w.logger.Infof("worker cycle done: %d processed (%d ok, %d failed), %d pending",
			report.Processed, report.Success, report.Failed, report.Remaining)
	}
}
