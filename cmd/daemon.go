package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adlens/spend-cli/internal/pipeline"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run passes on the configured cron schedules",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		log := zap.L().With(zap.String("component", "daemon"))
		c := cron.New()

		schedules := []struct {
			spec   string
			passes []string
		}{
			{cfg.Daemon.WashSchedule, []string{"wash", "promote"}},
			{cfg.Daemon.RebuildSchedule, []string{"rebuild", "merge"}},
			{cfg.Daemon.FuseSchedule, []string{"fuse"}},
		}
		for _, s := range schedules {
			passes := s.passes
			if _, err := c.AddFunc(s.spec, func() {
				runScheduled(ctx, env.engine, passes, log)
			}); err != nil {
				return eris.Wrapf(err, "daemon: parse schedule %q", s.spec)
			}
		}

		log.Info("daemon started",
			zap.String("wash", cfg.Daemon.WashSchedule),
			zap.String("rebuild", cfg.Daemon.RebuildSchedule),
			zap.String("fuse", cfg.Daemon.FuseSchedule),
		)
		c.Start()
		<-ctx.Done()

		log.Info("daemon stopping, waiting for running jobs")
		<-c.Stop().Done()
		return nil
	},
}

// runScheduled runs a chain of passes, stopping the chain when a pass
// fails so later stages never run on a half-finished predecessor.
func runScheduled(ctx context.Context, engine *pipeline.Engine, passes []string, log *zap.Logger) {
	for _, name := range passes {
		res, err := engine.Run(ctx, name, pipeline.Scope{})
		if eris.Is(err, pipeline.ErrAlreadyRunning) {
			log.Info("pass already running, skipping", zap.String("pass", name))
			return
		}
		if err != nil {
			log.Error("scheduled pass failed", zap.String("pass", name), zap.Error(err))
			return
		}
		log.Info("scheduled pass complete",
			zap.String("pass", name),
			zap.Int64("run_id", res.RunID),
			zap.Duration("took", res.FinishedAt.Sub(res.StartedAt)),
		)
	}
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}
