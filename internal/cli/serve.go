package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TeamPulse/internal/pkg"
	"TeamPulse/internal/router"
	"TeamPulse/internal/scheduler"
	"TeamPulse/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand 启动运维 HTTP 接口、定时任务、outbox 投递和票数对账
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "serve",
		Short:        "Run the ops API, scheduler and background workers",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, rootOpts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *RootOptions) error {
	a, err := newApp(opts, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.migrate(ctx); err != nil {
		return err
	}
	issuer, err := pkg.NewTokenIssuer(a.cfg.Auth.JWTSecret, a.cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	var sender service.Sender = service.LogSender
	if a.cfg.Kafka.Enabled() {
		producer, err := pkg.NewKafkaProducer(a.cfg.Kafka)
		if err != nil {
			return err
		}
		defer producer.Close()
		sender = service.KafkaSender(producer)
		slog.Info("outbox relays to kafka", "topic", producer.Topic())
	}
	go service.NewOutboxRelayer(a.db, sender).Run(ctx)
	go service.NewVoteCountReconciler(a.db).Run(ctx)

	sched, err := scheduler.New(a.cfg.Schedule, a.cfg.Location(), a.engine.Tasks, a.engine.Standups, a.engine.Notifications)
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if !opts.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           router.InitRouter(a.db, a.engine, issuer),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
