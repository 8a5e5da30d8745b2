package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lashapp-notifier/config"
	"lashapp-notifier/logger"
	"lashapp-notifier/models"
	"lashapp-notifier/routes"
	"lashapp-notifier/services"
	"lashapp-notifier/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func init() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
}

func main() {
	root := &cobra.Command{
		Use:           "lashapp-notifier",
		Short:         "Daily appointment and task email for the Lash App backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server, the daily scheduler and the keep-alive",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "send-now",
			Short: "Run the daily notification once and exit",
			RunE:  runSendNow,
		},
		issueTokenCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Init(logger.Config{
		Env:         cfg.Env,
		Level:       cfg.LogLevel,
		ServiceName: "lashapp-notifier",
	})
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	scheduler := services.NewScheduler(a.pipeline, a.keepAlive, cfg.Schedule, logger.Named("scheduler"))
	if err := scheduler.Start(); err != nil {
		return err
	}

	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := routes.SetupRouter(routes.Deps{
		Runner:        a.pipeline,
		History:       a.history,
		Schedule:      scheduler,
		TriggerSecret: cfg.TriggerJWTSecret,
		Log:           logger.Named("http"),
	})
	printRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("server listening", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.L().Info("shutting down")
	case err := <-errCh:
		if err != nil {
			scheduler.Stop(context.Background())
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.L().Warn("http shutdown", logger.Err(err))
	}
	scheduler.Stop(shutdownCtx)
	return nil
}

func runSendNow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	report := a.pipeline.Run(cmd.Context(), services.TriggerCLI)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	if report.Outcome != models.RunOutcomeDelivered {
		return fmt.Errorf("run %s: %s", report.RunID, report.Outcome)
	}
	return nil
}

func issueTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "issue-token",
		Short: "Print a bearer token for the /api/notifications endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := utils.GenerateToken(subject, os.Getenv("TRIGGER_JWT_SECRET"), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "ops", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

func printRoutes(r *gin.Engine) {
	l := logger.Named("http")
	for _, route := range r.Routes() {
		l.Debug("route", logger.Method(route.Method), logger.Path(route.Path))
	}
}
