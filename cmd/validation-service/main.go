// Command validation-service runs the FHIR validation service: an HTTP
// server in "serve" mode, or a one-shot file validator in "validate" mode.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	validationservice "github.com/Boereck/DEMIS-validation-service"
	"github.com/Boereck/DEMIS-validation-service/config"
	"github.com/Boereck/DEMIS-validation-service/engine"
	"github.com/Boereck/DEMIS-validation-service/loader"
	"github.com/Boereck/DEMIS-validation-service/server"
	"github.com/Boereck/DEMIS-validation-service/support"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "validation-service",
		Short:   "FHIR notification validation service",
		Version: validationservice.Version,
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(validateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the validation HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func validateCmd() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Validate FHIR documents from files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args, jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the OperationOutcome as JSON")
	return cmd
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	pipeline, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}

	warmCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := pipeline.WarmUp(warmCtx); err != nil {
		logger.Warn().Err(err).Msg("warm-up failed, continuing without primed caches")
	}
	cancel()

	srv := server.New(pipeline, logger)
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server listening")
		errCh <- srv.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func runValidate(files []string, jsonOutput bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg).Level(zerolog.WarnLevel)

	pipeline, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}

	ctx := context.Background()
	failed := false
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		outcome, err := pipeline.Validate(ctx, data)
		if err != nil {
			return err
		}
		if !outcome.Valid() {
			failed = true
		}
		if jsonOutput {
			out, err := json.MarshalIndent(outcome.OperationOutcome(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			continue
		}
		printOutcome(file, outcome)
	}
	if failed {
		os.Exit(1)
	}
	return nil
}

func printOutcome(file string, outcome *validationservice.Outcome) {
	status := "VALID"
	if !outcome.Valid() {
		status = "INVALID"
	}
	fmt.Printf("%s: %s (%d errors, %d warnings, %d notes)\n",
		file, status, outcome.ErrorCount(), outcome.WarningCount(), outcome.InfoCount())
	for _, f := range outcome.Findings() {
		fmt.Printf("  %s\n", f)
	}
}

// buildPipeline loads the operator profiles and assembles the pipeline
// from the configuration. Any error here is fatal; a service with a
// half-working configuration must not come up.
func buildPipeline(cfg *config.Config, logger zerolog.Logger) (*validationservice.Pipeline, error) {
	loc, err := cfg.LanguageTag()
	if err != nil {
		return nil, err
	}
	suppressions, err := cfg.Suppressions()
	if err != nil {
		return nil, err
	}

	profiles := support.NewProfileSet()
	if cfg.ProfileDir != "" {
		profiles, err = loader.NewService().LoadDir(cfg.ProfileDir)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("dir", cfg.ProfileDir).Int("resources", profiles.Count()).Msg("operator profiles loaded")
	}

	return validationservice.New(profiles, engine.Factory(),
		validationservice.WithMinSeverity(cfg.MinSeverityOutcome),
		validationservice.WithLocale(loc),
		validationservice.WithSuppressions(suppressions),
		validationservice.WithLogger(logger),
	)
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("service", "validation-service").Logger().Level(level)
	if cfg.IsDev() {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return logger
}
