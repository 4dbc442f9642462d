// cmd/server/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/rallyhq/courtlotto/internal/booking"
	"github.com/rallyhq/courtlotto/internal/config"
	"github.com/rallyhq/courtlotto/internal/db"
	"github.com/rallyhq/courtlotto/internal/email"
	"github.com/rallyhq/courtlotto/internal/lottery"
	"github.com/rallyhq/courtlotto/internal/ratelimit"
	"github.com/rallyhq/courtlotto/internal/scheduler"
)

const shutdownTimeout = 30 * time.Second

func setupLogger(environment string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func main() {
	configPath := flag.String("config", "config/app.yaml", "path to yaml configuration")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load configuration")
	}

	setupLogger(cfg.App.Environment)

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	loc := cfg.Location()

	bookingService, err := booking.NewService(database, booking.WithLocation(loc))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create booking service")
	}
	ledger, err := booking.NewLedger(database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create usage ledger")
	}
	allocator, err := lottery.New(database, lottery.WithLocation(loc))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create lottery allocator")
	}

	var sender email.Sender
	if cfg.Email.Enabled {
		sesClient, err := email.NewSESClient(
			cfg.Email.AccessKeyID,
			cfg.Email.SecretAccessKey,
			cfg.Email.Region,
			cfg.Email.Sender,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create SES client")
		}
		sender = sesClient
	} else {
		log.Info().Msg("Email disabled; no notifications will be sent")
	}

	var sched *scheduler.Service
	if cfg.Scheduler.Enabled {
		sched, err = scheduler.New()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create scheduler")
		}
		if err := scheduler.RegisterLotteryJob(sched, database, allocator, sender, loc, cfg.Scheduler.LotteryCron); err != nil {
			log.Fatal().Err(err).Msg("Failed to register lottery job")
		}
		if err := scheduler.RegisterUsageResetJob(sched, ledger, cfg.Scheduler.UsageResetCron); err != nil {
			log.Fatal().Err(err).Msg("Failed to register usage reset job")
		}
		if err := scheduler.RegisterLapseJob(sched, database, loc, cfg.Scheduler.LapseCron); err != nil {
			log.Fatal().Err(err).Msg("Failed to register lapse job")
		}
		sched.Start()
	} else {
		log.Info().Msg("Scheduler disabled; lottery runs must be triggered manually")
	}

	limiter := ratelimit.New(ratelimit.DefaultConfig())
	defer limiter.Close()

	server := newServer(cfg, serverDeps{
		database:  database,
		booking:   bookingService,
		allocator: allocator,
		sender:    sender,
		location:  loc,
		limiter:   limiter,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if sched != nil {
			if err := sched.Stop(); err != nil {
				log.Error().Err(err).Msg("Scheduler shutdown error")
			}
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}
