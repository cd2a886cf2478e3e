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

	"github.com/robfig/cron/v3"

	"github.com/Nagraj23/shieldx-back/internal/api"
	"github.com/Nagraj23/shieldx-back/internal/config"
	"github.com/Nagraj23/shieldx-back/internal/escalation"
	"github.com/Nagraj23/shieldx-back/internal/journey"
	"github.com/Nagraj23/shieldx-back/internal/netprobe"
	"github.com/Nagraj23/shieldx-back/internal/notify"
	"github.com/Nagraj23/shieldx-back/internal/platform/factory"
	"github.com/Nagraj23/shieldx-back/internal/platform/logger"
	"github.com/Nagraj23/shieldx-back/internal/securitycheck"
)

func main() {
	// Optional build-target flag override (local | cloud-dev | cloud)
	buildTarget := flag.String("build-target", "", "Override BUILD_TARGET (local, cloud-dev, cloud)")
	flag.Parse()

	log := logger.New("shieldx-service")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *buildTarget != "" {
		cfg.BuildTarget = *buildTarget
		if err := cfg.ResolveDefaults(); err != nil {
			log.Fatal().Err(err).Msg("Invalid build-target override")
		}
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Msg("ShieldX service starting…")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// -------- Storage layer -----------------
	st, err := factory.NewStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Storage unavailable")
	}

	// -------- Notification pipeline --------
	prober := netprobe.NewHTTPProber(cfg.ProbeURL, cfg.ProbeTimeout(), log)
	sounder := notify.NewLogSounder(log)
	gateways := []notify.SMSGateway{
		notify.NewTwilioGateway(notify.TwilioConfig{
			AccountSID: cfg.TwilioSID,
			AuthToken:  cfg.TwilioAuthToken,
			FromNumber: cfg.TwilioFromNumber,
		}, log),
		notify.NewFast2SMSGateway(notify.Fast2SMSConfig{APIKey: cfg.Fast2SMSAPIKey}, log),
		notify.NewGSMGateway(log),
	}
	dispatcher := notify.NewDispatcher(gateways, prober, sounder, log)
	pushRouter := notify.NewPushRouter(
		notify.NewExpoPush(cfg.ExpoPushURL, log),
		notify.NewFCMPush(cfg.FCMEndpoint, cfg.FCMServerKey, log),
	)

	escalator := escalation.NewService(dispatcher, prober, sounder, st.Alerts(), log)

	// -------- Monitors ---------------------
	journeyMon := journey.NewMonitor(st, escalator, dispatcher, log)
	securityMon := securitycheck.NewMonitor(st, pushRouter, escalator,
		cfg.ResponseWindow(), cfg.DefaultEmergencyContact, log)

	go journeyMon.Run(ctx, cfg.JourneyScanInterval())
	go securityMon.RunTimeoutLoop(ctx, cfg.TimeoutSweepInterval())

	scheduler := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	if _, err := scheduler.AddFunc(cfg.SecurityCheckCron, func() {
		if err := securityMon.IssueCheck(ctx); err != nil {
			log.Error().Err(err).Msg("scheduled security check failed")
		}
	}); err != nil {
		log.Fatal().Err(err).Str("cron", cfg.SecurityCheckCron).Msg("Invalid security check schedule")
	}
	scheduler.Start()

	// -------- Router & Server --------------
	pinger, _ := st.(api.HealthPinger)
	router := api.NewRouter(api.Deps{
		Store:        st,
		Escalator:    escalator,
		Sender:       dispatcher,
		Journeys:     journeyMon,
		SecurityMon:  securityMon,
		HealthPinger: pinger,
	})
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server…")
	stop()
	<-scheduler.Stop().Done()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Drain background alert writes and scan notifications.
	escalator.Flush()
	journeyMon.Flush()
	log.Info().Msg("Server exited")
}
