package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/asistencia-qr/server/internal/asistencia/geofence"
	"github.com/asistencia-qr/server/internal/asistencia/service"
	"github.com/asistencia-qr/server/internal/asistencia/store/sqlite"
	"github.com/asistencia-qr/server/internal/asistencia/timewindow"
	"github.com/asistencia-qr/server/internal/config"
	"github.com/asistencia-qr/server/internal/db"
	"github.com/asistencia-qr/server/internal/httpapi"
)

func main() {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "asistencia-server ", log.LstdFlags|log.LUTC)

	if cfg.UsingDefaultQRSecret() {
		logger.Printf("WARNING: ASISTENCIA_QR_SECRET is not set; using the built-in default. Codes are predictable until it is configured.")
	}
	if cfg.JWTSecret == "" {
		logger.Fatalf("ASISTENCIA_JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		logger.Fatalf("open db: %v", err)
	}
	defer conn.Close()

	if cfg.Env == "dev" {
		if err := db.SeedDev(ctx, conn, db.SeedDevOptions{}); err != nil {
			logger.Fatalf("seed dev data: %v", err)
		}
	}

	writer := db.NewWorker(conn)
	defer writer.Close()

	// Stores
	qrStore := sqlite.NewQRStore(conn, writer)
	attendanceStore := sqlite.NewAttendanceStore(conn, writer)
	profileStore := sqlite.NewProfileStore(conn, writer)
	configStore := sqlite.NewConfigStore(conn, writer)

	loc := cfg.Location()
	window := timewindow.Window{
		StartHour:   cfg.WindowStartHour,
		StartMinute: cfg.WindowStartMinute,
		EndHour:     cfg.WindowEndHour,
		EndMinute:   cfg.WindowEndMinute,
	}
	defaultFence := geofence.Fence{
		Lat:          cfg.GeofenceLat,
		Lng:          cfg.GeofenceLng,
		RadiusMeters: cfg.GeofenceRadiusM,
	}

	// Services
	engine := service.NewEngine(service.EngineDeps{
		QRStore:      qrStore,
		Attendance:   attendanceStore,
		Profiles:     profileStore,
		SysConfig:    configStore,
		Window:       window,
		Location:     loc,
		QRSecret:     cfg.QRSecret,
		DefaultFence: defaultFence,
		Logger:       logger,
	})
	qrManager := service.NewQRManager(service.QRManagerDeps{
		QRStore:  qrStore,
		Secret:   cfg.QRSecret,
		Location: loc,
		Logger:   logger,
	})
	reports := service.NewReports(attendanceStore)
	admin := service.NewAdmin(profileStore, configStore, defaultFence)

	pruner := service.NewQRPruner(qrStore, service.PrunerConfig{
		RetentionDays: cfg.QRRetentionDays,
		IntervalHours: cfg.PruneIntervalHours,
	}, loc, logger)
	pruner.Start(ctx)
	defer pruner.Stop()

	// HTTP
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:     logger,
		Addr:       cfg.HTTPAddr,
		Engine:     engine,
		QRManager:  qrManager,
		Reports:    reports,
		Admin:      admin,
		JWTSecret:  cfg.JWTSecret,
		GPSTimeout: cfg.GPSTimeout,
		GPSMaxAge:  cfg.GPSMaxAge,
	})

	go func() {
		logger.Printf("listening on %s (env=%s, window=%02d:%02d-%02d:%02d, tz=%s)",
			cfg.HTTPAddr, cfg.Env,
			cfg.WindowStartHour, cfg.WindowStartMinute,
			cfg.WindowEndHour, cfg.WindowEndMinute,
			cfg.Timezone)
		if err := srv.Start(); err != nil {
			logger.Printf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
