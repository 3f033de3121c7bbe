package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	paymenthttp "constructoraicc/gopagos/internal/adapters/http/payment"
	submissionhttp "constructoraicc/gopagos/internal/adapters/http/submission"
	"constructoraicc/gopagos/internal/adapters/invoice/iconstruye"
	invoicepg "constructoraicc/gopagos/internal/adapters/invoice/postgres"
	"constructoraicc/gopagos/internal/adapters/ledger/kame"
	ledgerpg "constructoraicc/gopagos/internal/adapters/ledger/postgres"
	"constructoraicc/gopagos/internal/adapters/tables/excel"
	apppayment "constructoraicc/gopagos/internal/application/payment"
	appsubmission "constructoraicc/gopagos/internal/application/submission"
	"constructoraicc/gopagos/internal/infrastructure/config"
	"constructoraicc/gopagos/internal/infrastructure/database"
	infrahttp "constructoraicc/gopagos/internal/infrastructure/http"
	"constructoraicc/gopagos/internal/infrastructure/http/server"
	"constructoraicc/gopagos/internal/infrastructure/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "service stopped: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.App.Name, cfg.Log.Level, cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		Database:        cfg.Database.Database,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	iconstruyeClient := iconstruye.NewClient(
		cfg.IConstruye.BaseURL,
		cfg.IConstruye.SubscriptionKey,
		cfg.IConstruye.OrgID,
		cfg.IConstruye.DetailMaxConcurrent,
		infrahttp.NewClient(&infrahttp.ClientConfig{Timeout: cfg.IConstruye.APITimeout}),
		log,
	)

	kameHTTP := infrahttp.NewClient(&infrahttp.ClientConfig{Timeout: cfg.Kame.APITimeout})
	kameAuth := kame.NewAuthManager(
		cfg.Kame.BaseURL,
		cfg.Kame.ClientID,
		cfg.Kame.ClientSecret,
		cfg.Kame.Audience,
		cfg.Kame.TokenTTL,
		kameHTTP,
		log,
	)
	kameClient := kame.NewClient(cfg.Kame.BaseURL, kameAuth, kameHTTP, log)

	tablas := excel.NewLoader(cfg.Tables.CuentasPath, cfg.Tables.UnidadesPath, cfg.Tables.SantanderPath)
	registro := ledgerpg.NewRepository(pool)
	snapshots := invoicepg.NewStore(pool)

	pagosService := apppayment.NewService(iconstruyeClient, iconstruyeClient, kameClient, tablas, registro, snapshots, apppayment.Config{
		MesesAtras:        cfg.IConstruye.MonthsBack,
		TopeTransferencia: cfg.Payments.TransferCap,
		Schedule: apppayment.ScheduleConfig{
			DueDays:          cfg.Payments.DueDays,
			CessionDueDays:   cfg.Payments.CessionDueDays,
			CessionThreshold: float64(cfg.Payments.CessionThreshold),
		},
	}, log)

	submissionService := appsubmission.NewService(kameClient, iconstruyeClient, registro, appsubmission.Config{
		Usuario: cfg.Kame.Usuario,
	}, log)

	srv, err := server.New(server.Options{
		HTTP:       cfg.HTTP,
		Auth:       cfg.Auth,
		Logger:     log,
		Pagos:      paymenthttp.NewHandler(pagosService, log),
		Subidas:    submissionhttp.NewHandler(submissionService, pagosService, registro, kameClient, log),
		AppVersion: cfg.App.Version,
	})
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	return srv.Run(ctx)
}
