package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	gormLogger "gorm.io/gorm/logger"

	"github.com/nanichang/employee-import-engine/internal/api"
	"github.com/nanichang/employee-import-engine/internal/cache"
	"github.com/nanichang/employee-import-engine/internal/config"
	"github.com/nanichang/employee-import-engine/internal/dispatcher"
	"github.com/nanichang/employee-import-engine/internal/importreader"
	lgr "github.com/nanichang/employee-import-engine/internal/logger"
	mysqlRepo "github.com/nanichang/employee-import-engine/internal/repository/mysql"
	"github.com/nanichang/employee-import-engine/internal/service"
	"github.com/nanichang/employee-import-engine/internal/worker"
)

func main() {
	cfg := config.Load()

	log_, file, err := lgr.New()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer file.Close()

	gormLog := gormLogger.New(
		log.New(log_.Writer(), log_.Prefix(), log_.Flags()),
		gormLogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := mysqlRepo.NewMySQL(gormLog)
	if err != nil {
		log_.Printf("Failed to connect to database: %v", err)
		panic("failed to connect to database")
	}

	if err := mysqlRepo.RunMigrations(db); err != nil {
		log_.Printf("Failed to run migrations: %v", err)
		panic("failed to run migrations")
	}

	redisClient := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, 0)

	jobRepo := mysqlRepo.NewJobRepository(db)
	employeeRepo := mysqlRepo.NewEmployeeRepository(db)
	ledgerRepo := mysqlRepo.NewLedgerRepository(db)
	errorRepo := mysqlRepo.NewErrorRepository(db)
	resumptionRepo := mysqlRepo.NewResumptionLogRepository(db)
	progressStore := cache.NewProgressStore(redisClient)

	w := worker.New(worker.Deps{
		Jobs:          jobRepo,
		Employees:     employeeRepo,
		Ledger:        ledgerRepo,
		Errors:        errorRepo,
		ResumptionLog: resumptionRepo,
		Progress:      progressStore,
		Redis:         redisClient,
		Logger:        log_,
	}, worker.Config{
		LockTTL:        cfg.ImportLockTTL,
		LockRenewEvery: cfg.ImportLockTTL / 2,
		ReaderConfig: importreader.Config{
			CSVChunkSize:  cfg.ImportChunkSizeCSV,
			XLSXChunkSize: cfg.ImportChunkSizeXLSX,
			CSVDelimiter:  ',',
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d := dispatcher.New(w, jobRepo, log_, dispatcher.DefaultConfig())
	d.Start(ctx)
	defer d.Stop()

	svc := service.New(jobRepo, errorRepo, progressStore, d, service.Config{
		UploadDir:     cfg.UploadDir,
		MaxFileBytes:  cfg.ImportMaxFileBytes,
		CSVChunkSize:  cfg.ImportChunkSizeCSV,
		XLSXChunkSize: cfg.ImportChunkSizeXLSX,
	})

	router := api.SetupRouter(svc)

	log_.Printf("Starting API server on port %s", cfg.APIPort)
	if err := router.Run(":" + cfg.APIPort); err != nil {
		log_.Printf("Failed to start server: %v", err)
		panic(err)
	}
}
