package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	gormLogger "gorm.io/gorm/logger"

	"github.com/nanichang/employee-import-engine/internal/cache"
	"github.com/nanichang/employee-import-engine/internal/config"
	"github.com/nanichang/employee-import-engine/internal/dispatcher"
	"github.com/nanichang/employee-import-engine/internal/importreader"
	lgr "github.com/nanichang/employee-import-engine/internal/logger"
	"github.com/nanichang/employee-import-engine/internal/models"
	"github.com/nanichang/employee-import-engine/internal/repository"
	mysqlRepo "github.com/nanichang/employee-import-engine/internal/repository/mysql"
	"github.com/nanichang/employee-import-engine/internal/worker"
)

// sweepInterval is how often the processor looks for jobs left pending or
// stuck processing by a prior crash and re-enqueues them. JobLock (C9)
// makes this safe against an api-process or another processor instance
// already working the same job.
const sweepInterval = 15 * time.Second

const sweepBatch = 100

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

	log_.Println("processor started, sweeping for pending jobs")
	sweep(ctx, jobRepo, d, log_)

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log_.Println("processor shutting down")
			d.Stop()
			return
		case <-ticker.C:
			sweep(ctx, jobRepo, d, log_)
		}
	}
}

// sweep re-enqueues every non-terminal job so an api restart or a
// processor crash never strands a job in pending/processing forever.
// Duplicate enqueues are harmless: JobLock rejects the loser and the
// worker's FindByID/IsTerminal guard is idempotent.
func sweep(ctx context.Context, jobs repository.JobRepository, d *dispatcher.Dispatcher, logger *log.Logger) {
	pending, err := jobs.ListPending(ctx, sweepBatch)
	if err != nil {
		logger.Printf("sweep: failed to list pending jobs: %v", err)
		return
	}
	for _, job := range pending {
		class := models.SizeClass(job.SizeClass)
		if class == "" {
			class = models.ClassifyBySize(job.TotalRows)
		}
		if err := d.Enqueue(class, job.ID); err != nil {
			logger.Printf("sweep: failed to enqueue job %s: %v", job.ID, err)
		}
	}
}
