package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	gormLogger "gorm.io/gorm/logger"

	mysqlRepo "github.com/nanichang/employee-import-engine/internal/repository/mysql"
)

// cmd/cleanup is an operator-run verb, not a long-lived process: given a
// completed or failed job ID, it removes the job row and everything it
// owns (ledger, errors, resumption log) and deletes the uploaded file
// from disk. It refuses to touch a job still pending or processing.
func main() {
	jobID := flag.String("job", "", "import job ID to delete")
	dryRun := flag.Bool("dry-run", false, "report what would be deleted without deleting")
	flag.Parse()

	if *jobID == "" {
		fmt.Fprintln(os.Stderr, "usage: cleanup -job <import-job-id> [-dry-run]")
		os.Exit(2)
	}

	gormLog := gormLogger.New(
		log.New(os.Stderr, "", log.LstdFlags),
		gormLogger.Config{SlowThreshold: time.Second, LogLevel: gormLogger.Warn, IgnoreRecordNotFoundError: true},
	)

	db, err := mysqlRepo.NewMySQL(gormLog)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	jobRepo := mysqlRepo.NewJobRepository(db)

	ctx := context.Background()
	job, err := jobRepo.FindByID(ctx, *jobID)
	if err != nil {
		log.Fatalf("failed to load job %s: %v", *jobID, err)
	}
	if job == nil {
		log.Fatalf("job %s not found", *jobID)
	}
	if !job.IsTerminal() {
		log.Fatalf("job %s is %s, refusing to delete a non-terminal job", *jobID, job.Status)
	}

	if *dryRun {
		fmt.Printf("would delete job %s (%s, status=%s) and file %s\n", job.ID, job.Filename, job.Status, job.FilePath)
		return
	}

	if err := jobRepo.DeleteCascade(ctx, *jobID); err != nil {
		log.Fatalf("failed to delete job %s: %v", *jobID, err)
	}

	if job.FilePath != "" {
		if err := os.Remove(job.FilePath); err != nil && !os.IsNotExist(err) {
			log.Printf("job %s deleted from database but file removal failed: %v", *jobID, err)
			return
		}
	}

	fmt.Printf("deleted job %s and its uploaded file\n", job.ID)
}
