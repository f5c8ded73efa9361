package main

import (
	"log"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"news-digest-bot/internal/config"
	"news-digest-bot/pkg/tasks"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// Delivery times are stored in UTC, so cron specs are read in UTC too.
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		&asynq.SchedulerOpts{Location: time.UTC},
	)

	pruneTask, err := tasks.NewPruneArticlesTask(cfg.ArticleRetention)
	if err != nil {
		log.Fatalf("could not create task: %v", err)
	}

	entries := []struct {
		spec string
		task *asynq.Task
	}{
		{cfg.DigestCron, tasks.NewDispatchDigestTask()},
		{cfg.RefreshCron, tasks.NewRefreshAllTopicsTask()},
		{cfg.PruneCron, pruneTask},
	}
	for _, e := range entries {
		if _, err := scheduler.Register(e.spec, e.task); err != nil {
			log.Fatalf("could not register %s: %v", e.task.Type(), err)
		}
		log.Printf("Registered %s at %q", e.task.Type(), e.spec)
	}

	log.Printf("Scheduler starting (commit: %s)", CommitSHA)
	if err := scheduler.Run(); err != nil {
		log.Fatalf("could not run scheduler: %v", err)
	}
}
