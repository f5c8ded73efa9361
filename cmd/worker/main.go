package main

import (
	"context"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"news-digest-bot/internal/app"
	"news-digest-bot/internal/config"
	"news-digest-bot/internal/digest"
	"news-digest-bot/internal/telegram"
	"news-digest-bot/internal/worker"
	"news-digest-bot/pkg/tasks"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

// refreshUniqueFor matches the refresh_all cadence so a topic is queued at most once per run.
const refreshUniqueFor = 10 * time.Minute

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("could not start app: %v", err)
	}
	defer a.Close()

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatalf("could not create telegram bot: %v", err)
	}

	client := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer client.Close()

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		asynq.Config{
			// One dispatcher at a time; refreshes also share the news API budget.
			Concurrency: 1,
			Queues: map[string]int{
				tasks.QueueDigest: 6,
				"default":         1,
			},
			// A refresh backlog must never hold back the minute's digests.
			StrictPriority: true,
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				delay := time.Minute
				for i := 0; i < n; i++ {
					delay *= 2
				}
				log.Printf("Task %s failed %d times, retrying in %v", task.Type(), n+1, delay)
				return delay
			},
		},
	)

	dispatcher := digest.NewDispatcher(a.Store, a.Cache, telegram.NewClient(bot), cfg.HeadlineLimit)

	mux := asynq.NewServeMux()
	taskHandler := worker.NewTaskHandler(client, dispatcher, a.Refresher(), a.Store, refreshUniqueFor)

	mux.HandleFunc(tasks.TypeDispatchDigest, taskHandler.HandleDispatchDigestTask)
	mux.HandleFunc(tasks.TypeRefreshAllTopics, taskHandler.HandleRefreshAllTopicsTask)
	mux.HandleFunc(tasks.TypeRefreshTopic, taskHandler.HandleRefreshTopicTask)
	mux.HandleFunc(tasks.TypePruneArticles, taskHandler.HandlePruneArticlesTask)

	log.Printf("Worker starting (commit: %s)", CommitSHA)
	if err := srv.Run(mux); err != nil {
		log.Fatalf("could not run server: %v", err)
	}
}
