package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
	"news-digest-bot/internal/app"
	"news-digest-bot/internal/config"
	"news-digest-bot/internal/handlers"
	"news-digest-bot/internal/middleware"
	"news-digest-bot/internal/telegram"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

// keepAliveEvery stays under the 15 minute idle limit of free hosting tiers.
const keepAliveEvery = 14 * time.Minute

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("could not start app: %v", err)
	}
	defer a.Close()

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatalf("could not create telegram bot: %v", err)
	}
	log.Printf("Authorized on account %s", bot.Self.UserName)

	limiter := middleware.NewRateLimiter(rate.Limit(cfg.UserRateLimit), cfg.UserRateBurst)
	h := handlers.New(a.Store, a.Cache, limiter, handlers.Options{
		Location:            cfg.Location,
		DefaultDeliveryTime: cfg.DefaultDeliveryTime,
		HeadlineLimit:       cfg.HeadlineLimit,
		BaseURL:             cfg.BaseURL,
	})

	go h.StartTelegramBot(ctx, bot, telegram.NewClient(bot))

	if cfg.KeepaliveURL != "" {
		go keepAlive(ctx, &http.Client{Timeout: 30 * time.Second}, cfg.KeepaliveURL, keepAliveEvery)
	}

	auth := middleware.AuthMiddleware(cfg.TelegramToken, a.Store, h.DefaultDeliveryTimeUTC)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: newRouter(h, auth, limiter),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down server: %v", err)
		}
	}()

	log.Printf("Starting server on :%s (commit: %s)\n", cfg.Port, CommitSHA)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	log.Println("Server stopped")
}

func newRouter(h *handlers.Handlers, auth func(http.Handler) http.Handler, limiter *middleware.RateLimiter) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ping", h.Ping).Methods(http.MethodGet)
	r.HandleFunc("/rss/{topic}", h.GetRSSFeed).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(auth, limiter.Middleware)
	api.HandleFunc("/me", h.GetMe).Methods(http.MethodGet)
	api.HandleFunc("/topics", h.GetTopics).Methods(http.MethodGet)
	api.HandleFunc("/topics/{topic}/headlines", h.GetHeadlines).Methods(http.MethodGet)
	api.HandleFunc("/subscriptions", h.GetSubscriptions).Methods(http.MethodGet)
	api.HandleFunc("/subscriptions/{topic}", h.PutSubscription).Methods(http.MethodPut)
	api.HandleFunc("/subscriptions/{topic}", h.DeleteSubscription).Methods(http.MethodDelete)
	api.HandleFunc("/delivery-time", h.GetDeliveryTime).Methods(http.MethodGet)
	api.HandleFunc("/delivery-time", h.PutDeliveryTime).Methods(http.MethodPut)

	return r
}

// keepAlive pings url until ctx is done.
func keepAlive(ctx context.Context, client *http.Client, url string, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				log.Printf("Error building keep-alive request: %v", err)
				return
			}
			resp, err := client.Do(req)
			if err != nil {
				log.Printf("Keep-alive ping failed: %v", err)
				continue
			}
			resp.Body.Close()
			log.Printf("Keep-alive ping: %s", resp.Status)
		}
	}
}
