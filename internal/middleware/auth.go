package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/telegram-mini-apps/init-data-golang"
	"news-digest-bot/internal/models"
)

type contextKey string

// UserContextKey is the key for the user in the context.
const UserContextKey = contextKey("user")

// initDataTTL is how long a Mini App launch stays valid.
const initDataTTL = 24 * time.Hour

type UserRegistrar interface {
	UpsertUser(ctx context.Context, id int64, handle string, def models.DeliveryTime) (bool, error)
}

// UserFromContext returns the user stored by AuthMiddleware.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok
}

// AuthMiddleware validates the Telegram Mini App initData and registers the user.
// defaultTime gives the UTC delivery time assigned to new users.
func AuthMiddleware(botToken string, users UserRegistrar, defaultTime func() models.DeliveryTime) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header is required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "tma" {
				http.Error(w, "Authorization header format must be 'tma <initData>'", http.StatusUnauthorized)
				return
			}

			initData := parts[1]
			if err := initdata.Validate(initData, botToken, initDataTTL); err != nil {
				log.Printf("Invalid init data: %v", err)
				http.Error(w, "Invalid init data", http.StatusUnauthorized)
				return
			}

			data, err := initdata.Parse(initData)
			if err != nil {
				log.Printf("Error parsing init data: %v", err)
				http.Error(w, "Error parsing init data", http.StatusBadRequest)
				return
			}
			if data.User.ID == 0 {
				http.Error(w, "Init data has no user", http.StatusUnauthorized)
				return
			}

			if _, err := users.UpsertUser(r.Context(), data.User.ID, data.User.Username, defaultTime()); err != nil {
				log.Printf("Error registering user %d: %v", data.User.ID, err)
				http.Error(w, "Failed to authenticate user", http.StatusInternalServerError)
				return
			}

			user := &models.User{ID: data.User.ID, Handle: data.User.Username}
			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
