package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"news-digest-bot/internal/db"
	"news-digest-bot/internal/middleware"
	"news-digest-bot/internal/models"
)

type subscriptionsResponse struct {
	Topics []models.Topic `json:"topics"`
}

type deliveryTimeBody struct {
	Time     string `json:"time"`
	Timezone string `json:"timezone,omitempty"`
}

type profileResponse struct {
	ID           int64          `json:"id"`
	Handle       string         `json:"handle"`
	DeliveryTime string         `json:"delivery_time"`
	Timezone     string         `json:"timezone"`
	Topics       []models.Topic `json:"topics"`
}

// GetMe returns the caller's profile for the Mini App start screen.
func (h *Handlers) GetMe(w http.ResponseWriter, r *http.Request) {
	ctxUser, _ := middleware.UserFromContext(r.Context())

	user, err := h.store.GetUser(r.Context(), ctxUser.ID)
	if errors.Is(err, db.ErrNotFound) {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error getting user: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	topics, err := h.store.SubscriptionsByUserID(r.Context(), user.ID)
	if err != nil {
		log.Printf("Error getting subscriptions: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if topics == nil {
		topics = []models.Topic{}
	}

	writeJSON(w, http.StatusOK, profileResponse{
		ID:           user.ID,
		Handle:       user.Handle,
		DeliveryTime: h.toLocal(user.DeliveryTime()).String(),
		Timezone:     h.opts.Location.String(),
		Topics:       topics,
	})
}

func (h *Handlers) GetTopics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, subscriptionsResponse{Topics: models.Topics})
}

func (h *Handlers) GetSubscriptions(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	topics, err := h.store.SubscriptionsByUserID(r.Context(), user.ID)
	if err != nil {
		log.Printf("Error getting subscriptions: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if topics == nil {
		topics = []models.Topic{}
	}
	writeJSON(w, http.StatusOK, subscriptionsResponse{Topics: topics})
}

func (h *Handlers) PutSubscription(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	topic, ok := models.ParseTopic(mux.Vars(r)["topic"])
	if !ok {
		http.Error(w, "Unknown topic", http.StatusBadRequest)
		return
	}

	created, err := h.store.Subscribe(r.Context(), user.ID, topic)
	if err != nil {
		log.Printf("Error creating subscription: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if created {
		w.WriteHeader(http.StatusCreated)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) DeleteSubscription(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	topic, ok := models.ParseTopic(mux.Vars(r)["topic"])
	if !ok {
		http.Error(w, "Unknown topic", http.StatusBadRequest)
		return
	}

	removed, err := h.store.Unsubscribe(r.Context(), user.ID, topic)
	if err != nil {
		log.Printf("Error deleting subscription: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !removed {
		http.Error(w, "Not subscribed", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) GetDeliveryTime(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	t, err := h.store.GetDeliveryTime(r.Context(), user.ID)
	if err != nil {
		log.Printf("Error getting delivery time: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, deliveryTimeBody{Time: h.toLocal(t).String(), Timezone: h.opts.Location.String()})
}

func (h *Handlers) PutDeliveryTime(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var body deliveryTimeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	local, err := models.ParseDeliveryTime(body.Time)
	if err != nil {
		http.Error(w, "Time must be HH:MM", http.StatusBadRequest)
		return
	}

	updated, err := h.store.SetDeliveryTime(r.Context(), user.ID, h.toUTC(local))
	if err != nil {
		log.Printf("Error setting delivery time: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !updated {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, deliveryTimeBody{Time: local.String(), Timezone: h.opts.Location.String()})
}

func (h *Handlers) GetHeadlines(w http.ResponseWriter, r *http.Request) {
	topic, ok := models.ParseTopic(mux.Vars(r)["topic"])
	if !ok {
		http.Error(w, "Unknown topic", http.StatusBadRequest)
		return
	}

	headlines := h.headlines.Headlines(r.Context(), topic, h.opts.HeadlineLimit)
	if headlines == nil {
		headlines = []models.Headline{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"topic": topic, "headlines": headlines})
}
