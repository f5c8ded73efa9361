package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"news-digest-bot/internal/feed"
	"news-digest-bot/internal/models"
)

// feedSize is the number of items in a topic feed.
const feedSize = 20

func (h *Handlers) GetRSSFeed(w http.ResponseWriter, r *http.Request) {
	topic, ok := models.ParseTopic(mux.Vars(r)["topic"])
	if !ok {
		http.Error(w, "Topic not found", http.StatusNotFound)
		return
	}

	articles, err := h.store.LatestArticles(r.Context(), topic, feedSize)
	if err != nil {
		log.Printf("Error getting articles: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	rss, err := feed.GenerateTopicRSS(topic, articles, feed.BaseURL(r, h.opts.BaseURL), h.now())
	if err != nil {
		log.Printf("Error generating RSS: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml")
	w.Write([]byte(rss))
}
