package domain

import (
	"fmt"
	"time"
)

type MediaType string

const (
	MediaFilm   MediaType = "film"
	MediaAnime  MediaType = "anime"
	MediaBook   MediaType = "book"
	MediaGame   MediaType = "game"
	MediaSeries MediaType = "series"
)

type MediaItem struct {
	Id                  int64     `json:"media_id"`
	ItemType            MediaType `json:"item_type"`
	Name                string    `json:"name"`
	Year                int       `json:"year"`
	Author              string    `json:"author"`
	CreatedAt           time.Time `json:"created_at"`
	RecommendationCount int64     `json:"recommendation_count"`
	ExternalLink        string    `json:"external_link,omitempty"`
	AvgRating           float64   `json:"avg_rating"`
	RatingCount         int64     `json:"rating_count"`
	CommentCount        int64     `json:"comment_count"`
}

// Label renders the one-line form used by pickers and lists,
// e.g. "Solaris (1961) · book · Stanislaw Lem".
func (m *MediaItem) Label() string {
	return fmt.Sprintf("%s (%d) · %s · %s", m.Name, m.Year, m.ItemType, m.Author)
}

type Comment struct {
	Id        int64     `json:"comment_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `json:"user"`
}

// AIGuess is one ranked answer from the AI discovery endpoint. Media is
// set when the guess could be resolved to an existing record.
type AIGuess struct {
	Name   string     `json:"name"`
	Year   int        `json:"year,omitempty"`
	Author string     `json:"author,omitempty"`
	Reason string     `json:"reason,omitempty"`
	Media  *MediaItem `json:"media,omitempty"`
}
