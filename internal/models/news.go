package models

import "time"

// NewsArticle is a headline returned by a news source.
type NewsArticle struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
	URL         string    `json:"url,omitempty"`
	Date        time.Time `json:"date"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
}

// ScorerInput is the text handed to a polarity scorer for this article.
func (a NewsArticle) ScorerInput() string {
	if a.Description == "" {
		return a.Title
	}
	return a.Title + ". " + a.Description
}
