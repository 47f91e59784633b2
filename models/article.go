package models

import "time"

// Article represents a scraped news item with stable identity.
// The ID is derived from the canonical URL and never changes; the only
// mutation allowed after creation is appending new tags.
type Article struct {
	ID         string    `bson:"_id" json:"id"`
	Title      string    `bson:"title" json:"title"`
	URL        string    `bson:"url" json:"url"`
	Content    string    `bson:"content" json:"content"`
	Source     string    `bson:"source" json:"source"`
	SourceType string    `bson:"source_type,omitempty" json:"source_type,omitempty"` // hackernews, cybernews
	Date       string    `bson:"date" json:"date"`                                   // ISO date string as scraped
	Tags       []string  `bson:"tags,omitempty" json:"tags,omitempty"`
	ScrapedAt  time.Time `bson:"scraped_at,omitempty" json:"scraped_at,omitempty"`
}

// SourceType constants
const (
	SourceHackerNews = "hackernews"
	SourceCyberNews  = "cybernews"
)
