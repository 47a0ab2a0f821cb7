package domain

// NewsItem is one scraped article from the education news feed.
// Items are ephemeral: they live in the in-process news cache and are never
// persisted.
type NewsItem struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Image       string `json:"image,omitempty"`
	Summary     string `json:"summary,omitempty"`
	PublishedAt string `json:"published_at,omitempty"` // Raw date text as published by the source
}
