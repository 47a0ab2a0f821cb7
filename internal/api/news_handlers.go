package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/edubase4teachers/edubase-server/internal/domain"
)

func (s *Server) registerNewsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getNews",
		Method:      http.MethodGet,
		Path:        "/api/v1/news",
		Summary:     "Education news feed",
		Description: "Returns cached items scraped from the configured news source.",
		Tags:        []string{"News"},
	}, s.handleGetNews)
}

// NewsItemResponse is one article of the news feed.
type NewsItemResponse struct {
	Title       string `json:"title" doc:"Article title"`
	URL         string `json:"url" doc:"Article URL"`
	Image       string `json:"image,omitempty" doc:"Preview image URL"`
	Summary     string `json:"summary,omitempty" doc:"Markdown summary"`
	PublishedAt string `json:"published_at,omitempty" doc:"Publication date as shown by the source"`
}

// NewsResponse lists the current feed items.
type NewsResponse struct {
	Items []NewsItemResponse `json:"items" doc:"Feed items, newest first"`
}

// NewsOutput wraps the news response for Huma.
type NewsOutput struct {
	Body NewsResponse
}

func (s *Server) handleGetNews(ctx context.Context, _ *struct{}) (*NewsOutput, error) {
	// A nil service means the feed is not configured; serve an empty list.
	if s.services.News == nil {
		return &NewsOutput{Body: NewsResponse{Items: []NewsItemResponse{}}}, nil
	}

	items, err := s.services.News.Items(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]NewsItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, mapNewsItem(it))
	}
	return &NewsOutput{Body: NewsResponse{Items: out}}, nil
}

func mapNewsItem(it domain.NewsItem) NewsItemResponse {
	return NewsItemResponse{
		Title:       it.Title,
		URL:         it.URL,
		Image:       it.Image,
		Summary:     it.Summary,
		PublishedAt: it.PublishedAt,
	}
}
