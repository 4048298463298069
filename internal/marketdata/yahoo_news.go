package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/stockai-go/internal/models"
)

const (
	// DefaultYahooBaseURL serves both the search and chart APIs.
	DefaultYahooBaseURL = "https://query1.finance.yahoo.com"
	searchPath          = "/v1/finance/search"
	userAgent           = "Mozilla/5.0 (compatible; stockai-go/1.0)"
)

type yahooSearchResponse struct {
	News []yahooNewsItem `json:"news"`
}

type yahooNewsItem struct {
	UUID                string `json:"uuid"`
	Title               string `json:"title"`
	Summary             string `json:"summary"`
	Publisher           string `json:"publisher"`
	Link                string `json:"link"`
	ProviderPublishTime int64  `json:"providerPublishTime"`
	Thumbnail           *struct {
		Resolutions []struct {
			URL    string `json:"url"`
			Width  int    `json:"width"`
			Height int    `json:"height"`
		} `json:"resolutions"`
	} `json:"thumbnail"`
}

// YahooNewsSource fetches headlines from the Yahoo Finance search API.
type YahooNewsSource struct {
	client *resty.Client
	logger *logrus.Logger
}

// NewYahooNewsSource creates a news source. An empty baseURL uses Yahoo's.
func NewYahooNewsSource(baseURL string, timeout time.Duration, logger *logrus.Logger) *YahooNewsSource {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", userAgent)
	client.SetHeader("Accept", "application/json")

	return &YahooNewsSource{client: client, logger: logger}
}

// FetchNews implements services.NewsSource. Items without a title are skipped.
func (y *YahooNewsSource) FetchNews(ctx context.Context, symbol string, limit int) ([]models.NewsArticle, error) {
	var payload yahooSearchResponse
	resp, err := y.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":           symbol,
			"quotesCount": "0",
			"newsCount":   strconv.Itoa(limit),
		}).
		SetResult(&payload).
		Get(searchPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news for %s: %w", symbol, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("news API error %d for %s", resp.StatusCode(), symbol)
	}

	articles := make([]models.NewsArticle, 0, len(payload.News))
	for _, item := range payload.News {
		if item.Title == "" {
			continue
		}
		articles = append(articles, articleFromItem(item))
		if len(articles) == limit {
			break
		}
	}

	y.logger.WithFields(logrus.Fields{
		"symbol":   symbol,
		"articles": len(articles),
	}).Debug("Fetched news")

	return articles, nil
}

func articleFromItem(item yahooNewsItem) models.NewsArticle {
	article := models.NewsArticle{
		ID:          item.UUID,
		Title:       item.Title,
		Description: item.Summary,
		Source:      item.Publisher,
		URL:         item.Link,
	}
	if item.ProviderPublishTime > 0 {
		article.Date = time.Unix(item.ProviderPublishTime, 0).UTC()
	}
	if article.Source == "" {
		article.Source = "Unknown"
	}
	if item.Thumbnail != nil && len(item.Thumbnail.Resolutions) > 0 {
		article.Thumbnail = item.Thumbnail.Resolutions[0].URL
	}
	return article
}
