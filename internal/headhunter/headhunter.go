package headhunter

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	apiURL    = "https://api.hh.ru"
	userAgent = "swwwjjw/barometer-pulkovo (barometer@pulkovo.local)"
	// Max value for search per page.
	perPage = "100"
)

type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
	// Limiter is waited on before every request when set.
	Limiter *rate.Limiter
}

// New creates a client. An empty token is allowed: the vacancy search is public
// and the Authorization header is only sent when a token is configured.
func New(logger *zap.Logger, token string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		token:  strings.TrimSpace(token),
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

// Search returns raw vacancy items from all pages, up to maxPages (0 means no limit).
func (c *Client) Search(ctx context.Context, params *SearchParams, maxPages int) ([]Item, error) {
	return c.search(ctx, params, maxPages)
}
