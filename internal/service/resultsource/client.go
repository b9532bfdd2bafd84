package resultsource

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"LottoStats/internal/domain/models"
	drepo "LottoStats/internal/domain/repository"
	xhttp "LottoStats/pkg/http"
)

// Client pulls published results from the upstream results API.
type Client struct {
	baseURL string
	apiKey  string
	client  *xhttp.Client
}

// New builds a results API client. apiKey is sent as a bearer token when set.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type resultsResponse struct {
	Data []models.LotteryResult `json:"data"`
}

// Fetch returns up to limit of the most recent results of t.
func (c *Client) Fetch(ctx context.Context, t models.LotteryType, limit int) ([]models.LotteryResult, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("results api url not configured")
	}
	headers := map[string]string{"Accept": "application/json"}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}
	var resp resultsResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         fmt.Sprintf("%s/%s/results", c.baseURL, t),
		Headers:     headers,
		QueryParams: map[string][]string{"limit": {strconv.Itoa(limit)}},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("fetch %s results: %w", t, err)
	}
	for i := range resp.Data {
		if resp.Data[i].LotteryType == "" {
			resp.Data[i].LotteryType = t
		}
	}
	return resp.Data, nil
}

var _ drepo.ResultSource = (*Client)(nil)
