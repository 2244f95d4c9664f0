package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// RestaurantClient talks to the restaurant service
type RestaurantClient struct {
	client     *resty.Client
	creatorURL string
}

// NewRestaurantClient creates a client for the restaurant service at baseURL.
// creatorPath is the route prefix of the lookup-by-creator endpoint.
func NewRestaurantClient(baseURL, creatorPath string, timeout time.Duration) *RestaurantClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &RestaurantClient{
		client:     client,
		creatorURL: "/" + strings.Trim(creatorPath, "/") + "/{creatorId}",
	}
}

// GetRestaurantByCreatorID returns the id of the restaurant created by a user, or ""
// when the user has none.
func (c *RestaurantClient) GetRestaurantByCreatorID(ctx context.Context, creatorID int) (string, error) {
	var body map[string]any
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("creatorId", strconv.Itoa(creatorID)).
		SetResult(&body).
		Get(c.creatorURL)
	if err != nil {
		return "", fmt.Errorf("restaurant request failed: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return "", nil
	}
	if resp.IsError() {
		return "", fmt.Errorf("restaurant service returned status %d", resp.StatusCode())
	}

	for _, key := range []string{"id", "_id"} {
		if id, ok := body[key]; ok && id != nil {
			return formatID(id), nil
		}
	}
	return "", nil
}

func formatID(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return fmt.Sprint(id)
	}
}
