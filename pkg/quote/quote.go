package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultURL returns one random motivational quote.
const DefaultURL = "https://api.quotable.io/random?tags=motivational"

var ErrEmpty = errors.New("quote response has no text")

// Client fetches quotes from a public quote endpoint.
type Client struct {
	url        string
	httpClient *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type quoteBody struct {
	Content string `json:"content"`
	Text    string `json:"text"`
	Q       string `json:"q"`
}

func (b quoteBody) text() string {
	for _, s := range []string{b.Content, b.Text, b.Q} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// Random fetches one quote.
func (c *Client) Random(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return "", fmt.Errorf("build quote request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch quote: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read quote response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch quote: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return parse(body)
}

// parse accepts a single object or an array whose first element is used.
func parse(body []byte) (string, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var list []quoteBody
		if err := json.Unmarshal(body, &list); err != nil {
			return "", fmt.Errorf("decode quote response: %w", err)
		}
		if len(list) == 0 {
			return "", ErrEmpty
		}
		return nonEmpty(list[0].text())
	}

	var one quoteBody
	if err := json.Unmarshal(body, &one); err != nil {
		return "", fmt.Errorf("decode quote response: %w", err)
	}
	return nonEmpty(one.text())
}

func nonEmpty(s string) (string, error) {
	if s == "" {
		return "", ErrEmpty
	}
	return s, nil
}
