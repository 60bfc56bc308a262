package feedapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/STTM-NSU/pricefeed/internal/logger"
	"github.com/STTM-NSU/pricefeed/internal/model"
	"resty.dev/v3"
)

const (
	_healthURL = "/api/health"
	_quotesURL = "/api/quotes"

	_timeoutDefault = 5 * time.Second
)

var NotHealthyError = errors.New("feed server is not healthy")

type healthResponse struct {
	Status string `json:"status"`
}

// Client talks to the plain HTTP side of a feed server. Live quotes only ever
// come over the push channel; this is for readiness checks and one-off snapshots.
type Client struct {
	c      *resty.Client
	logger logger.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger logger.Logger) *Client {
	if timeout <= 0 {
		timeout = _timeoutDefault
	}
	client := resty.New().
		SetLogger(logger).
		SetBaseURL(baseURL).
		SetTimeout(timeout)

	return &Client{
		c:      client,
		logger: logger,
	}
}

func (c *Client) Health(ctx context.Context) error {
	resp, err := c.c.R().
		SetResult(&healthResponse{}).
		SetContext(ctx).
		Get(_healthURL)
	if err != nil {
		return fmt.Errorf("%w: can't send health request", err)
	}

	c.logger.Debugf("got response %s status: %s, %s", resp.Request.URL, resp.Status(), resp.Duration())

	if !resp.IsSuccess() {
		return fmt.Errorf("%w: %s", NotHealthyError, resp.Status())
	}
	if status := resp.Result().(*healthResponse).Status; status != "ok" {
		return fmt.Errorf("%w: status %q", NotHealthyError, status)
	}
	return nil
}

func (c *Client) Quotes(ctx context.Context) (model.Batch, error) {
	var batch model.Batch
	resp, err := c.c.R().
		SetResult(&batch).
		SetContext(ctx).
		Get(_quotesURL)
	if err != nil {
		return nil, fmt.Errorf("%w: can't send quotes request", err)
	}

	c.logger.Debugf("got response %s status: %s, %s", resp.Request.URL, resp.Status(), resp.Duration())

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("quotes request error: %s", resp.Status())
	}
	return batch, nil
}

func (c *Client) Close() error {
	return c.c.Close()
}

// BaseURL derives the HTTP base address of a server from its push channel URL.
func BaseURL(feedURL string) (string, error) {
	u, err := url.Parse(feedURL)
	if err != nil {
		return "", fmt.Errorf("%w: can't parse feed url", err)
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	case "http", "https":
	default:
		return "", fmt.Errorf("unsupported feed url scheme %q", u.Scheme)
	}
	u.Path, u.RawPath, u.RawQuery, u.Fragment = "", "", "", ""
	return u.String(), nil
}
