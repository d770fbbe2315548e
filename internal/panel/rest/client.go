// Package rest is the authenticated HTTP transport to the bot-control backend.
package rest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"arbpanel/internal/logger"

	"github.com/sirupsen/logrus"
)

// Session is the credential source the transport reads and invalidates on 401.
type Session interface {
	CurrentAuthValue() (string, bool)
	Clear(ctx context.Context) error
}

type Client struct {
	baseURL    string
	session    Session
	httpClient *http.Client
	log        *logger.Logger
}

func New(baseURL string, session Session, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: session,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) logEntry(requestID string) *logrus.Entry {
	return c.log.WithRequestID("rest", requestID)
}
