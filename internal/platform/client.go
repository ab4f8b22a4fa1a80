package platform

import (
	"context"
	"fmt"
	"net/http"

	"github.com/brain-io/agent/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// SessionSource is satisfied by sessions.Manager
type SessionSource interface {
	GetSession(ctx context.Context) (*models.Session, error)
	Invalidate(ctx context.Context) error
}

// Client makes authenticated calls to the platform API. Every call asks
// the session source for a ready session first, so callers never deal with
// login or revalidation themselves.
type Client struct {
	client   *resty.Client
	sessions SessionSource
}

func NewClient(client *resty.Client, sessions SessionSource) *Client {
	return &Client{
		client:   client,
		sessions: sessions,
	}
}

// Get fetches path and decodes a JSON body into result. A 401 means the
// platform dropped the session between validation and this call; the
// session is invalidated and the request made once more.
func (c *Client) Get(ctx context.Context, path string, query map[string]string, result any) error {

	for attempt := 1; ; attempt++ {

		session, err := c.sessions.GetSession(ctx)
		if err != nil {
			return fmt.Errorf("failed to get platform session: %w", err)
		}

		req := c.client.R().
			SetContext(ctx).
			SetCookies(session.HTTPCookies()).
			SetQueryParams(query)

		if result != nil {
			req.SetResult(result)
		}

		resp, err := req.Get(path)

		if err != nil {
			return fmt.Errorf("request to %s failed: %w", path, err)
		}

		if resp.StatusCode() == http.StatusUnauthorized && attempt == 1 {

			logrus.WithFields(logrus.Fields{
				"path":    path,
				"session": session.ID,
			}).Warnln("Platform rejected session, re-authenticating")

			if err := c.sessions.Invalidate(ctx); err != nil {
				return err
			}
			continue
		}

		if resp.IsError() {
			return fmt.Errorf("request to %s failed with status: %s", path, resp.Status())
		}

		return nil
	}
}
