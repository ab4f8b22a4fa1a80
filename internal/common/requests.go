package common

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// NewPlatformClient builds the resty client shared by every call made
// against the platform. Redirects are not followed so a challenge Location
// header is always visible to the caller. There is no cookie jar: cookies
// belong to a session and are attached per request.
func NewPlatformClient(endpoint string, timeout time.Duration) *resty.Client {

	client := resty.New().
		SetBaseURL(strings.TrimRight(endpoint, "/")).
		SetCookieJar(nil).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", fmt.Sprintf("brain-agent/%s", GetBuildIdentifier())).
		SetRedirectPolicy(resty.NoRedirectPolicy())

	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	client.OnError(func(req *resty.Request, err error) {
		logrus.WithFields(logrus.Fields{
			"url":    req.URL,
			"method": req.Method,
		}).WithError(err).Debugln("Platform request failed")
	})

	return client
}

// ResolveLocation resolves a Location header against the URL of the request
// that produced it.
func ResolveLocation(resp *resty.Response) (string, error) {

	location := resp.Header().Get("Location")

	if len(location) == 0 {
		return "", fmt.Errorf("response has no Location header")
	}

	base, err := requestURL(resp)
	if err != nil {
		return "", err
	}

	ref, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("invalid Location header %q: %w", location, err)
	}

	return base.ResolveReference(ref).String(), nil
}

func requestURL(resp *resty.Response) (*url.URL, error) {
	if resp.RawResponse != nil && resp.RawResponse.Request != nil && resp.RawResponse.Request.URL != nil {
		return resp.RawResponse.Request.URL, nil
	}
	if resp.Request != nil && resp.Request.RawRequest != nil && resp.Request.RawRequest.URL != nil {
		return resp.Request.RawRequest.URL, nil
	}
	if resp.Request != nil && len(resp.Request.URL) > 0 {
		return url.Parse(resp.Request.URL)
	}
	return nil, fmt.Errorf("response carries no request URL")
}

// IsSuccess reports a 2xx status.
func IsSuccess(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}
