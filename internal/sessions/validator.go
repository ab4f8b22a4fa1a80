package sessions

import (
	"context"
	"fmt"
	"net/http"

	"github.com/brain-io/agent/internal/common"
	"github.com/brain-io/agent/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// Validator is the remote half of the validity check
type Validator interface {
	Validate(ctx context.Context, session *models.Session) (bool, error)
}

// RemoteValidator issues an authenticated GET with the session's cookies.
// Any 2xx means the platform still recognises the session.
type RemoteValidator struct {
	client *resty.Client
	path   string
}

func NewRemoteValidator(client *resty.Client, path string) *RemoteValidator {
	if len(path) == 0 {
		path = "/authentication"
	}
	return &RemoteValidator{
		client: client,
		path:   path,
	}
}

func (v *RemoteValidator) Validate(ctx context.Context, session *models.Session) (bool, error) {

	if session == nil {
		return false, nil
	}

	resp, err := v.client.R().
		SetContext(ctx).
		SetCookies(session.HTTPCookies()).
		Get(v.path)

	if err != nil {
		return false, fmt.Errorf("failed to validate session: %w", err)
	}

	valid := common.IsSuccess(resp.StatusCode())

	logrus.WithFields(logrus.Fields{
		"session": session.ID,
		"status":  resp.StatusCode(),
		"valid":   valid,
	}).Debugln("Validated session with platform")

	if !valid && resp.StatusCode() != http.StatusUnauthorized {
		logrus.WithField("status", resp.Status()).Warnln("Unexpected response while validating session")
	}

	return valid, nil
}
