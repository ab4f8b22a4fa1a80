package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/brain-io/agent/internal/common"
	"github.com/brain-io/agent/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const personaScheme = "persona"

// CredentialSource is what the handshake needs from the credential
// provider: a current identity, and a way to reject it.
type CredentialSource interface {
	GetCredentials(ctx context.Context) (models.Credential, error)
	Invalidate(ctx context.Context) error
}

type Options struct {
	// Path of the login endpoint, relative to the client's base URL
	AuthenticationPath string

	// Local timeout stamped on every new session
	SessionTimeout time.Duration
}

// Authenticator performs the login handshake against the platform
type Authenticator struct {
	client      *resty.Client
	credentials CredentialSource
	resolver    ChallengeResolver
	options     Options
}

func NewAuthenticator(
	client *resty.Client,
	credentials CredentialSource,
	resolver ChallengeResolver,
	options Options,
) *Authenticator {
	if len(options.AuthenticationPath) == 0 {
		options.AuthenticationPath = "/authentication"
	}
	return &Authenticator{
		client:      client,
		credentials: credentials,
		resolver:    resolver,
		options:     options,
	}
}

type authenticationResponse struct {
	User struct {
		ID string `json:"id"`
	} `json:"user"`
	Token struct {
		// seconds until the server drops the session
		Expiry float64 `json:"expiry"`
	} `json:"token"`
}

// Authenticate logs in with credential and returns a fresh session. A
// plain 401 invalidates the credential, asks the source for a new one and
// starts over. A persona challenge is handed to the resolver and retried
// until the platform accepts it or ctx ends.
func (a *Authenticator) Authenticate(ctx context.Context, credential models.Credential) (*models.Session, error) {

	for {

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		logrus.WithFields(logrus.Fields{
			"identifier": credential.Identifier,
			"endpoint":   a.client.BaseURL,
		}).Debugln("Starting authentication")

		resp, err := a.client.R().
			SetContext(ctx).
			SetBasicAuth(credential.Identifier, credential.Secret).
			Post(a.options.AuthenticationPath)

		if err != nil {
			return nil, &AuthError{
				Op:  "login",
				URL: a.loginURL(),
				Err: err,
			}
		}

		session := models.NewSession(a.client.BaseURL, credential.Identifier, a.options.SessionTimeout)
		session.SetCookies(resp.Cookies())

		switch {

		case common.IsSuccess(resp.StatusCode()):

			a.applyResponse(session, resp.Body())

			logrus.WithFields(logrus.Fields{
				"identifier": credential.Identifier,
				"session":    session.ID,
			}).Infoln("Authenticated with platform")

			return session, nil

		case resp.StatusCode() == http.StatusUnauthorized && isPersonaChallenge(resp):

			return a.completeBiometric(ctx, credential, session, resp)

		case resp.StatusCode() == http.StatusUnauthorized:

			logrus.WithField("identifier", credential.Identifier).
				WithError(ErrBadCredentials).
				Warnln("Platform rejected credentials")

			if err := a.credentials.Invalidate(ctx); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrBadCredentials, err)
			}

			credential, err = a.credentials.GetCredentials(ctx)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrBadCredentials, err)
			}

		default:
			return nil, &AuthError{
				Op:     "login",
				URL:    a.loginURL(),
				Status: resp.StatusCode(),
				Err:    fmt.Errorf("unexpected response %q", resp.Status()),
			}
		}
	}
}

func (a *Authenticator) completeBiometric(
	ctx context.Context,
	credential models.Credential,
	session *models.Session,
	resp *resty.Response,
) (*models.Session, error) {

	challengeURL, err := common.ResolveLocation(resp)
	if err != nil {
		return nil, &AuthError{
			Op:     "biometric",
			URL:    a.loginURL(),
			Status: resp.StatusCode(),
			Err:    err,
		}
	}

	challenge := models.Challenge{URL: challengeURL}

	logrus.WithField("url", challenge.URL).Infoln("Biometric verification required")

	if err := a.resolver.Present(ctx, challenge); err != nil {
		return nil, err
	}

	for {

		challenge.Attempt++

		resp, err := a.client.R().
			SetContext(ctx).
			SetBasicAuth(credential.Identifier, credential.Secret).
			SetCookies(session.HTTPCookies()).
			Post(challenge.URL)

		if err != nil {

			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			logrus.WithField("attempt", challenge.Attempt).
				WithError(err).
				Warnln("Biometric check failed to reach the platform")

		} else {

			session.SetCookies(resp.Cookies())

			if resp.StatusCode() == http.StatusCreated {

				a.applyResponse(session, resp.Body())

				logrus.WithFields(logrus.Fields{
					"identifier": credential.Identifier,
					"session":    session.ID,
					"attempts":   challenge.Attempt,
				}).Infoln("Biometric verification completed")

				return session, nil
			}

			logrus.WithFields(logrus.Fields{
				"attempt": challenge.Attempt,
				"status":  resp.StatusCode(),
			}).WithError(ErrBiometricIncomplete).Debugln("Biometric check not accepted yet")
		}

		if err := a.resolver.Retry(ctx, challenge); err != nil {
			return nil, err
		}
	}
}

// applyResponse picks the server expiry out of a login response. A body
// that does not parse leaves the session on its local timeout alone.
func (a *Authenticator) applyResponse(session *models.Session, body []byte) {

	if len(body) == 0 {
		return
	}

	var parsed authenticationResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		logrus.WithError(err).Debugln("Authentication response is not JSON")
		return
	}

	if parsed.Token.Expiry > 0 {
		session.ExpiresAt = session.CreatedAt.Add(time.Duration(parsed.Token.Expiry * float64(time.Second)))
	}
}

func (a *Authenticator) loginURL() string {
	return strings.TrimRight(a.client.BaseURL, "/") + a.options.AuthenticationPath
}

func isPersonaChallenge(resp *resty.Response) bool {
	return strings.EqualFold(strings.TrimSpace(resp.Header().Get("WWW-Authenticate")), personaScheme)
}
