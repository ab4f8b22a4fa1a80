package sessions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/brain-io/agent/internal/models"
	"github.com/sirupsen/logrus"
)

// Authenticator opens a brand new session
type Authenticator interface {
	Authenticate(ctx context.Context, credential models.Credential) (*models.Session, error)
}

// CredentialSource supplies the identity a handshake starts with
type CredentialSource interface {
	GetCredentials(ctx context.Context) (models.Credential, error)
}

// Manager owns the active session. Callers ask it for a session and get
// one that passed both the local timeout and the platform's own check, or
// a freshly authenticated one.
type Manager struct {
	// held for the whole of GetSession so concurrent callers never race a
	// second handshake
	lock sync.Mutex

	active *models.Session

	store         Store
	validator     Validator
	authenticator Authenticator
	credentials   CredentialSource

	now func() time.Time
}

func NewManager(
	store Store,
	validator Validator,
	authenticator Authenticator,
	credentials CredentialSource,
) *Manager {
	return &Manager{
		store:         store,
		validator:     validator,
		authenticator: authenticator,
		credentials:   credentials,
		now:           time.Now,
	}
}

// GetSession returns a usable session. It tries, in order, the session held
// in memory, the one on disk, and finally a full handshake. Only a failed
// handshake produces an error.
func (m *Manager) GetSession(ctx context.Context) (*models.Session, error) {

	m.lock.Lock()
	defer m.lock.Unlock()

	var discarded *models.Session

	if m.active != nil {

		if m.isValid(ctx, m.active) {
			return m.active, nil
		}

		logrus.WithField("session", m.active.ID).Infoln("Active session is no longer valid, discarding it")
		discarded = m.active
		m.active = nil
	}

	if stored := m.store.Load(); stored != nil {

		switch {
		case discarded != nil && stored.ID == discarded.ID:
			// disk copy of the session that just failed, no need to ask again
			m.clearStored()

		case m.isValid(ctx, stored):
			m.active = stored
			return stored, nil

		default:
			logrus.WithField("session", stored.ID).Infoln("Stored session is no longer valid, discarding it")
			m.clearStored()
		}
	}

	session, err := m.handshake(ctx)
	if err != nil {
		return nil, err
	}

	if err := m.store.Save(session); err != nil {
		logrus.WithError(err).Warnln("Failed to persist new session, continuing with it in memory")
	}

	m.active = session

	return session, nil
}

// Current returns the in-memory session without checking it
func (m *Manager) Current() *models.Session {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.active
}

// Invalidate forgets the active session both in memory and on disk so the
// next GetSession performs a handshake.
func (m *Manager) Invalidate(ctx context.Context) error {

	m.lock.Lock()
	defer m.lock.Unlock()

	m.active = nil

	if err := m.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear stored session: %w", err)
	}

	logrus.Infoln("Session invalidated")

	return nil
}

// clearStored removes a session that failed validation from disk so a
// failed handshake does not leave it behind to be revalidated.
func (m *Manager) clearStored() {
	if err := m.store.Clear(); err != nil {
		logrus.WithError(err).Debugln("Failed to clear discarded session")
	}
}

// isValid applies the local timeout first and only asks the platform when
// that passes. A successful remote check restarts the local timeout.
func (m *Manager) isValid(ctx context.Context, session *models.Session) bool {

	if session.TimedOut(m.now()) {
		logrus.WithFields(logrus.Fields{
			"session":        session.ID,
			"last_validated": session.LastValidated,
		}).Debugln("Session passed its local timeout")
		return false
	}

	valid, err := m.validator.Validate(ctx, session)
	if err != nil {
		logrus.WithError(err).WithField("session", session.ID).Warnln("Could not validate session with platform")
		return false
	}

	if !valid {
		return false
	}

	session.MarkValidated(m.now())

	if err := m.store.Save(session); err != nil {
		logrus.WithError(err).Debugln("Failed to persist validated session")
	}

	return true
}

func (m *Manager) handshake(ctx context.Context) (*models.Session, error) {

	logrus.Infoln("Creating new platform session")

	credential, err := m.credentials.GetCredentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve credentials: %w", err)
	}

	session, err := m.authenticator.Authenticate(ctx, credential)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}

	return session, nil
}
