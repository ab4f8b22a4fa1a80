package auth

import (
	"context"
	"time"

	"github.com/brain-io/agent/internal/models"
	"github.com/sirupsen/logrus"
)

// ChallengeResolver paces the biometric loop. Present is called once with
// the verification URL and returns when the operator says they are done.
// Retry is called after every attempt that did not complete and returns
// when the next attempt should be made. Returning an error aborts the
// handshake.
type ChallengeResolver interface {
	Present(ctx context.Context, challenge models.Challenge) error
	Retry(ctx context.Context, challenge models.Challenge) error
}

// PollingResolver is used where nobody can answer a prompt. It logs the
// verification URL and re-attempts on a fixed interval until the operator
// completes verification elsewhere or the context ends.
type PollingResolver struct {
	interval time.Duration
	wait     func(ctx context.Context, d time.Duration) error
}

func NewPollingResolver(interval time.Duration) *PollingResolver {
	return &PollingResolver{
		interval: interval,
		wait:     sleepContext,
	}
}

func (p *PollingResolver) Present(ctx context.Context, challenge models.Challenge) error {
	logrus.WithFields(logrus.Fields{
		"url":      challenge.URL,
		"interval": p.interval,
	}).Warnln("Biometric verification required. Complete it in a browser at the given url")
	return p.wait(ctx, p.interval)
}

func (p *PollingResolver) Retry(ctx context.Context, challenge models.Challenge) error {
	logrus.WithFields(logrus.Fields{
		"url":     challenge.URL,
		"attempt": challenge.Attempt,
	}).Infoln("Biometric verification still pending")
	return p.wait(ctx, p.interval)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
