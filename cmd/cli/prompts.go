package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/brain-io/agent/internal/models"
	"github.com/charmbracelet/huh"
)

var errChallengeDeclined = errors.New("biometric verification declined")

// formPrompter asks for the platform email and password on the terminal.
type formPrompter struct{}

func (p *formPrompter) PromptCredentials(ctx context.Context, previous models.Credential) (models.Credential, error) {

	fmt.Println()
	fmt.Println(titleStyle.Render("Platform Sign In"))

	credential := models.Credential{
		Identifier: previous.Identifier,
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&credential.Identifier).
				Validate(requireValue("email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&credential.Secret).
				Validate(requireValue("password")),
		),
	)

	if err := form.RunWithContext(ctx); err != nil {
		return models.Credential{}, fmt.Errorf("credential prompt cancelled: %w", err)
	}

	credential.Identifier = strings.TrimSpace(credential.Identifier)
	return credential, nil
}

func requireValue(name string) func(string) error {
	return func(s string) error {
		if len(strings.TrimSpace(s)) == 0 {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

// formResolver shows the verification url and waits for the operator to
// confirm they completed it.
type formResolver struct{}

func (r *formResolver) Present(ctx context.Context, challenge models.Challenge) error {
	fmt.Println()
	fmt.Println(warningStyle.Render("Biometric verification required"))
	fmt.Println("Open the following link in a browser and complete the check:")
	fmt.Println()
	fmt.Println("  " + infoStyle.Render(challenge.URL))
	fmt.Println()

	return r.confirm(ctx, "Completed verification?")
}

func (r *formResolver) Retry(ctx context.Context, challenge models.Challenge) error {
	fmt.Println(warningStyle.Render(
		fmt.Sprintf("Verification not complete yet (attempt %d)", challenge.Attempt)))

	return r.confirm(ctx, "Try again?")
}

func (r *formResolver) confirm(ctx context.Context, title string) error {

	done := true

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes").
				Negative("Abort").
				Value(&done),
		),
	)

	if err := form.RunWithContext(ctx); err != nil {
		return fmt.Errorf("verification prompt cancelled: %w", err)
	}

	if !done {
		return errChallengeDeclined
	}

	return nil
}
