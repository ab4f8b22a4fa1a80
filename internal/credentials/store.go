package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/brain-io/agent/internal/models"
)

// Store keeps a single platform identity between runs. Load returns an
// empty credential, not an error, when nothing has been stored yet or the
// store was cleared.
type Store interface {
	Load(ctx context.Context) (models.Credential, error)
	Save(ctx context.Context, credential models.Credential) error
	Clear(ctx context.Context) error
	Location() string
}

// emptyDocument is what a cleared store holds
var emptyDocument = []byte("{}")

func decodeCredential(data []byte) (models.Credential, error) {

	var credential models.Credential

	if len(strings.TrimSpace(string(data))) == 0 {
		return credential, nil
	}

	if err := json.Unmarshal(data, &credential); err != nil {
		return models.Credential{}, fmt.Errorf("failed to parse credentials: %w", err)
	}

	return credential, nil
}

func encodeCredential(credential models.Credential) ([]byte, error) {
	data, err := json.Marshal(credential)
	if err != nil {
		return nil, fmt.Errorf("failed to encode credentials: %w", err)
	}
	return data, nil
}
