package models

import "strings"

// Credential is the identity used to open a platform session. The JSON
// layout matches the credentials file on disk.
type Credential struct {
	Identifier string `json:"email,omitempty"`
	Secret     string `json:"password,omitempty"`
}

// IsEmpty reports whether the credential carries nothing usable. An empty
// credential on disk means the store was invalidated.
func (c Credential) IsEmpty() bool {
	return len(strings.TrimSpace(c.Identifier)) == 0 || len(c.Secret) == 0
}

// String never includes the secret.
func (c Credential) String() string {
	return c.Identifier
}
