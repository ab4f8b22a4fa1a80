package models

// Challenge is produced when the platform answers a login with
// "401 + WWW-Authenticate: persona". It lives only for the duration of the
// biometric retry loop and is never persisted.
type Challenge struct {
	URL     string `json:"url"`
	Attempt int    `json:"attempt"`
}
