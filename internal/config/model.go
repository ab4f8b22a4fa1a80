package config

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/brain-io/agent/internal/common"
	"github.com/brain-io/agent/internal/config/services"
	"github.com/brain-io/agent/internal/models"
)

type ChallengeMode string

const (
	// Prompt the operator in the terminal for every biometric attempt
	ChallengeModeInteractive ChallengeMode = "interactive"

	// Print the URL once and retry on a fixed interval. Used when running
	// as a service where nobody can answer a prompt.
	ChallengeModePoll ChallengeMode = "poll"
)

// Config represents the application configuration structure
type Config struct {
	Platform    PlatformConfig           `mapstructure:"platform"`
	Credentials models.CredentialsConfig `mapstructure:"credentials"`
	Session     SessionConfig            `mapstructure:"session"`
	Monitor     MonitorConfig            `mapstructure:"monitor"`
	Challenge   ChallengeConfig          `mapstructure:"challenge"`
	Logging     LoggingConfig            `mapstructure:"logging"`

	// Config file that was read, empty when running on defaults
	file string

	initializeServiceClientOnce sync.Once
	servicesClient              *services.Client
	servicesErr                 error
}

type PlatformConfig struct {
	Endpoint           string        `mapstructure:"endpoint" default:"https://api.worldquantbrain.com"`
	AuthenticationPath string        `mapstructure:"authentication_path" default:"/authentication"`
	ValidationPath     string        `mapstructure:"validation_path" default:"/authentication"`
	Timeout            time.Duration `mapstructure:"timeout" default:"30s"`
}

type SessionConfig struct {
	Path    string        `mapstructure:"path" default:"session.yaml"`
	Timeout time.Duration `mapstructure:"timeout" default:"4h"`
}

type MonitorConfig struct {
	Interval time.Duration `mapstructure:"interval" default:"300s"`
}

type ChallengeConfig struct {
	Mode         string        `mapstructure:"mode" default:"interactive"`
	PollInterval time.Duration `mapstructure:"poll_interval" default:"30s"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" default:"info"`
	Format string `mapstructure:"format" default:"text"`
}

// Validate rejects settings that would only fail later, deep inside a
// handshake or a monitor tick.
func (c *Config) Validate() error {

	endpoint, err := url.Parse(c.Platform.Endpoint)
	if err != nil || len(endpoint.Scheme) == 0 || len(endpoint.Host) == 0 {
		return fmt.Errorf("invalid platform endpoint %q", c.Platform.Endpoint)
	}

	if c.Monitor.Interval <= 0 {
		return fmt.Errorf("monitor interval must be positive, got %s", c.Monitor.Interval)
	}

	switch c.GetChallengeMode() {
	case ChallengeModeInteractive, ChallengeModePoll:
	default:
		return fmt.Errorf("unknown challenge mode %q", c.Challenge.Mode)
	}

	switch c.Credentials.GetStoreType() {
	case models.CredentialStoreFile, models.CredentialStoreAWS, models.CredentialStoreVault:
	default:
		return fmt.Errorf("unknown credential store %q", c.Credentials.Store)
	}

	switch c.Credentials.Encryption.GetProvider() {
	case models.EncryptionProviderLocal, models.EncryptionProviderAWS:
	default:
		return fmt.Errorf("unknown encryption provider %q", c.Credentials.Encryption.Provider)
	}

	return nil
}

func (c *Config) GetConfigFile() string {
	return c.file
}

func (c *Config) GetPlatformEndpoint() string {
	return strings.TrimRight(c.Platform.Endpoint, "/")
}

func (c *Config) GetChallengeMode() ChallengeMode {
	if len(c.Challenge.Mode) == 0 {
		return ChallengeModeInteractive
	}
	return ChallengeMode(strings.ToLower(c.Challenge.Mode))
}

// GetSessionPath returns the session file location with ~ expanded
func (c *Config) GetSessionPath() (string, error) {
	return common.ExpandPath(c.Session.Path)
}

// GetServices lazily builds the credential store and any encryption it
// needs. The result is cached for the lifetime of the config.
func (c *Config) GetServices(ctx context.Context) (*services.Client, error) {

	c.initializeServiceClientOnce.Do(func() {
		client := services.NewServicesClient(&c.Credentials)
		if err := client.Initialize(ctx); err != nil {
			c.servicesErr = fmt.Errorf("failed to initialize services: %w", err)
			return
		}
		c.servicesClient = client
	})

	return c.servicesClient, c.servicesErr
}
