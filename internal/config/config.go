package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brain-io/agent/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const (
	DefaultPlatformEndpoint = "https://api.worldquantbrain.com"
	EnvPrefix               = "BRAIN"
)

func DefaultConfig() *Config {

	v := viper.New()

	// Set default values
	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		log.Fatalf("error unmarshaling default config: %v", err)
	}

	return &config
}

// Load loads the configuration from various sources
func Load(configFile string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()

	if err := setupViperConfig(v, configFile); err != nil {
		return nil, err
	}

	bindEnvironmentVariables(v)

	config, err := readAndUnmarshalConfig(v)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if err := setupLogging(config, v); err != nil {
		return nil, err
	}

	return config, nil
}

// loadEnvFile loads the .env file if it exists
func loadEnvFile() error {
	if err := gotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}
	return nil
}

// setupViperConfig configures viper with file paths and defaults
func setupViperConfig(v *viper.Viper, configFile string) error {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/brain")

	if home := os.Getenv("HOME"); len(home) > 0 {
		v.AddConfigPath(filepath.Join(home, ".config", "brain"))
	}

	if len(configFile) > 0 {
		v.SetConfigFile(configFile)
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return nil
}

// bindEnvironmentVariables binds the variables whose names do not follow
// the BRAIN_<SECTION>_<KEY> convention
func bindEnvironmentVariables(v *viper.Viper) {

	v.BindEnv("platform.endpoint", "BRAIN_PLATFORM_ENDPOINT", "BRAIN_API_URL")

	bindCredentialEnvVars(v)
	bindLoggingEnvVars(v)
}

// bindCredentialEnvVars lets the secret stores reuse the variables their own
// tooling already understands
func bindCredentialEnvVars(v *viper.Viper) {
	v.BindEnv("credentials.aws.region", "BRAIN_CREDENTIALS_AWS_REGION", "AWS_REGION")
	v.BindEnv("credentials.aws.profile", "BRAIN_CREDENTIALS_AWS_PROFILE", "AWS_PROFILE")

	v.BindEnv("credentials.vault.address", "BRAIN_CREDENTIALS_VAULT_ADDRESS", "VAULT_ADDR")
	v.BindEnv("credentials.vault.token", "BRAIN_CREDENTIALS_VAULT_TOKEN", "VAULT_TOKEN")

	v.BindEnv("credentials.encryption.password", "BRAIN_CREDENTIALS_ENCRYPTION_PASSWORD")
	v.BindEnv("credentials.encryption.salt", "BRAIN_CREDENTIALS_ENCRYPTION_SALT")
}

func bindLoggingEnvVars(v *viper.Viper) {
	v.BindEnv("logging.level", "BRAIN_LOGGING_LEVEL", "BRAIN_LOG_LEVEL")
	v.BindEnv("logging.format", "BRAIN_LOGGING_FORMAT")
}

// readAndUnmarshalConfig reads the configuration file and unmarshals it
func readAndUnmarshalConfig(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults and environment variables
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	config.file = v.ConfigFileUsed()

	return &config, nil
}

// setupLogging configures the logging system based on the config
func setupLogging(config *Config, v *viper.Viper) error {
	logrusLevel, err := logrus.ParseLevel(config.Logging.Level)
	if err != nil {
		return fmt.Errorf("error parsing log level: %w", err)
	}

	logrus.SetLevel(logrusLevel)

	switch strings.ToLower(config.Logging.Format) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	default:
		logrus.WithFields(logrus.Fields{
			"format": config.Logging.Format,
		}).Warn("Unknown log format")
	}

	if logrusLevel >= logrus.DebugLevel {
		for key, value := range v.AllSettings() {
			// credentials carry the vault token and encryption password
			if key == "credentials" {
				continue
			}
			logrus.Debugf("Config '%s': %v\n", key, value)
		}
	}

	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {

	// Platform defaults
	v.SetDefault("platform.endpoint", DefaultPlatformEndpoint)
	v.SetDefault("platform.authentication_path", "/authentication")
	v.SetDefault("platform.validation_path", "/authentication")
	v.SetDefault("platform.timeout", 30*time.Second)

	// Credential store defaults
	v.SetDefault("credentials.store", "file")
	v.SetDefault("credentials.path", "~/secrets/platform-brain.json")
	v.SetDefault("credentials.encrypt", false)
	v.SetDefault("credentials.encryption.provider", string(models.EncryptionProviderLocal))
	v.SetDefault("credentials.encryption.password", "")
	v.SetDefault("credentials.encryption.salt", "")
	v.SetDefault("credentials.encryption.key_id", "")
	v.SetDefault("credentials.aws.secret_id", "")
	v.SetDefault("credentials.aws.region", "")
	v.SetDefault("credentials.aws.profile", "")
	v.SetDefault("credentials.vault.address", "")
	v.SetDefault("credentials.vault.token", "")
	v.SetDefault("credentials.vault.mount", "secret")
	v.SetDefault("credentials.vault.path", "platform-brain")

	// Session defaults
	v.SetDefault("session.path", "session.yaml")
	v.SetDefault("session.timeout", 4*time.Hour)

	// Monitor defaults
	v.SetDefault("monitor.interval", 300*time.Second)

	// Biometric challenge defaults
	v.SetDefault("challenge.mode", string(ChallengeModeInteractive))
	v.SetDefault("challenge.poll_interval", 30*time.Second)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}
