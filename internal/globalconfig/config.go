// Package globalconfig manages user-level settings and credentials stored
// under ~/.config/vcpull, with VCPULL_* environment overrides.
package globalconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	configFileName = "config.json"
	authFileName   = "auth.json"
	envPrefix      = "VCPULL"

	keyAPIURL      = "api_url"
	keyCurrentTeam = "current_team"
	keyToken       = "token"
	keyDebug       = "debug"
	keyOrgID       = "org_id"
	keyProjectID   = "project_id"
)

// DefaultAPIURL is used when neither the environment nor config.json set one.
const DefaultAPIURL = "https://api.vercel.com"

// Config is the global config stored at ~/.config/vcpull/config.json.
type Config struct {
	APIURL      string `json:"api_url,omitempty" mapstructure:"api_url"`
	CurrentTeam string `json:"current_team,omitempty" mapstructure:"current_team"`
}

// AuthCredentials stores authentication state at ~/.config/vcpull/auth.json.
type AuthCredentials struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	APIURL   string `json:"api_url"`
}

// ConfigDir returns ~/.config/vcpull, creating it if necessary.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".config", "vcpull")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// fileViper returns a viper instance bound to config.json only.
func fileViper(dir string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(filepath.Join(dir, configFileName))
	v.SetConfigType("json")
	return v
}

// settings returns a viper instance layering VCPULL_* env over config.json
// over defaults.
func settings() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetDefault(keyAPIURL, DefaultAPIURL)

	dir, err := ConfigDir()
	if err != nil {
		return v
	}
	path := filepath.Join(dir, configFileName)
	if _, err := os.Stat(path); err != nil {
		return v
	}
	v.SetConfigFile(path)
	v.SetConfigType("json")
	// A malformed config file falls back to env and defaults.
	_ = v.ReadInConfig()
	return v
}

// LoadConfig reads the global config from ~/.config/vcpull/config.json.
func LoadConfig() (*Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	v := fileViper(dir)
	if _, err := os.Stat(filepath.Join(dir, configFileName)); os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// SaveConfig writes the global config to ~/.config/vcpull/config.json.
func SaveConfig(cfg *Config) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	v := fileViper(dir)
	v.Set(keyAPIURL, cfg.APIURL)
	v.Set(keyCurrentTeam, cfg.CurrentTeam)
	if err := v.WriteConfigAs(filepath.Join(dir, configFileName)); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// LoadAuth reads auth credentials from ~/.config/vcpull/auth.json.
// Returns nil credentials when the file does not exist.
func LoadAuth() (*AuthCredentials, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, authFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var creds AuthCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// SaveAuth writes auth credentials to ~/.config/vcpull/auth.json (0600 perms).
func SaveAuth(creds *AuthCredentials) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, authFileName), data, 0600)
}

// ClearAuth removes the auth.json file.
func ClearAuth() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(dir, authFileName))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// GetAPIURL returns the API base URL.
// Priority: VCPULL_API_URL env > config.json > default.
func GetAPIURL() string {
	if url := settings().GetString(keyAPIURL); url != "" {
		return url
	}
	return DefaultAPIURL
}

// GetCurrentTeam returns the team selected by default in interactive setup.
// Priority: VCPULL_CURRENT_TEAM env > config.json.
func GetCurrentTeam() string {
	return settings().GetString(keyCurrentTeam)
}

// GetToken returns the API token.
// Priority: VCPULL_TOKEN env > auth.json.
func GetToken() string {
	if v := settings().GetString(keyToken); v != "" {
		return v
	}
	creds, err := LoadAuth()
	if err == nil && creds != nil {
		return creds.Token
	}
	return ""
}

// IsAuthenticated returns true if a token is available.
func IsAuthenticated() bool {
	return GetToken() != ""
}

// GetDebug reports whether VCPULL_DEBUG requests debug logging.
func GetDebug() bool {
	return settings().GetBool(keyDebug)
}

// LinkOverride returns the org and project IDs from VCPULL_ORG_ID and
// VCPULL_PROJECT_ID. Either may be empty.
func LinkOverride() (orgID, projectID string) {
	v := settings()
	return v.GetString(keyOrgID), v.GetString(keyProjectID)
}
