package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Config holds CLI configuration
type Config struct {
	ServerURL    string
	PlayerID     string
	PlayerIDFile string
	Output       string
	Verbose      bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL:    getEnvOrDefault("MAFIA_SERVER", "http://localhost:8080"),
		PlayerID:     os.Getenv("MAFIA_PLAYER_ID"),
		PlayerIDFile: getEnvOrDefault("MAFIA_PLAYER_ID_FILE", defaultPlayerIDFile()),
		Output:       "text",
		Verbose:      false,
	}
}

// EnsurePlayerID resolves the player ID: flag/env wins, then the ID file,
// and if neither exists a fresh ID is generated and persisted.
func (c *Config) EnsurePlayerID() error {
	if c.PlayerID != "" {
		return nil
	}

	data, err := os.ReadFile(c.PlayerIDFile)
	if err == nil {
		c.PlayerID = strings.TrimSpace(string(data))
		if c.PlayerID != "" {
			return nil
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	return c.SavePlayerID(uuid.NewString())
}

// SavePlayerID saves the player ID to the ID file
func (c *Config) SavePlayerID(id string) error {
	c.PlayerID = id

	dir := filepath.Dir(c.PlayerIDFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	return os.WriteFile(c.PlayerIDFile, []byte(id), 0600)
}

func defaultPlayerIDFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mafiactl/player_id"
	}
	return filepath.Join(home, ".mafiactl", "player_id")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
