package config

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adchub/hub/internal/session"
	"github.com/adchub/hub/internal/status"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

const (
	SinkLog      = "log"
	SinkObserver = "observer"
)

type Config struct {
	Server   ServerConfig      `yaml:"server"`
	Hub      HubConfig         `yaml:"hub"`
	Audit    AuditConfig       `yaml:"audit"`
	Privacy  PrivacyConfig     `yaml:"privacy"`
	Users    []UserAccount     `yaml:"users"`
	Messages map[string]string `yaml:"messages"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type HubConfig struct {
	Name                string        `yaml:"name"`
	Description         string        `yaml:"description"`
	Enabled             bool          `yaml:"enabled"`
	MOTD                string        `yaml:"motd"`
	MOTDFile            string        `yaml:"motd_file"`
	Rules               string        `yaml:"rules"`
	RulesFile           string        `yaml:"rules_file"`
	MaxUsers            int           `yaml:"max_users"`
	RegisteredUsersOnly bool          `yaml:"registered_users_only"`
	HandshakeTimeout    time.Duration `yaml:"handshake_timeout"`
	SendQueueSize       int           `yaml:"send_queue_size"`
	NickMinLength       int           `yaml:"nick_min_length"`
	NickMaxLength       int           `yaml:"nick_max_length"`
	// StateDir holds all-time counters across restarts. Empty disables it.
	StateDir string `yaml:"state_dir"`
}

// AuditConfig selects where lifecycle events go. Sink "log" writes audit
// lines; sink "observer" hands events to the configured plugins instead.
type AuditConfig struct {
	Sink    string         `yaml:"sink"`
	File    string         `yaml:"file"`
	Plugins []PluginConfig `yaml:"plugins"`
}

// PluginConfig configures one observer plugin. Path is used by jsonlog;
// Addr, Stream and MaxLen by redis; Nicks and CIDs by banlist.
type PluginConfig struct {
	Name   string   `yaml:"name"`
	Path   string   `yaml:"path"`
	Addr   string   `yaml:"addr"`
	Stream string   `yaml:"stream"`
	MaxLen int64    `yaml:"max_len"`
	Nicks  []string `yaml:"nicks"`
	CIDs   []string `yaml:"cids"`
}

type PrivacyConfig struct {
	MaskAddresses bool `yaml:"mask_addresses"`
	MaskCIDs      bool `yaml:"mask_cids"`
	MaskAgents    bool `yaml:"mask_agents"`
}

// NewPrivacyFilter builds a session.PrivacyFilter from the config values.
func (p PrivacyConfig) NewPrivacyFilter() *session.PrivacyFilter {
	return &session.PrivacyFilter{
		MaskAddresses: p.MaskAddresses,
		MaskCIDs:      p.MaskCIDs,
		MaskAgents:    p.MaskAgents,
	}
}

// UserAccount is a registered nick. Password is either a bcrypt hash or
// plain text.
type UserAccount struct {
	Nick        string `yaml:"nick"`
	Password    string `yaml:"password"`
	Credentials string `yaml:"credentials"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 1511,
			Host: "127.0.0.1",
		},
		Hub: HubConfig{
			Name:             "hub",
			Enabled:          true,
			MaxUsers:         500,
			HandshakeTimeout: 30 * time.Second,
			SendQueueSize:    64,
			NickMinLength:    1,
			NickMaxLength:    64,
		},
		Audit: AuditConfig{
			Sink: SinkLog,
		},
	}
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return defaultConfig()
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.loadTextFiles(filepath.Dir(path)); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads path, falling back to defaults when it does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return defaultConfig(), nil
	}
	return cfg, err
}

// loadTextFiles reads motd_file and rules_file, relative to the config
// directory, into MOTD and Rules.
func (c *Config) loadTextFiles(dir string) error {
	read := func(name string) (string, error) {
		if !filepath.IsAbs(name) {
			name = filepath.Join(dir, name)
		}
		data, err := os.ReadFile(name)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	if c.Hub.MOTDFile != "" {
		text, err := read(c.Hub.MOTDFile)
		if err != nil {
			return fmt.Errorf("motd_file: %w", err)
		}
		c.Hub.MOTD = text
	}
	if c.Hub.RulesFile != "" {
		text, err := read(c.Hub.RulesFile)
		if err != nil {
			return fmt.Errorf("rules_file: %w", err)
		}
		c.Hub.Rules = text
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Hub.MaxUsers <= 0 || c.Hub.MaxUsers > session.MaxSID {
		return fmt.Errorf("hub.max_users must be between 1 and %d", session.MaxSID)
	}
	if c.Hub.SendQueueSize <= 0 {
		return fmt.Errorf("hub.send_queue_size must be positive")
	}
	if c.Hub.NickMinLength < 1 || c.Hub.NickMaxLength < c.Hub.NickMinLength {
		return fmt.Errorf("hub.nick_min_length/nick_max_length invalid (%d/%d)", c.Hub.NickMinLength, c.Hub.NickMaxLength)
	}

	switch c.Audit.Sink {
	case SinkLog:
		if len(c.Audit.Plugins) > 0 {
			return fmt.Errorf("audit.plugins requires audit.sink %q", SinkObserver)
		}
	case SinkObserver:
	default:
		return fmt.Errorf("audit.sink must be %q or %q, got %q", SinkLog, SinkObserver, c.Audit.Sink)
	}

	seen := make(map[string]bool)
	for _, acct := range c.Users {
		if acct.Nick == "" {
			return fmt.Errorf("users: entry with empty nick")
		}
		if seen[acct.Nick] {
			return fmt.Errorf("users: duplicate nick %q", acct.Nick)
		}
		seen[acct.Nick] = true
		if acct.Credentials != "" {
			if _, ok := session.ParseCredentials(acct.Credentials); !ok {
				return fmt.Errorf("users: %q has unknown credentials %q", acct.Nick, acct.Credentials)
			}
		}
	}

	if _, err := status.NewResolver(c.Messages); err != nil {
		return fmt.Errorf("messages: %w", err)
	}
	return nil
}

// Account looks up a registered nick.
func (c *Config) Account(nick string) (UserAccount, bool) {
	for _, acct := range c.Users {
		if acct.Nick == nick {
			return acct, true
		}
	}
	return UserAccount{}, false
}

// AccountCredentials returns the credentials granted to a registered
// account, defaulting to CredUser.
func (a UserAccount) AccountCredentials() session.Credentials {
	if c, ok := session.ParseCredentials(a.Credentials); ok {
		return c
	}
	return session.CredUser
}

// CheckPassword reports whether password matches the account.
func (a UserAccount) CheckPassword(password string) bool {
	if isBcryptHash(a.Password) {
		return bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(a.Password), []byte(password)) == 1
}

func isBcryptHash(s string) bool {
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}
