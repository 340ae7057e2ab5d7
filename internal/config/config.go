package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const DefaultProfileName = "main"

// Role based fallback avatars, relative to the server base URL.
const (
	DefaultVolunteerAvatar    = "/static/images/default_volunteer.svg"
	DefaultOrganizationAvatar = "/static/images/default_organization.svg"
)

// Config represents the global ~/.volchat/config.toml.
type Config struct {
	DefaultProfile string             `toml:"default_profile"`
	Profiles       map[string]Profile `toml:"profiles"`
}

// Profile is one account on one server.
type Profile struct {
	BaseURL               string   `toml:"base_url"`
	UserID                string   `toml:"user_id"`
	SessionCookie         string   `toml:"session_cookie,omitempty"`
	CSRFToken             string   `toml:"csrf_token,omitempty"`
	VolunteerAvatar       string   `toml:"volunteer_avatar,omitempty"`
	OrganizationAvatar    string   `toml:"organization_avatar,omitempty"`
	GenericPopupTTL       Duration `toml:"generic_popup_ttl,omitempty"`
	MessagePopupTTL       Duration `toml:"message_popup_ttl,omitempty"`
	Conversations         []string `toml:"conversations,omitempty"`
	ControlAllowedOrigins []string `toml:"control_allowed_origins,omitempty"`
}

// Duration is a time.Duration written as a string such as "6s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Load reads config from the given path. Returns zero config and error if file missing.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// Profile returns the named profile with defaults applied. A nil config or
// an unknown name yields a profile made of defaults only.
func (c *Config) Profile(name string) Profile {
	var p Profile
	if c != nil {
		p = c.Profiles[name]
	}
	p.applyDefaults()
	return p
}

func (p *Profile) applyDefaults() {
	if p.VolunteerAvatar == "" {
		p.VolunteerAvatar = DefaultVolunteerAvatar
	}
	if p.OrganizationAvatar == "" {
		p.OrganizationAvatar = DefaultOrganizationAvatar
	}
}

// Validate reports settings the client cannot run without.
func (p Profile) Validate() error {
	var missing []string
	if p.BaseURL == "" {
		missing = append(missing, "base_url")
	}
	if p.UserID == "" {
		missing = append(missing, "user_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("profile is missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// ResolveURL makes a server-relative path such as an avatar absolute.
func (p Profile) ResolveURL(ref string) string {
	if ref == "" || !strings.HasPrefix(ref, "/") || p.BaseURL == "" {
		return ref
	}
	return strings.TrimRight(p.BaseURL, "/") + ref
}
