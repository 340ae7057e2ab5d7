package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables that override profile settings.
const (
	EnvBaseURL       = "VOLCHAT_BASE_URL"
	EnvUserID        = "VOLCHAT_USER_ID"
	EnvSessionCookie = "VOLCHAT_SESSION_COOKIE"
	EnvCSRFToken     = "VOLCHAT_CSRF_TOKEN"
)

var envKeys = []string{EnvBaseURL, EnvUserID, EnvSessionCookie, EnvCSRFToken}

// LoadEnv reads the overlay variables from the .env file at path and from
// the process environment. Non-empty process values win. A missing file is
// not an error.
func LoadEnv(path string) (map[string]string, error) {
	out := make(map[string]string)
	if path != "" {
		file, err := godotenv.Read(path)
		switch {
		case err == nil:
			for _, k := range envKeys {
				if v, ok := file[k]; ok {
					out[k] = v
				}
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, err
		}
	}
	for _, k := range envKeys {
		if v := os.Getenv(k); v != "" {
			out[k] = v
		}
	}
	return out, nil
}

// ApplyEnv overlays non-empty environment values onto the profile.
func (p *Profile) ApplyEnv(env map[string]string) {
	set := func(dst *string, key string) {
		if v := env[key]; v != "" {
			*dst = v
		}
	}
	set(&p.BaseURL, EnvBaseURL)
	set(&p.UserID, EnvUserID)
	set(&p.SessionCookie, EnvSessionCookie)
	set(&p.CSRFToken, EnvCSRFToken)
}
