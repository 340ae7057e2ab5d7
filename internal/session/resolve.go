package session

import "github.com/matheus3301/volchat/internal/config"

// Resolve determines the active profile name using precedence:
// 1. flagOverride (--profile flag)
// 2. config.toml default_profile
// 3. "main"
func Resolve(flagOverride string) string {
	if flagOverride != "" {
		return flagOverride
	}
	cfg, err := config.Load(ConfigPath())
	if err == nil && cfg.DefaultProfile != "" {
		return cfg.DefaultProfile
	}
	return config.DefaultProfileName
}

// LoadProfile resolves, validates and loads a profile: config.toml settings
// overlaid with the .env file and the process environment. A missing
// config file is not an error; the environment alone may configure a profile.
func LoadProfile(flagOverride string) (string, config.Profile, error) {
	name := Resolve(flagOverride)
	if err := ValidateName(name); err != nil {
		return "", config.Profile{}, err
	}
	cfg, err := config.Load(ConfigPath())
	if err != nil {
		cfg = nil
	}
	p := cfg.Profile(name)
	env, err := config.LoadEnv(EnvPath())
	if err != nil {
		return "", config.Profile{}, err
	}
	p.ApplyEnv(env)
	return name, p, nil
}
