package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matheus3301/volchat/internal/config"
)

func TestDir(t *testing.T) {
	t.Setenv(EnvHome, "")
	home, _ := os.UserHomeDir()
	got := Dir("main")
	want := filepath.Join(home, ".volchat", "profiles", "main")
	if got != want {
		t.Errorf("Dir(main) = %q, want %q", got, want)
	}
}

func TestBaseDirOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvHome, dir)
	if got := BaseDir(); got != dir {
		t.Errorf("BaseDir() = %q, want %q", got, dir)
	}
}

func TestSocketPath(t *testing.T) {
	got := SocketPath("test")
	if !strings.HasSuffix(got, filepath.Join("profiles", "test", "control.sock")) {
		t.Errorf("SocketPath(test) = %q, want suffix profiles/test/control.sock", got)
	}
}

func TestLockPath(t *testing.T) {
	got := LockPath("test")
	if !strings.HasSuffix(got, filepath.Join("profiles", "test", "LOCK")) {
		t.Errorf("LockPath(test) = %q, want suffix profiles/test/LOCK", got)
	}
}

func TestEnsureDir(t *testing.T) {
	t.Setenv(EnvHome, t.TempDir())
	if err := EnsureDir("test"); err != nil {
		t.Fatal(err)
	}
	for _, d := range []string{Dir("test"), LogDir("test")} {
		info, err := os.Stat(d)
		if err != nil {
			t.Fatalf("%s not created: %v", d, err)
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", d)
		}
		if perm := info.Mode().Perm(); perm != 0700 {
			t.Errorf("%s permission = %o, want 0700", d, perm)
		}
	}
}

func TestResolvePrecedence(t *testing.T) {
	t.Setenv(EnvHome, t.TempDir())

	if got := Resolve(""); got != config.DefaultProfileName {
		t.Errorf("Resolve() without config = %q, want main", got)
	}
	if err := config.Save(ConfigPath(), &config.Config{DefaultProfile: "work"}); err != nil {
		t.Fatal(err)
	}
	if got := Resolve(""); got != "work" {
		t.Errorf("Resolve() = %q, want work", got)
	}
	if got := Resolve("other"); got != "other" {
		t.Errorf("Resolve(other) = %q, want other", got)
	}
}

func TestLoadProfile(t *testing.T) {
	t.Setenv(EnvHome, t.TempDir())
	for _, k := range []string{config.EnvSessionCookie, config.EnvBaseURL, config.EnvUserID} {
		t.Setenv(k, "")
	}

	cfg := &config.Config{Profiles: map[string]config.Profile{
		"main": {BaseURL: "http://localhost:8000", UserID: "u1"},
	}}
	if err := config.Save(ConfigPath(), cfg); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(EnvPath(), []byte("VOLCHAT_SESSION_COOKIE=abc\n"), 0600); err != nil {
		t.Fatal(err)
	}

	name, p, err := LoadProfile("")
	if err != nil {
		t.Fatal(err)
	}
	if name != "main" || p.BaseURL != "http://localhost:8000" {
		t.Errorf("name = %q, profile = %+v", name, p)
	}
	if p.SessionCookie != "abc" {
		t.Errorf("SessionCookie = %q, want abc from .env", p.SessionCookie)
	}

	if _, _, err := LoadProfile("Bad Name"); err == nil {
		t.Error("LoadProfile accepted an invalid name")
	}
}
