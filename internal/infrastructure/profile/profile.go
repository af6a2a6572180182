// Package profile persists the CLI's backend session between invocations as
// a small YAML file.
package profile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/mediavault/portal/internal/core/domain"
)

const fileName = "profile.yaml"

// Profile is what the CLI remembers about its visitor.
type Profile struct {
	Backend     string             `yaml:"backend,omitempty"`
	VisitorID   string             `yaml:"visitor_id"`
	Credentials domain.Credentials `yaml:"credentials,omitempty"`
	User        string             `yaml:"user,omitempty"`
	UpdatedAt   time.Time          `yaml:"updated_at"`
}

// DefaultPath returns $XDG_CONFIG_HOME/mediavault/profile.yaml or the
// platform equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("profile: %w", err)
	}
	return filepath.Join(dir, "mediavault", fileName), nil
}

// Load reads the profile at path. A missing file yields a fresh profile.
func Load(path string) (*Profile, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Profile{VisitorID: uuid.NewString(), Credentials: domain.Credentials{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", path, err)
	}
	if p.VisitorID == "" {
		p.VisitorID = uuid.NewString()
	}
	if p.Credentials == nil {
		p.Credentials = domain.Credentials{}
	}
	return &p, nil
}

// Save writes p to path with owner-only permissions. The file is replaced
// atomically.
func Save(path string, p *Profile) error {
	raw, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".profile-*")
	if err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write profile: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("write profile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

// Visitor rebuilds the visitor the profile describes. Its session starts
// loading, so the first use runs a bootstrap cycle.
func (p *Profile) Visitor() *domain.Visitor {
	v := domain.NewVisitor(p.VisitorID)
	v.Credentials = p.Credentials.Clone()
	return v
}

// Update records the visitor's credentials and signed-in user.
func (p *Profile) Update(v domain.Visitor, at time.Time) {
	p.Credentials = v.Credentials.Clone()
	p.User = ""
	if v.Session.IsLoggedIn && v.Session.User != nil {
		p.User = v.Session.User.Email
	}
	p.UpdatedAt = at.UTC()
}
