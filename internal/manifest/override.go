package manifest

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/cohesix/coh/internal/session"
)

// overrideFile is the on-disk shape of a manifest override: a ticket
// per role and trace policy thresholds. Any field omitted keeps the
// generated default.
type overrideFile struct {
	Tickets map[string]string `yaml:"tickets"`
	Policy  struct {
		MaxBytes int `yaml:"max_bytes"`
		MaxFrame int `yaml:"max_frame"`
		MaxLine  int `yaml:"max_line"`
	} `yaml:"policy"`
	TCPPort int `yaml:"tcp_port"`
}

// LoadOverride reads path once and applies it on top of base, returning
// a new Manifest. base is never mutated. The override is read-once by
// contract: nothing in this package watches path or reloads it, matching
// §4.H's "reloading requires a restart".
func LoadOverride(base Manifest, path string) (Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("manifest: read override: %w", err)
	}

	var ov overrideFile
	if err := yaml.Unmarshal(raw, &ov); err != nil {
		return Manifest{}, fmt.Errorf("manifest: parse override: %w", err)
	}

	out := base

	if len(ov.Tickets) > 0 {
		tokens := make(map[session.Role]string, len(ov.Tickets))
		required := make(map[session.Role]bool, len(ov.Tickets))
		for roleToken, ticket := range ov.Tickets {
			role, err := session.ParseRole(roleToken)
			if err != nil {
				return Manifest{}, fmt.Errorf("manifest: override ticket role %q: %w", roleToken, err)
			}
			tokens[role] = ticket
			required[role] = ticket != ""
		}
		out.Tickets = &session.StaticInventory{Tokens: tokens, Required: required}
	}

	if ov.Policy.MaxBytes > 0 {
		out.TracePolicy.MaxBytes = ov.Policy.MaxBytes
	}
	if ov.Policy.MaxFrame > 0 {
		out.TracePolicy.MaxFrame = ov.Policy.MaxFrame
	}
	if ov.Policy.MaxLine > 0 {
		out.TracePolicy.MaxLine = ov.Policy.MaxLine
	}
	if ov.TCPPort > 0 {
		out.TCPPort = ov.TCPPort
	}

	return out, nil
}

// ApplyEnv overlays COHSH_TCP_PORT, read once at process start, on top
// of base. An unset or non-positive-integer value leaves base.TCPPort
// untouched; this is the lightest override tier, checked before any
// YAML override file so a file always wins if both are present.
func ApplyEnv(base Manifest) Manifest {
	out := base
	if v, ok := os.LookupEnv("COHSH_TCP_PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			out.TCPPort = port
		}
	}
	return out
}
