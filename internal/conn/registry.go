package conn

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"schemasync/internal/core"
)

// DefaultRegistryPath is where the connection registry lives, relative
// to the working directory.
const DefaultRegistryPath = "application/config/database.toml"

// Registry holds the named connection configurations read once at
// process startup. It is the only process-wide state the tool keeps.
type Registry struct {
	Connections map[string]Config `toml:"connections"`
}

// LoadRegistry reads the registry file. A missing file yields an empty
// registry, since every parameter can also arrive via flags or env.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		path = DefaultRegistryPath
	}

	reg := &Registry{Connections: map[string]Config{}}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return reg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("conn: read registry %q: %w", path, err)
	}

	if err := toml.Unmarshal(data, reg); err != nil {
		return nil, fmt.Errorf("conn: parse registry %q: %w", path, err)
	}
	if reg.Connections == nil {
		reg.Connections = map[string]Config{}
	}
	return reg, nil
}

// Get returns the named configuration, defaulting to "default".
func (r *Registry) Get(name string) (Config, error) {
	if name == "" {
		name = "default"
	}
	cfg, ok := r.Connections[name]
	if !ok {
		return Config{}, core.NewError(core.ErrDatabaseUnavailable,
			"conn: no connection %q in registry", name)
	}
	return cfg, nil
}
