package config

// SidecarConfig configures how the ica CLI is launched.
type SidecarConfig struct {
	// Executable name or path
	Command string `yaml:"command" json:"command,omitempty"`

	// Arguments placed before the normalized list, e.g. ["-m", "ica"]
	Args []string `yaml:"args" json:"args,omitempty"`

	// Per-invocation timeout
	Timeout string `yaml:"timeout" json:"timeout,omitempty"`

	// Working directory
	WorkingDirectory string `yaml:"working_directory" json:"working_directory,omitempty"`

	// Extra environment variables
	Env map[string]string `yaml:"env" json:"env,omitempty"`
}

// Store backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// ValidBackends lists all supported settings backends.
var ValidBackends = []string{BackendFile, BackendSQLite}

// StoreConfig configures where the selected contacts are persisted.
type StoreConfig struct {
	Backend string `yaml:"backend" json:"backend,omitempty"` // file, sqlite
	Path    string `yaml:"path" json:"path,omitempty"`
}
