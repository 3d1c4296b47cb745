package model

// Config keys used by source integrations. Values live in
// SourceConfig.Config so each source kind can carry its own settings
// without schema changes.
const (
	ConfigKeyIMAPHost        = "imap_host"
	ConfigKeyIMAPPort        = "imap_port"
	ConfigKeyUsername        = "username"
	ConfigKeyMailbox         = "mailbox"
	ConfigKeyUseTLS          = "use_tls"
	ConfigKeyCredentialsFile = "credentials_file"
	ConfigKeyFilePath        = "file_path"
)

// SourceConfig holds the configuration for a single mail source.
// Sources are persisted in the local database; secrets never appear
// here and are resolved through the credential store by source ID.
type SourceConfig struct {
	// ID is the unique identifier for this source instance.
	ID string `mapstructure:"id" yaml:"id"`

	// Type identifies the source kind ("gmail", "imap", "mbox").
	Type string `mapstructure:"type" yaml:"type"`

	// Name is the user-defined label for this source instance.
	Name string `mapstructure:"name" yaml:"name"`

	// Enabled controls whether this source is actively polled.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Config holds source-specific key-value settings
	// (e.g., IMAP host and port, mailbox names, mbox file paths).
	Config map[string]string `mapstructure:"config" yaml:"config"`
}

// ConfigValue returns the named setting or an empty string.
func (s SourceConfig) ConfigValue(key string) string {
	if s.Config == nil {
		return ""
	}
	return s.Config[key]
}

// UseTLS reports whether the source is configured for implicit TLS.
// Unset defaults to true.
func (s SourceConfig) UseTLS() bool {
	return s.ConfigValue(ConfigKeyUseTLS) != "false"
}
