// Package config loads plastron-go's YAML configuration and performs
// shell-style environment-variable interpolation over it.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/umd-lib/plastron-go/internal/merrors"
)

// Repository holds connection and auth settings for the target LDP/Fedora
// repository.
//
// Grounded on the REPOSITORY section of spec.md §6, and
// plastron-repo/src/plastron/context/__init__.py's PlastronContext, which
// lazily builds an Endpoint/Client/Repository from the same keys.
type Repository struct {
	RESTEndpoint    string `yaml:"REST_ENDPOINT"`
	Relpath         string `yaml:"RELPATH"`
	RepoExternalURL string `yaml:"REPO_EXTERNAL_URL"`

	AuthToken      string `yaml:"AUTH_TOKEN"`
	JWTSecret      string `yaml:"JWT_SECRET"`
	ClientCert     string `yaml:"CLIENT_CERT"`
	ClientKey      string `yaml:"CLIENT_KEY"`
	FedoraUser     string `yaml:"FEDORA_USER"`
	FedoraPassword string `yaml:"FEDORA_PASSWORD"`

	ServerCert    string `yaml:"SERVER_CERT"`
	Structure     string `yaml:"STRUCTURE"`
	LogDir        string `yaml:"LOG_DIR"`
	LoggingConfig string `yaml:"LOGGING_CONFIG"`
}

// PublicationWorkflow holds settings for the handle (persistent identifier)
// registry integration. Grounded on the PUBLICATION_WORKFLOW section of
// spec.md §6, and repo/publish.py's use of a handle_client plus a public
// URL template.
type PublicationWorkflow struct {
	HandleEndpoint    string `yaml:"HANDLE_ENDPOINT"`
	HandleJWTToken    string `yaml:"HANDLE_JWT_TOKEN"`
	HandlePrefix      string `yaml:"HANDLE_PREFIX"`
	HandleRepo        string `yaml:"HANDLE_REPO"`
	PublicURLPattern  string `yaml:"PUBLIC_URL_PATTERN"`
}

// MessageBroker describes a STOMP broker used by external ingest
// collaborators. No code in this module consumes it directly — it exists
// so a caller wiring the broker-driven ingest path (out of scope per
// spec.md's Non-goals) has a typed surface to fill in, matching
// PlastronContext.broker in the reference implementation.
type MessageBroker struct {
	Server           string   `yaml:"SERVER"`
	MessageStoreDir  string   `yaml:"MESSAGE_STORE_DIR"`
	Destinations     []string `yaml:"DESTINATIONS"`
}

// Solr describes a verification index used by external collaborators. See
// MessageBroker's comment: no in-core consumer, but round-tripped for the
// same reason PlastronContext.solr is.
type Solr struct {
	URL string `yaml:"URL"`
}

// Config is the top-level decoded configuration document.
type Config struct {
	Repository           Repository           `yaml:"REPOSITORY"`
	PublicationWorkflow   PublicationWorkflow  `yaml:"PUBLICATION_WORKFLOW"`
	MessageBroker        MessageBroker        `yaml:"MESSAGE_BROKER"`
	Solr                 Solr                 `yaml:"SOLR"`
}

// Load reads and decodes a YAML configuration file, applying environment
// interpolation (see Envsubst) over every string value before returning it.
// warn receives one message per unresolved ${NAME} reference; pass nil to
// discard them.
func Load(path string, warn func(string)) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, merrors.ConfigError{Key: path, Err: err}
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, merrors.ConfigError{Key: path, Message: "invalid YAML", Err: err}
	}

	substituted := Envsubst(raw, envMap(os.Environ()), warn)

	out, err := yaml.Marshal(substituted)
	if err != nil {
		return nil, merrors.ConfigError{Key: path, Message: "re-encoding after interpolation", Err: err}
	}

	var cfg Config
	if err := yaml.Unmarshal(out, &cfg); err != nil {
		return nil, merrors.ConfigError{Key: path, Message: "decoding interpolated config", Err: err}
	}

	if err := cfg.validateRequired(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validateRequired() error {
	if c.Repository.RESTEndpoint == "" {
		return merrors.ConfigError{Key: "REPOSITORY.REST_ENDPOINT", Message: "is required"}
	}

	return nil
}

func envMap(pairs []string) map[string]string {
	m := make(map[string]string, len(pairs))

	for _, p := range pairs {
		for i := 0; i < len(p); i++ {
			if p[i] == '=' {
				m[p[:i]] = p[i+1:]
				break
			}
		}
	}

	return m
}

// String implements fmt.Stringer for debugging/logging without leaking
// secrets.
func (c Config) String() string {
	return fmt.Sprintf("Config{Repository.RESTEndpoint:%s, Repository.Structure:%s}",
		c.Repository.RESTEndpoint, c.Repository.Structure)
}
