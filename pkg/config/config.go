// Package config loads the project configuration file wiring catalogs,
// runners and hooks together for the command line interface.
package config

import (
	"net/url"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Environment variables holding the credentials for the remote
// source-control host deployment scripts push to. They are surfaced in
// the config so tooling has a single place to read them from.
const (
	EnvRepoUser  = "PIPEVINE_REPO_USER"
	EnvRepoToken = "PIPEVINE_REPO_TOKEN"
)

// WebHookURLs is a list of webhook targets parsed from plain strings.
type WebHookURLs []*url.URL

func (w *WebHookURLs) UnmarshalYAML(node *yaml.Node) error {
	var raw []string
	if err := node.Decode(&raw); err != nil {
		return err
	}

	*w = make(WebHookURLs, len(raw))
	for i, u := range raw {
		parsed, err := url.Parse(u)
		if err != nil {
			return errors.Wrapf(err, "invalid webhook url %q", u)
		}
		(*w)[i] = parsed
	}

	return nil
}

// Config is the content of a pipevine.yml file.
type Config struct {
	// Catalog is the path of the YAML catalog file.
	Catalog string `yaml:"catalog,omitempty"`
	// Runner selects the execution strategy: "sequential" (default) or
	// "thread".
	Runner string `yaml:"runner,omitempty"`
	// Workers bounds the thread runner's concurrency.
	Workers int `yaml:"workers,omitempty"`
	// WebHooks lists URLs notified of pipeline-level events.
	WebHooks WebHookURLs `yaml:"webhooks,omitempty"`
	// Validation maps dataset names to validation suite identifiers.
	Validation map[string]string `yaml:"validation,omitempty"`
	// TrackingDir is where the JSON tracking client stores its runs.
	TrackingDir string `yaml:"tracking_dir,omitempty"`
	// Viz is the default output path of the viz command.
	Viz string `yaml:"viz,omitempty"`

	// RepoUser and RepoToken come from the environment, never from the
	// file.
	RepoUser  string `yaml:"-"`
	RepoToken string `yaml:"-"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{
		Catalog: "catalog.yml",
		Runner:  "sequential",
		Viz:     "pipeline.dot",
	}
	cfg.readEnv()

	return cfg
}

// Load reads a pipevine.yml file and applies environment overrides.
func Load(filename string) (Config, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, errors.Wrapf(err, "unable to read config file %s", filename)
	}

	cfg := Default()
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "unable to decode config file %s", filename)
	}
	cfg.readEnv()

	return cfg, nil
}

func (c *Config) readEnv() {
	if user, ok := os.LookupEnv(EnvRepoUser); ok {
		c.RepoUser = user
	}
	if token, ok := os.LookupEnv(EnvRepoToken); ok {
		c.RepoToken = token
	}
}
