// internal/config/config.go
//
// This package handles configuration and the .fetchcards directory.
// The first run in a directory creates .fetchcards/config.yaml with the
// public endpoints; edits to that file point the cards somewhere else.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/fetchcards/internal/api"
)

const (
	// Dir is the name of the directory we create in the working directory
	Dir = ".fetchcards"

	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "fetchcards/1"

	envPokemonBase   = "FETCHCARDS_POKEMON_BASE_URL"
	envCharacterBase = "FETCHCARDS_CHARACTER_BASE_URL"
	envTimeout       = "FETCHCARDS_TIMEOUT"
)

const defaultProjectConfigYAML = `# fetchcards configuration
version: 1

# Each card fetches <base_url>/<id>. The TUI moves between ids with n/p.
endpoints:
  pokemon:
    title: Pokemon
    base_url: https://pokeapi.co/api/v2/pokemon/
    id: 1
  character:
    title: Rick and Morty
    base_url: https://rickandmortyapi.com/api/character/
    id: 1

http:
  timeout: 10s
  user_agent: fetchcards/1
`

var validate = newValidator()

// Endpoint is one resource-by-ID REST endpoint.
type Endpoint struct {
	Title   string `yaml:"title" validate:"required,max=40"`
	BaseURL string `yaml:"base_url" validate:"required,url"`
	ID      int    `yaml:"id" validate:"gte=1"`
}

// Endpoints holds the two cards' endpoints.
type Endpoints struct {
	Pokemon   Endpoint `yaml:"pokemon"`
	Character Endpoint `yaml:"character"`
}

// HTTPConfig tunes the outbound client.
type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent" validate:"max=200"`
}

// ProjectConfig models .fetchcards/config.yaml.
type ProjectConfig struct {
	Version   int        `yaml:"version" validate:"gte=1"`
	Endpoints Endpoints  `yaml:"endpoints"`
	HTTP      HTTPConfig `yaml:"http"`
}

// Config holds the runtime configuration.
type Config struct {
	// ProjectDir is the directory fetchcards was started from
	ProjectDir string

	// StateDir is ProjectDir/.fetchcards
	StateDir string

	Project ProjectConfig

	// stored is the config as read from disk, before environment
	// overrides, so saving never persists an override.
	stored ProjectConfig
}

// InitDir creates the .fetchcards directory structure and writes the
// default config file if none exists.
//
// Structure created:
// .fetchcards/
// ├── config.yaml
// └── logs/        <- fetch.log
func InitDir(projectDir string) error {
	stateDir := filepath.Join(projectDir, Dir)
	if err := os.MkdirAll(filepath.Join(stateDir, "logs"), 0o755); err != nil {
		return fmt.Errorf("config: create %s: %w", stateDir, err)
	}
	return ensureProjectConfig(filepath.Join(stateDir, "config.yaml"))
}

// NewConfig loads the project config and applies environment overrides.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir: projectDir,
		StateDir:   filepath.Join(projectDir, Dir),
		Project:    defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	cfg.stored = cfg.Project
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.StateDir, "logs")
}

// LogPath returns the fetch log location.
func (c *Config) LogPath() string {
	return filepath.Join(c.LogsDir(), "fetch.log")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.StateDir, "config.yaml")
}

// PokemonURL returns the URL the pokemon card fetches at startup.
func (c *Config) PokemonURL() string {
	return c.PokemonURLAt(c.Project.Endpoints.Pokemon.ID)
}

// PokemonURLAt returns the pokemon URL for id against the effective base URL.
func (c *Config) PokemonURLAt(id int) string {
	return api.PokemonURL(c.Project.Endpoints.Pokemon.BaseURL, id)
}

// CharacterURL returns the URL the character card fetches at startup.
func (c *Config) CharacterURL() string {
	return c.CharacterURLAt(c.Project.Endpoints.Character.ID)
}

// CharacterURLAt returns the character URL for id against the effective base URL.
func (c *Config) CharacterURLAt(id int) string {
	return api.CharacterURL(c.Project.Endpoints.Character.BaseURL, id)
}

// Timeout returns the per-request timeout.
func (c *Config) Timeout() time.Duration {
	return c.Project.HTTP.Timeout
}

// UserAgent returns the User-Agent sent with every request.
func (c *Config) UserAgent() string {
	return c.Project.HTTP.UserAgent
}

// SetEndpointIDs records the ids the cards last showed and persists them
// to .fetchcards/config.yaml so the next launch resumes there. Only the two
// id values are rewritten in place; comments and layout survive. A file
// without both id keys is re-encoded from scratch, which drops its comments.
func (c *Config) SetEndpointIDs(pokemonID, characterID int) error {
	if pokemonID < 1 || characterID < 1 {
		return fmt.Errorf("config: ids must be >= 1")
	}
	c.Project.Endpoints.Pokemon.ID = pokemonID
	c.Project.Endpoints.Character.ID = characterID
	c.stored.Endpoints.Pokemon.ID = pokemonID
	c.stored.Endpoints.Character.ID = characterID

	saved, err := c.patchEndpointIDs(pokemonID, characterID)
	if err != nil {
		return err
	}
	if saved {
		return nil
	}
	return c.saveProjectConfig()
}

// patchEndpointIDs edits the id scalars of the existing file through the
// yaml node tree. It reports false when the file has no place for them.
func (c *Config) patchEndpointIDs(pokemonID, characterID int) (bool, error) {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("config: read project config: %w", err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil || len(doc.Content) == 0 {
		return false, nil
	}
	root := doc.Content[0]
	pokemon := mappingValue(root, "endpoints", "pokemon", "id")
	character := mappingValue(root, "endpoints", "character", "id")
	if pokemon == nil || character == nil || pokemon.Kind != yaml.ScalarNode || character.Kind != yaml.ScalarNode {
		return false, nil
	}
	pokemon.Value = strconv.Itoa(pokemonID)
	pokemon.Tag = "!!int"
	character.Value = strconv.Itoa(characterID)
	character.Tag = "!!int"

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return false, fmt.Errorf("config: encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return false, fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return false, fmt.Errorf("config: write project config: %w", err)
	}
	return true, nil
}

// mappingValue walks nested mapping keys and returns the final value node.
func mappingValue(node *yaml.Node, keys ...string) *yaml.Node {
	for _, key := range keys {
		if node == nil || node.Kind != yaml.MappingNode {
			return nil
		}
		var next *yaml.Node
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == key {
				next = node.Content[i+1]
				break
			}
		}
		node = next
	}
	return node
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	parsed := defaultProjectConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}

	c.Project = parsed
	return nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv(envPokemonBase)); v != "" {
		c.Project.Endpoints.Pokemon.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(envCharacterBase)); v != "" {
		c.Project.Endpoints.Character.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(envTimeout)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", envTimeout, err)
		}
		c.Project.HTTP.Timeout = d
	}
	c.Project.normalize()
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: environment: %w", err)
	}
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Endpoints: Endpoints{
			Pokemon: Endpoint{
				Title:   "Pokemon",
				BaseURL: api.DefaultPokemonBase,
				ID:      1,
			},
			Character: Endpoint{
				Title:   "Rick and Morty",
				BaseURL: api.DefaultCharacterBase,
				ID:      1,
			},
		},
		HTTP: HTTPConfig{
			Timeout:   defaultTimeout,
			UserAgent: defaultUserAgent,
		},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	defaults := defaultProjectConfig()
	if pc.Version == 0 {
		pc.Version = defaults.Version
	}
	pc.Endpoints.Pokemon.fill(defaults.Endpoints.Pokemon)
	pc.Endpoints.Character.fill(defaults.Endpoints.Character)
	if pc.HTTP.Timeout == 0 {
		pc.HTTP.Timeout = defaults.HTTP.Timeout
	}
	if strings.TrimSpace(pc.HTTP.UserAgent) == "" {
		pc.HTTP.UserAgent = defaults.HTTP.UserAgent
	}
}

func (pc *ProjectConfig) normalize() {
	pc.Endpoints.Pokemon.normalize()
	pc.Endpoints.Character.normalize()
	pc.HTTP.UserAgent = strings.TrimSpace(pc.HTTP.UserAgent)
}

func (pc *ProjectConfig) validate() error {
	if err := validate.Struct(pc); err != nil {
		return describeValidation(err)
	}
	if pc.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout: must be positive")
	}
	return nil
}

func (ep *Endpoint) fill(defaults Endpoint) {
	if strings.TrimSpace(ep.Title) == "" {
		ep.Title = defaults.Title
	}
	if strings.TrimSpace(ep.BaseURL) == "" {
		ep.BaseURL = defaults.BaseURL
	}
	if ep.ID == 0 {
		ep.ID = defaults.ID
	}
}

func (ep *Endpoint) normalize() {
	ep.Title = strings.TrimSpace(ep.Title)
	ep.BaseURL = strings.TrimSpace(ep.BaseURL)
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// describeValidation turns validator errors into "path: message" pairs
// keyed by the YAML field names.
func describeValidation(err error) error {
	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) {
		return err
	}
	messages := make([]string, 0, len(valErrs))
	for _, fe := range valErrs {
		messages = append(messages, yamlPath(fe.Namespace())+": "+formatValidationError(fe))
	}
	return errors.New(strings.Join(messages, "; "))
}

func yamlPath(namespace string) string {
	// Namespace is rooted at the struct type name: ProjectConfig.endpoints.pokemon.id
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "url":
		return "must be a valid URL"
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}

func (c *Config) saveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.stored.applyDefaults()
	c.stored.normalize()
	if err := c.stored.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.StateDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure state dir: %w", err)
	}
	data, err := yaml.Marshal(c.stored)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
