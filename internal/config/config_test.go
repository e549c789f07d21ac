package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, projectDir, body string) {
	t.Helper()
	stateDir := filepath.Join(projectDir, Dir)
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(stateDir, "config.yaml"), []byte(strings.TrimSpace(body)), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadProjectConfigDefaultsWhenMissing(t *testing.T) {
	projectDir := t.TempDir()
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.Project.Version != 1 {
		t.Fatalf("expected default version == 1, got %d", c.Project.Version)
	}
	if got := c.PokemonURL(); got != "https://pokeapi.co/api/v2/pokemon/1" {
		t.Fatalf("pokemon url = %s", got)
	}
	if got := c.CharacterURL(); got != "https://rickandmortyapi.com/api/character/1" {
		t.Fatalf("character url = %s", got)
	}
	if c.Timeout() != defaultTimeout {
		t.Fatalf("timeout = %s, want %s", c.Timeout(), defaultTimeout)
	}
}

func TestInitDirWritesParsableDefault(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitDir(projectDir); err != nil {
		t.Fatalf("InitDir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(projectDir, Dir, "logs")); err != nil {
		t.Fatalf("logs dir missing: %v", err)
	}
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if c.Project.Endpoints.Character.Title != "Rick and Morty" {
		t.Fatalf("unexpected title %q", c.Project.Endpoints.Character.Title)
	}
	if c.UserAgent() != "fetchcards/1" {
		t.Fatalf("unexpected user agent %q", c.UserAgent())
	}
	// A second init must not clobber edits.
	writeConfig(t, projectDir, "version: 1\nendpoints:\n  pokemon:\n    id: 25\n")
	if err := InitDir(projectDir); err != nil {
		t.Fatalf("InitDir: %v", err)
	}
	c, err = NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if c.Project.Endpoints.Pokemon.ID != 25 {
		t.Fatalf("InitDir overwrote existing config")
	}
}

func TestLoadProjectConfigParsesYaml(t *testing.T) {
	projectDir := t.TempDir()
	writeConfig(t, projectDir, `
version: 1
endpoints:
  pokemon:
    title: "  Pocket Monsters "
    base_url: http://localhost:9000/pokemon/
    id: 4
  character:
    base_url: http://localhost:9000/character
    id: 2
http:
  timeout: 3s
`)
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if got := c.PokemonURL(); got != "http://localhost:9000/pokemon/4" {
		t.Fatalf("pokemon url = %s", got)
	}
	if got := c.CharacterURL(); got != "http://localhost:9000/character/2" {
		t.Fatalf("character url = %s", got)
	}
	if c.Project.Endpoints.Pokemon.Title != "Pocket Monsters" {
		t.Fatalf("title not normalized: %q", c.Project.Endpoints.Pokemon.Title)
	}
	if c.Project.Endpoints.Character.Title != "Rick and Morty" {
		t.Fatalf("missing title should default, got %q", c.Project.Endpoints.Character.Title)
	}
	if c.Timeout() != 3*time.Second {
		t.Fatalf("timeout = %s, want 3s", c.Timeout())
	}
}

func TestLoadProjectConfigValidation(t *testing.T) {
	projectDir := t.TempDir()
	writeConfig(t, projectDir, `
version: 1
endpoints:
  pokemon:
    base_url: not a url
    id: -3
`)
	_, err := NewConfig(projectDir)
	if err == nil {
		t.Fatalf("expected validation error but got none")
	}
	for _, want := range []string{"endpoints.pokemon.base_url: must be a valid URL", "endpoints.pokemon.id: must be at least 1"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q missing %q", err, want)
		}
	}
}

func TestLoadProjectConfigRejectsNegativeTimeout(t *testing.T) {
	projectDir := t.TempDir()
	writeConfig(t, projectDir, "version: 1\nhttp:\n  timeout: -1s\n")
	if _, err := NewConfig(projectDir); err == nil || !strings.Contains(err.Error(), "http.timeout") {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(envPokemonBase, "http://127.0.0.1:8080/p")
	t.Setenv(envCharacterBase, "http://127.0.0.1:8080/c/")
	t.Setenv(envTimeout, "250ms")
	c, err := NewConfig(t.TempDir())
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if got := c.PokemonURL(); got != "http://127.0.0.1:8080/p/1" {
		t.Fatalf("pokemon url = %s", got)
	}
	if got := c.CharacterURL(); got != "http://127.0.0.1:8080/c/1" {
		t.Fatalf("character url = %s", got)
	}
	if c.Timeout() != 250*time.Millisecond {
		t.Fatalf("timeout = %s", c.Timeout())
	}
}

func TestEnvOverrideValidation(t *testing.T) {
	t.Setenv(envTimeout, "soon")
	if _, err := NewConfig(t.TempDir()); err == nil {
		t.Fatalf("expected bad duration error")
	}
	t.Setenv(envTimeout, "")
	t.Setenv(envPokemonBase, "::::")
	if _, err := NewConfig(t.TempDir()); err == nil {
		t.Fatalf("expected bad url error")
	}
}

func TestSetEndpointIDsPersistsWithoutEnvOverrides(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitDir(projectDir); err != nil {
		t.Fatalf("InitDir: %v", err)
	}
	t.Setenv(envPokemonBase, "http://127.0.0.1:1/p")
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if err := c.SetEndpointIDs(7, 3); err != nil {
		t.Fatalf("SetEndpointIDs: %v", err)
	}
	if got := c.PokemonURL(); got != "http://127.0.0.1:1/p/7" {
		t.Fatalf("in-memory url = %s", got)
	}

	data, err := os.ReadFile(c.ProjectConfigPath())
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	var saved ProjectConfig
	if err := yaml.Unmarshal(data, &saved); err != nil {
		t.Fatalf("parse saved config: %v", err)
	}
	if saved.Endpoints.Pokemon.ID != 7 || saved.Endpoints.Character.ID != 3 {
		t.Fatalf("ids not persisted: %+v", saved.Endpoints)
	}
	if saved.Endpoints.Pokemon.BaseURL != "https://pokeapi.co/api/v2/pokemon/" {
		t.Fatalf("env override leaked into saved config: %s", saved.Endpoints.Pokemon.BaseURL)
	}
	if saved.HTTP.Timeout != defaultTimeout {
		t.Fatalf("timeout did not round-trip: %s", saved.HTTP.Timeout)
	}

	if err := c.SetEndpointIDs(0, 1); err == nil {
		t.Fatalf("expected error for id 0")
	}
}

func TestSetEndpointIDsKeepsComments(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitDir(projectDir); err != nil {
		t.Fatalf("InitDir: %v", err)
	}
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if err := c.SetEndpointIDs(25, 2); err != nil {
		t.Fatalf("SetEndpointIDs: %v", err)
	}
	data, err := os.ReadFile(c.ProjectConfigPath())
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	text := string(data)
	for _, want := range []string{"# fetchcards configuration", "The TUI moves between ids with n/p."} {
		if !strings.Contains(text, want) {
			t.Fatalf("comment %q lost on save:\n%s", want, text)
		}
	}

	reloaded, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Project.Endpoints.Pokemon.ID != 25 || reloaded.Project.Endpoints.Character.ID != 2 {
		t.Fatalf("ids not persisted: %+v", reloaded.Project.Endpoints)
	}
}

func TestSetEndpointIDsRewritesFileWithoutIDs(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitDir(projectDir); err != nil {
		t.Fatalf("InitDir: %v", err)
	}
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), []byte("version: 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := c.SetEndpointIDs(4, 5); err != nil {
		t.Fatalf("SetEndpointIDs: %v", err)
	}
	reloaded, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Project.Endpoints.Pokemon.ID != 4 || reloaded.Project.Endpoints.Character.ID != 5 {
		t.Fatalf("ids not persisted: %+v", reloaded.Project.Endpoints)
	}
}

func TestURLAtUsesEffectiveBase(t *testing.T) {
	t.Setenv(envCharacterBase, "http://127.0.0.1:2/c/")
	c, err := NewConfig(t.TempDir())
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if got := c.PokemonURLAt(9); got != "https://pokeapi.co/api/v2/pokemon/9" {
		t.Fatalf("pokemon url = %s", got)
	}
	if got := c.CharacterURLAt(3); got != "http://127.0.0.1:2/c/3" {
		t.Fatalf("character url = %s", got)
	}
}
