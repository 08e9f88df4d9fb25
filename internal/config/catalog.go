package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/janhq/multichat/internal/infrastructure/logger"
)

//go:embed catalog.yml
var defaultCatalog []byte

// ProviderEntry is an OpenAI-compatible upstream.
type ProviderEntry struct {
	Name    string
	BaseURL string
	APIKey  string
}

// ModelEntry is one selectable model.
type ModelEntry struct {
	ID       string
	Name     string
	Provider string
	Model    string
}

// Catalog holds the enabled providers and the models offered on them.
type Catalog struct {
	providers map[string]ProviderEntry
	order     []string
	models    []ModelEntry
}

// Provider looks up an enabled provider by its case-insensitive name.
func (c *Catalog) Provider(name string) (ProviderEntry, bool) {
	if c == nil {
		return ProviderEntry{}, false
	}
	p, ok := c.providers[normalizeName(name)]
	return p, ok
}

// Providers returns the enabled providers in file order.
func (c *Catalog) Providers() []ProviderEntry {
	if c == nil {
		return nil
	}
	result := make([]ProviderEntry, 0, len(c.order))
	for _, name := range c.order {
		result = append(result, c.providers[name])
	}
	return result
}

// Models returns a copy of the model list in file order.
func (c *Catalog) Models() []ModelEntry {
	if c == nil {
		return nil
	}
	result := make([]ModelEntry, len(c.models))
	copy(result, c.models)
	return result
}

// LoadCatalog reads the catalogue at path, or the embedded default when path
// is empty.
func LoadCatalog(path string) (*Catalog, error) {
	log := logger.GetLogger()
	if strings.TrimSpace(path) == "" {
		log.Info().Msg("loading embedded model catalogue")
		return ParseCatalog(defaultCatalog, "embedded")
	}

	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("read model catalogue %q: %w", cleanPath, err)
	}
	log.Info().Str("path", cleanPath).Msg("loading model catalogue file")
	return ParseCatalog(data, cleanPath)
}

// ParseCatalog decodes a catalogue document. source only labels errors.
func ParseCatalog(data []byte, source string) (*Catalog, error) {
	log := logger.GetLogger()

	var doc catalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse model catalogue %q: %w", source, err)
	}
	if len(doc.Providers) == 0 {
		return nil, fmt.Errorf("model catalogue %q has no providers defined", source)
	}

	result := &Catalog{providers: make(map[string]ProviderEntry)}
	disabled := make(map[string]bool)

	for idx, entry := range doc.Providers {
		name := normalizeName(entry.Name)
		if name == "" {
			return nil, fmt.Errorf("providers[%d]: name is required", idx)
		}
		if _, exists := result.providers[name]; exists || disabled[name] {
			return nil, fmt.Errorf("providers[%d]: duplicate provider %q", idx, name)
		}
		enabled, err := parseEnabled(entry.EnableRaw)
		if err != nil {
			return nil, fmt.Errorf("providers[%d]: %w", idx, err)
		}
		if !enabled {
			log.Info().Str("provider", name).Msg("skipping provider (enable=false)")
			disabled[name] = true
			continue
		}
		baseURL := strings.TrimRight(strings.TrimSpace(expandWithDefault(entry.BaseURL)), "/")
		if baseURL == "" {
			return nil, fmt.Errorf("providers[%d]: base_url is required", idx)
		}
		apiKey := strings.TrimSpace(expandWithDefault(entry.APIKey))
		if apiKey == "" {
			log.Warn().Str("provider", name).Msg("provider has no api key; upstream calls will likely be rejected")
		}
		result.providers[name] = ProviderEntry{Name: name, BaseURL: baseURL, APIKey: apiKey}
		result.order = append(result.order, name)
	}

	seen := make(map[string]struct{}, len(doc.Models))
	for idx, entry := range doc.Models {
		id := strings.TrimSpace(entry.ID)
		model := strings.TrimSpace(entry.Model)
		provider := normalizeName(entry.Provider)
		switch {
		case id == "":
			return nil, fmt.Errorf("models[%d]: id is required", idx)
		case model == "":
			return nil, fmt.Errorf("models[%d]: model is required", idx)
		case provider == "":
			return nil, fmt.Errorf("models[%d]: provider is required", idx)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("models[%d]: duplicate model id %q", idx, id)
		}
		seen[id] = struct{}{}

		if disabled[provider] {
			continue
		}
		if _, ok := result.providers[provider]; !ok {
			return nil, fmt.Errorf("models[%d]: unknown provider %q", idx, provider)
		}
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			name = id
		}
		result.models = append(result.models, ModelEntry{ID: id, Name: name, Provider: provider, Model: model})
	}

	return result, nil
}

type catalogDocument struct {
	Providers []providerDocument `yaml:"providers"`
	Models    []modelDocument    `yaml:"models"`
}

type providerDocument struct {
	EnableRaw string `yaml:"enable"`
	Name      string `yaml:"name"`
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
}

type modelDocument struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func parseEnabled(raw string) (bool, error) {
	resolved := strings.TrimSpace(expandWithDefault(strings.TrimSpace(raw)))
	if resolved == "" {
		return true, nil
	}
	parsed, err := strconv.ParseBool(resolved)
	if err != nil {
		return false, fmt.Errorf("enable: %w", err)
	}
	return parsed, nil
}

// expandWithDefault expands $VAR, ${VAR} and ${VAR:-default} using os envs.
func expandWithDefault(raw string) string {
	return os.Expand(raw, func(expr string) string {
		name, fallback, hasDefault := strings.Cut(expr, ":-")
		if val := os.Getenv(name); val != "" {
			return val
		}
		if hasDefault {
			return fallback
		}
		return ""
	})
}
