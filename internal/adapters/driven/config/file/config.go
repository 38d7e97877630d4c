package file

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/resilience"
)

// Default configuration values.
const (
	DefaultDirName   = ".ragctl"
	DefaultFileName  = "config.toml"
	DefaultBatchSize = 10
	DefaultTopK      = 5
	DefaultLogLevel  = "info"

	DefaultRequestTimeout = 60 * time.Second
)

// Index backends.
const (
	BackendMemory  = "memory"
	BackendDurable = "durable"
	BackendQdrant  = "qdrant"
)

// GenerationDisabled turns off answer generation; search still works.
const GenerationDisabled = "none"

// Environment variables consulted when api_key_env is not set.
var defaultAPIKeyEnv = map[domain.AIProvider]string{
	domain.AIProviderHuggingFace: "HF_TOKEN",
	domain.AIProviderOpenAI:      "OPENAI_API_KEY",
	domain.AIProviderAnthropic:   "ANTHROPIC_API_KEY",
}

// Duration is a time.Duration written as a string such as "500ms" or "2s".
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// Config is the ragctl configuration file.
type Config struct {
	Embedding  EmbeddingConfig  `toml:"embedding" yaml:"embedding"`
	Generation GenerationConfig `toml:"generation" yaml:"generation"`
	Index      IndexConfig      `toml:"index" yaml:"index"`
	Storage    StorageConfig    `toml:"storage" yaml:"storage"`
	Retrieval  RetrievalConfig  `toml:"retrieval" yaml:"retrieval"`
	Resilience ResilienceConfig `toml:"resilience" yaml:"resilience"`
	Logging    LoggingConfig    `toml:"logging" yaml:"logging"`

	// written holds the API key fields as they appeared in the file, before
	// ${VAR} expansion and environment lookup. Nil for configs not read by Load.
	written *apiKeys
}

// apiKeys are the secrets Save may write back.
type apiKeys struct {
	embedding, generation, qdrant string
}

// EmbeddingConfig selects the embedding provider and model.
type EmbeddingConfig struct {
	Provider  string        `toml:"provider" yaml:"provider" validate:"oneof=huggingface ollama openai"`
	Model     string        `toml:"model" yaml:"model" validate:"required"`
	BaseURL   string        `toml:"base_url,omitempty" yaml:"base_url,omitempty" validate:"omitempty,url"`
	APIKey    string        `toml:"api_key,omitempty" yaml:"api_key,omitempty"`
	APIKeyEnv string        `toml:"api_key_env,omitempty" yaml:"api_key_env,omitempty"`
	BatchSize int           `toml:"batch_size" yaml:"batch_size" validate:"gte=1,lte=256"`
	Pooling   string        `toml:"pooling" yaml:"pooling" validate:"oneof=mean cls max"`
	Normalize *bool         `toml:"normalize,omitempty" yaml:"normalize,omitempty"`
	Models    []ModelConfig `toml:"models,omitempty" yaml:"models,omitempty" validate:"dive"`
}

// ModelConfig registers an embedding model beyond the built-in catalogue.
type ModelConfig struct {
	ID          string `toml:"id" yaml:"id" validate:"required"`
	Name        string `toml:"name,omitempty" yaml:"name,omitempty"`
	Dimensions  int    `toml:"dimensions" yaml:"dimensions" validate:"gte=1"`
	Description string `toml:"description,omitempty" yaml:"description,omitempty"`
}

// GenerationConfig selects the chat provider. Provider "none" disables generation.
type GenerationConfig struct {
	Provider    string   `toml:"provider" yaml:"provider" validate:"oneof=huggingface ollama openai anthropic none"`
	Model       string   `toml:"model,omitempty" yaml:"model,omitempty"`
	BaseURL     string   `toml:"base_url,omitempty" yaml:"base_url,omitempty" validate:"omitempty,url"`
	APIKey      string   `toml:"api_key,omitempty" yaml:"api_key,omitempty"`
	APIKeyEnv   string   `toml:"api_key_env,omitempty" yaml:"api_key_env,omitempty"`
	Temperature *float64 `toml:"temperature,omitempty" yaml:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	MaxTokens   int      `toml:"max_tokens" yaml:"max_tokens" validate:"gte=1"`
}

// IndexConfig selects the vector index backend.
type IndexConfig struct {
	Backend  string       `toml:"backend" yaml:"backend" validate:"oneof=memory durable qdrant"`
	Capacity int          `toml:"capacity,omitempty" yaml:"capacity,omitempty" validate:"gte=0"`
	Qdrant   QdrantConfig `toml:"qdrant" yaml:"qdrant"`
}

// QdrantConfig holds the Qdrant connection settings.
type QdrantConfig struct {
	Host       string `toml:"host" yaml:"host" validate:"required"`
	Port       int    `toml:"port" yaml:"port" validate:"gte=1,lte=65535"`
	APIKey     string `toml:"api_key,omitempty" yaml:"api_key,omitempty"`
	APIKeyEnv  string `toml:"api_key_env,omitempty" yaml:"api_key_env,omitempty"`
	UseTLS     bool   `toml:"use_tls" yaml:"use_tls"`
	Collection string `toml:"collection" yaml:"collection" validate:"required"`
}

// StorageConfig locates the document store.
type StorageConfig struct {
	DataDir string `toml:"data_dir,omitempty" yaml:"data_dir,omitempty"`
}

// RetrievalConfig tunes queries.
type RetrievalConfig struct {
	TopK int `toml:"top_k" yaml:"top_k" validate:"gte=1,lte=100"`
}

// ResilienceConfig tunes retries of remote calls.
type ResilienceConfig struct {
	MaxRetries        *int     `toml:"max_retries,omitempty" yaml:"max_retries,omitempty" validate:"omitempty,gte=0,lte=10"`
	BaseDelay         Duration `toml:"base_delay" yaml:"base_delay"`
	MaxDelay          Duration `toml:"max_delay" yaml:"max_delay"`
	AttemptTimeout    Duration `toml:"attempt_timeout,omitempty" yaml:"attempt_timeout,omitempty"`
	RequestTimeout    Duration `toml:"request_timeout" yaml:"request_timeout"`
	RequestsPerSecond float64  `toml:"requests_per_second,omitempty" yaml:"requests_per_second,omitempty" validate:"gte=0"`
	Burst             int      `toml:"burst,omitempty" yaml:"burst,omitempty" validate:"gte=0"`
	ErrorLogSize      int      `toml:"error_log_size" yaml:"error_log_size" validate:"gte=1"`

	// PingOnStart checks that the providers are reachable before the first command.
	PingOnStart bool `toml:"ping_on_start,omitempty" yaml:"ping_on_start,omitempty"`
}

// LoggingConfig sets the log level.
type LoggingConfig struct {
	Level string `toml:"level" yaml:"level" validate:"oneof=debug info warn error"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// DefaultPath returns ~/.ragctl/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, DefaultDirName, DefaultFileName), nil
}

// Load reads the configuration at path. Files ending in .yaml or .yml are
// parsed as YAML, everything else as TOML. ${VAR} references are expanded
// before parsing. A missing file yields the defaults. Unset fields keep
// their default values.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := &Config{written: &apiKeys{}}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		if err := decode(path, []byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, err
		}
		raw := &Config{}
		if err := decode(path, data, raw); err == nil {
			cfg.written = &apiKeys{
				embedding:  raw.Embedding.APIKey,
				generation: raw.Generation.APIKey,
				qdrant:     raw.Index.Qdrant.APIKey,
			}
		}
	}

	cfg.applyDefaults()
	cfg.resolveKeys()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path, as YAML for .yaml and .yml paths and TOML
// otherwise, creating the directory if needed. For a config read by Load, API
// keys are written exactly as they appeared in the file, so keys taken from
// the environment or from ${VAR} references never reach the disk.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	out := *cfg
	if k := cfg.written; k != nil {
		out.Embedding.APIKey = k.embedding
		out.Generation.APIKey = k.generation
		out.Index.Qdrant.APIKey = k.qdrant
	} else {
		if out.Embedding.APIKeyEnv != "" {
			out.Embedding.APIKey = ""
		}
		if out.Generation.APIKeyEnv != "" {
			out.Generation.APIKey = ""
		}
		if out.Index.Qdrant.APIKeyEnv != "" {
			out.Index.Qdrant.APIKey = ""
		}
	}

	var buf bytes.Buffer
	if isYAML(path) {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
	} else if err := toml.NewEncoder(&buf).Encode(out); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0600)
}

// decode parses data into cfg, choosing the format by the extension of path.
func decode(path string, data []byte, cfg *Config) error {
	if isYAML(path) {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse YAML %s: %w", path, err)
		}
		return nil
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse TOML %s: %w", path, err)
	}
	return nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: config field %s fails %q (got %v)",
				domain.ErrInvalidInput, fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// EmbeddingSettings returns the embedding provider settings.
func (c *Config) EmbeddingSettings() *domain.EmbeddingSettings {
	return &domain.EmbeddingSettings{
		Provider: domain.AIProvider(c.Embedding.Provider),
		Model:    c.Embedding.Model,
		BaseURL:  c.Embedding.BaseURL,
		APIKey:   c.Embedding.APIKey,
		Timeout:  time.Duration(c.Resilience.RequestTimeout),
	}
}

// LLMSettings returns the generation provider settings, or nil when
// generation is disabled.
func (c *Config) LLMSettings() *domain.LLMSettings {
	if c.Generation.Provider == GenerationDisabled {
		return nil
	}
	return &domain.LLMSettings{
		Provider: domain.AIProvider(c.Generation.Provider),
		Model:    c.Generation.Model,
		BaseURL:  c.Generation.BaseURL,
		APIKey:   c.Generation.APIKey,
		Timeout:  time.Duration(c.Resilience.RequestTimeout),
	}
}

// GenerationOptions returns the configured sampling options.
func (c *Config) GenerationOptions() domain.GenerationOptions {
	return domain.GenerationOptions{
		Temperature: c.Generation.Temperature,
		MaxTokens:   c.Generation.MaxTokens,
	}
}

// Policy returns the retry policy for remote calls.
func (c *Config) Policy() resilience.Policy {
	r := c.Resilience
	return resilience.Policy{
		MaxRetries:     *r.MaxRetries,
		BaseDelay:      time.Duration(r.BaseDelay),
		MaxDelay:       time.Duration(r.MaxDelay),
		AttemptTimeout: time.Duration(r.AttemptTimeout),
		Limiter:        resilience.NewLimiter(r.RequestsPerSecond, r.Burst),
	}
}

// Models returns the built-in catalogue followed by the configured models.
func (c *Config) Models() []domain.EmbeddingModel {
	models := domain.KnownEmbeddingModels()
	for _, m := range c.Embedding.Models {
		models = append(models, domain.EmbeddingModel{
			ID:          m.ID,
			Name:        m.Name,
			Dimensions:  m.Dimensions,
			Description: m.Description,
		})
	}
	return models
}

// Normalize reports whether embeddings are normalised to unit length.
func (c *Config) Normalize() bool {
	return c.Embedding.Normalize == nil || *c.Embedding.Normalize
}

func (c *Config) applyDefaults() {
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = string(domain.AIProviderHuggingFace)
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = domain.DefaultEmbeddingModels()[domain.AIProvider(c.Embedding.Provider)]
	}
	if c.Embedding.BatchSize == 0 {
		c.Embedding.BatchSize = DefaultBatchSize
	}
	if c.Embedding.Pooling == "" {
		c.Embedding.Pooling = string(domain.PoolingMean)
	}

	if c.Generation.Provider == "" {
		c.Generation.Provider = string(domain.AIProviderHuggingFace)
	}
	if c.Generation.Model == "" {
		c.Generation.Model = domain.DefaultLLMModels()[domain.AIProvider(c.Generation.Provider)]
	}
	if c.Generation.Temperature == nil {
		c.Generation.Temperature = domain.Float64(domain.DefaultRetrievalTemperature)
	}
	if c.Generation.MaxTokens == 0 {
		c.Generation.MaxTokens = domain.DefaultMaxTokens
	}

	if c.Index.Backend == "" {
		c.Index.Backend = BackendDurable
	}
	if c.Index.Qdrant.Host == "" {
		c.Index.Qdrant.Host = "localhost"
	}
	if c.Index.Qdrant.Port == 0 {
		c.Index.Qdrant.Port = 6334
	}
	if c.Index.Qdrant.Collection == "" {
		c.Index.Qdrant.Collection = "ragctl"
	}

	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = DefaultTopK
	}

	r := &c.Resilience
	if r.MaxRetries == nil {
		n := resilience.DefaultMaxRetries
		r.MaxRetries = &n
	}
	if r.BaseDelay == 0 {
		r.BaseDelay = Duration(resilience.DefaultBaseDelay)
	}
	if r.MaxDelay == 0 {
		r.MaxDelay = Duration(resilience.DefaultMaxDelay)
	}
	if r.RequestTimeout == 0 {
		r.RequestTimeout = Duration(DefaultRequestTimeout)
	}
	if r.ErrorLogSize == 0 {
		r.ErrorLogSize = resilience.DefaultErrorLogSize
	}

	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
}

// resolveKeys fills API keys from the environment when not set literally.
func (c *Config) resolveKeys() {
	c.Embedding.APIKey = resolveKey(c.Embedding.APIKey, c.Embedding.APIKeyEnv, domain.AIProvider(c.Embedding.Provider))
	c.Generation.APIKey = resolveKey(c.Generation.APIKey, c.Generation.APIKeyEnv, domain.AIProvider(c.Generation.Provider))
	if c.Index.Qdrant.APIKey == "" && c.Index.Qdrant.APIKeyEnv != "" {
		c.Index.Qdrant.APIKey = os.Getenv(c.Index.Qdrant.APIKeyEnv)
	}
}

func resolveKey(key, env string, provider domain.AIProvider) string {
	if key != "" {
		return key
	}
	if env == "" {
		env = defaultAPIKeyEnv[provider]
	}
	if env == "" {
		return ""
	}
	return os.Getenv(env)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}
