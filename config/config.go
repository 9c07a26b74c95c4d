package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/feichai0017/document-summarizer/pkg/logger"
)

// DefaultSummarizerEndpoint is the generateContent endpoint of the hosted model.
const DefaultSummarizerEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash:generateContent"

// Config is the full runtime configuration. It is built once in main and
// passed down explicitly; nothing below cmd/ reads the environment.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        logger.Config    `yaml:"log"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Extraction ExtractionConfig `yaml:"extraction"`
	OCR        OCRConfig        `yaml:"ocr"`
	Storage    StorageConfig    `yaml:"storage"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	UploadDir       string        `yaml:"upload_dir"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// AllowedOrigins empty means any origin.
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

type SummarizerConfig struct {
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
	// MaxPromptChars > 0 enables chunked summarization.
	MaxPromptChars int `yaml:"max_prompt_chars"`
}

type ExtractionConfig struct {
	// MinChars is the trimmed native PDF text length below which OCR takes over.
	MinChars         int           `yaml:"min_chars"`
	MaxDocumentBytes int64         `yaml:"max_document_bytes"`
	FetchTimeout     time.Duration `yaml:"fetch_timeout"`
	PDFWorkers       int           `yaml:"pdf_workers"`
	SniffContent     bool          `yaml:"sniff_content"`
}

type OCRConfig struct {
	Provider  string         `yaml:"provider"` // tesseract, textract, ollama or none
	Languages []string       `yaml:"languages"`
	DPI       float64        `yaml:"dpi"`
	MaxPages  int            `yaml:"max_pages"`
	Textract  TextractConfig `yaml:"textract"`
	Ollama    OllamaConfig   `yaml:"ollama"`
}

type PipelineConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			UploadDir:       os.TempDir(),
			ShutdownTimeout: 5 * time.Second,
		},
		Log: logger.Config{
			Level:       "info",
			Encoding:    "json",
			OutputPaths: []string{"stdout"},
		},
		Summarizer: SummarizerConfig{
			Endpoint: DefaultSummarizerEndpoint,
			Timeout:  60 * time.Second,
		},
		Extraction: ExtractionConfig{
			MinChars:         30,
			MaxDocumentBytes: 50 * 1024 * 1024, // 50MB
			FetchTimeout:     60 * time.Second,
			PDFWorkers:       4,
			SniffContent:     true,
		},
		OCR: OCRConfig{
			Provider:  "tesseract",
			Languages: []string{"eng"},
			DPI:       300,
			Ollama: OllamaConfig{
				Endpoint: "http://localhost:11434",
				Model:    "llava",
			},
		},
		Pipeline: PipelineConfig{
			Concurrency: 4,
		},
	}
}

// Load builds the configuration: defaults, then the optional YAML file, then
// the .env file next to the working directory, then the process environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Server.Addr, "DOCSUM_ADDR")
	setString(&c.Server.UploadDir, "DOCSUM_UPLOAD_DIR")
	if v := os.Getenv("DOCSUM_ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = strings.Split(v, ",")
	}
	setString(&c.Log.Level, "DOCSUM_LOG_LEVEL")
	setString(&c.Log.Encoding, "DOCSUM_LOG_ENCODING")

	setString(&c.Summarizer.Endpoint, "DOCSUM_SUMMARIZER_ENDPOINT")
	setString(&c.Summarizer.APIKey, "GEMINI_API_KEY")
	setString(&c.Summarizer.APIKey, "DOCSUM_SUMMARIZER_API_KEY")
	setDuration(&c.Summarizer.Timeout, "DOCSUM_SUMMARIZER_TIMEOUT")
	setInt(&c.Summarizer.MaxPromptChars, "DOCSUM_MAX_PROMPT_CHARS")

	setInt(&c.Extraction.MinChars, "DOCSUM_MIN_CHARS")
	setInt64(&c.Extraction.MaxDocumentBytes, "DOCSUM_MAX_DOCUMENT_BYTES")
	setDuration(&c.Extraction.FetchTimeout, "DOCSUM_FETCH_TIMEOUT")
	setBool(&c.Extraction.SniffContent, "DOCSUM_SNIFF_CONTENT")

	setString(&c.OCR.Provider, "DOCSUM_OCR_PROVIDER")
	if v := os.Getenv("DOCSUM_OCR_LANGUAGES"); v != "" {
		c.OCR.Languages = strings.Split(v, "+")
	}
	setInt(&c.OCR.MaxPages, "DOCSUM_OCR_MAX_PAGES")

	setInt(&c.Pipeline.Concurrency, "DOCSUM_CONCURRENCY")

	c.OCR.Textract.applyEnv()
	c.OCR.Ollama.applyEnv()
	c.Storage.S3.applyEnv()
	c.Storage.Minio.applyEnv()
}

// Validate reports configuration that would make the pipeline unusable.
func (c *Config) Validate() error {
	var errs []error
	if c.Summarizer.Endpoint == "" {
		errs = append(errs, errors.New("summarizer endpoint is required"))
	}
	if c.Summarizer.APIKey == "" {
		errs = append(errs, errors.New("summarizer api key is required (GEMINI_API_KEY)"))
	}
	if c.Extraction.MinChars < 0 {
		errs = append(errs, errors.New("extraction min_chars must not be negative"))
	}
	switch c.OCR.Provider {
	case "tesseract", "textract", "ollama", "none":
	default:
		errs = append(errs, fmt.Errorf("unsupported ocr provider: %q", c.OCR.Provider))
	}
	if c.Pipeline.Concurrency <= 0 {
		errs = append(errs, errors.New("pipeline concurrency must be positive"))
	}
	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		} else {
			log.Printf("Warning: ignoring %s=%q: %v", key, v, err)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		} else {
			log.Printf("Warning: ignoring %s=%q: %v", key, v, err)
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		} else {
			log.Printf("Warning: ignoring %s=%q: %v", key, v, err)
		}
	}
}
