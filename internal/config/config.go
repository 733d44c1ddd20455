package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/subosito/gotenv"
)

const (
	// EnvVarPrefix namespaces environment variables that back flags
	EnvVarPrefix = "XPENSIFY_AGENT"

	// MemberTokenEnv holds the expense service bearer token
	MemberTokenEnv = "MEMBER_AUTH_TOKEN"
	// GeminiKeyEnv holds the Gemini API key
	GeminiKeyEnv = "GEMINI_API_KEY"

	ExtractorGemini = "gemini"
	ExtractorGenAI  = "genai"
)

var (
	ErrMissingTitle     = errors.New("claim title is required")
	ErrMissingSecret    = errors.New("required secret is not set")
	ErrInvalidExtractor = errors.New("invalid extractor")
)

// Config is built once at startup and handed to every component that needs it
type Config struct {
	ClaimTitle     string
	MemberToken    string
	GeminiKey      string
	EnvFile        string
	ReceiptsDir    string
	BaseURL        string
	AppURL         string
	Extractor      string
	GeminiModel    string
	GeminiURL      string
	RateLimitDelay time.Duration
	HTTPTimeout    time.Duration
	Verbose        bool
	ShowVersion    bool

	flags *ff.FlagSet
}

// Parse reads flags from args, falling back to XPENSIFY_AGENT_* environment
// variables. The env file named by --env-file is loaded first. The returned
// Config is never nil so callers can print Usage on error.
func Parse(args []string) (*Config, error) {
	cfg := &Config{}

	flags := ff.NewFlagSet("xpensify-agent")
	flags.StringVar(&cfg.ClaimTitle, 0, "claim-title", "", "Title for the new expense claim (required)")
	flags.StringVar(&cfg.MemberToken, 0, "member-token", "", "Expense service bearer token (or set "+MemberTokenEnv+")")
	flags.StringVar(&cfg.GeminiKey, 0, "gemini-key", "", "Google Gemini API key (or set "+GeminiKeyEnv+")")
	flags.StringVar(&cfg.EnvFile, 0, "env-file", ".env", "Environment file loaded at startup")
	flags.StringVar(&cfg.ReceiptsDir, 0, "receipts", "receipts", "Folder containing receipt files")
	flags.StringVar(&cfg.BaseURL, 0, "base-url", "https://api.sadhak.sahaj.ai/xpensify", "Expense service API base URL")
	flags.StringVar(&cfg.AppURL, 0, "app-url", "https://sadhak.sahaj.ai/xpensify", "Expense service web app URL used for the claim link")
	flags.StringVar(&cfg.Extractor, 0, "extractor", ExtractorGemini, "Extraction backend: 'gemini' (REST) or 'genai' (SDK)")
	flags.StringVar(&cfg.GeminiModel, 0, "gemini-model", "gemini-2.5-flash", "Google Gemini model name")
	flags.StringVar(&cfg.GeminiURL, 0, "gemini-url", "https://generativelanguage.googleapis.com", "Gemini REST API base URL")
	flags.DurationVar(&cfg.RateLimitDelay, 0, "rate-limit-delay", 5*time.Second, "Minimum spacing between model calls")
	flags.DurationVar(&cfg.HTTPTimeout, 0, "http-timeout", 60*time.Second, "Timeout for each HTTP request")
	flags.BoolVar(&cfg.Verbose, 0, "verbose", "Enable debug logging")
	flags.BoolVar(&cfg.ShowVersion, 0, "version", "Show version information")
	cfg.flags = flags

	if err := LoadEnvFile(envFileFromArgs(args)); err != nil {
		return cfg, err
	}

	if err := ff.Parse(flags, args, ff.WithEnvVarPrefix(EnvVarPrefix)); err != nil {
		return cfg, err
	}

	if cfg.MemberToken == "" {
		cfg.MemberToken = os.Getenv(MemberTokenEnv)
	}
	if cfg.GeminiKey == "" {
		cfg.GeminiKey = os.Getenv(GeminiKeyEnv)
	}

	return cfg, nil
}

// Validate checks that everything a run needs is present
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ClaimTitle) == "" {
		return ErrMissingTitle
	}
	if c.MemberToken == "" {
		return fmt.Errorf("%w: %s", ErrMissingSecret, MemberTokenEnv)
	}
	if c.GeminiKey == "" {
		return fmt.Errorf("%w: %s", ErrMissingSecret, GeminiKeyEnv)
	}
	if c.Extractor != ExtractorGemini && c.Extractor != ExtractorGenAI {
		return fmt.Errorf("%w %q: want %q or %q", ErrInvalidExtractor, c.Extractor, ExtractorGemini, ExtractorGenAI)
	}
	if c.RateLimitDelay < 0 {
		return fmt.Errorf("rate limit delay must not be negative: %s", c.RateLimitDelay)
	}
	return nil
}

// Usage renders flag help
func (c *Config) Usage() string {
	if c.flags == nil {
		return ""
	}
	return ffhelp.Flags(c.flags).String()
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment,
// replacing existing values. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := gotenv.OverLoad(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// envFileFromArgs finds --env-file ahead of flag parsing, since the file
// can supply values for the other flags.
func envFileFromArgs(args []string) string {
	path := os.Getenv(EnvVarPrefix + "_ENV_FILE")
	if path == "" {
		path = ".env"
	}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		name := strings.TrimLeft(arg, "-")
		if name == arg {
			continue
		}
		if v, ok := strings.CutPrefix(name, "env-file="); ok {
			path = v
			continue
		}
		if name == "env-file" && i+1 < len(args) {
			path = args[i+1]
			i++
		}
	}
	return path
}
