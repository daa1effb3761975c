package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/tinfoilsh/websearch/parser"
	"github.com/tinfoilsh/websearch/search"
)

// Config holds the service configuration
type Config struct {
	// Server settings
	ListenAddr string
	LogLevel   string
	LogFormat  string

	// Search settings
	Engine          string
	Mode            string
	Limit           int
	Timeout         time.Duration
	Autoswitch      string
	Fallbacks       []string
	FallbackOnEmpty bool
	QueryPattern    string
	Proxy           string

	// Provider credentials
	BraveAPIKey   string
	ExaAPIKey     string
	TravilyAPIKey string
	BaiduAPIKey   string
	SerperAPIKey  string
	GoogleAPIKey  string
	GoogleCSEID   string

	// Provider request options
	SerperCountry      string
	SerperLanguage     string
	TravilySearchDepth string

	// Page fetching
	FetchMode        string
	FetchFormat      string
	FetchUserAgent   string
	FetchTimeout     time.Duration
	FetchConcurrency int
	ChromePath       string
	WebDriverURL     string

	CustomRulesFile string

	BreakerMaxFailures int
	BreakerTimeout     time.Duration
}

// Load creates a new config from environment variables
func Load() *Config {
	return &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8089"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFormat:  getEnv("LOG_FORMAT", "text"),

		Engine:          getEnv("SEARCH_ENGINE", "bing"),
		Mode:            getEnv("SEARCH_MODE", "webquery"),
		Limit:           getEnvInt("SEARCH_LIMIT", 5),
		Timeout:         getEnvDuration("SEARCH_TIMEOUT", 30*time.Second),
		Autoswitch:      getEnv("SEARCH_AUTOSWITCH", "smart"),
		Fallbacks:       getEnvList("SEARCH_FALLBACKS", []string{"duckduckgo", "brave", "exa", "travily", "googleserper"}),
		FallbackOnEmpty: getEnvBool("SEARCH_FALLBACK_ON_EMPTY", false),
		QueryPattern:    os.Getenv("SEARCH_QUERY_PATTERN"),
		Proxy:           firstEnv("SEARCH_PROXY", "HTTPS_PROXY", "HTTP_PROXY"),

		BraveAPIKey:   os.Getenv("BRAVE_API_KEY"),
		ExaAPIKey:     os.Getenv("EXA_API_KEY"),
		TravilyAPIKey: firstEnv("TRAVILY_API_KEY", "TAVILY_API_KEY"),
		BaiduAPIKey:   os.Getenv("BAIDU_API_KEY"),
		SerperAPIKey:  os.Getenv("GOOGLE_SERPER_API_KEY"),
		GoogleAPIKey:  os.Getenv("GOOGLE_API_KEY"),
		GoogleCSEID:   os.Getenv("GOOGLE_CSE_ID"),

		SerperCountry:      os.Getenv("SERPER_GL"),
		SerperLanguage:     os.Getenv("SERPER_HL"),
		TravilySearchDepth: os.Getenv("TRAVILY_SEARCH_DEPTH"),

		FetchMode:        getEnv("FETCH_MODE", "plain"),
		FetchFormat:      getEnv("FETCH_FORMAT", "markdown"),
		FetchUserAgent:   os.Getenv("FETCH_USER_AGENT"),
		FetchTimeout:     getEnvDuration("FETCH_TIMEOUT", 30*time.Second),
		FetchConcurrency: getEnvInt("FETCH_CONCURRENCY", 4),
		ChromePath:       os.Getenv("CHROME_PATH"),
		WebDriverURL:     os.Getenv("WEB_DRIVER_URL"),

		CustomRulesFile: os.Getenv("CUSTOM_RULES_FILE"),

		BreakerMaxFailures: getEnvInt("BREAKER_MAX_FAILURES", 5),
		BreakerTimeout:     getEnvDuration("BREAKER_TIMEOUT", 30*time.Second),
	}
}

// LoadEnvFiles loads .env and then .env.local into the process environment
// when they exist. Later files win.
func LoadEnvFiles() {
	for _, file := range []string{".env", ".env.local"} {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Overload(file); err != nil {
			log.WithError(err).Warnf("failed to load %s", file)
			continue
		}
		log.Debugf("loaded env file %s", file)
	}
}

// Level parses LogLevel, defaulting to info
func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// Primary resolves the configured engine
func (c *Config) Primary() (search.ProviderType, error) {
	return search.ParseProviderType(c.Engine)
}

// SearchMode resolves the configured mode
func (c *Config) SearchMode() (search.Mode, error) {
	return search.ParseMode(c.Mode)
}

// FallbackProviders resolves the fallback list in declaration order
func (c *Config) FallbackProviders() ([]search.ProviderType, error) {
	out := make([]search.ProviderType, 0, len(c.Fallbacks))
	for _, name := range c.Fallbacks {
		p, err := search.ParseProviderType(name)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ProviderConfigs builds the per-provider settings. The query pattern
// override applies to the primary engine only.
func (c *Config) ProviderConfigs() map[search.ProviderType]search.ProviderConfig {
	keys := map[search.ProviderType]string{
		search.Brave:        c.BraveAPIKey,
		search.Exa:          c.ExaAPIKey,
		search.Travily:      c.TravilyAPIKey,
		search.Baidu:        c.BaiduAPIKey,
		search.GoogleSerper: c.SerperAPIKey,
		search.Google:       c.GoogleAPIKey,
	}
	params := map[search.ProviderType]map[string]string{
		search.Google:       nonEmpty(map[string]string{"cx": c.GoogleCSEID}),
		search.GoogleSerper: nonEmpty(map[string]string{"gl": c.SerperCountry, "hl": c.SerperLanguage}),
		search.Travily:      nonEmpty(map[string]string{"search_depth": c.TravilySearchDepth}),
	}

	cfgs := make(map[search.ProviderType]search.ProviderConfig)
	for _, p := range search.DefaultRegistry().Providers() {
		cfgs[p] = search.ProviderConfig{
			APIKey: keys[p],
			Proxy:  c.Proxy,
			Params: params[p],
		}
	}

	primary, err := c.Primary()
	if err == nil {
		cfg := cfgs[primary]
		cfg.Proxy = c.Proxy
		if c.QueryPattern != "" {
			cfg.QueryPattern = c.QueryPattern
		}
		cfgs[primary] = cfg
	}
	return cfgs
}

// LoadRules reads custom engine rules from a YAML file of the form
//
//	myengine:
//	  container: .result
//	  title: h3 a
//	  url: a
//	  url_attr: href
func LoadRules(path string) (map[search.ProviderType]parser.Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}

	var raw map[string]parser.Rules
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing rules file %s: %w", path, err)
	}

	rules := make(map[search.ProviderType]parser.Rules, len(raw))
	for name, r := range raw {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("rules for %s: %w", name, err)
		}
		rules[search.Custom(strings.TrimPrefix(name, "custom:"))] = r
	}
	return rules, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
		log.Warnf("ignoring invalid %s=%q", key, val)
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
		log.Warnf("ignoring invalid %s=%q", key, val)
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		log.Warnf("ignoring invalid %s=%q", key, val)
	}
	return fallback
}

// getEnvList splits a comma separated variable, dropping empty entries
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if val := os.Getenv(k); val != "" {
			return val
		}
	}
	return ""
}

func nonEmpty(m map[string]string) map[string]string {
	out := make(map[string]string)
	for k, v := range m {
		if v != "" {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
