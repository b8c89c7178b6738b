package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:   HTTPConfig{Port: 8080},
		Corpus: CorpusConfig{Root: "/data/dataset"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingCorpusRoot(t *testing.T) {
	cfg := validConfig()
	cfg.Corpus.Root = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing corpus root")
	}
	if err.Error() != "corpus.root is required" {
		t.Errorf("unexpected error message: %q", err.Error())
	}
}

func TestValidate_BadLayout(t *testing.T) {
	cfg := validConfig()
	cfg.Corpus.TimestampLayout = "2006/01/02"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for layout with separators")
	}

	cfg.Corpus.TimestampLayout = "2006-01-02"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for layout without seconds")
	}
}

func TestValidate_OnUnreadable(t *testing.T) {
	for _, v := range []string{OnUnreadableAbort, OnUnreadableSkip} {
		t.Run("on_unreadable="+v, func(t *testing.T) {
			cfg := validConfig()
			cfg.Scanner.OnUnreadable = v
			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for %q: %v", v, err)
			}
		})
	}

	cfg := validConfig()
	cfg.Scanner.OnUnreadable = "ignore"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid on_unreadable")
	}
	expected := `scanner.on_unreadable must be "abort" or "skip", got "ignore"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_CacheDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Driver = CacheRedis
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for redis without addrs")
	}

	cfg.Cache.Addrs = []string{"localhost:6379"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.Cache.Driver = "memcached"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestValidate_BasePath(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.BasePath = "api"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for relative base path")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 120 {
		t.Errorf("expected WriteTimeoutSec=120, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Corpus.TimestampLayout != "2006-01-02--15-04-05" {
		t.Errorf("expected default layout, got %q", cfg.Corpus.TimestampLayout)
	}
	if cfg.Corpus.ReadmeFilename != "README.md" {
		t.Errorf("expected README.md, got %q", cfg.Corpus.ReadmeFilename)
	}
	if cfg.Scanner.OnUnreadable != OnUnreadableAbort {
		t.Errorf("expected on_unreadable=abort, got %q", cfg.Scanner.OnUnreadable)
	}
	if cfg.Cache.Driver != CacheNone {
		t.Errorf("expected cache driver none, got %q", cfg.Cache.Driver)
	}
	if cfg.Cache.TTLSec != 86400 {
		t.Errorf("expected TTLSec=86400, got %d", cfg.Cache.TTLSec)
	}
	if cfg.RateLimit.Burst != 0 {
		t.Errorf("expected no burst without a rate, got %d", cfg.RateLimit.Burst)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:      HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5, BasePath: "/api/open-document-archive/"},
		Corpus:    CorpusConfig{TimestampLayout: "2006-01-02T15-04-05Z"},
		Scanner:   ScannerConfig{OnUnreadable: OnUnreadableSkip},
		RateLimit: RateLimitConfig{RequestsPerMinute: 60, Burst: 5},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.BasePath != "/api/open-document-archive" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.HTTP.BasePath)
	}
	if cfg.Corpus.TimestampLayout != "2006-01-02T15-04-05Z" {
		t.Errorf("expected custom layout kept, got %q", cfg.Corpus.TimestampLayout)
	}
	if cfg.Scanner.OnUnreadable != OnUnreadableSkip {
		t.Errorf("expected skip kept, got %q", cfg.Scanner.OnUnreadable)
	}
	if cfg.RateLimit.Burst != 5 {
		t.Errorf("expected Burst=5, got %d", cfg.RateLimit.Burst)
	}
}

func TestApplyDefaults_BurstFollowsRate(t *testing.T) {
	cfg := Config{RateLimit: RateLimitConfig{RequestsPerMinute: 30}}
	cfg.ApplyDefaults()
	if cfg.RateLimit.Burst != 30 {
		t.Errorf("expected Burst=30, got %d", cfg.RateLimit.Burst)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("TOSARCHIVE_TEST_ROOT", "/srv/dataset")

	cfg, err := Parse([]byte(`
http:
  port: ${TOSARCHIVE_TEST_PORT:-9090}
corpus:
  root: ${TOSARCHIVE_TEST_ROOT}
cache:
  driver: redis
  addrs: ["${TOSARCHIVE_TEST_REDIS:-localhost:6379}"]
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected default port 9090, got %d", cfg.HTTP.Port)
	}
	if cfg.Corpus.Root != "/srv/dataset" {
		t.Errorf("expected root from env, got %q", cfg.Corpus.Root)
	}
	if len(cfg.Cache.Addrs) != 1 || cfg.Cache.Addrs[0] != "localhost:6379" {
		t.Errorf("unexpected addrs %v", cfg.Cache.Addrs)
	}
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("http:\n  port: 8080\n"))
	if err == nil || !strings.Contains(err.Error(), "corpus.root") {
		t.Fatalf("expected corpus.root error, got %v", err)
	}
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Fatal("expected YAML error")
	}
}

func TestLoad_Local(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port == 0 {
		t.Error("expected a port")
	}
}
