package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeEnvFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// clearEnv blanks variables the host may export, so file values are visible.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadFromFiles(t *testing.T) {
	clearEnv(t, "PORT", "SP_TOKEN", "NOTICE_LOG_LEVEL", "NOTICE_RATE_LIMIT_MAX")
	dir := t.TempDir()
	general := writeEnvFile(t, dir, "config.env", "PORT=3000\nNOTICE_LOG_LEVEL=warn\nNOTICE_RATE_LIMIT_MAX=10\n")
	secrets := writeEnvFile(t, dir, "secrets.env", "SP_TOKEN=secret\n")

	v, err := newSource(general, secrets)
	if err != nil {
		t.Fatalf("newSource() error = %v", err)
	}
	cfg := load(v)

	if cfg.ListenPort != ":3000" {
		t.Errorf("ListenPort = %q, want %q", cfg.ListenPort, ":3000")
	}
	if cfg.Token != "secret" {
		t.Errorf("Token = %q, want %q", cfg.Token, "secret")
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "warn")
	}
	if cfg.RateLimitMax != 10 {
		t.Errorf("RateLimitMax = %d, want 10", cfg.RateLimitMax)
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	general := writeEnvFile(t, dir, "config.env", "PORT=8080\nSP_TOKEN=x\n")

	v, err := newSource(general, filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("newSource() error = %v", err)
	}
	cfg := load(v)

	if cfg.RateLimitMax != 250 {
		t.Errorf("RateLimitMax = %d, want 250", cfg.RateLimitMax)
	}
	if cfg.RateLimitWindow != time.Minute {
		t.Errorf("RateLimitWindow = %v, want 1m", cfg.RateLimitWindow)
	}
	if cfg.StorageDir != "./storage" || cfg.LogDir != "./log" {
		t.Errorf("dirs = %q, %q", cfg.StorageDir, cfg.LogDir)
	}
	if cfg.Timezone != "Europe/Oslo" {
		t.Errorf("Timezone = %q", cfg.Timezone)
	}
	if cfg.TrustProxy {
		t.Error("TrustProxy should default to false")
	}
	if !cfg.MetricsEnabled {
		t.Error("MetricsEnabled should default to true")
	}
	if cfg.RedisAddr != "" {
		t.Errorf("RedisAddr = %q, want empty", cfg.RedisAddr)
	}
}

func TestEnvironmentOverridesFiles(t *testing.T) {
	dir := t.TempDir()
	general := writeEnvFile(t, dir, "config.env", "PORT=3000\nSP_TOKEN=from-file\n")
	t.Setenv("SP_TOKEN", "from-env")

	v, err := newSource(general)
	if err != nil {
		t.Fatalf("newSource() error = %v", err)
	}
	cfg := load(v)

	if cfg.Token != "from-env" {
		t.Errorf("Token = %q, want %q", cfg.Token, "from-env")
	}
}

func TestSecretsOverrideGeneralFile(t *testing.T) {
	clearEnv(t, "SP_TOKEN")
	dir := t.TempDir()
	general := writeEnvFile(t, dir, "config.env", "PORT=3000\nSP_TOKEN=general\n")
	secrets := writeEnvFile(t, dir, "secrets.env", "SP_TOKEN=secret\n")

	v, err := newSource(general, secrets)
	if err != nil {
		t.Fatalf("newSource() error = %v", err)
	}
	if got := requireEnv(v, "SP_TOKEN"); got != "secret" {
		t.Errorf("SP_TOKEN = %q, want %q", got, "secret")
	}
}

func TestRequireEnv(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     string
		shouldSet bool
		wantPanic bool
	}{
		{
			name:      "variable set",
			key:       "NOTICE_TEST_VAR",
			value:     "test_value",
			shouldSet: true,
			wantPanic: false,
		},
		{
			name:      "variable not set",
			key:       "NOTICE_TEST_VAR_MISSING",
			shouldSet: false,
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				t.Setenv(tt.key, tt.value)
			}
			v, err := newSource()
			if err != nil {
				t.Fatalf("newSource() error = %v", err)
			}

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnv() should have panicked")
					}
				}()
			}

			result := requireEnv(v, tt.key)
			if !tt.wantPanic && result != tt.value {
				t.Errorf("requireEnv() = %v, want %v", result, tt.value)
			}
		})
	}
}

func TestLoadPanicsWithoutToken(t *testing.T) {
	clearEnv(t, "SP_TOKEN")
	dir := t.TempDir()
	general := writeEnvFile(t, dir, "config.env", "PORT=3000\n")

	v, err := newSource(general)
	if err != nil {
		t.Fatalf("newSource() error = %v", err)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("load() should panic when SP_TOKEN is missing")
		}
	}()
	load(v)
}

func TestTypedHelpers(t *testing.T) {
	t.Setenv("NOTICE_TEST_INT", "42")
	t.Setenv("NOTICE_TEST_BAD_INT", "forty-two")
	t.Setenv("NOTICE_TEST_BOOL", "true")
	t.Setenv("NOTICE_TEST_DURATION", "90s")
	t.Setenv("NOTICE_TEST_BAD_DURATION", "soon")

	v, err := newSource()
	if err != nil {
		t.Fatalf("newSource() error = %v", err)
	}

	if got := getenvInt(v, "NOTICE_TEST_INT", 1); got != 42 {
		t.Errorf("getenvInt() = %d, want 42", got)
	}
	if got := getenvInt(v, "NOTICE_TEST_BAD_INT", 7); got != 7 {
		t.Errorf("getenvInt() with invalid value = %d, want default 7", got)
	}
	if got := mustBool(v, "NOTICE_TEST_BOOL", false); !got {
		t.Error("mustBool() = false, want true")
	}
	if got := mustDuration(v, "NOTICE_TEST_DURATION", time.Second); got != 90*time.Second {
		t.Errorf("mustDuration() = %v, want 90s", got)
	}
	if got := mustDuration(v, "NOTICE_TEST_BAD_DURATION", time.Second); got != time.Second {
		t.Errorf("mustDuration() with invalid value = %v, want default", got)
	}
	if got := getenv(v, "NOTICE_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("getenv() = %q, want fallback", got)
	}
}

func TestListenAddr(t *testing.T) {
	tests := map[string]string{
		"8080":           ":8080",
		":9000":          ":9000",
		"127.0.0.1:3000": "127.0.0.1:3000",
	}
	for in, want := range tests {
		if got := listenAddr(in); got != want {
			t.Errorf("listenAddr(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: nil},
		{name: "single", input: "10.0.0.0/8", want: []string{"10.0.0.0/8"}},
		{name: "spaces and quotes", input: ` "a.example" , 'b.example',, `, want: []string{"a.example", "b.example"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := splitAndTrim(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitAndTrim(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg := Config{Token: "secret", RedisPassword: "pw"}
	r := cfg.Redacted()
	if r.Token == "secret" || r.RedisPassword == "pw" {
		t.Errorf("Redacted() leaked secrets: %+v", r)
	}
	if cfg.Token != "secret" {
		t.Error("Redacted() modified the receiver")
	}
}
