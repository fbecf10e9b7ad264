package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRootCommand(t *testing.T) {
	tests := []struct {
		name           string
		args           []string
		expectedOutput string
		expectError    bool
	}{
		{
			name:           "help flag",
			args:           []string{"--help"},
			expectedOutput: "eventdesk serves the admin console API",
		},
		{
			name:           "short help flag",
			args:           []string{"-h"},
			expectedOutput: "eventdesk serves the admin console API",
		},
		{
			name:           "invalid flag",
			args:           []string{"--invalid-flag"},
			expectedOutput: "unknown flag: --invalid-flag",
			expectError:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRootCommand()

			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			output := buf.String()

			if tt.expectError && err == nil {
				t.Errorf("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !strings.Contains(output, tt.expectedOutput) {
				t.Errorf("expected output to contain %q, got:\n%s", tt.expectedOutput, output)
			}
		})
	}
}

func TestRootCommandPersistentFlags(t *testing.T) {
	cmd := newRootCommand()

	for _, flag := range []string{"config", "env-file", "log-level", "log-format"} {
		if f := cmd.PersistentFlags().Lookup(flag); f == nil {
			t.Errorf("expected persistent flag %q to be defined", flag)
		}
	}
	// The root command starts the server, so it accepts serve flags.
	for _, flag := range []string{"host", "port", "in-memory", "migrate"} {
		if f := cmd.Flags().Lookup(flag); f == nil {
			t.Errorf("expected root flag %q to be defined", flag)
		}
	}
}

func TestRootCommandSubcommands(t *testing.T) {
	cmd := newRootCommand()

	expected := map[string][]string{
		"serve":       nil,
		"migrate":     {"up", "down", "version"},
		"admin":       {"create", "disable", "enable"},
		"healthcheck": nil,
		"version":     nil,
	}
	for name, children := range expected {
		sub, _, err := cmd.Find([]string{name})
		if err != nil || sub.Name() != name {
			t.Errorf("expected subcommand %q to be registered", name)
			continue
		}
		for _, child := range children {
			if c, _, err := sub.Find([]string{child}); err != nil || c.Name() != child {
				t.Errorf("expected %s to have subcommand %q", name, child)
			}
		}
	}
}

// isolateEnv clears the variables config reads so host settings cannot leak
// into a test.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SERVER_HOST", "SERVER_PORT", "PORT", "PUBLIC_API_URL", "DATABASE_URL",
		"DATABASE_MAX_CONNECTIONS", "JWT_SECRET", "JWT_ISSUER", "CORS_ORIGIN",
		"RATE_LIMIT_LOGIN", "TRUSTED_PROXY_CIDRS", "RATE_LIMIT_REDIS_URL", "LOG_LEVEL", "LOG_FORMAT",
		"TRACING_ENABLED", "TRACING_EXPORTER", "TRACING_ENDPOINT", "TRACING_SAMPLE_RATE",
		"ADMIN_EMAIL", "ADMIN_PASSWORD", "ADMIN_NAME", "ADMIN_ROLE", "ENVIRONMENT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	isolateEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "JWT_SECRET=from-dotenv\nSERVER_PORT=4100\nLOG_LEVEL=warn\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	// The process environment wins over the file.
	t.Setenv("SERVER_PORT", "4200")

	envFile, configPath, logLevel, logFormat = path, "", "", ""
	defer func() { envFile = ".env" }()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Auth.JWTSecret != "from-dotenv" {
		t.Errorf("expected secret from dotenv file, got %q", cfg.Auth.JWTSecret)
	}
	if cfg.Server.Port != 4200 {
		t.Errorf("expected environment port 4200, got %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level warn, got %s", cfg.Logging.Level)
	}
}

func TestLoadConfigMissingEnvFile(t *testing.T) {
	isolateEnv(t)
	t.Setenv("JWT_SECRET", "test-secret")

	envFile, configPath, logLevel, logFormat = filepath.Join(t.TempDir(), "absent.env"), "", "", ""
	defer func() { envFile = ".env" }()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("a missing env file should be ignored: %v", err)
	}
	if cfg.Server.Port != 3001 {
		t.Errorf("expected default port 3001, got %d", cfg.Server.Port)
	}
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	isolateEnv(t)
	t.Setenv("JWT_SECRET", "test-secret")

	envFile, configPath = "", ""
	logLevel, logFormat = "debug", "console"
	defer func() {
		envFile = ".env"
		logLevel = ""
		logFormat = ""
	}()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("expected log format 'console', got %s", cfg.Logging.Format)
	}
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	isolateEnv(t)

	envFile, configPath, logLevel, logFormat = "", "", "", ""
	defer func() { envFile = ".env" }()

	if _, err := loadConfig(); err == nil {
		t.Error("expected error without JWT_SECRET")
	}
}
