package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Zacy-Sokach/chatbox/internal/api"
)

// isolate 把配置目录和 .env 指向临时目录，并清空相关环境变量
func isolate(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("CHATBOX_CONFIG_HOME", tmpDir)
	for _, key := range []string{EnvAPIBase, EnvReactAPIBase, EnvTopK, EnvDebug} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	original := DotEnvPath
	DotEnvPath = filepath.Join(tmpDir, ".env")
	t.Cleanup(func() { DotEnvPath = original })
	return tmpDir
}

func TestGetConfigPath(t *testing.T) {
	tmpDir := isolate(t)

	path, err := getConfigPath()
	if err != nil {
		t.Fatalf("getConfigPath failed: %v", err)
	}

	expectedPath := filepath.Join(tmpDir, "config.yaml")
	if path != expectedPath {
		t.Errorf("Config path mismatch: got %s, want %s", path, expectedPath)
	}
}

func TestLoadConfigWhenNotExists(t *testing.T) {
	isolate(t)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed when config doesn't exist: %v", err)
	}

	if config.APIBase != api.DefaultBaseURL {
		t.Errorf("Expected default api base %q, got %q", api.DefaultBaseURL, config.APIBase)
	}
	if config.Title != DefaultTitle {
		t.Errorf("Expected default title, got %q", config.Title)
	}
	if config.ExportFormat != "md" || config.ExportDir != "." {
		t.Errorf("Unexpected export defaults: %q %q", config.ExportFormat, config.ExportDir)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestSaveAndLoadConfigIntegration(t *testing.T) {
	isolate(t)

	testConfig := &Config{
		APIBase: "http://qa.internal:8080/",
		TopK:    2,
		Title:   "Docs Q&A",
	}
	if err := SaveConfig(testConfig); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	configPath, _ := getConfigPath()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if loaded.APIBase != "http://qa.internal:8080" {
		t.Errorf("Loaded APIBase %q, want trailing slash trimmed", loaded.APIBase)
	}
	if loaded.TopK != 2 {
		t.Errorf("Loaded TopK %d, want 2", loaded.TopK)
	}
	if loaded.Title != "Docs Q&A" {
		t.Errorf("Loaded Title %q", loaded.Title)
	}
	if loaded.ExportFormat != DefaultExportFormat {
		t.Errorf("Missing export_format should default, got %q", loaded.ExportFormat)
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	isolate(t)

	configPath, _ := getConfigPath()
	os.MkdirAll(filepath.Dir(configPath), 0755)
	os.WriteFile(configPath, []byte("invalid: yaml: content: [}"), 0644)

	if _, err := LoadConfig(); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestEnvPrecedence(t *testing.T) {
	tmpDir := isolate(t)

	if err := SaveConfig(&Config{APIBase: "http://from-file:1"}); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	dotenv := "CHATBOX_API_BASE=http://from-dotenv:2\nCHATBOX_TOP_K=4\n"
	if err := os.WriteFile(filepath.Join(tmpDir, ".env"), []byte(dotenv), 0644); err != nil {
		t.Fatalf("write .env failed: %v", err)
	}

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.APIBase != "http://from-dotenv:2" {
		t.Errorf(".env should override config file, got %q", config.APIBase)
	}
	if config.TopK != 4 {
		t.Errorf("TopK from .env = %d, want 4", config.TopK)
	}
	if _, ok := os.LookupEnv(EnvAPIBase); ok {
		t.Error(".env must not be exported into the process environment")
	}

	t.Setenv(EnvAPIBase, "http://from-env:3")
	config, err = LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.APIBase != "http://from-env:3" {
		t.Errorf("process env should override .env, got %q", config.APIBase)
	}
}

func TestReactAPIBaseFallback(t *testing.T) {
	isolate(t)
	t.Setenv(EnvReactAPIBase, "http://127.0.0.1:5001")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.APIBase != "http://127.0.0.1:5001" {
		t.Errorf("REACT_APP_API_BASE not honored, got %q", config.APIBase)
	}
}

func TestInvalidEnvValues(t *testing.T) {
	isolate(t)
	t.Setenv(EnvTopK, "many")

	if _, err := LoadConfig(); err == nil {
		t.Error("Expected error for non-integer CHATBOX_TOP_K")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(c *Config) {}, false},
		{"https", func(c *Config) { c.APIBase = "https://qa.example.com" }, false},
		{"no scheme", func(c *Config) { c.APIBase = "127.0.0.1:5000" }, true},
		{"ftp", func(c *Config) { c.APIBase = "ftp://host" }, true},
		{"negative top_k", func(c *Config) { c.TopK = -1 }, true},
		{"html export", func(c *Config) { c.ExportFormat = "html" }, false},
		{"pdf export", func(c *Config) { c.ExportFormat = "pdf" }, true},
	}

	for _, tt := range tests {
		c := Default()
		tt.mutate(c)
		err := c.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}
