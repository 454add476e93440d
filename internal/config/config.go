package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Zacy-Sokach/chatbox/internal/api"
	"github.com/Zacy-Sokach/chatbox/internal/utils"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// 环境变量名，按优先级排列
const (
	EnvAPIBase      = "CHATBOX_API_BASE"
	EnvReactAPIBase = "REACT_APP_API_BASE" // 兼容前端项目的 .env
	EnvTopK         = "CHATBOX_TOP_K"
	EnvDebug        = "CHATBOX_DEBUG"
)

const (
	DefaultTitle        = "Catholic Health Q&A (Demo)"
	DefaultExportFormat = "md"
)

// DotEnvPath 当前目录下的 .env 文件
var DotEnvPath = ".env"

type Config struct {
	APIBase      string `yaml:"api_base"`
	TopK         int    `yaml:"top_k,omitempty"`
	Title        string `yaml:"title,omitempty"`
	ExportDir    string `yaml:"export_dir,omitempty"`
	ExportFormat string `yaml:"export_format,omitempty"`
	Debug        bool   `yaml:"debug,omitempty"`
	LogFile      string `yaml:"log_file,omitempty"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		APIBase:      api.DefaultBaseURL,
		Title:        DefaultTitle,
		ExportDir:    ".",
		ExportFormat: DefaultExportFormat,
	}
}

// LoadConfig 加载配置
// 优先级：进程环境变量 > .env > config.yaml > 默认值；命令行参数由调用方最后覆盖
func LoadConfig() (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	config := Default()

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("解析配置文件失败: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	dotenv, err := godotenv.Read(DotEnvPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("解析 .env 失败: %w", err)
	}
	if err := config.applyEnv(dotenv); err != nil {
		return nil, err
	}

	if err := config.applyEnv(processEnv()); err != nil {
		return nil, err
	}

	config.fillDefaults()
	return config, nil
}

// applyEnv 用 env 中出现的键覆盖配置
func (c *Config) applyEnv(env map[string]string) error {
	if v := firstNonEmpty(env[EnvAPIBase], env[EnvReactAPIBase]); v != "" {
		c.APIBase = v
	}
	if v := strings.TrimSpace(env[EnvTopK]); v != "" {
		k, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s 不是整数: %q", EnvTopK, v)
		}
		c.TopK = k
	}
	if v := strings.TrimSpace(env[EnvDebug]); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s 不是布尔值: %q", EnvDebug, v)
		}
		c.Debug = debug
	}
	return nil
}

func (c *Config) fillDefaults() {
	c.APIBase = strings.TrimRight(strings.TrimSpace(c.APIBase), "/")
	if c.APIBase == "" {
		c.APIBase = api.DefaultBaseURL
	}
	if c.Title == "" {
		c.Title = DefaultTitle
	}
	if c.ExportDir == "" {
		c.ExportDir = "."
	}
	if c.ExportFormat == "" {
		c.ExportFormat = DefaultExportFormat
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBase)
	if err != nil {
		return fmt.Errorf("api_base 无效: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_base 必须是 http(s) 地址: %q", c.APIBase)
	}
	if c.TopK < 0 {
		return fmt.Errorf("top_k 不能为负数: %d", c.TopK)
	}
	switch c.ExportFormat {
	case "md", "html":
	default:
		return fmt.Errorf("export_format 只支持 md 或 html: %q", c.ExportFormat)
	}
	return nil
}

func SaveConfig(config *Config) error {
	configPath, err := getConfigPath()
	if err != nil {
		return err
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}

	return nil
}

func getConfigPath() (string, error) {
	path, err := utils.ConfigFile("config.yaml")
	if err != nil {
		return "", fmt.Errorf("获取配置目录失败: %w", err)
	}
	return path, nil
}

func processEnv() map[string]string {
	env := make(map[string]string)
	for _, key := range []string{EnvAPIBase, EnvReactAPIBase, EnvTopK, EnvDebug} {
		if v, ok := os.LookupEnv(key); ok {
			env[key] = v
		}
	}
	return env
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
