package utils

import (
	"os"
	"path/filepath"
)

const (
	appDirName = "chatbox"
	// EnvConfigHome 覆盖配置目录，测试里也用它隔离
	EnvConfigHome = "CHATBOX_CONFIG_HOME"
)

// GetConfigDir 返回配置目录
// 依次尝试 CHATBOX_CONFIG_HOME, %APPDATA%/chatbox, $XDG_CONFIG_HOME/chatbox, ~/.config/chatbox
func GetConfigDir() (string, error) {
	if dir := os.Getenv(EnvConfigHome); dir != "" {
		return dir, nil
	}
	for _, base := range []string{os.Getenv("APPDATA"), os.Getenv("XDG_CONFIG_HOME")} {
		if base != "" {
			return filepath.Join(base, appDirName), nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appDirName), nil
}

// ConfigFile 返回配置目录下某个文件的路径
func ConfigFile(name string) (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// GetConfigPathForDisplay 返回给用户看的 config.yaml 路径，出错时给出默认位置
func GetConfigPathForDisplay() string {
	if path, err := ConfigFile("config.yaml"); err == nil {
		return path
	}
	return "~/.config/" + appDirName + "/config.yaml"
}
