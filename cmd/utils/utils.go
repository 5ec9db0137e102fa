package utils

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wentf9/vmguests/global"
	"golang.org/x/term"
)

const (
	ConfigDirName  = ".vmguests"
	ConfigFileName = "config.yaml"
	ConfigKeyName  = "key"
)

// ParseAddr 解析 user@host:port 格式的字符串
func ParseAddr(input string) (string, string, uint16) {
	var user, host string = "", ""
	var port uint16 = 0
	if atIndex := strings.LastIndex(input, ":"); atIndex != -1 {
		port = ParsePort(input[atIndex+1:])
		input = input[:atIndex]
	}
	if atIndex := strings.Index(input, "@"); atIndex != -1 {
		user = strings.TrimSpace(input[:atIndex])
		input = input[atIndex+1:]
	}
	host = strings.TrimSpace(input)

	return user, host, port
}

// ParsePort 解析端口字符串
// 如果输入为空字符串或不合法，则返回0
func ParsePort(input string) uint16 {
	if input == "" {
		return 0
	}
	port64, err := strconv.ParseUint(input, 10, 16)
	if err != nil {
		return 0
	}
	return uint16(port64)
}

func GetCurrentUser() string {
	currentUser, err := user.Current()
	if err != nil {
		return ""
	}
	return currentUser.Username
}

// GetConfigFilePath 返回默认的配置文件和密钥文件路径
func GetConfigFilePath() (configPath, keyPath string) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", ""
	}
	return filepath.Join(home, ConfigDirName, ConfigFileName), filepath.Join(home, ConfigDirName, ConfigKeyName)
}

// KeyPathFor 密钥文件总是和配置文件放在同一目录
func KeyPathFor(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), ConfigKeyName)
}

// ReadPasswordFromTerminal 从终端安全地读取密码,提示信息写到 stderr
func ReadPasswordFromTerminal(prompt string) (string, error) {
	if !global.IsTerminal {
		return "", fmt.Errorf("stdin is not a terminal, cannot prompt for password")
	}
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr) // ReadPassword 不会打印换行符
	if err != nil {
		return "", err
	}
	return string(password), nil
}
