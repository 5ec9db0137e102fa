package config

import (
	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "VMGUESTS"

// EnvOverrides 对应 VMGUESTS_* 环境变量,优先级高于配置文件,低于命令行参数
type EnvOverrides struct {
	GuestFile string   `envconfig:"FILE"`
	Suffixes  []string `envconfig:"SUFFIXES"`
	StripMode string   `envconfig:"STRIP_MODE"`
	LogLevel  string   `envconfig:"LOG_LEVEL"`
}

func LoadEnv() (EnvOverrides, error) {
	var e EnvOverrides
	err := envconfig.Process(EnvPrefix, &e)
	return e, err
}

// ApplyEnv 只覆盖设置了的环境变量
func (c *Configuration) ApplyEnv(e EnvOverrides) {
	if e.GuestFile != "" {
		c.GuestFile = e.GuestFile
	}
	if len(e.Suffixes) > 0 {
		c.Suffixes = e.Suffixes
	}
	if e.StripMode != "" {
		c.StripMode = e.StripMode
	}
}
