package config

import (
	"github.com/wentf9/vmguests/pkg/models"
)

// Configuration 对应 yaml 文件的顶层结构
type Configuration struct {
	// 本机 virsh list 缓存的路径
	GuestFile string `yaml:"guest_file,omitempty"`
	// 允许的主机名后缀
	Suffixes []string `yaml:"suffixes,omitempty"`
	// exact 或 legacy
	StripMode string `yaml:"strip_mode,omitempty" validate:"omitempty,oneof=exact legacy"`

	Identities map[string]models.Identity `yaml:"identities,omitempty" validate:"dive"`
	Hosts      map[string]models.Host     `yaml:"hosts,omitempty" validate:"dive"`
	Nodes      map[string]models.Node     `yaml:"nodes,omitempty" validate:"dive"`
}

// ConfigProvider 定义 Connector 获取配置数据的接口
type ConfigProvider interface {
	GetNode(name string) (models.Node, bool)
	GetHost(name string) (models.Host, bool)
	GetIdentity(name string) (models.Identity, bool)
	AddHost(name string, host models.Host)
	AddIdentity(name string, identity models.Identity)
	AddNode(name string, node models.Node)
	DeleteNode(name string) bool
	ListNodes() []string
	GetNodesByTag(tag string) []string
	Find(input string) string
}
