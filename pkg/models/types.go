package models

import "github.com/samber/lo"

// Identity 定义认证信息
type Identity struct {
	User       string `yaml:"user" validate:"required"`
	KeyPath    string `yaml:"key_path,omitempty"`
	Passphrase string `yaml:"passphrase,omitempty"` // 私钥密码
	Password   string `yaml:"password,omitempty"`   // 登录密码
	AuthType   string `yaml:"auth_type" validate:"oneof=key password"`
}

// Host 定义网络连接信息
type Host struct {
	Address string `yaml:"address" validate:"required,hostname_rfc1123|ip"` // IP 或 域名
	Port    uint16 `yaml:"port"`
}

// DefaultSSHPort 配置中未填写端口时使用
const DefaultSSHPort uint16 = 22

func (h Host) PortOrDefault() uint16 {
	if h.Port == 0 {
		return DefaultSSHPort
	}
	return h.Port
}

// Node 是一台运行 libvirt 的宿主机,cron 在上面生成 virsh list 的缓存
type Node struct {
	Alias []string `yaml:"alias,omitempty"`
	Tags  []string `yaml:"tags,omitempty"` // 用于分组

	HostRef     string `yaml:"host_ref" validate:"required"`
	IdentityRef string `yaml:"identity_ref" validate:"required"`

	// 指向另一个 Node 的名称
	ProxyJump string `yaml:"proxy_jump,omitempty"`

	// 为空时使用全局配置的 guest_file
	GuestFile string `yaml:"guest_file,omitempty"`
}

// HasTag 判断节点是否属于某个标签组
func (n Node) HasTag(tag string) bool {
	return lo.Contains(n.Tags, tag)
}
