package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateSettings 只校验本机读取用到的字段
func (c *Configuration) ValidateSettings() error {
	return validate.StructPartial(c, "StripMode")
}

// Validate 校验字段格式、节点对 Host/Identity 的引用以及跳板机环路
// 指向不存在节点的 proxy_jump 不在这里报错,跳板机被删除后由连接时报错
func (c *Configuration) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if err := c.checkJumpCycles(); err != nil {
		return err
	}
	for name, node := range c.Nodes {
		if _, ok := c.Hosts[node.HostRef]; !ok {
			return fmt.Errorf("node %s: host_ref %s not found", name, node.HostRef)
		}
		if _, ok := c.Identities[node.IdentityRef]; !ok {
			return fmt.Errorf("node %s: identity_ref %s not found", name, node.IdentityRef)
		}
	}
	return nil
}

// ValidateAddress 地址必须是 IP 或合法的主机名
func ValidateAddress(addr string) error {
	if err := validate.Var(addr, "required,hostname_rfc1123|ip"); err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}
	return nil
}

// checkJumpCycles 沿 proxy_jump 链逐个节点检查是否回到链上已经走过的节点
func (c *Configuration) checkJumpCycles() error {
	byName := make(map[string]string, len(c.Nodes))
	for name, node := range c.Nodes {
		for _, alias := range node.Alias {
			if alias != "" {
				byName[alias] = name
			}
		}
	}
	for name := range c.Nodes {
		byName[name] = name
	}

	for start := range c.Nodes {
		seen := map[string]bool{}
		for cur := start; cur != ""; {
			if seen[cur] {
				return fmt.Errorf("node %s: proxy jump loop at %s", start, cur)
			}
			seen[cur] = true
			cur = byName[c.Nodes[cur].ProxyJump]
		}
	}
	return nil
}
