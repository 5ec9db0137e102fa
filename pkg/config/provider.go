package config

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
	"github.com/wentf9/vmguests/pkg/models"
)

// Provider 在 Configuration 之上维护 "别名/user@host:port -> 节点名" 的索引
type Provider struct {
	cfg         *Configuration
	lookupIndex map[string]string
}

func NewProvider(cfg *Configuration) *Provider {
	cfg.normalize()
	p := &Provider{
		cfg:         cfg,
		lookupIndex: make(map[string]string),
	}
	for name := range cfg.Nodes {
		p.index(name)
	}
	return p
}

// index 将节点及其所有标识符加入索引
func (p *Provider) index(name string) {
	node, ok := p.cfg.Nodes[name]
	if !ok {
		return
	}
	p.lookupIndex[name] = name
	for _, alias := range node.Alias {
		if alias != "" {
			p.lookupIndex[alias] = name
		}
	}
	host, ok := p.cfg.Hosts[node.HostRef]
	if !ok {
		return
	}
	if id, ok := p.cfg.Identities[node.IdentityRef]; ok && id.User != "" {
		p.lookupIndex[fmt.Sprintf("%s@%s:%d", id.User, host.Address, host.Port)] = name
	}
}

// Find 匹配用户输入(节点名 / 别名 / user@host:port),找不到返回空字符串
func (p *Provider) Find(input string) string {
	return p.lookupIndex[input]
}

func (p *Provider) GetNode(name string) (models.Node, bool) {
	n, ok := p.cfg.Nodes[name]
	return n, ok
}

func (p *Provider) GetHost(name string) (models.Host, bool) {
	if node, ok := p.cfg.Nodes[name]; ok {
		h, ok := p.cfg.Hosts[node.HostRef]
		return h, ok
	}
	return models.Host{}, false
}

func (p *Provider) GetIdentity(name string) (models.Identity, bool) {
	if node, ok := p.cfg.Nodes[name]; ok {
		id, ok := p.cfg.Identities[node.IdentityRef]
		return id, ok
	}
	return models.Identity{}, false
}

func (p *Provider) AddNode(name string, node models.Node) {
	p.cfg.Nodes[name] = node
	p.index(name)
}

func (p *Provider) AddHost(name string, host models.Host) {
	p.cfg.Hosts[name] = host
}

func (p *Provider) AddIdentity(name string, identity models.Identity) {
	p.cfg.Identities[name] = identity
}

// DeleteNode 删除节点以及只被它引用的 Host 和 Identity
func (p *Provider) DeleteNode(name string) bool {
	node, ok := p.cfg.Nodes[name]
	if !ok {
		return false
	}
	delete(p.cfg.Nodes, name)
	for key, target := range p.lookupIndex {
		if target == name {
			delete(p.lookupIndex, key)
		}
	}

	hostUsed, idUsed := false, false
	for _, other := range p.cfg.Nodes {
		hostUsed = hostUsed || other.HostRef == node.HostRef
		idUsed = idUsed || other.IdentityRef == node.IdentityRef
	}
	if !hostUsed {
		delete(p.cfg.Hosts, node.HostRef)
	}
	if !idUsed {
		delete(p.cfg.Identities, node.IdentityRef)
	}
	return true
}

// ListNodes 返回排序后的节点名
func (p *Provider) ListNodes() []string {
	names := lo.Keys(p.cfg.Nodes)
	slices.Sort(names)
	return names
}

func (p *Provider) GetNodesByTag(tag string) []string {
	return lo.Filter(p.ListNodes(), func(name string, _ int) bool {
		return p.cfg.Nodes[name].HasTag(tag)
	})
}
