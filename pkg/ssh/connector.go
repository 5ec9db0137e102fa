package ssh

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/wentf9/vmguests/pkg/config"
	"github.com/wentf9/vmguests/pkg/logger"
	"github.com/wentf9/vmguests/pkg/models"
	"github.com/wentf9/vmguests/pkg/utils/concurrent"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
	"golang.org/x/sync/singleflight"
)

// Connector 负责创建并缓存到宿主机的 SSH 连接
type Connector struct {
	Config config.ConfigProvider
	// 为空时使用 ~/.ssh/known_hosts
	KnownHostsFile string
	// 大于 0 时对每条新连接开启心跳
	KeepAlive time.Duration

	clients *concurrent.Map[string, *ssh.Client]
	// singleflight 组，用来控制并发和去重
	sf singleflight.Group
}

func NewConnector(cfg config.ConfigProvider) *Connector {
	return &Connector{
		Config:    cfg,
		KeepAlive: 30 * time.Second,
		clients:   concurrent.NewMap[string, *ssh.Client](concurrent.HashString),
	}
}

func (c *Connector) cached(nodeName string) (*ssh.Client, bool) {
	return c.clients.Get(nodeName)
}

// Connect 根据节点名称建立 SSH 连接
// 如果节点配置了 ProxyJump，会递归建立到跳板机的连接
func (c *Connector) Connect(ctx context.Context, nodeName string) (*Client, error) {
	// 环路必须在进入 singleflight 之前排除,否则并发连接环上的两个节点会互相等待
	if err := c.checkJumpChain(nodeName); err != nil {
		return nil, err
	}
	return c.connect(ctx, nodeName)
}

// checkJumpChain 沿 ProxyJump 链检查环路,链上不存在的节点留给 connect 报错
func (c *Connector) checkJumpChain(nodeName string) error {
	seen := map[string]bool{}
	for cur := nodeName; cur != ""; {
		if seen[cur] {
			return fmt.Errorf("proxy jump loop at node '%s'", cur)
		}
		seen[cur] = true
		node, ok := c.Config.GetNode(cur)
		if !ok || node.ProxyJump == "" {
			return nil
		}
		next := c.Config.Find(node.ProxyJump)
		if next == "" {
			next = node.ProxyJump
		}
		cur = next
	}
	return nil
}

func (c *Connector) connect(ctx context.Context, nodeName string) (*Client, error) {
	node, ok := c.Config.GetNode(nodeName)
	if !ok {
		return nil, fmt.Errorf("node not found '%s'", nodeName)
	}
	if raw, ok := c.cached(nodeName); ok {
		return NewClient(raw, nodeName, node), nil
	}

	// 即使多个协程同时连接同一个节点，Do 里面的函数只会执行一次
	result, err, _ := c.sf.Do(nodeName, func() (any, error) {
		if raw, ok := c.cached(nodeName); ok {
			return raw, nil
		}

		host, ok := c.Config.GetHost(nodeName)
		if !ok {
			return nil, fmt.Errorf("host ref '%s' not found for node '%s'", node.HostRef, nodeName)
		}
		identity, ok := c.Config.GetIdentity(nodeName)
		if !ok {
			return nil, fmt.Errorf("identity ref '%s' not found for node '%s'", node.IdentityRef, nodeName)
		}

		var dialer Dialer = &net.Dialer{Timeout: 10 * time.Second}
		if node.ProxyJump != "" {
			jumpName := c.Config.Find(node.ProxyJump)
			if jumpName == "" {
				jumpName = node.ProxyJump
			}
			jump, err := c.connect(ctx, jumpName)
			if err != nil {
				return nil, fmt.Errorf("failed to connect to jump host '%s': %w", node.ProxyJump, err)
			}
			dialer = &SSHProxyDialer{Client: jump.SSHClient()}
		}

		sshConfig, err := c.buildSSHConfig(identity)
		if err != nil {
			return nil, fmt.Errorf("failed to build ssh config for '%s': %w", nodeName, err)
		}

		targetAddr := net.JoinHostPort(host.Address, fmt.Sprint(host.PortOrDefault()))
		logger.Logger.Debug("ssh dial", "node", nodeName, "addr", targetAddr, "jump", node.ProxyJump)
		conn, err := dialer.DialContext(ctx, "tcp", targetAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to dial target '%s' (%s): %w", nodeName, targetAddr, err)
		}

		// 握手阶段同样受 ctx 的截止时间约束
		if deadline, ok := ctx.Deadline(); ok {
			conn.SetDeadline(deadline)
		}
		ncc, chans, reqs, err := ssh.NewClientConn(conn, targetAddr, sshConfig)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("ssh handshake failed for '%s': %w", nodeName, err)
		}
		conn.SetDeadline(time.Time{})
		raw := ssh.NewClient(ncc, chans, reqs)

		c.clients.Set(nodeName, raw)
		if c.KeepAlive > 0 {
			StartKeepAlive(raw, c.KeepAlive, func(err error) {
				logger.Logger.Warn("ssh keepalive failed", "node", nodeName, "error", err)
				c.evict(nodeName, raw)
			})
		}
		return raw, nil
	})
	if err != nil {
		return nil, err
	}
	return NewClient(result.(*ssh.Client), nodeName, node), nil
}

// CloseAll 关闭所有缓存的连接 (在程序退出前调用)
func (c *Connector) CloseAll() {
	for _, name := range c.clients.Keys() {
		if cli, ok := c.clients.Pop(name); ok {
			cli.Close()
		}
	}
}

// buildSSHConfig 根据 Identity 模型构建 ssh.ClientConfig
func (c *Connector) buildSSHConfig(id models.Identity) (*ssh.ClientConfig, error) {
	method, err := authFor(id)
	if err != nil {
		return nil, err
	}
	auth, err := method.GetMethod()
	if err != nil {
		return nil, err
	}

	hostKeyCallback, err := c.hostKeyCallback()
	if err != nil {
		return nil, err
	}
	return &ssh.ClientConfig{
		User:            id.User,
		Auth:            []ssh.AuthMethod{auth},
		HostKeyCallback: hostKeyCallback,
		Timeout:         15 * time.Second,
	}, nil
}

// hostKeyCallback 优先校验 known_hosts,文件不存在时退回不校验并记录警告
func (c *Connector) hostKeyCallback() (ssh.HostKeyCallback, error) {
	path := c.KnownHostsFile
	if path == "" {
		path = expandHomeDir(filepath.Join("~", ".ssh", "known_hosts"))
	}
	cb, err := knownhosts.New(path)
	if err == nil {
		return cb, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		logger.Logger.Warn("known_hosts not found, host keys are not verified", "path", path)
		return ssh.InsecureIgnoreHostKey(), nil
	}
	return nil, fmt.Errorf("load known_hosts: %w", err)
}

func expandHomeDir(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return home + path[1:]
		}
	}
	return path
}
