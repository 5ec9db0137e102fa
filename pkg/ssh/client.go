package ssh

import (
	"github.com/wentf9/vmguests/pkg/models"
	"golang.org/x/crypto/ssh"
)

// Client 是 Connector 返回的连接句柄,底层连接由 Connector 缓存和关闭
type Client struct {
	sshClient *ssh.Client
	name      string
	node      models.Node
}

func NewClient(raw *ssh.Client, name string, node models.Node) *Client {
	return &Client{
		sshClient: raw,
		name:      name,
		node:      node,
	}
}

// SSHClient 暴露底层的 ssh.Client (供 SFTP 使用)
func (c *Client) SSHClient() *ssh.Client {
	return c.sshClient
}

func (c *Client) Name() string {
	return c.name
}

// Node 返回当前连接对应的节点配置
func (c *Client) Node() models.Node {
	return c.node
}
