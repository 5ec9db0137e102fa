package sftp

import (
	"fmt"
	"io"

	"github.com/pkg/sftp"
	"github.com/wentf9/vmguests/pkg/guests"
	"github.com/wentf9/vmguests/pkg/ssh"
)

// Client 包装了 sftp.Client，并持有底层的 ssh 连接引用
type Client struct {
	sftpClient *sftp.Client
	sshClient  *ssh.Client
}

// NewClient 在已有的 SSH 连接 (包括跳板机隧道) 上打开 sftp 子系统
func NewClient(sshCli *ssh.Client) (*Client, error) {
	client, err := sftp.NewClient(sshCli.SSHClient())
	if err != nil {
		return nil, fmt.Errorf("failed to create sftp subsystem on %s: %w", sshCli.Name(), err)
	}
	return &Client{
		sftpClient: client,
		sshClient:  sshCli,
	}, nil
}

// Close 关闭 SFTP 会话,不会关闭底层的 SSH 连接
func (c *Client) Close() error {
	return c.sftpClient.Close()
}

// Open 以只读方式打开远程文件,目录视为打开失败
func (c *Client) Open(path string) (io.ReadCloser, error) {
	f, err := c.sftpClient.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s:%s: %w", c.sshClient.Name(), path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s:%s: %w", c.sshClient.Name(), path, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%s:%s is a directory", c.sshClient.Name(), path)
	}
	return f, nil
}

// Opener 返回读取远程 virsh list 缓存的 guests.Opener
func (c *Client) Opener(path string) guests.Opener {
	return func() (io.ReadCloser, error) {
		return c.Open(path)
	}
}
