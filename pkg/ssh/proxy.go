package ssh

import (
	"context"
	"net"

	"golang.org/x/crypto/ssh"
)

// Dialer 统一 "直连" 和 "通过 SSH 跳板机连接" 的行为
type Dialer interface {
	DialContext(ctx context.Context, network, addr string) (net.Conn, error)
}

// SSHProxyDialer 通过跳板机的 SSH 通道转发 TCP 连接
type SSHProxyDialer struct {
	Client *ssh.Client
}

// DialContext ssh.Client.Dial 本身不支持 Context,这里异步拨号以支持取消
func (s *SSHProxyDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := s.Client.Dial(network, addr)
		ch <- result{conn: conn, err: err}
	}()

	select {
	case <-ctx.Done():
		// 拨号晚于取消完成时关闭多余的连接
		go func() {
			if res := <-ch; res.conn != nil {
				res.conn.Close()
			}
		}()
		return nil, ctx.Err()
	case res := <-ch:
		return res.conn, res.err
	}
}
