package ssh

import (
	"time"

	"golang.org/x/crypto/ssh"
)

// StartKeepAlive 定期发送 keepalive@openssh.com 请求,失败时关闭连接并回调 onDead
// 连接被主动关闭后 Wait 返回,协程随之退出
func StartKeepAlive(client *ssh.Client, interval time.Duration, onDead func(err error)) {
	done := make(chan struct{})
	go func() {
		client.Wait()
		close(done)
	}()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
			}
			if _, _, err := client.SendRequest("keepalive@openssh.com", true, nil); err != nil {
				client.Close()
				if onDead != nil {
					onDead(err)
				}
				return
			}
		}
	}()
}

// evict 心跳失败后把连接移出缓存,下一次 Connect 会重新拨号
func (c *Connector) evict(nodeName string, raw *ssh.Client) {
	c.clients.RemoveIf(nodeName, func(cur *ssh.Client) bool { return cur == raw })
}
