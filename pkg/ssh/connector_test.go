package ssh

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wentf9/vmguests/pkg/config"
	"github.com/wentf9/vmguests/pkg/models"
)

func testProvider() *config.Provider {
	p := config.NewProvider(&config.Configuration{})
	p.AddHost("a", models.Host{Address: "127.0.0.1", Port: 1})
	p.AddIdentity("a", models.Identity{User: "u", Password: "pw", AuthType: "password"})
	p.AddNode("a", models.Node{HostRef: "a", IdentityRef: "a", ProxyJump: "b"})
	p.AddHost("b", models.Host{Address: "127.0.0.1", Port: 1})
	p.AddIdentity("b", models.Identity{User: "u", Password: "pw", AuthType: "password"})
	p.AddNode("b", models.Node{HostRef: "b", IdentityRef: "b", ProxyJump: "a"})
	p.AddNode("orphan", models.Node{HostRef: "none", IdentityRef: "a"})
	return p
}

func TestConnect_UnknownNode(t *testing.T) {
	c := NewConnector(testProvider())
	_, err := c.Connect(context.Background(), "ghost")
	assert.ErrorContains(t, err, "node not found")
}

func TestConnect_MissingHostRef(t *testing.T) {
	c := NewConnector(testProvider())
	_, err := c.Connect(context.Background(), "orphan")
	assert.ErrorContains(t, err, "host ref 'none' not found")
}

func TestConnect_ProxyJumpLoop(t *testing.T) {
	c := NewConnector(testProvider())
	_, err := c.Connect(context.Background(), "a")
	assert.ErrorContains(t, err, "proxy jump loop")
}

func TestConnect_ProxyJumpLoopConcurrent(t *testing.T) {
	c := NewConnector(testProvider())
	errs := make(chan error, 2)
	for _, name := range []string{"a", "b"} {
		go func() {
			_, err := c.Connect(context.Background(), name)
			errs <- err
		}()
	}
	for range 2 {
		select {
		case err := <-errs:
			assert.ErrorContains(t, err, "proxy jump loop")
		case <-time.After(5 * time.Second):
			t.Fatal("connect on a jump loop did not return")
		}
	}
}

func TestBuildSSHConfig(t *testing.T) {
	c := NewConnector(testProvider())
	c.KnownHostsFile = filepath.Join(t.TempDir(), "known_hosts")

	cfg, err := c.buildSSHConfig(models.Identity{User: "zabbix", Password: "pw", AuthType: "password"})
	require.NoError(t, err)
	assert.Equal(t, "zabbix", cfg.User)
	assert.Len(t, cfg.Auth, 1)
	assert.NotNil(t, cfg.HostKeyCallback)

	cases := []models.Identity{
		{User: "u", AuthType: "password"},
		{User: "u", AuthType: "key"},
		{User: "u", AuthType: "key", KeyPath: filepath.Join(t.TempDir(), "absent")},
		{User: "u", AuthType: "agent"},
	}
	for _, id := range cases {
		_, err := c.buildSSHConfig(id)
		assert.Error(t, err, "%+v", id)
	}
}

func TestBuildSSHConfig_BadKnownHosts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "known_hosts")
	require.NoError(t, os.WriteFile(path, []byte("this is not a known_hosts line\n"), 0o600))

	c := NewConnector(testProvider())
	c.KnownHostsFile = path
	_, err := c.buildSSHConfig(models.Identity{User: "u", Password: "pw", AuthType: "password"})
	assert.ErrorContains(t, err, "known_hosts")
}

func TestExpandHomeDir(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, home+"/.ssh/id_rsa", expandHomeDir("~/.ssh/id_rsa"))
	assert.Equal(t, "/etc/key", expandHomeDir("/etc/key"))
}
