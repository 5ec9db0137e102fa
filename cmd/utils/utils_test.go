package utils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAddr(t *testing.T) {
	cases := []struct {
		input string
		user  string
		host  string
		port  uint16
	}{
		{"kvm01", "", "kvm01", 0},
		{"root@kvm01", "root", "kvm01", 0},
		{"root@10.0.0.1:2222", "root", "10.0.0.1", 2222},
		{"10.0.0.1:22", "", "10.0.0.1", 22},
		{"zabbix@kvm01:notaport", "zabbix", "kvm01", 0},
	}
	for _, c := range cases {
		u, h, p := ParseAddr(c.input)
		assert.Equal(t, c.user, u, c.input)
		assert.Equal(t, c.host, h, c.input)
		assert.Equal(t, c.port, p, c.input)
	}
}

func TestParsePort(t *testing.T) {
	assert.Equal(t, uint16(0), ParsePort(""))
	assert.Equal(t, uint16(22), ParsePort("22"))
	assert.Equal(t, uint16(0), ParsePort("65536"))
	assert.Equal(t, uint16(0), ParsePort("-1"))
}

func TestKeyPathFor(t *testing.T) {
	assert.Equal(t, filepath.Join("/etc/vmguests", ConfigKeyName), KeyPathFor("/etc/vmguests/config.yaml"))
}
