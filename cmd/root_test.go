package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCmd 执行一个全新的根命令,配置文件默认指向临时目录
func runCmd(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	if configPath == "" {
		configPath = filepath.Join(t.TempDir(), "config.yaml")
	}
	root := NewCmdRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--config", configPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func writeGuestFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "vm_guests.txt")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestRoot_PrintsGuests(t *testing.T) {
	p := writeGuestFile(t, " Id Name State\n----\n 1 guest01.example.com running\n 2 foo.example.org running\n")
	out, err := runCmd(t, "", "-f", p)
	require.NoError(t, err)
	assert.Equal(t, "guest01.example.com \n", out)
}

func TestRoot_None(t *testing.T) {
	p := writeGuestFile(t, "idle 2 foo.org\n")
	out, err := runCmd(t, "", "--file", p)
	require.NoError(t, err)
	assert.Equal(t, "None\n", out)
}

func TestRoot_MissingFileExitsNormally(t *testing.T) {
	out, err := runCmd(t, "", "-f", filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Equal(t, "ERROR: No vm guest file on host!\n", out)
}

func TestRoot_SuffixAndStripModeFlags(t *testing.T) {
	p := writeGuestFile(t, "insider.example.net\n 1 a.example.com running\n")

	// legacy 的字符集 Trim 会把 .net 的 n/e/t 一起去掉
	out, err := runCmd(t, "", "-f", p, "--suffix", ".net", "--strip-mode", "legacy")
	require.NoError(t, err)
	assert.Equal(t, "None\n", out)

	out, err = runCmd(t, "", "-f", p, "--suffix", ".net,.com")
	require.NoError(t, err)
	assert.Equal(t, "insider.example.net a.example.com \n", out)
}

func TestRoot_BadStripMode(t *testing.T) {
	p := writeGuestFile(t, "")
	_, err := runCmd(t, "", "-f", p, "--strip-mode", "fuzzy")
	assert.ErrorContains(t, err, "unknown strip mode")
}

func TestRoot_ConfigFileDefaults(t *testing.T) {
	p := writeGuestFile(t, " 1 a.example.com running\n 2 b.example.net running\n")
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	yml := "guest_file: " + p + "\nsuffixes: [\".net\"]\nstrip_mode: exact\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(yml), 0o600))

	out, err := runCmd(t, cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "b.example.net \n", out)

	// 命令行参数优先
	out, err = runCmd(t, cfgPath, "--suffix", ".com")
	require.NoError(t, err)
	assert.Equal(t, "a.example.com \n", out)
}

func TestRoot_ConfigStripMode(t *testing.T) {
	p := writeGuestFile(t, "insider.example.com\n")
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("guest_file: "+p+"\nstrip_mode: legacy\n"), 0o600))

	out, err := runCmd(t, cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "ider.example.com \n", out)

	out, err = runCmd(t, cfgPath, "--strip-mode", "exact")
	require.NoError(t, err)
	assert.Equal(t, "insider.example.com \n", out)
}

func TestRoot_EnvOverrides(t *testing.T) {
	fromEnv := writeGuestFile(t, " 1 a.example.net running\n")
	fromFlag := writeGuestFile(t, " 1 b.example.net running\n")
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("guest_file: /nonexistent\nsuffixes: [\".com\"]\n"), 0o600))
	t.Setenv("VMGUESTS_FILE", fromEnv)
	t.Setenv("VMGUESTS_SUFFIXES", ".org,.net")

	out, err := runCmd(t, cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "a.example.net \n", out)

	out, err = runCmd(t, cfgPath, "-f", fromFlag)
	require.NoError(t, err)
	assert.Equal(t, "b.example.net \n", out)

	raw, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "/nonexistent")
}

func TestRoot_InvalidConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("strip_mode: fuzzy\n"), 0o600))
	_, err := runCmd(t, cfgPath)
	assert.ErrorContains(t, err, "invalid config")
}

func TestRoot_MalformedConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("suffixes: [unclosed"), 0o600))
	_, err := runCmd(t, cfgPath)
	assert.ErrorContains(t, err, "加载配置文件失败")
}

// 本机读取只依赖 guest_file/suffixes/strip_mode,节点清单的问题留给 node/remote 报告
func TestRoot_IgnoresInventoryProblems(t *testing.T) {
	p := writeGuestFile(t, " 1 a.example.com running\n")
	tests := []struct {
		name  string
		nodes string
	}{
		{"encrypted identity without key", `
hosts:
  kvm01: {address: 10.0.0.1}
identities:
  kvm01: {user: zabbix, password: "ENC:deadbeef", auth_type: password}
nodes:
  kvm01: {host_ref: kvm01, identity_ref: kvm01}
`},
		{"dangling host ref", `
identities:
  kvm01: {user: zabbix, password: pw, auth_type: password}
nodes:
  kvm01: {host_ref: gone, identity_ref: kvm01}
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgPath := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(cfgPath, []byte(tt.nodes), 0o600))

			out, err := runCmd(t, cfgPath, "-f", p)
			require.NoError(t, err)
			assert.Equal(t, "a.example.com \n", out)

			_, err = runCmd(t, cfgPath, "node", "list")
			assert.Error(t, err)
		})
	}
}

func TestRoot_RejectsArgs(t *testing.T) {
	_, err := runCmd(t, "", "extra")
	assert.Error(t, err)
}

func TestRoot_Version(t *testing.T) {
	out, err := runCmd(t, "", "--version")
	require.NoError(t, err)
	assert.Equal(t, "vmguests version dev\n", out)

	out, err = runCmd(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:    dev")
	assert.Contains(t, out, "Git Commit: none")
}
