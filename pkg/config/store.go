package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"

	"github.com/wentf9/vmguests/pkg/crypto"
	"github.com/wentf9/vmguests/pkg/models"
	"github.com/wentf9/vmguests/pkg/utils/file"
	"gopkg.in/yaml.v3"
)

type Store interface {
	LoadSettings() (*Configuration, error)
	Load() (*Configuration, error)
	Save(cfg *Configuration) error
}

type defaultStore struct {
	Path    string
	KeyPath string // 用于加解密配置文件中的敏感字段
}

func NewDefaultStore(path, keyPath string) Store {
	return &defaultStore{
		Path:    path,
		KeyPath: keyPath,
	}
}

// LoadSettings 只读取并校验 guest_file/suffixes/strip_mode
// 节点清单原样保留 (ENC: 字段不解密),清单里的问题不影响本机读取
func (s *defaultStore) LoadSettings() (*Configuration, error) {
	cfg, err := s.read()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateSettings(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", s.Path, err)
	}
	return cfg, nil
}

// Load 读取完整配置: 校验节点清单并解密其中的密码
func (s *defaultStore) Load() (*Configuration, error) {
	cfg, err := s.read()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", s.Path, err)
	}

	if !hasEncrypted(cfg.Identities) {
		return cfg, nil
	}
	key, err := crypto.LoadKey(s.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("config has %s fields but key is unavailable: %w", crypto.Prefix, err)
	}
	c, err := crypto.NewCrypter(key)
	if err != nil {
		return nil, err
	}
	for name, id := range cfg.Identities {
		if id.Password, err = c.OpenField(id.Password); err != nil {
			return nil, fmt.Errorf("identity %s: %w", name, err)
		}
		if id.Passphrase, err = c.OpenField(id.Passphrase); err != nil {
			return nil, fmt.Errorf("identity %s: %w", name, err)
		}
		cfg.Identities[name] = id
	}
	return cfg, nil
}

// Save 写入前加密 Identities 中的密码,内存中的 cfg 保持明文
func (s *defaultStore) Save(cfg *Configuration) error {
	out := *cfg
	out.Identities = maps.Clone(cfg.Identities)

	if hasSecrets(out.Identities) {
		key, err := crypto.LoadOrGenerateKey(s.KeyPath)
		if err != nil {
			return err
		}
		c, err := crypto.NewCrypter(key)
		if err != nil {
			return err
		}
		for name, id := range out.Identities {
			if id.Password, err = c.SealField(id.Password); err != nil {
				return fmt.Errorf("identity %s: %w", name, err)
			}
			if id.Passphrase, err = c.SealField(id.Passphrase); err != nil {
				return fmt.Errorf("identity %s: %w", name, err)
			}
			out.Identities[name] = id
		}
	}

	data, err := yaml.Marshal(&out)
	if err != nil {
		return err
	}
	return file.CreateFileRecursive(s.Path, data, 0o600)
}

// read 配置文件不存在时返回空配置,保持零配置时的默认行为
func (s *defaultStore) read() (*Configuration, error) {
	cfg := &Configuration{}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg.normalize()
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.Path, err)
	}
	cfg.normalize()
	return cfg, nil
}

func (cfg *Configuration) normalize() {
	if cfg.Identities == nil {
		cfg.Identities = make(map[string]models.Identity)
	}
	if cfg.Hosts == nil {
		cfg.Hosts = make(map[string]models.Host)
	}
	if cfg.Nodes == nil {
		cfg.Nodes = make(map[string]models.Node)
	}
}

func hasEncrypted(ids map[string]models.Identity) bool {
	for _, id := range ids {
		if crypto.IsEncrypted(id.Password) || crypto.IsEncrypted(id.Passphrase) {
			return true
		}
	}
	return false
}

func hasSecrets(ids map[string]models.Identity) bool {
	for _, id := range ids {
		if id.Password != "" || id.Passphrase != "" {
			return true
		}
	}
	return false
}
