package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Prefix 标识配置文件中已加密的字段
const Prefix = "ENC:"

var ErrNotEncrypted = errors.New("value is not " + Prefix + " encoded")

// Crypter 用 AES-256-GCM 加解密配置文件中的密码字段
type Crypter struct {
	gcm cipher.AEAD
}

// NewCrypter key 必须是 32 字节
func NewCrypter(key []byte) (*Crypter, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid key size: expected %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Crypter{gcm: gcm}, nil
}

// Encrypt 输出格式: ENC:<Base64(Nonce + Ciphertext)>
func (c *Crypter) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := c.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return Prefix + base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *Crypter) Decrypt(encoded string) (string, error) {
	if !IsEncrypted(encoded) {
		return "", ErrNotEncrypted
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(encoded, Prefix))
	if err != nil {
		return "", fmt.Errorf("decode %s field: %w", Prefix, err)
	}
	n := c.gcm.NonceSize()
	if len(data) < n {
		return "", errors.New("ciphertext too short")
	}
	plain, err := c.gcm.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}
	return string(plain), nil
}

// SealField 加密一个字段,空值和已加密的值原样返回
func (c *Crypter) SealField(v string) (string, error) {
	if v == "" || IsEncrypted(v) {
		return v, nil
	}
	return c.Encrypt(v)
}

// OpenField 解密一个字段,明文原样返回 (允许用户手写明文密码)
func (c *Crypter) OpenField(v string) (string, error) {
	if !IsEncrypted(v) {
		return v, nil
	}
	return c.Decrypt(v)
}

func IsEncrypted(s string) bool {
	return strings.HasPrefix(s, Prefix)
}
