package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/scrypt"
)

// ==================== 常量与错误 ====================

// scrypt 参数：内存困难型 KDF，故意偏慢以抵御离线爆破
const (
	scryptN      = 32768
	scryptR      = 8
	scryptP      = 1
	derivedKeyLn = 32 // AES-256
)

// 应用级固定盐。密钥 = scrypt(appSecret + storeID, salt)
// 三个要素缺一不可：数据库、应用密钥、店铺 ID
const keySalt = "lp-builder-pii-salt-v1"

// ErrDecryptFailed 解密失败（店铺不匹配 / 数据损坏 / 被篡改）
// 调用方必须把该值当作"数据不可用"，绝不能回退成默认值
var ErrDecryptFailed = errors.New("字段解密失败")

// 敏感字段白名单：只有这些字段会被批量加解密，
// 其余字段保持明文以便检索和建索引
var sensitiveFields = map[string]struct{}{
	"phone":      {},
	"email":      {},
	"first_name": {},
	"last_name":  {},
	"name":       {},
}

// ==================== FieldCipher ====================

// FieldCipher 按店铺派生密钥的字段级加密器
// 密文格式: ivHex:authTagHex:cipherHex（AES-256-GCM）
type FieldCipher struct {
	appSecret string

	// KDF 开销大，按店铺缓存派生密钥
	keys sync.Map // storeID(string) -> []byte
}

// NewFieldCipher 创建字段加密器
func NewFieldCipher(appSecret string) *FieldCipher {
	return &FieldCipher{appSecret: appSecret}
}

// deriveKey 派生（或取缓存的）店铺密钥
func (f *FieldCipher) deriveKey(storeID string) ([]byte, error) {
	if cached, ok := f.keys.Load(storeID); ok {
		return cached.([]byte), nil
	}

	key, err := scrypt.Key([]byte(f.appSecret+storeID), []byte(keySalt), scryptN, scryptR, scryptP, derivedKeyLn)
	if err != nil {
		return nil, fmt.Errorf("密钥派生失败: %w", err)
	}

	f.keys.Store(storeID, key)
	return key, nil
}

// ==================== 加密 ====================

// Encrypt 加密单个字段
// 空字符串原样返回（无数据不算敏感数据）
func (f *FieldCipher) Encrypt(plaintext, storeID string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	if f.appSecret == "" {
		return "", errors.New("应用加密密钥未配置")
	}

	key, err := f.deriveKey(storeID)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	// 每次加密生成新 nonce，绝不复用
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	// GCM 的输出是 密文||tag，按存储格式拆开
	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	tagAt := len(sealed) - gcm.Overhead()
	ciphertext, tag := sealed[:tagAt], sealed[tagAt:]

	return fmt.Sprintf("%s:%s:%s",
		hex.EncodeToString(nonce),
		hex.EncodeToString(tag),
		hex.EncodeToString(ciphertext)), nil
}

// ==================== 解密 ====================

// Decrypt 解密单个字段
// 不符合 iv:tag:cipher 三段格式的输入视为历史明文数据，原样返回；
// 格式匹配但认证失败（店铺不对 / 数据损坏）返回 ErrDecryptFailed，
// 绝不返回半解密的垃圾内容
func (f *FieldCipher) Decrypt(stored, storeID string) (string, error) {
	if stored == "" {
		return "", nil
	}

	nonce, tag, ciphertext, ok := splitEncrypted(stored)
	if !ok {
		// 兼容未加密的存量数据
		return stored, nil
	}

	key, err := f.deriveKey(storeID)
	if err != nil {
		return "", ErrDecryptFailed
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", ErrDecryptFailed
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", ErrDecryptFailed
	}
	if len(nonce) != gcm.NonceSize() || len(tag) != gcm.Overhead() {
		return "", ErrDecryptFailed
	}

	plain, err := gcm.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return "", ErrDecryptFailed
	}

	return string(plain), nil
}

// splitEncrypted 解析三段式密文，任何一段非合法 hex 或为空都视为不匹配
func splitEncrypted(stored string) (nonce, tag, ciphertext []byte, ok bool) {
	parts := strings.Split(stored, ":")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return nil, nil, nil, false
	}

	var err error
	if nonce, err = hex.DecodeString(parts[0]); err != nil {
		return nil, nil, nil, false
	}
	if tag, err = hex.DecodeString(parts[1]); err != nil {
		return nil, nil, nil, false
	}
	if ciphertext, err = hex.DecodeString(parts[2]); err != nil {
		return nil, nil, nil, false
	}
	return nonce, tag, ciphertext, true
}

// ==================== 批量助手 ====================

// EncryptFields 加密 payload 中白名单内的字符串字段（就地修改）
// 加密出错时该字段置 nil：宁可丢数据，不能漏数据
func (f *FieldCipher) EncryptFields(payload map[string]interface{}, storeID string) {
	for field := range sensitiveFields {
		raw, exists := payload[field]
		if !exists {
			continue
		}
		str, isStr := raw.(string)
		if !isStr || str == "" {
			continue
		}

		enc, err := f.Encrypt(str, storeID)
		if err != nil {
			payload[field] = nil
			continue
		}
		payload[field] = enc
	}
}

// DecryptFields 解密 payload 中白名单内的字段（就地修改）
// 解密失败的字段置 nil，调用方按"不可用"处理
func (f *FieldCipher) DecryptFields(payload map[string]interface{}, storeID string) {
	for field := range sensitiveFields {
		raw, exists := payload[field]
		if !exists {
			continue
		}
		str, isStr := raw.(string)
		if !isStr || str == "" {
			continue
		}

		plain, err := f.Decrypt(str, storeID)
		if err != nil {
			payload[field] = nil
			continue
		}
		payload[field] = plain
	}
}

// IsSensitiveField 判断字段是否在敏感白名单内
func IsSensitiveField(name string) bool {
	_, ok := sensitiveFields[name]
	return ok
}
