package crypto

import (
	"errors"
	"strings"
	"testing"
)

const testAppSecret = "unit-test-app-secret"

func newTestCipher() *FieldCipher {
	return NewFieldCipher(testAppSecret)
}

// ==================== 单字段加解密 ====================

func TestCipher_RoundTrip(t *testing.T) {
	c := newTestCipher()

	cases := []string{
		"13800138000",
		"someone@example.com",
		"张三",
		"a",
		strings.Repeat("long-value-", 100),
	}
	for _, plain := range cases {
		enc, err := c.Encrypt(plain, "1001")
		if err != nil {
			t.Fatalf("加密失败: %v", err)
		}
		if enc == plain {
			t.Fatalf("密文不应等于明文: %s", plain)
		}
		if strings.Count(enc, ":") != 2 {
			t.Fatalf("密文格式应为 iv:tag:cipher，实际: %s", enc)
		}

		dec, err := c.Decrypt(enc, "1001")
		if err != nil {
			t.Fatalf("解密失败: %v", err)
		}
		if dec != plain {
			t.Fatalf("往返结果 = %q, want %q", dec, plain)
		}
	}
}

func TestCipher_TenantIsolation(t *testing.T) {
	c := newTestCipher()

	enc, err := c.Encrypt("secret-pii", "1001")
	if err != nil {
		t.Fatalf("加密失败: %v", err)
	}

	// 换一个店铺 ID 解密，必须失败关闭
	dec, err := c.Decrypt(enc, "2002")
	if !errors.Is(err, ErrDecryptFailed) {
		t.Fatalf("跨店铺解密应返回 ErrDecryptFailed, got err=%v", err)
	}
	if dec != "" {
		t.Fatalf("跨店铺解密不应返回任何内容, got %q", dec)
	}
}

func TestCipher_EmptyPassthrough(t *testing.T) {
	c := newTestCipher()

	enc, err := c.Encrypt("", "1001")
	if err != nil || enc != "" {
		t.Fatalf("空串加密应原样返回, got %q, err=%v", enc, err)
	}

	dec, err := c.Decrypt("", "1001")
	if err != nil || dec != "" {
		t.Fatalf("空串解密应原样返回, got %q, err=%v", dec, err)
	}
}

func TestCipher_LegacyPlaintextPassthrough(t *testing.T) {
	c := newTestCipher()

	// 不符合三段格式的值视为加密功能上线前的存量明文
	for _, legacy := range []string{
		"plain-unencrypted-string",
		"has:one-colon",
		"a:b:c:d",
		"zz:zz:zz", // 三段但非 hex
		"deadbeef::deadbeef",
	} {
		dec, err := c.Decrypt(legacy, "1001")
		if err != nil {
			t.Fatalf("存量明文 %q 解密不应报错: %v", legacy, err)
		}
		if dec != legacy {
			t.Fatalf("存量明文应原样返回, got %q, want %q", dec, legacy)
		}
	}
}

func TestCipher_CorruptedCiphertext(t *testing.T) {
	c := newTestCipher()

	enc, _ := c.Encrypt("secret-pii", "1001")
	parts := strings.Split(enc, ":")

	// 翻转密文段第一个字节
	corrupted := parts[2]
	if corrupted[0] == 'a' {
		corrupted = "b" + corrupted[1:]
	} else {
		corrupted = "a" + corrupted[1:]
	}
	tampered := parts[0] + ":" + parts[1] + ":" + corrupted

	if _, err := c.Decrypt(tampered, "1001"); !errors.Is(err, ErrDecryptFailed) {
		t.Fatalf("被篡改的密文应解密失败, got err=%v", err)
	}
}

func TestCipher_FreshNoncePerCall(t *testing.T) {
	c := newTestCipher()

	enc1, _ := c.Encrypt("same-value", "1001")
	enc2, _ := c.Encrypt("same-value", "1001")
	if enc1 == enc2 {
		t.Fatal("同一明文两次加密应产生不同密文（nonce 不可复用）")
	}
}

// ==================== 批量助手 ====================

func TestCipher_EncryptDecryptFields(t *testing.T) {
	c := newTestCipher()

	payload := map[string]interface{}{
		"email":      "someone@example.com",
		"phone":      "13800138000",
		"first_name": "三",
		"message":    "not sensitive",
		"utm_source": "google",
	}

	c.EncryptFields(payload, "1001")

	// 白名单外字段不被触碰
	if payload["message"] != "not sensitive" || payload["utm_source"] != "google" {
		t.Fatal("非敏感字段不应被加密")
	}
	// 白名单内字段已变成三段式密文
	for _, field := range []string{"email", "phone", "first_name"} {
		enc, _ := payload[field].(string)
		if strings.Count(enc, ":") != 2 {
			t.Fatalf("字段 %s 应被加密, got %v", field, payload[field])
		}
	}

	c.DecryptFields(payload, "1001")
	if payload["email"] != "someone@example.com" || payload["phone"] != "13800138000" {
		t.Fatal("批量解密应还原明文")
	}
}

func TestCipher_DecryptFieldsWrongTenant(t *testing.T) {
	c := newTestCipher()

	payload := map[string]interface{}{"email": "someone@example.com"}
	c.EncryptFields(payload, "1001")

	c.DecryptFields(payload, "2002")
	if payload["email"] != nil {
		t.Fatalf("跨店铺批量解密应把字段置空, got %v", payload["email"])
	}
}
