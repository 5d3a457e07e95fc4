package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"sort"
	"strings"
)

// ==================== App Proxy 签名校验 ====================

// 签名排除字段集合（小写匹配）
// signature 本身与基础设施注入的请求追踪参数永远不参与签名计算
// 注意：统一按小写折叠匹配，这是与平台签名方案的兼容性契约
var excludedParams = map[string]struct{}{
	"signature":    {},
	"x-request-id": {},
}

// VerifySignature 校验 Shopify App Proxy 转发请求的 HMAC-SHA256 签名
// params: 请求的全部查询参数（含 signature 字段本身）
// secret: 应用共享密钥
//
// 算法（平台契约，不可更改）：
// 1. 剔除 signature 及排除集合中的字段
// 2. 按字节序排序剩余 key
// 3. 渲染 key=value，数组值用逗号拼接，空值渲染为 key=
// 4. 所有 key=value 对直接首尾相连（无分隔符）
// 5. HMAC-SHA256 后 hex 编码，与 signature 常量时间比较
//
// 纯函数，任何畸形输入均返回 false，从不 panic
func VerifySignature(params map[string][]string, secret string) bool {
	if secret == "" {
		return false
	}

	var provided string
	keys := make([]string, 0, len(params))
	for k, v := range params {
		lower := strings.ToLower(k)
		if lower == "signature" {
			if len(v) > 0 {
				provided = v[0]
			}
			continue
		}
		if _, skip := excludedParams[lower]; skip {
			continue
		}
		keys = append(keys, k)
	}
	if provided == "" {
		return false
	}

	// 字节序排序
	sort.Strings(keys)

	// 拼接待签名串：key=value 对之间无分隔符
	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(strings.Join(params[k], ","))
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(sb.String()))
	expected := mac.Sum(nil)

	// 先做 hex 解码 + 长度校验，解码失败或长度不等一律视为签名错误
	providedBytes, err := hex.DecodeString(provided)
	if err != nil || len(providedBytes) != len(expected) {
		return false
	}

	return subtle.ConstantTimeCompare(providedBytes, expected) == 1
}

// ==================== Webhook HMAC 校验 ====================

// VerifyWebhookHMAC 校验 Webhook 请求体的 HMAC-SHA256 签名
// Shopify Webhook 的签名是对原始 body 计算后 base64 编码，
// 放在 X-Shopify-Hmac-Sha256 请求头中
func VerifyWebhookHMAC(body []byte, secret, headerValue string) bool {
	if secret == "" || headerValue == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := mac.Sum(nil)

	providedBytes, err := base64.StdEncoding.DecodeString(headerValue)
	if err != nil || len(providedBytes) != len(expected) {
		return false
	}

	return subtle.ConstantTimeCompare(providedBytes, expected) == 1
}

// ==================== OAuth 回调 HMAC 校验 ====================

// VerifyCallbackHMAC 校验 OAuth 安装回调的 hmac 参数
// 与 App Proxy 不同：剔除 hmac 后按 key 排序，key=value 对用 & 连接，
// HMAC-SHA256 hex 编码
func VerifyCallbackHMAC(params map[string][]string, secret string) bool {
	if secret == "" {
		return false
	}

	var provided string
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if strings.ToLower(k) == "hmac" {
			if len(v) > 0 {
				provided = v[0]
			}
			continue
		}
		keys = append(keys, k)
	}
	if provided == "" {
		return false
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+strings.Join(params[k], ","))
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(pairs, "&")))
	expected := mac.Sum(nil)

	providedBytes, err := hex.DecodeString(provided)
	if err != nil || len(providedBytes) != len(expected) {
		return false
	}

	return subtle.ConstantTimeCompare(providedBytes, expected) == 1
}

// SignParams 按 App Proxy 规则对参数集签名（测试与调试用）
func SignParams(params map[string][]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		lower := strings.ToLower(k)
		if lower == "signature" {
			continue
		}
		if _, skip := excludedParams[lower]; skip {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(strings.Join(params[k], ","))
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(sb.String()))
	return hex.EncodeToString(mac.Sum(nil))
}
