package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"testing"
)

const testSecret = "hush-this-is-secret"

// ==================== App Proxy 签名测试 ====================

func TestVerifySignature_RoundTrip(t *testing.T) {
	params := map[string][]string{
		"shop":                    {"x.example.com"},
		"logged_in_customer_id":   {""},
		"path_prefix":             {"/apps/pages"},
		"timestamp":               {"1700000000"},
	}
	params["signature"] = []string{SignParams(params, testSecret)}

	if !VerifySignature(params, testSecret) {
		t.Fatal("正确签名应校验通过")
	}
}

func TestVerifySignature_TamperedParam(t *testing.T) {
	params := map[string][]string{
		"shop":                  {"x.example.com"},
		"logged_in_customer_id": {""},
	}
	params["signature"] = []string{SignParams(params, testSecret)}

	// 篡改参数但不更新签名，必须失败
	params["logged_in_customer_id"] = []string{"123"}
	if VerifySignature(params, testSecret) {
		t.Fatal("参数被篡改后旧签名不应通过")
	}
}

func TestVerifySignature_ExcludedParamsIgnored(t *testing.T) {
	params := map[string][]string{
		"shop":      {"x.example.com"},
		"timestamp": {"1700000000"},
	}
	sig := SignParams(params, testSecret)
	params["signature"] = []string{sig}

	// 添加排除字段不影响签名结果（大小写不敏感）
	params["X-Request-Id"] = []string{"abc-123"}
	if !VerifySignature(params, testSecret) {
		t.Fatal("排除字段不应参与签名计算")
	}
}

func TestVerifySignature_OrderIndependent(t *testing.T) {
	// map 本身无序，这里验证数组值与多 key 情况下结果稳定
	params := map[string][]string{
		"b":    {"2"},
		"a":    {"1"},
		"ids":  {"3", "4", "5"},
		"shop": {"x.example.com"},
	}
	sig := SignParams(params, testSecret)

	reordered := map[string][]string{
		"shop":      {"x.example.com"},
		"ids":       {"3", "4", "5"},
		"a":         {"1"},
		"b":         {"2"},
		"signature": {sig},
	}
	if !VerifySignature(reordered, testSecret) {
		t.Fatal("相同参数集无论插入顺序如何都应通过")
	}
}

func TestVerifySignature_ArrayJoinedWithComma(t *testing.T) {
	withArray := map[string][]string{"ids": {"1", "2"}}
	joined := map[string][]string{"ids": {"1,2"}}

	if SignParams(withArray, testSecret) != SignParams(joined, testSecret) {
		t.Fatal("数组值应以逗号拼接后参与签名")
	}
}

func TestVerifySignature_MalformedSignature(t *testing.T) {
	params := map[string][]string{"shop": {"x.example.com"}}

	cases := []string{
		"",               // 空
		"zzzz",           // 非 hex
		"deadbeef",       // 长度不符
		"deadbeef==",     // 非法字符
	}
	for _, bad := range cases {
		params["signature"] = []string{bad}
		if VerifySignature(params, testSecret) {
			t.Fatalf("畸形签名 %q 不应通过", bad)
		}
	}
}

func TestVerifySignature_EmptySecret(t *testing.T) {
	params := map[string][]string{
		"shop": {"x.example.com"},
	}
	params["signature"] = []string{SignParams(params, "whatever")}
	if VerifySignature(params, "") {
		t.Fatal("未配置密钥时必须拒绝")
	}
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	params := map[string][]string{"shop": {"x.example.com"}}
	params["signature"] = []string{SignParams(params, testSecret)}
	if VerifySignature(params, "other-secret") {
		t.Fatal("密钥不匹配不应通过")
	}
}

// ==================== Webhook HMAC 测试 ====================

func TestVerifyWebhookHMAC(t *testing.T) {
	body := []byte(`{"shop_domain":"x.example.com"}`)

	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	header := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if !VerifyWebhookHMAC(body, testSecret, header) {
		t.Fatal("正确的 Webhook 签名应通过")
	}
	if VerifyWebhookHMAC([]byte(`{"shop_domain":"y.example.com"}`), testSecret, header) {
		t.Fatal("body 被篡改不应通过")
	}
	if VerifyWebhookHMAC(body, testSecret, "not-base64!!") {
		t.Fatal("非法 base64 不应通过")
	}
	if VerifyWebhookHMAC(body, testSecret, "") {
		t.Fatal("缺失签名头不应通过")
	}
}

// ==================== OAuth 回调 HMAC 测试 ====================

func TestVerifyCallbackHMAC(t *testing.T) {
	// 回调方案用 & 连接 key=value 对，hex 编码，与 App Proxy 的无分隔符方案不同
	base := "code=abc123&shop=x.example.com&state=nonce&timestamp=1700000000"
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(base))
	sig := hex.EncodeToString(mac.Sum(nil))

	params := map[string][]string{
		"code":      {"abc123"},
		"shop":      {"x.example.com"},
		"state":     {"nonce"},
		"timestamp": {"1700000000"},
		"hmac":      {sig},
	}
	if !VerifyCallbackHMAC(params, testSecret) {
		t.Fatal("正确的回调签名应通过")
	}

	params["code"] = []string{"evil"}
	if VerifyCallbackHMAC(params, testSecret) {
		t.Fatal("参数被篡改不应通过")
	}

	delete(params, "hmac")
	if VerifyCallbackHMAC(params, testSecret) {
		t.Fatal("缺失 hmac 不应通过")
	}
}
