package shopify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ==================== Shopify Admin API 客户端 ====================

const apiVersion = "2024-01"

// Client Shopify Admin API 客户端
// 每个请求按店铺域名 + access token 构造，客户端本身无店铺状态
type Client struct {
	http      *resty.Client
	apiKey    string
	apiSecret string
}

// NewClient 创建 Admin API 客户端
func NewClient(apiKey, apiSecret string) *Client {
	client := resty.New()
	// 设置超时和重试，防止网络波动
	client.SetTimeout(10 * time.Second)
	client.SetRetryCount(3)

	return &Client{
		http:      client,
		apiKey:    apiKey,
		apiSecret: apiSecret,
	}
}

// ==================== OAuth Token 交换 ====================

// AccessTokenResp Token 交换响应
type AccessTokenResp struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
}

// ExchangeToken 用授权码换取永久 access token
func (c *Client) ExchangeToken(ctx context.Context, shopDomain, code string) (*AccessTokenResp, error) {
	var result AccessTokenResp

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"client_id":     c.apiKey,
			"client_secret": c.apiSecret,
			"code":          code,
		}).
		SetResult(&result).
		Post(fmt.Sprintf("https://%s/admin/oauth/access_token", shopDomain))
	if err != nil {
		return nil, fmt.Errorf("token 交换请求失败: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("token 交换被拒绝: %d %s", resp.StatusCode(), resp.String())
	}

	return &result, nil
}

// ==================== Shop 信息 ====================

// ShopInfo 店铺基本信息（install 时落库）
type ShopInfo struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Domain string `json:"myshopify_domain"`
	Email  string `json:"email"`
}

type shopInfoResp struct {
	Shop ShopInfo `json:"shop"`
}

// GetShopInfo 拉取店铺基本信息
func (c *Client) GetShopInfo(ctx context.Context, shopDomain, accessToken string) (*ShopInfo, error) {
	var result shopInfoResp

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Shopify-Access-Token", accessToken).
		SetResult(&result).
		Get(fmt.Sprintf("https://%s/admin/api/%s/shop.json", shopDomain, apiVersion))
	if err != nil {
		return nil, fmt.Errorf("店铺信息请求失败: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("shopify api error: %d", resp.StatusCode())
	}

	return &result.Shop, nil
}

// ==================== Webhook 注册 ====================

// RegisterWebhook 注册 Webhook 订阅（卸载、GDPR 等回调依赖此订阅）
func (c *Client) RegisterWebhook(ctx context.Context, shopDomain, accessToken, topic, address string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Shopify-Access-Token", accessToken).
		SetBody(map[string]interface{}{
			"webhook": map[string]string{
				"topic":   topic,
				"address": address,
				"format":  "json",
			},
		}).
		Post(fmt.Sprintf("https://%s/admin/api/%s/webhooks.json", shopDomain, apiVersion))
	if err != nil {
		return fmt.Errorf("webhook 注册请求失败: %w", err)
	}
	// 422 表示已存在同 topic 订阅，视为成功
	if resp.StatusCode() != 201 && resp.StatusCode() != 422 {
		return fmt.Errorf("webhook 注册被拒绝: %d %s", resp.StatusCode(), resp.String())
	}

	return nil
}
