package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ==================== Session Token 定义 ====================

// SessionClaims Shopify 嵌入式应用 Session Token 声明
// dest 形如 https://{shop}.myshopify.com，是店铺身份的权威来源
type SessionClaims struct {
	Dest string `json:"dest"`
	jwt.RegisteredClaims
}

// ShopDomain 从 dest 提取店铺域名
func (c *SessionClaims) ShopDomain() string {
	return strings.TrimPrefix(c.Dest, "https://")
}

// ==================== Token 解析 ====================

// ParseSessionToken 解析并校验 Session Token
// Shopify 用应用的 API Secret 做 HS256 签名，aud 必须等于应用的 API Key
func ParseSessionToken(tokenString, apiKey, apiSecret string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(apiSecret), nil
	}, jwt.WithAudience(apiKey), jwt.WithLeeway(5*time.Second))

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		if claims.ShopDomain() == "" {
			return nil, errors.New("missing dest claim")
		}
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// GenerateSessionToken 生成 Session Token（测试与本地联调用）
func GenerateSessionToken(shopDomain, apiKey, apiSecret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		Dest: "https://" + shopDomain,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://" + shopDomain + "/admin",
			Audience:  jwt.ClaimStrings{apiKey},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(apiSecret))
}

// ==================== Gin 中间件 ====================

// SessionAuth 嵌入式后台认证中间件
// 校验 Authorization: Bearer {session token}，通过后把店铺域名写入 Context，
// 供后续 StoreResolver 解析店铺上下文。
func SessionAuth(apiKey, apiSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "未提供认证信息",
			})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "认证格式错误，应为 Bearer {token}",
			})
			c.Abort()
			return
		}

		claims, err := ParseSessionToken(parts[1], apiKey, apiSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "Token 无效或已过期",
			})
			c.Abort()
			return
		}

		c.Set(ContextKeyShopDomain, claims.ShopDomain())
		c.Next()
	}
}
