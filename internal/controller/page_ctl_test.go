package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lp_builder_v1_202601/internal/middleware"
	"lp_builder_v1_202601/internal/model"
	"lp_builder_v1_202601/internal/repository"
	"lp_builder_v1_202601/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ==================== 测试装配 ====================

func setupPageRouter(t *testing.T, storeID int64) *gin.Engine {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&model.Page{}, &model.AuditEvent{}); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}

	audit := service.NewAuditService(repository.NewAuditRepository(db), zap.NewNop())
	t.Cleanup(audit.Close)

	pageSvc := service.NewPageService(
		repository.NewPageRepository(db),
		service.NewGuard(audit),
		service.NewBlockRenderer(),
	)
	ctl := NewPageController(pageSvc)

	r := gin.New()
	// 模拟已完成的认证与解析：直接注入店铺上下文（0 表示无上下文）
	r.Use(func(c *gin.Context) {
		if storeID > 0 {
			c.Set(middleware.ContextKeyStore, &model.StoreContext{StoreID: storeID, ShopDomain: "demo.myshopify.com"})
		}
	})
	r.POST("/api/pages", ctl.CreatePage)
	r.GET("/api/pages", ctl.ListPages)
	r.GET("/api/pages/:id", ctl.GetPage)
	r.DELETE("/api/pages/:id", ctl.DeletePage)
	return r
}

func performRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ==================== 接口测试 ====================

func TestPageAPI_CreateAndGet(t *testing.T) {
	router := setupPageRouter(t, 1)

	w := performRequest(router, http.MethodPost, "/api/pages", map[string]interface{}{
		"title": "夏季促销",
		"slug":  "summer-sale",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Code int `json:"code"`
		Data struct {
			ID       int64  `json:"id"`
			Slug     string `json:"Slug"`
			PublicID string `json:"PublicID"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Code)
	assert.Equal(t, "summer-sale", resp.Data.Slug)
	assert.NotEmpty(t, resp.Data.PublicID)

	w = performRequest(router, http.MethodGet, "/api/pages/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPageAPI_InvalidParams(t *testing.T) {
	router := setupPageRouter(t, 1)

	tests := []struct {
		name       string
		method     string
		path       string
		body       interface{}
		wantStatus int
	}{
		{"空请求体", http.MethodPost, "/api/pages", nil, http.StatusBadRequest},
		{"缺少 slug", http.MethodPost, "/api/pages", map[string]interface{}{"title": "x"}, http.StatusBadRequest},
		{"非法ID", http.MethodGet, "/api/pages/abc", nil, http.StatusBadRequest},
		{"不存在的页面", http.MethodGet, "/api/pages/999", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestPageAPI_NoContextUnauthorized(t *testing.T) {
	// storeID=0 模拟解析失败的请求
	router := setupPageRouter(t, 0)

	w := performRequest(router, http.MethodPost, "/api/pages", map[string]interface{}{
		"title": "夏季促销",
		"slug":  "summer-sale",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = performRequest(router, http.MethodGet, "/api/pages", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
