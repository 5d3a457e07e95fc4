package controller

import (
	"io"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"lp_builder_v1_202601/internal/middleware"
	"lp_builder_v1_202601/internal/service"
)

// 单个素材大小上限 5MB
const maxAssetSize = 5 << 20

// ==================== 控制器 ====================

// AssetController 页面素材控制器
type AssetController struct {
	assetService *service.AssetService
}

func NewAssetController(assetService *service.AssetService) *AssetController {
	return &AssetController{assetService: assetService}
}

// ==================== API 方法 ====================

// Upload 上传素材
// @Summary 上传页面素材（图片）
// @Tags Asset
// @Accept multipart/form-data
// @Param file formData file true "文件"
// @Success 201 {object} map[string]interface{}
// @Router /api/assets [post]
func (ctrl *AssetController) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "缺少上传文件")
		return
	}
	if fileHeader.Size > maxAssetSize {
		badRequest(c, "文件超过大小限制")
		return
	}

	switch filepath.Ext(fileHeader.Filename) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg":
	default:
		badRequest(c, "不支持的文件类型")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		fail(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxAssetSize))
	if err != nil {
		fail(c, err)
		return
	}

	url, err := ctrl.assetService.Upload(c.Request.Context(), middleware.BuildMeta(c), middleware.GetStoreContext(c), data, fileHeader.Filename)
	if err != nil {
		fail(c, err)
		return
	}

	created(c, gin.H{"url": url})
}
