package service

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"lp_builder_v1_202601/internal/model"
)

// ==================== 接口定义 ====================

// AssetProvider 素材存储提供者接口
type AssetProvider interface {
	// Upload 上传文件，返回公开访问 URL
	Upload(ctx context.Context, data []byte, filename string, contentType string) (url string, err error)

	// Delete 删除文件
	Delete(ctx context.Context, url string) error
}

// ==================== 配置 ====================

// AssetConfig 素材存储配置
type AssetConfig struct {
	Provider  string // "s3" | "local"
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	CDNDomain string // CDN 域名 (可选)
	BasePath  string // 基础路径前缀
}

// ==================== AssetService ====================

// AssetService 页面素材服务（编辑器上传的图片等）
// 素材按店铺路径隔离，上传路径要求已解析的店铺上下文
type AssetService struct {
	provider AssetProvider
	guard    *Guard
}

// NewAssetService 创建素材服务
func NewAssetService(cfg *AssetConfig, guard *Guard) (*AssetService, error) {
	var (
		provider AssetProvider
		err      error
	)
	switch cfg.Provider {
	case "s3":
		provider, err = NewS3Assets(cfg)
	case "local":
		provider, err = NewLocalAssets(cfg)
	default:
		return nil, fmt.Errorf("不支持的存储提供者: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return &AssetService{provider: provider, guard: guard}, nil
}

// Upload 上传素材，key 前缀带店铺 ID 做物理隔离
func (s *AssetService) Upload(ctx context.Context, meta RequestMeta, storeCtx *model.StoreContext, data []byte, filename string) (string, error) {
	if err := s.guard.RequireStore(meta, storeCtx); err != nil {
		return "", err
	}

	scoped := fmt.Sprintf("store_%d/%s", storeCtx.StoreID, filename)
	return s.provider.Upload(ctx, data, scoped, http.DetectContentType(data))
}

// ==================== S3 实现 ====================

// S3Assets S3 素材存储
type S3Assets struct {
	client    *s3.Client
	bucket    string
	region    string
	cdnDomain string
	basePath  string
}

// NewS3Assets 创建 S3 素材存储
func NewS3Assets(cfg *AssetConfig) (*S3Assets, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("加载AWS配置失败: %v", err)
	}

	return &S3Assets{
		client:    s3.NewFromConfig(awsCfg),
		bucket:    cfg.Bucket,
		region:    cfg.Region,
		cdnDomain: cfg.CDNDomain,
		basePath:  cfg.BasePath,
	}, nil
}

func (s *S3Assets) Upload(ctx context.Context, data []byte, filename string, contentType string) (string, error) {
	key := s.generateKey(filename)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("上传S3失败: %v", err)
	}

	return s.getPublicURL(key), nil
}

func (s *S3Assets) Delete(ctx context.Context, url string) error {
	key := s.extractKey(url)
	if key == "" {
		return fmt.Errorf("无法解析文件路径")
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

// generateKey 生成存储 key：basePath/日期/店铺路径/uuid.ext
func (s *S3Assets) generateKey(filename string) string {
	dir := filepath.Dir(filename)
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".jpg"
	}

	datePath := time.Now().Format("2006/01/02")
	newName := fmt.Sprintf("%s%s", uuid.New().String(), ext)

	parts := []string{}
	if s.basePath != "" {
		parts = append(parts, s.basePath)
	}
	parts = append(parts, datePath)
	if dir != "." && dir != "/" {
		parts = append(parts, dir)
	}
	parts = append(parts, newName)
	return strings.Join(parts, "/")
}

func (s *S3Assets) getPublicURL(key string) string {
	if s.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", s.cdnDomain, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

func (s *S3Assets) extractKey(url string) string {
	if s.cdnDomain != "" && strings.Contains(url, s.cdnDomain) {
		return strings.TrimPrefix(url, fmt.Sprintf("https://%s/", s.cdnDomain))
	}
	prefix := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", s.bucket, s.region)
	return strings.TrimPrefix(url, prefix)
}

// ==================== 本地实现（开发环境） ====================

// LocalAssets 本地磁盘素材存储
type LocalAssets struct {
	baseDir string
}

// NewLocalAssets 创建本地素材存储
func NewLocalAssets(cfg *AssetConfig) (*LocalAssets, error) {
	baseDir := cfg.BasePath
	if baseDir == "" {
		baseDir = "uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("创建上传目录失败: %v", err)
	}
	return &LocalAssets{baseDir: baseDir}, nil
}

func (l *LocalAssets) Upload(_ context.Context, data []byte, filename string, _ string) (string, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".jpg"
	}
	name := uuid.New().String() + ext

	path := filepath.Join(l.baseDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("写入文件失败: %v", err)
	}
	return "/" + path, nil
}

func (l *LocalAssets) Delete(_ context.Context, url string) error {
	path := strings.TrimPrefix(url, "/")
	if !strings.HasPrefix(path, l.baseDir) {
		return fmt.Errorf("无法解析文件路径")
	}
	return os.Remove(path)
}
