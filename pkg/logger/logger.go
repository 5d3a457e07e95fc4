package logger

import (
	"log"

	"go.uber.org/zap"
)

// ==================== 全局日志 ====================

var global *zap.Logger = zap.NewNop()

// Init 初始化全局 zap 日志
// 生产环境 JSON 输出，开发环境彩色控制台
func Init(env string) *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)

	if env == "production" {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("日志初始化失败: %v", err)
	}

	global = l
	return l
}

// L 获取全局日志实例
func L() *zap.Logger {
	return global
}

// Sync 刷新缓冲日志（进程退出前调用）
func Sync() {
	_ = global.Sync()
}
