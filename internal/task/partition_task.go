package task

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"lp_builder_v1_202601/pkg/database"
)

// ==================== 分区维护任务 ====================

// PartitionTask 分区表维护任务
// 事件与审计表按月分区，需要提前建好未来分区并清理过期分区
type PartitionTask struct {
	manager     *database.PartitionManager
	cron        *cron.Cron
	monthsAhead int
}

func NewPartitionTask(manager *database.PartitionManager) *PartitionTask {
	return &PartitionTask{
		manager:     manager,
		cron:        cron.New(),
		monthsAhead: 2, // 预留当月 + 未来两个月
	}
}

// Start 启动定时任务
func (t *PartitionTask) Start() {
	// 首次执行，保证启动时当月分区一定存在
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		t.maintain(ctx)
	}()

	// 每天凌晨 3 点维护一次
	_, err := t.cron.AddFunc("0 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		t.maintain(ctx)
	})
	if err != nil {
		log.Fatalf("无法启动分区维护任务: %v", err)
	}

	t.cron.Start()
	log.Println("分区维护任务已启动 (每天 03:00 执行)")
}

// Stop 停止定时任务
func (t *PartitionTask) Stop() {
	t.cron.Stop()
}

func (t *PartitionTask) maintain(ctx context.Context) {
	if err := t.manager.EnsureFuturePartitions(ctx, t.monthsAhead); err != nil {
		log.Printf("[Cron] 创建未来分区失败: %v", err)
	}

	dropped, err := t.manager.CleanupExpiredPartitions(ctx)
	if err != nil {
		log.Printf("[Cron] 清理过期分区失败: %v", err)
		return
	}
	if dropped > 0 {
		log.Printf("[Cron] 已清理 %d 个过期分区", dropped)
	}
}
