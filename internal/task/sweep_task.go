package task

import (
	"log"

	"github.com/robfig/cron/v3"

	"lp_builder_v1_202601/pkg/ratelimit"
	"lp_builder_v1_202601/pkg/utils"
)

// ==================== 内存清扫任务 ====================

// SweepTask 进程内缓存清扫任务
// 限流计数窗口和 OAuth state 缓存都是惰性过期，
// 不定期清扫的话低频 key 会一直占着内存
type SweepTask struct {
	counter *ratelimit.MemoryCounter
	cron    *cron.Cron
}

func NewSweepTask(counter *ratelimit.MemoryCounter) *SweepTask {
	return &SweepTask{
		counter: counter,
		cron:    cron.New(),
	}
}

// Start 启动定时任务
func (t *SweepTask) Start() {
	// 每 10 分钟清扫一次
	_, err := t.cron.AddFunc("*/10 * * * *", func() {
		swept := utils.SweepCache()
		if t.counter != nil {
			swept += t.counter.Sweep()
		}
		if swept > 0 {
			log.Printf("[Cron] 已清扫 %d 个过期条目", swept)
		}
	})
	if err != nil {
		log.Fatalf("无法启动清扫任务: %v", err)
	}

	t.cron.Start()
	log.Println("内存清扫任务已启动 (每10分钟执行)")
}

// Stop 停止定时任务
func (t *SweepTask) Stop() {
	t.cron.Stop()
}
