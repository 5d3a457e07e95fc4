package database

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ==================== 分区表配置 ====================

// PartitionTable 按月分区的高写入量表
// analytics_events 流量大保 12 个月；audit_events 合规要求长期保留
type PartitionTable struct {
	TableName      string
	RetentionMonth int    // 保留月数（0=永久）
	CreateSQL      string // 主表建表 SQL（PARTITION BY RANGE）
}

// PartitionTables 本应用全部分区表
var PartitionTables = []PartitionTable{
	{
		TableName:      "analytics_events",
		RetentionMonth: 12,
		CreateSQL: `CREATE TABLE analytics_events (
			id BIGSERIAL,
			store_id BIGINT NOT NULL DEFAULT 0,
			page_id BIGINT NOT NULL DEFAULT 0,
			event_type VARCHAR(32) NOT NULL,
			visitor_id VARCHAR(64),
			session_id VARCHAR(64),
			referrer TEXT,
			user_agent TEXT,
			meta JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (id, created_at)
		) PARTITION BY RANGE (created_at)`,
	},
	{
		TableName:      "audit_events",
		RetentionMonth: 0,
		CreateSQL: `CREATE TABLE audit_events (
			id BIGSERIAL,
			kind VARCHAR(32) NOT NULL,
			store_id BIGINT,
			attempted_store_id BIGINT,
			endpoint VARCHAR(255),
			method VARCHAR(10),
			origin_ip VARCHAR(64),
			user_agent TEXT,
			detail JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (id, created_at)
		) PARTITION BY RANGE (created_at)`,
	},
}

// ==================== 分区管理器 ====================

// PartitionManager 分区管理器
type PartitionManager struct {
	db *gorm.DB
}

// NewPartitionManager 创建分区管理器
func NewPartitionManager(db *gorm.DB) *PartitionManager {
	return &PartitionManager{db: db}
}

// InitPartitionTables 初始化分区主表（不存在才建）
func (m *PartitionManager) InitPartitionTables(ctx context.Context) error {
	for _, table := range PartitionTables {
		exists, err := m.tableExists(ctx, table.TableName)
		if err != nil {
			return fmt.Errorf("检查表 %s 失败: %w", table.TableName, err)
		}
		if exists {
			continue
		}

		log.Printf("[Partition] 创建分区表 %s ...", table.TableName)
		if err := m.db.WithContext(ctx).Exec(table.CreateSQL).Error; err != nil {
			return fmt.Errorf("创建表 %s 失败: %w", table.TableName, err)
		}
	}
	return nil
}

// EnsureFuturePartitions 确保未来 N 个月的分区存在
func (m *PartitionManager) EnsureFuturePartitions(ctx context.Context, monthsAhead int) error {
	now := time.Now()
	for i := 0; i <= monthsAhead; i++ {
		targetMonth := now.AddDate(0, i, 0)
		for _, table := range PartitionTables {
			if err := m.createPartitionIfNotExists(ctx, table.TableName, targetMonth); err != nil {
				log.Printf("[Partition] 创建 %s 分区失败: %v", table.TableName, err)
			}
		}
	}
	return nil
}

// createPartitionIfNotExists 创建单月分区（如不存在）
func (m *PartitionManager) createPartitionIfNotExists(ctx context.Context, tableName string, month time.Time) error {
	startDate := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	endDate := startDate.AddDate(0, 1, 0)
	partitionName := fmt.Sprintf("%s_y%dm%02d", tableName, startDate.Year(), startDate.Month())

	exists, err := m.tableExists(ctx, partitionName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	sql := fmt.Sprintf(
		`CREATE TABLE %s PARTITION OF %s FOR VALUES FROM ('%s') TO ('%s')`,
		pq.QuoteIdentifier(partitionName), pq.QuoteIdentifier(tableName),
		startDate.Format("2006-01-02"),
		endDate.Format("2006-01-02"),
	)

	if err := m.db.WithContext(ctx).Exec(sql).Error; err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return nil
		}
		return fmt.Errorf("创建分区 %s 失败: %w", partitionName, err)
	}

	log.Printf("[Partition] 创建分区 %s", partitionName)
	return nil
}

// CleanupExpiredPartitions 按保留策略丢弃过期分区，返回丢弃数量
// 注意：审计表 RetentionMonth=0 永不清理，审计记录只增不删
func (m *PartitionManager) CleanupExpiredPartitions(ctx context.Context) (int, error) {
	dropped := 0
	for _, table := range PartitionTables {
		if table.RetentionMonth == 0 {
			continue
		}

		cutoff := time.Now().AddDate(0, -table.RetentionMonth, 0)
		partitions, err := m.listPartitions(ctx, table.TableName)
		if err != nil {
			return dropped, err
		}

		for _, name := range partitions {
			start, ok := parsePartitionMonth(table.TableName, name)
			if !ok || !start.AddDate(0, 1, 0).Before(cutoff) {
				continue
			}
			if err := m.db.WithContext(ctx).Exec("DROP TABLE IF EXISTS " + pq.QuoteIdentifier(name)).Error; err != nil {
				log.Printf("[Partition] 丢弃分区 %s 失败: %v", name, err)
				continue
			}
			log.Printf("[Partition] 丢弃过期分区 %s", name)
			dropped++
		}
	}
	return dropped, nil
}

// ==================== 内部工具 ====================

func (m *PartitionManager) tableExists(ctx context.Context, tableName string) (bool, error) {
	var count int64
	err := m.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM pg_tables
		WHERE schemaname = 'public' AND tablename = ?
	`, tableName).Scan(&count).Error
	return count > 0, err
}

func (m *PartitionManager) listPartitions(ctx context.Context, tableName string) ([]string, error) {
	var names []string
	err := m.db.WithContext(ctx).Raw(`
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public' AND tablename LIKE ?
	`, tableName+"_y%").Scan(&names).Error
	return names, err
}

// parsePartitionMonth 从分区名解析起始月份，形如 analytics_events_y2026m01
func parsePartitionMonth(tableName, partitionName string) (time.Time, bool) {
	suffix := strings.TrimPrefix(partitionName, tableName+"_")
	var year, month int
	if _, err := fmt.Sscanf(suffix, "y%dm%d", &year, &month); err != nil {
		return time.Time{}, false
	}
	if month < 1 || month > 12 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), true
}
