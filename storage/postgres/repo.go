package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// SummaryRepo 封装对 sumulas 表的所有操作
type SummaryRepo struct {
	db *gorm.DB
}

// NewSummaryRepo 构造函数
func NewSummaryRepo(db *gorm.DB) *SummaryRepo {
	return &SummaryRepo{db: db}
}

// Create 登记新入库的 súmula
func (r *SummaryRepo) Create(ctx context.Context, s *Summary) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// GetBySourceName 根据文件名查询，没有记录返回 (nil, nil)
func (r *SummaryRepo) GetBySourceName(ctx context.Context, sourceName string) (*Summary, error) {
	var s Summary
	err := r.db.WithContext(ctx).
		Where("source_name = ?", sourceName).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SummaryRepo) Delete(ctx context.Context, docID string) error {
	return r.db.WithContext(ctx).Where("doc_id = ?", docID).Delete(&Summary{}).Error
}

// List 列出已入库的 súmulas，status 为空表示不过滤
func (r *SummaryRepo) List(ctx context.Context, status string, limit, offset int) ([]Summary, error) {
	var results []Summary
	tx := r.db.WithContext(ctx).Model(&Summary{}).Order("status_year DESC, summary_number")
	if status != "" {
		tx = tx.Where("status = ?", status)
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if offset > 0 {
		tx = tx.Offset(offset)
	}
	err := tx.Find(&results).Error
	return results, err
}
