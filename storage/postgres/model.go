package postgres

import (
	"time"
)

// Summary 对应数据库里的 sumulas 表，一份 PDF 一行
type Summary struct {
	// DocID 不使用 gorm.Model 的自增 ID，而是手动指定的 UUID
	DocID         string `gorm:"column:doc_id;primaryKey;type:uuid" json:"doc_id"`
	SourceName    string `gorm:"column:source_name;type:varchar(255);not null;uniqueIndex" json:"source_name"`
	SummaryNumber string `gorm:"column:summary_number;type:varchar(32);index" json:"summary_number"`
	Status        string `gorm:"column:status;type:varchar(64);index" json:"status"`
	StatusDate    string `gorm:"column:status_date;type:varchar(16)" json:"status_date"` // DD/MM/AA
	StatusYear    int    `gorm:"column:status_year;index" json:"status_year"`
	ChunkCount    int    `gorm:"column:chunk_count" json:"chunk_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 强制指定表名
func (Summary) TableName() string {
	return "sumulas"
}
