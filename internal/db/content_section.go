package db

import (
	"time"

	"gorm.io/datatypes"
)

// ContentSection 存储页面区块的覆盖值，section 全局唯一。
type ContentSection struct {
	ID        uint           `gorm:"primaryKey" json:"-"`
	Section   string         `gorm:"size:100;uniqueIndex;not null" json:"section"`
	Content   datatypes.JSON `gorm:"not null" json:"content"`
	UpdatedAt time.Time      `json:"updated_at"`
	UpdatedBy *string        `gorm:"size:255" json:"updated_by"`
}

// TableName 自定义表名以保持命名一致。
func (ContentSection) TableName() string {
	return "content_sections"
}
