package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Record 是所有集合实体共享的主键与时间戳。
// 不包含 DeletedAt：集合删除为硬删除。
type Record struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate 分配按时间有序的 id，display_order 相同的行保持插入顺序。
func (r *Record) BeforeCreate(tx *gorm.DB) error {
	if r.ID != "" {
		return nil
	}
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	r.ID = id.String()
	return nil
}

// Base 返回集合行内嵌的 Record。
func (r *Record) Base() *Record {
	return r
}
