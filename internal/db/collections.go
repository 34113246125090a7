package db

import "gorm.io/datatypes"

// Testimonial 客户评价，展示在营销页面上。
type Testimonial struct {
	Record
	Quote        string  `gorm:"type:text;not null" json:"quote"`
	Author       string  `gorm:"size:255;not null" json:"author"`
	Role         string  `gorm:"size:255" json:"role"`
	Company      string  `gorm:"size:255" json:"company"`
	ImageURL     string  `gorm:"size:1024" json:"image_url"`
	Rating       int     `json:"rating"`
	Page         *string `gorm:"size:50;index" json:"page"`
	DisplayOrder int     `gorm:"not null;default:0;index" json:"display_order"`
}

// FAQItem 常见问题，Answer 为 Markdown。
type FAQItem struct {
	Record
	Question     string  `gorm:"type:text;not null" json:"question"`
	Answer       string  `gorm:"type:text;not null" json:"answer"`
	Page         *string `gorm:"size:50;index" json:"page"`
	DisplayOrder int     `gorm:"not null;default:0;index" json:"display_order"`
}

func (FAQItem) TableName() string {
	return "faq_items"
}

// Video 外部托管的视频。EmbedURL 与 Platform 在读取时由 VideoURL 推导，不入库。
type Video struct {
	Record
	Title        string  `gorm:"size:255;not null" json:"title"`
	VideoURL     string  `gorm:"size:1024;not null" json:"video_url"`
	Description  string  `gorm:"type:text" json:"description"`
	ThumbnailURL string  `gorm:"size:1024" json:"thumbnail_url"`
	Page         *string `gorm:"size:50;index" json:"page"`
	CategoryID   *string `gorm:"size:36;index" json:"category_id"`
	DisplayOrder int     `gorm:"not null;default:0;index" json:"display_order"`

	EmbedURL string `gorm:"-" json:"embed_url,omitempty"`
	Platform string `gorm:"-" json:"platform,omitempty"`
}

// VideoCategory 视频分类。删除分类不会清理视频上的 category_id。
type VideoCategory struct {
	Record
	Name         string `gorm:"size:255;not null" json:"name"`
	Slug         string `gorm:"size:255;index" json:"slug"`
	Description  string `gorm:"type:text" json:"description"`
	DisplayOrder int    `gorm:"not null;default:0;index" json:"display_order"`
}

// Service 一项咨询服务。
type Service struct {
	Record
	Title        string                      `gorm:"size:255;not null" json:"title"`
	Description  string                      `gorm:"type:text" json:"description"`
	Icon         string                      `gorm:"size:100" json:"icon"`
	Href         string                      `gorm:"size:1024" json:"href"`
	Features     datatypes.JSONSlice[string] `json:"features"`
	DisplayOrder int                         `gorm:"not null;default:0;index" json:"display_order"`
}

// ProcessStep 合作流程中的一个步骤。
type ProcessStep struct {
	Record
	Title        string `gorm:"size:255;not null" json:"title"`
	Description  string `gorm:"type:text" json:"description"`
	Icon         string `gorm:"size:100" json:"icon"`
	DisplayOrder int    `gorm:"not null;default:0;index" json:"display_order"`
}
