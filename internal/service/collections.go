package service

import (
	"github.com/salessite/internal/cache"
	"github.com/salessite/internal/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 集合名同时用作路由段与排序区块类型。
const (
	CollectionTestimonials = "testimonials"
	CollectionFAQs         = "faqs"
	CollectionVideos       = "videos"
	CollectionServices     = "services"
	CollectionProcessSteps = "process_steps"
	CollectionCategories   = "categories"
)

// Collections 汇总每张实体表的访问器。
type Collections struct {
	Testimonials *Collection[db.Testimonial, *db.Testimonial]
	FAQs         *Collection[db.FAQItem, *db.FAQItem]
	Videos       *Collection[db.Video, *db.Video]
	Services     *Collection[db.Service, *db.Service]
	ProcessSteps *Collection[db.ProcessStep, *db.ProcessStep]
	Categories   *Collection[db.VideoCategory, *db.VideoCategory]
}

// NewCollections 将所有集合接到同一个数据库与缓存上。
func NewCollections(gdb *gorm.DB, inv cache.Invalidator, logger *zap.Logger) *Collections {
	return &Collections{
		Testimonials: NewCollection[db.Testimonial](gdb, inv, logger, Descriptor{
			Name:        CollectionTestimonials,
			ListKey:     "testimonials",
			ItemKey:     "testimonial",
			Required:    []string{"quote", "author"},
			Filters:     []string{"page"},
			Invalidates: true,
		}, nil),
		FAQs: NewCollection[db.FAQItem](gdb, inv, logger, Descriptor{
			Name:        CollectionFAQs,
			ListKey:     "faqs",
			ItemKey:     "faq",
			Required:    []string{"question", "answer"},
			Filters:     []string{"page"},
			Invalidates: true,
		}, nil),
		Videos: NewCollection[db.Video](gdb, inv, logger, Descriptor{
			Name:        CollectionVideos,
			ListKey:     "videos",
			ItemKey:     "video",
			Required:    []string{"title", "video_url"},
			Filters:     []string{"page", "category_id"},
			Invalidates: true,
		}, decorateVideo),
		Services: NewCollection[db.Service](gdb, inv, logger, Descriptor{
			Name:        CollectionServices,
			ListKey:     "services",
			ItemKey:     "service",
			Required:    []string{"title"},
			Invalidates: true,
		}, nil),
		ProcessSteps: NewCollection[db.ProcessStep](gdb, inv, logger, Descriptor{
			Name:        CollectionProcessSteps,
			ListKey:     "steps",
			ItemKey:     "step",
			Required:    []string{"title"},
			Invalidates: true,
		}, nil),
		Categories: NewCollection[db.VideoCategory](gdb, inv, logger, Descriptor{
			Name:        CollectionCategories,
			ListKey:     "categories",
			ItemKey:     "category",
			Required:    []string{"name"},
			Invalidates: true,
		}, nil),
	}
}

// All 以固定顺序返回全部访问器。
func (c *Collections) All() []Accessor {
	return []Accessor{c.Testimonials, c.FAQs, c.Videos, c.Services, c.ProcessSteps, c.Categories}
}

// ByName 按区块类型查找访问器。
func (c *Collections) ByName(name string) (Accessor, bool) {
	for _, accessor := range c.All() {
		if accessor.Descriptor().Name == name {
			return accessor, true
		}
	}
	return nil, false
}

func decorateVideo(video *db.Video) {
	video.EmbedURL = ""
	video.Platform = ""
	if embed, ok := ParseVideoEmbed(video.VideoURL); ok {
		video.EmbedURL = embed.EmbedURL
		video.Platform = embed.Platform
	}
}
