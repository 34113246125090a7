package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"

	"github.com/salessite/internal/auth"
	"github.com/salessite/internal/config"
	"github.com/salessite/internal/db"
	"github.com/salessite/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 演示数据生成器：为本地开发填充各区块与集合
func main() {
	cfg := config.Load()
	email := flag.String("email", firstNonEmpty(cfg.AdminEmail, "admin@example.com"), "编辑账号邮箱")
	password := flag.String("password", firstNonEmpty(cfg.AdminPassword, "admin123"), "编辑账号密码")
	flag.Parse()

	gdb, err := db.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	fmt.Println("开始生成演示数据...")
	if err := seedDemoContent(context.Background(), gdb, *email, *password); err != nil {
		log.Fatal("生成演示数据失败:", err)
	}

	fmt.Println("演示数据生成完成！")
	fmt.Printf("编辑账号: %s (密码: %s)\n", *email, *password)
}

func seedDemoContent(ctx context.Context, gdb *gorm.DB, email, password string) error {
	if _, err := db.EnsureUser(gdb, email, password); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	var user db.User
	if err := gdb.Where("email = ?", db.NormalizeEmail(email)).First(&user).Error; err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	actor := auth.Actor{UserID: strconv.FormatUint(uint64(user.ID), 10), Email: user.Email}

	// 脚本独立于服务进程运行，页面缓存由服务端 TTL 或 /api/revalidate 清理
	logger := zap.NewNop()
	content := service.NewContentService(gdb, nil, logger)
	collections := service.NewCollections(gdb, nil, logger)

	if err := seedSections(ctx, content, actor); err != nil {
		return err
	}
	return seedCollections(ctx, collections, actor)
}

func seedSections(ctx context.Context, content *service.ContentService, actor auth.Actor) error {
	sections := map[string]service.Content{
		"hero": {
			"headline":    "Build a sales process your team actually follows",
			"subheadline": "Hands-on consulting for founder-led sales teams.",
		},
		"cta": {
			"heading": "Ready to close more deals?",
			"button":  map[string]any{"text": "Book a discovery call", "href": "/contact"},
		},
	}
	for name, partial := range sections {
		stored, err := content.Stored(ctx, name)
		if err != nil {
			return err
		}
		if len(stored.Content) > 0 {
			fmt.Printf("区块 %s 已存在，跳过\n", name)
			continue
		}
		if _, err := content.WriteSection(ctx, actor, name, partial); err != nil {
			return fmt.Errorf("write section %s: %w", name, err)
		}
	}
	fmt.Println("✅ 区块内容创建完成")
	return nil
}

func seedCollections(ctx context.Context, collections *service.Collections, actor auth.Actor) error {
	seeds := map[service.Accessor][]service.Fields{
		collections.Testimonials: {
			{"quote": "Our close rate doubled within a quarter.", "author": "Dana Reyes", "company": "Northwind", "rating": 5, "display_order": 0},
			{"quote": "Finally a pipeline review we look forward to.", "author": "Sam Ortiz", "company": "Contoso", "rating": 5, "display_order": 1},
		},
		collections.FAQs: {
			{"question": "How long is a typical engagement?", "answer": "Most teams work with us for **12 weeks**.", "display_order": 0},
			{"question": "Do you work with early-stage startups?", "answer": "Yes, from the first sales hire onward.", "display_order": 1},
		},
		collections.Services: {
			{"title": "Sales Audit", "description": "A two-week review of your funnel.", "features": []string{"Pipeline review", "Call shadowing"}, "display_order": 0},
			{"title": "Team Coaching", "description": "Weekly coaching for account executives.", "display_order": 1},
		},
		collections.ProcessSteps: {
			{"title": "Discover", "description": "We map how deals move today.", "display_order": 0},
			{"title": "Design", "description": "We write the playbook with your team.", "display_order": 1},
			{"title": "Deploy", "description": "We coach until it sticks.", "display_order": 2},
		},
		collections.Videos: {
			{"title": "Discovery calls that convert", "video_url": "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "display_order": 0},
		},
	}

	for accessor, rows := range seeds {
		name := accessor.Descriptor().Name
		existing, err := accessor.ListRows(ctx, nil)
		if err != nil {
			return fmt.Errorf("list %s: %w", name, err)
		}
		if n, ok := rowCount(existing); ok && n > 0 {
			fmt.Printf("%s 已存在数据，跳过创建\n", name)
			continue
		}
		for _, fields := range rows {
			if _, err := accessor.CreateRow(ctx, actor, fields); err != nil {
				return fmt.Errorf("create %s: %w", name, err)
			}
		}
		fmt.Printf("✅ %s 创建完成 (%d)\n", name, len(rows))
	}
	return nil
}

func rowCount(rows any) (int, bool) {
	switch v := rows.(type) {
	case []db.Testimonial:
		return len(v), true
	case []db.FAQItem:
		return len(v), true
	case []db.Service:
		return len(v), true
	case []db.ProcessStep:
		return len(v), true
	case []db.Video:
		return len(v), true
	case []db.VideoCategory:
		return len(v), true
	}
	return 0, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
