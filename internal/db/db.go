package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	// DriverSQLite 为本地开发与测试使用的嵌入式数据库。
	DriverSQLite = "sqlite"
	// DriverPostgres 为线上托管的关系型数据库。
	DriverPostgres = "postgres"
)

type openOptions struct {
	logger *zap.Logger
}

// Option 调整 Open 的行为。
type Option func(*openOptions)

// WithLogger 将 gorm 的慢查询与错误日志写入 zap；默认丢弃。
func WithLogger(l *zap.Logger) Option {
	return func(o *openOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Open 打开数据库连接并执行自动迁移。
// sqlite 的 dsn 为空时回退到 data/site.db。
func Open(driver, dsn string, opts ...Option) (*gorm.DB, error) {
	options := openOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&options)
	}

	var dialector gorm.Dialector

	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverPostgres:
		if strings.TrimSpace(dsn) == "" {
			return nil, errors.New("postgres dsn is required")
		}
		dialector = postgres.Open(dsn)
	case DriverSQLite, "":
		path := strings.TrimSpace(dsn)
		if path == "" {
			path = "data/site.db"
		}
		if !isMemoryDSN(path) {
			if err := ensureParentDir(path); err != nil {
				return nil, err
			}
		}
		dialector = sqlite.Open(path)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger(options.logger)})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if gdb.Dialector.Name() == DriverSQLite {
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		// sqlite 只允许单写者，串行化连接以避免 "database is locked"。
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(gdb); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return gdb, nil
}

// gormLogger 把 gorm 日志转给 zap。未设置的区块是正常状态，不记录 record not found。
func gormLogger(l *zap.Logger) logger.Interface {
	std, err := zap.NewStdLogAt(l.Named("gorm"), zap.WarnLevel)
	if err != nil {
		return logger.Discard
	}
	return logger.New(std, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// Migrate 为全部模型创建或更新表结构。
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&User{},
		&ContentSection{},
		&Testimonial{},
		&FAQItem{},
		&Video{},
		&VideoCategory{},
		&Service{},
		&ProcessStep{},
	)
}

// Ping 检查数据库连接是否可用。
func Ping(gdb *gorm.DB) error {
	if gdb == nil {
		return errors.New("database not initialized")
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.HasPrefix(dsn, "file:")
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
