package rdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"TeamPulse/internal/config"
	"TeamPulse/internal/model"
	"TeamPulse/internal/pkg"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqlite 连接参数：外键、忙等待、WAL、写事务立即加锁
const sqliteParams = "_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate"

// Open 按配置的驱动建立连接
func Open(cfg config.Database) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(SQLiteDSN(cfg.DSN))
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: logger.New(log.New(os.Stderr, "\r\n", log.LstdFlags), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, Classify("rdb.open", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == "sqlite" {
		// 单写者
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, Classify("rdb.ping", err)
	}
	return db, nil
}

// SQLiteDSN 补齐 sqlite 连接参数，已带参数的 DSN 原样返回
func SQLiteDSN(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn
	}
	return dsn + "?" + sqliteParams
}

// Close 关闭底层连接池
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Models 建表顺序由 gorm 按外键依赖重排
func Models() []any {
	return []any{
		&model.User{},
		&model.KarmaEntry{},
		&model.Idea{},
		&model.IdeaVote{},
		&model.Task{},
		&model.Standup{},
		&model.File{},
		&model.Poll{},
		&model.Notification{},
		&model.OutboxEvent{},
	}
}

// Migrate 幂等建表，可重复执行
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return Classify("rdb.migrate", err)
	}
	return nil
}

// Classify 把 gorm/驱动错误映射为 pkg.Error
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *pkg.Error
	if errors.As(err, &pe) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkg.E(pkg.CodeNotFound, op, err)
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated):
		return pkg.E(pkg.CodeConstraint, op, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled),
		errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone):
		return pkg.E(pkg.CodeUnavailable, op, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case isDuplicateMsg(msg),
		strings.Contains(msg, "foreign key constraint"),
		strings.Contains(msg, "not null constraint"),
		strings.Contains(msg, "violates"):
		return pkg.E(pkg.CodeConstraint, op, err)
	case strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "database table is locked"),
		strings.Contains(msg, "lock wait timeout"),
		strings.Contains(msg, "deadlock"),
		strings.Contains(msg, "could not serialize"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "bad connection"):
		return pkg.E(pkg.CodeUnavailable, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// IsDuplicate 只识别唯一键冲突，外键错误不算
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return isDuplicateMsg(strings.ToLower(err.Error()))
}

func isDuplicateMsg(msg string) bool {
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}
