package repo

import (
	"DriveKeeper/internal/repo/migrations"
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// sqlitePragmas применяются к каждому соединению modernc.org/sqlite.
const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

const slowQueryThreshold = 500 * time.Millisecond

// dbLogger — журнал gorm. Пока SetLogger не вызван, gorm молчит.
var dbLogger = gormlogger.Default.LogMode(gormlogger.Silent)

// SetLogger направляет журнал gorm (ошибки SQL и медленные запросы) в zap.
// Вызывается до InitDB.
func SetLogger(l *zap.SugaredLogger) {
	w, err := zap.NewStdLogAt(l.Desugar().Named("gorm"), zap.WarnLevel)
	if err != nil {
		l.Warnw("gorm logger left silent", "error", err)
		return
	}
	dbLogger = gormlogger.New(w, gormlogger.Config{
		SlowThreshold:             slowQueryThreshold,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// InitDB открывает хранилище по DSN, применяет миграции и проверяет версию схемы.
// DSN вида postgres://... открывает PostgreSQL, всё остальное считается путём/URI SQLite.
func InitDB(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty database dsn")
	}

	cfg := &gorm.Config{
		Logger:         dbLogger,
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}

	var (
		db  *gorm.DB
		err error
	)
	if isPostgresDSN(dsn) {
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	} else {
		dial := gormsqlite.Dialector{DriverName: "sqlite", DSN: withSQLitePragmas(dsn)}
		db, err = gorm.Open(dial, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if db.Dialector.Name() == migrations.DialectSQLite {
		// SQLite пишет в один поток: держим одно соединение, писатели ждут в пуле.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	}

	if err := migrations.MigrateUp(sqlDB, db.Dialector.Name()); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	if err := migrations.CheckVersion(sqlDB, db.Dialector.Name()); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("schema check: %w", err)
	}
	return db, nil
}

// CloseDB закрывает пул соединений. Вызывается при остановке сервера.
func CloseDB(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping проверяет доступность хранилища (для /healthz).
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func withSQLitePragmas(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqlitePragmas
	}
	return dsn + "?" + sqlitePragmas
}
