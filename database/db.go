package database

import (
	"fmt"

	"papermerge/config"
	"papermerge/logger"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB
var RedisClient *redis.Client

func InitPostgres(cfg *config.DatabaseConfig) error {
	dsn := cfg.URL
	if cfg.SSLMode != "" {
		dsn = fmt.Sprintf("%s?sslmode=%s", cfg.URL, cfg.SSLMode)
	}

	logMode := gormlogger.Warn
	if logger.IsDebugEnabled() {
		logMode = gormlogger.Info
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logMode),
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB handle: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)

	logger.Infof("postgres connected")
	return nil
}

func InitRedis(cfg *config.RedisConfig) error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	logger.Infof("redis client initialized")
	return nil
}
