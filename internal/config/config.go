package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 应用配置结构体
type Config struct {
	Server     ServerConfig     `yaml:"server" json:"server"`
	JWT        JWTConfig        `yaml:"jwt" json:"jwt"`
	Database   DatabaseConfig   `yaml:"database" json:"database"`
	Redis      RedisConfig      `yaml:"redis" json:"redis"`
	Log        LogConfig        `yaml:"log" json:"log"`
	CORS       CORSConfig       `yaml:"cors" json:"cors"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit" json:"rate_limit"`
	Pagination PaginationConfig `yaml:"pagination" json:"pagination"`
	Admin      AdminConfig      `yaml:"admin" json:"admin"`
	Moderation ModerationConfig `yaml:"moderation" json:"moderation"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host            string        `yaml:"host" json:"host"`
	Port            string        `yaml:"port" json:"port"`
	Mode            string        `yaml:"mode" json:"mode"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" json:"max_body_bytes"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	SecretKey   string `yaml:"secret_key" json:"secret_key"`
	ExpireHours int    `yaml:"expire_hours" json:"expire_hours"`
	Issuer      string `yaml:"issuer" json:"issuer"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string        `yaml:"host" json:"host"`
	Port            string        `yaml:"port" json:"port"`
	Username        string        `yaml:"username" json:"username"`
	Password        string        `yaml:"password" json:"password"`
	Database        string        `yaml:"database" json:"database"`
	Charset         string        `yaml:"charset" json:"charset"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
	QueryTimeout    time.Duration `yaml:"query_timeout" json:"query_timeout"`
}

// RedisConfig Redis配置（每日一题读缓存）
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled" json:"enabled"`
	Addr     string        `yaml:"addr" json:"addr"`
	Password string        `yaml:"password" json:"password"`
	DB       int           `yaml:"db" json:"db"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
	Prefix   string        `yaml:"prefix" json:"prefix"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level     string `yaml:"level" json:"level"`
	Format    string `yaml:"format" json:"format"` // json | console
	Output    string `yaml:"output" json:"output"` // stdout | file
	Directory string `yaml:"directory" json:"directory"`
}

// CORSConfig CORS配置
type CORSConfig struct {
	AllowOrigins     []string `yaml:"allow_origins" json:"allow_origins"`
	AllowMethods     []string `yaml:"allow_methods" json:"allow_methods"`
	AllowHeaders     []string `yaml:"allow_headers" json:"allow_headers"`
	AllowCredentials bool     `yaml:"allow_credentials" json:"allow_credentials"`
}

// RateLimitConfig 限流配置，RPS 为每秒补充的令牌数
type RateLimitConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	RPS          float64 `yaml:"rps" json:"rps"`
	Burst        int     `yaml:"burst" json:"burst"`
	AuthPerMin   int     `yaml:"auth_per_min" json:"auth_per_min"`
	ReportPerMin int     `yaml:"report_per_min" json:"report_per_min"`
}

// PaginationConfig 分页配置
type PaginationConfig struct {
	DefaultPageSize int `yaml:"default_page_size" json:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size" json:"max_page_size"`
}

// AdminConfig 启动时初始化的管理员账号
type AdminConfig struct {
	Usernames       []string `yaml:"usernames" json:"usernames"`
	DefaultPassword string   `yaml:"default_password" json:"-"`
}

// ModerationConfig 审核相关配置
type ModerationConfig struct {
	// ModeratorRoles 拥有审核权限的角色编码
	ModeratorRoles []string `yaml:"moderator_roles" json:"moderator_roles"`
	// AdminRoles 拥有后台管理权限的角色编码
	AdminRoles []string `yaml:"admin_roles" json:"admin_roles"`
}

// Load 加载配置
func Load() *Config {
	// .env 不存在时忽略
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "dev")
	configFile := getConfigFile(env)

	config := getDefaultConfig()

	if configFile != "" {
		if err := loadFromFile(config, configFile); err != nil {
			fmt.Printf("警告: 加载配置文件失败 %s: %v\n", configFile, err)
		} else {
			fmt.Printf("已加载配置文件: %s\n", configFile)
		}
	}

	overrideWithEnvVars(config)

	return config
}

// getConfigFile 获取配置文件路径
func getConfigFile(env string) string {
	configFiles := []string{
		fmt.Sprintf("config.%s.yaml", env),
		"config.yaml",
	}

	for _, file := range configFiles {
		if _, err := os.Stat(file); err == nil {
			return file
		}
	}

	return ""
}

// getDefaultConfig 获取默认配置
func getDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			Mode:            "release",
			MaxBodyBytes:    1 << 20,
			ShutdownTimeout: 10 * time.Second,
		},
		JWT: JWTConfig{
			SecretKey:   "default_secret_key_change_in_production",
			ExpireHours: 24,
			Issuer:      "forum-api",
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            "3306",
			Username:        "root",
			Password:        "",
			Database:        "forum",
			Charset:         "utf8mb4",
			MaxOpenConns:    50,
			MaxIdleConns:    10,
			ConnMaxLifetime: time.Hour,
			QueryTimeout:    5 * time.Second,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			TTL:     10 * time.Minute,
			Prefix:  "forum:",
		},
		Log: LogConfig{
			Level:     "info",
			Format:    "json",
			Output:    "stdout",
			Directory: "log",
		},
		CORS: CORSConfig{
			AllowOrigins:     []string{"*"},
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "X-Request-ID"},
			AllowCredentials: true,
		},
		RateLimit: RateLimitConfig{
			Enabled:      true,
			RPS:          10,
			Burst:        40,
			AuthPerMin:   10,
			ReportPerMin: 20,
		},
		Pagination: PaginationConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
		Admin: AdminConfig{
			Usernames:       []string{},
			DefaultPassword: "admin123456",
		},
		Moderation: ModerationConfig{
			ModeratorRoles: []string{"ADMIN", "MODERATOR"},
			AdminRoles:     []string{"ADMIN"},
		},
	}
}

// loadFromFile 从文件加载配置
func loadFromFile(config *Config, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, config)
}

// overrideWithEnvVars 用环境变量覆盖配置
func overrideWithEnvVars(config *Config) {
	// 服务器配置
	if val := getEnv("SERVER_HOST", ""); val != "" {
		config.Server.Host = val
	}
	if val := getEnv("SERVER_PORT", ""); val != "" {
		config.Server.Port = val
	}
	if val := getEnv("SERVER_MODE", ""); val != "" {
		config.Server.Mode = val
	}

	// 数据库配置
	if val := getEnv("DB_HOST", ""); val != "" {
		config.Database.Host = val
	}
	if val := getEnv("DB_PORT", ""); val != "" {
		config.Database.Port = val
	}
	if val := getEnv("DB_USERNAME", ""); val != "" {
		config.Database.Username = val
	}
	if val := getEnv("DB_PASSWORD", ""); val != "" {
		config.Database.Password = val
	}
	if val := getEnv("DB_DATABASE", ""); val != "" {
		config.Database.Database = val
	}

	// JWT配置
	if val := getEnv("JWT_SECRET", ""); val != "" {
		config.JWT.SecretKey = val
	}
	if val := getEnv("JWT_EXPIRE_HOURS", ""); val != "" {
		if hours := parseInt(val); hours > 0 {
			config.JWT.ExpireHours = hours
		}
	}

	// Redis配置
	if val := getEnv("REDIS_ENABLED", ""); val != "" {
		config.Redis.Enabled = parseBool(val)
	}
	if val := getEnv("REDIS_ADDR", ""); val != "" {
		config.Redis.Addr = val
	}
	if val := getEnv("REDIS_PASSWORD", ""); val != "" {
		config.Redis.Password = val
	}

	// 日志配置
	if val := getEnv("LOG_LEVEL", ""); val != "" {
		config.Log.Level = val
	}
	if val := getEnv("LOG_FORMAT", ""); val != "" {
		config.Log.Format = val
	}
	if val := getEnv("LOG_OUTPUT", ""); val != "" {
		config.Log.Output = val
	}

	// 限流配置
	if val := getEnv("RATE_LIMIT_ENABLED", ""); val != "" {
		config.RateLimit.Enabled = parseBool(val)
	}
	if val := getEnv("RATE_LIMIT_BURST", ""); val != "" {
		if n := parseInt(val); n > 0 {
			config.RateLimit.Burst = n
		}
	}

	// 管理员配置
	if val := getEnv("ADMIN_USERNAMES", ""); val != "" {
		config.Admin.Usernames = splitList(val)
	}
	if val := getEnv("ADMIN_DEFAULT_PASSWORD", ""); val != "" {
		config.Admin.DefaultPassword = val
	}
}

// DSN 构建 MySQL 连接字符串
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=UTC",
		d.Username,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
		d.Charset,
	)
}

// parseInt 解析整数
func parseInt(s string) int {
	var result int
	fmt.Sscanf(s, "%d", &result)
	return result
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes"
}

// splitList 解析逗号分隔的列表
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
