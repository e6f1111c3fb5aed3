package utils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"forum/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger 日志接口，fields 为成对的 key, value
type Logger interface {
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Fatal(msg string, fields ...interface{})
	With(fields ...interface{}) Logger
	Close() error
}

// AppLogger 基于 zap 的应用日志器
type AppLogger struct {
	sugar  *zap.SugaredLogger
	writer *dailyRotateWriter
}

// dailyRotateWriter 按日期切割写入 log 目录
type dailyRotateWriter struct {
	directory string
	file      *os.File
	current   string
	mu        sync.Mutex
}

func newDailyRotateWriter(directory string) (*dailyRotateWriter, error) {
	if err := os.MkdirAll(directory, 0755); err != nil {
		return nil, err
	}
	w := &dailyRotateWriter{directory: directory}
	if err := w.rotateIfNeeded(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *dailyRotateWriter) rotateIfNeeded() error {
	dateStr := time.Now().Format("2006.1.2")
	if w.file != nil && dateStr == w.current {
		return nil
	}
	if w.file != nil {
		_ = w.file.Close()
		w.file = nil
	}
	filename := filepath.Join(w.directory, dateStr+".log")
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return err
	}
	w.file = f
	w.current = dateStr
	return nil
}

func (w *dailyRotateWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.rotateIfNeeded(); err != nil {
		return 0, err
	}
	return w.file.Write(p)
}

// Sync 实现 zapcore.WriteSyncer
func (w *dailyRotateWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	return w.file.Sync()
}

func (w *dailyRotateWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// parseLevel 解析日志级别，未知级别按 info 处理
func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// NewLogger 创建新的日志器
func NewLogger(cfg *config.LogConfig) (*AppLogger, error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.MessageKey = "message"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if cfg.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	logger := &AppLogger{}
	var sink zapcore.WriteSyncer
	switch cfg.Output {
	case "file":
		dir := cfg.Directory
		if dir == "" {
			dir = "log"
		}
		w, err := newDailyRotateWriter(dir)
		if err != nil {
			return nil, err
		}
		logger.writer = w
		sink = w
	default:
		sink = zapcore.Lock(os.Stdout)
	}

	core := zapcore.NewCore(encoder, sink, zap.NewAtomicLevelAt(parseLevel(cfg.Level)))
	logger.sugar = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
	return logger, nil
}

// NewNopLogger 创建丢弃所有输出的日志器（测试用）
func NewNopLogger() *AppLogger {
	return &AppLogger{sugar: zap.NewNop().Sugar()}
}

// Info 记录信息日志
func (l *AppLogger) Info(msg string, fields ...interface{}) {
	l.sugar.Infow(msg, fields...)
}

// Warn 记录警告日志
func (l *AppLogger) Warn(msg string, fields ...interface{}) {
	l.sugar.Warnw(msg, fields...)
}

// Error 记录错误日志
func (l *AppLogger) Error(msg string, fields ...interface{}) {
	l.sugar.Errorw(msg, fields...)
}

// Debug 记录调试日志
func (l *AppLogger) Debug(msg string, fields ...interface{}) {
	l.sugar.Debugw(msg, fields...)
}

// Fatal 记录致命错误日志并退出
func (l *AppLogger) Fatal(msg string, fields ...interface{}) {
	l.sugar.Fatalw(msg, fields...)
}

// With 返回附带固定字段的子日志器
func (l *AppLogger) With(fields ...interface{}) Logger {
	return &AppLogger{sugar: l.sugar.With(fields...), writer: l.writer}
}

// Close 刷新缓冲并关闭文件
func (l *AppLogger) Close() error {
	_ = l.sugar.Sync()
	if l.writer != nil {
		return l.writer.Close()
	}
	return nil
}

var (
	globalLogger Logger
	loggerMu     sync.Mutex
)

// InitLogger 初始化全局日志器
func InitLogger(cfg *config.LogConfig) error {
	logger, err := NewLogger(cfg)
	if err != nil {
		return err
	}
	loggerMu.Lock()
	globalLogger = logger
	loggerMu.Unlock()
	return nil
}

// SetLogger 替换全局日志器
func SetLogger(l Logger) {
	loggerMu.Lock()
	globalLogger = l
	loggerMu.Unlock()
}

// GetLogger 获取全局日志器
func GetLogger() Logger {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if globalLogger == nil {
		cfg := &config.LogConfig{
			Level:  "info",
			Format: "console",
			Output: "stdout",
		}
		logger, err := NewLogger(cfg)
		if err != nil {
			return NewNopLogger()
		}
		globalLogger = logger
	}
	return globalLogger
}

// CloseLogger 优雅关闭全局日志器
func CloseLogger() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if globalLogger != nil {
		return globalLogger.Close()
	}
	return nil
}
