package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"storia/internal/config"
)

// Init 初始化全局日志
// 非法的级别回落到 info，不报错
func Init(cfg *config.LogConfig) error {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	switch cfg.TimeFormat {
	case "Unix":
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	case "UnixMs":
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	default:
		zerolog.TimeFieldFormat = time.RFC3339
	}

	output, err := buildOutput(cfg)
	if err != nil {
		return err
	}

	log.Logger = zerolog.New(output).With().Timestamp().Caller().Logger()
	return nil
}

// buildOutput 按配置选择日志输出
// console 格式包一层 ConsoleWriter，开发环境可读性更好
func buildOutput(cfg *config.LogConfig) (io.Writer, error) {
	var output io.Writer = os.Stdout
	if cfg.Output == "file" && cfg.FilePath != "" {
		file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return nil, err
		}
		output = file
	}

	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}
	return output, nil
}

// Get 获取全局 logger
func Get() zerolog.Logger {
	return log.Logger
}
