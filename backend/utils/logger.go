package utils

import (
	"log"
	"os"
)

// LoggerConfig tunes the process logger.
type LoggerConfig struct {
	// Output stream (os.Stdout, a file, ...)
	Output *os.File
	// Enable colored prefix on consoles
	EnableColors bool
}

// InitLogger builds the process-wide logger.
func InitLogger(config ...LoggerConfig) *log.Logger {
	var cfg LoggerConfig
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	prefix := "[QuizHub] "
	if cfg.EnableColors {
		prefix = "\033[36m" + prefix + "\033[0m"
	}

	return log.New(cfg.Output, prefix, log.LstdFlags|log.LUTC)
}
