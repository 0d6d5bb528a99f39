/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package utils

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the logger type handed out by NewLogger.
type Logger = logrus.Logger

// FileLogConfig controls rotating file output.
type FileLogConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// LogConfig is the logging section of the application configuration.
type LogConfig struct {
	Level         string        `mapstructure:"level"`
	ConsoleLevel  string        `mapstructure:"console_level"`
	FileLevel     string        `mapstructure:"file_level"`
	ConsoleFormat string        `mapstructure:"console_format"` // text or json
	FileFormat    string        `mapstructure:"file_format"`    // text or json
	File          FileLogConfig `mapstructure:"file"`
}

const timestampFormat = "2006-01-02 15:04:05.000"

var (
	stateMu          sync.RWMutex
	consoleLevel     = ParseLogLevel(EnvDefaultString("CONSOLE_LOG_LEVEL", "info"))
	fileLevel        = ParseLogLevel(EnvDefaultString("FILE_LOG_LEVEL", "debug"))
	consoleFormat    = normalizeFormat(EnvDefaultString("CONSOLE_LOG_FORMAT", "text"))
	fileFormat       = normalizeFormat(EnvDefaultString("FILE_LOG_FORMAT", "text"))
	consoleOutput    io.Writer = os.Stdout
	fileOutput       io.WriteCloser
	loggerRegistryMu sync.RWMutex
	loggerRegistry   = map[string]*logrus.Logger{}
)

func normalizeFormat(format string) string {
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return "json"
	}
	return "text"
}

// Configure applies cfg to the logging defaults and to every logger created
// so far. Loggers created earlier keep their formatters.
func Configure(cfg LogConfig) error {
	stateMu.Lock()
	if cfg.Level != "" {
		consoleLevel = ParseLogLevel(cfg.Level)
		fileLevel = consoleLevel
	}
	if cfg.ConsoleLevel != "" {
		consoleLevel = ParseLogLevel(cfg.ConsoleLevel)
	}
	if cfg.FileLevel != "" {
		fileLevel = ParseLogLevel(cfg.FileLevel)
	}
	if cfg.ConsoleFormat != "" {
		consoleFormat = normalizeFormat(cfg.ConsoleFormat)
	}
	if cfg.FileFormat != "" {
		fileFormat = normalizeFormat(cfg.FileFormat)
	}
	if fileOutput != nil {
		_ = fileOutput.Close()
		fileOutput = nil
	}
	if cfg.File.Enabled {
		w, err := newRotatingFile(cfg.File)
		if err != nil {
			stateMu.Unlock()
			return err
		}
		fileOutput = w
	}
	stateMu.Unlock()

	applyBaseLevelToRegistered()
	return nil
}

func newRotatingFile(cfg FileLogConfig) (io.WriteCloser, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	name := cfg.Filename
	if name == "" {
		name = "storyboard.log"
	}
	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, name),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}, nil
}

// SetConsoleOutput redirects console output, mainly for tests.
func SetConsoleOutput(w io.Writer) {
	stateMu.Lock()
	defer stateMu.Unlock()
	consoleOutput = w
}

func ParseLogLevel(s string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}

// baseLevel is the most verbose level any active output accepts.
func baseLevel() logrus.Level {
	stateMu.RLock()
	defer stateMu.RUnlock()
	if fileOutput != nil && fileLevel > consoleLevel {
		return fileLevel
	}
	return consoleLevel
}

func applyBaseLevelToRegistered() {
	base := baseLevel()
	loggerRegistryMu.RLock()
	defer loggerRegistryMu.RUnlock()
	for _, lg := range loggerRegistry {
		lg.SetLevel(base)
	}
}

// writerHook writes entries up to a level threshold through its own
// formatter.
type writerHook struct {
	formatter logrus.Formatter
	threshold func() logrus.Level
	writer    func() io.Writer
}

func (h *writerHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *writerHook) Fire(e *logrus.Entry) error {
	w := h.writer()
	if w == nil || e.Level > h.threshold() {
		return nil
	}
	b, err := h.formatter.Format(e)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func newFormatter(format, name string, color bool) logrus.Formatter {
	if format == "json" {
		return &JSONLogFormatter{LoggerName: name}
	}
	return &Log4jFormatter{LoggerName: name, Color: color, NameWidth: 10}
}

// NewLogger returns a named logger writing to the console and, when file
// logging is configured, to the rotating log file. Creating a logger with
// an existing name replaces the registry entry.
func NewLogger(name string) *logrus.Logger {
	stateMu.RLock()
	cFormat, fFormat := consoleFormat, fileFormat
	stateMu.RUnlock()

	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetReportCaller(true)
	l.SetFormatter(newFormatter(cFormat, name, true))
	l.AddHook(&writerHook{
		formatter: l.Formatter,
		threshold: func() logrus.Level { stateMu.RLock(); defer stateMu.RUnlock(); return consoleLevel },
		writer:    func() io.Writer { stateMu.RLock(); defer stateMu.RUnlock(); return consoleOutput },
	})
	l.AddHook(&writerHook{
		formatter: newFormatter(fFormat, name, false),
		threshold: func() logrus.Level { stateMu.RLock(); defer stateMu.RUnlock(); return fileLevel },
		writer: func() io.Writer {
			stateMu.RLock()
			defer stateMu.RUnlock()
			if fileOutput == nil {
				return nil
			}
			return fileOutput
		},
	})
	l.SetLevel(baseLevel())

	loggerRegistryMu.Lock()
	loggerRegistry[name] = l
	loggerRegistryMu.Unlock()
	return l
}
