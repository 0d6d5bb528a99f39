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
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

var levelColors = map[logrus.Level]*color.Color{
	logrus.PanicLevel: color.New(color.FgRed, color.Bold),
	logrus.FatalLevel: color.New(color.FgRed, color.Bold),
	logrus.ErrorLevel: color.New(color.FgRed),
	logrus.WarnLevel:  color.New(color.FgYellow),
	logrus.InfoLevel:  color.New(color.FgGreen),
	logrus.DebugLevel: color.New(color.FgBlue),
	logrus.TraceLevel: color.New(color.FgMagenta),
}

var (
	nameColor  = color.New(color.FgCyan)
	faintColor = color.New(color.Faint)
)

// Log4jFormatter renders entries as
// "time LEVEL pid --- [name] file:line : message key=value ...".
type Log4jFormatter struct {
	LoggerName string
	Color      bool
	NameWidth  int
}

func (f *Log4jFormatter) paint(c *color.Color, s string) string {
	if !f.Color || c == nil {
		return s
	}
	return c.Sprint(s)
}

func (f *Log4jFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(entry.Time.Format(timestampFormat))
	b.WriteByte(' ')
	b.WriteString(f.paint(levelColors[entry.Level], fmt.Sprintf("%7s", strings.ToUpper(entry.Level.String()))))
	fmt.Fprintf(&b, " %-6d --- ", os.Getpid())
	b.WriteString(f.paint(nameColor, fmt.Sprintf("[%*s]", f.NameWidth, truncateRunes(f.LoggerName, f.NameWidth))))
	if entry.Caller != nil {
		b.WriteByte(' ')
		b.WriteString(f.paint(faintColor, callerOf(entry)))
	}
	b.WriteString(f.paint(faintColor, " :"))
	b.WriteByte(' ')
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fieldValue(entry.Data[k]))
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

// JSONLogFormatter renders one JSON object per entry.
type JSONLogFormatter struct {
	LoggerName string
}

type jsonLogRecord struct {
	Time    string                 `json:"time"`
	Level   string                 `json:"level"`
	Logger  string                 `json:"logger"`
	Caller  string                 `json:"caller,omitempty"`
	Message string                 `json:"message"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
}

func (f *JSONLogFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	rec := jsonLogRecord{
		Time:    entry.Time.Format(timestampFormat),
		Level:   entry.Level.String(),
		Logger:  f.LoggerName,
		Message: entry.Message,
	}
	if entry.Caller != nil {
		rec.Caller = callerOf(entry)
	}
	if len(entry.Data) > 0 {
		rec.Fields = make(map[string]interface{}, len(entry.Data))
		for k, v := range entry.Data {
			rec.Fields[k] = fieldValue(v)
		}
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func fieldValue(v interface{}) interface{} {
	switch t := v.(type) {
	case error:
		return t.Error()
	case time.Duration:
		return t.String()
	default:
		return v
	}
}

// callerOf renders the caller as "dir/file.go:line".
func callerOf(entry *logrus.Entry) string {
	file := filepath.ToSlash(entry.Caller.File)
	parts := strings.Split(file, "/")
	if len(parts) >= 2 {
		file = parts[len(parts)-2] + "/" + parts[len(parts)-1]
	}
	return fmt.Sprintf("%s:%d", file, entry.Caller.Line)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n])
}
