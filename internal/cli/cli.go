// Package cli holds the logger and environment helpers shared by the
// commands.
package cli

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// InitLogger configures a text slog handler on stderr and installs it as the
// default so the stdlib log package routes through it too.
func InitLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// LoadEnv reads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
// Without arguments it reads ./.env.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// EnvString returns the trimmed value of key or def when unset.
func EnvString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

// EnvInt returns key parsed as int, or def when unset or malformed.
func EnvInt(key string, def int) int {
	if n, err := strconv.Atoi(EnvString(key, "")); err == nil {
		return n
	}
	return def
}

// EnvFloat returns key parsed as float64, or def when unset or malformed.
func EnvFloat(key string, def float64) float64 {
	if f, err := strconv.ParseFloat(EnvString(key, ""), 64); err == nil {
		return f
	}
	return def
}

// EnvBool returns key parsed with strconv.ParseBool, or def.
func EnvBool(key string, def bool) bool {
	if b, err := strconv.ParseBool(EnvString(key, "")); err == nil {
		return b
	}
	return def
}
