package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr string
	BaseDir  string
	DataDir  string
	DBPath   string
	WorkDir  string

	HookTimeout time.Duration
}

func Load() Config {
	loadDotEnv(".env")
	baseDir := getEnv("HOOKSD_BASE_DIR", ".")
	dataDir := getEnv("HOOKSD_DATA_DIR", "data")
	return Config{
		HTTPAddr: getEnv("HOOKSD_HTTP_ADDR", ":8080"),
		BaseDir:  baseDir,
		DataDir:  dataDir,
		DBPath:   getEnv("HOOKSD_DB_PATH", filepath.Join(dataDir, "hooksd.db")),
		WorkDir:  getEnv("HOOKSD_WORK_DIR", baseDir),

		HookTimeout: time.Duration(getEnvInt("HOOKSD_HOOK_TIMEOUT_MS", 60_000)) * time.Millisecond,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func loadDotEnv(path string) {
	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		_ = os.Setenv(key, value)
	}
}
