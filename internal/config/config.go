package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	System struct {
		IsProd       bool // production logger
		NullNotFound bool // answer 200 + null instead of 404 for missing articles
	}
	Database struct {
		ArticlesURL string // Redis URL of the article store
		AdminsPath  string // Badger directory of the admin store
	}
	Storage struct {
		AccountID    string
		AccessKey    string
		AccessSecret string
		Bucket       string
		PublicURL    string // base URL stored image references point at
		Folder       string // key prefix for uploaded images
	}
}

// Load reads the given .env files (missing ones are ignored) and then the environment.
func Load(files ...string) (*Config, error) {
	for _, f := range files {
		if f == "" {
			continue
		}
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{}

	if mode, exist := os.LookupEnv("MODE"); exist {
		cfg.System.IsProd = strings.HasPrefix(strings.ToLower(mode), "p")
	}

	nullNotFound, err := getEnvBool("NULL_NOT_FOUND", false)
	if err != nil {
		return nil, err
	}
	cfg.System.NullNotFound = nullNotFound

	cfg.Database.ArticlesURL = getEnv("ARTICLES_DB_URL", "redis://localhost:6379/0")
	cfg.Database.AdminsPath = getEnv("ADMINS_DB_PATH", "./data/admins")

	cfg.Storage.AccountID = os.Getenv("STORAGE_ACCOUNT_ID")
	cfg.Storage.AccessKey = os.Getenv("STORAGE_ACCESS_KEY")
	cfg.Storage.AccessSecret = os.Getenv("STORAGE_ACCESS_SECRET")
	cfg.Storage.Bucket = getEnv("STORAGE_BUCKET", "articles")
	cfg.Storage.PublicURL = os.Getenv("STORAGE_PUBLIC_URL")
	cfg.Storage.Folder = getEnv("STORAGE_FOLDER", "article_images")

	return cfg, nil
}

// getEnv returns environment variable or default value.
func getEnv(key, defaultValue string) string {
	if value, exist := os.LookupEnv(key); exist && value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value, exist := os.LookupEnv(key)
	if !exist || value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
