package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

func Parse() (Config, error) {
	godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse cfg: %v", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("parse cfg: %v", err)
	}

	return cfg, nil
}

func (c Config) validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMongo, StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.ContentStore {
	case ContentStoreFS:
	case ContentStoreS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for CONTENT_STORE=s3")
		}
	default:
		return fmt.Errorf("unknown CONTENT_STORE %q", c.ContentStore)
	}

	if c.Uploads.MaxFilesPerNote < 1 {
		return fmt.Errorf("MAX_FILES_PER_NOTE must be positive, got %d", c.Uploads.MaxFilesPerNote)
	}
	if c.Uploads.MaxFileSizeMB < 1 {
		return fmt.Errorf("MAX_FILE_SIZE_MB must be positive, got %d", c.Uploads.MaxFileSizeMB)
	}

	return nil
}
