package config

import "strings"

// Asset backends.
const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

// StorageConfig selects where reassembled uploads are published.
type StorageConfig struct {
	Backend   string      `json:"backend"`    // local, minio
	AssetsDir string      `json:"assets_dir"` // served under /assets
	BaseURL   string      `json:"base_url"`   // public prefix for local assets
	Minio     MinioConfig `json:"minio"`
}

// MinioConfig describes the MinIO endpoint.
type MinioConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	UseSSL   bool   `json:"use_ssl"`
	Bucket   string `json:"bucket"`
}

func loadStorageConfig() StorageConfig {
	backend := strings.ToLower(getEnv("STORAGE_BACKEND", StorageLocal))
	if backend != StorageMinio {
		backend = StorageLocal
	}
	return StorageConfig{
		Backend:   backend,
		AssetsDir: getEnv("ASSETS_DIR", "assets/public"),
		BaseURL:   strings.TrimRight(getEnv("ASSETS_BASE_URL", "/assets"), "/"),
		Minio: MinioConfig{
			Host:     getEnv("MINIO_HOST", "localhost"),
			Port:     getEnv("MINIO_PORT", "9000"),
			Username: getEnv("MINIO_USERNAME", "minioadmin"),
			Password: getEnv("MINIO_PASSWORD", "minioadmin"),
			UseSSL:   getEnvBool("MINIO_USE_SSL", false),
			Bucket:   getEnv("BUCKET_NAME", "blog-assets"),
		},
	}
}
