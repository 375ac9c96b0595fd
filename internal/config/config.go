package config

import "time"

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
	StoreDriverMemory   = "memory"

	ContentStoreFS = "fs"
	ContentStoreS3 = "s3"
)

type Config struct {
	App       AppConfig       `env-prefix:"APP_"`
	HTTP      HTTPConfig      `env-prefix:"HTTP_"`
	GRPC      GRPCConfig      `env-prefix:"GRPC_"`
	Database  DatabaseConfig  `env-prefix:"DB_"`
	Mongo     MongoConfig     `env-prefix:"MONGO_"`
	S3        S3Config        `env-prefix:"S3_"`
	Uploads   UploadsConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig `env-prefix:"RATE_LIMIT_"`

	StoreDriver  string `env:"STORE_DRIVER" env-default:"postgres"`
	ContentStore string `env:"CONTENT_STORE" env-default:"fs"`
}

type AppConfig struct {
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`
	Pretty   bool   `env:"PRETTY" env-default:"false"`
}

type HTTPConfig struct {
	Addr string `env:"ADDR" env-default:":8000"`
	// TrustedProxies lists proxy IPs or CIDRs allowed to set X-Forwarded-For.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

type GRPCConfig struct {
	Addr                 string        `env:"ADDR" env-default:":50051"`
	KeepaliveTime        time.Duration `env:"KEEPALIVE_TIME" env-default:"60s"`
	KeepaliveTimeout     time.Duration `env:"KEEPALIVE_TIMEOUT" env-default:"30s"`
	MaxConcurrentStreams uint32        `env:"MAX_CONCURRENT_STREAMS" env-default:"50"`
}

type DatabaseConfig struct {
	Port          string `env:"PORT" env-default:"5432"`
	Host          string `env:"HOST" env-default:"localhost"`
	Name          string `env:"NAME" env-default:"postgres"`
	User          string `env:"USER" env-default:"user"`
	Password      string `env:"PASSWORD"`
	RetryAttempts uint   `env:"RETRY_ATTEMPTS" env-default:"5"`
}

type MongoConfig struct {
	URI           string `env:"URI" env-default:"mongodb://localhost:27017"`
	Database      string `env:"DB" env-default:"notes_demo"`
	Collection    string `env:"COLLECTION" env-default:"notes"`
	RetryAttempts uint   `env:"RETRY_ATTEMPTS" env-default:"5"`
}

type S3Config struct {
	Endpoint        string `env:"ENDPOINT"`
	Region          string `env:"REGION" env-default:"us-east-1"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY"`
	Bucket          string `env:"BUCKET"`
	PublicURL       string `env:"PUBLIC_URL"`
	UsePathStyle    bool   `env:"USE_PATH_STYLE" env-default:"false"`
}

type UploadsConfig struct {
	Dir             string `env:"UPLOAD_DIR" env-default:"uploads"`
	URLPrefix       string `env:"UPLOAD_URL_PREFIX" env-default:"/uploads"`
	MaxFilesPerNote int    `env:"MAX_FILES_PER_NOTE" env-default:"5"`
	MaxFileSizeMB   int64  `env:"MAX_FILE_SIZE_MB" env-default:"5"`
}

// MaxFileSize is the per-file limit in bytes.
func (c UploadsConfig) MaxFileSize() int64 {
	return c.MaxFileSizeMB << 20
}

type CORSConfig struct {
	FrontendOrigin string   `env:"FRONTEND_ORIGIN" env-default:"http://localhost:3000"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-default:"http://localhost:3000,http://127.0.0.1:3000"`
}

// Origins returns the deduplicated list of allowed origins.
func (c CORSConfig) Origins() []string {
	seen := make(map[string]struct{}, len(c.AllowedOrigins)+1)
	origins := make([]string, 0, len(c.AllowedOrigins)+1)

	for _, o := range append([]string{c.FrontendOrigin}, c.AllowedOrigins...) {
		if o == "" {
			continue
		}
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		origins = append(origins, o)
	}

	return origins
}

type RateLimitConfig struct {
	RPS   float64 `env:"RPS" env-default:"0"`
	Burst int     `env:"BURST" env-default:"10"`
}
