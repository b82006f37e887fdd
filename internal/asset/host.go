package asset

import "fmt"

// Drivers accepted by New.
const (
	DriverLocal = "local"
	DriverS3    = "s3"
)

// Config selects and configures a Host.
type Config struct {
	Driver  string
	Dir     string
	BaseURL string
	S3      S3Config
}

// New builds the Host named by cfg.Driver.
func New(cfg Config) (Host, error) {
	switch cfg.Driver {
	case DriverLocal, "":
		return NewLocalHost(cfg.Dir, cfg.BaseURL)
	case DriverS3:
		return NewS3Host(cfg.S3)
	default:
		return nil, fmt.Errorf("asset: unsupported driver %q", cfg.Driver)
	}
}
