package j2krecon

import (
	"os"
	"strconv"
	"strings"

	"github.com/ajroetker/go-j2krecon/internal/logging"
	"github.com/pkg/errors"
)

// Config holds the settings of a reconstruction run driven by the command
// line tool.
type Config struct {
	// Tiling
	TileWidth  int `env:"J2K_TILE_WIDTH" default:"0"`
	TileHeight int `env:"J2K_TILE_HEIGHT" default:"0"`
	ImageX     int `env:"J2K_IMAGE_X" default:"0"`
	ImageY     int `env:"J2K_IMAGE_Y" default:"0"`
	TileX      int `env:"J2K_TILE_X" default:"0"`
	TileY      int `env:"J2K_TILE_Y" default:"0"`

	// Decomposition
	Levels        int     `env:"J2K_LEVELS" default:"5"`
	CodeBlockSize int     `env:"J2K_CBLK_SIZE" default:"64"`
	Lossy         bool    `env:"J2K_LOSSY" default:"false"`
	Step          float64 `env:"J2K_STEP" default:"0.125"`
	ROIShift      int     `env:"J2K_ROI_SHIFT" default:"0"`

	// Reconstruction
	ResLevel int    `env:"J2K_RES_LEVEL" default:"-1"`
	LogLevel string `env:"J2K_LOG_LEVEL" default:"warn"`
}

// LoadOptions holds command-line overrides. Zero values leave the
// environment or default value in place.
type LoadOptions struct {
	TileSize int
	Levels   int
	ResLevel *int
	ROIShift int
	Lossy    bool
	LogLevel string
}

// LoadConfig reads J2K_* environment variables, applies overrides and
// validates the result.
func LoadConfig(opts LoadOptions) (*Config, error) {
	cfg := &Config{
		TileWidth:     getIntWithDefault("J2K_TILE_WIDTH", 0),
		TileHeight:    getIntWithDefault("J2K_TILE_HEIGHT", 0),
		ImageX:        getIntWithDefault("J2K_IMAGE_X", 0),
		ImageY:        getIntWithDefault("J2K_IMAGE_Y", 0),
		TileX:         getIntWithDefault("J2K_TILE_X", 0),
		TileY:         getIntWithDefault("J2K_TILE_Y", 0),
		Levels:        getIntWithDefault("J2K_LEVELS", 5),
		CodeBlockSize: getIntWithDefault("J2K_CBLK_SIZE", 64),
		Lossy:         getBoolWithDefault("J2K_LOSSY", false) || opts.Lossy,
		Step:          getFloatWithDefault("J2K_STEP", DefaultStep),
		ROIShift:      getIntWithDefault("J2K_ROI_SHIFT", 0),
		ResLevel:      getIntWithDefault("J2K_RES_LEVEL", -1),
		LogLevel:      getOverrideOrEnv(opts.LogLevel, "J2K_LOG_LEVEL", "warn"),
	}
	if opts.TileSize > 0 {
		cfg.TileWidth, cfg.TileHeight = opts.TileSize, opts.TileSize
	}
	if opts.Levels > 0 {
		cfg.Levels = opts.Levels
	}
	if opts.ResLevel != nil {
		cfg.ResLevel = *opts.ResLevel
	}
	if opts.ROIShift > 0 {
		cfg.ROIShift = opts.ROIShift
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// Validate checks the configuration for values no stage would accept.
func (c *Config) Validate() error {
	if c.TileWidth < 0 || c.TileHeight < 0 {
		return errors.Errorf("tile size %dx%d must not be negative", c.TileWidth, c.TileHeight)
	}
	if c.ImageX < 0 || c.ImageY < 0 || c.TileX < 0 || c.TileY < 0 {
		return errors.New("image and tiling origins must not be negative")
	}
	if c.TileX > c.ImageX || c.TileY > c.ImageY {
		return errors.Errorf("tiling origin (%d,%d) beyond image origin (%d,%d)", c.TileX, c.TileY, c.ImageX, c.ImageY)
	}
	if c.Levels < 0 || c.Levels > 32 {
		return errors.Errorf("decomposition levels %d out of range", c.Levels)
	}
	if c.CodeBlockSize < 4 || c.CodeBlockSize > 1024 || c.CodeBlockSize&(c.CodeBlockSize-1) != 0 {
		return errors.Errorf("code-block size %d must be a power of two in [4,1024]", c.CodeBlockSize)
	}
	if c.Step <= 0 {
		return errors.Errorf("quantization step %g must be positive", c.Step)
	}
	if c.ROIShift < 0 || c.ROIShift > 30 {
		return errors.Errorf("ROI shift %d out of range", c.ROIShift)
	}
	if c.ResLevel < -1 {
		return errors.Errorf("resolution level %d out of range", c.ResLevel)
	}
	if _, ok := logging.ParseLevel(c.LogLevel); !ok {
		return errors.Errorf("invalid log level: %s", c.LogLevel)
	}
	return nil
}

// Filter returns the wavelet filter selected by the configuration.
func (c *Config) Filter() WaveletType {
	if c.Lossy {
		return Wavelet97
	}
	return Wavelet53
}

// getEnvWithDefault gets environment variable with default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getOverrideOrEnv returns the override when set, else the environment value
func getOverrideOrEnv(override, key, defaultValue string) string {
	if override != "" {
		return override
	}
	return getEnvWithDefault(key, defaultValue)
}

// getIntWithDefault gets integer environment variable with default value
func getIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getFloatWithDefault gets float environment variable with default value
func getFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getBoolWithDefault gets boolean environment variable with default value
func getBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
