package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds run defaults loaded from an optional config.yaml; CLI flags
// override anything set here.
type Config struct {
	Run     RunConfig     `mapstructure:"run"`
	Backend BackendConfig `mapstructure:"backend"`
	Present PresentConfig `mapstructure:"present"`
}

type RunConfig struct {
	Mode       string   `mapstructure:"mode"`
	BatchSize  int      `mapstructure:"batch_size"`
	NumClasses int      `mapstructure:"num_classes"`
	InputMode  string   `mapstructure:"input_mode"`
	Extensions []string `mapstructure:"extensions"`
}

type BackendConfig struct {
	// LibraryPath points at the onnxruntime shared library; empty uses the
	// platform default lookup.
	LibraryPath string `mapstructure:"library_path"`
	ImageSize   int    `mapstructure:"image_size"`
}

type PresentConfig struct {
	OutDir         string `mapstructure:"out_dir"`
	ServeAddr      string `mapstructure:"serve_addr"`
	ThumbnailWidth int    `mapstructure:"thumbnail_width"`
}

// Load reads configuration from a YAML file.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// New loads config.yaml from the working directory, falling back to the
// defaults when the file is absent.
func New() *Config {
	cfg, err := Load("config.yaml")
	if err != nil {
		return getDefaultConfig()
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("run.mode", "debug")
	v.SetDefault("run.batch_size", 32)
	v.SetDefault("run.num_classes", 1001)
	v.SetDefault("run.input_mode", "both")
	v.SetDefault("run.extensions", []string{"jpg", "png"})
	v.SetDefault("backend.library_path", "")
	v.SetDefault("backend.image_size", 0)
	v.SetDefault("present.out_dir", "")
	v.SetDefault("present.serve_addr", "")
	v.SetDefault("present.thumbnail_width", 128)
}

func getDefaultConfig() *Config {
	return &Config{
		Run: RunConfig{
			Mode:       "debug",
			BatchSize:  32,
			NumClasses: 1001,
			InputMode:  "both",
			Extensions: []string{"jpg", "png"},
		},
		Present: PresentConfig{
			ThumbnailWidth: 128,
		},
	}
}
