package main

import (
	"fmt"

	goParse "github.com/MrEthical07/goParse"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// loadConfig layers configuration: defaults, GOPARSE_* environment, the YAML
// file at path (if any), then flags the user actually set.
func loadConfig(path string, flags *pflag.FlagSet) (goParse.Config, error) {
	cfg, err := goParse.LoadConfigFromEnv()
	if err != nil {
		return goParse.Config{}, err
	}

	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return goParse.Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	changedOnly := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
		if !f.Changed || f.Name == "config" || f.Name == "output" {
			return "", nil
		}
		return f.Name, posflag.FlagVal(flags, f)
	})
	if err := k.Load(changedOnly, nil); err != nil {
		return goParse.Config{}, fmt.Errorf("load flags: %w", err)
	}

	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return goParse.Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// newLogger builds a production logger with the encoding and level from cfg.
func newLogger(cfg goParse.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	prodConfig := zap.NewProductionConfig()
	prodConfig.Level = zap.NewAtomicLevelAt(level)
	prodConfig.Encoding = cfg.Encoding
	prodConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	prodConfig.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	prodConfig.OutputPaths = []string{"stderr"}
	return prodConfig.Build()
}
