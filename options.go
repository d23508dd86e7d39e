package metasync

import (
	"github.com/G1enB1and/MediaManagerX/codec"
	"github.com/G1enB1and/MediaManagerX/log"
)

type EngineOptions struct {
	LogLevel      log.LogLevel
	LogFile       string
	NoTerminalLog bool
	JSONLog       bool
	ExtraCodecs   []codec.Codec
}

type EngineOption func(*EngineOptions) error

func newDefaultEngineOptions() *EngineOptions {
	return &EngineOptions{
		LogLevel: log.Info,
	}
}

func WithLogLevel(level log.LogLevel) EngineOption {
	return func(opts *EngineOptions) error {
		opts.LogLevel = level
		return nil
	}
}

func WithLogFile(logFile string) EngineOption {
	return func(opts *EngineOptions) error {
		opts.LogFile = logFile
		return nil
	}
}

func WithoutTerminalLog() EngineOption {
	return func(opts *EngineOptions) error {
		opts.NoTerminalLog = true
		return nil
	}
}

func WithJSONLog() EngineOption {
	return func(opts *EngineOptions) error {
		opts.JSONLog = true
		return nil
	}
}

// WithCodec registers an additional container codec beyond the built-in
// JPEG and PNG ones. New formats add a codec, not call-site branches.
func WithCodec(c codec.Codec) EngineOption {
	return func(opts *EngineOptions) error {
		opts.ExtraCodecs = append(opts.ExtraCodecs, c)
		return nil
	}
}
