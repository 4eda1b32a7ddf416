package container

import (
	"log/slog"
	"runtime"
)

type Config struct {
	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Workers bounds how many projects are compressed or decompressed at
	// once. Zero means runtime.GOMAXPROCS(0).
	Workers int

	// Progress, when set, is called once per project processed by a load or
	// a save. Calls are serialized but may come in any slot order.
	Progress func(slot int)
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	return c
}
