package genref

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Config tunes the pools of a Global and of the Heaps created from it.
type Config struct {
	// InitialBatch is the number of free slots a Heap first asks the Global
	// pool for when one of its free lists runs dry.
	InitialBatch int `envconfig:"INITIAL_BATCH" default:"32"`

	// MaxBatch caps the size of a batch request.
	MaxBatch int `envconfig:"MAX_BATCH" default:"1024"`

	// ArenaChunk is the number of slots in the first chunk an arena mints.
	ArenaChunk int `envconfig:"ARENA_CHUNK" default:"32"`

	// ArenaMaxChunk caps the number of slots minted in one chunk.
	ArenaMaxChunk int `envconfig:"ARENA_MAX_CHUNK" default:"4096"`

	// Logger receives debug events from the pools. Defaults to the logrus
	// standard logger.
	Logger logrus.FieldLogger `ignored:"true"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		InitialBatch:  32,
		MaxBatch:      1024,
		ArenaChunk:    32,
		ArenaMaxChunk: 4096,
		Logger:        logrus.StandardLogger(),
	}
}

// ConfigFromEnv loads a Config from environment variables named with the
// given prefix, such as GENREF_MAX_BATCH for the prefix "genref".
func ConfigFromEnv(prefix string) (Config, error) {
	cfg := DefaultConfig()
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "genref: loading config")
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.InitialBatch <= 0:
		return errors.Errorf("genref: invalid initial batch %d", c.InitialBatch)
	case c.MaxBatch < c.InitialBatch:
		return errors.Errorf("genref: max batch %d below initial batch %d", c.MaxBatch, c.InitialBatch)
	case c.ArenaChunk <= 0:
		return errors.Errorf("genref: invalid arena chunk %d", c.ArenaChunk)
	case c.ArenaMaxChunk < c.ArenaChunk:
		return errors.Errorf("genref: arena max chunk %d below arena chunk %d", c.ArenaMaxChunk, c.ArenaChunk)
	}
	if c.Logger == nil {
		c.Logger = logrus.StandardLogger()
	}
	return nil
}
