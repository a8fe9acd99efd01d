package relay

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/dgnsrekt/paneview/internal/view"
	"gopkg.in/yaml.v3"
)

var knownFeeds = []string{view.FeedTooltip, view.FeedRange, view.FeedPanes, view.FeedData}

// FeedConfig enables one view feed on the relay.
type FeedConfig struct {
	Name          string `yaml:"name"`
	MinIntervalMS int    `yaml:"min_interval_ms,omitempty"`
}

func (f FeedConfig) MinInterval() time.Duration {
	return time.Duration(f.MinIntervalMS) * time.Millisecond
}

// RelayConfig is the top-level YAML configuration.
type RelayConfig struct {
	Feeds []FeedConfig `yaml:"feeds"`
}

// DefaultConfig relays every feed unthrottled.
func DefaultConfig() *RelayConfig {
	cfg := &RelayConfig{}
	for _, name := range knownFeeds {
		cfg.Feeds = append(cfg.Feeds, FeedConfig{Name: name})
	}
	return cfg
}

// LoadConfig reads and validates a relay YAML config file. An empty path or
// a missing file yields DefaultConfig.
func LoadConfig(path string) (*RelayConfig, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("relay config: %w", err)
	}
	var cfg RelayConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("relay config: %w", err)
	}
	for i, f := range cfg.Feeds {
		if f.Name == "" {
			return nil, fmt.Errorf("relay config: feed[%d] missing name", i)
		}
		if !known(f.Name) {
			return nil, fmt.Errorf("relay config: feed[%d] unknown feed %q", i, f.Name)
		}
		if f.MinIntervalMS < 0 {
			return nil, fmt.Errorf("relay config: feed[%d] (%s) negative min_interval_ms", i, f.Name)
		}
	}
	return &cfg, nil
}

func known(name string) bool {
	for _, k := range knownFeeds {
		if k == name {
			return true
		}
	}
	return false
}
