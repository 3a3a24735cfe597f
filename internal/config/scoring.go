package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ScoringConfig tunes the leaderboard score weights and the follow-up
// task due offset. Weights are applied as
// paidRevenue*PaidRevenueWeight + newOrdersValue*NewOrdersValueWeight +
// conversionRate*ConversionWeight.
type ScoringConfig struct {
	PaidRevenueWeight    float64 `mapstructure:"paidRevenueWeight"`
	NewOrdersValueWeight float64 `mapstructure:"newOrdersValueWeight"`
	ConversionWeight     float64 `mapstructure:"conversionWeight"`
	FollowUpDueDays      int     `mapstructure:"followUpDueDays"`
}

func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		PaidRevenueWeight:    0.6,
		NewOrdersValueWeight: 0.1,
		ConversionWeight:     0.3,
		FollowUpDueDays:      3,
	}
}

// ScoringConfigHolder serves the current scoring config and hot-reloads
// it when the backing file changes.
type ScoringConfigHolder struct {
	current atomic.Value // holds ScoringConfig
}

func NewScoringConfigHolder() (*ScoringConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("scoring")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/royalprecast/config")
	v.AddConfigPath("/etc/royalprecast")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ROYALPRECAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultScoringConfig()
	v.SetDefault("scoring.paidRevenueWeight", defaults.PaidRevenueWeight)
	v.SetDefault("scoring.newOrdersValueWeight", defaults.NewOrdersValueWeight)
	v.SetDefault("scoring.conversionWeight", defaults.ConversionWeight)
	v.SetDefault("scoring.followUpDueDays", defaults.FollowUpDueDays)

	configFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		configFound = false
	}

	var cfg ScoringConfig
	if err := v.UnmarshalKey("scoring", &cfg); err != nil {
		return nil, err
	}
	if err := validateScoringConfig(cfg); err != nil {
		return nil, err
	}

	holder := &ScoringConfigHolder{}
	holder.current.Store(cfg)

	if configFound {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			var updated ScoringConfig
			if err := v.UnmarshalKey("scoring", &updated); err != nil {
				log.Printf("[scoring-config] reload failed: %v", err)
				return
			}
			if err := validateScoringConfig(updated); err != nil {
				log.Printf("[scoring-config] invalid config ignored: %v", err)
				return
			}
			holder.current.Store(updated)
			log.Printf("[scoring-config] reloaded from %s", e.Name)
		})
	}

	return holder, nil
}

// NewStaticScoringConfigHolder serves a fixed config with no file
// watching. Used by tests and tools.
func NewStaticScoringConfigHolder(cfg ScoringConfig) *ScoringConfigHolder {
	holder := &ScoringConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *ScoringConfigHolder) Get() ScoringConfig {
	return h.current.Load().(ScoringConfig)
}

func validateScoringConfig(cfg ScoringConfig) error {
	if cfg.PaidRevenueWeight < 0 || cfg.NewOrdersValueWeight < 0 || cfg.ConversionWeight < 0 {
		return errors.New("scoring weights cannot be negative")
	}
	if cfg.FollowUpDueDays <= 0 {
		return errors.New("scoring.followUpDueDays must be positive")
	}
	return nil
}
