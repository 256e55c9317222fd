package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	AuditPolicyLog  = "log"
	AuditPolicyFail = "fail"
)

// RegistryRules are the tunable registry policies. They are reloaded from
// registry.yml without a restart.
type RegistryRules struct {
	SimilarMatchLimit int           `mapstructure:"similarMatchLimit"`
	NationalIDLength  int           `mapstructure:"nationalIdLength"`
	Transfers         TransferRules `mapstructure:"transfers"`
	Audit             AuditRules    `mapstructure:"audit"`
}

type TransferRules struct {
	RequireActiveSource    bool `mapstructure:"requireActiveSource"`
	RejectSameDealer       bool `mapstructure:"rejectSameDealer"`
	RejectDuplicatePending bool `mapstructure:"rejectDuplicatePending"`
}

type AuditRules struct {
	FailurePolicy string `mapstructure:"failurePolicy"`
}

func DefaultRegistryRules() RegistryRules {
	return RegistryRules{
		SimilarMatchLimit: 5,
		NationalIDLength:  12,
		Transfers: TransferRules{
			RequireActiveSource:    true,
			RejectSameDealer:       true,
			RejectDuplicatePending: true,
		},
		Audit: AuditRules{FailurePolicy: AuditPolicyLog},
	}
}

// FailOnAuditError reports whether a failed audit write should fail the request.
func (r RegistryRules) FailOnAuditError() bool {
	return strings.EqualFold(strings.TrimSpace(r.Audit.FailurePolicy), AuditPolicyFail)
}

type RulesHolder struct {
	current atomic.Value // holds RegistryRules
}

// NewStaticRulesHolder returns a holder that never reloads.
func NewStaticRulesHolder(rules RegistryRules) *RulesHolder {
	holder := &RulesHolder{}
	holder.current.Store(rules)
	return holder
}

func NewRulesHolder(cfg Config, log *zap.Logger) (*RulesHolder, error) {
	log = log.Named("registry.rules")
	v := viper.New()

	if cfg.RulesPath != "" {
		v.SetConfigFile(cfg.RulesPath)
	} else {
		v.SetConfigName("registry")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/dealerhub")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("DEALERHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultRegistryRules()
	v.SetDefault("registry.similarMatchLimit", defaults.SimilarMatchLimit)
	v.SetDefault("registry.nationalIdLength", defaults.NationalIDLength)
	v.SetDefault("registry.transfers.requireActiveSource", defaults.Transfers.RequireActiveSource)
	v.SetDefault("registry.transfers.rejectSameDealer", defaults.Transfers.RejectSameDealer)
	v.SetDefault("registry.transfers.rejectDuplicatePending", defaults.Transfers.RejectDuplicatePending)
	v.SetDefault("registry.audit.failurePolicy", defaults.Audit.FailurePolicy)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read registry rules: %w", err)
		}
		fileLoaded = false
	}

	var rules RegistryRules
	if err := v.UnmarshalKey("registry", &rules); err != nil {
		return nil, err
	}
	if err := validateRules(rules); err != nil {
		return nil, err
	}

	holder := NewStaticRulesHolder(rules)
	if !fileLoaded {
		log.Info("registry rules file not found, using defaults")
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated RegistryRules
		if err := v.UnmarshalKey("registry", &updated); err != nil {
			log.Warn("reload failed", zap.Error(err))
			return
		}
		if err := validateRules(updated); err != nil {
			log.Warn("invalid rules ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *RulesHolder) Get() RegistryRules {
	if h == nil {
		return DefaultRegistryRules()
	}
	return h.current.Load().(RegistryRules)
}

func validateRules(rules RegistryRules) error {
	if rules.SimilarMatchLimit <= 0 || rules.SimilarMatchLimit > 50 {
		return errors.New("registry.similarMatchLimit must be between 1 and 50")
	}
	if rules.NationalIDLength <= 0 {
		return errors.New("registry.nationalIdLength must be positive")
	}
	switch strings.ToLower(strings.TrimSpace(rules.Audit.FailurePolicy)) {
	case AuditPolicyLog, AuditPolicyFail:
	default:
		return fmt.Errorf("registry.audit.failurePolicy %q is not supported", rules.Audit.FailurePolicy)
	}
	return nil
}
