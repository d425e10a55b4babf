package cmd

import (
	"go.uber.org/zap"

	"github.com/surgeprotector/surgeprotector/internal/config"
	"github.com/surgeprotector/surgeprotector/internal/core/sampler"
	"github.com/surgeprotector/surgeprotector/internal/observability"
)

// newSampler builds the connection sampler for cfg. Tests replace it.
var newSampler = func(cfg *config.Config) (sampler.Sampler, error) {
	families, err := sampler.ParseFamilies(cfg.Sampler.Families)
	if err != nil {
		return nil, err
	}

	var s sampler.Sampler = sampler.NewSystem(families)
	if len(cfg.Sampler.Exempt) == 0 {
		return s, nil
	}

	exempt, err := sampler.NewExempt(s, cfg.Sampler.Exempt)
	if err != nil {
		return nil, err
	}
	if observability.CLILogger != nil {
		observability.CLILogger.Debug("Exempt networks loaded", zap.Int("networks", exempt.Len()))
	}
	return exempt, nil
}
