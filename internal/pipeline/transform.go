package pipeline

import (
	"time"

	"github.com/couchcryptid/obswell-etl/internal/config"
	"github.com/couchcryptid/obswell-etl/internal/domain"
)

// Options selects the stages of the transform chain. Stages always run in
// the order reshape, depth, calendar, weekly.
type Options struct {
	Selection  domain.Selection
	Depth      bool
	Calendar   bool
	Weekly     bool
	Epoch      time.Time
	DateFormat string
}

// DefaultOptions runs every stage over the default variables with the
// default epoch.
func DefaultOptions() Options {
	epoch, _ := domain.ParseEpoch(domain.DefaultEpoch)
	return Options{
		Selection: domain.Selection{Variables: domain.DefaultVariables},
		Depth:     true,
		Calendar:  true,
		Weekly:    true,
		Epoch:     epoch,
	}
}

// OptionsFromConfig builds Options from configuration, with every stage
// enabled.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	epoch, err := domain.ParseEpoch(cfg.Epoch)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Selection: domain.Selection{
			Variables:  cfg.Variables,
			StartBlock: cfg.StartBlock,
			EndBlock:   cfg.EndBlock,
		},
		Depth:      true,
		Calendar:   true,
		Weekly:     true,
		Epoch:      epoch,
		DateFormat: cfg.DateFormat,
	}, nil
}
