package configs

// Lottery configures the campaign engine. DefaultWinProbability is the
// instant-draw win percentage applied when a campaign's rules carry no
// explicit probability.
type Lottery struct {
	DefaultWinProbability int `env:"DEFAULT_WIN_PROBABILITY" envDefault:"10"`
}
