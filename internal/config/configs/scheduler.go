package configs

// Scheduler configures the post scheduler's reconciliation sweep. The
// spec is a standard five-field cron expression; the default runs the
// sweep once per minute.
type Scheduler struct {
	SweepSpec string `env:"SWEEP_SPEC" envDefault:"* * * * *"`
}
