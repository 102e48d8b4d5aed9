package server

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API.
	ApiKey string `mapstructure:"api_key" default:""`
	// Mode controls whether the API may write to destinations (plan, apply).
	Mode string `mapstructure:"mode" default:"plan"`
}

const (
	// ModePlan only computes plans; run requests are forced to dry run.
	ModePlan = "plan"
	// ModeApply lets run requests apply operations.
	ModeApply = "apply"
)

// IsValidMode checks if the configured mode is valid.
func (c Config) IsValidMode() bool {
	switch c.Mode {
	case ModePlan, ModeApply:
		return true
	default:
		return false
	}
}

// AllowsApply reports whether operations may be applied through the API.
func (c Config) AllowsApply() bool {
	return c.Mode == ModeApply
}
