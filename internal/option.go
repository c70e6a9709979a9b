package internal

// Option mutates the application state assembled by Run and RunMCP.
type Option func(*application)

type application struct {
	config *Config
}

// WithConfig supplies the configuration the entrypoints run with.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}
