package config

const (
	EnvCORSEnabled        = "MOODLENS_CORS_ENABLED"
	EnvCORSOrigins        = "MOODLENS_CORS_ORIGINS"
	EnvCORSAllowedMethods = "MOODLENS_CORS_ALLOWED_METHODS"
	EnvCORSAllowedHeaders = "MOODLENS_CORS_ALLOWED_HEADERS"
	EnvCORSMaxAge         = "MOODLENS_CORS_MAX_AGE"
)

// CORSConfig holds CORS policy settings. An origin of "*" allows any caller,
// which is the default since browsers post straight to this service.
type CORSConfig struct {
	Disabled       *bool    `toml:"disabled"`
	Origins        []string `toml:"origins"`
	AllowedMethods []string `toml:"allowed_methods"`
	AllowedHeaders []string `toml:"allowed_headers"`
	MaxAge         int      `toml:"max_age"`
}

func (c *CORSConfig) Enabled() bool {
	return c.Disabled == nil || !*c.Disabled
}

func (c *CORSConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return nil
}

func (c *CORSConfig) Merge(overlay *CORSConfig) {
	if overlay.Disabled != nil {
		c.Disabled = overlay.Disabled
	}
	if overlay.Origins != nil {
		c.Origins = overlay.Origins
	}
	if overlay.AllowedMethods != nil {
		c.AllowedMethods = overlay.AllowedMethods
	}
	if overlay.AllowedHeaders != nil {
		c.AllowedHeaders = overlay.AllowedHeaders
	}
	if overlay.MaxAge > 0 {
		c.MaxAge = overlay.MaxAge
	}
}

func (c *CORSConfig) loadDefaults() {
	if len(c.Origins) == 0 {
		c.Origins = []string{"*"}
	}
	if len(c.AllowedMethods) == 0 {
		c.AllowedMethods = []string{"POST", "GET", "OPTIONS"}
	}
	if len(c.AllowedHeaders) == 0 {
		c.AllowedHeaders = []string{"Content-Type"}
	}
	if c.MaxAge <= 0 {
		c.MaxAge = 3600
	}
}

func (c *CORSConfig) loadEnv() {
	if v, ok := lookupBool(EnvCORSEnabled); ok {
		disabled := !v
		c.Disabled = &disabled
	}
	envList(EnvCORSOrigins, &c.Origins)
	envList(EnvCORSAllowedMethods, &c.AllowedMethods)
	envList(EnvCORSAllowedHeaders, &c.AllowedHeaders)
	envInt(EnvCORSMaxAge, &c.MaxAge)
}
