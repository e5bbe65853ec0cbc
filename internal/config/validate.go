package config

import "fmt"

// Validate checks referential integrity between profiles and the
// wrapper/snippet catalogs they name, and clamps out-of-range scalars to
// their defaults rather than failing outright — mirroring the teacher's
// defensive-clamp style in its own Validate.
func (c *Config) Validate() error {
	for name, p := range c.Profiles {
		if p.Provider != "" {
			if _, ok := c.Providers[p.Provider]; !ok {
				return fmt.Errorf("profile %q references unknown provider %q", name, p.Provider)
			}
		}
		if p.Wrap != "" {
			if _, ok := c.Wrappers[p.Wrap]; !ok {
				return fmt.Errorf("profile %q references unknown wrapper %q", name, p.Wrap)
			}
		}
		for _, pre := range p.Pre {
			if _, ok := c.Pre[pre]; !ok {
				return fmt.Errorf("profile %q references unknown pre snippet %q", name, pre)
			}
		}
		for _, post := range p.Post {
			if _, ok := c.Post[post]; !ok {
				return fmt.Errorf("profile %q references unknown post snippet %q", name, post)
			}
		}
	}

	for name, w := range c.Wrappers {
		if w.Mode != "shell" && w.Mode != "exec" {
			return fmt.Errorf("wrapper %q has unknown mode %q", name, w.Mode)
		}
		if len(w.Template) == 0 {
			return fmt.Errorf("wrapper %q has an empty template", name)
		}
	}

	if c.Executor.StdinLimitBytes <= 0 {
		c.Executor.StdinLimitBytes = 1 << 20
	}
	if c.RAG.BatchSize <= 0 {
		c.RAG.BatchSize = 64
	}
	if c.RAG.BatchSize > 64 {
		c.RAG.BatchSize = 64
	}

	return nil
}
