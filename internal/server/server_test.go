package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		var c Config
		c.Postgres.Party.Addr = "localhost:5432"
		c.Postgres.Party.User = "party"
		c.Postgres.Party.Name = "party"
		c.Redis.Tally.Addrs = []string{"localhost:6379"}
		c.Redis.Pubsub.Addrs = []string{"localhost:6379"}
		return c
	}

	require.NoError(t, valid().validate())

	tests := map[string]func(c *Config){
		"missing postgres addr": func(c *Config) { c.Postgres.Party.Addr = "" },
		"missing postgres user": func(c *Config) { c.Postgres.Party.User = "" },
		"missing postgres name": func(c *Config) { c.Postgres.Party.Name = "" },
		"missing tally redis":   func(c *Config) { c.Redis.Tally.Addrs = nil },
		"missing pubsub redis":  func(c *Config) { c.Redis.Pubsub.Addrs = nil },
	}

	for name, breakIt := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			breakIt(&c)

			err := c.validate()
			require.Error(t, err)
			// The message must not say which credential is missing.
			assert.Equal(t, "server configuration error", err.Error())
		})
	}
}
