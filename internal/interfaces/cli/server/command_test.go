package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapEnvToGinMode(t *testing.T) {
	tests := map[string]string{
		"production":  "release",
		"prod":        "release",
		"release":     "release",
		"test":        "test",
		"development": "debug",
		"":            "debug",
	}

	for in, want := range tests {
		assert.Equal(t, want, MapEnvToGinMode(in), in)
	}
}

func TestResolveEnv(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("NODE_ENV", "")
	assert.Equal(t, "development", ResolveEnv("development"))

	t.Setenv("NODE_ENV", "production")
	assert.Equal(t, "production", ResolveEnv("development"))

	t.Setenv("ENV", "test")
	assert.Equal(t, "test", ResolveEnv("development"))
}
