package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 2*time.Minute, cfg.Diagnosis.RequestTimeout)
	assert.Equal(t, 30*time.Second, cfg.Diagnosis.IdentifyTimeout)
	assert.Equal(t, 0.2, cfg.Diagnosis.MinDiseaseConfidence)
	assert.Equal(t, 3, cfg.Diagnosis.MaxDiseases)
	assert.True(t, cfg.Diagnosis.EmitProgress)
	assert.Equal(t, "memory", cfg.RateLimit.Backend)
	assert.Equal(t, "DIAGNOSIS_RESULT", cfg.Keys.ResultTopic)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DIAGNOSIS_REQUEST_TIMEOUT", "90s")
	t.Setenv("DIAGNOSIS_IDENTIFY_TIMEOUT", "12")
	t.Setenv("DIAGNOSIS_MIN_DISEASE_CONFIDENCE", "0.35")
	t.Setenv("DIAGNOSIS_EMIT_PROGRESS", "false")
	t.Setenv("RATE_LIMIT_BACKEND", "redis")
	t.Setenv("RATE_LIMIT_MAX", "25")
	t.Setenv("OTEL_ENABLED", "true")

	cfg := Load()

	assert.Equal(t, 90*time.Second, cfg.Diagnosis.RequestTimeout)
	assert.Equal(t, 12*time.Second, cfg.Diagnosis.IdentifyTimeout)
	assert.Equal(t, 0.35, cfg.Diagnosis.MinDiseaseConfidence)
	assert.False(t, cfg.Diagnosis.EmitProgress)
	assert.Equal(t, "redis", cfg.RateLimit.Backend)
	assert.Equal(t, 25, cfg.RateLimit.Max)
	assert.True(t, cfg.Tracing.Enabled)
}

func TestMalformedValuesFallBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_MAX", "many")
	t.Setenv("RATE_LIMIT_WINDOW", "soon")
	t.Setenv("DIAGNOSIS_EMIT_PROGRESS", "maybe")

	assert.Equal(t, 10, getEnvAsInt("RATE_LIMIT_MAX", 10))
	assert.Equal(t, time.Minute, getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute))
	assert.True(t, getEnvAsBool("DIAGNOSIS_EMIT_PROGRESS", true))
}
