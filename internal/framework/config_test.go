package framework

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscriberConfig_WithDefaults(t *testing.T) {
	cfg := SubscriberConfig{QueueName: "parcel_feasibility", Rate: 50 * time.Millisecond}
	got := cfg.withDefaults()

	assert.Equal(t, 1, got.Concurrency)
	assert.Equal(t, DefaultConsumeTimeout, got.Timeout)
	assert.Equal(t, DefaultTTR, got.TTR)
	assert.Equal(t, DefaultErrorBackoff, got.ErrorBackoff)
	assert.Equal(t, 50*time.Millisecond, got.Rate)
	assert.Zero(t, cfg.Concurrency, "original left untouched")
}

func TestProcessorConfig_WithDefaults(t *testing.T) {
	got := ProcessorConfig{Concurrency: 4, Timeout: 5 * time.Second}.withDefaults()
	assert.Equal(t, 4, got.Concurrency)
	assert.Equal(t, 5*time.Second, got.Timeout)

	got = ProcessorConfig{BufferSize: -1}.withDefaults()
	assert.Equal(t, 1, got.Concurrency)
	assert.Equal(t, 0, got.BufferSize)
	assert.Equal(t, DefaultJobTimeout, got.Timeout)
}
