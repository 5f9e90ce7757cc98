package config

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestOptimizeGCSetsGCPercent(t *testing.T) {
	original := debug.SetGCPercent(100)
	defer debug.SetGCPercent(original)

	OptimizeGC(zap.NewNop(), &GCConfig{GCPercent: 250, MaxProcs: -1})

	previous := debug.SetGCPercent(250)
	assert.Equal(t, 250, previous, "expected OptimizeGC to have set GC percent to 250")
}

func TestOptimizeGCWithoutBallastDoesNotPanic(t *testing.T) {
	original := debug.SetGCPercent(100)
	defer debug.SetGCPercent(original)

	OptimizeGC(zap.NewNop(), &GCConfig{
		GCPercent:         200,
		EnableMemoryLimit: false,
		EnableBallastHeap: false,
	})
}
