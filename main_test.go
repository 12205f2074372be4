package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type syncCounter struct {
	bytes.Buffer
	syncs int
}

func (s *syncCounter) Sync() error {
	s.syncs++
	return nil
}

func newCountingLogger(w *syncCounter) *zap.Logger {
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	return zap.New(zapcore.NewCore(enc, w, zapcore.InfoLevel))
}

func TestSyncLogger_FlushesReplacedLogger(t *testing.T) {
	first, tee := &syncCounter{}, &syncCounter{}
	logger := newCountingLogger(first)
	flush := syncLogger(&logger)

	logger = newCountingLogger(tee)
	logger.Info("shutting down")
	flush()

	assert.Equal(t, 1, tee.syncs)
	assert.Zero(t, first.syncs)
	assert.Contains(t, tee.String(), "shutting down")
}
