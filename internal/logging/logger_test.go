package logging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwatts/pricewatch/internal/logging"
)

func TestNew(t *testing.T) {
	t.Run("development", func(t *testing.T) {
		logger, err := logging.New(true)
		require.NoError(t, err)
		assert.NotNil(t, logger)
		assert.True(t, logger.Core().Enabled(-1), "debug should be enabled in development")
	})

	t.Run("production", func(t *testing.T) {
		logger, err := logging.New(false)
		require.NoError(t, err)
		assert.NotNil(t, logger)
		assert.False(t, logger.Core().Enabled(-1), "debug should be disabled in production")
	})
}
