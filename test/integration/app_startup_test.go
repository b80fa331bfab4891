package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sentio/internal/app"
	"github.com/ternarybob/sentio/internal/common"
)

// TestApplicationStartup boots the full application against a temporary
// store and verifies every service and handler comes up wired.
func TestApplicationStartup(t *testing.T) {
	config := common.NewDefaultConfig()
	config.Storage.Badger.Path = t.TempDir()
	config.Embeddings.Mode = "mock"
	config.Scheduler.Enabled = true

	application, err := app.New(config, arbor.NewLogger())
	require.NoError(t, err, "Application should initialize")
	t.Log("✓ Application initialized")

	assert.NotNil(t, application.Config, "Config should be set")
	assert.NotNil(t, application.Logger, "Logger should be set")
	assert.NotNil(t, application.Dictionaries, "Dictionaries should be loaded")
	assert.NotNil(t, application.Normalizer, "Normalizer should be created")

	require.NotNil(t, application.StorageManager, "StorageManager should be created")
	assert.NotNil(t, application.StorageManager.DB(), "Badger handle should be open")
	assert.NotNil(t, application.StorageManager.StoryStorage(), "Story storage should be available")
	t.Log("✓ Storage initialized")

	assert.NotNil(t, application.EventService, "EventService should be created")
	assert.NotNil(t, application.EmbeddingService, "EmbeddingService should be created")
	assert.NotNil(t, application.NERService, "NERService should be created")
	assert.NotNil(t, application.DedupService, "DedupService should be created")
	assert.NotNil(t, application.ExtractorService, "ExtractorService should be created")
	assert.NotNil(t, application.PipelineService, "PipelineService should be created")
	assert.NotNil(t, application.QueryService, "QueryService should be created")
	require.NotNil(t, application.SchedulerService, "SchedulerService should be created")
	t.Log("✓ Services initialized")

	assert.NotNil(t, application.NewsHandler, "NewsHandler should be created")
	assert.NotNil(t, application.QueryHandler, "QueryHandler should be created")
	assert.NotNil(t, application.StoryHandler, "StoryHandler should be created")
	assert.NotNil(t, application.StatusHandler, "StatusHandler should be created")
	assert.NotNil(t, application.WSHandler, "WebSocket handler should be created")
	t.Log("✓ Handlers initialized")

	names := make([]string, 0, 2)
	for _, status := range application.SchedulerService.JobStatuses() {
		names = append(names, status.Name)
	}
	assert.Contains(t, names, "store-gc", "Value-log GC job should be registered")
	assert.Contains(t, names, "corpus-stats", "Corpus stats job should be registered")
	t.Log("✓ Maintenance jobs registered")

	assert.Equal(t, config.Embeddings.Dimension, application.EmbeddingService.Dimension(),
		"Embedder should honor the configured dimension")

	require.NoError(t, application.Close(), "Application should close cleanly")
	t.Log("✓ Application closed")
}

// TestApplicationStartupSchedulerDisabled verifies the application comes up
// without a scheduler when maintenance jobs are turned off.
func TestApplicationStartupSchedulerDisabled(t *testing.T) {
	config := common.NewDefaultConfig()
	config.Storage.Badger.Path = t.TempDir()
	config.Embeddings.Mode = "mock"
	config.Scheduler.Enabled = false

	application, err := app.New(config, arbor.NewLogger())
	require.NoError(t, err, "Application should initialize without scheduler")

	assert.Nil(t, application.SchedulerService, "SchedulerService should stay unset")
	assert.NotNil(t, application.PipelineService, "PipelineService should still be created")
	assert.NotNil(t, application.StatusHandler, "StatusHandler should tolerate a nil scheduler")

	require.NoError(t, application.Close())
}
