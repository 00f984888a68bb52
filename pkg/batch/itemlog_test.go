package batch

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fieldnames = []string{"number", "timestamp", "title", "path", "uri"}

func TestItemLogAppendAndContains(t *testing.T) {
	path := filepath.Join(t.TempDir(), "completed.csv")

	log, err := OpenItemLog(path, fieldnames, "path", true, nil)
	require.NoError(t, err)
	defer log.Close()

	assert.Equal(t, 0, log.Len())
	assert.False(t, log.Contains("item-1.xml"))

	require.NoError(t, log.Append(Row{"number": "1", "path": "item-1.xml", "uri": "http://example.org/1"}))

	assert.Equal(t, 1, log.Len())
	assert.True(t, log.Contains("item-1.xml"))
}

func TestItemLogLenEqualsDistinctKeyCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "completed.csv")

	log, err := OpenItemLog(path, fieldnames, "path", true, nil)
	require.NoError(t, err)
	defer log.Close()

	require.NoError(t, log.Append(Row{"path": "a.xml"}))
	require.NoError(t, log.Append(Row{"path": "b.xml"}))
	require.NoError(t, log.Append(Row{"path": "a.xml"}))

	assert.Equal(t, 2, log.Len())
}

func TestItemLogReopenLoadsExistingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "completed.csv")

	first, err := OpenItemLog(path, fieldnames, "path", true, nil)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		require.NoError(t, first.Append(Row{"number": string(rune('0' + i)), "path": "item-" + string(rune('0'+i)) + ".xml"}))
	}
	require.NoError(t, first.Close())

	second, err := OpenItemLog(path, fieldnames, "path", true, nil)
	require.NoError(t, err)
	defer second.Close()

	assert.Equal(t, 4, second.Len())
	assert.True(t, second.Contains("item-0.xml"))
	assert.True(t, second.Contains("item-3.xml"))
}

func TestItemLogHeaderMismatchWarnsNotFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "completed.csv")

	first, err := OpenItemLog(path, []string{"path", "uri"}, "path", true, nil)
	require.NoError(t, err)
	require.NoError(t, first.Append(Row{"path": "a.xml", "uri": "http://example.org/a"}))
	require.NoError(t, first.Close())

	var warnings []string
	logger := &capturingLogger{warnings: &warnings}

	second, err := OpenItemLog(path, fieldnames, "path", true, logger)
	require.NoError(t, err)
	defer second.Close()

	assert.NotEmpty(t, warnings)
	assert.True(t, second.Contains("a.xml"))
}

func TestItemLogResumeScenarioProducesExactNewCount(t *testing.T) {
	dir := t.TempDir()
	completedPath := filepath.Join(dir, "completed.csv")

	completed, err := OpenItemLog(completedPath, fieldnames, "path", true, nil)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		require.NoError(t, completed.Append(Row{"path": "item-" + string(rune('0'+i)) + ".xml"}))
	}
	require.NoError(t, completed.Close())

	completed, err = OpenItemLog(completedPath, fieldnames, "path", true, nil)
	require.NoError(t, err)
	defer completed.Close()

	skippedPath := filepath.Join(dir, "skipped.csv")
	skipped, err := OpenItemLog(skippedPath, fieldnames, "path", true, nil)
	require.NoError(t, err)
	defer skipped.Close()

	newPosts := 0
	for i := 0; i < 10; i++ {
		path := "item-" + string(rune('0'+i)) + ".xml"
		if completed.Contains(path) {
			continue
		}

		newPosts++
		require.NoError(t, completed.Append(Row{"path": path}))
	}

	assert.Equal(t, 6, newPosts)
	assert.Equal(t, 0, skipped.Len())
	assert.Equal(t, 10, completed.Len())
}
