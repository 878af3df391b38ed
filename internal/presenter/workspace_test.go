package presenter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muntakson/salama/internal/i18n"
	"github.com/muntakson/salama/internal/models"
)

func TestWorkspaceKeepsStateAcrossSnapshots(t *testing.T) {
	ws := NewWorkspace(&fakeAPI{}, time.Hour)

	p := ws.Presenter("v1", &models.TrainingCard{ID: 1, Title: "Old", LikeCount: 1})
	p.ToggleSection(SectionText)

	again := ws.Presenter("v1", &models.TrainingCard{ID: 1, Title: "New", LikeCount: 2})
	assert.Same(t, p, again)
	assert.True(t, again.Expanded(SectionText))
	assert.Equal(t, "New", again.View(i18n.English).Title)
	assert.Equal(t, int64(2), again.View(i18n.English).Likes)

	other := ws.Presenter("v2", &models.TrainingCard{ID: 1, Title: "New"})
	assert.NotSame(t, p, other)
	assert.False(t, other.Expanded(SectionText))

	found, ok := ws.Lookup("v1", 1)
	require.True(t, ok)
	assert.Same(t, p, found)

	_, ok = ws.Lookup("v1", 2)
	assert.False(t, ok)
	_, ok = ws.Lookup("nobody", 1)
	assert.False(t, ok)
}

func TestWorkspaceSweep(t *testing.T) {
	ws := NewWorkspace(&fakeAPI{}, time.Hour)
	start := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

	ws.now = func() time.Time { return start }
	ws.Presenter("idle", &models.TrainingCard{ID: 1})

	ws.now = func() time.Time { return start.Add(50 * time.Minute) }
	ws.Presenter("active", &models.TrainingCard{ID: 1})

	removed, err := ws.Sweep(context.Background(), start.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, ws.Len())

	_, ok := ws.Lookup("active", 1)
	assert.True(t, ok)
}
