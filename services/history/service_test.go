package history

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/carrotwaxr/peek-stash-browser-sub011/models"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(":memory:", 95)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestSaveProgressAndResumeState(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SaveProgress(ctx, "scene-1", 125.4, 600))
	require.NoError(t, svc.ReportQualityUsed(ctx, "scene-1", models.Quality720p))

	info, err := svc.GetResumeState(ctx, "scene-1")
	require.NoError(t, err)
	require.Equal(t, 125.4, info.ResumeTime)
	require.Equal(t, models.Quality720p, info.LastQuality)
}

func TestResumeStateUnknownItem(t *testing.T) {
	svc := newTestService(t)

	info, err := svc.GetResumeState(context.Background(), "never-played")
	require.NoError(t, err)
	require.Zero(t, info.ResumeTime)
	require.Empty(t, info.LastQuality)
}

func TestIncrementPlayCount(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.IncrementPlayCount(ctx, "scene-1"))
	require.NoError(t, svc.IncrementPlayCount(ctx, "scene-1"))

	p, err := svc.GetProgress(ctx, "scene-1")
	require.NoError(t, err)
	require.Equal(t, 2, p.PlayCount)
	require.False(t, p.LastPlayedAt.IsZero())
}

func TestListProgressExcludesFinished(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SaveProgress(ctx, "in-progress", 240, 600))  // 40%
	require.NoError(t, svc.SaveProgress(ctx, "finished", 576, 600))    // 96%, past threshold
	require.NoError(t, svc.ReportQualityUsed(ctx, "quality-only", models.Quality1080p))

	list, err := svc.ListProgress(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "in-progress", list[0].ItemID)
	require.Equal(t, 240.0, list[0].ResumeTime)
}

func TestListProgressOrdering(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SaveProgress(ctx, "older", 10, 600))
	require.NoError(t, svc.SaveProgress(ctx, "newer", 20, 600))
	require.NoError(t, svc.SaveProgress(ctx, "older", 30, 600)) // touch again, becomes most recent

	list, err := svc.ListProgress(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "older", list[0].ItemID)
}

func TestDeleteProgress(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SaveProgress(ctx, "scene-1", 100, 600))
	require.NoError(t, svc.DeleteProgress(ctx, "scene-1"))

	_, err := svc.GetProgress(ctx, "scene-1")
	require.True(t, errors.Is(err, ErrProgressNotFound))

	info, err := svc.GetResumeState(ctx, "scene-1")
	require.NoError(t, err)
	require.Zero(t, info.ResumeTime)
}
