package catalog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MiguelCoelho27/UALFlix/internal/model"
	"github.com/MiguelCoelho27/UALFlix/internal/store"
)

func seedBoth(t *testing.T, primary, secondary *store.MemoryStore, n int) []*model.Video {
	t.Helper()
	ctx := context.Background()

	videos := make([]*model.Video, 0, n)
	for i := 0; i < n; i++ {
		video := &model.Video{
			ID:          fmt.Sprintf("video-%02d", i),
			Title:       fmt.Sprintf("Video %d", i),
			Description: "seeded",
			Duration:    60,
			Genre:       "test",
			VideoURL:    fmt.Sprintf("http://upload:5001/stream/video-%02d.mp4", i),
			CreatedAt:   time.Now().UTC(),
		}
		require.NoError(t, primary.Insert(ctx, video))
		require.NoError(t, secondary.Insert(ctx, video.Clone()))
		videos = append(videos, video)
	}
	return videos
}

func TestAuditor_Check_Consistent(t *testing.T) {
	primary := store.NewMemoryStore()
	secondary := store.NewMemoryStore()
	seedBoth(t, primary, secondary, 5)

	auditor := NewAuditor(primary, secondary, 10, time.Second, nil, zap.NewNop())

	report, err := auditor.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.True(t, report.CountMatch)
	assert.Equal(t, int64(5), report.PrimaryCount)
	assert.Equal(t, int64(5), report.SecondaryCount)
	assert.Empty(t, report.Discrepancies)
	assert.False(t, report.CheckedAt.IsZero())

	assert.Same(t, report, auditor.Last())
}

func TestAuditor_Check_MissingOnSecondary(t *testing.T) {
	ctx := context.Background()
	primary := store.NewMemoryStore()
	secondary := store.NewMemoryStore()
	videos := seedBoth(t, primary, secondary, 4)

	require.NoError(t, secondary.Delete(ctx, videos[1].ID))

	auditor := NewAuditor(primary, secondary, 10, time.Second, nil, zap.NewNop())

	report, err := auditor.Check(ctx)
	require.NoError(t, err)
	assert.False(t, report.Consistent)
	assert.False(t, report.CountMatch)
	require.Len(t, report.Discrepancies, 1)
	assert.Equal(t, videos[1].ID, report.Discrepancies[0].VideoID)
	assert.Equal(t, model.MissingOnSecondary, report.Discrepancies[0].Issue)
}

func TestAuditor_Check_ViewCountMismatch(t *testing.T) {
	ctx := context.Background()
	primary := store.NewMemoryStore()
	secondary := store.NewMemoryStore()
	videos := seedBoth(t, primary, secondary, 3)

	_, err := primary.IncrementViews(ctx, videos[2].ID)
	require.NoError(t, err)

	auditor := NewAuditor(primary, secondary, 10, time.Second, nil, zap.NewNop())

	report, err := auditor.Check(ctx)
	require.NoError(t, err)
	// Counts match but the sampled record diverges.
	assert.True(t, report.CountMatch)
	assert.False(t, report.Consistent)
	require.Len(t, report.Discrepancies, 1)
	assert.Equal(t, videos[2].ID, report.Discrepancies[0].VideoID)
	assert.Equal(t, model.ViewCountMismatch, report.Discrepancies[0].Issue)
	assert.Equal(t, "primary=1 secondary=0", report.Discrepancies[0].Detail)
}

func TestAuditor_Check_SampleBounded(t *testing.T) {
	ctx := context.Background()
	primary := store.NewMemoryStore()
	secondary := store.NewMemoryStore()
	videos := seedBoth(t, primary, secondary, 6)

	// Divergence outside the first-N sample goes unreported; the count
	// comparison still flags the stores as divergent when rows differ.
	require.NoError(t, secondary.Delete(ctx, videos[5].ID))

	auditor := NewAuditor(primary, secondary, 3, time.Second, nil, zap.NewNop())

	report, err := auditor.Check(ctx)
	require.NoError(t, err)
	assert.False(t, report.CountMatch)
	assert.False(t, report.Consistent)
	assert.Empty(t, report.Discrepancies)
}

// stalledStore blocks Count until the per-call context expires.
type stalledStore struct {
	*store.MemoryStore
}

func (s *stalledStore) Count(ctx context.Context) (int64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func TestAuditor_Check_BoundsHungStoreCalls(t *testing.T) {
	primary := &stalledStore{MemoryStore: store.NewMemoryStore()}
	auditor := NewAuditor(primary, store.NewMemoryStore(), 10, 50*time.Millisecond, nil, zap.NewNop())

	// The caller passes no deadline; the audit must still return once the
	// per-call bound expires instead of hanging on the stuck store.
	start := time.Now()
	_, err := auditor.Check(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestAuditor_Last_NilBeforeFirstCheck(t *testing.T) {
	auditor := NewAuditor(store.NewMemoryStore(), store.NewMemoryStore(), 10, time.Second, nil, zap.NewNop())
	assert.Nil(t, auditor.Last())
}
