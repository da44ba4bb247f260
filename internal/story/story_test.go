package story

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/disaster-hotspots/internal/domain"
	"github.com/couchcryptid/disaster-hotspots/internal/observability"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newStore(clock clockwork.Clock) *SessionStore {
	return NewSessionStore(clock, SessionLimits{}, discardLogger(), observability.NewMetricsForTesting())
}

func TestChapters(t *testing.T) {
	all := Chapters()
	require.Len(t, all, ChapterCount)

	assert.Equal(t, "Chapter 01 - Data Collection", all[0].Title)
	assert.Equal(t, "Chapter 05 - Insights & Trends", all[FinalChapter].Title)
	for i, c := range all {
		assert.Equal(t, i+1, c.Number)
		assert.Equal(t, "Authored by: You", c.Author)
		assert.Contains(t, c.Icon, "https://assets9.lottiefiles.com/packages/")
		assert.NotEmpty(t, c.Description)
		assert.NotEmpty(t, c.Stages)
	}

	all[0].Stages[0] = "mutated"
	assert.NotEqual(t, "mutated", ChapterAt(0).Stages[0])
}

func TestChapterAt_Clamps(t *testing.T) {
	assert.Equal(t, 1, ChapterAt(-3).Number)
	assert.Equal(t, ChapterCount, ChapterAt(99).Number)
}

func TestSession_AdvanceStopsAtFinal(t *testing.T) {
	var s Session
	for i := 0; i < FinalChapter; i++ {
		assert.False(t, s.IsFinal())
		assert.True(t, s.Advance())
	}
	assert.True(t, s.IsFinal())
	assert.False(t, s.Advance())
	assert.Equal(t, FinalChapter, s.Chapter)
	assert.Equal(t, ChapterCount, s.Current().Number)
}

func TestSessionStore_Lifecycle(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	st := newStore(clock)

	s := st.Create()
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, 0, s.Chapter)
	assert.Equal(t, clock.Now(), s.CreatedAt)

	got, advanced, err := st.Advance(s.ID)
	require.NoError(t, err)
	assert.True(t, advanced)
	assert.Equal(t, 1, got.Chapter)

	got, err = st.Select(s.ID, "8761a2b0fffffff")
	require.NoError(t, err)
	assert.Equal(t, domain.CellID("8761a2b0fffffff"), got.SelectedCell)

	fetched, err := st.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, got, fetched)
	assert.Equal(t, 1, st.Len())
}

func TestSessionStore_Unknown(t *testing.T) {
	st := newStore(nil)

	_, err := st.Get("missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, _, err = st.Advance("missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = st.Select("missing", "x")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestSessionStore_IsolatedAndConcurrent(t *testing.T) {
	st := newStore(nil)
	a, b := st.Create(), st.Create()
	assert.NotEqual(t, a.ID, b.ID)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = st.Advance(a.ID)
		}()
	}
	wg.Wait()

	gotA, _ := st.Get(a.ID)
	gotB, _ := st.Get(b.ID)
	assert.Equal(t, FinalChapter, gotA.Chapter)
	assert.Equal(t, 0, gotB.Chapter)
}

func TestSessionStore_IdleSessionsExpire(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	st := NewSessionStore(clock, SessionLimits{TTL: time.Hour}, discardLogger(), observability.NewMetricsForTesting())

	idle := st.Create()
	active := st.Create()

	clock.Advance(45 * time.Minute)
	_, err := st.Get(active.ID)
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)
	_, err = st.Get(idle.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = st.Get(active.ID)
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	st.Create()
	assert.Equal(t, 1, st.Len())
}

func TestSessionStore_FullStoreEvictsLeastRecentlyUsed(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	st := NewSessionStore(clock, SessionLimits{MaxSessions: 2}, discardLogger(), observability.NewMetricsForTesting())

	first := st.Create()
	clock.Advance(time.Minute)
	second := st.Create()
	clock.Advance(time.Minute)
	_, err := st.Get(first.ID)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	third := st.Create()

	assert.Equal(t, 2, st.Len())
	_, err = st.Get(second.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	for _, id := range []string{first.ID, third.ID} {
		_, err = st.Get(id)
		require.NoError(t, err)
	}
}

func TestPacer_WaitsBetweenStages(t *testing.T) {
	clock := clockwork.NewFakeClock()
	p := NewPacer(clock, time.Second, discardLogger())

	var ran []string
	stages := []Stage{
		{Name: "one", Run: func(context.Context) error { ran = append(ran, "one"); return nil }},
		{Name: "two"},
	}

	type result struct {
		done []string
		err  error
	}
	resCh := make(chan result, 1)
	go func() {
		done, err := p.Play(context.Background(), stages)
		resCh <- result{done, err}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for range stages {
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		clock.Advance(time.Second)
	}

	res := <-resCh
	require.NoError(t, res.err)
	assert.Equal(t, []string{"one", "two"}, res.done)
	assert.Equal(t, []string{"one"}, ran)
}

func TestPacer_ZeroDelay(t *testing.T) {
	p := NewPacer(nil, 0, discardLogger())
	done, err := p.Play(context.Background(), PlaceholderStages(ChapterAt(2)))
	require.NoError(t, err)
	assert.Equal(t, ChapterAt(2).Stages, done)
}

func TestPacer_StageError(t *testing.T) {
	p := NewPacer(nil, 0, discardLogger())
	boom := errors.New("boom")
	done, err := p.Play(context.Background(), []Stage{
		{Name: "ok"},
		{Name: "bad", Run: func(context.Context) error { return boom }},
		{Name: "never"},
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"ok"}, done)
}

func TestPacer_Canceled(t *testing.T) {
	p := NewPacer(clockwork.NewFakeClock(), time.Hour, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done, err := p.Play(ctx, []Stage{{Name: "a"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, done)
}
