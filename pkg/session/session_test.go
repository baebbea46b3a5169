package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavshah/intervention-scheduler-api/pkg/models"
	"github.com/arnavshah/intervention-scheduler-api/pkg/scheduler"
)

func testWindow() models.TaskWindow {
	return models.TaskWindow{Start: models.MustParseDate("2024-01-01"), End: models.MustParseDate("2024-01-10")}
}

func newTestStore(ttl time.Duration) (*Store, *time.Time) {
	clock := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	st := NewStore(ttl, zerolog.Nop())
	st.now = func() time.Time { return clock }
	return st, &clock
}

func TestStore_CreateGet(t *testing.T) {
	st, _ := newTestStore(time.Hour)
	s := st.Create("ward-app", testWindow())

	got, err := st.Get(s.ID, "ward-app")
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = st.Get(s.ID, "someone-else")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = st.Get(uuid.New(), "ward-app")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_StateIsPerSession(t *testing.T) {
	st, _ := newTestStore(time.Hour)
	a := st.Create("app", testWindow())
	b := st.Create("app", testWindow())

	require.NoError(t, a.Do(func(state *scheduler.ScheduleState) error {
		state.Select("physio", "")
		return state.SetStart("physio", models.MustParseDate("2024-01-02"))
	}))

	require.NoError(t, b.Do(func(state *scheduler.ScheduleState) error {
		assert.Equal(t, 0, state.Len())
		return nil
	}))
}

func TestStore_Expiry(t *testing.T) {
	st, clock := newTestStore(30 * time.Minute)
	s := st.Create("app", testWindow())
	st.Create("app", testWindow())

	*clock = clock.Add(20 * time.Minute)
	_, err := st.Get(s.ID, "app")
	require.NoError(t, err)

	*clock = clock.Add(20 * time.Minute)
	assert.Equal(t, 1, st.Sweep())
	assert.Equal(t, 1, st.Len())

	*clock = clock.Add(31 * time.Minute)
	_, err = st.Get(s.ID, "app")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, st.Len())
}

func TestStore_Discard(t *testing.T) {
	st, _ := newTestStore(time.Hour)
	s := st.Create("app", testWindow())

	assert.False(t, st.Discard(s.ID, "other"))
	assert.True(t, st.Discard(s.ID, "app"))
	assert.False(t, st.Discard(s.ID, "app"))
}
