package career

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func started() *Career {
	c := New(nil)
	c.Start()
	return c
}

func TestStart(t *testing.T) {
	c := New(nil)
	assert.Equal(t, Inactive, c.State())
	c.Start()
	assert.Equal(t, StartingFans, c.Fans())
	assert.Equal(t, 1, c.CurrentVenue())
	assert.Zero(t, c.CurrentSet())
	assert.Equal(t, Playing, c.State())
}

func TestBombedCostsFansAndHolds(t *testing.T) {
	c := started()
	out, err := c.ProcessSetResult(0, 4)
	require.NoError(t, err)
	assert.Equal(t, -30, out.FanDelta)
	assert.False(t, out.Advanced)
	assert.Equal(t, 70, c.Fans())
	assert.Zero(t, c.CurrentSet())
}

func TestLegendaryEarnsSkip(t *testing.T) {
	c := started()
	out, err := c.ProcessSetResult(0.97, 4)
	require.NoError(t, err)
	assert.Equal(t, 150, c.Fans())
	assert.True(t, c.CanSkipNext())
	assert.True(t, out.SkipEarned)
	assert.Equal(t, 1, c.CurrentSet())
	assert.Equal(t, []int{0}, c.SetsCompleted(1))
}

func TestDecentAdvancesWithoutFans(t *testing.T) {
	c := started()
	out, err := c.ProcessSetResult(0.6, 4)
	require.NoError(t, err)
	assert.Zero(t, out.FanDelta)
	assert.True(t, out.Advanced)
	assert.Equal(t, 100, c.Fans())
}

func TestBombingOutEndsCareer(t *testing.T) {
	c := started()
	for i := 0; i < 3; i++ {
		_, err := c.ProcessSetResult(0.1, 4)
		require.NoError(t, err)
	}
	assert.Equal(t, 10, c.Fans())
	out, err := c.ProcessSetResult(0.1, 4)
	require.NoError(t, err)
	assert.Equal(t, -10, out.FanDelta, "fans floor at zero")
	assert.True(t, out.CareerOver)
	assert.Zero(t, c.Fans())
	assert.False(t, c.Active())
	assert.Equal(t, Inactive, c.State())

	before := c.Record()
	_, err = c.ProcessSetResult(1, 4)
	assert.ErrorIs(t, err, ErrNoActiveCareer)
	ok, err := c.UseSkip(4)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrNoActiveCareer)
	assert.Equal(t, before, c.Record(), "inactive career is not mutated")
}

func TestVenueRollover(t *testing.T) {
	c := started()
	c.Restore(Record{Fans: 100, CurrentVenue: 1, CurrentSet: 2, VenuesUnlocked: 1, Active: true})

	out, err := c.ProcessSetResult(0.85, 4)
	require.NoError(t, err)
	assert.Equal(t, 3, c.CurrentSet())
	assert.False(t, out.VenueComplete)

	out, err = c.ProcessSetResult(0.85, 4)
	require.NoError(t, err)
	assert.True(t, out.VenueComplete)
	assert.Equal(t, 1, out.CompletedVenue)
	assert.Equal(t, 120, out.FanDelta)
	assert.Equal(t, 240, c.Fans())
	assert.Equal(t, 2, c.CurrentVenue())
	assert.Zero(t, c.CurrentSet())
	assert.Equal(t, 2, c.VenuesUnlocked())
}

func TestSkipToken(t *testing.T) {
	c := started()
	c.Restore(Record{Fans: 100, CurrentVenue: 1, CurrentSet: 3, VenuesUnlocked: 1, Active: true})
	_, err := c.ProcessSetResult(1.0, 4)
	require.NoError(t, err)
	require.Equal(t, 2, c.CurrentVenue())
	require.Zero(t, c.CurrentSet())
	require.True(t, c.CanSkipNext())

	ok, err := c.UseSkip(5)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, c.CurrentSet())
	assert.False(t, c.CanSkipNext())
	assert.Equal(t, 250, c.Fans(), "skipping does not change fans")

	ok, err = c.UseSkip(5)
	require.NoError(t, err)
	assert.False(t, ok, "token is single use")
}

func TestSkipRollsOverVenue(t *testing.T) {
	c := started()
	c.Restore(Record{Fans: 100, CurrentVenue: 2, CurrentSet: 4, VenuesUnlocked: 2, Active: true, CanSkipNext: true})
	ok, err := c.UseSkip(5)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, c.CurrentVenue())
	assert.Equal(t, 200, c.Fans(), "venue bonus still applies")
}

func TestWorldTourComplete(t *testing.T) {
	c := started()
	c.Restore(Record{Fans: 100, CurrentVenue: 5, CurrentSet: 5, VenuesUnlocked: 5, Active: true})
	out, err := c.ProcessSetResult(0.6, 6)
	require.NoError(t, err)
	assert.True(t, out.WorldTourComplete)
	assert.Equal(t, WorldTourComplete, c.State())
	assert.False(t, c.Active())
	assert.Equal(t, 5, c.CurrentVenue())
}

func TestLockRules(t *testing.T) {
	c := started()
	c.Restore(Record{
		Fans: 100, CurrentVenue: 2, CurrentSet: 1, VenuesUnlocked: 2, Active: true,
		SetsCompleted: map[int][]int{2: {0, 3}},
	})
	assert.True(t, c.IsVenueUnlocked(1))
	assert.True(t, c.IsVenueUnlocked(2))
	assert.False(t, c.IsVenueUnlocked(3))
	assert.False(t, c.IsVenueUnlocked(0))

	assert.True(t, c.IsSetUnlocked(1, 99))
	assert.True(t, c.IsSetUnlocked(2, 0))
	assert.True(t, c.IsSetUnlocked(2, 1))
	assert.False(t, c.IsSetUnlocked(2, 2))
	assert.True(t, c.IsSetUnlocked(2, 3))
	assert.False(t, c.IsSetUnlocked(3, 0))
}

func TestRestoreRepairsInvariants(t *testing.T) {
	c := New(nil)
	c.Restore(Record{Fans: 0, CurrentVenue: 9, VenuesUnlocked: 3, Active: true, SetsCompleted: map[int][]int{7: {1}}})
	assert.False(t, c.Active(), "no fans means no career")
	assert.Equal(t, 3, c.CurrentVenue())
	assert.Empty(t, c.Record().SetsCompleted)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "career.json")
	c := started()
	_, err := c.ProcessSetResult(0.97, 4)
	require.NoError(t, err)
	require.NoError(t, c.Save(path))

	loaded := New(nil)
	require.NoError(t, Load(path, loaded))
	assert.Equal(t, c.Record(), loaded.Record())

	missing := New(nil)
	require.NoError(t, Load(filepath.Join(t.TempDir(), "none.json"), missing))
	assert.Equal(t, Inactive, missing.State())

	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))
	assert.Error(t, Load(path, New(nil)))
}
