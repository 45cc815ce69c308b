package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberguild/guildhall/pkg/models"
)

func seedChallenge(t *testing.T, s *Store, title string, points int) *models.Challenge {
	t.Helper()
	c := &models.Challenge{
		Title:   title,
		Content: "Find the flag in " + title + ".",
		Flag:    "flag{" + title + "}",
		Points:  points,
	}
	require.NoError(t, s.CreateChallenge(c))
	return c
}

func TestCreateChallenge(t *testing.T) {
	s := openTestStore(t)
	c := seedChallenge(t, s, "Space Bulb", 100)

	t.Run("slug generated", func(t *testing.T) {
		assert.Equal(t, "space-bulb", c.Slug)
	})

	t.Run("duplicate flag rejected", func(t *testing.T) {
		err := s.CreateChallenge(&models.Challenge{
			Title: "Different Title", Content: "x", Flag: "flag{Space Bulb}", Points: 50,
		})
		assert.ErrorIs(t, err, models.ErrDuplicate)
	})
}

func TestLatestChallengeSkipsHidden(t *testing.T) {
	s := openTestStore(t)
	seedChallenge(t, s, "Oldest", 50)
	visible := seedChallenge(t, s, "Visible", 100)

	staged := seedChallenge(t, s, "Staged", 200)
	staged.Hidden = true
	require.NoError(t, s.UpdateChallenge(staged))

	got, err := s.LatestChallenge()
	require.NoError(t, err)
	assert.Equal(t, visible.Title, got.Title)
}

func TestClaimFlag(t *testing.T) {
	s := openTestStore(t)
	seedUser(t, s, 100, "alice")
	c := seedChallenge(t, s, "Space Bulb", 100)

	t.Run("correct flag awards the challenge", func(t *testing.T) {
		got, err := s.ClaimFlag(100, c.Flag)
		require.NoError(t, err)
		assert.Equal(t, c.ID, got.ID)
		assert.Equal(t, 100, got.Points)
	})

	t.Run("second claim rejected", func(t *testing.T) {
		_, err := s.ClaimFlag(100, c.Flag)
		assert.ErrorIs(t, err, models.ErrAlreadyClaimed)
	})

	t.Run("wrong flag", func(t *testing.T) {
		_, err := s.ClaimFlag(100, "flag{nope}")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("hidden challenge flag is unclaimable", func(t *testing.T) {
		hidden := seedChallenge(t, s, "Staged", 200)
		hidden.Hidden = true
		require.NoError(t, s.UpdateChallenge(hidden))

		_, err := s.ClaimFlag(100, hidden.Flag)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("depreciated challenge awards zero points", func(t *testing.T) {
		dep := seedChallenge(t, s, "Old One", 300)
		dep.Depreciated = true
		require.NoError(t, s.UpdateChallenge(dep))

		got, err := s.ClaimFlag(100, dep.Flag)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Points)
	})
}

func TestLeaderboard(t *testing.T) {
	s := openTestStore(t)
	seedUser(t, s, 100, "alice")
	seedUser(t, s, 101, "bob")
	seedUser(t, s, 102, "carol")

	c1 := seedChallenge(t, s, "One", 100)
	c2 := seedChallenge(t, s, "Two", 200)

	// alice solves both, bob solves one, carol none.
	_, err := s.ClaimFlag(100, c1.Flag)
	require.NoError(t, err)
	_, err = s.ClaimFlag(100, c2.Flag)
	require.NoError(t, err)
	_, err = s.ClaimFlag(101, c1.Flag)
	require.NoError(t, err)

	entries, err := s.Leaderboard(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, int64(100), entries[0].DiscordID)
	assert.Equal(t, 300, entries[0].Score)
	assert.Equal(t, 2, entries[0].Solves)
	assert.Equal(t, 1, entries[0].Rank)

	assert.Equal(t, int64(101), entries[1].DiscordID)
	assert.Equal(t, 100, entries[1].Score)
	assert.Equal(t, 2, entries[1].Rank)
}

func TestLeaderboardIgnoresDepreciatedPoints(t *testing.T) {
	s := openTestStore(t)
	seedUser(t, s, 100, "alice")

	c := seedChallenge(t, s, "Old One", 500)
	_, err := s.ClaimFlag(100, c.Flag)
	require.NoError(t, err)

	c.Depreciated = true
	require.NoError(t, s.UpdateChallenge(c))

	entries, err := s.Leaderboard(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 0, entries[0].Score)
	assert.Equal(t, 1, entries[0].Solves)
}

func TestSolveCounts(t *testing.T) {
	s := openTestStore(t)
	for i := int64(0); i < 3; i++ {
		seedUser(t, s, 100+i, fmt.Sprintf("user%d", i))
	}
	popular := seedChallenge(t, s, "Popular", 50)
	niche := seedChallenge(t, s, "Niche", 400)

	for i := int64(0); i < 3; i++ {
		_, err := s.ClaimFlag(100+i, popular.Flag)
		require.NoError(t, err)
	}
	_, err := s.ClaimFlag(100, niche.Flag)
	require.NoError(t, err)

	most, err := s.MostSolved(5)
	require.NoError(t, err)
	require.NotEmpty(t, most)
	assert.Equal(t, "Popular", most[0].Title)
	assert.Equal(t, 3, most[0].Solves)

	least, err := s.LeastSolved(5)
	require.NoError(t, err)
	require.NotEmpty(t, least)
	assert.Equal(t, "Niche", least[0].Title)

	n, err := s.SolveCountFor(popular.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestUserChallengeInfo(t *testing.T) {
	s := openTestStore(t)
	seedUser(t, s, 100, "alice")
	seedUser(t, s, 101, "bob")

	one := seedChallenge(t, s, "One", 100)
	seedChallenge(t, s, "Two", 200)

	_, err := s.ClaimFlag(100, one.Flag)
	require.NoError(t, err)

	info, err := s.UserChallengeInfo(100)
	require.NoError(t, err)
	require.Len(t, info.Solved, 1)
	assert.Equal(t, "One", info.Solved[0].Title)
	require.Len(t, info.Unsolved, 1)
	assert.Equal(t, "Two", info.Unsolved[0].Title)
	assert.Equal(t, 100, info.Points)
	assert.Equal(t, 1, info.Rank)

	// bob has no solves and sits below alice.
	info, err = s.UserChallengeInfo(101)
	require.NoError(t, err)
	assert.Empty(t, info.Solved)
	assert.Equal(t, 0, info.Points)
	assert.Equal(t, 2, info.Rank)
}

func TestRanksAgreeOnTiedScores(t *testing.T) {
	s := openTestStore(t)
	seedUser(t, s, 100, "alice")
	seedUser(t, s, 101, "bob")
	seedUser(t, s, 102, "carol")

	big := seedChallenge(t, s, "Big", 300)
	small := seedChallenge(t, s, "Small", 100)

	// alice and bob tie on points; carol trails.
	_, err := s.ClaimFlag(100, big.Flag)
	require.NoError(t, err)
	_, err = s.ClaimFlag(101, big.Flag)
	require.NoError(t, err)
	_, err = s.ClaimFlag(102, small.Flag)
	require.NoError(t, err)

	entries, err := s.Leaderboard(10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 1, entries[1].Rank)
	assert.Equal(t, 3, entries[2].Rank)

	// Per-user ranks match the leaderboard, tie included.
	for id, want := range map[int64]int{100: 1, 101: 1, 102: 3} {
		info, err := s.UserChallengeInfo(id)
		require.NoError(t, err)
		assert.Equal(t, want, info.Rank, "user %d", id)
	}
}

func TestSearchChallengesExcludesHidden(t *testing.T) {
	s := openTestStore(t)
	seedChallenge(t, s, "Heap Madness", 100)

	hidden := seedChallenge(t, s, "Heap Secrets", 200)
	hidden.Hidden = true
	require.NoError(t, s.UpdateChallenge(hidden))

	got, err := s.SearchChallenges("heap", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Heap Madness", got[0].Title)
}
