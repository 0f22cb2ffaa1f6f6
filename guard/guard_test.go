package guard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unipath-ai/unipath/core"
	"github.com/unipath-ai/unipath/store/memory"
)

func seedProfile(t *testing.T, s *memory.Store, onboarded bool, stage int) string {
	t.Helper()
	userID := "user-1"
	err := s.SaveProfile(context.Background(), &core.Profile{
		ID:                  userID,
		OnboardingCompleted: onboarded,
		CurrentStage:        stage,
	})
	require.NoError(t, err)
	return userID
}

func TestGuardShortlist(t *testing.T) {
	tests := []struct {
		name       string
		onboarded  bool
		stage      int
		wantReason string
	}{
		{name: "not onboarded", onboarded: false, stage: core.StageOnboarding, wantReason: ReasonNotOnboarded},
		{name: "onboarded but stage too low", onboarded: true, stage: core.StageOnboarding, wantReason: ReasonStageTooLow},
		{name: "discovery stage allowed", onboarded: true, stage: core.StageDiscovery},
		{name: "later stage allowed", onboarded: true, stage: core.StageApplication},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := memory.New()
			userID := seedProfile(t, s, tt.onboarded, tt.stage)
			g := New(s)

			err := g.Shortlist(context.Background(), userID, "uni-1")
			if tt.wantReason == "" {
				assert.NoError(t, err)
				return
			}
			ge, ok := IsRejection(err)
			require.True(t, ok, "expected a guard rejection, got %v", err)
			assert.Equal(t, tt.wantReason, ge.Reason)
		})
	}
}

func TestGuardLock(t *testing.T) {
	ctx := context.Background()

	t.Run("stage too low even when shortlisted", func(t *testing.T) {
		s := memory.New()
		userID := seedProfile(t, s, true, core.StageOnboarding)
		require.NoError(t, s.UpsertShortlistEntry(ctx, &core.ShortlistEntry{
			UserID: userID, UniversityID: "uni-1", Category: core.CategoryTarget,
		}))
		g := New(s)

		err := g.Lock(ctx, userID, "uni-1")
		ge, ok := IsRejection(err)
		require.True(t, ok)
		assert.Equal(t, ReasonStageTooLow, ge.Reason)
	})

	t.Run("not shortlisted", func(t *testing.T) {
		s := memory.New()
		userID := seedProfile(t, s, true, core.StageDiscovery)
		g := New(s)

		err := g.Lock(ctx, userID, "uni-1")
		ge, ok := IsRejection(err)
		require.True(t, ok)
		assert.Equal(t, ReasonNotShortlisted, ge.Reason)
	})

	t.Run("shortlisted at discovery stage", func(t *testing.T) {
		s := memory.New()
		userID := seedProfile(t, s, true, core.StageDiscovery)
		require.NoError(t, s.UpsertShortlistEntry(ctx, &core.ShortlistEntry{
			UserID: userID, UniversityID: "uni-1", Category: core.CategorySafe,
		}))
		g := New(s)

		assert.NoError(t, g.Lock(ctx, userID, "uni-1"))
	})
}

func TestGuardCreateTask(t *testing.T) {
	ctx := context.Background()

	t.Run("general task always allowed", func(t *testing.T) {
		s := memory.New()
		userID := seedProfile(t, s, false, core.StageOnboarding)
		g := New(s)

		assert.NoError(t, g.CreateTask(ctx, userID, ""))
	})

	t.Run("unlocked entry rejected", func(t *testing.T) {
		s := memory.New()
		userID := seedProfile(t, s, true, core.StageDiscovery)
		require.NoError(t, s.UpsertShortlistEntry(ctx, &core.ShortlistEntry{
			UserID: userID, UniversityID: "uni-1", Category: core.CategoryDream,
		}))
		g := New(s)

		err := g.CreateTask(ctx, userID, "uni-1")
		ge, ok := IsRejection(err)
		require.True(t, ok)
		assert.Equal(t, ReasonNotLocked, ge.Reason)
	})

	t.Run("unknown entry rejected", func(t *testing.T) {
		s := memory.New()
		userID := seedProfile(t, s, true, core.StageDiscovery)
		g := New(s)

		err := g.CreateTask(ctx, userID, "uni-missing")
		ge, ok := IsRejection(err)
		require.True(t, ok)
		assert.Equal(t, ReasonNotLocked, ge.Reason)
	})

	t.Run("locked entry allowed", func(t *testing.T) {
		s := memory.New()
		userID := seedProfile(t, s, true, core.StageDiscovery)
		require.NoError(t, s.UpsertShortlistEntry(ctx, &core.ShortlistEntry{
			UserID: userID, UniversityID: "uni-1", Category: core.CategoryDream,
		}))
		require.NoError(t, s.SetShortlistLocked(ctx, userID, "uni-1", true))
		g := New(s)

		assert.NoError(t, g.CreateTask(ctx, userID, "uni-1"))
	})
}
