//go:build integration

package member_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	memberservice "github.com/sjlangley/social-golf-spa/app/modules/member/application"
	memberdomain "github.com/sjlangley/social-golf-spa/app/modules/member/domain"
	memberdb "github.com/sjlangley/social-golf-spa/app/modules/member/infrastructure/repositories"
	"github.com/sjlangley/social-golf-spa/integration_tests/testutils"
	"github.com/sjlangley/social-golf-spa/pkg/observability/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(env *testutils.TestEnv) *memberservice.MemberService {
	return memberservice.NewMemberService(
		memberdb.NewRepository(env.DB),
		env.Obs.Logger,
		metrics.NewNoopOperation(),
		env.Obs.Tracer,
		env.DB,
	)
}

func TestMemberIntegration(t *testing.T) {
	env := testutils.NewTestEnv(t)
	svc := newService(env)
	ctx := context.Background()

	t.Run("first concurrent sign-ins grant admin exactly once", func(t *testing.T) {
		const n = 8
		var wg sync.WaitGroup
		members := make([]*memberdomain.Member, n)
		errs := make([]error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				members[i], errs[i] = svc.EnsureMember(ctx,
					fmt.Sprintf("subject-%d", i),
					fmt.Sprintf("player%d@example.com", i),
					fmt.Sprintf("Player %d", i),
				)
			}(i)
		}
		wg.Wait()

		admins := 0
		for i := 0; i < n; i++ {
			require.NoError(t, errs[i])
			for _, role := range members[i].Roles {
				if role == "admin" {
					admins++
				}
			}
		}
		assert.Equal(t, 1, admins)
	})

	t.Run("repeat sign-in returns the same member", func(t *testing.T) {
		first, err := svc.EnsureMember(ctx, "subject-0", "player0@example.com", "Player 0")
		require.NoError(t, err)
		again, err := svc.EnsureMember(ctx, "subject-0", "player0@example.com", "Player 0")
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
	})

	t.Run("pre-created member is linked on first sign-in", func(t *testing.T) {
		created, err := svc.CreateMember(ctx, memberservice.CreateMemberRequest{
			Email: "invited@example.com",
			Name:  "Invited",
		})
		require.NoError(t, err)

		signedIn, err := svc.EnsureMember(ctx, "invited-subject", "invited@example.com", "Invited Player")
		require.NoError(t, err)
		assert.Equal(t, created.ID, signedIn.ID)
		assert.Equal(t, "Invited Player", signedIn.Name)
	})

	t.Run("cursor pagination visits every member once", func(t *testing.T) {
		for _, sortBy := range []string{"id", "email", "name"} {
			for _, dir := range []string{"asc", "desc"} {
				seen := map[string]bool{}
				cursor := ""
				pages := 0
				for {
					params, err := memberdomain.NewListParams(3, sortBy, dir, cursor)
					require.NoError(t, err)
					page, err := svc.ListMembers(ctx, params)
					require.NoError(t, err)
					pages++
					for _, m := range page.Items {
						assert.False(t, seen[m.ID.String()], "%s %s: duplicate %s", sortBy, dir, m.ID)
						seen[m.ID.String()] = true
					}
					if page.NextCursor == nil {
						break
					}
					cursor = *page.NextCursor
					require.Less(t, pages, 20)
				}
				assert.Len(t, seen, 9, "%s %s", sortBy, dir)
			}
		}
	})
}
