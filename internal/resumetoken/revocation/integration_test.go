//go:build integration

package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"visaflow/internal/platform/postgres"
	"visaflow/pkg/testutil/containers"
)

type revocationList interface {
	Revoke(ctx context.Context, jtis []string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type ListIntegrationSuite struct {
	suite.Suite
	ctx   context.Context
	lists map[string]revocationList
}

func TestListIntegrationSuite(t *testing.T) {
	suite.Run(t, new(ListIntegrationSuite))
}

func (s *ListIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	mgr := containers.GetManager()

	rc := mgr.GetRedis(s.T())
	s.Require().NoError(rc.FlushAll(s.ctx))

	pg := mgr.GetPostgres(s.T())
	s.Require().NoError(postgres.Migrate(s.ctx, pg.DB))
	s.Require().NoError(pg.Truncate(s.ctx, "token_revocations"))

	s.lists = map[string]revocationList{
		"redis":    NewRedisList(rc.Client.Client),
		"postgres": NewPostgresList(pg.DB),
	}
}

func (s *ListIntegrationSuite) TestRevokeAndCheck() {
	for name, list := range s.lists {
		s.Run(name, func() {
			s.Require().NoError(list.Revoke(s.ctx, []string{name + "-a", "", name + "-b"}, time.Hour))

			for _, jti := range []string{name + "-a", name + "-b"} {
				revoked, err := list.IsRevoked(s.ctx, jti)
				s.Require().NoError(err)
				s.True(revoked, jti)
			}

			revoked, err := list.IsRevoked(s.ctx, name+"-c")
			s.Require().NoError(err)
			s.False(revoked)

			// revoking twice is harmless
			s.Require().NoError(list.Revoke(s.ctx, []string{name + "-a"}, time.Hour))
		})
	}
}

func (s *ListIntegrationSuite) TestRejectsNonPositiveTTL() {
	for name, list := range s.lists {
		s.Run(name, func() {
			s.Error(list.Revoke(s.ctx, []string{"x"}, 0))
		})
	}
}
