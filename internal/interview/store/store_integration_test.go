//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"visaflow/internal/applicant"
	"visaflow/internal/platform/postgres"
	"visaflow/pkg/platform/sentinel"
	"visaflow/pkg/testutil/containers"
)

type StoreIntegrationSuite struct {
	suite.Suite
	ctx      context.Context
	now      time.Time
	redis    *RedisStore
	postgres *PostgresStore
	pg       *containers.PostgresContainer
	rc       *containers.RedisContainer
}

func TestStoreIntegrationSuite(t *testing.T) {
	suite.Run(t, new(StoreIntegrationSuite))
}

func (s *StoreIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.now = time.Now().UTC().Truncate(time.Second)
	clock := func() time.Time { return s.now }

	mgr := containers.GetManager()
	s.rc = mgr.GetRedis(s.T())
	s.pg = mgr.GetPostgres(s.T())
	s.Require().NoError(postgres.Migrate(s.ctx, s.pg.DB))

	s.redis = NewRedis(s.rc.Client.Client, clock)
	s.postgres = NewPostgres(s.pg.DB, clock)
}

func (s *StoreIntegrationSuite) SetupTest() {
	s.Require().NoError(s.rc.FlushAll(s.ctx))
	s.Require().NoError(s.pg.Truncate(s.ctx, "interview_sessions"))
}

func (s *StoreIntegrationSuite) TestRedisRoundTrip() {
	s.Require().NoError(s.redis.Save(s.ctx, session("r1", s.now.Add(time.Hour))))

	out, err := s.redis.Get(s.ctx, "r1")
	s.Require().NoError(err)
	s.Equal("KEN", out.State.Context[applicant.KeyNationality])

	ttl, err := s.rc.Client.TTL(s.ctx, sessionKeyPrefix+"r1").Result()
	s.Require().NoError(err)
	s.Greater(ttl, 59*time.Minute)

	s.Require().NoError(s.redis.Delete(s.ctx, "r1"))
	_, err = s.redis.Get(s.ctx, "r1")
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.redis.Delete(s.ctx, "r1"), sentinel.ErrNotFound)
}

func (s *StoreIntegrationSuite) TestRedisRejectsExpiredSave() {
	err := s.redis.Save(s.ctx, session("r2", s.now.Add(-time.Minute)))
	s.ErrorIs(err, sentinel.ErrExpired)
}

func (s *StoreIntegrationSuite) TestPostgresRoundTripAndUpsert() {
	in := session("p1", s.now.Add(time.Hour))
	s.Require().NoError(s.postgres.Save(s.ctx, in))

	in.State.Context[applicant.KeyNationality] = "FRA"
	s.Require().NoError(s.postgres.Save(s.ctx, in))

	out, err := s.postgres.Get(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal("FRA", out.State.Context[applicant.KeyNationality])
	s.Equal([]string{"jti-1"}, out.TokenIDs)
}

func (s *StoreIntegrationSuite) TestPostgresExpiry() {
	s.Require().NoError(s.postgres.Save(s.ctx, session("p2", s.now.Add(-time.Minute))))
	s.Require().NoError(s.postgres.Save(s.ctx, session("p3", s.now.Add(time.Hour))))

	_, err := s.postgres.Get(s.ctx, "p2")
	s.ErrorIs(err, sentinel.ErrNotFound)

	purged, err := s.postgres.PurgeExpired(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), purged)

	s.Require().NoError(s.postgres.Delete(s.ctx, "p3"))
	s.ErrorIs(s.postgres.Delete(s.ctx, "p3"), sentinel.ErrNotFound)
}
