//go:build integration

package feed_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"complyline/internal/document/feed"
	"complyline/internal/document/models"
	"complyline/pkg/testutil/containers"
)

type RedisFeedSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	ctx   context.Context
}

func TestRedisFeedSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisFeedSuite))
}

func (s *RedisFeedSuite) SetupSuite() {
	s.ctx = context.Background()
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *RedisFeedSuite) TearDownSuite() {
	_ = s.redis.Client.Close()
	_ = s.redis.Container.Terminate(s.ctx)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *RedisFeedSuite) TestPublishAndReceive() {
	const channel = "documents:changes:test"
	sub := feed.NewRedisSubscriber(s.redis.Client, channel, discardLogger())
	defer sub.Close()

	// Give the subscription time to establish before publishing; pub/sub has
	// no replay.
	time.Sleep(200 * time.Millisecond)

	pub := feed.NewRedisPublisher(s.redis.Client, channel)
	doc := &models.Document{
		ID:        "d1",
		Title:     "Via Redis",
		Status:    models.StatusDraft,
		UpdatedAt: time.Now().UTC(),
	}
	s.Require().NoError(pub.Publish(s.ctx, feed.Updated(doc)))

	select {
	case event := <-sub.Events():
		s.Equal(feed.EventUpdate, event.Type)
		s.Require().NotNil(event.Doc)
		s.Equal("d1", event.Doc.ID)
		s.Equal("Via Redis", event.Doc.Title)
	case <-time.After(5 * time.Second):
		s.FailNow("timed out waiting for change event")
	}
}

func (s *RedisFeedSuite) TestDeleteEventCarriesOnlyID() {
	const channel = "documents:changes:delete-test"
	sub := feed.NewRedisSubscriber(s.redis.Client, channel, discardLogger())
	defer sub.Close()
	time.Sleep(200 * time.Millisecond)

	pub := feed.NewRedisPublisher(s.redis.Client, channel)
	s.Require().NoError(pub.Publish(s.ctx, feed.Deleted("d9")))

	select {
	case event := <-sub.Events():
		s.Equal(feed.EventDelete, event.Type)
		s.Equal("d9", event.DocumentID())
		s.Nil(event.Doc)
	case <-time.After(5 * time.Second):
		s.FailNow("timed out waiting for delete event")
	}
}

func (s *RedisFeedSuite) TestMalformedPayloadIsDiscarded() {
	const channel = "documents:changes:malformed-test"
	sub := feed.NewRedisSubscriber(s.redis.Client, channel, discardLogger())
	defer sub.Close()
	time.Sleep(200 * time.Millisecond)

	s.Require().NoError(s.redis.Client.Publish(s.ctx, channel, "{not json").Err())

	pub := feed.NewRedisPublisher(s.redis.Client, channel)
	doc := &models.Document{ID: "d2", Title: "Valid", UpdatedAt: time.Now().UTC()}
	s.Require().NoError(pub.Publish(s.ctx, feed.Inserted(doc)))

	// The malformed payload is skipped; the next valid event still arrives.
	select {
	case event := <-sub.Events():
		s.Equal("d2", event.DocumentID())
	case <-time.After(5 * time.Second):
		s.FailNow("timed out waiting for event after malformed payload")
	}
}

func (s *RedisFeedSuite) TestCloseStopsDelivery() {
	const channel = "documents:changes:close-test"
	sub := feed.NewRedisSubscriber(s.redis.Client, channel, discardLogger())
	time.Sleep(200 * time.Millisecond)

	s.Require().NoError(sub.Close())
	s.Require().NoError(sub.Close(), "close is idempotent")

	// The events channel is closed once Close returns.
	_, open := <-sub.Events()
	s.False(open)
}
