package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/duongtho001/Youseo/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const videoJSON = `{"items":[{"id":"%s",
 "snippet":{"title":"Never Gonna Give You Up","description":"The official video","channelId":"UC123",
  "channelTitle":"Rick Astley","tags":["80s","pop"],"publishedAt":"2009-10-25T06:57:33Z"},
 "contentDetails":{"duration":"PT3M33S","caption":"true"},
 "statistics":{"viewCount":"1500000000","likeCount":"17000000","commentCount":"2400000"},
 "topicDetails":{"topicCategories":["https://en.wikipedia.org/wiki/Pop_music"]}}]}`

const channelJSON = `{"items":[{"id":"UC123",
 "snippet":{"description":"Official channel","publishedAt":"2006-09-15T00:00:00Z","country":"GB"},
 "statistics":{"subscriberCount":"4000000","viewCount":"2000000000","videoCount":"200"},
 "brandingSettings":{"channel":{"keywords":"\"rick astley\" music"}},
 "topicDetails":{"topicCategories":["https://en.wikipedia.org/wiki/Music"]},
 "status":{"madeForKids":false}}]}`

type ytStub struct {
	videos   atomic.Int32
	channels atomic.Int32
	// channelStatus != 0 makes channels.list fail with that status.
	channelStatus int
	emptyVideos   bool
	// release != nil holds videos.list until it is closed; started is signalled on entry.
	release chan struct{}
	started chan struct{}
}

func (s *ytStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.URL.Query().Get("key") != "test-key" {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"missing key"}}`))
		return
	}
	switch r.URL.Path {
	case "/youtube/v3/videos":
		s.videos.Add(1)
		if s.release != nil {
			select {
			case s.started <- struct{}{}:
			default:
			}
			<-s.release
		}
		if s.emptyVideos {
			w.Write([]byte(`{"items":[]}`))
			return
		}
		fmt.Fprintf(w, videoJSON, r.URL.Query().Get("id"))
	case "/youtube/v3/channels":
		s.channels.Add(1)
		if s.channelStatus != 0 {
			w.WriteHeader(s.channelStatus)
			w.Write([]byte(`{"error":{"code":403,"message":"forbidden"}}`))
			return
		}
		w.Write([]byte(channelJSON))
	default:
		http.NotFound(w, r)
	}
}

func setupYouTube(t *testing.T, stub *ytStub) {
	t.Helper()
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)
	engine.Init(engine.Config{YouTubeAPIKey: "test-key"})
	youtubeEndpoint = srv.URL + "/"
	t.Cleanup(func() { youtubeEndpoint = "" })
}

func TestFetchVideoDetails(t *testing.T) {
	stub := &ytStub{}
	setupYouTube(t, stub)

	d, err := FetchVideoDetails(context.Background(), "fetchOK0001")
	require.NoError(t, err)

	assert.Equal(t, "fetchOK0001", d.VideoID)
	assert.Equal(t, "Never Gonna Give You Up", d.Title)
	assert.Equal(t, "Rick Astley", d.ChannelTitle)
	assert.Equal(t, "UC123", d.ChannelID)
	assert.Equal(t, []string{"80s", "pop"}, d.Tags)
	assert.Equal(t, "1500000000", d.ViewCount)
	assert.Equal(t, "17000000", d.LikeCount)
	assert.Equal(t, "03:33", d.Duration)
	assert.True(t, d.HasCaptions)
	assert.Equal(t, []string{"Pop music"}, d.VideoTopics)

	assert.Equal(t, "4000000", d.SubscriberCount)
	assert.Equal(t, "200", d.ChannelVideoCount)
	assert.Equal(t, "GB", d.ChannelCountry)
	assert.Equal(t, []string{"rick astley", "music"}, d.ChannelKeywords)
	assert.Equal(t, []string{"Music"}, d.ChannelTopics)
	assert.False(t, d.ChannelIsMadeForKids)
}

func TestFetchVideoDetailsChannelFailureKeepsDefaults(t *testing.T) {
	stub := &ytStub{channelStatus: http.StatusForbidden}
	setupYouTube(t, stub)

	d, err := FetchVideoDetails(context.Background(), "chanFail001")
	require.NoError(t, err)

	assert.Equal(t, "Never Gonna Give You Up", d.Title)
	assert.Equal(t, "0", d.SubscriberCount)
	assert.Equal(t, "0", d.ChannelViewCount)
	assert.Equal(t, "0", d.ChannelVideoCount)
	assert.Equal(t, "N/A", d.ChannelCountry)
	assert.Empty(t, d.ChannelKeywords)
	assert.Empty(t, d.ChannelTopics)
	assert.EqualValues(t, 1, stub.channels.Load())
}

func TestFetchVideoDetailsNotFound(t *testing.T) {
	setupYouTube(t, &ytStub{emptyVideos: true})

	_, err := FetchVideoDetails(context.Background(), "missing0001")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrVideoNotFound))
}

func TestFetchVideoDetailsNoKey(t *testing.T) {
	engine.Init(engine.Config{})
	_, err := FetchVideoDetails(context.Background(), "nokey000001")
	assert.ErrorIs(t, err, ErrNoYouTubeKey)
}

func TestFetchVideoDetailsCached(t *testing.T) {
	stub := &ytStub{}
	setupYouTube(t, stub)
	engine.InitCache("", time.Minute, 100, time.Minute)

	ctx := context.Background()
	first, err := FetchVideoDetails(ctx, "cached00001")
	require.NoError(t, err)
	second, err := FetchVideoDetails(ctx, "cached00001")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, stub.videos.Load())
	assert.EqualValues(t, 1, stub.channels.Load())
}

func TestFetchVideoDetailsCallerCancelDoesNotFailWaiters(t *testing.T) {
	stub := &ytStub{release: make(chan struct{}), started: make(chan struct{}, 1)}
	setupYouTube(t, stub)
	t.Cleanup(func() {
		select {
		case <-stub.release:
		default:
			close(stub.release)
		}
	})

	const id = "cancel00001"
	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := FetchVideoDetails(ctxA, id)
		errA <- err
	}()
	<-stub.started

	type result struct {
		d   *engine.VideoDetails
		err error
	}
	resB := make(chan result, 1)
	go func() {
		d, err := FetchVideoDetails(context.Background(), id)
		resB <- result{d, err}
	}()

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	close(stub.release)
	got := <-resB
	require.NoError(t, got.err)
	assert.Equal(t, "Never Gonna Give You Up", got.d.Title)
}
