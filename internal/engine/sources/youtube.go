package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/duongtho001/Youseo/internal/engine"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// YouTube Data API v3 metadata collection for the analysis prompt.

var (
	ErrVideoNotFound = errors.New("video not found")
	ErrNoYouTubeKey  = errors.New("YOUTUBE_API_KEY not configured")
)

var (
	videoParts   = []string{"snippet", "contentDetails", "statistics", "topicDetails"}
	channelParts = []string{"snippet", "statistics", "brandingSettings", "topicDetails", "status"}
)

var (
	// youtubeEndpoint overrides the Data API base URL; empty uses the default.
	youtubeEndpoint string

	detailsGroup singleflight.Group

	limiterOnce sync.Once
	ytLimiter   *rate.Limiter
)

func limiter() *rate.Limiter {
	limiterOnce.Do(func() {
		rps := engine.Cfg.YouTubeRPS
		if rps <= 0 {
			ytLimiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		ytLimiter = rate.NewLimiter(rate.Limit(rps), 1)
	})
	return ytLimiter
}

func newYouTubeService(ctx context.Context) (*youtube.Service, error) {
	key := engine.Cfg.YouTubeAPIKey
	if key == "" {
		return nil, ErrNoYouTubeKey
	}
	base := engine.Cfg.HTTPClient
	hc := &http.Client{
		Timeout:   base.Timeout,
		Transport: &transport.APIKey{Key: key, Transport: base.Transport},
	}
	opts := []option.ClientOption{option.WithHTTPClient(hc)}
	if youtubeEndpoint != "" {
		opts = append(opts, option.WithEndpoint(youtubeEndpoint))
	}
	return youtube.NewService(ctx, opts...)
}

// FetchVideoDetails returns video + channel metadata for videoID.
// Results are cached; concurrent calls for the same ID share one fetch.
func FetchVideoDetails(ctx context.Context, videoID string) (*engine.VideoDetails, error) {
	key := engine.CacheKey("video", videoID)
	if d, ok := engine.CacheLoadJSON[engine.VideoDetails](ctx, key); ok {
		return &d, nil
	}

	// The shared fetch outlives any one caller; each caller still honours its own ctx.
	ch := detailsGroup.DoChan(videoID, func() (any, error) {
		return fetchVideoDetails(context.WithoutCancel(ctx), videoID)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		d := *r.Val.(*engine.VideoDetails)
		engine.CacheStoreJSON(ctx, key, d)
		return &d, nil
	}
}

func fetchVideoDetails(ctx context.Context, videoID string) (*engine.VideoDetails, error) {
	svc, err := newYouTubeService(ctx)
	if err != nil {
		return nil, fmt.Errorf("youtube: %w", err)
	}

	if err := limiter().Wait(ctx); err != nil {
		return nil, err
	}
	engine.IncrYouTubeRequests()
	resp, err := svc.Videos.List(videoParts).Id(videoID).Context(ctx).Do()
	if err != nil {
		engine.IncrYouTubeErrors()
		return nil, fmt.Errorf("youtube videos.list: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrVideoNotFound, videoID)
	}
	d := videoDetailsFrom(resp.Items[0])
	d.VideoID = videoID

	if d.ChannelID != "" {
		if ch, err := fetchChannel(ctx, svc, d.ChannelID); err != nil {
			slog.Warn("youtube: channel details unavailable, using defaults",
				slog.String("channel_id", d.ChannelID), slog.Any("error", err))
		} else {
			applyChannel(d, ch)
		}
	}
	return d, nil
}

func fetchChannel(ctx context.Context, svc *youtube.Service, channelID string) (*youtube.Channel, error) {
	if err := limiter().Wait(ctx); err != nil {
		return nil, err
	}
	engine.IncrYouTubeRequests()
	resp, err := svc.Channels.List(channelParts).Id(channelID).Context(ctx).Do()
	if err != nil {
		engine.IncrYouTubeErrors()
		return nil, fmt.Errorf("youtube channels.list: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("channel %s not found", channelID)
	}
	return resp.Items[0], nil
}

// videoDetailsFrom maps a videos.list item; channel fields get their defaults.
func videoDetailsFrom(v *youtube.Video) *engine.VideoDetails {
	d := &engine.VideoDetails{
		VideoID:           v.Id,
		Tags:              []string{},
		ViewCount:         "0",
		LikeCount:         "0",
		CommentCount:      "0",
		Duration:          "00:00",
		VideoTopics:       []string{},
		SubscriberCount:   "0",
		ChannelViewCount:  "0",
		ChannelVideoCount: "0",
		ChannelKeywords:   []string{},
		ChannelCountry:    "N/A",
		ChannelTopics:     []string{},
	}
	if s := v.Snippet; s != nil {
		d.Title = s.Title
		d.Description = s.Description
		d.ChannelID = s.ChannelId
		d.ChannelTitle = s.ChannelTitle
		d.VideoPublishedAt = s.PublishedAt
		if len(s.Tags) > 0 {
			d.Tags = s.Tags
		}
	}
	if c := v.ContentDetails; c != nil {
		d.Duration = FormatDuration(c.Duration)
		d.HasCaptions = c.Caption == "true"
	}
	if st := v.Statistics; st != nil {
		d.ViewCount = count(st.ViewCount)
		d.LikeCount = count(st.LikeCount)
		d.CommentCount = count(st.CommentCount)
	}
	if t := v.TopicDetails; t != nil {
		d.VideoTopics = ParseTopics(t.TopicCategories)
	}
	return d
}

func applyChannel(d *engine.VideoDetails, ch *youtube.Channel) {
	if s := ch.Snippet; s != nil {
		d.ChannelDescription = s.Description
		d.ChannelPublishedAt = s.PublishedAt
		if s.Country != "" {
			d.ChannelCountry = s.Country
		}
	}
	if st := ch.Statistics; st != nil {
		d.SubscriberCount = count(st.SubscriberCount)
		d.ChannelViewCount = count(st.ViewCount)
		d.ChannelVideoCount = count(st.VideoCount)
	}
	if b := ch.BrandingSettings; b != nil && b.Channel != nil {
		d.ChannelKeywords = ParseChannelKeywords(b.Channel.Keywords)
	}
	if t := ch.TopicDetails; t != nil {
		d.ChannelTopics = ParseTopics(t.TopicCategories)
	}
	if st := ch.Status; st != nil {
		d.ChannelIsMadeForKids = st.MadeForKids
	}
}

func count(n uint64) string { return strconv.FormatUint(n, 10) }
