package service

import (
	"context"
	"sort"
	"time"

	"commune/internal/cache"
	"commune/internal/models"
	"commune/internal/repository"
)

const (
	// PopularWindow is how far back the popular feed looks.
	PopularWindow = 14 * 24 * time.Hour
	// TrendingWindow is how far back the trending feed looks.
	TrendingWindow = 48 * time.Hour
	// StreamCap bounds the personalized stream.
	StreamCap = 100
	// DefaultFeedPageSize is the latest feed's default page size.
	DefaultFeedPageSize = 20
)

// FeedService assembles the ranked and personalized post feeds.
type FeedService struct {
	postRepo      repository.PostRepository
	communityRepo repository.CommunityRepository
	userRepo      repository.UserRepository

	// now is swappable for deterministic scoring in tests.
	now func() time.Time
}

// NewFeedService creates a new feed service.
func NewFeedService(
	postRepo repository.PostRepository,
	communityRepo repository.CommunityRepository,
	userRepo repository.UserRepository,
) *FeedService {
	return &FeedService{
		postRepo:      postRepo,
		communityRepo: communityRepo,
		userRepo:      userRepo,
		now:           time.Now,
	}
}

// Latest returns active posts newest first.
func (s *FeedService) Latest(ctx context.Context, viewerID uint, limit, offset int) ([]*models.Post, error) {
	if limit <= 0 {
		limit = DefaultFeedPageSize
	}
	posts, err := s.postRepo.ListLatest(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return posts, s.attachViewerReactions(ctx, viewerID, posts)
}

// Popular ranks the last two weeks of posts by
// likes - dislikes + 2*comments + members/100, where members is the size of
// the post's community (zero for standalone posts).
func (s *FeedService) Popular(ctx context.Context, viewerID uint, limit int) ([]*models.Post, error) {
	if limit <= 0 {
		limit = DefaultFeedPageSize
	}

	var posts []*models.Post
	key := cache.FeedKey("popular", 14)
	err := cache.Aside(ctx, key, &posts, cache.FeedTTL, func() error {
		window, err := s.postRepo.ListSince(ctx, s.now().Add(-PopularWindow))
		if err != nil {
			return err
		}

		memberCounts := make(map[uint]int64)
		for _, p := range window {
			members := int64(0)
			if p.CommunityID != nil {
				n, ok := memberCounts[*p.CommunityID]
				if !ok {
					// A failed member-count lookup costs the post its
					// community boost, not the whole feed.
					n, _ = s.communityRepo.MemberCount(ctx, *p.CommunityID)
					memberCounts[*p.CommunityID] = n
				}
				members = n
			}
			p.PopularScore = p.LikesCount - p.DislikesCount + 2*p.CommentsCount + int(members/100)
		}

		sort.SliceStable(window, func(i, j int) bool {
			if window[i].PopularScore != window[j].PopularScore {
				return window[i].PopularScore > window[j].PopularScore
			}
			return window[i].CreatedAt.After(window[j].CreatedAt)
		})

		posts = window
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, s.attachViewerReactions(ctx, viewerID, posts)
}

// Trending ranks the last 48 hours of posts by engagement velocity:
// (likes + comments created inside the window) divided by the post's age in
// hours, floored at one hour so brand-new posts are not divided toward
// infinity.
func (s *FeedService) Trending(ctx context.Context, viewerID uint, limit int) ([]*models.Post, error) {
	if limit <= 0 {
		limit = DefaultFeedPageSize
	}

	var posts []*models.Post
	key := cache.FeedKey("trending", 48)
	err := cache.Aside(ctx, key, &posts, cache.FeedTTL, func() error {
		since := s.now().Add(-TrendingWindow)
		window, err := s.postRepo.ListSince(ctx, since)
		if err != nil {
			return err
		}

		ids := make([]uint, len(window))
		for i, p := range window {
			ids[i] = p.ID
		}
		engagement, err := s.postRepo.EngagementSince(ctx, ids, since)
		if err != nil {
			return err
		}

		for _, p := range window {
			hours := s.now().Sub(p.CreatedAt).Hours()
			p.HoursSince = hours
			p.TrendingEngagement = engagement[p.ID]
			divisor := hours
			if divisor < 1.0 {
				divisor = 1.0
			}
			p.TrendingScore = float64(engagement[p.ID]) / divisor
		}

		sort.SliceStable(window, func(i, j int) bool {
			if window[i].TrendingScore != window[j].TrendingScore {
				return window[i].TrendingScore > window[j].TrendingScore
			}
			return window[i].CreatedAt.After(window[j].CreatedAt)
		})

		posts = window
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, s.attachViewerReactions(ctx, viewerID, posts)
}

// Stream returns the viewer's personalized feed: active posts from
// communities they joined or authors they follow, newest first, capped.
func (s *FeedService) Stream(ctx context.Context, viewerID uint) ([]*models.Post, error) {
	communityIDs, err := s.communityRepo.JoinedCommunityIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	authorIDs, err := s.userRepo.FollowedUserIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	posts, err := s.postRepo.ListStream(ctx, communityIDs, authorIDs, StreamCap)
	if err != nil {
		return nil, err
	}
	return posts, s.attachViewerReactions(ctx, viewerID, posts)
}

func (s *FeedService) attachViewerReactions(ctx context.Context, viewerID uint, posts []*models.Post) error {
	if viewerID == 0 || len(posts) == 0 {
		return nil
	}

	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	liked, err := s.postRepo.ReactedPostIDs(ctx, viewerID, ids, models.ReactionLike)
	if err != nil {
		return err
	}
	disliked, err := s.postRepo.ReactedPostIDs(ctx, viewerID, ids, models.ReactionDislike)
	if err != nil {
		return err
	}

	likedSet := make(map[uint]struct{}, len(liked))
	for _, id := range liked {
		likedSet[id] = struct{}{}
	}
	dislikedSet := make(map[uint]struct{}, len(disliked))
	for _, id := range disliked {
		dislikedSet[id] = struct{}{}
	}

	for _, p := range posts {
		_, p.Liked = likedSet[p.ID]
		_, p.Disliked = dislikedSet[p.ID]
	}
	return nil
}
