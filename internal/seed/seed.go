// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"commune/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	NumUsers       int
	NumCommunities int
	NumPosts       int
}

// DefaultOptions returns a mesh big enough to make every feed interesting.
func DefaultOptions() Options {
	return Options{
		NumUsers:       50,
		NumCommunities: 12,
		NumPosts:       200,
	}
}

// Seeder populates the database with a plausible social mesh.
type Seeder struct {
	db    *gorm.DB
	faker *gofakeit.Faker
}

// NewSeeder creates a Seeder. Pass a non-zero seed for reproducible output.
func NewSeeder(db *gorm.DB, seedValue int64) *Seeder {
	if seedValue == 0 {
		seedValue = time.Now().UnixNano()
	}
	return &Seeder{
		db:    db,
		faker: gofakeit.New(seedValue),
	}
}

// ClearAll removes all seeded rows. Order matters for foreign keys.
func (s *Seeder) ClearAll() error {
	tables := []interface{}{
		&models.Report{},
		&models.TypingStatus{},
		&models.Message{},
		&models.ChatParticipant{},
		&models.Chat{},
		&models.Reaction{},
		&models.Comment{},
		&models.Post{},
		&models.CommunityMembership{},
		&models.Community{},
		&models.Block{},
		&models.Follow{},
		&models.User{},
	}
	for _, table := range tables {
		if err := s.db.Unscoped().Where("1 = 1").Delete(table).Error; err != nil {
			return fmt.Errorf("failed to clear table %T: %w", table, err)
		}
	}
	return nil
}

// Seed builds the full mesh: users, follows, communities, posts, comments,
// reactions, chats with messages, and a few open reports.
func (s *Seeder) Seed(opts Options) error {
	users, err := s.seedUsers(opts.NumUsers)
	if err != nil {
		return err
	}
	if err := s.seedFollows(users); err != nil {
		return err
	}

	communities, err := s.seedCommunities(users, opts.NumCommunities)
	if err != nil {
		return err
	}

	posts, err := s.seedPosts(users, communities, opts.NumPosts)
	if err != nil {
		return err
	}
	if err := s.seedCommentsAndReactions(users, posts); err != nil {
		return err
	}

	if err := s.seedChats(users); err != nil {
		return err
	}
	if err := s.seedReports(users, posts); err != nil {
		return err
	}

	log.Printf("seeded %d users, %d communities, %d posts", len(users), len(communities), len(posts))
	return nil
}

func (s *Seeder) seedUsers(n int) ([]*models.User, error) {
	// One shared hash keeps seeding fast; every account logs in with the
	// same development password.
	hash, err := bcrypt.GenerateFromPassword([]byte("SeededPass123!"), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		name := s.faker.Name()
		user := &models.User{
			Name:       name,
			Email:      fmt.Sprintf("%s%d@%s", strings.ToLower(s.faker.Username()), i, s.faker.DomainName()),
			Password:   string(hash),
			Bio:        s.faker.Sentence(10),
			ProfilePic: fmt.Sprintf("https://i.pravatar.cc/150?u=%d", i),
			IsActive:   true,
			IsAdmin:    i == 0,
		}
		if err := s.db.Create(user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedFollows(users []*models.User) error {
	for _, u := range users {
		// Each user follows a handful of random others.
		for _, v := range s.pickUsers(users, 2+rand.Intn(6)) {
			if v.ID == u.ID {
				continue
			}
			follow := models.Follow{FollowerID: u.ID, FolloweeID: v.ID}
			if err := s.db.Where(&follow).FirstOrCreate(&follow).Error; err != nil {
				return fmt.Errorf("failed to create follow: %w", err)
			}
		}
	}
	return nil
}

func (s *Seeder) seedCommunities(users []*models.User, n int) ([]*models.Community, error) {
	communities := make([]*models.Community, 0, n)
	for i := 0; i < n; i++ {
		creator := users[rand.Intn(len(users))]
		community := &models.Community{
			Name:            fmt.Sprintf("%s %s", s.faker.HackerAdjective(), s.faker.HackerNoun()) + fmt.Sprintf(" %d", i),
			Description:     s.faker.Sentence(15),
			Thumbnail:       fmt.Sprintf("https://picsum.photos/seed/community%d/300", i),
			CreatedByUserID: creator.ID,
		}
		if err := s.db.Create(community).Error; err != nil {
			return nil, fmt.Errorf("failed to create community: %w", err)
		}

		memberships := []models.CommunityMembership{
			{CommunityID: community.ID, UserID: creator.ID, Role: models.CommunityRoleAdmin},
		}
		for _, member := range s.pickUsers(users, 3+rand.Intn(12)) {
			if member.ID == creator.ID {
				continue
			}
			memberships = append(memberships, models.CommunityMembership{
				CommunityID: community.ID,
				UserID:      member.ID,
				Role:        models.CommunityRoleMember,
			})
		}
		for i := range memberships {
			m := memberships[i]
			if err := s.db.Where(&models.CommunityMembership{CommunityID: m.CommunityID, UserID: m.UserID}).
				FirstOrCreate(&m).Error; err != nil {
				return nil, fmt.Errorf("failed to create membership: %w", err)
			}
		}
		communities = append(communities, community)
	}
	return communities, nil
}

func (s *Seeder) seedPosts(users []*models.User, communities []*models.Community, n int) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		author := users[rand.Intn(len(users))]
		post := &models.Post{
			Title:     s.faker.HipsterSentence(4),
			Caption:   s.faker.HipsterParagraph(1, 3, 12, " "),
			UserID:    author.ID,
			Status:    models.PostStatusActive,
			MediaType: models.MediaTypeNone,
		}

		// Roughly a third of posts carry an image.
		if rand.Intn(3) == 0 {
			post.MediaURL = fmt.Sprintf("https://picsum.photos/seed/post%d/600.jpg", i)
			post.MediaType = models.MediaTypeImage
		}

		// Half the posts land in a community.
		if len(communities) > 0 && rand.Intn(2) == 0 {
			community := communities[rand.Intn(len(communities))]
			post.CommunityID = &community.ID
		}

		// Spread creation times over the last two weeks so popular and
		// trending feeds have something to rank.
		post.CreatedAt = time.Now().Add(-time.Duration(rand.Intn(14*24)) * time.Hour)

		if err := s.db.Create(post).Error; err != nil {
			return nil, fmt.Errorf("failed to create post: %w", err)
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (s *Seeder) seedCommentsAndReactions(users []*models.User, posts []*models.Post) error {
	for _, post := range posts {
		var parentIDs []uint
		for _, commenter := range s.pickUsers(users, rand.Intn(5)) {
			comment := models.Comment{
				PostID:    post.ID,
				UserID:    commenter.ID,
				Text:      s.faker.Sentence(8),
				IsVisible: true,
			}
			// Occasionally reply to an earlier top-level comment.
			if len(parentIDs) > 0 && rand.Intn(3) == 0 {
				parentID := parentIDs[rand.Intn(len(parentIDs))]
				comment.ParentID = &parentID
			}
			if err := s.db.Create(&comment).Error; err != nil {
				return fmt.Errorf("failed to create comment: %w", err)
			}
			if comment.ParentID == nil {
				parentIDs = append(parentIDs, comment.ID)
			}
		}

		for _, reactor := range s.pickUsers(users, rand.Intn(8)) {
			kind := models.ReactionLike
			if rand.Intn(5) == 0 {
				kind = models.ReactionDislike
			}
			reaction := models.Reaction{PostID: post.ID, UserID: reactor.ID, Kind: kind}
			if err := s.db.Where(&models.Reaction{PostID: post.ID, UserID: reactor.ID}).
				FirstOrCreate(&reaction).Error; err != nil {
				return fmt.Errorf("failed to create reaction: %w", err)
			}
		}

		if err := s.recountPost(post.ID); err != nil {
			return err
		}
	}
	return nil
}

// recountPost refreshes the denormalized counters from live rows, the same
// way the reaction toggle transaction does.
func (s *Seeder) recountPost(postID uint) error {
	var likes, dislikes, comments int64
	if err := s.db.Model(&models.Reaction{}).
		Where("post_id = ? AND kind = ?", postID, models.ReactionLike).
		Count(&likes).Error; err != nil {
		return err
	}
	if err := s.db.Model(&models.Reaction{}).
		Where("post_id = ? AND kind = ?", postID, models.ReactionDislike).
		Count(&dislikes).Error; err != nil {
		return err
	}
	if err := s.db.Model(&models.Comment{}).
		Where("post_id = ?", postID).
		Count(&comments).Error; err != nil {
		return err
	}
	return s.db.Model(&models.Post{}).Where("id = ?", postID).Updates(map[string]interface{}{
		"likes_count":    likes,
		"dislikes_count": dislikes,
		"comments_count": comments,
	}).Error
}

func (s *Seeder) seedChats(users []*models.User) error {
	if len(users) < 2 {
		return nil
	}

	pairs := make(map[[2]uint]bool)
	numChats := len(users) / 2
	for i := 0; i < numChats; i++ {
		a := users[rand.Intn(len(users))]
		b := users[rand.Intn(len(users))]
		if a.ID == b.ID {
			continue
		}
		key := [2]uint{a.ID, b.ID}
		if a.ID > b.ID {
			key = [2]uint{b.ID, a.ID}
		}
		if pairs[key] {
			continue
		}
		pairs[key] = true

		chat := models.Chat{}
		if err := s.db.Create(&chat).Error; err != nil {
			return fmt.Errorf("failed to create chat: %w", err)
		}
		for _, userID := range key {
			if err := s.db.Create(&models.ChatParticipant{ChatID: chat.ID, UserID: userID}).Error; err != nil {
				return fmt.Errorf("failed to create chat participant: %w", err)
			}
		}

		numMessages := 2 + rand.Intn(10)
		for m := 0; m < numMessages; m++ {
			sender := a.ID
			if rand.Intn(2) == 0 {
				sender = b.ID
			}
			message := models.Message{
				ChatID:   chat.ID,
				SenderID: sender,
				Text:     s.faker.Sentence(6),
				IsRead:   rand.Intn(3) != 0,
			}
			if err := s.db.Create(&message).Error; err != nil {
				return fmt.Errorf("failed to create message: %w", err)
			}
		}
	}
	return nil
}

func (s *Seeder) seedReports(users []*models.User, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	numReports := len(posts) / 20
	for i := 0; i < numReports; i++ {
		reporter := users[rand.Intn(len(users))]
		post := posts[rand.Intn(len(posts))]
		report := models.Report{
			TargetType:     models.ReportTargetPost,
			TargetID:       post.ID,
			ReportedByID:   &reporter.ID,
			ReportedByName: reporter.Name,
			Reason:         s.faker.Sentence(6),
		}
		if err := s.db.Where(&models.Report{
			TargetType:   models.ReportTargetPost,
			TargetID:     post.ID,
			ReportedByID: &reporter.ID,
		}).FirstOrCreate(&report).Error; err != nil {
			return fmt.Errorf("failed to create report: %w", err)
		}
	}
	return nil
}

func (s *Seeder) pickUsers(users []*models.User, n int) []*models.User {
	if n >= len(users) {
		n = len(users)
	}
	picked := make([]*models.User, 0, n)
	seen := make(map[uint]bool, n)
	for len(picked) < n {
		u := users[rand.Intn(len(users))]
		if seen[u.ID] {
			continue
		}
		seen[u.ID] = true
		picked = append(picked, u)
	}
	return picked
}
