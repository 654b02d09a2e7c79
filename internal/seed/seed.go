// Package seed populates the database with realistic development data.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"commune/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options controls the shape of the generated corpus.
type Options struct {
	Users       int
	Posts       int
	Pages       int
	Communities int
	Clean       bool
}

// DefaultOptions is a medium-sized corpus useful for local feed testing.
func DefaultOptions() Options {
	return Options{Users: 50, Posts: 300, Pages: 5, Communities: 5, Clean: true}
}

// seedPassword is the shared plaintext password for every seeded account.
const seedPassword = "password123"

// Seed fills the database per opts. Posts are spread over the last 30 days
// with uneven like/comment engagement, so both sort modes produce
// interesting orderings out of the box.
func Seed(db *gorm.DB, opts Options) error {
	if opts.Clean {
		if err := clearData(db); err != nil {
			return fmt.Errorf("clean: %w", err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.MinCost)
	if err != nil {
		return err
	}

	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		user := &models.User{
			Username:  fmt.Sprintf("%s%d", gofakeit.Username(), i),
			Email:     fmt.Sprintf("user%d@%s", i, gofakeit.DomainName()),
			Password:  string(hash),
			Name:      gofakeit.Name(),
			Bio:       gofakeit.Sentence(8),
			IsPrivate: rand.Intn(10) == 0,
		}
		if err := db.Create(user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		users = append(users, user)
	}
	if len(users) == 0 {
		return nil
	}

	pages := make([]*models.Page, 0, opts.Pages)
	for i := 0; i < opts.Pages; i++ {
		owner := users[rand.Intn(len(users))]
		page := &models.Page{
			Name:        gofakeit.Company(),
			Slug:        fmt.Sprintf("%s-%d", gofakeit.Word(), i),
			Description: gofakeit.Sentence(10),
			OwnerID:     owner.ID,
		}
		if err := db.Create(page).Error; err != nil {
			return fmt.Errorf("create page: %w", err)
		}
		pages = append(pages, page)
	}

	communities := make([]*models.Community, 0, opts.Communities)
	for i := 0; i < opts.Communities; i++ {
		owner := users[rand.Intn(len(users))]
		community := &models.Community{
			Name:        gofakeit.HackerNoun() + " club",
			Slug:        fmt.Sprintf("%s-club-%d", gofakeit.Word(), i),
			Description: gofakeit.Sentence(10),
			OwnerID:     owner.ID,
		}
		if err := db.Create(community).Error; err != nil {
			return fmt.Errorf("create community: %w", err)
		}
		member := models.CommunityMember{
			CommunityID: community.ID,
			UserID:      owner.ID,
			Role:        models.CommunityRoleAdmin,
		}
		if err := db.Create(&member).Error; err != nil {
			return fmt.Errorf("create community owner membership: %w", err)
		}
		communities = append(communities, community)
	}

	if err := seedFollowGraph(db, users, pages, communities); err != nil {
		return err
	}

	now := time.Now().UTC()
	for i := 0; i < opts.Posts; i++ {
		author := users[rand.Intn(len(users))]
		post := &models.Post{
			Content:   gofakeit.Paragraph(1, 3, 12, " "),
			UserID:    author.ID,
			CreatedAt: now.Add(-time.Duration(rand.Intn(30*24)) * time.Hour),
		}
		switch rand.Intn(10) {
		case 0:
			if len(pages) > 0 {
				page := pages[rand.Intn(len(pages))]
				post.UserID = page.OwnerID
				post.PageID = &page.ID
			}
		case 1:
			if len(communities) > 0 {
				community := communities[rand.Intn(len(communities))]
				post.CommunityID = &community.ID
			}
		}
		if err := db.Create(post).Error; err != nil {
			return fmt.Errorf("create post: %w", err)
		}
		if err := seedEngagement(db, users, post); err != nil {
			return err
		}
	}

	return nil
}

// seedFollowGraph gives every user a handful of follows so authenticated
// feeds have a non-trivial followed pool.
func seedFollowGraph(db *gorm.DB, users []*models.User, pages []*models.Page, communities []*models.Community) error {
	for _, user := range users {
		for i := 0; i < rand.Intn(8); i++ {
			target := users[rand.Intn(len(users))]
			if target.ID == user.ID {
				continue
			}
			follow := models.Follow{FollowerID: user.ID, FollowedID: target.ID}
			if err := db.Where(follow).FirstOrCreate(&follow).Error; err != nil {
				return fmt.Errorf("create follow: %w", err)
			}
		}
		if len(pages) > 0 && rand.Intn(3) == 0 {
			page := pages[rand.Intn(len(pages))]
			pf := models.PageFollow{FollowerID: user.ID, PageID: page.ID}
			if err := db.Where(pf).FirstOrCreate(&pf).Error; err != nil {
				return fmt.Errorf("create page follow: %w", err)
			}
		}
		if len(communities) > 0 && rand.Intn(3) == 0 {
			community := communities[rand.Intn(len(communities))]
			member := models.CommunityMember{CommunityID: community.ID, UserID: user.ID}
			if err := db.Where(models.CommunityMember{CommunityID: community.ID, UserID: user.ID}).
				Attrs(models.CommunityMember{Role: models.CommunityRoleMember}).
				FirstOrCreate(&member).Error; err != nil {
				return fmt.Errorf("create community membership: %w", err)
			}
		}
	}
	return nil
}

// seedEngagement attaches a skewed number of likes and comments to a post
// and sets the denormalized counters to match.
func seedEngagement(db *gorm.DB, users []*models.User, post *models.Post) error {
	likers := rand.Intn(len(users))
	if rand.Intn(5) != 0 {
		// Most posts get little engagement; a few go viral.
		likers = rand.Intn(4)
	}

	likeCount := 0
	for i := 0; i < likers; i++ {
		like := models.Like{UserID: users[i].ID, PostID: post.ID}
		if err := db.Where(like).FirstOrCreate(&like).Error; err != nil {
			return fmt.Errorf("create like: %w", err)
		}
		likeCount++
	}

	commentCount := rand.Intn(4)
	for i := 0; i < commentCount; i++ {
		comment := models.Comment{
			Content: gofakeit.Sentence(10),
			UserID:  users[rand.Intn(len(users))].ID,
			PostID:  post.ID,
		}
		if err := db.Create(&comment).Error; err != nil {
			return fmt.Errorf("create comment: %w", err)
		}
	}

	return db.Model(&models.Post{}).Where("id = ?", post.ID).Updates(map[string]interface{}{
		"like_count":    likeCount,
		"comment_count": commentCount,
	}).Error
}

// clearData wipes every seeded table. Hard deletes, tombstones included.
func clearData(db *gorm.DB) error {
	tables := []interface{}{
		&models.AuditLog{},
		&models.Comment{},
		&models.Like{},
		&models.Bookmark{},
		&models.FollowRequest{},
		&models.PageFollow{},
		&models.Follow{},
		&models.CommunityMember{},
		&models.Post{},
		&models.Community{},
		&models.Page{},
		&models.User{},
	}
	for _, table := range tables {
		if err := db.Unscoped().Where("1 = 1").Delete(table).Error; err != nil {
			return err
		}
	}
	return nil
}
