// Package main provides a tool to seed the database with sample club data.
//
// It creates a handful of members, a small book catalog with download
// resources, paw ratings, and a threaded discussion on each book. Useful
// for exercising the API and the live-update streams against realistic
// data.
//
// Usage:
//
//	DATA_PATH=~/PawClub/data go run ./cmd/seed
//	DATA_PATH=~/PawClub/data go run ./cmd/seed --members=10
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/pawclub/pawclub-server/internal/auth"
	"github.com/pawclub/pawclub-server/internal/domain"
	"github.com/pawclub/pawclub-server/internal/id"
	"github.com/pawclub/pawclub-server/internal/store"
	"github.com/pawclub/pawclub-server/internal/util"
)

var memberCount = flag.Int("members", 6, "Number of test members to create")

// seedPassword is shared by every seeded account. Seed data is for local
// development only.
const seedPassword = "paw-club-dev"

var memberNames = []string{
	"Ana", "Bruno", "Carla", "Diego", "Elena", "Fabio",
	"Gabriela", "Hugo", "Irene", "Javier", "Karla", "Luis",
}

type seedBook struct {
	title    string
	author   string
	category string
	year     int
	week     string
	desc     string
}

var seedBooks = []seedBook{
	{"Dune", "Frank Herbert", "sci-fi", 1965, "Semana 1", "Desert politics, giant worms, and a chosen one."},
	{"The Left Hand of Darkness", "Ursula K. Le Guin", "sci-fi", 1969, "Semana 2", "An envoy on a planet where gender is fluid."},
	{"One Hundred Years of Solitude", "Gabriel Garcia Marquez", "fiction", 1967, "Semana 3", "Seven generations of the Buendia family."},
	{"The Hobbit", "J.R.R. Tolkien", "fantasy", 1937, "Semana 4", "There and back again."},
	{"Pedro Paramo", "Juan Rulfo", "fiction", 1955, "Semana 5", "A town of ghosts and a search for a father."},
	{"A Wizard of Earthsea", "Ursula K. Le Guin", "fantasy", 1968, "Semana 6", "Naming, shadow, and the price of power."},
}

var commentTexts = []string{
	"Loved this one, finished it in two sittings.",
	"The middle dragged for me but the ending landed.",
	"Anyone else catch the foreshadowing in chapter 3?",
	"This is my second read and it holds up.",
	"Not my genre but I am glad the club picked it.",
	"The translation is excellent, highly recommend it.",
}

var replyTexts = []string{
	"Same here, could not put it down.",
	"Totally agree.",
	"I missed that, going back to reread.",
	"Interesting take, I read it the opposite way.",
}

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/PawClub/data")
	}
	dbPath := filepath.Join(dataPath, "db")

	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := store.New(dbPath, nil, store.NewNoopEmitter())
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	rng := rand.New(rand.NewSource(time.Now().UnixNano())) //#nosec G404 -- seed data does not need crypto randomness

	users := seedMembers(ctx, s)
	books := seedCatalog(ctx, s)
	seedRatings(ctx, s, rng, users, books)
	seedComments(ctx, s, rng, users, books)

	fmt.Printf("\nDone. %d members, %d books. Password for every account: %q\n",
		len(users), len(books), seedPassword)
}

func seedMembers(ctx context.Context, s *store.Store) []*domain.User {
	hash, err := auth.HashPassword(seedPassword)
	if err != nil {
		log.Fatalf("Failed to hash seed password: %v", err)
	}

	n := *memberCount
	if n > len(memberNames) {
		n = len(memberNames)
	}

	var users []*domain.User
	for i := 0; i < n; i++ {
		name := memberNames[i]
		email := fmt.Sprintf("%s@pawclub.test", util.Slugify(name))

		// Idempotent: reuse members from a previous run.
		if existing, err := s.GetUserByEmail(ctx, email); err == nil {
			users = append(users, existing)
			continue
		}

		now := time.Now()
		user := &domain.User{
			ID:           id.MustGenerate("user"),
			DisplayName:  name,
			Email:        email,
			PasswordHash: hash,
			Roles:        map[string]domain.Role{id.MustGenerate("role"): domain.RoleUser},
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		// First member doubles as the admin.
		if i == 0 {
			user.Roles[id.MustGenerate("role")] = domain.RoleAdmin
		}

		if err := s.CreateUser(ctx, user); err != nil {
			log.Fatalf("Failed to create user %s: %v", email, err)
		}
		fmt.Printf("Created member: %s (%s)\n", name, email)
		users = append(users, user)
	}
	return users
}

func seedCatalog(ctx context.Context, s *store.Store) []*domain.Book {
	var books []*domain.Book
	for _, sb := range seedBooks {
		slug := util.Slugify(sb.title)

		if existing, err := s.GetBook(ctx, slug); err == nil {
			books = append(books, existing)
			continue
		}

		book := &domain.Book{
			Slug:        slug,
			Title:       sb.title,
			Author:      sb.author,
			Category:    sb.category,
			PubYear:     sb.year,
			Week:        sb.week,
			Description: sb.desc,
			Downloads: []domain.Download{
				{ID: id.MustGenerate("dl"), Type: "epub", URL: "https://files.pawclub.test/" + slug + ".epub"},
				{ID: id.MustGenerate("dl"), Type: "pdf", URL: "https://files.pawclub.test/" + slug + ".pdf"},
			},
		}

		if err := s.CreateBook(ctx, book); err != nil {
			log.Fatalf("Failed to create book %s: %v", slug, err)
		}
		fmt.Printf("Created book: %s (%s)\n", sb.title, slug)
		books = append(books, book)
	}
	return books
}

func seedRatings(ctx context.Context, s *store.Store, rng *rand.Rand, users []*domain.User, books []*domain.Book) {
	for _, book := range books {
		for _, user := range users {
			// Not everyone rates everything.
			if rng.Intn(3) == 0 {
				continue
			}
			rating := 1 + rng.Intn(5)
			if _, err := s.SetRating(ctx, book.Slug, user.ID, rating); err != nil {
				log.Fatalf("Failed to rate %s: %v", book.Slug, err)
			}
		}
	}
	fmt.Println("Seeded paw ratings")
}

func seedComments(ctx context.Context, s *store.Store, rng *rand.Rand, users []*domain.User, books []*domain.Book) {
	for _, book := range books {
		if count, err := s.CountComments(ctx, book.Slug); err == nil && count > 0 {
			continue
		}

		rootCount := 1 + rng.Intn(3)
		for r := 0; r < rootCount; r++ {
			author := users[rng.Intn(len(users))]
			root := newComment(author, commentTexts[rng.Intn(len(commentTexts))])
			if err := s.AddComment(ctx, book.Slug, nil, root); err != nil {
				log.Fatalf("Failed to comment on %s: %v", book.Slug, err)
			}

			// Some threads get replies and votes.
			if rng.Intn(2) == 0 {
				replier := users[rng.Intn(len(users))]
				reply := newComment(replier, replyTexts[rng.Intn(len(replyTexts))])
				if err := s.AddComment(ctx, book.Slug, []string{root.ID}, reply); err != nil {
					log.Fatalf("Failed to reply on %s: %v", book.Slug, err)
				}
			}

			voter := users[rng.Intn(len(users))]
			if _, err := s.ToggleCommentVote(ctx, book.Slug, []string{root.ID}, voter.ID, rng.Intn(4) != 0); err != nil {
				log.Fatalf("Failed to vote on %s: %v", book.Slug, err)
			}
		}
	}
	fmt.Println("Seeded discussions")
}

func newComment(author *domain.User, text string) *domain.Comment {
	return &domain.Comment{
		ID:           id.Comment(),
		Text:         text,
		AuthorID:     author.ID,
		AuthorName:   author.DisplayName,
		AuthorAvatar: author.AvatarURL,
		CreatedAt:    time.Now(),
		Likes:        domain.VoteSet{},
		Dislikes:     domain.VoteSet{},
	}
}
