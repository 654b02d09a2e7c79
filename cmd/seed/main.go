// Command seed populates the database with development data.
package main

import (
	"flag"
	"log"

	"commune/internal/config"
	"commune/internal/database"
	"commune/internal/seed"
)

func main() {
	opts := seed.DefaultOptions()
	flag.IntVar(&opts.Users, "users", opts.Users, "Number of users to create")
	flag.IntVar(&opts.Posts, "posts", opts.Posts, "Number of posts to create")
	flag.IntVar(&opts.Pages, "pages", opts.Pages, "Number of pages to create")
	flag.IntVar(&opts.Communities, "communities", opts.Communities, "Number of communities to create")
	flag.BoolVar(&opts.Clean, "clean", opts.Clean, "Clean database before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Printf("Seeding %d users, %d posts, %d pages, %d communities (clean=%v)",
		opts.Users, opts.Posts, opts.Pages, opts.Communities, opts.Clean)

	if err := seed.Seed(db, opts); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Println("Seeding complete")
}
