// Command main runs the database seeder for the fitness API.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/daniyal2335/eprojectfitness/internal/auth"
	"github.com/daniyal2335/eprojectfitness/internal/config"
	"github.com/daniyal2335/eprojectfitness/internal/database"
	"github.com/daniyal2335/eprojectfitness/internal/seed"

	"github.com/joho/godotenv"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numPosts := flag.Int("posts", 60, "Number of forum posts to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	seedValue := flag.Int64("seed", 0, "Random seed, 0 picks one")
	flag.Parse()

	_ = godotenv.Load()

	log.Println("🌱 Database Seeder")
	log.Printf("Target: %d users, %d posts, clean=%v\n", *numUsers, *numPosts, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	users, err := seed.Seed(context.Background(), db, seed.Options{
		NumUsers:    *numUsers,
		NumPosts:    *numPosts,
		ShouldClean: *shouldClean,
		Seed:        *seedValue,
	})
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✨ All done! Your database is now populated with test data.")
	log.Printf("📧 All test users have the password: %s", seed.DefaultPassword)

	if len(users) > 0 {
		u := users[0]
		token, err := auth.IssueToken(cfg.JWTSecret, u.ID, u.Username, u.Email)
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		log.Printf("🔑 Token for %s (id %d):\n%s", u.Username, u.ID, token)
	}
}
