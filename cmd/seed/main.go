// Command seed populates a development project with demo users and posts.
package main

import (
	"context"
	"flag"
	"log"

	"snapgram/internal/appwrite"
	"snapgram/internal/config"
	"snapgram/internal/observability"
	"snapgram/internal/repository"
	"snapgram/internal/seed"
	"snapgram/internal/server"
	"snapgram/internal/service"
)

func main() {
	numUsers := flag.Int("users", 10, "Number of users to create")
	numPosts := flag.Int("posts", 5, "Number of posts per user")
	dryRun := flag.Bool("dry-run", false, "Log what would be created without calling the platform")
	rngSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 = random)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	observability.ConfigureLogger(cfg.Env, cfg.LogLevel)

	if cfg.IsProduction() && !*dryRun {
		log.Fatal("Refusing to seed a production project")
	}

	client, err := server.PlatformClient(cfg)
	if err != nil {
		log.Fatalf("Failed to create platform client: %v", err)
	}

	cols := server.Collections(cfg)
	docs := appwrite.NewDatabases(client)
	userRepo := repository.NewUserRepository(docs, cols)
	files := service.NewFileService(repository.NewFileRepository(appwrite.NewStorage(client), cols), nil, cfg)

	s := seed.NewSeeder(
		service.NewAuthService(appwrite.NewAccounts(client), appwrite.NewAvatars(client), userRepo),
		service.NewPostService(
			repository.NewPostRepository(docs, cols),
			repository.NewSaveRepository(docs, cols),
			files,
		),
		seed.Options{Users: *numUsers, PostsPerUser: *numPosts, DryRun: *dryRun, Seed: *rngSeed},
	)

	log.Printf("Target: %d users, %d posts each, dry-run=%v", *numUsers, *numPosts, *dryRun)
	res, err := s.Run(context.Background())
	if err != nil {
		log.Fatalf("Seeding failed after %d users and %d posts: %v", res.Users, res.Posts, err)
	}

	log.Printf("Created %d users and %d posts", res.Users, res.Posts)
	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}
