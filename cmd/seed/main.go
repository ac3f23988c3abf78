// Command seed loads the built-in tier catalogue and, on request, a demo dataset.
package main

import (
	"context"
	"flag"
	"log"

	"rockae/internal/bootstrap"
	"rockae/internal/config"
	"rockae/internal/seed"
)

func main() {
	demo := flag.Bool("demo", false, "Also generate demo users, communities, posts and polls")
	users := flag.Int("users", seed.DefaultOptions.Users, "Number of demo users")
	communities := flag.Int("communities", seed.DefaultOptions.Communities, "Number of demo communities")
	members := flag.Int("members", seed.DefaultOptions.MembersPerComm, "Members joined to each demo community")
	posts := flag.Int("posts", seed.DefaultOptions.PostsPerComm, "Forum posts per demo community")
	fakerSeed := flag.Int64("seed", 0, "Seed for reproducible demo data (0 = random)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{ApplySchema: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer func() {
		if err := rt.Close(ctx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	if err := seed.Tiers(ctx, rt.Services.Billing); err != nil {
		log.Fatalf("Tier seeding failed: %v", err)
	}
	log.Println("built-in tiers seeded")

	if !*demo {
		return
	}
	f := seed.NewFactory(seed.FromRuntime(rt.Services), *fakerSeed)
	result, err := f.SeedDemo(ctx, seed.Options{
		Users:          *users,
		Communities:    *communities,
		MembersPerComm: *members,
		PostsPerComm:   *posts,
	})
	if err != nil {
		log.Fatalf("Demo seeding failed: %v", err)
	}
	log.Printf("demo data: %d users, %d communities, %d posts", len(result.Users), len(result.Communities), result.Posts)
	log.Printf("all demo users share the password %q", seed.DemoPassword)
}
