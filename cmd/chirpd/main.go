package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"chirpd/internal/api"
	"chirpd/internal/cmdlog"
	"chirpd/internal/config"
	"chirpd/internal/directory"
	"chirpd/internal/feed"
	"chirpd/internal/metrics"
	"chirpd/internal/model"
	"chirpd/internal/ratelimit"
	"chirpd/internal/service"
	"chirpd/internal/store/postdb"
	"chirpd/internal/theme"
)

func main() {
	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	switch cmd {
	case "init":
		cmdInit()
	case "serve":
		cmdServe()
	case "post":
		cmdPost()
	case "feed":
		cmdFeed()
	default:
		printHelp()
	}
}

func printHelp() {
	theme.PrintBanner()
	fmt.Println("Usage: chirpd <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  init    Create a config file at ./chirpd.yaml")
	fmt.Println("  serve   Run the HTTP API server")
	fmt.Println("  post    Create a post from the command line")
	fmt.Println("  feed    Print the enriched feed")
}

func cmdInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	path := fs.String("path", "./chirpd.yaml", "path to write config")
	_ = fs.Parse(os.Args[2:])
	cfg := config.Default()
	if err := config.Save(*path, cfg); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	abs, _ := filepath.Abs(*path)
	theme.PrintBanner()
	fmt.Println("Config written to:", abs)
}

func cmdServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "./chirpd.yaml", "config path")
	_ = fs.Parse(os.Args[2:])
	err := cmdlog.Run("serve", func() error {
		cfg, err := config.Load(*cfgPath)
		if err != nil {
			return err
		}
		svc, db, err := buildService(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		metrics.StartServer(cfg.Metrics.Addr)
		srv := api.NewServer(svc, api.StaticTokens(cfg.Server.Tokens))
		return srv.ListenAndServe(cfg.Server.Addr)
	})
	if err != nil {
		os.Exit(1)
	}
}

func cmdPost() {
	fs := flag.NewFlagSet("post", flag.ExitOnError)
	cfgPath := fs.String("config", "./chirpd.yaml", "config path")
	author := fs.String("author", "", "author principal id")
	content := fs.String("content", "", "post content (emoji only)")
	_ = fs.Parse(os.Args[2:])
	err := cmdlog.Run("post", func() error {
		cfg, err := config.Load(*cfgPath)
		if err != nil {
			return err
		}
		svc, db, err := buildService(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		p, err := svc.Create(context.Background(), *author, *content)
		if err != nil {
			return err
		}
		fmt.Printf("posted %s at %s\n", p.ID, p.CreatedAt.Format(time.RFC3339))
		return nil
	})
	if err != nil {
		os.Exit(1)
	}
}

func cmdFeed() {
	fs := flag.NewFlagSet("feed", flag.ExitOnError)
	cfgPath := fs.String("config", "./chirpd.yaml", "config path")
	author := fs.String("author", "", "filter by author principal id")
	limit := fs.Int("limit", 100, "max posts")
	_ = fs.Parse(os.Args[2:])
	err := cmdlog.Run("feed", func() error {
		cfg, err := config.Load(*cfgPath)
		if err != nil {
			return err
		}
		svc, db, err := buildService(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		ctx := context.Background()
		posts, err := listFeed(ctx, svc, *author, *limit)
		if err != nil {
			return err
		}
		for _, ep := range posts {
			fmt.Printf("%s  @%s  %s\n", ep.Post.CreatedAt.Format(time.RFC3339), ep.Author.Username, ep.Post.Content)
		}
		return nil
	})
	if err != nil {
		os.Exit(1)
	}
}

func listFeed(ctx context.Context, svc *service.Service, author string, limit int) ([]model.EnrichedPost, error) {
	if author != "" {
		return svc.ListByAuthor(ctx, author, limit)
	}
	return svc.ListAll(ctx, limit)
}

func buildService(cfg config.Config) (*service.Service, *postdb.DB, error) {
	db, err := postdb.Open(cfg.Storage.DBPath)
	if err != nil {
		return nil, nil, err
	}
	limiter := ratelimit.NewSlidingWindow(db, cfg.RateLimit.Window(), cfg.RateLimit.Capacity)
	dir := directory.NewHTTPClient(cfg.Directory.BaseURL, cfg.Directory.Token, cfg.Directory.RPS, cfg.Directory.Burst)
	assembler := feed.NewAssembler(dir, cfg.Directory.BatchSize)
	return service.New(db, limiter, assembler, cfg.RateLimit.FailOpen), db, nil
}
