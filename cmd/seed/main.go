// Package main validates a category pack and optionally installs it where
// the server expects to load it from.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/louisbranch/wordclash/internal/services/match/domain/words"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	var packPath string
	var installPath string
	var verbose bool
	flag.StringVar(&packPath, "pack", "", "category pack JSON to validate")
	flag.StringVar(&installPath, "install", os.Getenv("WORDCLASH_PACK_PATH"), "install destination (empty = validate only)")
	flag.BoolVar(&verbose, "v", false, "list categories and groups")
	flag.Parse()

	if packPath == "" {
		fmt.Fprintln(os.Stderr, "usage: seed -pack <pack.json> [-install <dest>]")
		os.Exit(2)
	}

	data, err := os.ReadFile(packPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg, err := words.Parse(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	categories := cfg.CategoryNames()
	groups := cfg.GroupNames()
	fmt.Printf("pack ok: %d categories, %d groups, %d rounds per match\n",
		len(categories), len(groups), cfg.Rules().NumRounds)
	if verbose {
		fmt.Println("Categories:")
		for _, name := range categories {
			category, _ := cfg.Category(name)
			fmt.Printf("  %s (%d words)\n", name, category.Len())
		}
		fmt.Println("Groups:")
		for _, name := range groups {
			members, _ := cfg.GroupCategories(name)
			fmt.Printf("  %s: %v\n", name, members)
		}
	}

	if installPath == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(installPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(installPath, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("installed to %s\n", installPath)
}
