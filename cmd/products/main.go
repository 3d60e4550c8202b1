package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/marc-hebbo/marketgo/config"
	"github.com/marc-hebbo/marketgo/market"
	"github.com/marc-hebbo/marketgo/storage"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	var page, limit int
	var order, query string

	flag.IntVar(&page, "page", 1, "Page number")
	flag.IntVar(&limit, "limit", 10, "Results per page")
	flag.StringVar(&order, "order", "", "Price sort order: asc or desc")
	flag.StringVar(&query, "query", "", "Free text search instead of paging the catalog")
	flag.Parse()

	config.LoadEnvFile()
	if missing := config.CheckRequiredConfig(); len(missing) > 0 {
		fmt.Fprintf(os.Stderr, "missing required config: %s\n", strings.Join(missing, ", "))
		os.Exit(1)
	}

	encryptionKey, err := storage.DeriveKey(config.TokenKey())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error deriving encryption key: %v\n", err)
		os.Exit(1)
	}

	tokens, err := storage.NewSQLiteStore(config.DBPath(), encryptionKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening token store at %s: %v\n", config.DBPath(), err)
		os.Exit(1)
	}
	defer tokens.Close()

	client := market.NewClient(market.ClientOpts{
		BaseURL:        config.BaseURL(),
		Tokens:         tokens,
		InstallationID: config.InstallationID(),
	})

	ctx := context.Background()

	if query != "" {
		products, err := client.SearchProducts(ctx, query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		printProducts(products)
		return
	}

	result, err := client.GetProducts(ctx, market.ListParams{
		Page:  page,
		Limit: limit,
		Order: market.SortOrder(order),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Listing failed: %v\n", err)
		os.Exit(1)
	}

	printProducts(result.Products)
	fmt.Printf("\nPage %d of %d\n", result.Pagination.CurrentPage, result.Pagination.TotalPages)
}

func printProducts(products []market.Product) {
	if len(products) == 0 {
		fmt.Println("No products found")
		return
	}
	for _, p := range products {
		fmt.Printf("%-26s %10.2f  %s\n", p.ID, p.Price, p.Title)
	}
}
