package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/marc-hebbo/marketgo/config"
	"github.com/marc-hebbo/marketgo/market"
	"github.com/marc-hebbo/marketgo/session"
	"github.com/marc-hebbo/marketgo/storage"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	var keepAlive bool
	var interval time.Duration

	flag.BoolVar(&keepAlive, "keep-alive", false, "Keep refreshing the access token until interrupted")
	flag.DurationVar(&interval, "interval", 12*time.Hour, "Keep-alive refresh interval")
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

	sess := session.New(client, tokens)
	sess.RestoreSession()
	printSnapshot(sess.Snapshot())

	if !keepAlive {
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	gate := session.NewGate(func(prev, next session.Graph) {
		log.Info().Stringer("from", prev).Stringer("to", next).Msg("navigation graph changed")
	})
	updates := sess.Subscribe()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return session.KeepAlive(ctx, sess, interval)
	})
	g.Go(func() error {
		return gate.Run(ctx, updates)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("shutdown with error")
		os.Exit(1)
	}
	log.Info().Msg("shutdown complete")
}

func printSnapshot(snap session.Snapshot) {
	graph := session.ActiveGraph(snap)
	fmt.Printf("logged in:  %v\n", snap.LoggedIn)
	fmt.Printf("verified:   %v\n", snap.Verified)
	fmt.Printf("user id:    %s\n", orNone(snap.UserID))
	fmt.Printf("email:      %s\n", orNone(snap.Email))
	fmt.Printf("graph:      %s (initial screen: %s)\n", graph, orNone(session.InitialScreen(graph)))
}

func orNone(s string) string {
	if s == "" {
		return "<none>"
	}
	return s
}
