package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/lithammer/dedent"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/marc-hebbo/marketgo/config"
	"github.com/marc-hebbo/marketgo/market"
	"github.com/marc-hebbo/marketgo/session"
	"github.com/marc-hebbo/marketgo/storage"
)

var usage = strings.TrimSpace(dedent.Dedent(`
	Usage: login [-otp] <email>

	Logs in against the marketplace backend and stores the token pair in the
	local token store. With -otp, submits a verification code for the account
	instead.

	Required environment (or ~/.config/marketgo/config.env):
	  MARKET_TOKEN_KEY   passphrase protecting stored tokens
`))

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	var otp bool
	flag.BoolVar(&otp, "otp", false, "Submit a verification OTP instead of logging in")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	email := flag.Arg(0)

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

	if otp {
		code, err := prompt("OTP code: ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading code: %v\n", err)
			os.Exit(1)
		}
		ok, err := client.VerifyOTP(ctx, email, code)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Verification failed: %v\n", err)
			os.Exit(1)
		}
		if !ok {
			fmt.Println("Verification rejected")
			os.Exit(1)
		}
		fmt.Println("Email verified. Log in again to get a token.")
		return
	}

	password, err := promptPassword("Password: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading password: %v\n", err)
		os.Exit(1)
	}

	sess := session.New(client, tokens)
	sess.RestoreSession()

	switch status := sess.Login(ctx, email, password); status {
	case session.StatusSuccess:
		snap := sess.Snapshot()
		fmt.Printf("Logged in as %s (user %s)\n", snap.Email, snap.UserID)
	case session.StatusUnverified:
		fmt.Println("Account is not verified yet. Run again with -otp after receiving the code.")
	default:
		fmt.Fprintln(os.Stderr, "Login failed")
		os.Exit(1)
	}
}

func prompt(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	var value string
	if _, err := fmt.Scanln(&value); err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

func promptPassword(label string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		// Piped input, e.g. echo "$PW" | login user@example.com
		return prompt("")
	}
	fmt.Fprint(os.Stderr, label)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
