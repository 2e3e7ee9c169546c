// Command ledgerctl holds operator helpers for the discussion ledger: wallet
// keys for testing, login signatures, address normalisation and fee previews.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"
	"github.com/stake-plus/chatledger/src/api/webserver"
	sharedconfig "github.com/stake-plus/chatledger/src/config"
	"github.com/stake-plus/chatledger/src/identity"
	"github.com/stake-plus/chatledger/src/ledger"
	"github.com/stake-plus/chatledger/src/webclient"
)

type command struct {
	summary string
	run     func(args []string, out io.Writer) error
}

var commands = map[string]command{
	"keygen":  {"generate a mnemonic and its address", runKeygen},
	"sign":    {"sign a login challenge nonce", runSign},
	"address": {"print the canonical form of addresses", runAddress},
	"fees":    {"preview the fee schedule in base units", runFees},
	"login":   {"sign in to a ledger API and print the token", runLogin},
}

var errUsage = errors.New("usage")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			usage(os.Stderr)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "ledgerctl:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
	return cmd.run(args[1:], out)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: ledgerctl <command> [flags]")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-8s %s\n", name, commands[name].summary)
	}
}

func flagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func runKeygen(args []string, out io.Writer) error {
	fs := flagSet("keygen")
	password := fs.String("password", "", "derivation password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	phrase, err := identity.NewMnemonic()
	if err != nil {
		return err
	}
	kp, err := identity.FromMnemonic(phrase, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "mnemonic: %s\naddress:  %s\n", phrase, kp.Address)
	return nil
}

func runSign(args []string, out io.Writer) error {
	fs := flagSet("sign")
	mnemonic := fs.StringP("mnemonic", "m", os.Getenv("LEDGER_MNEMONIC"), "signing mnemonic (default $LEDGER_MNEMONIC)")
	password := fs.String("password", "", "derivation password")
	nonce := fs.StringP("nonce", "n", "", "challenge nonce from /v1/auth/challenge")
	raw := fs.Bool("raw", false, "sign the nonce bytes as-is instead of the challenge message")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *mnemonic == "" || *nonce == "" {
		return errors.New("sign: --mnemonic and --nonce are required")
	}
	kp, err := identity.FromMnemonic(*mnemonic, *password)
	if err != nil {
		return err
	}
	msg := webserver.ChallengeMessage(*nonce)
	if *raw {
		msg = []byte(*nonce)
	}
	sig, err := kp.Sign(msg)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "address:   %s\nsignature: %s\n", kp.Address, sig)
	return nil
}

func runAddress(args []string, out io.Writer) error {
	fs := flagSet("address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("address: nothing to normalise")
	}
	var failed int
	for _, a := range fs.Args() {
		norm, err := identity.Normalize(a)
		if err != nil {
			fmt.Fprintf(out, "%s\tinvalid: %v\n", a, err)
			failed++
			continue
		}
		fmt.Fprintf(out, "%s\t%s\n", a, norm)
	}
	if failed > 0 {
		return fmt.Errorf("address: %d invalid", failed)
	}
	return nil
}

func runFees(args []string, out io.Writer) error {
	fs := flagSet("fees")
	file := fs.StringP("file", "f", os.Getenv("LEDGER_FEES_FILE"), "fee schedule yaml (default built-in schedule)")
	decimals := fs.Uint8("decimals", 10, "fee token decimals")
	weight := fs.Int64("weight", 1, "vote weight to price")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fees, err := sharedconfig.LoadFees(strings.TrimSpace(*file))
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACTION\tTREASURY\tOWNER")
	for _, row := range []struct {
		name string
		kind ledger.FeeKind
	}{
		{"post", ledger.FeePost},
		{"reply", ledger.FeeReply},
		{"edit", ledger.FeeEdit},
		{"delete", ledger.FeeDelete},
		{"profile", ledger.FeeProfile},
	} {
		amount, err := fees.Flat(row.kind, *decimals)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%d\t-\n", row.name, amount)
	}
	up, err := fees.PostVote(*weight, *decimals)
	if err != nil {
		return err
	}
	down, err := fees.PostVote(-*weight, *decimals)
	if err != nil {
		return err
	}
	target, err := fees.TargetVote(*weight, *decimals)
	if err != nil {
		return err
	}
	fmt.Fprintf(tw, "upvote x%d\t%d\t%d\n", *weight, up.Treasury, up.Owner)
	fmt.Fprintf(tw, "downvote x%d\t%d\t%d\n", *weight, down.Treasury, down.Owner)
	fmt.Fprintf(tw, "target vote x%d\t%d\t-\n", *weight, target)
	return tw.Flush()
}

func runLogin(args []string, out io.Writer) error {
	fs := flagSet("login")
	api := fs.String("api", envOr("LEDGER_API_URL", "http://localhost:8080/v1"), "API base URL")
	mnemonic := fs.StringP("mnemonic", "m", os.Getenv("LEDGER_MNEMONIC"), "signing mnemonic (default $LEDGER_MNEMONIC)")
	password := fs.String("password", "", "derivation password")
	timeout := fs.Duration("timeout", 30*time.Second, "overall timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *mnemonic == "" {
		return errors.New("login: --mnemonic is required")
	}
	kp, err := identity.FromMnemonic(*mnemonic, *password)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	token, err := webclient.New(*api).Login(ctx, kp.Address, kp)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
