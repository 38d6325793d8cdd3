package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/subcommands"

	"brokerdash/internal/app"
	"brokerdash/internal/broker/kiwoom"
	"brokerdash/internal/broker/ls"
	"brokerdash/internal/config"
	"brokerdash/internal/logging"
	"brokerdash/internal/scheduler"
)

var commands = []subcommands.Command{
	&tokenCmd{},
	&secretPutCmd{},
	&balanceCmd{},
	&ordersCmd{},
	&pnlCmd{},
	&marketCmd{},
}

// logLevel is shared by every command; the CLI stays quiet by default.
var logLevel = flag.String("log", "warn", "log level (debug, info, warn, error)")

func loadApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := logging.New(os.Stderr, *logLevel)
	return app.New(ctx, cfg, logger)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, err)
	return subcommands.ExitFailure
}

type tokenCmd struct {
	id string
}

func (*tokenCmd) Name() string     { return "token" }
func (*tokenCmd) Synopsis() string { return "acquire access tokens and print their expiry" }
func (*tokenCmd) Usage() string {
	return `brokerctl token [-id <credential set>]

  Refreshes the token of every configured credential set (or only -id) and
  prints when each one expires.
`
}

func (c *tokenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Only refresh this credential set (kis, kiwoom, ls).")
}

func (c *tokenCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := loadApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	ids := a.Tokens.IDs()
	if c.id != "" {
		ids = []string{c.id}
	}
	if len(ids) == 0 {
		return fail(errors.New("no brokerage credentials configured"))
	}

	status := subcommands.ExitSuccess
	for _, id := range ids {
		tok, err := a.Refresh(ctx, id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", id, err)
			status = subcommands.ExitFailure
			continue
		}
		fmt.Printf("%-8s expires %s (%s)\n", id, tok.ExpiresAt.Format(time.RFC3339), humanize.Time(tok.ExpiresAt))
	}
	return status
}

type secretPutCmd struct {
	file string
}

func (*secretPutCmd) Name() string     { return "secret-put" }
func (*secretPutCmd) Synopsis() string { return "store a secret in the local sqlite secret store" }
func (*secretPutCmd) Usage() string {
	return `brokerctl secret-put [-f <file>] <secret id> [value]

  Writes value (or the contents of -f, or stdin) under the secret id.
  Requires SECRET_BACKEND=sqlite.
`
}

func (c *secretPutCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "", "Read the value from this file.")
}

func (c *secretPutCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 1 || f.NArg() > 2 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	id := f.Arg(0)

	var value string
	switch {
	case f.NArg() == 2:
		value = f.Arg(1)
	case c.file != "":
		data, err := os.ReadFile(c.file)
		if err != nil {
			return fail(err)
		}
		value = string(data)
	default:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fail(err)
		}
		value = string(data)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return fail(errors.New("empty secret value"))
	}

	a, err := loadApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	if err := a.PutSecret(ctx, id, value); err != nil {
		return fail(fmt.Errorf("storing %s: %w", id, err))
	}
	fmt.Printf("stored %s (%s)\n", id, humanize.Bytes(uint64(len(value))))
	return subcommands.ExitSuccess
}

type balanceCmd struct {
	kind     string
	exchange string
	currency string
}

func (*balanceCmd) Name() string     { return "balance" }
func (*balanceCmd) Synopsis() string { return "print a normalized balance as JSON" }
func (*balanceCmd) Usage() string {
	return `brokerctl balance [-k stock|futures|overseas|summary|kiwoom|ls] [-exchange NASD] [-currency USD]
`
}

func (c *balanceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "k", "stock", "Balance kind: stock, futures, overseas, summary, kiwoom or ls.")
	f.StringVar(&c.exchange, "exchange", "", "Overseas exchange code (default NASD).")
	f.StringVar(&c.currency, "currency", "", "Overseas currency (default USD).")
}

func (c *balanceCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := loadApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	var out any
	switch c.kind {
	case "stock":
		out, err = a.Dashboard.Balance(ctx)
	case "futures":
		out, err = a.Dashboard.FuturesBalance(ctx)
	case "overseas":
		out, err = a.Dashboard.OverseasBalance(ctx, strings.ToUpper(c.exchange), strings.ToUpper(c.currency))
	case "summary":
		out, err = a.Dashboard.Summary(ctx)
	case "kiwoom":
		out, err = a.Dashboard.KiwoomBalance(ctx, kiwoom.BalanceQuery{})
	case "ls":
		out, err = a.Dashboard.LSBalance(ctx, ls.BalanceInBlock{})
	default:
		return fail(fmt.Errorf("unknown balance kind %q", c.kind))
	}
	if err != nil {
		return fail(err)
	}
	if err := printJSON(os.Stdout, out); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type ordersCmd struct {
	futures bool
	date    string
}

func (*ordersCmd) Name() string     { return "orders" }
func (*ordersCmd) Synopsis() string { return "print the day's orders as JSON" }
func (*ordersCmd) Usage() string {
	return `brokerctl orders [-futures] [-d YYYYMMDD]
`
}

func (c *ordersCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.futures, "futures", false, "List futures/options orders instead of stock orders.")
	f.StringVar(&c.date, "d", "", "Order date (defaults to today in KST).")
}

func (c *ordersCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := loadApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	var out any
	if c.futures {
		out, err = a.Dashboard.FuturesOrders(ctx, c.date)
	} else {
		out, err = a.Dashboard.Orders(ctx, c.date)
	}
	if err != nil {
		return fail(err)
	}
	if err := printJSON(os.Stdout, out); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type pnlCmd struct {
	start string
	end   string
}

func (*pnlCmd) Name() string     { return "pnl" }
func (*pnlCmd) Synopsis() string { return "print realized P&L per day as JSON" }
func (*pnlCmd) Usage() string {
	return `brokerctl pnl -s YYYYMMDD [-e YYYYMMDD]

  Combines stock and futures realized P&L into one bucket per date, newest
  first. -e defaults to today in KST.
`
}

func (c *pnlCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "s", "", "Start date (required).")
	f.StringVar(&c.end, "e", "", "End date (defaults to today).")
}

func (c *pnlCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.start == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}

	a, err := loadApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	end := c.end
	if end == "" {
		end = a.Dashboard.Today()
	}
	days, err := a.Dashboard.PeriodPnl(ctx, c.start, end)
	if err != nil {
		return fail(err)
	}
	if err := printJSON(os.Stdout, days); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type marketCmd struct{}

func (*marketCmd) Name() string             { return "market" }
func (*marketCmd) Synopsis() string         { return "print whether the Korean market is open" }
func (*marketCmd) Usage() string            { return "brokerctl market\n" }
func (*marketCmd) SetFlags(_ *flag.FlagSet) {}

func (*marketCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := printJSON(os.Stdout, scheduler.StatusAt(time.Now()).Model()); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}
