/*
main.go - leavectl, the admin command line

PURPOSE:
  Manages tenant master data and reviews applications directly against the
  SQLite database. The HTTP API never exposes these operations.

COMMANDS:
  migrate                                   create / upgrade the schema
  seed                                      load the demo tenant (idempotent)
  client add -name N [-credential C]        prints the client id and credential
  client list
  client rm -id ID                          cascades to employees, types, applications
  employee add -client ID -code C -name N -secret S [-start YYYY-MM-DD]
  employee rm -client ID -code C
  leavetype add -client ID -code C -name N [-allocation 0] [-carry-over 0]
  leavetype rm -client ID -code C
  review -key CREDENTIAL -id APPLICATION_ID -status approved|rejected

GLOBAL FLAGS:
  -db   SQLite database path (LEAVE_DB_PATH, default: leave.db)

EXAMPLES:
  leavectl -db ./leave.db client add -name "Acme Bakery"
  leavectl review -key DEMO-ACME-KEY-123 -id 01J... -status approved
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/leave-engine/config"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/logging"
	"github.com/warp/leave-engine/seed"
	"github.com/warp/leave-engine/store/sqlite"
)

const usage = `usage: leavectl [-db path] <command> [flags]

commands:
  migrate
  seed
  client add|list|rm
  employee add|rm
  leavetype add|rm
  review
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(logging.Config{Env: cfg.Env, Level: "warn", Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(context.Background(), os.Args[1:], cfg.DatabasePath, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "leavectl:", err)
		os.Exit(1)
	}
}

// errUsage marks a command line that could not be parsed.
var errUsage = errors.New("invalid usage")

// run executes one command. defaultDB is used unless -db is given.
func run(ctx context.Context, args []string, defaultDB string, out io.Writer) error {
	global := flag.NewFlagSet("leavectl", flag.ContinueOnError)
	global.SetOutput(io.Discard)
	dbPath := global.String("db", defaultDB, "SQLite database path")
	if err := global.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	args = global.Args()
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errUsage
	}

	store, err := sqlite.New(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "migrate":
		fmt.Fprintf(out, "schema up to date: %s\n", *dbPath)
		return nil
	case "seed":
		return runSeed(ctx, store, out)
	case "client":
		return runClient(ctx, store, rest, out)
	case "employee":
		return runEmployee(ctx, store, rest, out)
	case "leavetype":
		return runLeaveType(ctx, store, rest, out)
	case "review":
		return runReview(ctx, store, rest, out)
	}
	fmt.Fprint(out, usage)
	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

func subcommand(args []string) (string, []string, error) {
	if len(args) == 0 {
		return "", nil, fmt.Errorf("%w: missing subcommand", errUsage)
	}
	return args[0], args[1:], nil
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// =============================================================================
// COMMANDS
// =============================================================================

func runSeed(ctx context.Context, store *sqlite.Store, out io.Writer) error {
	res, err := seed.Demo(ctx, store, time.Now())
	if err != nil {
		return err
	}
	if res.Created {
		fmt.Fprintf(out, "demo tenant created: %s (credential %s)\n", res.ClientID, seed.DemoCredential)
	} else {
		fmt.Fprintf(out, "demo tenant already present: %s\n", res.ClientID)
	}
	return nil
}

func runClient(ctx context.Context, store *sqlite.Store, args []string, out io.Writer) error {
	sub, rest, err := subcommand(args)
	if err != nil {
		return err
	}

	switch sub {
	case "add":
		fs := newFlags("client add")
		name := fs.String("name", "", "client name")
		credential := fs.String("credential", "", "API credential (generated when empty)")
		if err := fs.Parse(rest); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		if *credential == "" {
			*credential = uuid.NewString()
		}
		c, err := leave.NewClient(*name, *credential, time.Now())
		if err != nil {
			return err
		}
		if err := store.CreateClient(ctx, c); err != nil {
			return fmt.Errorf("create client %q: %w", c.Name, err)
		}
		fmt.Fprintf(out, "%s\t%s\n", c.ID, c.Credential)
		return nil

	case "list":
		clients, err := store.ListClients(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tCREATED")
		for _, c := range clients {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Name, c.CreatedAt.Format(time.RFC3339))
		}
		return tw.Flush()

	case "rm":
		fs := newFlags("client rm")
		id := fs.String("id", "", "client id")
		if err := fs.Parse(rest); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		if err := store.DeleteClient(ctx, *id); err != nil {
			return fmt.Errorf("delete client %s: %w", *id, err)
		}
		fmt.Fprintf(out, "client %s deleted\n", *id)
		return nil
	}
	return fmt.Errorf("%w: unknown client subcommand %q", errUsage, sub)
}

func runEmployee(ctx context.Context, store *sqlite.Store, args []string, out io.Writer) error {
	sub, rest, err := subcommand(args)
	if err != nil {
		return err
	}

	fs := newFlags("employee " + sub)
	clientID := fs.String("client", "", "client id")
	code := fs.String("code", "", "employee code")
	name := fs.String("name", "", "full name")
	secret := fs.String("secret", "", "access secret")
	start := fs.String("start", "", "start date YYYY-MM-DD")
	if err := fs.Parse(rest); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	switch sub {
	case "add":
		var startDate *leave.Date
		if *start != "" {
			d, err := leave.ParseDate(*start)
			if err != nil {
				return err
			}
			startDate = &d
		}
		e, err := leave.NewEmployee(*clientID, *code, *name, *secret, startDate)
		if err != nil {
			return err
		}
		if err := store.CreateEmployee(ctx, e); err != nil {
			return fmt.Errorf("create employee %s: %w", e.Code, err)
		}
		fmt.Fprintf(out, "%s\n", e.ID)
		return nil

	case "rm":
		if err := store.DeleteEmployee(ctx, *clientID, *code); err != nil {
			return fmt.Errorf("delete employee %s: %w", *code, err)
		}
		fmt.Fprintf(out, "employee %s deleted\n", *code)
		return nil
	}
	return fmt.Errorf("%w: unknown employee subcommand %q", errUsage, sub)
}

func runLeaveType(ctx context.Context, store *sqlite.Store, args []string, out io.Writer) error {
	sub, rest, err := subcommand(args)
	if err != nil {
		return err
	}

	fs := newFlags("leavetype " + sub)
	clientID := fs.String("client", "", "client id")
	code := fs.String("code", "", "leave type code")
	name := fs.String("name", "", "display name")
	allocation := fs.Int("allocation", 0, "annual allocation in days")
	carryOver := fs.Int("carry-over", 0, "carry-over in days")
	if err := fs.Parse(rest); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	switch sub {
	case "add":
		lt, err := leave.NewLeaveType(*clientID, *code, *name, *allocation, *carryOver)
		if err != nil {
			return err
		}
		if err := store.CreateLeaveType(ctx, lt); err != nil {
			return fmt.Errorf("create leave type %s: %w", lt.Code, err)
		}
		fmt.Fprintf(out, "%s\n", lt.ID)
		return nil

	case "rm":
		if err := store.DeleteLeaveType(ctx, *clientID, *code); err != nil {
			return fmt.Errorf("delete leave type %s: %w", *code, err)
		}
		fmt.Fprintf(out, "leave type %s deleted\n", *code)
		return nil
	}
	return fmt.Errorf("%w: unknown leavetype subcommand %q", errUsage, sub)
}

func runReview(ctx context.Context, store *sqlite.Store, args []string, out io.Writer) error {
	fs := newFlags("review")
	key := fs.String("key", "", "client credential")
	id := fs.String("id", "", "application id")
	status := fs.String("status", "", "approved or rejected")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	appID, err := leave.ParseApplicationID(*id)
	if err != nil {
		return err
	}
	to, err := leave.ParseStatus(*status)
	if err != nil {
		return err
	}

	engine := leave.NewEngine(store, leave.WithLogger(zap.L()))
	tenant, err := engine.ResolveTenant(ctx, *key)
	if err != nil {
		return err
	}
	app, err := engine.Review(ctx, tenant, appID, to)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "application %s is now %s (%d days, %s..%s)\n", app.ID, app.Status, app.Days, app.Start, app.End)
	return nil
}
