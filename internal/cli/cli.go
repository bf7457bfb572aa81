package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ivallesp/tenantcron/internal/account"
	"github.com/ivallesp/tenantcron/internal/crontab"
	"github.com/ivallesp/tenantcron/internal/dispatch"
	"github.com/ivallesp/tenantcron/internal/scaffold"
	"github.com/ivallesp/tenantcron/internal/sched"
	"github.com/ivallesp/tenantcron/internal/validate"
	"github.com/ivallesp/tenantcron/internal/version"
)

type root struct {
	Run      runCmd      `cmd:"" default:"withargs" help:"Run per-account jobs immediately or register them on a cron schedule."`
	Validate validateCmd `cmd:"" help:"Validate an accounts manifest."`
	Init     initCmd     `cmd:"" help:"Create a starter accounts manifest."`
	Version  versionCmd  `cmd:"" help:"Print version."`
}

type runCmd struct {
	Accounts     string   `name:"accounts" env:"ACCOUNTS" help:"Whitespace-delimited account identifiers."`
	AccountsFile string   `name:"accounts-file" env:"ACCOUNTS_FILE" help:"Accounts manifest (accounts.yaml); ignored fields are overridden by env/flags."`
	Schedule     string   `name:"schedule" env:"CRON_SCHEDULE" help:"Cron schedule expression; when empty, jobs run once immediately."`
	Job          string   `name:"job" env:"JOB_CMD" default:"/app/job" help:"Job executable; invoked as <job> -a <account>."`
	Workdir      string   `name:"workdir" env:"JOB_WORKDIR" default:"/app" help:"Working directory for job invocations."`
	Table        string   `name:"table" env:"CRONTAB_PATH" default:"/etc/tenantcron/crontab" help:"Schedule table artifact path (crond backend)."`
	Log          string   `name:"log" env:"JOB_LOG" default:"/var/log/tenantcron.log" help:"Shared log file tailed while supervising."`
	Backend      string   `name:"backend" env:"SCHED_BACKEND" default:"crond" enum:"crond,internal" help:"Scheduler backend."`
	DaemonCmd    string   `name:"daemon-cmd" env:"CRON_DAEMON" default:"cron" help:"Cron daemon command (crond backend)."`
	DaemonArgs   []string `name:"daemon-arg" help:"Extra argument for the cron daemon; repeatable."`
}

func (c *runCmd) Run(ctx context.Context) error {
	accounts, schedule, err := c.resolve(ctx)
	if err != nil {
		return err
	}

	var backend sched.Backend
	switch c.Backend {
	case "internal":
		backend = sched.NewInProcess()
	default:
		backend = &sched.Crond{
			TablePath:  c.Table,
			DaemonCmd:  c.DaemonCmd,
			DaemonArgs: c.DaemonArgs,
		}
	}

	opts := dispatch.Options{
		Accounts: accounts,
		Schedule: schedule,
		Command:  crontab.Command{Job: c.Job, Workdir: c.Workdir, LogPath: c.Log},
		Backend:  backend,
	}
	if err := dispatch.Run(ctx, opts); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	return nil
}

// resolve merges the manifest (if any) with env/flag values; env and flags
// win over the file.
func (c *runCmd) resolve(ctx context.Context) (accounts []string, schedule string, _ error) {
	schedule = c.Schedule
	accounts = account.Parse(c.Accounts)

	if c.AccountsFile != "" {
		m, err := account.Load(ctx, c.AccountsFile)
		if err != nil {
			return nil, "", fmt.Errorf("load accounts file: %w", err)
		}
		if len(accounts) == 0 {
			accounts = m.Accounts
		}
		if strings.TrimSpace(schedule) == "" {
			schedule = m.Schedule
		}
	}
	return accounts, schedule, nil
}

type validateCmd struct {
	File string `arg:"" optional:"" name:"file" default:"accounts.yaml" help:"Accounts manifest to validate."`
}

func (c *validateCmd) Run(ctx context.Context) error {
	raw, err := account.LoadRaw(ctx, c.File)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	if err := validate.Manifest(ctx, c.File, raw); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	log.Printf("valid: %s", c.File)
	return nil
}

type initCmd struct {
	Path string `arg:"" optional:"" name:"path" default:"accounts.yaml" help:"Where to write the manifest."`
}

func (c *initCmd) Run(ctx context.Context) error {
	if err := scaffold.InitManifest(ctx, c.Path); err != nil {
		return fmt.Errorf("init manifest: %w", err)
	}
	log.Printf("manifest initialized: %s", c.Path)
	return nil
}

type versionCmd struct{}

func (c *versionCmd) Run(_ context.Context) error {
	fmt.Fprintln(os.Stdout, version.Version)
	return nil
}

func Run(args []string) int {
	var cli root
	k, err := kong.New(
		&cli,
		kong.Name("tenantcron"),
		kong.Description("Dispatch a per-account batch job immediately or on a cron schedule."),
		kong.UsageOnError(),
		kong.Writers(os.Stdout, os.Stderr),
	)
	if err != nil {
		log.Printf("init cli: %v", err)
		return 1
	}

	kctx, err := k.Parse(args)
	if err != nil {
		return parseExitCode(err)
	}

	if err := kctx.Run(context.Background()); err != nil {
		var verrs validate.Errors
		if errors.As(err, &verrs) {
			for _, e := range verrs {
				log.Printf("validate: %s", e)
			}
			return 1
		}
		var ec interface{ ExitCode() int }
		if errors.As(err, &ec) && ec.ExitCode() != 0 {
			// Immediate-runner fail-fast: the first failing account's exit
			// status becomes ours.
			log.Printf("command failed: %v", err)
			return ec.ExitCode()
		}
		log.Printf("command failed: %v", err)
		return 1
	}

	return 0
}

func parseExitCode(err error) int {
	var ec interface{ ExitCode() int }
	if errors.As(err, &ec) {
		code := ec.ExitCode()
		if code == 0 {
			return 0
		}
		log.Printf("parse args: %v", err)
		return code
	}
	// If this isn't an ExitCoder error, treat it as a usage error.
	log.Printf("parse args: %v", err)
	return 2
}
