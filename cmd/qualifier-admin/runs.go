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

	"github.com/openutm/qualifier-host/internal/bootstrap"
	"github.com/openutm/qualifier-host/internal/core"
	"github.com/openutm/qualifier-host/internal/data"
	"github.com/openutm/qualifier-host/internal/domain/model"
	"github.com/openutm/qualifier-host/internal/service"
	"github.com/redis/go-redis/v9"
)

const commandTimeout = 2 * time.Minute

// stringSliceFlag collects repeated flag values.
type stringSliceFlag []string

func (f *stringSliceFlag) String() string { return strings.Join(*f, ",") }

func (f *stringSliceFlag) Set(value string) error {
	*f = append(*f, value)
	return nil
}

type enqueueOptions struct {
	ConfigPath string
	AuthSpec   string
	InputFiles []string
	Debug      bool
}

func parseEnqueueFlags(args []string) (enqueueOptions, error) {
	var opts enqueueOptions
	var files stringSliceFlag

	fs := flag.NewFlagSet("enqueue", flag.ContinueOnError)
	fs.StringVar(&opts.ConfigPath, "config", "", "path to the JSON test configuration ('-' for stdin)")
	fs.StringVar(&opts.AuthSpec, "auth", "NoAuth()", "auth spec forwarded to the test executor")
	fs.Var(&files, "file", "input file reference (repeatable)")
	fs.BoolVar(&opts.Debug, "debug", false, "enqueue a debug run that returns the sample report")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	if opts.ConfigPath == "" {
		return opts, errors.New("-config is required")
	}
	opts.InputFiles = files
	return opts, nil
}

func readConfigJSON(path string) (json.RawMessage, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read configuration: %w", err)
	}
	return json.RawMessage(raw), nil
}

func runEnqueue(cmdCtx *commandContext, args []string) error {
	opts, err := parseEnqueueFlags(args)
	if err != nil {
		return err
	}

	cfgJSON, err := readConfigJSON(opts.ConfigPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, commandTimeout)
	defer cancel()

	runs, closeFn, err := connectRunService(cmdCtx)
	if err != nil {
		return err
	}
	defer closeFn()

	run, err := runs.Create(ctx, &model.CreateTestRunRequest{
		ConfigJSON: cfgJSON,
		AuthSpec:   opts.AuthSpec,
		InputFiles: opts.InputFiles,
		Debug:      opts.Debug,
	})
	if err != nil {
		return err
	}

	return writef(os.Stdout, "enqueued test run %s\n", run.ID)
}

func runStatus(cmdCtx *commandContext, args []string) error {
	id, err := requireRunID("status", args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, commandTimeout)
	defer cancel()

	runs, closeFn, err := connectRunService(cmdCtx)
	if err != nil {
		return err
	}
	defer closeFn()

	run, err := runs.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := writef(os.Stdout, "ID:        %s\n", run.ID); err != nil {
		return err
	}
	if err := writef(os.Stdout, "Status:    %s\n", run.Status); err != nil {
		return err
	}
	if err := writef(os.Stdout, "Debug:     %t\n", run.Debug); err != nil {
		return err
	}
	if err := writef(os.Stdout, "Enqueued:  %s\n", run.EnqueuedAt.Format(time.RFC3339)); err != nil {
		return err
	}
	if run.StartedAt != nil {
		if err := writef(os.Stdout, "Started:   %s\n", run.StartedAt.Format(time.RFC3339)); err != nil {
			return err
		}
	}
	if run.EndedAt != nil {
		if err := writef(os.Stdout, "Ended:     %s\n", run.EndedAt.Format(time.RFC3339)); err != nil {
			return err
		}
	}
	if run.LastError != nil {
		if err := writef(os.Stdout, "Error:     %s\n", *run.LastError); err != nil {
			return err
		}
	}
	return nil
}

func runReport(cmdCtx *commandContext, args []string) error {
	id, err := requireRunID("report", args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, commandTimeout)
	defer cancel()

	runs, closeFn, err := connectRunService(cmdCtx)
	if err != nil {
		return err
	}
	defer closeFn()

	report, err := runs.GetReport(ctx, id)
	if err != nil {
		return err
	}

	if err := writeln(os.Stdout, string(report)); err != nil {
		return fmt.Errorf("print report: %w", err)
	}
	return nil
}

func runMigrate(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	timeout := fs.Duration("timeout", 5*time.Minute, "migration timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !cmdCtx.Config.Archive.Enabled {
		return errors.New("report archive is not enabled (set DB_ENABLED=true)")
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, *timeout)
	defer cancel()

	db, err := bootstrap.ConnectArchiveDB(bootstrap.DatabaseConfig{
		ArchiveConfig: cmdCtx.Config.Archive,
		Logger:        cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect archive db: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", cerr)
		}
	}()

	return bootstrap.RunMigrations(ctx, db, cmdCtx.Logger)
}

func requireRunID(cmdName string, args []string) (string, error) {
	fs := flag.NewFlagSet(cmdName, flag.ContinueOnError)
	id := fs.String("id", "", "test run id")
	if err := fs.Parse(args); err != nil {
		return "", err
	}

	runID := strings.TrimSpace(*id)
	if runID == "" && fs.NArg() > 0 {
		runID = strings.TrimSpace(fs.Arg(0))
	}
	if runID == "" {
		return "", errors.New("a test run id is required (-id or positional)")
	}
	return runID, nil
}

// connectRunService wires a TestRunService over a fresh Redis connection.
// The returned func closes the connection.
func connectRunService(cmdCtx *commandContext) (*service.TestRunService, func(), error) {
	redisClient, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{
		RedisConfig: cmdCtx.Config.Redis,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}

	closeFn := func() {
		closeRedis(cmdCtx, redisClient)
	}

	queue := data.NewRedisJobQueue(redisClient, data.RedisJobQueueOptions{
		Queue:  cmdCtx.Config.Worker.Queue,
		Logger: cmdCtx.Logger,
	})
	store := data.NewRedisReportStore(redisClient)

	var archive core.ReportArchive
	if cmdCtx.Config.Archive.Enabled {
		db, dbErr := bootstrap.ConnectArchiveDB(bootstrap.DatabaseConfig{
			ArchiveConfig: cmdCtx.Config.Archive,
			Logger:        cmdCtx.Logger,
		})
		if dbErr != nil {
			closeFn()
			return nil, nil, fmt.Errorf("connect archive db: %w", dbErr)
		}
		archive = data.NewReportArchiveRepo(db)
		closeFn = func() {
			if cerr := db.Close(); cerr != nil {
				cmdCtx.Logger.Warn("db close failed", "error", cerr)
			}
			closeRedis(cmdCtx, redisClient)
		}
	}

	runs, err := service.NewTestRunService(service.TestRunServiceOptions{
		Queue:   queue,
		Store:   store,
		Archive: archive,
	})
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	return runs, closeFn, nil
}

func closeRedis(cmdCtx *commandContext, client redis.UniversalClient) {
	if client == nil {
		return
	}
	if cerr := client.Close(); cerr != nil {
		cmdCtx.Logger.Warn("redis close failed", "error", cerr)
	}
}
