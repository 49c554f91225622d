package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"assistantwire/assistants"
	"assistantwire/config"
	"assistantwire/logging"
	"assistantwire/relay"
	"assistantwire/render"
	"assistantwire/store"
	"assistantwire/stream"
)

const usage = `usage: assistantwire <command> [flags]

commands:
  decode [file]     decode a stream dump (SSE or JSON lines) and print it
  ingest            decode a stream from stdin into the archive
  show <id>         print archived events for a thread, run, step or message
  prune             delete archived events past retention
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load(os.Getenv("ASSISTANTWIRE_ENV"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, os.Stderr, isTerminal(os.Stderr))

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "decode":
		err = runDecode(args, logger)
	case "ingest":
		err = runIngest(args, cfg, logger)
	case "show":
		err = runShow(args, cfg, logger)
	case "prune":
		err = runPrune(args, cfg, logger)
	case "help", "-h", "--help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error().Err(err).Str("command", cmd).Msg("command failed")
		os.Exit(1)
	}
}

func runDecode(args []string, logger zerolog.Logger) error {
	flags := pflag.NewFlagSet("decode", pflag.ContinueOnError)
	format := flags.StringP("format", "f", "json", "output format: json, yaml or cbor")
	strict := flags.Bool("strict", false, "stop at the first event that fails to decode")
	if err := flags.Parse(args); err != nil {
		return err
	}
	out, err := render.ParseFormat(*format)
	if err != nil {
		return err
	}

	in := io.Reader(os.Stdin)
	if flags.NArg() > 0 {
		f, err := os.Open(flags.Arg(0))
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	reader := stream.NewReader(in)
	var failed int
	for {
		ev, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			failed++
			logDecodeError(logger, reader.Line(), err)
			if *strict {
				return err
			}
			continue
		}
		if err := render.Write(os.Stdout, out, ev); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d events failed to decode", failed)
	}
	return nil
}

func runIngest(args []string, cfg *config.Config, logger zerolog.Logger) error {
	flags := pflag.NewFlagSet("ingest", pflag.ContinueOnError)
	archivePath := flags.String("archive", cfg.ArchivePath, "sqlite archive path")
	if err := flags.Parse(args); err != nil {
		return err
	}

	db, err := store.NewDB(*archivePath)
	if err != nil {
		return err
	}
	defer db.Close()

	scheduler, err := store.NewScheduler()
	if err != nil {
		return fmt.Errorf("could not create scheduler: %w", err)
	}
	err = scheduler.AddPruneJob(db, cfg.ArchiveRetention, cfg.PruneInterval, func(deleted int64, err error) {
		if err != nil {
			logger.Error().Err(err).Msg("prune failed")
			return
		}
		logger.Debug().Int64("deleted", deleted).Msg("pruned archive")
	})
	if err != nil {
		return fmt.Errorf("could not schedule prune: %w", err)
	}
	scheduler.Start()
	defer scheduler.Shutdown()

	var rl *relay.Relay
	if cfg.RelayEnabled() {
		session, err := relay.NewDiscordSession(cfg.DiscordToken)
		if err != nil {
			return fmt.Errorf("unable to get discord client: %w", err)
		}
		rl = relay.New(session, cfg.DiscordChannelID)
		logger.Info().Str("channel", cfg.DiscordChannelID).Msg("relaying run outcomes to discord")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	events := make(chan stream.Event)
	errs := make(chan error, 1)
	reader := stream.NewReader(os.Stdin)
	go func() {
		defer close(events)
		for {
			ev, err := reader.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				var decErr *assistants.DecodingError
				if !errors.As(err, &decErr) {
					errs <- err
					return
				}
				logDecodeError(logger, reader.Line(), err)
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	var archived int
	for {
		select {
		case <-ctx.Done():
			logger.Info().Int("archived", archived).Msg("interrupted")
			return nil
		case err := <-errs:
			return err
		case ev, ok := <-events:
			if !ok {
				logger.Info().Int("archived", archived).Msg("stream ended")
				return nil
			}
			if err := ingestEvent(db, rl, ev, logger); err != nil {
				return err
			}
			archived++
			if ev.Type() == stream.Done {
				logger.Info().Int("archived", archived).Msg("stream done")
				return nil
			}
		}
	}
}

func ingestEvent(db store.Database, rl *relay.Relay, ev stream.Event, logger zerolog.Logger) error {
	record, err := db.SaveEvent(ev, time.Now())
	if err != nil {
		return fmt.Errorf("unable to archive %s: %w", ev.Type(), err)
	}
	logger.Debug().
		Str("event", record.Event).
		Str("object", record.ObjectID).
		Str("id", record.EventID).
		Msg("archived event")

	if run, ok := ev.Run(); ok {
		for _, call := range run.PendingToolCalls() {
			logger.Info().
				Str("run", run.ID).
				Str("tool_call", call.ID).
				Str("function", call.Function.Name).
				Msg("run requires tool output")
		}
	}
	if apiErr, ok := ev.Err(); ok {
		logger.Warn().Str("message", apiErr.Message).Msg("stream error event")
	}

	if rl != nil {
		if _, err := rl.Send(ev); err != nil {
			// the archive is the source of truth, a failed relay is not fatal
			logger.Error().Err(err).Msg("relay failed")
		}
	}
	return nil
}

func runShow(args []string, cfg *config.Config, logger zerolog.Logger) error {
	flags := pflag.NewFlagSet("show", pflag.ContinueOnError)
	archivePath := flags.String("archive", cfg.ArchivePath, "sqlite archive path")
	format := flags.StringP("format", "f", "json", "output format: json, yaml or cbor")
	byThread := flags.Bool("thread", false, "treat the id as a thread id")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return errors.New("show takes exactly one id")
	}
	out, err := render.ParseFormat(*format)
	if err != nil {
		return err
	}

	db, err := store.NewDB(*archivePath)
	if err != nil {
		return err
	}
	defer db.Close()

	id := flags.Arg(0)
	var records []*store.EventRecord
	if *byThread {
		records, err = db.EventsByThread(id)
	} else {
		records, err = db.EventsByObject(id)
	}
	if err != nil {
		return err
	}
	if len(records) == 0 {
		logger.Warn().Str("id", id).Msg("no archived events")
		return nil
	}

	for _, record := range records {
		ev, err := record.Decode()
		if err != nil {
			return fmt.Errorf("archived event %s: %w", record.EventID, err)
		}
		if err := render.Write(os.Stdout, out, ev); err != nil {
			return err
		}
	}
	return nil
}

func runPrune(args []string, cfg *config.Config, logger zerolog.Logger) error {
	flags := pflag.NewFlagSet("prune", pflag.ContinueOnError)
	archivePath := flags.String("archive", cfg.ArchivePath, "sqlite archive path")
	olderThan := flags.Duration("older-than", cfg.ArchiveRetention, "delete events received before now minus this")
	if err := flags.Parse(args); err != nil {
		return err
	}

	db, err := store.NewDB(*archivePath)
	if err != nil {
		return err
	}
	defer db.Close()

	deleted, err := db.Prune(time.Now().Add(-*olderThan))
	if err != nil {
		return err
	}
	logger.Info().Int64("deleted", deleted).Dur("older_than", *olderThan).Msg("pruned archive")
	return nil
}

func logDecodeError(logger zerolog.Logger, line int, err error) {
	entry := logger.Error().Err(err).Int("line", line)
	var decErr *assistants.DecodingError
	if errors.As(err, &decErr) {
		entry = entry.
			Str("family", decErr.Family).
			Str("kind", decErr.Kind.String()).
			Str("path", decErr.Path)
	}
	entry.Msg("unable to decode event")
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
