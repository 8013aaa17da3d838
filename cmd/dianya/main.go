// Command dianya drives the transcription service from the terminal:
// offline uploads, status checks, exports, text translation, and realtime
// transcription of raw PCM audio from a file or stdin.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MuCapital-BJ/dianyaapi-go/transcribe"
	"github.com/MuCapital-BJ/dianyaapi-go/translate"
)

func main() {
	configPath := flag.String("config", "dianya.yaml", "path to the configuration file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: dianya [-config file] <upload|status|export|translate|realtime> [args]")
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(1)
	}

	client := transcribe.New(transcribe.Config{
		BaseURL:   cfg.BaseURL,
		WSBaseURL: cfg.WSBaseURL,
		Logger:    logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, client, cfg, flag.Args(), logger); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, client *transcribe.Client, cfg *config, args []string, logger *slog.Logger) error {
	switch args[0] {
	case "upload":
		if len(args) < 2 {
			return errors.New("usage: dianya upload <file>")
		}
		model, err := transcribe.ParseModel(cfg.Model)
		if err != nil {
			return err
		}
		result, err := client.Upload(ctx, args[1], transcribe.UploadOptions{Model: model}, cfg.Token)
		if err != nil {
			return err
		}
		if result.Kind == transcribe.UploadKindNormal {
			fmt.Println(result.TaskID)
		} else {
			fmt.Println(result.Data)
		}
		return nil

	case "status":
		if len(args) < 2 {
			return errors.New("usage: dianya status <task_id>")
		}
		status, err := client.Status(ctx, args[1], "", cfg.Token)
		if err != nil {
			return err
		}
		fmt.Println(status.Status)
		for _, u := range status.Details {
			fmt.Printf("[%7.2f %7.2f] speaker %d: %s\n", u.StartTime, u.EndTime, u.Speaker, u.Text)
		}
		return nil

	case "export":
		if len(args) < 4 {
			return errors.New("usage: dianya export <task_id> <type> <format>")
		}
		exportType, err := transcribe.ParseExportType(args[2])
		if err != nil {
			return err
		}
		format, err := transcribe.ParseExportFormat(args[3])
		if err != nil {
			return err
		}
		data, err := client.Export(ctx, args[1], exportType, format, cfg.Token)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err

	case "translate":
		if len(args) < 2 {
			return errors.New("usage: dianya translate <text>")
		}
		lang, err := translate.Parse(cfg.Language)
		if err != nil {
			return err
		}
		result, err := translate.New(client).Text(ctx, args[1], lang, cfg.Token)
		if err != nil {
			return err
		}
		fmt.Println(result.Data)
		return nil

	case "realtime":
		source := os.Stdin
		if len(args) > 1 && args[1] != "-" {
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()
			source = f
		}
		return runRealtime(ctx, client, cfg, source, logger)

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// runRealtime mirrors the canonical realtime loop: create a session, pump
// fixed-duration PCM chunks while printing server messages, then stop the
// stream and close the session.
func runRealtime(ctx context.Context, client *transcribe.Client, cfg *config, source io.Reader, logger *slog.Logger) error {
	model, err := transcribe.ParseModel(cfg.Model)
	if err != nil {
		return err
	}

	session, err := client.CreateSession(ctx, model, cfg.Token)
	if err != nil {
		return err
	}
	logger.Info("session created", "session_id", session.SessionID, "max_time", session.MaxTime)

	stream := client.NewStream(session.SessionID, cfg.Token)
	if err := stream.Start(ctx); err != nil {
		return err
	}
	defer stream.Close()

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			msg, rerr := stream.ReadNext(ctx, time.Second)
			switch {
			case rerr == nil:
				fmt.Println(msg)
			case transcribe.IsKind(rerr, transcribe.KindTimeout):
				continue
			default:
				return
			}
		}
	}()

	chunk := make([]byte, cfg.Realtime.chunkSize())
	ticker := time.NewTicker(cfg.Realtime.chunkInterval())
	defer ticker.Stop()

pump:
	for {
		select {
		case <-ctx.Done():
			break pump
		case <-ticker.C:
		}

		n, rerr := io.ReadFull(source, chunk)
		if n > 0 {
			if serr := stream.SendBytes(ctx, chunk[:n]); serr != nil {
				logger.Error("send failed", "error", serr)
				break pump
			}
		}
		if rerr != nil {
			break pump
		}
	}

	if err := stream.Stop(); err != nil {
		logger.Warn("stream stop", "error", err)
	}
	<-readerDone

	closeTimeout := time.Duration(cfg.Realtime.CloseTimeout) * time.Second
	result, err := client.CloseSession(context.Background(), session.TaskID, cfg.Token, closeTimeout)
	if err != nil {
		return err
	}
	logger.Info("session closed", "status", result.Status, "duration", result.Duration)
	return nil
}
