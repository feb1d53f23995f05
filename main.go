package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"wasend/pkg/tools"
	"wasend/pkg/whatsapp"
)

// version is stamped by the release build via -ldflags.
var version = "dev"

func main() {
	// A .env next to the binary can carry GITHUB_TOKEN and friends.
	_ = godotenv.Load()

	cmd := newCommand()
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newCommand builds the CLI surface. The built-in -v/--version and -h/--help
// flags come with the framework.
func newCommand() *cli.Command {
	return &cli.Command{
		Name:      "wasend",
		Usage:     "send a WhatsApp message from the command line",
		Version:   version,
		ArgsUsage: "<contact-or-number> <message ...>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "upgrade",
				Aliases: []string{"u"},
				Usage:   "upgrade to the latest release and exit",
			},
			&cli.BoolFlag{
				Name:    "clear",
				Aliases: []string{"c"},
				Usage:   "delete the saved WhatsApp Web session",
			},
			&cli.StringFlag{
				Name:    "add-contact",
				Aliases: []string{"ac"},
				Usage:   "save `LABEL` for the number given as the remaining argument",
			},
			&cli.StringFlag{
				Name:  "profile",
				Value: tools.DefaultProfileDir,
				Usage: "browser profile directory holding the login session",
			},
			&cli.IntFlag{
				Name:  "timeout",
				Value: 120,
				Usage: "seconds to wait for WhatsApp Web to be ready",
			},
			&cli.BoolFlag{
				Name:  "headless",
				Usage: "run the browser headless and show the login QR in the terminal",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "enable debug logging",
			},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	logger := newLogger(cmd.Bool("verbose"))
	args := cmd.Args().Slice()

	if cmd.IsSet("add-contact") {
		return addContact(cmd.String("add-contact"), args)
	}

	if cmd.Bool("upgrade") {
		if len(args) > 0 {
			return fmt.Errorf("--upgrade does not take arguments")
		}
		return tools.NewUpgrader(version, logger).Run(ctx)
	}

	if cmd.Bool("clear") {
		session, err := tools.NewSessionManager(cmd.String("profile"))
		if err != nil {
			return err
		}
		if err := session.Clear(); err != nil {
			return err
		}
		if len(args) == 0 {
			fmt.Println("Session cleared.")
			return nil
		}
		// A recipient was given too: fall through and send on a fresh login.
	}

	if len(args) == 0 {
		return fmt.Errorf("a contact or phone number is required unless --clear is used alone")
	}
	if len(args) < 2 {
		return fmt.Errorf("no message given for %s", args[0])
	}

	recipient := args[0]
	message := strings.Join(args[1:], " ")

	return send(ctx, cmd, logger, recipient, message)
}

func addContact(label string, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("--add-contact takes a label and exactly one number")
	}

	configPath, err := tools.DefaultConfigPath()
	if err != nil {
		return err
	}

	number := args[0]
	if err := tools.NewContactStore(configPath).Add(label, number); err != nil {
		return err
	}

	fmt.Printf("Saved label %q in %s\n", strings.TrimSpace(label), configPath)
	return nil
}

func send(ctx context.Context, cmd *cli.Command, logger zerolog.Logger, recipient, message string) error {
	configPath, err := tools.DefaultConfigPath()
	if err != nil {
		return err
	}

	number, err := tools.NewContactStore(configPath).Resolve(recipient)
	if err != nil {
		return err
	}

	session, err := tools.NewSessionManager(cmd.String("profile"))
	if err != nil {
		return err
	}
	if err := session.Ensure(); err != nil {
		return err
	}

	sender := whatsapp.NewWebSender(whatsapp.Options{
		ProfileDir: session.Dir(),
		Headless:   cmd.Bool("headless"),
		Timeout:    time.Duration(cmd.Int("timeout")) * time.Second,
		Logger:     logger,
	})
	if err := sender.Start(); err != nil {
		return err
	}
	defer sender.Close()

	sendErr := sender.Send(ctx, number, message)
	recordHistory(logger, recipient, number, message, sendErr)
	if sendErr != nil {
		return sendErr
	}

	fmt.Println("Message sent.")
	return nil
}

// recordHistory logs the attempt to the local history database. History is
// best effort and never fails the send.
func recordHistory(logger zerolog.Logger, recipient, number, message string, sendErr error) {
	path, err := tools.DefaultHistoryPath()
	if err != nil {
		logger.Warn().Err(err).Msg("send history unavailable")
		return
	}

	store, err := tools.OpenHistory(path)
	if err != nil {
		logger.Warn().Err(err).Msg("send history unavailable")
		return
	}
	defer store.Close()

	entry := tools.HistoryEntry{
		Recipient: number,
		Label:     recipient,
		Message:   message,
		Status:    tools.StatusSent,
	}
	if sendErr != nil {
		entry.Status = tools.StatusFailed
		entry.Error = sendErr.Error()
	}

	if err := store.Record(entry); err != nil {
		logger.Warn().Err(err).Msg("failed to record send history")
	}
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}
