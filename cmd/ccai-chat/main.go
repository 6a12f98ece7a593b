package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ccai-examples/ccai-demo/internal/auth"
	"github.com/ccai-examples/ccai-demo/internal/config"
	"github.com/ccai-examples/ccai-demo/internal/notify"
	"github.com/ccai-examples/ccai-demo/internal/screenshare/simsdk"
	"github.com/ccai-examples/ccai-demo/internal/session"
	"github.com/ccai-examples/ccai-demo/internal/termui"
	"github.com/ccai-examples/ccai-demo/internal/websocket"
	"github.com/ccai-examples/ccai-demo/pkg/logger"
	"github.com/ccai-examples/ccai-demo/pkg/wire"
	"github.com/spf13/cobra"
)

const negotiationDelay = 2 * time.Second

type options struct {
	menu       string
	name       string
	identifier string
	email      string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "ccai-chat",
		Short:         "Terminal chat client with screen sharing",
		Long:          "Chat with a support agent from the terminal. The last chat in progress is resumed, otherwise a new chat is started from a support menu.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.menu, "menu", "", "support menu id for a new chat (overrides CCAI_MENU_ID)")
	cmd.Flags().StringVar(&opts.name, "name", "", "end-user display name")
	cmd.Flags().StringVar(&opts.identifier, "identifier", "", "end-user identifier")
	cmd.Flags().StringVar(&opts.email, "email", "", "end-user email")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "trace|debug|info|warn|error (overrides CCAI_LOG_LEVEL)")
	return cmd
}

func run(ctx context.Context, opts options, stdin io.Reader, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	if level == "" {
		// Keep the console readable; the transcript shares it.
		level = "warn"
	}
	if err := logger.Configure(logger.Options{
		Level: level,
		File:  cfg.LogFile,
		Quiet: cfg.LogFile != "",
	}); err != nil {
		return err
	}
	logger.Debugf("Config: server=%s signing=%s home=%s", cfg.ServerURL(), cfg.SigningURL, cfg.Home)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokens := auth.NewClient(cfg.SigningURL, cfg.Home, auth.WithIdentity(identity(opts)))
	client := websocket.NewClient(cfg.ServerURL(), tokens)
	defer client.Close()

	sdk := simsdk.New(simsdk.Options{
		Domain:           cfg.ScreenShareDomain,
		Key:              cfg.ScreenShareKey,
		NegotiationDelay: negotiationDelay,
	})
	defer sdk.Close()

	var alerter notify.Alerter = notify.Nop{}
	if cfg.PushoverEnabled() {
		p, err := notify.NewPushover(notify.PushoverConfig{
			Token:   cfg.PushoverToken,
			UserKey: cfg.PushoverUser,
		})
		if err != nil {
			return fmt.Errorf("failed to configure pushover: %w", err)
		}
		alerter = p
	}

	in := bufio.NewReader(stdin)
	menuInput := cfg.MenuID
	if opts.menu != "" {
		menuInput = opts.menu
	}
	entry, err := session.ResolveEntry(ctx, client, cfg.Home, menuInput)
	if errors.Is(err, session.ErrInvalidMenuID) && menuInput == "" {
		menuInput, err = promptMenu(in, stdout)
		if err != nil {
			return err
		}
		entry, err = session.ResolveEntry(ctx, client, cfg.Home, menuInput)
	}
	if err != nil {
		return err
	}

	view := termui.NewView(stdout)
	model := session.New(session.Config{
		Service:  client,
		SDK:      sdk,
		View:     view,
		Alerter:  alerter,
		Home:     cfg.Home,
		MenuID:   entry.MenuID,
		Language: cfg.Language,
	})
	defer model.Close()

	view.Help()
	if err := model.Open(ctx, entry); err != nil {
		return err
	}

	err = termui.Run(ctx, in, model, sdk, view)
	switch {
	case errors.Is(err, termui.ErrQuit), errors.Is(err, context.Canceled):
		return nil
	default:
		return err
	}
}

func identity(opts options) wire.AuthRequest {
	id := auth.DefaultIdentity
	if opts.name != "" {
		id.Name = opts.name
	}
	if opts.identifier != "" {
		id.Identifier = opts.identifier
	}
	if opts.email != "" {
		id.Email = opts.email
	}
	return id
}

func promptMenu(in *bufio.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Menu id: ")
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read menu id: %w", err)
	}
	return strings.TrimSpace(line), nil
}
