package termui

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/ccai-examples/ccai-demo/internal/screenshare"
	"github.com/ccai-examples/ccai-demo/internal/session"
	"github.com/ccai-examples/ccai-demo/pkg/logger"
)

// Controller is the view-model surface driven by the prompt.
type Controller interface {
	Snapshot() session.Snapshot
	SendText(ctx context.Context, text string) error
	ToggleScreenShare(ctx context.Context) error
	RespondDialog(kind screenshare.DialogKind, resp screenshare.Response)
	DismissDialog()
	RefreshMessages(ctx context.Context) error
	EndChat(ctx context.Context) error
	ClearError()
}

// Simulator triggers agent-side requests on a simulated session manager.
// Nil disables the /sim commands.
type Simulator interface {
	RequestRemoteControl() error
	RequestFullDevice() error
}

// ErrQuit is returned by Run when the user leaves with /quit.
var ErrQuit = errors.New("quit")

type commandKind int

const (
	cmdSend commandKind = iota
	cmdEmpty
	cmdHelp
	cmdShare
	cmdYes
	cmdNo
	cmdClose
	cmdMore
	cmdSimRemote
	cmdSimDevice
	cmdEnd
	cmdQuit
	cmdUnknown
)

type command struct {
	kind commandKind
	text string
}

func parseCommand(line string) command {
	line = strings.TrimSpace(line)
	if line == "" {
		return command{kind: cmdEmpty}
	}
	if !strings.HasPrefix(line, "/") {
		return command{kind: cmdSend, text: line}
	}
	fields := strings.Fields(strings.ToLower(line))
	switch fields[0] {
	case "/help", "/?":
		return command{kind: cmdHelp}
	case "/share":
		return command{kind: cmdShare}
	case "/yes", "/y", "/allow":
		return command{kind: cmdYes}
	case "/no", "/n", "/deny":
		return command{kind: cmdNo}
	case "/close":
		return command{kind: cmdClose}
	case "/more":
		return command{kind: cmdMore}
	case "/end":
		return command{kind: cmdEnd}
	case "/quit", "/exit":
		return command{kind: cmdQuit}
	case "/sim":
		if len(fields) == 2 {
			switch fields[1] {
			case "remote":
				return command{kind: cmdSimRemote}
			case "device":
				return command{kind: cmdSimDevice}
			}
		}
	}
	return command{kind: cmdUnknown, text: line}
}

// Run reads commands from in until EOF, /end, /quit or ctx cancellation.
// It returns nil after /end or EOF and ErrQuit after /quit.
func Run(ctx context.Context, in io.Reader, ctrl Controller, sim Simulator, view *View) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return err
				default:
					return ctx.Err()
				}
			}
			done, err := handle(ctx, parseCommand(line), ctrl, sim, view)
			if done {
				return err
			}
		}
	}
}

// handle executes one command. done reports that Run should return err.
func handle(ctx context.Context, cmd command, ctrl Controller, sim Simulator, view *View) (done bool, err error) {
	if cmd.kind != cmdEmpty {
		ctrl.ClearError()
	}

	switch cmd.kind {
	case cmdEmpty:
	case cmdHelp:
		view.Help()
	case cmdSend:
		if err := ctrl.SendText(ctx, cmd.text); err != nil {
			view.Printf("send failed: %v", err)
		}
	case cmdShare:
		// Errors are surfaced through the snapshot.
		_ = ctrl.ToggleScreenShare(ctx)
	case cmdYes, cmdNo:
		kind := ctrl.Snapshot().Dialog
		if kind == screenshare.DialogNone {
			view.Printf("nothing to answer")
			return false, nil
		}
		resp := screenshare.Confirm
		if cmd.kind == cmdNo {
			resp = screenshare.Cancel
		}
		ctrl.RespondDialog(kind, resp)
	case cmdClose:
		ctrl.DismissDialog()
	case cmdMore:
		_ = ctrl.RefreshMessages(ctx)
	case cmdSimRemote, cmdSimDevice:
		if sim == nil {
			view.Printf("no simulator attached")
			return false, nil
		}
		request := sim.RequestRemoteControl
		if cmd.kind == cmdSimDevice {
			request = sim.RequestFullDevice
		}
		if err := request(); err != nil {
			view.Printf("simulation failed: %v", err)
		}
	case cmdEnd:
		if err := ctrl.EndChat(ctx); err != nil {
			logger.Debugf("termui: end chat: %v", err)
			return false, nil
		}
		view.Printf("chat ended")
		return true, nil
	case cmdQuit:
		return true, ErrQuit
	case cmdUnknown:
		view.Printf("unknown command %q, type /help", cmd.text)
	}
	return false, nil
}
