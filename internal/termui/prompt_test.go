package termui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ccai-examples/ccai-demo/internal/screenshare"
	"github.com/ccai-examples/ccai-demo/internal/session"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	cases := map[string]command{
		"":             {kind: cmdEmpty},
		"  hello ":     {kind: cmdSend, text: "hello"},
		"/share":       {kind: cmdShare},
		"/YES":         {kind: cmdYes},
		"/n":           {kind: cmdNo},
		"/sim remote":  {kind: cmdSimRemote},
		"/sim device":  {kind: cmdSimDevice},
		"/sim":         {kind: cmdUnknown, text: "/sim"},
		"/more":        {kind: cmdMore},
		"/end":         {kind: cmdEnd},
		"/quit":        {kind: cmdQuit},
		"/bogus thing": {kind: cmdUnknown, text: "/bogus thing"},
	}
	for in, want := range cases {
		require.Equal(t, want, parseCommand(in), in)
	}
}

type fakeController struct {
	mu        sync.Mutex
	dialog    screenshare.DialogKind
	sent      []string
	toggles   int
	responses []screenshare.Response
	dismissed int
	refreshed int
	ended     int
	endErr    error
}

func (f *fakeController) Snapshot() session.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return session.Snapshot{Dialog: f.dialog}
}

func (f *fakeController) SendText(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeController) ToggleScreenShare(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toggles++
	return screenshare.ErrNotEnabled
}

func (f *fakeController) RespondDialog(kind screenshare.DialogKind, resp screenshare.Response) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp)
	f.dialog = screenshare.DialogNone
}

func (f *fakeController) DismissDialog() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dismissed++
}

func (f *fakeController) RefreshMessages(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshed++
	return nil
}

func (f *fakeController) EndChat(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ended++
	return f.endErr
}

func (f *fakeController) ClearError() {}

type fakeSim struct {
	remote, device int
}

func (f *fakeSim) RequestRemoteControl() error { f.remote++; return nil }

func (f *fakeSim) RequestFullDevice() error {
	f.device++
	return errors.New("no active session")
}

func TestRunDispatchesCommands(t *testing.T) {
	var buf bytes.Buffer
	view := NewView(&buf)
	ctrl := &fakeController{dialog: screenshare.DialogUserRequest}
	sim := &fakeSim{}

	in := strings.NewReader(strings.Join([]string{
		"hello there",
		"/share",
		"/yes",
		"/no",
		"/close",
		"/more",
		"/sim remote",
		"/sim device",
		"/what",
		"/end",
		"never read",
	}, "\n"))

	require.NoError(t, Run(context.Background(), in, ctrl, sim, view))

	require.Equal(t, []string{"hello there"}, ctrl.sent)
	require.Equal(t, 1, ctrl.toggles)
	require.Equal(t, []screenshare.Response{screenshare.Confirm}, ctrl.responses)
	require.Equal(t, 1, ctrl.dismissed)
	require.Equal(t, 1, ctrl.refreshed)
	require.Equal(t, 1, ctrl.ended)
	require.Equal(t, 1, sim.remote)
	require.Equal(t, 1, sim.device)

	out := buf.String()
	require.Contains(t, out, "nothing to answer")
	require.Contains(t, out, "simulation failed: no active session")
	require.Contains(t, out, `unknown command "/what"`)
	require.Contains(t, out, "chat ended")
}

func TestRunQuitAndEOF(t *testing.T) {
	view := NewView(&bytes.Buffer{})

	err := Run(context.Background(), strings.NewReader("/quit\n"), &fakeController{}, nil, view)
	require.ErrorIs(t, err, ErrQuit)

	require.NoError(t, Run(context.Background(), strings.NewReader("hi\n"), &fakeController{}, nil, view))
}

func TestRunFailedEndKeepsGoing(t *testing.T) {
	ctrl := &fakeController{endErr: errors.New("nope")}
	err := Run(context.Background(), strings.NewReader("/end\n/quit\n"), ctrl, nil, NewView(&bytes.Buffer{}))
	require.ErrorIs(t, err, ErrQuit)
	require.Equal(t, 1, ctrl.ended)
}
