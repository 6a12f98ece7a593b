// Package termui renders the chat session in a terminal and turns typed
// lines into view-model commands.
package termui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/ccai-examples/ccai-demo/internal/chat"
	"github.com/ccai-examples/ccai-demo/internal/screenshare"
	"github.com/ccai-examples/ccai-demo/internal/session"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/term"
)

const (
	ansiReset = "\x1b[0m"
	ansiDim   = "\x1b[2m"
	ansiBold  = "\x1b[1m"
	ansiRed   = "\x1b[31m"
	ansiCyan  = "\x1b[36m"
)

// View prints session snapshots as they change. It implements
// session.View.
type View struct {
	out   io.Writer
	color bool

	mu      sync.Mutex
	last    session.Snapshot
	printed map[string]struct{}
}

var _ session.View = (*View)(nil)

// NewView returns a view writing to out. Colors are used only when out is
// a terminal.
func NewView(out io.Writer) *View {
	color := false
	if f, ok := out.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}
	return &View{
		out:     out,
		color:   color,
		last:    session.Snapshot{Provider: chat.ProviderNone, Loading: true},
		printed: make(map[string]struct{}),
	}
}

// Update implements session.View.
func (v *View) Update(s session.Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	prev := v.last
	v.last = s

	if s.Provider != prev.Provider {
		v.status(providerText(s.Provider))
	}
	if s.CurrentAgent != nil && (prev.CurrentAgent == nil || prev.CurrentAgent.ID != s.CurrentAgent.ID) {
		v.status(fmt.Sprintf("%s joined the chat", agentName(s.CurrentAgent)))
	}
	if s.Chat != nil && (prev.Chat == nil || prev.Chat.Status != s.Chat.Status) && s.Chat.Status != chat.StatusUnknown {
		v.status(fmt.Sprintf("chat %d is %s", s.Chat.ID, s.Chat.Status))
	}

	v.printMessages(s.Messages)

	if s.Typing && !prev.Typing {
		v.status("agent is typing...")
	}
	if s.ScreenShareEnabled != prev.ScreenShareEnabled {
		if s.ScreenShareEnabled {
			v.status("screen share available, type /share")
		} else {
			v.status("screen share unavailable")
		}
	}
	if s.ScreenShare != prev.ScreenShare {
		v.status("screen share " + string(s.ScreenShare))
	}
	if s.SessionCode != "" && s.SessionCode != prev.SessionCode {
		v.printSessionCode(s.SessionCode, s.SessionURL)
	}
	if s.Dialog != prev.Dialog && s.Dialog != screenshare.DialogNone {
		v.printDialog(s.Dialog)
	}
	if s.Error != "" && s.Error != prev.Error {
		v.line(v.paint(ansiRed, "! "+s.Error))
	}
}

// Help prints the command list.
func (v *View) Help() {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, l := range helpLines {
		v.line(l)
	}
}

// Printf writes an informational line.
func (v *View) Printf(format string, args ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status(fmt.Sprintf(format, args...))
}

var helpLines = []string{
	"commands:",
	"  /share          start or stop screen sharing",
	"  /yes, /no       answer the open prompt",
	"  /close          close the open prompt",
	"  /more           load earlier messages",
	"  /sim remote     simulate an agent remote-control request",
	"  /sim device     simulate an agent full-device request",
	"  /end            end the chat",
	"  /quit           leave without ending the chat",
	"anything else is sent as a message",
}

func (v *View) printMessages(msgs []chat.Message) {
	for _, m := range msgs {
		key := messageKey(m)
		if _, ok := v.printed[key]; ok {
			continue
		}
		v.printed[key] = struct{}{}

		text := chat.DisplayText(m)
		if text == "" {
			text = "[" + string(m.Type) + "]"
		}
		who := m.User.Name
		if m.User.Role == chat.RoleCurrentUser {
			who = v.paint(ansiBold, who)
		} else {
			who = v.paint(ansiCyan, who)
		}
		ts := v.paint(ansiDim, m.CreatedAt.Format("15:04"))
		if m.Event != chat.EventNone {
			v.line(fmt.Sprintf("%s * %s", ts, v.paint(ansiDim, text)))
			continue
		}
		v.line(fmt.Sprintf("%s %s: %s", ts, who, text))
	}
}

func (v *View) printDialog(kind screenshare.DialogKind) {
	cfg, ok := screenshare.DialogConfigFor(kind)
	if !ok {
		return
	}
	v.line("")
	v.line(v.paint(ansiBold, "== "+cfg.Title+" =="))
	v.line(cfg.Body)
	v.line(fmt.Sprintf("/yes to %s, /no to %s", strings.ToLower(cfg.Confirm), strings.ToLower(cfg.Dismiss)))
	v.line("")
}

func (v *View) printSessionCode(code, url string) {
	v.status("screen share code: " + code)
	data := url
	if data == "" {
		data = code
	}
	qr, err := qrcode.New(data, qrcode.Medium)
	if err != nil {
		v.status("could not render QR code: " + err.Error())
		return
	}
	for _, l := range strings.Split(strings.TrimRight(qr.ToSmallString(false), "\n"), "\n") {
		v.line(l)
	}
	if url != "" {
		v.status("join link: " + url)
	}
}

func (v *View) status(text string) {
	v.line(v.paint(ansiDim, "-- "+text))
}

func (v *View) line(s string) {
	_, _ = io.WriteString(v.out, s+"\n")
}

func (v *View) paint(code, s string) string {
	if !v.color {
		return s
	}
	return code + s + ansiReset
}

func messageKey(m chat.Message) string {
	if m.ID != "" {
		return m.ID
	}
	return fmt.Sprintf("%s|%d|%s|%s", m.User.ID, m.CreatedAt.UnixNano(), m.Event, m.Text)
}

func providerText(p chat.ProviderState) string {
	switch p {
	case chat.ProviderConnecting:
		return "connecting..."
	case chat.ProviderConnected:
		return "connected"
	case chat.ProviderDisconnected:
		return "disconnected"
	default:
		return "not connected"
	}
}

func agentName(a *chat.Agent) string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return "Agent"
}
