package websocket

import (
	"fmt"
	"time"

	"github.com/ccai-examples/ccai-demo/internal/chat"
	"github.com/ccai-examples/ccai-demo/pkg/wire"
)

func chatFromWire(wc *wire.Chat) *chat.Chat {
	if wc == nil {
		return nil
	}
	out := &chat.Chat{
		ID:                  wc.ID,
		Status:              chat.Status(wc.Status),
		SupportsScreenShare: wc.SupportScreenShare,
	}
	if wc.CurrentAgent != nil {
		out.CurrentAgent = &chat.Agent{ID: wc.CurrentAgent.ID, DisplayName: wc.CurrentAgent.DisplayName}
	}
	for _, m := range wc.Menus {
		out.Menus = append(out.Menus, chat.Menu{ID: m.ID, Name: m.Name})
	}
	return out
}

func messageFromWire(m wire.Message) chat.ChatMessage {
	typ, _ := chat.ParseMessageType(m.Type)
	return chat.ChatMessage{
		ID:     m.ID,
		Author: m.Author,
		Date:   time.UnixMilli(m.CreatedAt),
		Body: chat.Body{
			Type:    typ,
			Content: m.Content,
			Event:   chat.ParseMessageEvent(m.Event),
		},
	}
}

func historyFromWire(resp *wire.HistoryResponse) *chat.History {
	h := &chat.History{NextPage: resp.NextPage}
	for _, m := range resp.Messages {
		h.Messages = append(h.Messages, messageFromWire(m))
	}
	for _, a := range resp.Agents {
		h.Agents = append(h.Agents, chat.Agent{ID: a.ID, DisplayName: a.DisplayName})
	}
	return h
}

func outgoingToWire(content chat.OutgoingContent) (wire.SendMessageRequest, error) {
	switch c := content.(type) {
	case chat.TextContent:
		text := c.Text
		return wire.SendMessageRequest{Type: string(chat.TypeText), Content: &text}, nil
	case chat.ScreenShareContent:
		return wire.SendMessageRequest{
			Type:    string(chat.TypeNotification),
			Event:   string(c.Event),
			Payload: c.Payload,
		}, nil
	case chat.FormCompleteContent:
		id := c.FormID
		return wire.SendMessageRequest{Type: string(chat.TypeFormComplete), Content: &id}, nil
	default:
		return wire.SendMessageRequest{}, fmt.Errorf("unsupported outgoing content %T", content)
	}
}
