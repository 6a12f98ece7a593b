package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestResolveClassifiesUnknownAuthors(t *testing.T) {
	p := NewParticipants()

	u := p.Resolve("end_user_123")
	require.Equal(t, "You", u.Name)
	require.Equal(t, RoleCurrentUser, u.Role)

	u = p.Resolve("bot-7")
	require.Equal(t, "System", u.Name)
	require.Equal(t, RoleSystem, u.Role)

	require.Equal(t, 2, p.Len())
}

func TestAddAgentKeepsFirstRegistration(t *testing.T) {
	p := NewParticipants()
	p.AddAgent(Agent{ID: "a1", DisplayName: "Dana"})
	p.AddAgent(Agent{ID: "a1", DisplayName: "Renamed"})
	p.AddAgent(Agent{ID: "a2"})
	p.AddAgent(Agent{})

	require.Equal(t, "Dana", p.Resolve("a1").Name)
	require.Equal(t, "Agent", p.Resolve("a2").Name)
	require.Equal(t, 2, p.Len())

	p.Remove("a1")
	require.Equal(t, "System", p.Resolve("a1").Name)
}

func TestToTranscriptDropsIncompleteMessages(t *testing.T) {
	p := NewParticipants()
	now := time.Unix(1700000000, 0)

	msgs := []ChatMessage{
		{ID: "1", Author: strPtr("a1"), Date: now, Body: Body{Type: TypeText, Content: strPtr("hi")}},
		{ID: "2", Author: strPtr("a1"), Body: Body{Event: EventScreenShareRequestedByAgent}},
		{ID: "3", Body: Body{Type: TypeText, Content: strPtr("orphan")}},
		{ID: "4", Author: strPtr("end_user"), Body: Body{Type: TypeText, Content: strPtr("hello")}},
	}

	out := p.ToTranscriptAll(msgs)
	require.Len(t, out, 2)
	require.Equal(t, "hi", out[0].Text)
	require.Equal(t, now, out[0].CreatedAt)
	require.Equal(t, "hello", out[1].Text)
	require.Equal(t, RoleCurrentUser, out[1].User.Role)
}

func TestEndUserIsStable(t *testing.T) {
	p := NewParticipants()
	first := p.EndUser()
	require.Equal(t, first, p.EndUser())
	require.Equal(t, EndUserID, first.ID)
}
