package chat

import "strings"

const (
	// EndUserID is the participant id used for locally echoed messages.
	EndUserID = "end_user"

	endUserName = "You"
	systemName  = "System"
	agentName   = "Agent"
)

// Participants maps author ids to transcript users. It is not safe for
// concurrent use; the session view-model owns it on its dispatcher.
type Participants struct {
	byID map[string]User
}

// NewParticipants returns an empty registry.
func NewParticipants() *Participants {
	return &Participants{byID: make(map[string]User)}
}

// EndUser returns the local end user, registering it on first use.
func (p *Participants) EndUser() User {
	if u, ok := p.byID[EndUserID]; ok {
		return u
	}
	u := User{ID: EndUserID, Name: endUserName, Role: RoleCurrentUser}
	p.byID[EndUserID] = u
	return u
}

// Resolve returns the user for an author id. Unknown ids starting with
// "end_user" are the local user; anything else is shown as System.
func (p *Participants) Resolve(id string) User {
	if u, ok := p.byID[id]; ok {
		return u
	}
	u := User{ID: id, Name: systemName, Role: RoleSystem}
	if strings.HasPrefix(id, EndUserID) {
		u.Name = endUserName
		u.Role = RoleCurrentUser
	}
	p.byID[id] = u
	return u
}

// AddAgent registers an agent unless its id is already known.
func (p *Participants) AddAgent(a Agent) {
	if a.ID == "" {
		return
	}
	if _, ok := p.byID[a.ID]; ok {
		return
	}
	name := a.DisplayName
	if name == "" {
		name = agentName
	}
	p.byID[a.ID] = User{ID: a.ID, Name: name, Role: RoleSystem}
}

// Remove forgets a participant.
func (p *Participants) Remove(id string) {
	delete(p.byID, id)
}

// Len returns the number of known participants.
func (p *Participants) Len() int { return len(p.byID) }

// ToTranscript converts an inbound message into a transcript entry. Messages
// without content or without an author are dropped.
func (p *Participants) ToTranscript(m ChatMessage) (Message, bool) {
	if m.Body.Content == nil || m.Author == nil {
		return Message{}, false
	}
	return Message{
		ID:        m.ID,
		Text:      *m.Body.Content,
		User:      p.Resolve(*m.Author),
		Type:      m.Body.Type,
		CreatedAt: m.Date,
		Event:     m.Body.Event,
	}, true
}

// ToTranscriptAll converts a batch, preserving order and dropping what
// ToTranscript drops.
func (p *Participants) ToTranscriptAll(msgs []ChatMessage) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if tm, ok := p.ToTranscript(m); ok {
			out = append(out, tm)
		}
	}
	return out
}
