package session

import (
	"context"
	"testing"

	"github.com/ccai-examples/ccai-demo/internal/chat"
	"github.com/ccai-examples/ccai-demo/internal/storage"
	"github.com/stretchr/testify/require"
)

func TestResolveEntryPrefersServerChat(t *testing.T) {
	svc := newFakeService()
	svc.lastChat = &chat.Chat{ID: 5, Status: chat.StatusAssigned, Menus: []chat.Menu{{ID: 1}, {ID: 3}}}
	home := t.TempDir()
	require.NoError(t, storage.SaveLastChat(home, storage.LastChat{ChatID: 4, MenuID: 2}))

	e, err := ResolveEntry(context.Background(), svc, home, "not a number")
	require.NoError(t, err)
	require.Equal(t, 5, e.Resume.ID)
	require.Equal(t, 3, e.MenuID)
	require.False(t, e.Local)
}

func TestResolveEntryFallsBackToStorageThenMenu(t *testing.T) {
	svc := newFakeService()
	home := t.TempDir()

	e, err := ResolveEntry(context.Background(), svc, home, " 12 ")
	require.NoError(t, err)
	require.Nil(t, e.Resume)
	require.Equal(t, 12, e.MenuID)

	_, err = ResolveEntry(context.Background(), svc, home, "abc")
	require.ErrorIs(t, err, ErrInvalidMenuID)

	require.NoError(t, storage.SaveLastChat(home, storage.LastChat{ChatID: 4, MenuID: 2}))
	e, err = ResolveEntry(context.Background(), svc, home, "abc")
	require.NoError(t, err)
	require.True(t, e.Local)
	require.Equal(t, 4, e.Resume.ID)
	require.Equal(t, 2, e.MenuID)
}

func TestOpenStartsNewChatWhenRememberedOneEnded(t *testing.T) {
	h := newHarness(t)
	h.svc.resumeErr = chat.ErrChatEnded
	require.NoError(t, storage.SaveLastChat(h.home, storage.LastChat{ChatID: 4, MenuID: 2}))

	e := Entry{Resume: &chat.Chat{ID: 4, Menus: []chat.Menu{{ID: 2}}}, MenuID: 2, Local: true}
	require.NoError(t, h.model.Open(context.Background(), e))

	require.Equal(t, []int{4}, h.svc.resumed)
	require.Len(t, h.svc.started, 1)
	require.Equal(t, 2, h.svc.started[0].MenuID)

	last, ok, err := storage.LoadLastChat(h.home)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 100, last.ChatID)
}

func TestOpenResumeFailureFromServerIsReported(t *testing.T) {
	h := newHarness(t)
	h.svc.resumeErr = chat.ErrChatEnded

	err := h.model.Open(context.Background(), Entry{Resume: &chat.Chat{ID: 4}, MenuID: 2})
	require.ErrorIs(t, err, chat.ErrChatEnded)
	require.Empty(t, h.svc.started)
	h.eventually(t, func(s Snapshot) bool { return s.Error != "" })
}
