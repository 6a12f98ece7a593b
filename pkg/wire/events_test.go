package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeMessagesEvent(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    int
		wantNil bool
		wantErr bool
	}{
		{
			name: "text message",
			input: map[string]any{
				"chatId": float64(3),
				"messages": []any{
					map[string]any{"id": "m1", "author": "agent-1", "type": "text", "content": "hi"},
				},
			},
			want: 1,
		},
		{
			name: "event without content",
			input: map[string]any{
				"chatId": float64(3),
				"messages": []any{
					map[string]any{"id": "m2", "author": "agent-1", "type": "noti", "content": nil, "event": "screen_share_requested_from_agent"},
				},
			},
			want:    1,
			wantNil: true,
		},
		{
			name:    "nil payload",
			input:   nil,
			wantErr: true,
		},
		{
			name:    "wrong shape",
			input:   map[string]any{"messages": "nope"},
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var ev MessagesEvent
			err := Decode(tc.input, &ev)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, ev.Messages, tc.want)
			require.Equal(t, tc.wantNil, ev.Messages[0].Content == nil)
		})
	}
}

func TestEncodeProducesSocketMap(t *testing.T) {
	m, err := Encode(JoinRequest{ChatID: 9})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"chatId": float64(9)}, m)
}
