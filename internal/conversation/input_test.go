package conversation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseInput(t *testing.T) {
	in := ParseInput("  #GPT  Tulis Puisi  ", false)
	require.Equal(t, "#GPT  Tulis Puisi", in.Text)
	require.Equal(t, "#gpt", in.Keyword)
	require.Equal(t, "Tulis Puisi", in.Args)
	require.True(t, in.IsTrigger())

	in = ParseInput("#gpthello", false)
	require.Equal(t, "#gpthello", in.Keyword)
	require.False(t, in.IsTrigger())

	in = ParseInput("#vn\tid halo", false)
	require.Equal(t, "#vn", in.Keyword)
	require.Equal(t, "id halo", in.Args)

	in = ParseInput("", true)
	require.Empty(t, in.Keyword)
	require.True(t, in.HasImage)
	require.False(t, in.IsTrigger())
}

func TestModeNames(t *testing.T) {
	require.Equal(t, "none", None.String())
	require.Equal(t, "ai_chat", AiChat.String())
	require.Equal(t, "IMG", AiImage.Label())
	require.False(t, None.Sticky())
	require.True(t, AiChat.Sticky())
}

func TestStoreRemovesNonStickyStates(t *testing.T) {
	s := NewStore()
	s.Update(1, func(State, bool) (State, bool) { return State{Mode: AiChat}, true })
	require.Equal(t, 1, s.Len())

	s.Update(1, func(cur State, ok bool) (State, bool) {
		require.True(t, ok)
		require.Equal(t, AiChat, cur.Mode)
		return cur, false
	})
	require.Equal(t, 1, s.Len())

	s.Update(1, func(State, bool) (State, bool) { return State{Mode: None}, true })
	_, ok := s.Get(1)
	require.False(t, ok)
}
