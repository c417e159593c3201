package content

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserText(t *testing.T) {
	msg := UserText("Hello")
	require.Equal(t, RoleUser, msg.Role)
	require.Len(t, msg.Content, 1)
	require.Equal(t, ContentTypeText, msg.Content[0].Type)
	require.Equal(t, "Hello", msg.Content[0].Text)
}

func TestJoinText(t *testing.T) {
	require.Equal(t, "", JoinText(nil))
	require.Equal(t, "solo", JoinText([]ContentBlock{{Type: ContentTypeText, Text: "solo"}}))
	require.Equal(t, "ab", JoinText([]ContentBlock{
		{Type: ContentTypeText, Text: "a"},
		{Type: "image/png"},
		{Type: ContentTypeText, Text: "b"},
	}))
}
