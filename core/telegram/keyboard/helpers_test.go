package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineButtonsOnePerRow(t *testing.T) {
	m := InlineButtons(
		InlineBtn{Text: "📋 Copy Old Caption", Unique: "copy_caption"},
		InlineBtn{Text: "Cancel", Unique: "cancel", Data: "x"},
	)
	require.Len(t, m.InlineKeyboard, 2)
	assert.Equal(t, "📋 Copy Old Caption", m.InlineKeyboard[0][0].Text)
	assert.Equal(t, "copy_caption", m.InlineKeyboard[0][0].Unique)
	assert.Equal(t, "cancel", m.InlineKeyboard[1][0].Unique)
	assert.Equal(t, "x", m.InlineKeyboard[1][0].Data)
}
