package tui

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/kavmehta/chatlens/internal/index"
	"github.com/kavmehta/chatlens/internal/render"
	"github.com/kavmehta/chatlens/internal/search"
)

// previewRenderedMsg is sent when an async preview render completes.
type previewRenderedMsg struct {
	chatKey string
	seq     int
	content string
	hitLine int
	err     error
}

// loadPreviewCmd returns a tea.Cmd that renders the chat preview async.
func loadPreviewCmd(db *index.DB, r search.Result, query string, width int) tea.Cmd {
	return func() tea.Msg {
		content, hitLine, err := render.RenderChat(db, r.ChatKey, render.Options{
			HitSeq:  r.Seq,
			Context: -1,
			Width:   width,
			Query:   query,
		})
		return previewRenderedMsg{
			chatKey: r.ChatKey,
			seq:     r.Seq,
			content: content,
			hitLine: hitLine,
			err:     err,
		}
	}
}

// newViewport creates a new viewport model with the given dimensions.
func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.Style = stylePanelBorder
	return vp
}
