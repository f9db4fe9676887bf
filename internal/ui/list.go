package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/desertthunder/tunescope/internal/models"
)

var _ list.Item = playlistItem{}

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string { return fmt.Sprintf("spotify:playlist:%s", i.playlist.ID) }

func playlistItems(playlists []models.Playlist) []list.Item {
	items := make([]list.Item, len(playlists))
	for i, pl := range playlists {
		items[i] = playlistItem{playlist: pl}
	}
	return items
}

// tableColumns sizes the index column followed by [models.Columns].
func tableColumns() []table.Column {
	cols := []table.Column{{Title: "#", Width: 4}}
	for i, name := range models.Columns {
		width := 8
		switch {
		case i == 0:
			width = 28
		case i == 1:
			width = 18
		case len(name) > width:
			width = len(name)
		}
		cols = append(cols, table.Column{Title: name, Width: width})
	}
	return cols
}

func tableRows(t *models.Table) []table.Row {
	rows := make([]table.Row, 0, t.Len())
	if t == nil {
		return rows
	}
	for _, r := range t.Rows {
		rows = append(rows, append(table.Row{fmt.Sprint(r.Index)}, r.Cells()...))
	}
	return rows
}
