package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/tuneline/internal/game"
	"github.com/desertthunder/tuneline/internal/services"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = optionItem{}
)

// playlistItem wraps [services.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist services.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d tracks", i.playlist.TrackCount)
	if i.playlist.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.Description)
	}
	return desc
}

// optionItem wraps [game.PlacementRange] to implement [list.Item].
type optionItem struct {
	option game.PlacementRange
}

func (i optionItem) FilterValue() string { return i.option.Label }
func (i optionItem) Title() string       { return i.option.Label }
func (i optionItem) Description() string { return i.option.Kind.String() }
