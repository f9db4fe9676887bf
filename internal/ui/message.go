package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tunescope/internal/dashboard"
	"github.com/desertthunder/tunescope/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind  MsgKind
	build *buildHandle // build the message belongs to
	data  any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgProgressUpdate MsgKind = iota
	MsgBuildComplete
)

// buildHandle tracks one background playlist selection.
type buildHandle struct {
	id       int
	progress chan tasks.ProgressUpdate
	done     chan buildResult
}

type buildResult struct {
	view dashboard.View
	err  error
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(build *buildHandle, update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, build: build, data: update}
}

// buildCompleteMsg is the constructor for [MsgBuildComplete]
func buildCompleteMsg(build *buildHandle, view dashboard.View, err error) Msg {
	return Msg{kind: MsgBuildComplete, build: build, data: buildResult{view: view, err: err}}
}
