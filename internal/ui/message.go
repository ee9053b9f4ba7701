package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgListsLoaded MsgKind = iota
	MsgProgressUpdate
	MsgUpdateComplete
)

type listsLoaded struct {
	lists []models.ListConfig
	err   error
}

type updateComplete struct {
	result *tasks.RunResult
	err    error
}

// listsLoadedMsg is the constructor for [MsgListsLoaded]
func listsLoadedMsg(lists []models.ListConfig, err error) Msg {
	return Msg{kind: MsgListsLoaded, data: listsLoaded{lists, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// updateCompleteMsg is the constructor for [MsgUpdateComplete]
func updateCompleteMsg(result *tasks.RunResult, err error) Msg {
	return Msg{kind: MsgUpdateComplete, data: updateComplete{result, err}}
}
