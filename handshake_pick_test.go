package main

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/gdrive-go/internal/drive"
	"github.com/tonimelisma/gdrive-go/internal/handshake"
	"github.com/tonimelisma/gdrive-go/internal/mimetype"
	"github.com/tonimelisma/gdrive-go/internal/picker"
	"github.com/tonimelisma/gdrive-go/internal/termpicker"
)

type staticTokens string

func (s staticTokens) Acquire(context.Context, bool, bool) (string, error) {
	return string(s), nil
}

type mapLister map[string][]drive.File

func (m mapLister) ListChildren(_ context.Context, parentID, _ string) ([]drive.File, error) {
	return m[parentID], nil
}

func pickTree() mapLister {
	return mapLister{
		termpicker.RootFolderID: {
			{
				ID: "dir1", Name: "Projects", MimeType: mimetype.FolderMimeType,
				Extra: map[string]json.RawMessage{"resourceKey": json.RawMessage(`"rk-dir"`)},
			},
			{ID: "doc1", Name: "Plan", MimeType: "application/vnd.google-apps.document"},
			{
				ID: "pdf1", Name: "scan.pdf", MimeType: "application/pdf",
				Extra: map[string]json.RawMessage{"resourceKey": json.RawMessage(`"rk-pdf"`)},
			},
			{ID: "sheet1", Name: "Budget", MimeType: "application/vnd.google-apps.spreadsheet"},
		},
	}
}

func newPickService(input string) *picker.Service {
	factory := termpicker.New(context.Background(), pickTree(), strings.NewReader(input), io.Discard, nil)

	return picker.NewService(factory, staticTokens("tok"), picker.Config{APIKey: "key", ProjectNumber: "1"}, nil)
}

func TestPickHandshakeState_OpenSplitsByExportInfo(t *testing.T) {
	svc := newPickService("2,3,4\n")

	state, ok, err := pickHandshakeState(context.Background(), svc, handshake.ActionOpen, "", defaultHandshakeUser)
	require.NoError(t, err)
	require.True(t, ok)

	encoded, err := handshake.Encode(state)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"action": "open",
		"ids": ["pdf1"],
		"exportIds": ["doc1", "sheet1"],
		"resourceKeys": {"pdf1": "rk-pdf"},
		"userId": "me"
	}`, encoded)
}

func TestPickHandshakeState_CreateUsesFolder(t *testing.T) {
	svc := newPickService("1\n")

	state, ok, err := pickHandshakeState(context.Background(), svc, handshake.ActionCreate, "", "u7")
	require.NoError(t, err)
	require.True(t, ok)

	u, err := handshake.AppendToURL("https://app.example.com/new?lang=en", state)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "https://app.example.com/new?lang=en&state="), u)

	decoded, ok := handshake.DecodeURL(u)
	require.True(t, ok)
	require.NotNil(t, decoded.Create)
	assert.Equal(t, "dir1", decoded.Create.FolderID)
	assert.Equal(t, "rk-dir", decoded.Create.FolderResourceKey)
	assert.Equal(t, "u7", decoded.Create.UserID)
}

func TestPickHandshakeState_CanceledYieldsNothing(t *testing.T) {
	for _, action := range []handshake.Action{handshake.ActionOpen, handshake.ActionCreate} {
		t.Run(string(action), func(t *testing.T) {
			svc := newPickService("c\n")

			_, ok, err := pickHandshakeState(context.Background(), svc, action, "", defaultHandshakeUser)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestOpenStateFromFiles_OnlyNativeDocuments(t *testing.T) {
	state := openStateFromFiles([]drive.File{
		{ID: "d", MimeType: "application/vnd.google-apps.presentation"},
	}, "me")

	require.NotNil(t, state.Open)
	assert.Nil(t, state.Open.IDs)
	assert.True(t, state.Open.ExportIDs.Contains("d"))
	assert.Nil(t, state.Open.ResourceKeys)
}

func TestHandshakePick_RequiresTerminal(t *testing.T) {
	_, url := startFakeDrive(t)
	cliEnv(t, url)

	_, err := runCLI(t, "handshake", "pick", "open")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactive terminal")
}
