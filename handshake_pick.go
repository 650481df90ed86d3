package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/spf13/cobra"

	"github.com/tonimelisma/gdrive-go/internal/drive"
	"github.com/tonimelisma/gdrive-go/internal/handshake"
	"github.com/tonimelisma/gdrive-go/internal/picker"
	"github.com/tonimelisma/gdrive-go/internal/termpicker"
)

// defaultHandshakeUser is the user ID Drive itself puts in the state for
// the signed-in account.
const defaultHandshakeUser = "me"

// resourceKeyField is the picker document field holding a file's resource key.
const resourceKeyField = "resourceKey"

func newHandshakePickCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Choose files or a folder and print the state Drive would send",
		Long: `Run the terminal picker and encode the outcome as an integration state,
the way Drive's "Open with" and "New" menus hand a selection to an app.
Native documents land in exportIds, everything else in ids.`,
	}

	open := &cobra.Command{
		Use:   "open",
		Short: "Pick files and encode an open state",
		Args:  cobra.NoArgs,
		RunE:  runHandshakePick,
	}
	open.Flags().String("mime", "", "comma-separated MIME types to offer")

	create := &cobra.Command{
		Use:   "create",
		Short: "Pick a folder and encode a create state",
		Args:  cobra.NoArgs,
		RunE:  runHandshakePick,
	}

	for _, c := range []*cobra.Command{open, create} {
		c.Flags().String("user", defaultHandshakeUser, "user ID")
		c.Flags().String("base-url", "", "print the state appended to this URL")
	}

	cmd.AddCommand(open, create)

	return cmd
}

func runHandshakePick(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cc := mustCLIContext(ctx)

	action := handshake.Action(cmd.Name())

	mimeTypes := ""
	if action == handshake.ActionOpen {
		var err error
		if mimeTypes, err = cmd.Flags().GetString("mime"); err != nil {
			return err
		}
	}

	user, err := cmd.Flags().GetString("user")
	if err != nil {
		return err
	}

	if !termpicker.IsTerminal(os.Stdin) {
		return errors.New("handshake pick needs an interactive terminal on stdin")
	}

	sess, err := newSession(ctx, cc)
	if err != nil {
		return err
	}

	factory := termpicker.New(ctx, sess.Drive, os.Stdin, os.Stderr, cc.Logger)
	svc := picker.NewService(factory, sess.Tokens, sess.PickerConfig(), cc.Logger)

	state, ok, err := pickHandshakeState(ctx, svc, action, mimeTypes, user)
	if err != nil {
		return sess.explain(err)
	}

	if !ok {
		cc.Statusf("Nothing selected.\n")
		return nil
	}

	return emitState(cmd, state)
}

// pickHandshakeState runs one picker round for action. ok is false when
// the user selected nothing.
func pickHandshakeState(
	ctx context.Context, svc *picker.Service, action handshake.Action, mimeTypes, user string,
) (handshake.State, bool, error) {
	switch action {
	case handshake.ActionOpen:
		files, err := svc.PickFiles(ctx, picker.PickOptions{MimeTypes: mimeTypes})
		if err != nil || len(files) == 0 {
			return handshake.State{}, false, err
		}

		return openStateFromFiles(files, user), true, nil
	case handshake.ActionCreate:
		folder, err := svc.PickFolder(ctx, "")
		if err != nil || folder == nil {
			return handshake.State{}, false, err
		}

		return handshake.State{Create: &handshake.CreateState{
			FolderID:          folder.ID,
			FolderResourceKey: resourceKey(folder),
			UserID:            user,
		}}, true, nil
	default:
		return handshake.State{}, false, fmt.Errorf("unknown handshake action %q", action)
	}
}

// openStateFromFiles sorts picked files into ids and exportIds by whether
// they are native documents.
func openStateFromFiles(files []drive.File, user string) handshake.State {
	ids := mapset.NewThreadUnsafeSet[string]()
	exportIDs := mapset.NewThreadUnsafeSet[string]()

	var keys map[string]string

	for i := range files {
		f := &files[i]

		if f.ExportInfo().IsManagedDocument {
			exportIDs.Add(f.ID)
		} else {
			ids.Add(f.ID)
		}

		if key := resourceKey(f); key != "" {
			if keys == nil {
				keys = make(map[string]string)
			}

			keys[f.ID] = key
		}
	}

	open := &handshake.OpenState{UserID: user, ResourceKeys: keys}

	if ids.Cardinality() > 0 {
		open.IDs = ids
	}

	if exportIDs.Cardinality() > 0 {
		open.ExportIDs = exportIDs
	}

	return handshake.State{Open: open}
}

func resourceKey(f *drive.File) string {
	raw, ok := f.Extra[resourceKeyField]
	if !ok {
		return ""
	}

	var key string
	if err := json.Unmarshal(raw, &key); err != nil {
		return ""
	}

	return key
}
