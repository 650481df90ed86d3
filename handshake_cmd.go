package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/spf13/cobra"

	"github.com/tonimelisma/gdrive-go/internal/handshake"
)

// errNoState reports that a decoded URL carried no usable integration
// state. main maps it to exitNoState so scripts can branch on it.
var errNoState = errors.New("no integration state found")

const exitNoState = 2

func newHandshakeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "handshake",
		Short: "Encode or decode the open/create state Drive passes to apps",
	}

	encode := &cobra.Command{
		Use:   "encode",
		Short: "Encode an integration state",
	}
	encode.AddCommand(newHandshakeOpenCmd(), newHandshakeCreateCmd())

	cmd.AddCommand(encode, newHandshakeDecodeCmd(), newHandshakePickCmd())

	return cmd
}

func newHandshakeOpenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open",
		Short: "Encode an open state",
		Args:  cobra.NoArgs,
		RunE:  runHandshakeOpen,
	}

	cmd.Flags().StringSlice("id", nil, "file ID to open (repeatable)")
	cmd.Flags().StringSlice("export-id", nil, "native document ID to open (repeatable)")
	cmd.Flags().StringToString("resource-key", nil, "resource key per file ID (id=key)")
	cmd.Flags().String("user", "", "user ID")
	cmd.Flags().String("base-url", "", "print the state appended to this URL")

	return cmd
}

func newHandshakeCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Encode a create state",
		Args:  cobra.NoArgs,
		RunE:  runHandshakeCreate,
	}

	cmd.Flags().String("folder", "", "destination folder ID")
	cmd.Flags().String("folder-resource-key", "", "resource key of the folder")
	cmd.Flags().String("user", "", "user ID")
	cmd.Flags().String("base-url", "", "print the state appended to this URL")

	return cmd
}

func newHandshakeDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <url-or-query>",
		Short: "Decode the state parameter of a URL or query string",
		Long: `Decode the state parameter of a URL or raw query string. Exits with
status 2 when no valid state is present.`,
		Args: cobra.ExactArgs(1),
		RunE: runHandshakeDecode,
	}
}

func runHandshakeOpen(cmd *cobra.Command, _ []string) error {
	ids, err := cmd.Flags().GetStringSlice("id")
	if err != nil {
		return err
	}

	exportIDs, err := cmd.Flags().GetStringSlice("export-id")
	if err != nil {
		return err
	}

	keys, err := cmd.Flags().GetStringToString("resource-key")
	if err != nil {
		return err
	}

	user, err := cmd.Flags().GetString("user")
	if err != nil {
		return err
	}

	state := handshake.State{Open: &handshake.OpenState{
		IDs:          optionalSet(ids),
		ExportIDs:    optionalSet(exportIDs),
		UserID:       user,
		ResourceKeys: keys,
	}}

	return emitState(cmd, state)
}

func runHandshakeCreate(cmd *cobra.Command, _ []string) error {
	folder, err := cmd.Flags().GetString("folder")
	if err != nil {
		return err
	}

	folderKey, err := cmd.Flags().GetString("folder-resource-key")
	if err != nil {
		return err
	}

	user, err := cmd.Flags().GetString("user")
	if err != nil {
		return err
	}

	state := handshake.State{Create: &handshake.CreateState{
		FolderID:          folder,
		FolderResourceKey: folderKey,
		UserID:            user,
	}}

	return emitState(cmd, state)
}

func optionalSet(ids []string) mapset.Set[string] {
	if len(ids) == 0 {
		return nil
	}

	return mapset.NewSet(ids...)
}

// emitState prints the encoded state, or base-url with it appended.
func emitState(cmd *cobra.Command, state handshake.State) error {
	base, err := cmd.Flags().GetString("base-url")
	if err != nil {
		return err
	}

	var out string
	if base != "" {
		out, err = handshake.AppendToURL(base, state)
	} else {
		out, err = handshake.Encode(state)
	}

	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, out)

	return nil
}

func runHandshakeDecode(cmd *cobra.Command, args []string) error {
	cc := mustCLIContext(cmd.Context())

	state, ok := decodeStateArg(args[0])
	if !ok {
		return errNoState
	}

	if cc.Flags.JSON {
		encoded, err := handshake.Encode(state)
		if err != nil {
			return err
		}

		fmt.Fprintln(os.Stdout, encoded)

		return nil
	}

	printState(os.Stdout, state)

	return nil
}

// decodeStateArg accepts a full URL or a bare query string.
func decodeStateArg(arg string) (handshake.State, bool) {
	if strings.Contains(arg, "://") {
		return handshake.DecodeURL(arg)
	}

	return handshake.Decode(arg)
}

func printState(w io.Writer, state handshake.State) {
	switch state.Action() {
	case handshake.ActionOpen:
		o := state.Open
		fmt.Fprintln(w, "Action:      open")
		fmt.Fprintf(w, "IDs:         %s\n", joinSet(o.IDs))
		fmt.Fprintf(w, "Export IDs:  %s\n", joinSet(o.ExportIDs))

		if o.UserID != "" {
			fmt.Fprintf(w, "User:        %s\n", o.UserID)
		}

		ids := make([]string, 0, len(o.ResourceKeys))
		for id := range o.ResourceKeys {
			ids = append(ids, id)
		}

		sort.Strings(ids)

		for _, id := range ids {
			fmt.Fprintf(w, "Key:         %s=%s\n", id, o.ResourceKeys[id])
		}
	case handshake.ActionCreate:
		c := state.Create
		fmt.Fprintln(w, "Action:      create")
		fmt.Fprintf(w, "Folder:      %s\n", c.FolderID)

		if c.FolderResourceKey != "" {
			fmt.Fprintf(w, "Folder key:  %s\n", c.FolderResourceKey)
		}

		if c.UserID != "" {
			fmt.Fprintf(w, "User:        %s\n", c.UserID)
		}
	}
}

func joinSet(s mapset.Set[string]) string {
	if s == nil || s.Cardinality() == 0 {
		return "-"
	}

	ids := s.ToSlice()
	sort.Strings(ids)

	return strings.Join(ids, ", ")
}
