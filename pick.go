package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/gdrive-go/internal/drive"
	"github.com/tonimelisma/gdrive-go/internal/picker"
	"github.com/tonimelisma/gdrive-go/internal/termpicker"
)

func newPickCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Interactively choose files or a folder",
		Long: `Browse Drive in the terminal and print the chosen entries. The picker
is drawn on stderr so the selection on stdout can be piped.`,
		Args: cobra.NoArgs,
		RunE: runPick,
	}

	cmd.Flags().Bool("multiple", false, "allow choosing several files")
	cmd.Flags().String("mime", "", "comma-separated MIME types to offer")
	cmd.Flags().Bool("folder", false, "choose a folder instead of files")

	return cmd
}

func runPick(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cc := mustCLIContext(ctx)

	multiple, err := cmd.Flags().GetBool("multiple")
	if err != nil {
		return err
	}

	mimeTypes, err := cmd.Flags().GetString("mime")
	if err != nil {
		return err
	}

	folder, err := cmd.Flags().GetBool("folder")
	if err != nil {
		return err
	}

	if !termpicker.IsTerminal(os.Stdin) {
		return errors.New("pick needs an interactive terminal on stdin")
	}

	sess, err := newSession(ctx, cc)
	if err != nil {
		return err
	}

	factory := termpicker.New(ctx, sess.Drive, os.Stdin, os.Stderr, cc.Logger)
	svc := picker.NewService(factory, sess.Tokens, sess.PickerConfig(), cc.Logger)

	var picked []drive.File

	switch {
	case folder:
		f, pickErr := svc.PickFolder(ctx, "")
		if f != nil {
			picked = []drive.File{*f}
		}

		err = pickErr
	case multiple:
		picked, err = svc.PickFiles(ctx, picker.PickOptions{MimeTypes: mimeTypes})
	default:
		f, pickErr := svc.PickFile(ctx, picker.PickOptions{MimeTypes: mimeTypes})
		if f != nil {
			picked = []drive.File{*f}
		}

		err = pickErr
	}

	if err != nil {
		return err
	}

	if cc.Flags.JSON {
		if picked == nil {
			picked = []drive.File{}
		}

		return printJSON(os.Stdout, picked)
	}

	if len(picked) == 0 {
		cc.Statusf("Nothing selected.\n")
		return nil
	}

	printFilesTable(os.Stdout, picked)

	return nil
}
