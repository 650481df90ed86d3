package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tonimelisma/gdrive-go/internal/drive"
	"github.com/tonimelisma/gdrive-go/internal/mimetype"
	"github.com/tonimelisma/gdrive-go/internal/termpicker"
)

// defaultTransfers bounds concurrent downloads in `get`.
const defaultTransfers = 4

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [folder-id]",
		Short: "List a folder (default: My Drive root)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLs,
	}
}

func newStatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stat <file-id>",
		Short: "Display file metadata and export options",
		Args:  cobra.ExactArgs(1),
		RunE:  runStat,
	}
}

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <file-id>...",
		Short: "Download files, exporting native documents",
		Long: `Download one or more files into a local directory. Native documents
are exported to their default format unless --export names another one
of their export types (see 'gdrive-go export-info').`,
		Args: cobra.MinimumNArgs(1),
		RunE: runGet,
	}

	cmd.Flags().String("export", "", "export MIME type for native documents")
	cmd.Flags().StringP("output", "o", ".", "destination directory")
	cmd.Flags().Int("transfers", defaultTransfers, "number of parallel downloads")

	return cmd
}

func newCatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <file-id>",
		Short: "Print a file's content as text",
		Args:  cobra.ExactArgs(1),
		RunE:  runCat,
	}
}

func newPutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <local-path>",
		Short: "Upload a file",
		Args:  cobra.ExactArgs(1),
		RunE:  runPut,
	}

	cmd.Flags().String("parent", "", "destination folder ID (default: My Drive root)")

	return cmd
}

func runLs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cc := mustCLIContext(ctx)

	folderID := termpicker.RootFolderID
	if len(args) == 1 {
		folderID = args[0]
	}

	sess, err := newSession(ctx, cc)
	if err != nil {
		return err
	}

	files, err := sess.Drive.ListChildren(ctx, folderID, "")
	if err != nil {
		return sess.explain(err)
	}

	if cc.Flags.JSON {
		if files == nil {
			files = []drive.File{}
		}

		return printJSON(os.Stdout, files)
	}

	printFilesTable(os.Stdout, files)

	return nil
}

func printFilesTable(w io.Writer, files []drive.File) {
	rows := make([][]string, 0, len(files))

	for i := range files {
		f := &files[i]

		size := formatSize(f.SizeBytes)
		name := f.Name

		switch {
		case mimetype.IsFolder(f.MimeType):
			size = "-"
			name += "/"
		case f.ExportInfo().IsManagedDocument:
			size = "-"
		}

		rows = append(rows, []string{f.ID, name, f.MimeType, size})
	}

	printTable(w, []string{"ID", "NAME", "TYPE", "SIZE"}, rows)
}

// statOutput is the JSON schema for `stat --json`.
type statOutput struct {
	File   drive.File `json:"file"`
	Export exportJSON `json:"export"`
}

func runStat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cc := mustCLIContext(ctx)

	sess, err := newSession(ctx, cc)
	if err != nil {
		return err
	}

	f, err := sess.Drive.GetFile(ctx, args[0], "")
	if err != nil {
		return sess.explain(err)
	}

	info := f.ExportInfo()

	if cc.Flags.JSON {
		return printJSON(os.Stdout, statOutput{File: *f, Export: toExportJSON(f.MimeType, info)})
	}

	printStatText(os.Stdout, f, info)

	return nil
}

func printStatText(w io.Writer, f *drive.File, info mimetype.ExportInfo) {
	fmt.Fprintf(w, "ID:       %s\n", f.ID)
	fmt.Fprintf(w, "Name:     %s\n", f.Name)
	fmt.Fprintf(w, "Type:     %s\n", f.MimeType)

	if !info.IsManagedDocument && !mimetype.IsFolder(f.MimeType) {
		fmt.Fprintf(w, "Size:     %s (%d bytes)\n", formatSize(f.SizeBytes), f.SizeBytes)
	}

	if f.Description != "" {
		fmt.Fprintf(w, "About:    %s\n", f.Description)
	}

	if f.Starred {
		fmt.Fprintln(w, "Starred:  yes")
	}

	if f.Trashed {
		fmt.Fprintln(w, "Trashed:  yes")
	}

	if info.IsManagedDocument {
		fmt.Fprintf(w, "Kind:     %s\n", info.Kind)
		fmt.Fprintf(w, "Exports:  %s\n", strings.Join(info.ExportMimeTypes, ", "))
	}
}

// download is one planned transfer for `get`.
type download struct {
	file       *drive.File
	exportMime string
	path       string
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cc := mustCLIContext(ctx)

	exportMime, err := cmd.Flags().GetString("export")
	if err != nil {
		return err
	}

	outDir, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	transfers, err := cmd.Flags().GetInt("transfers")
	if err != nil {
		return err
	}

	sess, err := newSession(ctx, cc)
	if err != nil {
		return err
	}

	files, err := fetchMetadata(ctx, sess, args, transfers)
	if err != nil {
		return err
	}

	plan, err := planDownloads(files, exportMime, outDir)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", outDir, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(transfers, 1))

	for _, d := range plan {
		g.Go(func() error {
			n, err := runDownload(gctx, sess, d)
			if err != nil {
				return fmt.Errorf("%s: %w", d.file.ID, sess.explain(err))
			}

			cc.Logger.Debug("downloaded", "file_id", d.file.ID, "path", d.path, "bytes", n)
			cc.Statusf("Downloaded %s (%s)\n", d.path, formatSize(n))

			return nil
		})
	}

	return g.Wait()
}

// fetchMetadata loads every file's metadata in parallel, preserving order.
func fetchMetadata(ctx context.Context, sess *Session, ids []string, limit int) ([]*drive.File, error) {
	files := make([]*drive.File, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(limit, 1))

	for i, id := range ids {
		g.Go(func() error {
			f, err := sess.Drive.GetFile(gctx, id, "")
			if err != nil {
				return fmt.Errorf("%s: %w", id, sess.explain(err))
			}

			files[i] = f

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return files, nil
}

// planDownloads picks the export format and a unique local path for each
// file. Folders are rejected.
func planDownloads(files []*drive.File, exportMime, outDir string) ([]download, error) {
	plan := make([]download, 0, len(files))
	used := make(map[string]bool, len(files))

	for _, f := range files {
		if mimetype.IsFolder(f.MimeType) {
			return nil, fmt.Errorf("%s is a folder", f.ID)
		}

		target := ""

		if info := f.ExportInfo(); info.IsManagedDocument {
			target = info.ExportMimeTypes[0]

			if exportMime != "" {
				if !slices.Contains(info.ExportMimeTypes, exportMime) {
					return nil, fmt.Errorf("%s (%s) cannot be exported as %s", f.Name, info.Kind, exportMime)
				}

				target = exportMime
			}
		}

		name := localName(f, target)
		if used[name] {
			ext := filepath.Ext(name)
			name = fmt.Sprintf("%s (%s)%s", strings.TrimSuffix(name, ext), f.ID, ext)
		}

		used[name] = true

		plan = append(plan, download{file: f, exportMime: target, path: filepath.Join(outDir, name)})
	}

	return plan, nil
}

// localName derives a safe file name, adding the export extension when the
// name lacks it.
func localName(f *drive.File, exportMime string) string {
	name := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == 0 {
			return '_'
		}

		return r
	}, strings.TrimSpace(f.Name))

	if name == "" || name == "." || name == ".." {
		name = f.ID
	}

	if ext := mimetype.ExtensionFor(exportMime); ext != "" && !strings.HasSuffix(strings.ToLower(name), ext) {
		name += ext
	}

	return name
}

// runDownload streams d into a temp file beside its destination and renames
// it into place, so an interrupted transfer leaves no partial file.
func runDownload(ctx context.Context, sess *Session, d download) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(d.path), ".gdrive-*.partial")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}

	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	var n int64
	if d.exportMime != "" {
		n, err = sess.Drive.ExportTo(ctx, d.file.ID, d.exportMime, "", tmp)
	} else {
		n, err = sess.Drive.DownloadTo(ctx, d.file.ID, "", tmp)
	}

	if err != nil {
		tmp.Close()
		return 0, err
	}

	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("closing %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, d.path); err != nil {
		return 0, fmt.Errorf("renaming into %s: %w", d.path, err)
	}

	success = true

	return n, nil
}

func runCat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cc := mustCLIContext(ctx)

	sess, err := newSession(ctx, cc)
	if err != nil {
		return err
	}

	f, err := sess.Drive.GetFile(ctx, args[0], "")
	if err != nil {
		return sess.explain(err)
	}

	if mimetype.IsFolder(f.MimeType) {
		return fmt.Errorf("%s is a folder", f.ID)
	}

	text, err := sess.Drive.ReadContentText(ctx, f, "")
	if err != nil {
		return sess.explain(err)
	}

	_, err = io.WriteString(os.Stdout, text)

	return err
}

func runPut(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cc := mustCLIContext(ctx)

	parentID, err := cmd.Flags().GetString("parent")
	if err != nil {
		return err
	}

	localPath := args[0]

	fh, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer fh.Close()

	info, err := fh.Stat()
	if err != nil {
		return err
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory", localPath)
	}

	sess, err := newSession(ctx, cc)
	if err != nil {
		return err
	}

	f, err := sess.Drive.Upload(ctx, fh, filepath.Base(localPath), parentID, "")
	if err != nil {
		return sess.explain(err)
	}

	cc.Logger.Debug("uploaded", "file_id", f.ID, "bytes", info.Size())

	if cc.Flags.JSON {
		return printJSON(os.Stdout, f)
	}

	cc.Statusf("Uploaded %s (%s) as %s\n", f.Name, formatSize(info.Size()), f.ID)

	return nil
}
