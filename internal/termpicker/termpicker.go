// Package termpicker renders a picker widget on a terminal. Folder contents
// come from the Drive REST API; the user answers a prompt with entry
// numbers, "cd N" to open a folder, ".." to go up, "." to choose the
// current folder (when folders are selectable) or "c" to cancel.
package termpicker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/mattn/go-isatty"

	"github.com/tonimelisma/gdrive-go/internal/drive"
	"github.com/tonimelisma/gdrive-go/internal/mimetype"
	"github.com/tonimelisma/gdrive-go/internal/picker"
)

// RootFolderID is the Drive alias for the user's root folder.
const RootFolderID = "root"

// Lister lists a folder. *drive.Client satisfies it.
type Lister interface {
	ListChildren(ctx context.Context, parentID, token string) ([]drive.File, error)
}

// IsTerminal reports whether r is an interactive terminal.
func IsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Factory is a picker.Factory drawing on out and reading answers from in.
type Factory struct {
	ctx    context.Context
	lister Lister
	in     *bufio.Reader
	out    io.Writer
	logger *slog.Logger
}

// New creates a Factory. ctx bounds listing requests made while a widget
// is visible.
func New(ctx context.Context, lister Lister, in io.Reader, out io.Writer, logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}

	return &Factory{
		ctx:    ctx,
		lister: lister,
		in:     bufio.NewReader(in),
		out:    out,
		logger: logger,
	}
}

// NewView implements picker.Factory.
func (f *Factory) NewView(id picker.ViewID) picker.View {
	return &view{id: id}
}

// NewBuilder implements picker.Factory.
func (f *Factory) NewBuilder() picker.Builder {
	return &builder{factory: f, features: make(map[picker.Feature]bool)}
}

type view struct {
	id             picker.ViewID
	mimeTypes      []string
	includeFolders bool
	selectFolder   bool
}

func (v *view) SetMimeTypes(mimeTypes string) {
	v.mimeTypes = v.mimeTypes[:0]

	for _, m := range strings.Split(mimeTypes, ",") {
		if m = strings.TrimSpace(m); m != "" {
			v.mimeTypes = append(v.mimeTypes, m)
		}
	}
}

func (v *view) SetIncludeFolders(include bool)      { v.includeFolders = include }
func (v *view) SetSelectFolderEnabled(enabled bool) { v.selectFolder = enabled }

// accepts reports whether f matches the MIME filter. Folders are always
// listed for navigation.
func (v *view) accepts(f *drive.File) bool {
	if mimetype.IsFolder(f.MimeType) {
		return true
	}

	if v.id == picker.ViewFolders {
		return false
	}

	if len(v.mimeTypes) == 0 {
		return true
	}

	for _, m := range v.mimeTypes {
		if m == f.MimeType {
			return true
		}
	}

	return false
}

// selectable reports whether f may be returned as a pick.
func (v *view) selectable(f *drive.File) bool {
	if mimetype.IsFolder(f.MimeType) {
		return v.includeFolders && v.selectFolder
	}

	return v.id != picker.ViewFolders
}

type builder struct {
	factory  *Factory
	views    []*view
	appID    string
	token    string
	callback func(picker.Response)
	features map[picker.Feature]bool
}

func (b *builder) AddView(v picker.View) {
	if tv, ok := v.(*view); ok {
		b.views = append(b.views, tv)
	}
}

func (b *builder) SetAppID(appID string)                { b.appID = appID }
func (b *builder) SetDeveloperKey(string)               {}
func (b *builder) SetOAuthToken(token string)           { b.token = token }
func (b *builder) SetCallback(cb func(picker.Response)) { b.callback = cb }
func (b *builder) EnableFeature(f picker.Feature)       { b.features[f] = true }

func (b *builder) Build() picker.Widget {
	v := &view{id: picker.ViewDocs}
	if len(b.views) > 0 {
		v = b.views[0]
	}

	callback := b.callback
	if callback == nil {
		callback = func(picker.Response) {}
	}

	return &widget{
		factory:  b.factory,
		view:     v,
		token:    b.token,
		multi:    b.features[picker.FeatureMultiselectEnabled],
		callback: callback,
	}
}

type crumb struct {
	id   string
	name string
}

type widget struct {
	factory  *Factory
	view     *view
	token    string
	multi    bool
	callback func(picker.Response)

	mu     sync.Mutex
	cancel context.CancelFunc
}

// SetVisible starts the prompt loop on its own goroutine; hiding the widget
// stops it from reporting further events.
func (w *widget) SetVisible(visible bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !visible {
		if w.cancel != nil {
			w.cancel()
			w.cancel = nil
		}

		return
	}

	if w.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(w.factory.ctx)
	w.cancel = cancel

	go w.run(ctx)
}

func (w *widget) emit(ctx context.Context, resp picker.Response) {
	if ctx.Err() != nil {
		return
	}

	w.callback(resp)
}

func (w *widget) run(ctx context.Context) {
	w.emit(ctx, picker.Response{Action: picker.ActionLoaded})

	resp := w.loop(ctx)
	w.emit(ctx, resp)
}

// errCanceled ends the loop with a cancel event.
var errCanceled = errors.New("termpicker: canceled")

func (w *widget) loop(ctx context.Context) picker.Response {
	path := []crumb{{id: RootFolderID, name: "My Drive"}}

	for {
		cur := path[len(path)-1]

		entries, err := w.list(ctx, cur.id)
		if err != nil {
			w.factory.logger.Warn("listing folder failed",
				slog.String("folder_id", cur.id),
				slog.String("error", err.Error()),
			)

			return picker.Response{Action: picker.ActionError}
		}

		w.render(path, entries)

		for {
			line, err := w.prompt()
			if err != nil {
				return picker.Response{Action: picker.ActionCancel}
			}

			docs, next, err := w.handle(line, path, entries)
			if errors.Is(err, errCanceled) {
				return picker.Response{Action: picker.ActionCancel}
			}

			if err != nil {
				fmt.Fprintf(w.factory.out, "%v\n", err)
				continue
			}

			if docs != nil {
				return picker.Response{Action: picker.ActionPicked, Docs: docs}
			}

			path = next

			break
		}
	}
}

func (w *widget) list(ctx context.Context, folderID string) ([]drive.File, error) {
	all, err := w.factory.lister.ListChildren(ctx, folderID, w.token)
	if err != nil {
		return nil, err
	}

	entries := make([]drive.File, 0, len(all))
	for i := range all {
		if !all[i].Trashed && w.view.accepts(&all[i]) {
			entries = append(entries, all[i])
		}
	}

	return entries, nil
}

func (w *widget) render(path []crumb, entries []drive.File) {
	names := make([]string, len(path))
	for i, c := range path {
		names[i] = c.name
	}

	out := w.factory.out
	fmt.Fprintf(out, "\n%s\n", strings.Join(names, " / "))

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tTYPE")

	for i := range entries {
		kind := entries[i].MimeType
		if mimetype.IsFolder(kind) {
			kind = "folder"
		}

		fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, entries[i].Name, kind)
	}

	tw.Flush()

	if len(entries) == 0 {
		fmt.Fprintln(out, "(empty)")
	}
}

func (w *widget) prompt() (string, error) {
	hint := "number"
	if w.multi {
		hint = "numbers (1,3)"
	}

	if w.view.selectFolder {
		hint += ", . for this folder"
	}

	fmt.Fprintf(w.factory.out, "Select %s, cd N, .., or c to cancel: ", hint)

	line, err := w.factory.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}

	return strings.TrimSpace(line), nil
}

// handle interprets one answer. It returns either the picked docs, or the
// next folder path, or an error to show before prompting again.
func (w *widget) handle(line string, path []crumb, entries []drive.File) ([]drive.File, []crumb, error) {
	switch {
	case line == "":
		return nil, nil, errors.New("nothing selected")
	case line == "c" || line == "q":
		return nil, nil, errCanceled
	case line == "..":
		if len(path) == 1 {
			return nil, nil, errors.New("already at the top")
		}

		return nil, path[:len(path)-1], nil
	case line == ".":
		if !w.view.selectFolder {
			return nil, nil, errors.New("folders cannot be selected here")
		}

		cur := path[len(path)-1]

		return []drive.File{{ID: cur.id, Name: cur.name, MimeType: mimetype.FolderMimeType}}, nil, nil
	case strings.HasPrefix(line, "cd "):
		idx, err := parseIndex(strings.TrimSpace(strings.TrimPrefix(line, "cd ")), len(entries))
		if err != nil {
			return nil, nil, err
		}

		f := entries[idx]
		if !mimetype.IsFolder(f.MimeType) {
			return nil, nil, fmt.Errorf("%s is not a folder", f.Name)
		}

		next := append(append([]crumb(nil), path...), crumb{id: f.ID, name: f.Name})

		return nil, next, nil
	}

	indexes, err := parseSelection(line, len(entries), w.multi)
	if err != nil {
		return nil, nil, err
	}

	docs := make([]drive.File, 0, len(indexes))
	for _, idx := range indexes {
		if !w.view.selectable(&entries[idx]) {
			return nil, nil, fmt.Errorf("%s cannot be selected", entries[idx].Name)
		}

		docs = append(docs, entries[idx])
	}

	return docs, nil, nil
}

// parseSelection parses "2" or, when multi, "1,3 4". Indexes are 1-based
// on input and 0-based on output, deduplicated in input order.
func parseSelection(line string, n int, multi bool) ([]int, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) > 1 && !multi {
		return nil, errors.New("select a single entry")
	}

	seen := make(map[int]bool, len(fields))
	out := make([]int, 0, len(fields))

	for _, field := range fields {
		idx, err := parseIndex(field, n)
		if err != nil {
			return nil, err
		}

		if !seen[idx] {
			seen[idx] = true
			out = append(out, idx)
		}
	}

	return out, nil
}

func parseIndex(s string, n int) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}

	if v < 1 || v > n {
		return 0, fmt.Errorf("no entry %d", v)
	}

	return v - 1, nil
}
