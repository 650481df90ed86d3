// Package mimetype classifies Google Drive MIME types. Native Drive formats
// (Docs, Sheets, Slides, Drawings, Apps Script) have no byte representation
// and must be exported to a standard format; everything else downloads as-is.
package mimetype

// FolderMimeType identifies Drive folders.
const FolderMimeType = "application/vnd.google-apps.folder"

// Kind is a managed document kind. The zero value means "not managed".
type Kind string

// Managed document kinds.
const (
	KindDocument     Kind = "document"
	KindSpreadsheet  Kind = "spreadsheet"
	KindPresentation Kind = "presentation"
	KindDrawing      Kind = "drawing"
	KindAppScript    Kind = "appScript"
)

func (k Kind) String() string {
	return string(k)
}

// managedKinds maps native Drive MIME types to their document kind.
// Values from https://developers.google.com/drive/api/guides/mime-types
var managedKinds = map[string]Kind{
	"application/vnd.google-apps.document":     KindDocument,
	"application/vnd.google-apps.spreadsheet":  KindSpreadsheet,
	"application/vnd.google-apps.presentation": KindPresentation,
	"application/vnd.google-apps.drawing":      KindDrawing,
	"application/vnd.google-apps.script":       KindAppScript,
}

// exportMimeTypes lists the export targets per kind, preferred target first.
// Values from https://developers.google.com/drive/api/guides/ref-export-formats
var exportMimeTypes = map[Kind][]string{
	KindDocument: {
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.oasis.opendocument.text",
		"application/rtf",
		"application/pdf",
		"text/plain",
		"application/zip",
		"application/epub+zip",
	},
	KindSpreadsheet: {
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/x-vnd.oasis.opendocument.spreadsheet",
		"application/pdf",
		"application/zip",
		"text/csv",
		"text/tab-separated-values",
	},
	KindPresentation: {
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"application/vnd.oasis.opendocument.presentation",
		"application/pdf",
		"text/plain",
		"image/jpeg",
		"image/png",
		"image/svg+xml",
	},
	KindDrawing: {
		"application/pdf",
		"image/jpeg",
		"image/png",
		"image/svg+xml",
	},
	KindAppScript: {
		"application/vnd.google-apps.script+json",
	},
}

// extensions maps export MIME types to a file extension for saving output.
var extensions = map[string]string{
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   ".docx",
	"application/vnd.oasis.opendocument.text":                                   ".odt",
	"application/rtf":                                                           ".rtf",
	"application/pdf":                                                           ".pdf",
	"text/plain":                                                                ".txt",
	"application/zip":                                                           ".zip",
	"application/epub+zip":                                                      ".epub",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         ".xlsx",
	"application/x-vnd.oasis.opendocument.spreadsheet":                          ".ods",
	"text/csv":                                                                  ".csv",
	"text/tab-separated-values":                                                 ".tsv",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": ".pptx",
	"application/vnd.oasis.opendocument.presentation":                           ".odp",
	"image/jpeg":                                                                ".jpg",
	"image/png":                                                                 ".png",
	"image/svg+xml":                                                             ".svg",
	"application/vnd.google-apps.script+json":                                   ".json",
}

// ExportInfo describes how a file of a given MIME type is read.
// ExportMimeTypes is nil unless IsManagedDocument is true.
type ExportInfo struct {
	IsManagedDocument bool
	Kind              Kind
	ExportMimeTypes   []string
}

// Classify looks up mimeType in the managed document table. The returned
// export list is a copy; callers may modify it.
func Classify(mimeType string) ExportInfo {
	kind, ok := managedKinds[mimeType]
	if !ok {
		return ExportInfo{}
	}

	targets := exportMimeTypes[kind]
	out := make([]string, len(targets))
	copy(out, targets)

	return ExportInfo{
		IsManagedDocument: true,
		Kind:              kind,
		ExportMimeTypes:   out,
	}
}

// DefaultExport returns the preferred export target for mimeType, or false
// when the type downloads verbatim.
func DefaultExport(mimeType string) (string, bool) {
	kind, ok := managedKinds[mimeType]
	if !ok {
		return "", false
	}

	return exportMimeTypes[kind][0], true
}

// IsFolder reports whether mimeType is the Drive folder type.
func IsFolder(mimeType string) bool {
	return mimeType == FolderMimeType
}

// ExtensionFor returns the file extension (with leading dot) for an export
// MIME type, or "" if unknown.
func ExtensionFor(exportMimeType string) string {
	return extensions[exportMimeType]
}
