package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/gdrive-go/internal/mimetype"
)

func newExportInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-info <mime-type>",
		Short: "Show whether a MIME type is a native document and its export formats",
		Args:  cobra.ExactArgs(1),
		RunE:  runExportInfo,
	}
}

// exportJSON is the JSON schema for export information.
type exportJSON struct {
	MimeType          string   `json:"mime_type"`
	IsManagedDocument bool     `json:"is_managed_document"`
	Kind              string   `json:"kind,omitempty"`
	ExportMimeTypes   []string `json:"export_mime_types,omitempty"`
}

func toExportJSON(mimeType string, info mimetype.ExportInfo) exportJSON {
	out := exportJSON{
		MimeType:          mimeType,
		IsManagedDocument: info.IsManagedDocument,
		ExportMimeTypes:   info.ExportMimeTypes,
	}

	if info.IsManagedDocument {
		out.Kind = info.Kind.String()
	}

	return out
}

func runExportInfo(cmd *cobra.Command, args []string) error {
	cc := mustCLIContext(cmd.Context())

	info := mimetype.Classify(args[0])

	if cc.Flags.JSON {
		return printJSON(os.Stdout, toExportJSON(args[0], info))
	}

	printExportInfo(os.Stdout, args[0], info)

	return nil
}

func printExportInfo(w io.Writer, mimeType string, info mimetype.ExportInfo) {
	if !info.IsManagedDocument {
		fmt.Fprintf(w, "%s is downloaded as-is\n", mimeType)
		return
	}

	fmt.Fprintf(w, "%s is a native %s; export as:\n", mimeType, info.Kind)

	for i, m := range info.ExportMimeTypes {
		marker := " "
		if i == 0 {
			marker = "*"
		}

		ext := mimetype.ExtensionFor(m)
		if ext == "" {
			ext = "-"
		}

		fmt.Fprintf(w, "  %s %-75s %s\n", marker, m, ext)
	}
}
