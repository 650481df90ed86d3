// Package picker drives one round of interactive file selection through an
// externally rendered picker widget. The widget is reached only through the
// Factory, View, Builder and Widget interfaces; it reports the outcome by
// invoking the callback registered on the Builder.
package picker

import "github.com/tonimelisma/gdrive-go/internal/drive"

// Action is the kind of event the widget reports.
type Action string

// Widget actions. ActionLoaded is informational; the others are terminal.
const (
	ActionPicked Action = "picked"
	ActionCancel Action = "cancel"
	ActionError  Action = "error"
	ActionLoaded Action = "loaded"
)

// ViewID selects the widget's initial view.
type ViewID string

// Views.
const (
	ViewDocs    ViewID = "all"
	ViewFolders ViewID = "folders"
)

// Feature is a builder feature flag.
type Feature string

// Features.
const (
	FeatureMultiselectEnabled Feature = "multiselectEnabled"
	FeatureSupportDrives      Feature = "sdr"
)

// Response is the payload of a widget event.
type Response struct {
	Action Action       `json:"action"`
	Docs   []drive.File `json:"docs,omitempty"`
}

// View configures what the widget shows.
type View interface {
	SetMimeTypes(mimeTypes string)
	SetIncludeFolders(include bool)
	SetSelectFolderEnabled(enabled bool)
}

// Builder assembles a widget.
type Builder interface {
	AddView(v View)
	SetAppID(appID string)
	SetDeveloperKey(key string)
	SetOAuthToken(token string)
	SetCallback(cb func(Response))
	EnableFeature(f Feature)
	Build() Widget
}

// Widget is a built picker. SetVisible(true) displays it; the registered
// callback fires from any goroutine once the user acts.
type Widget interface {
	SetVisible(visible bool)
}

// Factory creates views and builders. It is the already-loaded picker
// library handed to the Service.
type Factory interface {
	NewView(id ViewID) View
	NewBuilder() Builder
}
