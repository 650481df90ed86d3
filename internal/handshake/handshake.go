// Package handshake encodes and decodes the pending "open" or "create"
// intent that Drive hands to an application through the state query
// parameter. Decoding is best-effort: malformed input yields no state.
package handshake

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// QueryParam is the URL query parameter carrying the encoded state.
const QueryParam = "state"

// Action discriminates the two state shapes.
type Action string

// Actions.
const (
	ActionOpen   Action = "open"
	ActionCreate Action = "create"
)

// ErrInvalidState is returned by Encode for a state that Decode would reject.
var ErrInvalidState = errors.New("handshake: invalid state")

// OpenState asks the receiving instance to open existing files. IDs are
// downloadable files, ExportIDs native documents; either may be nil.
type OpenState struct {
	IDs          mapset.Set[string]
	ExportIDs    mapset.Set[string]
	UserID       string
	ResourceKeys map[string]string
}

// CreateState asks the receiving instance to create a file in FolderID.
type CreateState struct {
	FolderID          string
	FolderResourceKey string
	UserID            string
}

// State holds exactly one of Open or Create.
type State struct {
	Open   *OpenState
	Create *CreateState
}

// Action reports which branch is populated, or "" if the state is invalid.
func (s State) Action() Action {
	switch {
	case s.Open != nil && s.Create == nil:
		return ActionOpen
	case s.Create != nil && s.Open == nil:
		return ActionCreate
	default:
		return ""
	}
}

// wireState is the JSON shape of both branches.
type wireState struct {
	Action            Action            `json:"action"`
	IDs               []string          `json:"ids,omitempty"`
	ExportIDs         []string          `json:"exportIds,omitempty"`
	ResourceKeys      map[string]string `json:"resourceKeys,omitempty"`
	FolderID          string            `json:"folderId,omitempty"`
	FolderResourceKey string            `json:"folderResourceKey,omitempty"`
	UserID            string            `json:"userId,omitempty"`
}

// Encode returns the compact JSON form of s. Id lists are sorted so equal
// states encode identically.
func Encode(s State) (string, error) {
	var w wireState

	switch s.Action() {
	case ActionOpen:
		w = wireState{
			Action:       ActionOpen,
			IDs:          sortedIDs(s.Open.IDs),
			ExportIDs:    sortedIDs(s.Open.ExportIDs),
			ResourceKeys: s.Open.ResourceKeys,
			UserID:       s.Open.UserID,
		}

		if len(w.IDs) == 0 && len(w.ExportIDs) == 0 {
			return "", fmt.Errorf("%w: open without ids", ErrInvalidState)
		}
	case ActionCreate:
		if s.Create.FolderID == "" {
			return "", fmt.Errorf("%w: create without folder id", ErrInvalidState)
		}

		w = wireState{
			Action:            ActionCreate,
			FolderID:          s.Create.FolderID,
			FolderResourceKey: s.Create.FolderResourceKey,
			UserID:            s.Create.UserID,
		}
	default:
		return "", fmt.Errorf("%w: exactly one of open or create must be set", ErrInvalidState)
	}

	data, err := json.Marshal(w)
	if err != nil {
		return "", fmt.Errorf("handshake: encoding state: %w", err)
	}

	return string(data), nil
}

// Decode reads the state parameter from a raw query string (a leading "?"
// is allowed). It returns false for a missing parameter, invalid JSON, an
// unknown action, a create without folderId, or an open without any id.
func Decode(rawQuery string) (State, bool) {
	// ParseQuery keeps every pair it could parse, so a stray bad escape
	// elsewhere in the query does not hide a valid state.
	values, _ := url.ParseQuery(strings.TrimPrefix(rawQuery, "?")) //nolint:errcheck // partial parse is acceptable

	raw := values.Get(QueryParam)
	if raw == "" {
		return State{}, false
	}

	return decodeJSON(raw)
}

// DecodeURL is Decode applied to the query of a full URL.
func DecodeURL(rawURL string) (State, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return State{}, false
	}

	return Decode(u.RawQuery)
}

// AppendToURL sets the state parameter on base. The base URL's own query is
// left as written.
func AppendToURL(base string, s State) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("handshake: parsing base URL: %w", err)
	}

	encoded, err := Encode(s)
	if err != nil {
		return "", err
	}

	// Other parameters keep their order and encoding; only an existing
	// state pair is replaced.
	parts := make([]string, 0, 4)

	for part := range strings.SplitSeq(u.RawQuery, "&") {
		if part == "" {
			continue
		}

		key, _, _ := strings.Cut(part, "=")
		if k, err := url.QueryUnescape(key); err == nil && k == QueryParam {
			continue
		}

		parts = append(parts, part)
	}

	parts = append(parts, QueryParam+"="+url.QueryEscape(encoded))
	u.RawQuery = strings.Join(parts, "&")

	return u.String(), nil
}

func decodeJSON(raw string) (State, bool) {
	var w *wireState
	if err := json.Unmarshal([]byte(raw), &w); err != nil || w == nil {
		return State{}, false
	}

	switch w.Action {
	case ActionCreate:
		if w.FolderID == "" {
			return State{}, false
		}

		return State{Create: &CreateState{
			FolderID:          w.FolderID,
			FolderResourceKey: w.FolderResourceKey,
			UserID:            w.UserID,
		}}, true
	case ActionOpen:
		if len(w.IDs) == 0 && len(w.ExportIDs) == 0 {
			return State{}, false
		}

		return State{Open: &OpenState{
			IDs:          idSet(w.IDs),
			ExportIDs:    idSet(w.ExportIDs),
			UserID:       w.UserID,
			ResourceKeys: w.ResourceKeys,
		}}, true
	default:
		return State{}, false
	}
}

func idSet(ids []string) mapset.Set[string] {
	if ids == nil {
		return nil
	}

	return mapset.NewSet(ids...)
}

func sortedIDs(s mapset.Set[string]) []string {
	if s == nil || s.Cardinality() == 0 {
		return nil
	}

	ids := s.ToSlice()
	slices.Sort(ids)

	return ids
}
