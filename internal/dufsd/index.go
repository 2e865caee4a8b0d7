package dufsd

import (
	"net/http"
	"strings"

	"github.com/go-json-experiment/json"

	"github.com/infinite-iroha/dufs/internal/assets"
)

// RenderKind distinguishes the two HTML-shell payloads (spec.md §4.4, §4.9).
type RenderKind string

const (
	RenderKindIndex RenderKind = "Index"
	RenderKindEdit  RenderKind = "Edit"
)

// IndexData is the JSON record embedded into the HTML shell, or emitted
// directly under ?json (spec.md §4.4).
type IndexData struct {
	Kind         RenderKind `json:"kind"`
	Href         string     `json:"href"`
	URIPrefix    string     `json:"uri_prefix"`
	AllowUpload  bool       `json:"allow_upload"`
	AllowDelete  bool       `json:"allow_delete"`
	AllowSearch  bool       `json:"allow_search"`
	AllowArchive bool       `json:"allow_archive"`
	DirExists    bool       `json:"dir_exists"`
	Auth         bool       `json:"auth"`
	User         *string    `json:"user"`
	Paths        []PathItem `json:"paths"`
}

// EditData is IndexData's counterpart for the ?edit render mode.
type EditData struct {
	Kind      RenderKind `json:"kind"`
	Href      string     `json:"href"`
	URIPrefix string     `json:"uri_prefix"`
	Auth      bool       `json:"auth"`
	User      *string    `json:"user"`
	Editable  bool       `json:"editable"`
}

// RenderMode selects one of the three listing presentations (spec.md §4.4).
type RenderMode int

const (
	RenderModeShell RenderMode = iota // substitute markers into the HTML shell
	RenderModeSimple
	RenderModeJSON
)

// RenderModeFromQuery reads the simple/json query flags, defaulting to the
// HTML shell when neither is present.
func RenderModeFromQuery(q map[string][]string) RenderMode {
	if _, ok := q["json"]; ok {
		return RenderModeJSON
	}
	if _, ok := q["simple"]; ok {
		return RenderModeSimple
	}
	return RenderModeShell
}

// SendIndex writes an IndexData listing in the requested render mode
// (spec.md §4.4). assetsPrefix is substituted into the HTML shell's
// __ASSERTS_PREFIX__ marker.
func SendIndex(w http.ResponseWriter, mode RenderMode, assetsPrefix string, data IndexData) error {
	switch mode {
	case RenderModeSimple:
		return sendSimple(w, data.Paths)
	case RenderModeJSON:
		return sendJSON(w, data)
	default:
		return renderShellWithPrefix(w, assetsPrefix, data)
	}
}

// SendEdit writes an EditData page; it always uses the HTML shell, since
// ?edit is only meaningful as a rendered page.
func SendEdit(w http.ResponseWriter, assetsPrefix string, data EditData) error {
	return renderShellWithPrefix(w, assetsPrefix, data)
}

func sendSimple(w http.ResponseWriter, paths []PathItem) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	var b strings.Builder
	for _, p := range paths {
		b.WriteString(p.Name)
		if p.PathType == PathTypeDir || p.PathType == PathTypeSymlinkDir {
			b.WriteByte('/')
		}
		b.WriteByte('\n')
	}
	_, err := w.Write([]byte(b.String()))
	return err
}

func sendJSON(w http.ResponseWriter, data any) error {
	w.Header().Set("Content-Type", "application/json")
	body, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}

// renderShellWithPrefix substitutes the data JSON and asset prefix into the
// embedded HTML shell's two literal markers (spec.md §3 invariant 3).
func renderShellWithPrefix(w http.ResponseWriter, assetsPrefix string, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return err
	}
	page := strings.NewReplacer(
		assets.AssetsPrefixMarker, assetsPrefix,
		assets.IndexDataMarker, string(body),
	).Replace(assets.IndexHTML)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = w.Write([]byte(page))
	return err
}
