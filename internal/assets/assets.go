// Package assets embeds the bundled index page and its companion js/css/ico
// byte blobs, served under the server's asset prefix with a long cache
// lifetime. They are treated as opaque blobs by the rest of the server.
package assets

import (
	_ "embed"
)

//go:embed index.html
var IndexHTML string

//go:embed index.js
var IndexJS []byte

//go:embed index.css
var IndexCSS []byte

//go:embed favicon.ico
var FaviconICO []byte

// AssetsPrefixMarker and IndexDataMarker are the two literal substitution
// points the index page's HTML shell carries. The asset bundle path must
// never contain either string.
const (
	AssetsPrefixMarker = "__ASSERTS_PREFIX__"
	IndexDataMarker    = "__INDEX_DATA__"
)
