package dufsd

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/WJQSERVER/wanf"
)

// Config is the process-lifetime, read-only configuration record
// (spec.md §3 "Configuration"). A Server is built from one Config and never
// mutates it afterwards.
type Config struct {
	RootPath  string `wanf:"root_path"`
	URIPrefix string `wanf:"uri_prefix"`
	PathIsFile bool  `wanf:"path_is_file"`

	AllowUpload  bool `wanf:"allow_upload"`
	AllowDelete  bool `wanf:"allow_delete"`
	AllowSearch  bool `wanf:"allow_search"`
	AllowArchive bool `wanf:"allow_archive"`

	RenderIndex    bool `wanf:"render_index"`
	RenderSpa      bool `wanf:"render_spa"`
	RenderTryIndex bool `wanf:"render_try_index"`

	AllowSymlink bool     `wanf:"allow_symlink"`
	Hidden       []string `wanf:"hidden"`
	PosixHidden  bool     `wanf:"posix_hidden"`

	EnableCORS bool   `wanf:"enable_cors"`
	AssetsPath string `wanf:"assets_path"`

	BindAddr string `wanf:"bind_addr"`

	AuthUser string `wanf:"auth_user"`
	AuthPass string `wanf:"auth_pass"`

	// PathPrefix is URIPrefix with its trailing slash stripped, used for
	// prefix-compare in ResolvePath (spec.md §3).
	PathPrefix string `wanf:"-"`
}

// normalize fills derived fields and canonicalizes the ones the CLI/config
// layer can leave un-normalized (trailing slashes on root_path/uri_prefix).
func (c *Config) normalize() {
	if c.URIPrefix == "" {
		c.URIPrefix = "/"
	}
	if !strings.HasPrefix(c.URIPrefix, "/") {
		c.URIPrefix = "/" + c.URIPrefix
	}
	if !strings.HasSuffix(c.URIPrefix, "/") {
		c.URIPrefix += "/"
	}
	c.PathPrefix = strings.TrimSuffix(c.URIPrefix, "/")
	if c.PathPrefix == "" {
		c.PathPrefix = "/"
	}
	c.RootPath = strings.TrimSuffix(c.RootPath, "/")
	if c.RootPath == "" {
		c.RootPath = "."
	}
}

// Guard builds the permission collaborator implied by the loaded
// credentials. An empty AuthUser means the tree is unguarded.
func (c *Config) Guard() Guard {
	perm := ReadWrite
	if !c.AllowUpload && !c.AllowDelete {
		perm = ReadOnly
	}
	if c.AuthUser == "" {
		return OpenGuard{Perm: perm}
	}
	return &BasicAuthGuard{Username: c.AuthUser, Password: c.AuthPass, Perm: perm}
}

// LoadConfig parses CLI flags and, when --config points at a file, overlays
// a wanf-encoded configuration record on top of the flag defaults — the
// Go-native analogue of dufs's CLI-args-plus-optional-file boot sequence.
// CLI/flag parsing itself is the out-of-scope external collaborator named by
// spec.md §1; this function is the thin populate-a-record boundary around it.
func LoadConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("dufs", flag.ContinueOnError)

	cfg := &Config{}
	var configPath string
	fs.StringVar(&configPath, "config", "", "path to a wanf configuration file")
	fs.StringVar(&cfg.RootPath, "path", ".", "root directory to serve")
	fs.StringVar(&cfg.URIPrefix, "uri-prefix", "/", "URL prefix the server is mounted under")
	fs.BoolVar(&cfg.PathIsFile, "path-is-file", false, "serve a single file instead of a directory tree")
	fs.BoolVar(&cfg.AllowUpload, "allow-upload", false, "allow PUT uploads")
	fs.BoolVar(&cfg.AllowDelete, "allow-delete", false, "allow DELETE/overwrite of existing files")
	fs.BoolVar(&cfg.AllowSearch, "allow-search", false, "allow ?q= search")
	fs.BoolVar(&cfg.AllowArchive, "allow-archive", false, "allow ?zip= on-the-fly zip download")
	fs.BoolVar(&cfg.RenderIndex, "render-index", false, "serve index.html for directories instead of a listing")
	fs.BoolVar(&cfg.RenderSpa, "render-spa", false, "single-page-app fallback to root index.html")
	fs.BoolVar(&cfg.RenderTryIndex, "render-try-index", false, "try index.html, fall back to a listing")
	fs.BoolVar(&cfg.AllowSymlink, "allow-symlink", false, "follow symlinks that escape the root")
	fs.BoolVar(&cfg.PosixHidden, "posix-hidden", false, "hide dotfiles")
	fs.BoolVar(&cfg.EnableCORS, "enable-cors", false, "emit permissive CORS headers")
	fs.StringVar(&cfg.AssetsPath, "assets-path", "", "serve UI assets from this directory instead of the embedded bundle")
	fs.StringVar(&cfg.BindAddr, "bind", ":5000", "address to listen on")
	fs.StringVar(&cfg.AuthUser, "auth-user", "", "HTTP basic auth username; empty disables auth")
	fs.StringVar(&cfg.AuthPass, "auth-pass", "", "HTTP basic auth password")
	var hiddenCSV string
	fs.StringVar(&hiddenCSV, "hidden", "", "comma-separated glob patterns to hide (trailing / = directory-only)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if hiddenCSV != "" {
		cfg.Hidden = strings.Split(hiddenCSV, ",")
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
		decoder, err := wanf.NewStreamDecoder(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to create WANF decoder: %w", err)
		}
		if err := decoder.Decode(cfg); err != nil {
			return nil, fmt.Errorf("WANF config error: %w", err)
		}
	}

	cfg.normalize()
	return cfg, nil
}
