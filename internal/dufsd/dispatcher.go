package dufsd

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/infinite-iroha/dufs/internal/assets"
	"github.com/infinite-iroha/dufs/touka"
)

// assetVersion is embedded into the asset sub-prefix so a new build never
// collides with a client's cached bundle (spec.md §6 "asset sub-prefix is
// literally <uri_prefix>__dufs_v<version>_").
const assetVersion = "1"

// Server is the process-lifetime collaborator a Config builds: the guard,
// hidden filter and shutdown flag live here, never mutated after NewServer
// returns (spec.md §3 "Configuration... process lifetime").
type Server struct {
	cfg      *Config
	guard    Guard
	hidden   HiddenFilter
	shutdown *ShutdownFlag
}

func NewServer(cfg *Config) *Server {
	return &Server{
		cfg:      cfg,
		guard:    cfg.Guard(),
		hidden:   NewHiddenFilter(cfg.PosixHidden, cfg.Hidden),
		shutdown: NewShutdownFlag(),
	}
}

// Shutdown marks the server's ShutdownFlag dead so in-flight search/zip
// walks abort on their next entry.
func (s *Server) Shutdown() { s.shutdown.Stop() }

func (s *Server) assetsPrefix() string {
	return s.cfg.URIPrefix + "__dufs_v" + assetVersion + "_"
}

// Register mounts every HTTP and WebDAV verb the dispatcher answers onto
// engine, plus the asset fast path, under the configured uri_prefix. It
// uses Engine/RouterGroup.Handle (not HandleFunc) for every verb since
// HandleFunc rejects any method outside the nine-verb MethodsSet, and
// WebDAV needs PROPFIND/MKCOL/COPY/MOVE/PROPPATCH/LOCK/UNLOCK plus the
// probe method WRITEABLE.
func (s *Server) Register(engine *touka.Engine) {
	// The asset prefix is not slash-terminated (spec.md §6: literally
	// "<uri_prefix>__dufs_v<version>_" with the asset name concatenated
	// directly), so the catch-all is attached to the engine directly
	// instead of through a Group, which would force a "/" boundary.
	assetPattern := s.assetsPrefix() + "*path"
	engine.Handle(http.MethodGet, assetPattern, touka.HandlerFunc(s.handleAsset))
	engine.Handle(http.MethodHead, assetPattern, touka.HandlerFunc(s.handleAsset))

	group := engine.Group(s.cfg.URIPrefix)
	methods := []string{
		http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete,
		http.MethodOptions, "PROPFIND", "PROPPATCH", "MKCOL", "COPY", "MOVE",
		"LOCK", "UNLOCK", "WRITEABLE",
	}
	for _, m := range methods {
		group.Handle(m, "", touka.HandlerFunc(s.handle))
		group.Handle(m, "/*path", touka.HandlerFunc(s.handle))
	}
}

func (s *Server) handleAsset(c *touka.Context) {
	name := strings.TrimPrefix(c.Param("path"), "/")
	if name == "" {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	if s.cfg.AssetsPath != "" {
		full := filepath.Join(s.cfg.AssetsPath, filepath.FromSlash(name))
		if !IsRootContained(s.cfg.AssetsPath, full) {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		f, err := os.Open(full)
		if err != nil {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		c.Writer.Header().Set("Cache-Control", "max-age=2592000, public")
		_ = StreamFile(c.Writer, c.Request, f, info, name)
		return
	}

	var body []byte
	switch name {
	case "index.js":
		body = assets.IndexJS
		c.Writer.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	case "index.css":
		body = assets.IndexCSS
		c.Writer.Header().Set("Content-Type", "text/css; charset=utf-8")
	case "favicon.ico":
		body = assets.FaviconICO
		c.Writer.Header().Set("Content-Type", "image/x-icon")
	default:
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	c.Writer.Header().Set("Cache-Control", "max-age=2592000, public")
	if c.Request.Method == http.MethodHead {
		return
	}
	c.Writer.Write(body)
}

// handle is the top-level state machine (spec.md §4.1).
func (s *Server) handle(c *touka.Context) {
	if s.cfg.EnableCORS {
		defer addCORSHeaders(c.Writer)
	}

	method := c.Request.Method
	defer func() {
		status := c.Writer.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.Infof("%s %s %s %d %d", c.Request.RemoteAddr, method, c.Request.URL.Path, status, c.Writer.Size())
	}()

	relPath, ok := ResolvePath(s.cfg.PathPrefix, c.Request.URL.Path)
	if !ok {
		WriteError(c.Writer, errForbidden, s.guard.WWWAuthenticate())
		return
	}

	user, view := s.guard.Authorize(relPath, method, c.Request.Header.Get("Authorization"))
	if view == nil {
		if user == nil {
			c.Writer.Header().Set("WWW-Authenticate", s.guard.WWWAuthenticate())
			SetWebDAVHeaders(c.Writer)
			c.Writer.WriteHeader(http.StatusUnauthorized)
			return
		}
		WriteError(c.Writer, errForbidden, s.guard.WWWAuthenticate())
		return
	}

	if method == "WRITEABLE" {
		if !view.ReadWrite() {
			WriteError(c.Writer, errForbidden, s.guard.WWWAuthenticate())
			return
		}
		c.Writer.WriteHeader(http.StatusOK)
		return
	}

	if s.cfg.PathIsFile {
		s.handleSingleFile(c, method, relPath, *view, user)
		return
	}

	absPath := JoinPath(s.cfg.RootPath, relPath)
	info, statErr := os.Stat(absPath)
	exists := statErr == nil

	if exists && !s.cfg.AllowSymlink {
		canonicalRoot, err := filepath.EvalSymlinks(s.cfg.RootPath)
		if err == nil {
			canonicalTarget, err := filepath.EvalSymlinks(absPath)
			if err != nil || !IsRootContained(canonicalRoot, canonicalTarget) {
				exists = false
			}
		}
	}

	switch method {
	case http.MethodGet, http.MethodHead:
		s.handleGet(c, relPath, absPath, exists, info, *view, user)
	case http.MethodOptions:
		SetWebDAVHeaders(c.Writer)
		c.Writer.WriteHeader(http.StatusOK)
	case http.MethodPut:
		s.handlePut(c, absPath, exists, info, *view)
	case http.MethodDelete:
		s.handleDelete(c, absPath, exists, info, *view)
	case "PROPFIND":
		s.handlePropfind(c, relPath, absPath, exists, info, *view)
	case "PROPPATCH":
		s.handleProppatch(c, exists, *view)
	case "MKCOL":
		s.handleMkcol(c, absPath, exists, *view)
	case "COPY", "MOVE":
		s.handleCopyMove(c, method, relPath, absPath, exists, info, *view)
	case "LOCK":
		s.handleLock(c, exists, info, user)
	case "UNLOCK":
		s.handleUnlock(c, exists)
	default:
		WriteError(c.Writer, errMethodNotAllowed, "")
	}
}

func addCORSHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Credentials", "true")
	h.Set("Access-Control-Allow-Methods", "*")
	h.Set("Access-Control-Allow-Headers", "Authorization,*")
	h.Set("Access-Control-Expose-Headers", "Authorization,*")
}

func (s *Server) handleSingleFile(c *touka.Context, method, relPath string, view AccessView, user *string) {
	name := filepath.Base(s.cfg.RootPath)
	uris := singleFileURIs(s.cfg.PathPrefix, name)
	requested := c.Request.URL.Path
	matched := false
	for _, u := range uris {
		if requested == u {
			matched = true
			break
		}
	}
	if !matched || (method != http.MethodGet && method != http.MethodHead) {
		WriteError(c.Writer, errNotFound, "")
		return
	}
	f, err := os.Open(s.cfg.RootPath)
	if err != nil {
		WriteError(c.Writer, errNotFound, "")
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		WriteError(c.Writer, errInternal, "")
		return
	}
	if _, ok := c.Request.URL.Query()["edit"]; ok {
		s.sendEditPage(c, f, info, name, view, user)
		return
	}
	_ = StreamFile(c.Writer, c.Request, f, info, name)
}

func (s *Server) sendEditPage(c *touka.Context, f *os.File, info os.FileInfo, name string, view AccessView, user *string) {
	editable := view.ReadWrite() && Editable(f, info.Size())
	data := EditData{
		Kind:      RenderKindEdit,
		Href:      "/" + name,
		URIPrefix: s.cfg.URIPrefix,
		Auth:      s.guard.Exists(),
		User:      user,
		Editable:  editable,
	}
	_ = SendEdit(c.Writer, s.assetsPrefix(), data)
}

func (s *Server) handleGet(c *touka.Context, relPath, absPath string, exists bool, info os.FileInfo, view AccessView, user *string) {
	q := c.Request.URL.Query()
	isDir := exists && info.IsDir()

	switch {
	case exists && isDir:
		switch {
		case hasQuery(q, "zip") && s.cfg.AllowArchive:
			if err := ServeZip(c.Request.Context(), c.Writer, absPath, view, s.cfg.AllowSymlink, s.hidden, s.shutdown); err != nil {
				c.Errorf("zip stream: %v", err)
			}
		case hasQuery(q, "q") && s.cfg.AllowSearch:
			items, err := Search(c.Request.Context(), absPath, view, s.cfg.AllowSymlink, s.hidden, strings.ToLower(q.Get("q")), s.shutdown)
			if err != nil {
				WriteError(c.Writer, errInternal, "")
				return
			}
			s.sendListing(c, relPath, items, view, user, exists)
		default:
			if (s.cfg.RenderTryIndex || s.cfg.RenderIndex || s.cfg.RenderSpa) && s.tryIndexHTML(c, absPath) {
				return
			}
			if s.cfg.RenderIndex || s.cfg.RenderSpa {
				WriteError(c.Writer, errNotFound, "")
				return
			}
			items, err := ListDir(s.cfg.RootPath, s.cfg.AllowSymlink, s.hidden, view, absPath)
			if err != nil {
				WriteError(c.Writer, errInternal, "")
				return
			}
			SortPathItems(items, SortKey(q.Get("sort")), q.Get("order") == "desc")
			s.sendListing(c, relPath, items, view, user, exists)
		}
	case exists && !isDir:
		if !view.ReadWrite() && view.Perm == IndexOnly {
			WriteError(c.Writer, errForbidden, s.guard.WWWAuthenticate())
			return
		}
		if hasQuery(q, "edit") {
			f, err := os.Open(absPath)
			if err != nil {
				WriteError(c.Writer, errNotFound, "")
				return
			}
			defer f.Close()
			s.sendEditPage(c, f, info, filepath.Base(absPath), view, user)
			return
		}
		f, err := os.Open(absPath)
		if err != nil {
			WriteError(c.Writer, errNotFound, "")
			return
		}
		defer f.Close()
		if err := StreamFile(c.Writer, c.Request, f, info, filepath.Base(absPath)); err != nil {
			c.Errorf("stream file: %v", err)
		}
	default: // missing
		if s.cfg.RenderSpa && filepath.Ext(c.Request.URL.Path) == "" {
			if s.tryIndexHTML(c, s.cfg.RootPath) {
				return
			}
		}
		if s.cfg.AllowUpload && strings.HasSuffix(c.Request.URL.Path, "/") {
			s.sendListing(c, relPath, nil, view, user, false)
			return
		}
		WriteError(c.Writer, errNotFound, "")
	}
}

func hasQuery(q map[string][]string, key string) bool {
	_, ok := q[key]
	return ok
}

func (s *Server) tryIndexHTML(c *touka.Context, dir string) bool {
	indexPath := filepath.Join(dir, "index.html")
	f, err := os.Open(indexPath)
	if err != nil {
		return false
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false
	}
	_ = StreamFile(c.Writer, c.Request, f, info, "index.html")
	return true
}

func (s *Server) sendListing(c *touka.Context, relPath string, items []PathItem, view AccessView, user *string, dirExists bool) {
	href := "/" + relPath
	data := IndexData{
		Kind:         RenderKindIndex,
		Href:         href,
		URIPrefix:    s.cfg.URIPrefix,
		AllowUpload:  s.cfg.AllowUpload && view.ReadWrite(),
		AllowDelete:  s.cfg.AllowDelete && view.ReadWrite(),
		AllowSearch:  s.cfg.AllowSearch,
		AllowArchive: s.cfg.AllowArchive,
		DirExists:    dirExists,
		Auth:         s.guard.Exists(),
		User:         user,
		Paths:        items,
	}
	mode := RenderModeFromQuery(c.Request.URL.Query())
	if err := SendIndex(c.Writer, mode, s.assetsPrefix(), data); err != nil {
		c.Errorf("send index: %v", err)
	}
}

func (s *Server) handlePut(c *touka.Context, absPath string, exists bool, info os.FileInfo, view AccessView) {
	var size int64
	if exists {
		size = info.Size()
	}
	if !view.ReadWrite() || !UploadAllowed(s.cfg.AllowUpload, s.cfg.AllowDelete, size, exists) {
		WriteError(c.Writer, errForbidden, s.guard.WWWAuthenticate())
		return
	}
	if err := Upload(absPath, c.Request.Body); err != nil {
		WriteError(c.Writer, err, "")
		return
	}
	c.Writer.WriteHeader(http.StatusCreated)
}

func (s *Server) handleDelete(c *touka.Context, absPath string, exists bool, info os.FileInfo, view AccessView) {
	if !exists {
		WriteError(c.Writer, errNotFound, "")
		return
	}
	if !view.ReadWrite() || !s.cfg.AllowDelete {
		WriteError(c.Writer, errForbidden, s.guard.WWWAuthenticate())
		return
	}
	if err := Delete(absPath, info.IsDir()); err != nil {
		WriteError(c.Writer, err, "")
		return
	}
	c.Writer.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePropfind(c *touka.Context, relPath, absPath string, exists bool, info os.FileInfo, view AccessView) {
	if !exists {
		WriteError(c.Writer, errNotFound, "")
		return
	}
	depth, ok := ParseDepth(c.Request.Header.Get("Depth"))
	if !ok {
		WriteError(c.Writer, errBadRequest, "")
		return
	}

	c.Writer.Header().Set("Content-Type", "application/xml; charset=utf-8")
	name := filepath.Base(absPath)
	if info.IsDir() {
		roView := view.ReadOnlyView()
		self, ok := toPathItem(s.cfg.RootPath, s.cfg.AllowSymlink, absPath, name)
		if !ok {
			WriteError(c.Writer, errNotFound, "")
			return
		}
		items, err := ListDir(s.cfg.RootPath, s.cfg.AllowSymlink, s.hidden, roView, absPath)
		if err != nil {
			WriteError(c.Writer, errInternal, "")
			return
		}
		c.Writer.WriteHeader(http.StatusMultiStatus)
		c.Writer.Write([]byte(PropfindDir(s.cfg.URIPrefix, relPath, self, items, depth)))
		return
	}
	item, ok := toPathItem(s.cfg.RootPath, s.cfg.AllowSymlink, absPath, name)
	if !ok {
		WriteError(c.Writer, errNotFound, "")
		return
	}
	c.Writer.WriteHeader(http.StatusMultiStatus)
	c.Writer.Write([]byte(PropfindFile(s.cfg.URIPrefix, relPath, item)))
}

func (s *Server) handleProppatch(c *touka.Context, exists bool, view AccessView) {
	if !exists {
		WriteError(c.Writer, errNotFound, "")
		return
	}
	c.Writer.Header().Set("Content-Type", "application/xml; charset=utf-8")
	c.Writer.WriteHeader(http.StatusMultiStatus)
	c.Writer.Write([]byte(Proppatch(nil)))
}

func (s *Server) handleMkcol(c *touka.Context, absPath string, exists bool, view AccessView) {
	if !view.ReadWrite() || !s.cfg.AllowUpload {
		WriteError(c.Writer, errForbidden, s.guard.WWWAuthenticate())
		return
	}
	if exists {
		WriteError(c.Writer, errAlreadyExists, "Already exists")
		return
	}
	if err := Mkcol(absPath); err != nil {
		WriteError(c.Writer, err, "")
		return
	}
	c.Writer.WriteHeader(http.StatusCreated)
}

func (s *Server) handleCopyMove(c *touka.Context, method, relPath, absPath string, exists bool, info os.FileInfo, view AccessView) {
	if !exists {
		WriteError(c.Writer, errNotFound, "")
		return
	}
	if info.IsDir() {
		WriteError(c.Writer, errForbidden, s.guard.WWWAuthenticate())
		return
	}
	if !view.ReadWrite() {
		WriteError(c.Writer, errForbidden, s.guard.WWWAuthenticate())
		return
	}
	if method == "MOVE" && !s.cfg.AllowDelete {
		WriteError(c.Writer, errForbidden, s.guard.WWWAuthenticate())
		return
	}

	destURI, ok := ExtractDestination(c.Request.Header.Get("Destination"))
	if !ok {
		WriteError(c.Writer, errBadRequest, "")
		return
	}
	destRel, ok := ResolvePath(s.cfg.PathPrefix, destURI)
	if !ok {
		WriteError(c.Writer, errForbidden, s.guard.WWWAuthenticate())
		return
	}
	_, destView := s.guard.Authorize(destRel, method, c.Request.Header.Get("Authorization"))
	if destView == nil || !destView.ReadWrite() {
		WriteError(c.Writer, errForbidden, s.guard.WWWAuthenticate())
		return
	}
	destAbs := JoinPath(s.cfg.RootPath, destRel)

	var err error
	if method == "COPY" {
		err = CopyFile(absPath, destAbs)
	} else {
		err = MoveFile(absPath, destAbs)
	}
	if err != nil {
		WriteError(c.Writer, err, "")
		return
	}
	c.Writer.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLock(c *touka.Context, exists bool, info os.FileInfo, user *string) {
	if !exists || info.IsDir() {
		WriteError(c.Writer, errNotFound, "")
		return
	}
	token := LockToken(user != nil, time.Now())
	c.Writer.Header().Set("Lock-Token", "<"+token+">")
	c.Writer.Header().Set("Content-Type", "application/xml; charset=utf-8")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Write([]byte(LockBody(token)))
}

func (s *Server) handleUnlock(c *touka.Context, exists bool) {
	if !exists {
		WriteError(c.Writer, errNotFound, "")
		return
	}
	c.Writer.WriteHeader(http.StatusOK)
}
