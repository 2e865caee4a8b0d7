package dufsd

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/WJQSERVER-STUDIO/go-utils/iox"
	kflate "github.com/klauspost/compress/flate"
	"golang.org/x/sync/errgroup"
)

// ServeZip sets the archive response headers and wires a producer/consumer
// pipe: the producer walks the tree on its own goroutine and writes zip
// entries into the pipe, while the consumer copies the pipe's read side
// onto the response body (spec.md §4.7). A producer error closes the pipe
// with that error; since headers are already on the wire by then, it is
// only logged by the caller, never turned into a rewritten status.
func ServeZip(ctx context.Context, w http.ResponseWriter, absRoot string, view AccessView, allowSymlink bool, hidden HiddenFilter, shutdown *ShutdownFlag) error {
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.zip"`, rootZipName(absRoot)))
	w.WriteHeader(http.StatusOK)

	pr, pw := io.Pipe()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := StreamZip(gctx, pw, absRoot, view, allowSymlink, hidden, shutdown)
		pw.CloseWithError(err)
		return err
	})
	g.Go(func() error {
		_, err := iox.Copy(w, pr)
		return err
	})
	return g.Wait()
}

// StreamZip walks every leaf permitted by view under absRoot and streams a
// deflate archive to w (spec.md §4.7). Every archived path is relative to
// absRoot, with no extra prefix, matching the original's "paths relative to
// the zipped root" rule. shutdown is consulted between entries so an in-flight
// archive can be cut short by a server shutdown.
func StreamZip(ctx context.Context, w io.Writer, absRoot string, view AccessView, allowSymlink bool, hidden HiddenFilter, shutdown *ShutdownFlag) error {
	zw := zip.NewWriter(w)
	// klauspost/compress's flate implementation is a faster drop-in for the
	// Deflate method than the standard library's.
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return kflate.NewWriter(out, kflate.DefaultCompression)
	})
	defer zw.Close()

	for _, leaf := range view.LeafPaths(absRoot) {
		if err := zipWalkLeaf(ctx, zw, absRoot, leaf, allowSymlink, hidden, shutdown); err != nil {
			return err
		}
	}
	return zw.Close()
}

func zipWalkLeaf(ctx context.Context, zw *zip.Writer, absRoot, leaf string, allowSymlink bool, hidden HiddenFilter, shutdown *ShutdownFlag) error {
	return filepath.WalkDir(leaf, func(entryPath string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if shutdown != nil && !shutdown.Alive() {
			return errShutdown
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		name := d.Name()

		// Resolve through toPathItem before consulting the hidden filter,
		// the same as ListDir: d.IsDir() reports false for a symlinked
		// directory, which would let a dir-only hidden pattern miss it.
		item, ok := toPathItem(absRoot, allowSymlink, entryPath, name)
		if !ok {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		isDir := item.PathType == PathTypeDir || item.PathType == PathTypeSymlinkDir
		if entryPath != leaf && hidden.Hidden(name, isDir) {
			// SkipDir on a non-directory entry (a symlinked directory is
			// one to WalkDir) would skip its remaining siblings instead.
			if isDir && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if isDir {
			return nil
		}
		if item.PathType != PathTypeFile {
			return nil
		}

		info, err := os.Stat(entryPath)
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(absRoot, entryPath)
		if err != nil {
			return nil
		}
		archiveName := filepath.ToSlash(rel)

		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		hdr.Name = archiveName
		hdr.Method = zip.Deflate
		hdr.Modified = toTimestamp(info.ModTime())
		hdr.SetMode(info.Mode())

		f, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		src, err := os.Open(entryPath)
		if err != nil {
			return nil
		}
		defer src.Close()
		_, err = io.Copy(f, src)
		return err
	})
}

// rootZipName derives the "<dir>.zip" download name from the zipped
// directory's own path (spec.md §4.7).
func rootZipName(absRoot string) string {
	base := filepath.Base(absRoot)
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "root"
	}
	return base
}
