package dufsd

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Search walks every leaf permitted by view under absRoot looking for
// entries whose case-folded name contains query, itself already
// case-folded by the caller (spec.md §4.6). An empty query yields an empty
// result without touching the filesystem. The walk runs on its own
// goroutine so request handling is not starved by blocking I/O, matching
// the original's dedicated blocking-worker dispatch.
func Search(ctx context.Context, absRoot string, view AccessView, allowSymlink bool, hidden HiddenFilter, query string, shutdown *ShutdownFlag) ([]PathItem, error) {
	if query == "" {
		return nil, nil
	}
	query = strings.ToLower(query)

	var results []PathItem
	g, gctx := errgroup.WithContext(ctx)
	resultsCh := make(chan PathItem)
	done := make(chan struct{})

	go func() {
		for item := range resultsCh {
			results = append(results, item)
		}
		close(done)
	}()

	g.Go(func() error {
		defer close(resultsCh)
		for _, leaf := range view.LeafPaths(absRoot) {
			if err := searchLeaf(gctx, absRoot, leaf, allowSymlink, hidden, query, shutdown, resultsCh); err != nil {
				return err
			}
		}
		return nil
	})

	err := g.Wait()
	<-done
	if err != nil {
		return nil, err
	}
	return results, nil
}

func searchLeaf(ctx context.Context, absRoot, leaf string, allowSymlink bool, hidden HiddenFilter, query string, shutdown *ShutdownFlag, out chan<- PathItem) error {
	return filepath.WalkDir(leaf, func(entryPath string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
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
		if entryPath == leaf {
			return nil
		}

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
		if hidden.Hidden(name, isDir) {
			// SkipDir on a non-directory entry (a symlinked directory is
			// one to WalkDir) would skip its remaining siblings instead.
			if isDir && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.Contains(strings.ToLower(name), query) {
			rel, err := filepath.Rel(absRoot, entryPath)
			if err == nil {
				item.Name = filepath.ToSlash(rel)
			}
			select {
			case out <- item:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
}
