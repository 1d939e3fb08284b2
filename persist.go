package uci

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	securejoin "github.com/cyphar/filepath-securejoin"
)

// Save writes the delta of each matching package (all loaded packages when no
// path is given) to its file in savedir. The delta stays staged.
func (c *Context) Save(path ...string) error {
	pkgs, _, err := c.targets(path)
	if err != nil {
		return err
	}

	for _, pkg := range pkgs {
		if !pkg.tainted() {
			continue
		}

		if err := c.writeSaved(pkg.name, pkg.delta); err != nil {
			return err
		}

		c.logger.Debug("delta saved", slog.String("package", pkg.name), slog.Int("changes", len(pkg.delta)))
	}

	return nil
}

// Commit writes each matching package to its file in confdir, replacing the
// previous contents, and clears its delta and saved delta. Without a path only
// packages with pending changes are written. Packages are committed one at a
// time in name order; a failing package does not stop the others and nothing
// already committed is undone. The returned error joins every failure.
func (c *Context) Commit(path ...string) error {
	pkgs, _, err := c.targets(path)
	if err != nil {
		return err
	}

	var errs []error

	for _, pkg := range pkgs {
		if len(path) == 0 && !pkg.tainted() {
			continue
		}

		if err := c.commitPackage(pkg); err != nil {
			c.logger.Error("commit failed", slog.String("package", pkg.name), slog.Any("error", err))

			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (c *Context) commitPackage(pkg *Package) error {
	if err := ensureDir(filepath.Dir(pkg.path)); err != nil {
		return storageError(pkg.name, "preparing confdir", err)
	}

	err := writeAtomic(pkg.path, func(w io.Writer) error {
		return writePackage(w, pkg)
	})
	if err != nil {
		return storageError(pkg.name, "writing config file", err)
	}

	changes := len(pkg.delta)
	pkg.delta = nil
	pkg.renumber()

	if err := c.removeSaved(pkg.name); err != nil {
		return err
	}

	c.logger.Info("package committed",
		slog.String("package", pkg.name), slog.String("path", pkg.path), slog.Int("changes", changes))

	return nil
}

// Revert discards pending changes. For a package path the package is reloaded
// from confdir and its saved delta removed. For a section or option path only
// the changes touching that element are dropped; the rest are replayed onto a
// fresh copy of the file.
func (c *Context) Revert(path ...string) error {
	pkgs, p, err := c.targets(path)
	if err != nil {
		return err
	}

	if p.Section != "" {
		return c.revertElement(pkgs[0], p)
	}

	for _, pkg := range pkgs {
		if err := c.removeSaved(pkg.name); err != nil {
			return err
		}

		fresh, exists, err := c.readPackage(pkg.name, false)
		if err != nil {
			return err
		}

		if exists {
			c.packages[pkg.name] = fresh
		} else {
			delete(c.packages, pkg.name)
		}

		c.logger.Info("package reverted", slog.String("package", pkg.name), slog.Int("changes", len(pkg.delta)))
	}

	return nil
}

func (c *Context) revertElement(pkg *Package, p Path) error {
	sel, err := parseSelector(p.Section)
	if err != nil {
		return err
	}

	secName := sel.name
	if sel.ext {
		sec := pkg.find(sel)
		if sec == nil {
			return notFound(p)
		}

		secName = sec.name
	}

	kept := slices.DeleteFunc(pkg.Changes(), func(change Change) bool {
		return change.touches(secName, p.Option)
	})

	fresh, exists, err := c.readPackage(pkg.name, false)
	if err != nil {
		return err
	}

	c.replay(fresh, kept)

	if !exists && !fresh.tainted() {
		delete(c.packages, pkg.name)
	} else {
		c.packages[pkg.name] = fresh
	}

	if c.hasSaved(pkg.name) {
		if len(fresh.delta) == 0 {
			return c.removeSaved(pkg.name)
		}

		return c.writeSaved(pkg.name, fresh.delta)
	}

	return nil
}

// targets returns the packages a persistence operation applies to: every
// loaded package in name order, or the package named by path.
func (c *Context) targets(path []string) ([]*Package, Path, error) {
	if err := c.check(); err != nil {
		return nil, Path{}, err
	}

	if len(path) == 0 {
		pkgs := make([]*Package, 0, len(c.packages))
		for _, name := range c.Packages() {
			pkgs = append(pkgs, c.packages[name])
		}

		return pkgs, Path{}, nil
	}

	p, err := PathOf(path...)
	if err != nil {
		return nil, Path{}, err
	}

	pkg, err := c.pkgFor(p.Package, false)
	if err != nil {
		return nil, Path{}, err
	}

	return []*Package{pkg}, p, nil
}

func (c *Context) confPath(name string) (string, error) {
	path, err := securejoin.SecureJoin(c.confdir, name)
	if err != nil {
		return "", storageError(name, "resolving config file path", err)
	}

	return path, nil
}

func (c *Context) savedPath(name string) (string, error) {
	path, err := securejoin.SecureJoin(c.savedir, name)
	if err != nil {
		return "", storageError(name, "resolving save file path", err)
	}

	return path, nil
}

func (c *Context) hasSaved(name string) bool {
	path, err := c.savedPath(name)
	if err != nil {
		return false
	}

	_, err = os.Stat(path)

	return err == nil
}

func (c *Context) readSaved(name string) ([]Change, error) {
	path, err := c.savedPath(name)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path) // #nosec G304 -- path is confined to savedir
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, storageError(name, "opening saved delta", err)
	}

	defer func() { _ = file.Close() }()

	changes, err := readDelta(name, path, file)
	if err != nil {
		return nil, storageError(name, "parsing saved delta", err)
	}

	return changes, nil
}

func (c *Context) writeSaved(name string, changes []Change) error {
	if err := os.MkdirAll(c.savedir, 0o700); err != nil {
		return storageError(name, "creating savedir", err)
	}

	path, err := c.savedPath(name)
	if err != nil {
		return err
	}

	err = writeAtomic(path, func(w io.Writer) error {
		return writeDelta(w, changes)
	})
	if err != nil {
		return storageError(name, "writing saved delta", err)
	}

	return nil
}

func (c *Context) removeSaved(name string) error {
	path, err := c.savedPath(name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return storageError(name, "removing saved delta", err)
	}

	return nil
}

// writeAtomic writes through a temporary file in the target directory and
// renames it into place, so readers see either the old or the new contents.
func writeAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}

	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if err := write(tmp); err != nil {
		_ = tmp.Close()

		cleanup()

		return err
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()

		cleanup()

		return fmt.Errorf("syncing %s: %w", tmpName, err)
	}

	if err := tmp.Close(); err != nil {
		cleanup()

		return fmt.Errorf("closing %s: %w", tmpName, err)
	}

	if err := os.Chmod(tmpName, 0o644); err != nil { //nolint:gosec // config files are world-readable
		cleanup()

		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		cleanup()

		return fmt.Errorf("renaming into %s: %w", path, err)
	}

	return nil
}
