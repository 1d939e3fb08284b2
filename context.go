// Package uci is an in-memory configuration store for UCI-style config files.
//
// A Context loads packages (one file each) from a config directory on demand,
// resolves dotted paths such as "network.lan.proto" or "network.@interface[0]",
// and stages every edit in a per-package delta. Save writes the delta to the
// save directory, Commit writes the package back to the config directory and
// Revert throws the delta away.
//
// A Context is a single-owner handle: it does no locking of its own.
package uci

import (
	"errors"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
)

// Context owns the loaded packages and the directories they are read from and written to.
type Context struct {
	confdir  string
	savedir  string
	packages map[string]*Package
	logger   *slog.Logger
	closed   bool
}

// New creates a Context. Directories given through options are created if
// they do not exist; the defaults are left untouched until first use.
func New(opts ...ContextOption) (*Context, error) {
	var options ContextOptions

	for _, apply := range opts {
		apply(&options)
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ctx := &Context{
		confdir:  DefaultConfDir,
		savedir:  DefaultSaveDir,
		packages: make(map[string]*Package),
		logger:   logger,
	}

	if options.ConfDir != "" {
		if err := ctx.SetConfDir(options.ConfDir); err != nil {
			return nil, err
		}
	}

	if options.SaveDir != "" {
		if err := ctx.SetSaveDir(options.SaveDir); err != nil {
			return nil, err
		}
	}

	return ctx, nil
}

// With runs fn against a fresh Context and closes it afterwards on every exit
// path, committing pending changes if any remain. An error from fn takes
// precedence over an error from closing.
func With(fn func(*Context) error, opts ...ContextOption) (err error) {
	ctx, err := New(opts...)
	if err != nil {
		return err
	}

	defer func() {
		closeErr := ctx.Close()
		if err == nil {
			err = closeErr
		} else if closeErr != nil {
			ctx.logger.Error("closing context", slog.Any("error", closeErr))
		}
	}()

	return fn(ctx)
}

// ConfDir returns the config directory.
func (c *Context) ConfDir() string { return c.confdir }

// SaveDir returns the save directory.
func (c *Context) SaveDir() string { return c.savedir }

// SetConfDir points the Context at another config directory, creating it if needed.
// Packages already loaded keep the paths they were loaded from.
func (c *Context) SetConfDir(dir string) error {
	if err := ensureDir(dir); err != nil {
		return err
	}

	c.confdir = dir

	return nil
}

// SetSaveDir points the Context at another save directory, creating it if needed.
func (c *Context) SetSaveDir(dir string) error {
	if err := ensureDir(dir); err != nil {
		return err
	}

	c.savedir = dir

	return nil
}

func ensureDir(dir string) error {
	if dir == "" {
		return newError(KindInvalidArgument, "directory must not be empty")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // config directories are world-readable
		return &Error{Kind: KindStorage, Message: "creating directory " + strconv.Quote(dir), Err: err}
	}

	info, err := os.Stat(dir)
	if err != nil {
		return &Error{Kind: KindStorage, Message: "stat directory " + strconv.Quote(dir), Err: err}
	}

	if !info.IsDir() {
		return newError(KindInvalidArgument, "%q is not a directory", dir)
	}

	return nil
}

// Tainted reports whether any loaded package holds uncommitted changes.
func (c *Context) Tainted() bool {
	for _, pkg := range c.packages {
		if pkg.tainted() {
			return true
		}
	}

	return false
}

// Packages returns the names of the loaded packages, sorted.
func (c *Context) Packages() []string {
	return slices.Sorted(maps.Keys(c.packages))
}

// Package returns a loaded package, loading it from confdir if necessary.
func (c *Context) Package(name string) (*Package, error) {
	if !validPackageName(name) {
		return nil, newError(KindInvalidArgument, "invalid package name %q", name)
	}

	return c.pkgFor(name, false)
}

// Lookup resolves a path given as one dotted string or as one to three components.
// A path whose package exists resolves without error even when the section or
// option is missing; check Pointer.Complete.
func (c *Context) Lookup(path ...string) (Pointer, error) {
	p, err := PathOf(path...)
	if err != nil {
		return Pointer{}, err
	}

	return c.resolve(p, false)
}

// Get returns, depending on what the path names: the whole package as
// PackageValues, the section type as a string, or the option Value.
func (c *Context) Get(path ...string) (any, error) {
	return c.get(path, false)
}

// GetAll is Get, except that a section yields its SectionValues instead of its type.
func (c *Context) GetAll(path ...string) (any, error) {
	return c.get(path, true)
}

func (c *Context) get(path []string, wantSection bool) (any, error) {
	ptr, err := c.Lookup(path...)
	if err != nil {
		return nil, err
	}

	if !ptr.Complete {
		return nil, notFound(ptr.Path)
	}

	switch ptr.Target() {
	case ElementOption:
		return ptr.opt.value, nil
	case ElementSection:
		if wantSection {
			return ptr.sec.Values(), nil
		}

		return ptr.sec.typ, nil
	default:
		return ptr.pkg.Values(), nil
	}
}

// Set assigns value to "package.section.option", or sets the type of
// "package.section" (creating the section). A string stores a scalar; a
// []string, []any of strings or list Value replaces the option with a list in
// the given order, and an empty list deletes the option. A missing named
// section is created with its name as type. Other value types fail with
// unsupported_type.
func (c *Context) Set(path string, value any) error {
	p, err := ParsePath(path)
	if err != nil {
		return err
	}

	v, err := ValueOf(value)
	if err != nil {
		return err
	}

	return c.set(p, v)
}

// SetIn is Set with discrete components. An empty option sets the section type.
func (c *Context) SetIn(pkg, section, option string, value any) error {
	components := []string{pkg, section}
	if option != "" {
		components = append(components, option)
	}

	p, err := PathOf(components...)
	if err != nil {
		return err
	}

	v, err := ValueOf(value)
	if err != nil {
		return err
	}

	return c.set(p, v)
}

func (c *Context) set(p Path, v Value) error {
	if p.Section == "" {
		return newError(KindInvalidArgument, "set needs a section in %q", p.String())
	}

	if err := checkValue(v); err != nil {
		return err
	}

	ptr, err := c.resolve(p, true)
	if err != nil {
		return err
	}

	if p.Option == "" {
		return c.setSectionType(ptr, v)
	}

	if v.IsList() && v.Len() == 0 && ptr.opt == nil {
		return nil
	}

	secName, err := c.sectionFor(ptr)
	if err != nil {
		return err
	}

	change := Change{Package: p.Package, Section: secName, Option: p.Option}
	if ptr.opt != nil {
		change.Old = ptr.opt.value
	}

	if !v.IsList() {
		change.Op = OpSet
		change.Value = v.scalar

		return c.stage(ptr.pkg, change)
	}

	if ptr.opt != nil {
		change.Op = OpDelete
		if err := c.stage(ptr.pkg, change); err != nil {
			return err
		}
	}

	for _, item := range v.list {
		add := Change{Op: OpListAdd, Package: p.Package, Section: secName, Option: p.Option, Value: item}
		if err := c.stage(ptr.pkg, add); err != nil {
			return err
		}
	}

	return nil
}

func (c *Context) setSectionType(ptr Pointer, v Value) error {
	if v.IsList() {
		return newError(KindUnsupportedType, "section type of %q must be a string", ptr.Path.String())
	}

	if !validTypeName(v.scalar) {
		return newError(KindInvalidArgument, "invalid section type %q", v.scalar)
	}

	name := ptr.SectionName()
	if name == "" {
		sel, _ := parseSelector(ptr.Section)
		if sel.ext {
			return notFound(ptr.Path)
		}

		name = sel.name
	}

	return c.stage(ptr.pkg, Change{Op: OpSet, Package: ptr.Package, Section: name, Value: v.scalar})
}

// sectionFor returns the name of the pointer's section, creating a named
// section (typed after its name) when it does not exist yet.
func (c *Context) sectionFor(ptr Pointer) (string, error) {
	if ptr.sec != nil {
		return ptr.sec.name, nil
	}

	sel, _ := parseSelector(ptr.Section)
	if sel.ext {
		return "", notFound(Path{Package: ptr.Package, Section: ptr.Section})
	}

	c.logger.Debug("creating section implicitly",
		slog.String("package", ptr.Package), slog.String("section", sel.name))

	change := Change{Op: OpSet, Package: ptr.Package, Section: sel.name, Value: sel.name}
	if err := c.stage(ptr.pkg, change); err != nil {
		return "", err
	}

	return sel.name, nil
}

// AddList appends one item to a list option, turning a scalar into a list.
func (c *Context) AddList(path, item string) error {
	p, err := c.optionPath(path)
	if err != nil {
		return err
	}

	if err := checkValue(Scalar(item)); err != nil {
		return err
	}

	ptr, err := c.resolve(p, true)
	if err != nil {
		return err
	}

	secName, err := c.sectionFor(ptr)
	if err != nil {
		return err
	}

	return c.stage(ptr.pkg, Change{Op: OpListAdd, Package: p.Package, Section: secName, Option: p.Option, Value: item})
}

// DelList removes every occurrence of item from a list option. Removing the
// last item deletes the option.
func (c *Context) DelList(path, item string) error {
	p, err := c.optionPath(path)
	if err != nil {
		return err
	}

	ptr, err := c.resolve(p, false)
	if err != nil {
		return err
	}

	if !ptr.Complete {
		return notFound(p)
	}

	change := Change{Op: OpListDel, Package: p.Package, Section: ptr.sec.name, Option: p.Option, Value: item, Old: ptr.opt.value}

	return c.stage(ptr.pkg, change)
}

func (c *Context) optionPath(path string) (Path, error) {
	p, err := ParsePath(path)
	if err != nil {
		return Path{}, err
	}

	if p.Option == "" {
		return Path{}, newError(KindInvalidArgument, "%q does not name an option", path)
	}

	return p, nil
}

// Delete removes the addressed option, section or every section of a package.
func (c *Context) Delete(path ...string) error {
	ptr, err := c.Lookup(path...)
	if err != nil {
		return err
	}

	if !ptr.Complete {
		return notFound(ptr.Path)
	}

	switch ptr.Target() {
	case ElementOption:
		return c.stage(ptr.pkg, Change{
			Op: OpDelete, Package: ptr.Package, Section: ptr.sec.name, Option: ptr.opt.name, Old: ptr.opt.value,
		})
	case ElementSection:
		return c.stage(ptr.pkg, Change{Op: OpDelete, Package: ptr.Package, Section: ptr.sec.name})
	default:
		// Snapshot first: staging each delete shrinks the section list.
		for _, sec := range ptr.pkg.Sections() {
			if err := c.stage(ptr.pkg, Change{Op: OpDelete, Package: ptr.Package, Section: sec.name}); err != nil {
				return err
			}
		}

		return nil
	}
}

// Rename gives the addressed section or option a new name.
func (c *Context) Rename(path, newName string) error {
	p, err := ParsePath(path)
	if err != nil {
		return err
	}

	if newName == "" {
		return newError(KindInternal, "no new name supplied for %q", path)
	}

	if p.Section == "" {
		return newError(KindInvalidArgument, "packages cannot be renamed")
	}

	if !validName(newName) {
		return newError(KindInvalidArgument, "invalid name %q", newName)
	}

	ptr, err := c.resolve(p, false)
	if err != nil {
		return err
	}

	if p.Option != "" && ptr.sec == nil {
		return newError(KindInternal, "option rename in %q has no resolved section", path)
	}

	if !ptr.Complete {
		return notFound(p)
	}

	change := Change{Op: OpRename, Package: p.Package, Section: ptr.sec.name, Value: newName}
	if ptr.opt != nil {
		change.Option = ptr.opt.name
		change.Old = ptr.opt.value
	}

	return c.stage(ptr.pkg, change)
}

// Reorder moves a section to pos within its package. Positions outside
// [0, len-1] are clamped.
func (c *Context) Reorder(path string, pos int) error {
	p, err := ParsePath(path)
	if err != nil {
		return err
	}

	if p.Section == "" || p.Option != "" {
		return newError(KindInvalidArgument, "%q does not name a section", path)
	}

	ptr, err := c.resolve(p, false)
	if err != nil {
		return err
	}

	if ptr.sec == nil {
		return newError(KindInternal, "section %q is not resolved", path)
	}

	pos = max(0, min(pos, len(ptr.pkg.sections)-1))

	return c.stage(ptr.pkg, Change{Op: OpReorder, Package: p.Package, Section: ptr.sec.name, Value: strconv.Itoa(pos)})
}

// Add appends a new anonymous section of typ to pkg and returns its position.
// Named sections are created through Set.
func (c *Context) Add(pkg, typ string) (int, error) {
	if !validPackageName(pkg) {
		return 0, newError(KindInvalidArgument, "invalid package name %q", pkg)
	}

	if !validTypeName(typ) {
		return 0, newError(KindInvalidArgument, "invalid section type %q", typ)
	}

	p, err := c.pkgFor(pkg, true)
	if err != nil {
		return 0, err
	}

	id := p.nextAnonymousID(typ)
	if err := c.stage(p, Change{Op: OpAdd, Package: pkg, Section: id, Value: typ}); err != nil {
		return 0, err
	}

	return len(p.sections) - 1, nil
}

// Load makes sure a package is in memory, replaying its saved delta.
func (c *Context) Load(pkg string) error {
	_, err := c.Package(pkg)

	return err
}

// Unload drops a package from memory together with any unsaved changes.
func (c *Context) Unload(pkg string) error {
	if err := c.check(); err != nil {
		return err
	}

	p, ok := c.packages[pkg]
	if !ok {
		return &Error{Kind: KindNotFound, Message: "package is not loaded", Package: pkg}
	}

	if p.tainted() {
		c.logger.Warn("unloading package with pending changes",
			slog.String("package", pkg), slog.Int("changes", len(p.delta)))
	}

	delete(c.packages, pkg)

	return nil
}

// Changes returns the pending changes of the named packages, or of every loaded package.
func (c *Context) Changes(pkgs ...string) ([]Change, error) {
	if err := c.check(); err != nil {
		return nil, err
	}

	if len(pkgs) == 0 {
		pkgs = c.Packages()
	}

	var changes []Change

	for _, name := range pkgs {
		p, err := c.Package(name)
		if err != nil {
			return nil, err
		}

		changes = append(changes, p.delta...)
	}

	return changes, nil
}

// ListConfigs returns the sorted names of the config files in confdir.
func (c *Context) ListConfigs() ([]string, error) {
	if err := c.check(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(c.confdir)
	if err != nil {
		return nil, &Error{Kind: KindStorage, Message: "listing " + strconv.Quote(c.confdir), Err: err}
	}

	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") || !validPackageName(entry.Name()) {
			continue
		}

		names = append(names, entry.Name())
	}

	slices.Sort(names)

	return names, nil
}

// Close commits every package with pending changes, then releases the loaded
// packages. Using the Context afterwards fails; closing twice is a no-op.
func (c *Context) Close() error {
	if c.closed {
		return nil
	}

	var err error

	if c.Tainted() {
		c.logger.Info("committing pending changes before close")

		err = c.Commit()
	}

	c.packages = nil
	c.closed = true

	return err
}

func (c *Context) check() error {
	if c.closed {
		return newError(KindInternal, "context is closed")
	}

	return nil
}

// stage applies a change to the tree and records it in the package delta.
func (c *Context) stage(pkg *Package, change Change) error {
	if err := pkg.apply(change); err != nil {
		return err
	}

	pkg.delta = append(pkg.delta, change)

	if _, ok := c.packages[pkg.name]; !ok {
		c.packages[pkg.name] = pkg
	}

	return nil
}

func checkValue(v Value) error {
	for _, s := range v.Strings() {
		if strings.ContainsAny(s, "\n\r") {
			return newError(KindInvalidArgument, "values must not contain line breaks")
		}
	}

	return nil
}

func (c *Context) resolve(p Path, create bool) (Pointer, error) {
	pkg, err := c.pkgFor(p.Package, create)
	if err != nil {
		return Pointer{}, err
	}

	ptr := Pointer{Path: p, pkg: pkg}
	if p.Section == "" {
		ptr.Complete = true

		return ptr, nil
	}

	sel, err := parseSelector(p.Section)
	if err != nil {
		return Pointer{}, err
	}

	ptr.sec = pkg.find(sel)
	if ptr.sec == nil {
		return ptr, nil
	}

	if p.Option == "" {
		ptr.Complete = true

		return ptr, nil
	}

	ptr.opt = ptr.sec.Option(p.Option)
	ptr.Complete = ptr.opt != nil

	return ptr, nil
}

// pkgFor returns a loaded package, loading it on first use. With create, a
// package without a file starts out empty instead of failing with not_found;
// it is only registered once a change is staged on it.
func (c *Context) pkgFor(name string, create bool) (*Package, error) {
	if err := c.check(); err != nil {
		return nil, err
	}

	if pkg, ok := c.packages[name]; ok {
		return pkg, nil
	}

	pkg, exists, err := c.readPackage(name, true)
	if err != nil {
		return nil, err
	}

	if !exists && !pkg.tainted() && !create {
		return nil, &Error{Kind: KindNotFound, Message: "no config file", Package: name}
	}

	if !exists && !pkg.tainted() {
		c.logger.Debug("starting empty package", slog.String("package", name))

		return pkg, nil
	}

	c.packages[name] = pkg

	return pkg, nil
}

// readPackage parses the config file of name, if any, and optionally replays
// its saved delta. exists reports whether the config file was present.
func (c *Context) readPackage(name string, withSaved bool) (*Package, bool, error) {
	path, err := c.confPath(name)
	if err != nil {
		return nil, false, err
	}

	pkg := newPackage(name, path)
	exists := true

	file, err := os.Open(path) // #nosec G304 -- path is confined to confdir
	switch {
	case errors.Is(err, fs.ErrNotExist):
		exists = false
	case err != nil:
		return nil, false, storageError(name, "opening config file", err)
	default:
		pkg, err = parsePackage(name, path, file)
		_ = file.Close()

		if err != nil {
			return nil, false, storageError(name, "parsing config file", err)
		}

		c.logger.Debug("package loaded", slog.String("package", name), slog.String("path", path))
	}

	if withSaved {
		if err := c.replaySaved(pkg); err != nil {
			return nil, false, err
		}
	}

	return pkg, exists, nil
}

func (c *Context) replaySaved(pkg *Package) error {
	changes, err := c.readSaved(pkg.name)
	if err != nil {
		return err
	}

	c.replay(pkg, changes)

	return nil
}

// replay applies changes that still fit the tree and drops the rest.
func (c *Context) replay(pkg *Package, changes []Change) {
	for _, change := range changes {
		if err := c.stage(pkg, change); err != nil {
			c.logger.Warn("dropping change that no longer applies",
				slog.String("package", pkg.name), slog.String("change", change.String()), slog.Any("error", err))
		}
	}
}
