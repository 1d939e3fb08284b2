package api

import (
	"bytes"

	uci "github.com/0xalexb/hjarta-uci"
)

type operation func(c *uci.Context, req *Request) (any, error)

//nolint:gochecknoglobals // fixed dispatch table.
var operations = map[string]operation{
	"get":      opGet,
	"get_all":  opGetAll,
	"set":      opSet,
	"add_list": opAddList,
	"del_list": opDelList,
	"delete":   opDelete,
	"rename":   opRename,
	"reorder":  opReorder,
	"add":      opAdd,
	"save":     opSave,
	"commit":   opCommit,
	"revert":   opRevert,
	"changes":  opChanges,
	"configs":  opConfigs,
	"load":     opLoad,
	"unload":   opUnload,
	"show":     opShow,
	"export":   opExport,
	"confdir":  opConfDir,
	"savedir":  opSaveDir,
}

func opGet(c *uci.Context, req *Request) (any, error) {
	if err := req.requirePath(); err != nil {
		return nil, err
	}

	return c.Get(req.Path...)
}

func opGetAll(c *uci.Context, req *Request) (any, error) {
	if err := req.requirePath(); err != nil {
		return nil, err
	}

	return c.GetAll(req.Path...)
}

func opSet(c *uci.Context, req *Request) (any, error) {
	switch len(req.Path) {
	case 0:
		return nil, req.requirePath()
	case 1:
		return nil, c.Set(req.Path[0], req.Value)
	case 2:
		return nil, c.SetIn(req.Path[0], req.Path[1], "", req.Value)
	default:
		return nil, c.SetIn(req.Path[0], req.Path[1], req.Path[2], req.Value)
	}
}

func opAddList(c *uci.Context, req *Request) (any, error) {
	item, err := req.item()
	if err != nil {
		return nil, err
	}

	return nil, c.AddList(req.Path.Dotted(), item)
}

func opDelList(c *uci.Context, req *Request) (any, error) {
	item, err := req.item()
	if err != nil {
		return nil, err
	}

	return nil, c.DelList(req.Path.Dotted(), item)
}

func opDelete(c *uci.Context, req *Request) (any, error) {
	if err := req.requirePath(); err != nil {
		return nil, err
	}

	return nil, c.Delete(req.Path...)
}

func opRename(c *uci.Context, req *Request) (any, error) {
	return nil, c.Rename(req.Path.Dotted(), req.Name)
}

func opReorder(c *uci.Context, req *Request) (any, error) {
	if req.Position == nil {
		return nil, &uci.Error{Kind: uci.KindInvalidArgument, Message: "position is required"}
	}

	return nil, c.Reorder(req.Path.Dotted(), *req.Position)
}

func opAdd(c *uci.Context, req *Request) (any, error) {
	pkg, err := req.packageName()
	if err != nil {
		return nil, err
	}

	return c.Add(pkg, req.Type)
}

func opSave(c *uci.Context, req *Request) (any, error) {
	return nil, c.Save(req.Path...)
}

func opCommit(c *uci.Context, req *Request) (any, error) {
	return nil, c.Commit(req.Path...)
}

func opRevert(c *uci.Context, req *Request) (any, error) {
	return nil, c.Revert(req.Path...)
}

// opChanges treats each path component as a package name.
func opChanges(c *uci.Context, req *Request) (any, error) {
	changes, err := c.Changes(req.Path...)
	if err != nil {
		return nil, err
	}

	return changesOf(changes), nil
}

func opConfigs(c *uci.Context, _ *Request) (any, error) {
	return c.ListConfigs()
}

func opLoad(c *uci.Context, req *Request) (any, error) {
	pkg, err := req.packageName()
	if err != nil {
		return nil, err
	}

	return nil, c.Load(pkg)
}

func opUnload(c *uci.Context, req *Request) (any, error) {
	pkg, err := req.packageName()
	if err != nil {
		return nil, err
	}

	return nil, c.Unload(pkg)
}

func opShow(c *uci.Context, req *Request) (any, error) {
	if len(req.Path) == 0 {
		var lines []string

		for _, pkg := range c.Packages() {
			pkgLines, err := c.Show(pkg)
			if err != nil {
				return nil, err
			}

			lines = append(lines, pkgLines...)
		}

		return lines, nil
	}

	return c.Show(req.Path...)
}

// opExport treats each path component as a package name.
func opExport(c *uci.Context, req *Request) (any, error) {
	var buf bytes.Buffer
	if err := c.Export(&buf, req.Path...); err != nil {
		return nil, err
	}

	return buf.String(), nil
}

// opConfDir returns confdir, switching it first when value holds a directory.
func opConfDir(c *uci.Context, req *Request) (any, error) {
	if dir, ok := req.Value.(string); ok && dir != "" {
		if err := c.SetConfDir(dir); err != nil {
			return nil, err
		}
	}

	return c.ConfDir(), nil
}

// opSaveDir returns savedir, switching it first when value holds a directory.
func opSaveDir(c *uci.Context, req *Request) (any, error) {
	if dir, ok := req.Value.(string); ok && dir != "" {
		if err := c.SetSaveDir(dir); err != nil {
			return nil, err
		}
	}

	return c.SaveDir(), nil
}
