package uci

import (
	"slices"
	"strconv"
)

// apply performs one change on the tree. It is shared by live edits and by
// replaying a saved delta, so both produce the same tree.
func (p *Package) apply(change Change) error {
	if change.Op == OpAdd {
		if p.Section(change.Section) != nil {
			return newError(KindInvalidArgument, "section %q already exists", change.Section)
		}

		p.addSection(change.Value, change.Section, true)

		return nil
	}

	sec := p.Section(change.Section)

	if change.Op == OpSet && change.Option == "" {
		if sec == nil {
			p.addSection(change.Value, change.Section, false)
		} else {
			sec.typ = change.Value
		}

		return nil
	}

	if sec == nil {
		return &Error{Kind: KindNotFound, Message: "section " + strconv.Quote(change.Section) + " not found", Package: p.name}
	}

	if change.Option == "" {
		return p.applySection(sec, change)
	}

	return p.applyOption(sec, change)
}

func (p *Package) applySection(sec *Section, change Change) error {
	switch change.Op {
	case OpDelete:
		p.removeSection(sec)
	case OpRename:
		if other := p.Section(change.Value); other != nil && other != sec {
			return newError(KindInvalidArgument, "section %q already exists", change.Value)
		}

		sec.name = change.Value
		sec.anonymous = false
	case OpReorder:
		pos, err := strconv.Atoi(change.Value)
		if err != nil {
			return newError(KindInvalidArgument, "invalid position %q", change.Value)
		}

		p.moveSection(sec, pos)
	default:
		return newError(KindInvalidArgument, "%s needs an option", change.Op)
	}

	return nil
}

func (p *Package) applyOption(sec *Section, change Change) error {
	opt := sec.Option(change.Option)

	switch change.Op {
	case OpSet:
		sec.setOption(change.Option, Scalar(change.Value))
	case OpListAdd:
		appendListItem(sec, change.Option, change.Value)
	case OpDelete, OpRename, OpListDel:
		if opt == nil {
			return &Error{
				Kind:    KindNotFound,
				Message: "option " + strconv.Quote(change.Section+"."+change.Option) + " not found",
				Package: p.name,
			}
		}

		return p.applyExistingOption(sec, opt, change)
	default:
		return newError(KindInvalidArgument, "%s does not apply to options", change.Op)
	}

	return nil
}

func (p *Package) applyExistingOption(sec *Section, opt *Option, change Change) error {
	switch change.Op {
	case OpDelete:
		sec.removeOption(opt.name)
	case OpRename:
		if other := sec.Option(change.Value); other != nil && other != opt {
			return newError(KindInvalidArgument, "option %q already exists", change.Value)
		}

		opt.name = change.Value
	case OpListDel:
		items := slices.DeleteFunc(opt.value.Strings(), func(item string) bool {
			return item == change.Value
		})

		switch {
		case len(items) == opt.value.Len():
		case len(items) == 0:
			sec.removeOption(opt.name)
		default:
			opt.value = List(items...)
		}
	}

	return nil
}
