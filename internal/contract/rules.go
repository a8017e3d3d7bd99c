package contract

import (
	"slices"
	"strings"

	"wscheck/internal/ast"
	"wscheck/internal/types"
)

// Arg is a classified parameter as seen by a parameter rule.
type Arg struct {
	Category types.Category
	Optional bool
}

// ParamRule describes the accepted parameter lists of a handler.
type ParamRule struct {
	// Lists are accepted exactly as given, slot by slot.
	Lists [][]types.Set
	// Subsequence, when set, accepts any ordered subsequence of its slots.
	Subsequence []types.Set
	// Mandatory categories must not be declared with a default value.
	Mandatory types.Set
}

// Check returns ViolationNone when args match one accepted list. Otherwise a
// list of zero or one argument is a ViolationParam and anything longer is a
// ViolationParams.
func (r ParamRule) Check(args []Arg) Violation {
	if r.accepts(args) {
		return ViolationNone
	}
	if len(args) <= 1 {
		return ViolationParam
	}
	return ViolationParams
}

func (r ParamRule) accepts(args []Arg) bool {
	for _, a := range args {
		if a.Optional && r.Mandatory.Has(a.Category) {
			return false
		}
	}
	for _, list := range r.Lists {
		if matchList(list, args) {
			return true
		}
	}
	if len(r.Subsequence) > 0 {
		return matchSubsequence(r.Subsequence, args)
	}
	return false
}

func matchList(list []types.Set, args []Arg) bool {
	if len(list) != len(args) {
		return false
	}
	for i, slot := range list {
		if !slot.Has(args[i].Category) {
			return false
		}
	}
	return true
}

func matchSubsequence(slots []types.Set, args []Arg) bool {
	i := 0
	for _, a := range args {
		for i < len(slots) && !slots[i].Has(a.Category) {
			i++
		}
		if i == len(slots) {
			return false
		}
		i++
	}
	return true
}

// Describe renders the accepted lists, e.g. "[]", "[caller]".
func (r ParamRule) Describe() []string {
	var out []string
	for _, list := range r.Lists {
		out = append(out, describeList(list))
	}
	if len(r.Subsequence) > 0 {
		out = append(out, "any ordered subset of "+describeList(r.Subsequence))
	}
	return out
}

func describeList(list []types.Set) string {
	parts := make([]string, 0, len(list))
	for _, slot := range list {
		names := make([]string, 0, 2)
		for _, c := range slot.Slice() {
			names = append(names, c.String())
		}
		parts = append(parts, strings.Join(names, "|"))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ReturnRule describes the accepted return shapes of a handler.
type ReturnRule struct {
	Name string
	// Accept lists categories accepted as they are.
	Accept types.Set
	// Composite lists composite categories accepted when every value they
	// carry is in Values.
	Composite types.Set
	Values    types.Set
}

// Accepts reports whether a return of category cat carrying values is fine.
// A missing return type is passed in as types.Unit.
func (r ReturnRule) Accepts(cat types.Category, values []types.Category) bool {
	if cat == types.Unknown {
		return false
	}
	if r.Accept.Has(cat) {
		return true
	}
	if !r.Composite.Has(cat) || len(values) == 0 {
		return false
	}
	return !slices.ContainsFunc(values, func(v types.Category) bool { return !r.Values.Has(v) })
}

func (r ReturnRule) Describe() string {
	cats := append(r.Accept.Slice(), r.Composite.Slice()...)
	names := make([]string, 0, len(cats))
	for _, c := range cats {
		names = append(names, c.String())
	}
	s := r.Name + ": " + strings.Join(names, ", ")
	if !r.Values.Empty() {
		s += " (values " + r.Values.String() + ")"
	}
	return s
}

// Contract is the signature contract of one event kind.
type Contract struct {
	Kind      EventKind
	Qualifier ast.Qualifier
	// Method is the required resource accessor; upgrade only.
	Method string
	Params ParamRule
	Return ReturnRule
}

var (
	caller  = types.SetOf(types.Caller)
	text    = types.SetOf(types.Text)
	binary  = types.SetOf(types.Binary)
	anyErr  = types.SetOf(types.SpecificError, types.GenericError, types.DomainErrorUnion)
	timeout = types.SetOf(types.TimeoutEvent)

	lifecycle = ReturnRule{
		Name:   "lifecycle",
		Accept: types.SetOf(types.Unit, types.ErrorOrUnit),
	}
	data = ReturnRule{
		Name:      "data",
		Accept:    types.SetOf(types.Unit, types.ErrorOrUnit, types.Text, types.Binary),
		Composite: types.SetOf(types.DomainValue, types.DomainErrorUnion),
		Values:    types.SetOf(types.Text, types.Binary),
	}
	upgrade = ReturnRule{
		Name:      "upgrade",
		Accept:    types.SetOf(types.Unit, types.Service, types.ErrorOrUnit, types.SpecificError, types.GenericError),
		Composite: types.SetOf(types.DomainValue, types.DomainErrorUnion),
		Values:    types.SetOf(types.Service),
	}
)

var contracts = [eventCount]Contract{
	EventUpgrade: {
		Kind:      EventUpgrade,
		Qualifier: ast.QualResource,
		Method:    "get",
		Params: ParamRule{Lists: [][]types.Set{
			{},
			{types.SetOf(types.Request, types.HTTPCaller, types.Caller)},
		}},
		Return: upgrade,
	},
	EventOpen: {
		Kind:      EventOpen,
		Qualifier: ast.QualRemote,
		Params:    ParamRule{Lists: [][]types.Set{{}, {caller}}},
		Return:    lifecycle,
	},
	EventClose: {
		Kind:      EventClose,
		Qualifier: ast.QualRemote,
		Params: ParamRule{Subsequence: []types.Set{
			caller, types.SetOf(types.Int), text,
		}},
		Return: lifecycle,
	},
	EventError: {
		Kind:      EventError,
		Qualifier: ast.QualRemote,
		Params:    ParamRule{Lists: [][]types.Set{{anyErr}, {caller, anyErr}}},
		Return:    lifecycle,
	},
	EventIdleTimeout: {
		Kind:      EventIdleTimeout,
		Qualifier: ast.QualRemote,
		Params:    ParamRule{Lists: [][]types.Set{{}, {caller}, {timeout}}},
		Return:    lifecycle,
	},
	EventText: {
		Kind:      EventText,
		Qualifier: ast.QualRemote,
		Params: ParamRule{
			Lists:     [][]types.Set{{text}, {caller, text}},
			Mandatory: text,
		},
		Return: data,
	},
	EventBinary: {
		Kind:      EventBinary,
		Qualifier: ast.QualRemote,
		Params: ParamRule{
			Lists:     [][]types.Set{{binary}, {caller, binary}},
			Mandatory: binary,
		},
		Return: data,
	},
	EventPing: {
		Kind:      EventPing,
		Qualifier: ast.QualRemote,
		Params:    ParamRule{Lists: [][]types.Set{{binary}, {caller, binary}}},
		Return:    lifecycle,
	},
	EventPong: {
		Kind:      EventPong,
		Qualifier: ast.QualRemote,
		Params:    ParamRule{Lists: [][]types.Set{{binary}, {caller, binary}}},
		Return:    lifecycle,
	},
}

// For returns the contract of k. The returned value is a copy.
func For(k EventKind) (Contract, bool) {
	if k >= eventCount {
		return Contract{}, false
	}
	return contracts[k], true
}

// All returns every contract in table order.
func All() []Contract {
	return slices.Clone(contracts[:])
}
