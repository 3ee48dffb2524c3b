// AngelaMos | 2026
// filter.go

package core

import (
	"strconv"
	"strings"
)

// Filter collects AND-ed SQL conditions. Each "?" in a condition is bound to
// the argument passed with it.
type Filter struct {
	conds []string
	args  []any
}

func (f *Filter) Add(cond string, arg any) {
	f.args = append(f.args, arg)
	f.conds = append(f.conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(f.args))))
}

// AddIf adds cond only when arg is not empty.
func (f *Filter) AddIf(cond, arg string) {
	if arg != "" {
		f.Add(cond, arg)
	}
}

func (f *Filter) Where() string {
	if len(f.conds) == 0 {
		return "TRUE"
	}
	return strings.Join(f.conds, " AND ")
}

func (f *Filter) Args() []any {
	return f.args
}

// Page returns LIMIT/OFFSET placeholders after the filter arguments and the
// argument list including them.
func (f *Filter) Page(p PageParams) (string, []any) {
	n := len(f.args)
	clause := "LIMIT $" + strconv.Itoa(n+1) + " OFFSET $" + strconv.Itoa(n+2)
	args := append(append([]any{}, f.args...), p.PageSize, p.Offset())
	return clause, args
}
