// AngelaMos | 2026
// filter_test.go

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter(t *testing.T) {
	var f Filter
	assert.Equal(t, "TRUE", f.Where())

	f.AddIf("status = ?", "")
	f.AddIf("status = ?", "active")
	f.Add("(assigned_to = ? OR assigned_to IS NULL)", "tech-1")

	assert.Equal(t, "status = $1 AND (assigned_to = $2 OR assigned_to IS NULL)", f.Where())
	assert.Equal(t, []any{"active", "tech-1"}, f.Args())

	clause, args := f.Page(PageParams{Page: 3, PageSize: 10})
	assert.Equal(t, "LIMIT $3 OFFSET $4", clause)
	assert.Equal(t, []any{"active", "tech-1", 10, 20}, args)
	assert.Len(t, f.Args(), 2, "paging does not grow the filter")
}
