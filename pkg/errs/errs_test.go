package errs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregatorNoEntryPointOnlySurfacedWithoutOtherErrors(t *testing.T) {
	a := New()
	a.SetNoEntryPoint()
	assert.True(t, a.NoEntryPointFound())

	a.Add(Source{Kind: "c-object", Name: "x.c"}, Record{Message: "boom"})
	assert.False(t, a.NoEntryPointFound())
	assert.Equal(t, 1, a.TotalErrorCount())
}

func TestAggregatorClearLinkerFlags(t *testing.T) {
	a := New()
	a.SetNoEntryPoint()
	a.SetLinkerError()
	a.ClearLinkerFlags()
	assert.False(t, a.NoEntryPointFound())
}

func TestAggregatorEntriesInsertionOrder(t *testing.T) {
	a := New()
	a.Add(Source{Kind: "c-object", Name: "a.c"}, Record{Message: "first"})
	a.Add(Source{Kind: "decl", Name: "1"}, Record{Message: "second"})

	entries := a.Entries()
	assert.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Record.Message)
	assert.Equal(t, "second", entries[1].Record.Message)
}

func TestRecordErrorWithAndWithoutLoc(t *testing.T) {
	r := Record{Message: "bad"}
	assert.Equal(t, "bad", r.Error())

	r.Loc = &Loc{File: "x.c", Line: 3}
	assert.Equal(t, "x.c: bad", r.Error())
}
