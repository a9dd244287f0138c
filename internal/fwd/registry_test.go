package fwd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jward/treemerge/internal/ident"
	"github.com/jward/treemerge/internal/metadata"
)

func TestRegisterInterop_RemapsIntoMainPackage(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	n := r.RegisterInterop(&metadata.InteropAttributes{
		MainPackage:               "platform.posix",
		ExportForwardDeclarations: []string{"cnames.FILE"},
	})

	assert.Equal(t, 1, n)
	want := ident.NewEntityID(ident.ParsePackage("platform.posix"), "FILE")
	assert.True(t, r.Contains(want))
	assert.Equal(t, "platform.posix.FILE", want.FQName())
	assert.False(t, r.Contains(ident.NewEntityID(ident.ParsePackage("cnames"), "FILE")),
		"the synthetic package must not be recorded")
}

func TestRegisterInterop_SkipsEmptyInput(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	assert.Zero(t, r.RegisterInterop(nil))
	assert.Zero(t, r.RegisterInterop(&metadata.InteropAttributes{MainPackage: "p"}))
	assert.Zero(t, r.RegisterInterop(&metadata.InteropAttributes{
		MainPackage:               "p",
		ExportForwardDeclarations: []string{"", "cnames.structs."},
	}))
	assert.Zero(t, r.Len())
}

func TestRegister_Deduplicates(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	attrs := &metadata.InteropAttributes{
		MainPackage:               "platform.darwin",
		ExportForwardDeclarations: []string{"objcnames.classes.NSObject", "objcnames.protocols.NSCopying", "cnames.structs.NSObject"},
	}

	assert.Equal(t, 2, r.RegisterInterop(attrs))
	assert.Zero(t, r.RegisterInterop(attrs))
	assert.False(t, r.Register(ident.EntityID{}))

	var got []string
	for _, id := range r.All() {
		got = append(got, id.String())
	}
	assert.Equal(t, []string{"platform/darwin/NSCopying", "platform/darwin/NSObject"}, got)
}
