package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueueFIFOOrder(t *testing.T) {
	q := New()
	q.Push(Job{Kind: CObject, SlotIndex: 0})
	q.Push(Job{Kind: CObject, SlotIndex: 1})
	q.Push(Job{Kind: GenerateBuiltinSource})

	assert.Equal(t, 3, q.Len())

	j1, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, CObject, j1.Kind)
	assert.Equal(t, 0, j1.SlotIndex)

	j2, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, 1, j2.SlotIndex)

	j3, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, GenerateBuiltinSource, j3.Kind)

	_, ok = q.Pop()
	assert.False(t, ok)
	assert.Equal(t, 0, q.Len())
}

func TestQueuePushDuringDrainIsVisible(t *testing.T) {
	q := New()
	q.Push(Job{Kind: LegacyBackend})

	var seen []Kind
	for {
		j, ok := q.Pop()
		if !ok {
			break
		}
		seen = append(seen, j.Kind)
		if j.Kind == LegacyBackend {
			q.Push(Job{Kind: WindowsImportLib, SysLibIndex: 0})
		}
	}

	assert.Equal(t, []Kind{LegacyBackend, WindowsImportLib}, seen)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "CObject", CObject.String())
	assert.Equal(t, "Unknown", Kind(999).String())
}
