package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtensionStore(t *testing.T) {
	var e ExtensionStore
	_, ok := e.GetValue("missing")
	assert.False(t, ok)

	e.SetValue("b", 2)
	e.SetValue("a", "x")
	e.SetValue("odd key", 1.5)
	assert.Equal(t, []string{"a", "b", "odd key"}, e.AllKeys())
	assert.Equal(t, `a=x;b=2;"odd key"=1.5;`, e.Serialization())

	e.SetValue("b", nil)
	_, ok = e.GetValue("b")
	assert.False(t, ok)
	assert.Equal(t, 2, e.Len())

	e.RemoveAllKeys()
	assert.Equal(t, 0, e.Len())
	assert.Equal(t, "", e.Serialization())
}

func TestSexString(t *testing.T) {
	assert.Equal(t, "H", Hermaphrodite.String())
	assert.Equal(t, "F", Female.String())
	assert.Equal(t, "M", Male.String())
	assert.Equal(t, "Individual<3 F>", (&Individual{index: 3, sex: Female}).String())
}
