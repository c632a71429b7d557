package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInlineDependencies(t *testing.T) {
	t.Run("SingleLineList", func(t *testing.T) {
		code := `# /// script
# dependencies = ["numpy", "pandas"]
# ///
import numpy
`
		deps := ParseInlineDependencies(code)
		assert.Equal(t, []string{"numpy", "pandas"}, deps)
	})

	t.Run("MultiLineList", func(t *testing.T) {
		code := `# /// script
# dependencies = [
#   "requests",
#   'pydantic',
# ]
# ///
print("hi")
`
		deps := ParseInlineDependencies(code)
		assert.Equal(t, []string{"requests", "pydantic"}, deps)
	})

	t.Run("NoBlock", func(t *testing.T) {
		assert.Empty(t, ParseInlineDependencies("print('hi')"))
	})

	t.Run("BlockWithoutDependencies", func(t *testing.T) {
		code := `# /// script
# requires-python = ">=3.11"
# ///
`
		assert.Empty(t, ParseInlineDependencies(code))
	})

	t.Run("UnterminatedBlock", func(t *testing.T) {
		code := `# /// script
# dependencies = ["numpy"]
print("no closing marker")
`
		assert.Empty(t, ParseInlineDependencies(code))
	})

	t.Run("EmptyList", func(t *testing.T) {
		code := `# /// script
# dependencies = []
# ///
`
		assert.Empty(t, ParseInlineDependencies(code))
	})
}

func TestSplitOutputLines(t *testing.T) {
	assert.Equal(t, []string{}, splitOutputLines(""))
	assert.Equal(t, []string{"hi"}, splitOutputLines("hi\n"))
	assert.Equal(t, []string{"hi"}, splitOutputLines("hi"))
	assert.Equal(t, []string{"a", "", "b"}, splitOutputLines("a\n\nb\n"))
	assert.Equal(t, []string{"a", "partial"}, splitOutputLines("a\npartial"))
}

func TestActiveFile(t *testing.T) {
	t.Run("SingleFileImplicitlyActive", func(t *testing.T) {
		active, err := activeFile([]CodeFile{{Name: "main.py", Content: "1"}})
		require.NoError(t, err)
		assert.Equal(t, "main.py", active.Name)
	})

	t.Run("ExplicitActiveAmongSiblings", func(t *testing.T) {
		active, err := activeFile([]CodeFile{
			{Name: "helper.py", Content: "x = 1"},
			{Name: "main.py", Content: "import helper", Active: true},
		})
		require.NoError(t, err)
		assert.Equal(t, "main.py", active.Name)
	})

	t.Run("NoFiles", func(t *testing.T) {
		_, err := activeFile(nil)
		require.Error(t, err)
	})

	t.Run("MultipleActive", func(t *testing.T) {
		_, err := activeFile([]CodeFile{
			{Name: "a.py", Active: true},
			{Name: "b.py", Active: true},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "multiple active files")
	})

	t.Run("MultipleFilesNoneActive", func(t *testing.T) {
		_, err := activeFile([]CodeFile{{Name: "a.py"}, {Name: "b.py"}})
		require.Error(t, err)
	})
}
