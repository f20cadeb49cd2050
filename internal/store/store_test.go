package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hmi-config/internal/condition"
	"hmi-config/pkg/geometry"
)

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	return Open(filepath.Join(dir, "templates.json")), dir
}

// writeImage creates a small file standing in for a screenshot. The store
// only copies template images, it never decodes them.
func writeImage(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("not-a-real-raster"), 0o644))
	return path
}

func box(x1, y1, x2, y2 float64) geometry.Box {
	return geometry.NewBox(x1, y1, x2, y2)
}

func TestOpenMissingFileYieldsEmptyDocument(t *testing.T) {
	s, _ := testStore(t)
	doc := s.Snapshot()
	assert.Empty(t, doc.Images)
}

func TestOpenMalformedFileYieldsEmptyDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "templates.json")
	require.NoError(t, os.WriteFile(path, []byte("{nonsense"), 0o644))

	s := Open(path)
	assert.Empty(t, s.Snapshot().Images)
}

func TestAddTemplateCopiesImageAndPersists(t *testing.T) {
	s, dir := testStore(t)
	src := writeImage(t, dir, "shot.png")

	id, err := s.AddTemplate(src, geometry.Size{Width: 800, Height: 600})
	require.NoError(t, err)
	assert.Equal(t, TemplateID(1), id)

	tpl, err := s.Template(id)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "template_1.png"), tpl.Path)
	assert.FileExists(t, tpl.Path)
	assert.Equal(t, geometry.Size{Width: 800, Height: 600}, tpl.Size)

	// The document was written through to disk.
	reopened := Open(s.Path())
	assert.Len(t, reopened.Snapshot().Images, 1)
}

func TestTemplateIDsAreMonotonic(t *testing.T) {
	s, dir := testStore(t)
	src := writeImage(t, dir, "shot.png")

	for i := 0; i < 3; i++ {
		_, err := s.AddTemplate(src, geometry.Size{Width: 10, Height: 10})
		require.NoError(t, err)
	}
	require.NoError(t, s.RemoveTemplate(2))

	id, err := s.AddTemplate(src, geometry.Size{Width: 10, Height: 10})
	require.NoError(t, err)
	assert.Equal(t, TemplateID(4), id, "freed template IDs are not reused")
}

func TestItemIDAllocationSkipsGaps(t *testing.T) {
	s, dir := testStore(t)
	src := writeImage(t, dir, "shot.png")
	tid, err := s.AddTemplate(src, geometry.Size{Width: 10, Height: 10})
	require.NoError(t, err)

	// Seed items with IDs {1, 3, 7} directly.
	s.mu.Lock()
	tpl := s.doc.Images[tid]
	tpl.Parameters[1] = Item{Name: "a", Position: box(0, 0, 1, 1)}
	tpl.Parameters[3] = Item{Name: "b", Position: box(1, 1, 2, 2)}
	tpl.Parameters[7] = Item{Name: "c", Position: box(2, 2, 3, 3)}
	s.mu.Unlock()

	id, err := s.AddItem(tid, Parameters, "d", box(3, 3, 4, 4))
	require.NoError(t, err)
	assert.Equal(t, ItemID(8), id)
}

func TestAddItemRejectsDuplicates(t *testing.T) {
	s, dir := testStore(t)
	src := writeImage(t, dir, "shot.png")
	tid, err := s.AddTemplate(src, geometry.Size{Width: 10, Height: 10})
	require.NoError(t, err)

	pos := box(10, 10, 50, 30)
	_, err = s.AddItem(tid, Parameters, "speed", pos)
	require.NoError(t, err)

	_, err = s.AddItem(tid, Parameters, "speed", pos)
	assert.ErrorIs(t, err, ErrDuplicateItem)

	// Names are unique per category even at a different position.
	_, err = s.AddItem(tid, Parameters, "speed", box(10, 40, 50, 60))
	assert.ErrorIs(t, err, ErrDuplicateName)

	// The other category is a separate namespace.
	_, err = s.AddItem(tid, Features, "speed", pos)
	assert.NoError(t, err)
}

func TestRemoveLastFeatureCascadesTemplateDelete(t *testing.T) {
	s, dir := testStore(t)
	src := writeImage(t, dir, "shot.png")
	tid, err := s.AddTemplate(src, geometry.Size{Width: 10, Height: 10})
	require.NoError(t, err)
	tpl, err := s.Template(tid)
	require.NoError(t, err)

	fid, err := s.AddItem(tid, Features, "logo", box(0, 0, 5, 5))
	require.NoError(t, err)
	_, err = s.AddItem(tid, Parameters, "speed", box(1, 1, 2, 2))
	require.NoError(t, err)

	require.NoError(t, s.RemoveItem(tid, Features, fid))

	_, err = s.Template(tid)
	assert.ErrorIs(t, err, ErrTemplateNotFound)
	assert.NoFileExists(t, tpl.Path, "template image removed with the template")
}

func TestRemoveParameterDoesNotCascade(t *testing.T) {
	s, dir := testStore(t)
	src := writeImage(t, dir, "shot.png")
	tid, err := s.AddTemplate(src, geometry.Size{Width: 10, Height: 10})
	require.NoError(t, err)

	pid, err := s.AddItem(tid, Parameters, "speed", box(1, 1, 2, 2))
	require.NoError(t, err)
	require.NoError(t, s.RemoveItem(tid, Parameters, pid))

	_, err = s.Template(tid)
	assert.NoError(t, err)
}

func TestRemoveItemByValue(t *testing.T) {
	s, dir := testStore(t)
	src := writeImage(t, dir, "shot.png")
	tid, err := s.AddTemplate(src, geometry.Size{Width: 10, Height: 10})
	require.NoError(t, err)

	pos := box(1, 1, 2, 2)
	_, err = s.AddItem(tid, Parameters, "speed", pos)
	require.NoError(t, err)

	require.NoError(t, s.RemoveItemByValue(tid, Parameters, "speed", pos))
	err = s.RemoveItemByValue(tid, Parameters, "speed", pos)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestHasChanged(t *testing.T) {
	s, dir := testStore(t)
	src := writeImage(t, dir, "shot.png")

	// Mutating operations save, so the handle matches disk afterwards.
	tid, err := s.AddTemplate(src, geometry.Size{Width: 10, Height: 10})
	require.NoError(t, err)
	assert.False(t, s.HasChanged())

	// In-memory edit without save.
	s.mu.Lock()
	s.doc.Images[tid].Parameters[1] = Item{Name: "x", Position: box(0, 0, 1, 1)}
	s.mu.Unlock()
	assert.True(t, s.HasChanged())

	require.NoError(t, s.Save())
	assert.False(t, s.HasChanged())

	// External deletion of the file counts as changed.
	require.NoError(t, os.Remove(s.Path()))
	assert.True(t, s.HasChanged())
}

func TestSetStatusRulesPersists(t *testing.T) {
	s, dir := testStore(t)
	src := writeImage(t, dir, "shot.png")
	tid, err := s.AddTemplate(src, geometry.Size{Width: 10, Height: 10})
	require.NoError(t, err)

	rules := []condition.StatusRule{
		{Status: "RUNNING", Conditions: &condition.Node{Operands: []*condition.Node{
			{Parameter: "speed", Comparison: condition.OpGreater, Value: "0"},
		}}},
	}
	require.NoError(t, s.SetStatusRules(tid, rules))

	reopened := Open(s.Path())
	tpl, err := reopened.Template(tid)
	require.NoError(t, err)
	require.Len(t, tpl.StatusRules, 1)
	assert.Equal(t, "RUNNING", tpl.StatusRules[0].Status)
	assert.True(t, rules[0].Conditions.Equal(tpl.StatusRules[0].Conditions))
}

func TestDocumentJSONUsesStringKeys(t *testing.T) {
	s, dir := testStore(t)
	src := writeImage(t, dir, "shot.png")
	tid, err := s.AddTemplate(src, geometry.Size{Width: 10, Height: 10})
	require.NoError(t, err)
	_, err = s.AddItem(tid, Features, "logo", box(0, 0, 5, 5))
	require.NoError(t, err)

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	var raw struct {
		Images map[string]struct {
			Features map[string]json.RawMessage `json:"features"`
		} `json:"images"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Contains(t, raw.Images, "1")
	assert.Contains(t, raw.Images["1"].Features, "1")
}

func TestSnapshotIsDetached(t *testing.T) {
	s, dir := testStore(t)
	src := writeImage(t, dir, "shot.png")
	tid, err := s.AddTemplate(src, geometry.Size{Width: 10, Height: 10})
	require.NoError(t, err)

	snap := s.Snapshot()
	snap.Images[tid].Parameters[99] = Item{Name: "rogue"}

	tpl, err := s.Template(tid)
	require.NoError(t, err)
	assert.NotContains(t, tpl.Parameters, ItemID(99))
}

func TestParameterNamesInIDOrder(t *testing.T) {
	tpl := &Template{Parameters: map[ItemID]Item{
		3: {Name: "temp"},
		1: {Name: "speed"},
		2: {Name: "mode"},
	}}
	assert.Equal(t, []string{"speed", "mode", "temp"}, tpl.ParameterNames())
}

func TestNonASCIINamesSurviveRoundTrip(t *testing.T) {
	s, dir := testStore(t)
	src := writeImage(t, dir, "shot.png")
	tid, err := s.AddTemplate(src, geometry.Size{Width: 10, Height: 10})
	require.NoError(t, err)

	_, err = s.AddItem(tid, Parameters, "STÖRUNG", box(1, 1, 2, 2))
	require.NoError(t, err)
	require.NoError(t, s.SetStatusRules(tid, []condition.StatusRule{{
		Status:     "GESTÖRT",
		Conditions: condition.Group(condition.Leaf("STÖRUNG", condition.OpEqual, "1")),
	}}))

	// The document keeps umlauts as raw UTF-8, not \u escapes.
	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "STÖRUNG")
	assert.Contains(t, string(data), "GESTÖRT")
	assert.NotContains(t, string(data), `Ö`)
	assert.NotContains(t, string(data), `Ö`)

	reopened := Open(s.Path())
	tpl, err := reopened.Template(tid)
	require.NoError(t, err)
	assert.Equal(t, []string{"STÖRUNG"}, tpl.ParameterNames())
	require.Len(t, tpl.StatusRules, 1)
	assert.Equal(t, "GESTÖRT", tpl.StatusRules[0].Status)
}

// blockSaves replaces the document file with a directory so the next write
// fails.
func blockSaves(t *testing.T, s *Store) {
	t.Helper()
	require.NoError(t, os.Remove(s.Path()))
	require.NoError(t, os.Mkdir(s.Path(), 0o755))
}

func TestRemoveItemRollsBackOnSaveFailure(t *testing.T) {
	s, dir := testStore(t)
	src := writeImage(t, dir, "shot.png")
	tid, err := s.AddTemplate(src, geometry.Size{Width: 10, Height: 10})
	require.NoError(t, err)
	fid, err := s.AddItem(tid, Features, "logo", box(0, 0, 5, 5))
	require.NoError(t, err)
	tpl, err := s.Template(tid)
	require.NoError(t, err)

	blockSaves(t, s)

	// The cascade path: removing the last feature would drop the template.
	require.Error(t, s.RemoveItem(tid, Features, fid))

	got, err := s.Template(tid)
	require.NoError(t, err)
	assert.Contains(t, got.Features, fid)
	assert.FileExists(t, tpl.Path, "image file survives a failed save")
}

func TestRemoveTemplateRollsBackOnSaveFailure(t *testing.T) {
	s, dir := testStore(t)
	src := writeImage(t, dir, "shot.png")
	tid, err := s.AddTemplate(src, geometry.Size{Width: 10, Height: 10})
	require.NoError(t, err)
	tpl, err := s.Template(tid)
	require.NoError(t, err)

	blockSaves(t, s)

	require.Error(t, s.RemoveTemplate(tid))

	_, err = s.Template(tid)
	assert.NoError(t, err)
	assert.FileExists(t, tpl.Path)
}

func TestRemoveItemByValueRollsBackOnSaveFailure(t *testing.T) {
	s, dir := testStore(t)
	src := writeImage(t, dir, "shot.png")
	tid, err := s.AddTemplate(src, geometry.Size{Width: 10, Height: 10})
	require.NoError(t, err)
	pos := box(0, 0, 5, 5)
	_, err = s.AddItem(tid, Parameters, "speed", pos)
	require.NoError(t, err)

	blockSaves(t, s)

	require.Error(t, s.RemoveItemByValue(tid, Parameters, "speed", pos))

	got, err := s.Template(tid)
	require.NoError(t, err)
	assert.Len(t, got.Parameters, 1)
}
