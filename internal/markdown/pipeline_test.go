package markdown

import (
	"path"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdsite/internal/source"
)

// fakeStore is an in-memory source.Store for pipeline tests.
type fakeStore struct {
	files map[string]string
	mod   map[string]time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{files: map[string]string{}, mod: map[string]time.Time{}}
}

func (f *fakeStore) ReadAllText(p string) (string, error) {
	if s, ok := f.files[p]; ok {
		return s, nil
	}
	return "", &source.NotFoundError{Name: path.Base(p)}
}

func (f *fakeStore) LastModified(p string) (time.Time, error) {
	if t, ok := f.mod[p]; ok {
		return t, nil
	}
	if _, ok := f.files[p]; ok {
		return time.Time{}, nil
	}
	return time.Time{}, &source.NotFoundError{Name: path.Base(p)}
}

func (f *fakeStore) FileName(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

func (f *fakeStore) Exists(p string) bool {
	_, ok := f.files[p]
	return ok
}

func newTestPipeline(t *testing.T, opts ...Option) *Pipeline {
	t.Helper()
	p, err := NewPipeline(newFakeStore(), opts...)
	require.NoError(t, err)
	return p
}

func TestNewPipeline_NilSource_FailsLoudly(t *testing.T) {
	_, err := NewPipeline(nil)
	require.ErrorIs(t, err, ErrNoSource)
}

func TestLoad_MissingFile_ReturnsNotFound(t *testing.T) {
	fs := newFakeStore()
	p, err := NewPipeline(fs)
	require.NoError(t, err)

	_, err = p.Load("gone/missing.md")
	require.Error(t, err)
	require.True(t, source.IsNotFound(err))
}

func TestProcess_Finalize_SlugFromFileName(t *testing.T) {
	p := newTestPipeline(t)

	doc, err := p.Process("posts/My First Post.md", "hello", time.Time{})
	require.NoError(t, err)
	require.Equal(t, "my-first-post", doc.Slug)
}

func TestProcess_Finalize_TitleDefaultsToFileName(t *testing.T) {
	p := newTestPipeline(t)

	doc, err := p.Process("posts/untitled.md", "no front matter here", time.Time{})
	require.NoError(t, err)
	require.Equal(t, "untitled", doc.Title)
}

func TestProcess_Finalize_DateDefaultsToLastModified(t *testing.T) {
	p := newTestPipeline(t)
	mod := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)

	doc, err := p.Process("a.md", "body", mod)
	require.NoError(t, err)
	require.NotNil(t, doc.Date)
	require.Equal(t, mod, *doc.Date)
}

func TestProcess_Finalize_FrontMatterDateWinsOverModTime(t *testing.T) {
	p := newTestPipeline(t)
	mod := time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)

	doc, err := p.Process("a.md", "---\ndate: 2020-01-01\n---\nbody", mod)
	require.NoError(t, err)
	require.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), *doc.Date)
}

func TestProcess_Finalize_WordAndLineCounts(t *testing.T) {
	p := newTestPipeline(t)

	doc, err := p.Process("a.md", "one two.three?four(five)[six]", time.Time{})
	require.NoError(t, err)
	require.Equal(t, 6, doc.WordCount)
	require.Equal(t, 0, doc.LineCount)

	doc2, err := p.Process("b.md", "a\nb\nc\n", time.Time{})
	require.NoError(t, err)
	require.Equal(t, 3, doc2.LineCount)
}

func TestProcess_ZeroModTime_LeavesDateNil(t *testing.T) {
	p := newTestPipeline(t)

	doc, err := p.Process("a.md", "body", time.Time{})
	require.NoError(t, err)
	require.Nil(t, doc.Date)
}

func TestProcess_AttachesDocumentMap(t *testing.T) {
	p := newTestPipeline(t)

	doc, err := p.Process("a.md", "plain text, no headings", time.Time{})
	require.NoError(t, err)
	require.NotNil(t, doc.Map)
	require.Empty(t, doc.Map.Headings)
}
