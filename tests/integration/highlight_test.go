package integration

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/anchorlight/anchorlight/internal/dom"
	"github.com/anchorlight/anchorlight/internal/engine"
	"github.com/anchorlight/anchorlight/internal/marker"
	"github.com/anchorlight/anchorlight/internal/storage"
	"github.com/anchorlight/anchorlight/pkg/types"
)

const articleURL = "https://example.com/article"

const articleHTML = `<html><body>
<article>
<h1>On Anchors</h1>
<p>The quick brown fox jumps over the lazy dog.</p>
<p>A second paragraph mentions the quick brown fox again, in passing.</p>
<p>Unrelated closing remarks about something else entirely.</p>
</article>
</body></html>`

// HighlightTestSuite exercises the full capture, persist, navigate,
// restore lifecycle across the engine and the storage collaborator.
type HighlightTestSuite struct {
	suite.Suite
	storage storage.Storage
	ctx     context.Context
}

func (s *HighlightTestSuite) SetupTest() {
	store, err := storage.NewSQLiteStorage(":memory:")
	s.Require().NoError(err)
	s.storage = store
	s.ctx = context.Background()
}

func (s *HighlightTestSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
}

// loadPage simulates a fresh navigation: a newly parsed tree with no
// markers and a fresh engine over it.
func (s *HighlightTestSuite) loadPage() *engine.Engine {
	doc, err := dom.ParseString(articleHTML, articleURL)
	s.Require().NoError(err)
	return engine.New(doc, nil)
}

func (s *HighlightTestSuite) TestCapturePersistRestore() {
	// Session one: capture a highlight and persist it.
	eng := s.loadPage()
	frag, res, err := eng.CaptureText("quick brown fox jumps")
	s.Require().NoError(err)
	s.True(res.OK())

	err = s.storage.SaveFragment(s.ctx, &types.Record{Fragment: frag, PageURL: articleURL})
	s.Require().NoError(err)

	// Session two: a fresh tree, highlights loaded from storage.
	eng = s.loadPage()
	recs, err := s.storage.ListFragmentsByPage(s.ctx, articleURL)
	s.Require().NoError(err)
	s.Require().Len(recs, 1)

	result := eng.Restore(recs[0].Fragment)
	s.True(result.OK())

	el := marker.FindByID(eng.Document(), frag.ID)
	s.Require().NotNil(el)
	s.Equal("quick brown fox jumps", marker.Text(el))

	html, err := eng.Document().HTML()
	s.Require().NoError(err)
	s.Contains(html, "<mark")
	s.Contains(html, frag.ID)
}

func (s *HighlightTestSuite) TestContextDisambiguationAcrossSessions() {
	// "quick brown fox" appears in two paragraphs. The captured context
	// must steer restoration back to the second one.
	eng := s.loadPage()
	frag := types.Fragment{
		ID:          types.NewFragmentID(),
		Text:        "quick brown fox",
		ContextText: "mentions the quick brown fox again, in passing",
	}
	err := s.storage.SaveFragment(s.ctx, &types.Record{Fragment: frag, PageURL: articleURL})
	s.Require().NoError(err)

	recs, err := s.storage.ListFragmentsByPage(s.ctx, articleURL)
	s.Require().NoError(err)
	result := eng.Restore(recs[0].Fragment)
	s.Require().True(result.OK())

	el := marker.FindByID(eng.Document(), frag.ID)
	s.Require().NotNil(el)
	s.Contains(dom.Text(el.Parent), "second paragraph")
}

func (s *HighlightTestSuite) TestRestoreAllRendersEveryHighlight() {
	eng := s.loadPage()
	texts := []string{"quick brown fox jumps", "closing remarks", "lazy dog"}
	for _, text := range texts {
		frag, res, err := eng.CaptureText(text)
		s.Require().NoError(err)
		s.Require().True(res.OK(), text)
		err = s.storage.SaveFragment(s.ctx, &types.Record{Fragment: frag, PageURL: articleURL})
		s.Require().NoError(err)
	}

	eng = s.loadPage()
	recs, err := s.storage.ListFragmentsByPage(s.ctx, articleURL)
	s.Require().NoError(err)
	s.Require().Len(recs, len(texts))

	frags := make([]types.Fragment, len(recs))
	for i, rec := range recs {
		frags[i] = rec.Fragment
	}
	results, err := eng.RestoreAll(s.ctx, frags)
	s.Require().NoError(err)

	restored := 0
	for _, res := range results {
		if res.OK() {
			restored++
		}
	}
	s.Equal(len(texts), restored)

	html, err := eng.Document().HTML()
	s.Require().NoError(err)
	s.Equal(len(texts), strings.Count(html, "<mark"))
}

func (s *HighlightTestSuite) TestRemoveLifecycle() {
	eng := s.loadPage()
	frag, _, err := eng.CaptureText("lazy dog")
	s.Require().NoError(err)
	err = s.storage.SaveFragment(s.ctx, &types.Record{Fragment: frag, PageURL: articleURL})
	s.Require().NoError(err)

	// Dissolving the marker restores the original text exactly.
	before, err := dom.ParseString(articleHTML, articleURL)
	s.Require().NoError(err)
	want, err := before.HTML()
	s.Require().NoError(err)

	s.Equal(1, marker.RemoveByID(eng.Document(), frag.ID))
	got, err := eng.Document().HTML()
	s.Require().NoError(err)
	s.Equal(want, got)

	s.Require().NoError(s.storage.DeleteFragment(s.ctx, frag.ID))
	_, err = s.storage.GetFragment(s.ctx, frag.ID)
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *HighlightTestSuite) TestDeepLinkLifecycle() {
	// Capture on one page view, share the link, open it on another.
	eng := s.loadPage()
	frag, _, err := eng.CaptureText("quick brown fox jumps")
	s.Require().NoError(err)

	link, err := engine.DeepLink(frag)
	s.Require().NoError(err)

	eng = s.loadPage()
	eng.DeepLinkAttempts = 1
	res, err := eng.ResolveDeepLink(s.ctx, link)
	s.Require().NoError(err)
	s.True(res.OK())

	html, err := eng.Document().HTML()
	s.Require().NoError(err)
	s.Contains(html, "<mark")
}

func (s *HighlightTestSuite) TestExportImportMigration() {
	eng := s.loadPage()
	frag, _, err := eng.CaptureText("closing remarks")
	s.Require().NoError(err)
	err = s.storage.SaveFragment(s.ctx, &types.Record{Fragment: frag, PageURL: articleURL})
	s.Require().NoError(err)

	var buf bytes.Buffer
	s.Require().NoError(s.storage.ExportJSON(s.ctx, &buf))

	dest, err := storage.NewSQLiteStorage(":memory:")
	s.Require().NoError(err)
	defer func() { _ = dest.Close() }()

	imported, err := dest.ImportJSON(s.ctx, &buf)
	s.Require().NoError(err)
	s.Equal(1, imported)

	// The migrated store restores highlights exactly like the source.
	recs, err := dest.ListFragmentsByPage(s.ctx, articleURL)
	s.Require().NoError(err)
	s.Require().Len(recs, 1)

	eng = s.loadPage()
	s.True(eng.Restore(recs[0].Fragment).OK())
}

func TestHighlightSuite(t *testing.T) {
	suite.Run(t, new(HighlightTestSuite))
}
