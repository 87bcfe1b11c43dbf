package compress_test

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/kiranshivaraju/jobloader/internal/compress"
	"github.com/kiranshivaraju/jobloader/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pageWithAssets builds a posting of roughly size characters full of
// presentational tags and attributes.
func pageWithAssets(size int) string {
	var b strings.Builder
	b.WriteString(`<html><head><title>求人</title><style>.row{margin:0}</style><link rel="stylesheet" href="/a.css"></head><body>`)
	for i := 0; b.Len() < size-len(`</body></html>`); i++ {
		fmt.Fprintf(&b, `<div class="row" id="r%d"><p style="margin:0">業務内容 %d</p><img src="/i/%d.png"></div>`, i, i, i)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

func TestCompress_ScenarioA_PruneOnly(t *testing.T) {
	raw := pageWithAssets(5000)
	rec := telemetry.NewRecorder()

	out, err := compress.New().Compress(raw, rec)
	require.NoError(t, err)

	snap := rec.Snapshot()
	assert.Equal(t, []string{compress.StageOriginal, compress.StagePrune}, snap.HTMLProcessingNames)
	assert.Equal(t, utf8.RuneCountInString(raw), snap.HTMLProcessingResults[0])
	assert.Equal(t, utf8.RuneCountInString(out), snap.HTMLProcessingResults[1])

	assert.LessOrEqual(t, utf8.RuneCountInString(out), utf8.RuneCountInString(raw))
	assert.Contains(t, out, "<div>")
	assert.Contains(t, out, "<p>業務内容 0</p>")
	assert.NotContains(t, out, "<img")
	assert.NotContains(t, out, "<style")
	assert.NotContains(t, out, "<link")
	assert.NotContains(t, out, "class=")
	assert.NotContains(t, out, "id=")
}

func TestCompress_ScenarioB_TextWithMarkers(t *testing.T) {
	var b strings.Builder
	for b.Len() < 20000 {
		b.WriteString(`<div><section><span>a</span></section></div>`)
	}
	raw := b.String()
	rec := telemetry.NewRecorder()

	out, err := compress.New().Compress(raw, rec)
	require.NoError(t, err)

	snap := rec.Snapshot()
	require.Equal(t, []string{
		compress.StageOriginal,
		compress.StagePrune,
		compress.StageMetaScript,
		compress.StageMarkedText,
	}, snap.HTMLProcessingNames)
	// no meta or script present: stage 2 is recorded but changes nothing
	assert.Equal(t, snap.HTMLProcessingResults[1], snap.HTMLProcessingResults[2])
	assert.LessOrEqual(t, utf8.RuneCountInString(out), compress.DefaultTextBudget)
	assert.Contains(t, out, " # ")
	assert.NotContains(t, out, "<")
}

func TestCompress_StopsAfterMetaScriptRemoval(t *testing.T) {
	raw := `<html><head><meta charset="utf-8"><script>` + strings.Repeat("var x = 1;", 2000) +
		`</script></head><body><p>エンジニア募集</p></body></html>`
	rec := telemetry.NewRecorder()

	out, err := compress.New().Compress(raw, rec)
	require.NoError(t, err)

	snap := rec.Snapshot()
	assert.Equal(t, []string{compress.StageOriginal, compress.StagePrune, compress.StageMetaScript}, snap.HTMLProcessingNames)
	assert.Contains(t, out, "<p>エンジニア募集</p>")
	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "<meta")
}

func TestCompress_HTMLBetweenBudgetsIsReturnedAsHTML(t *testing.T) {
	var b strings.Builder
	// 14 characters per paragraph, about 12,000 in total
	for i := 0; i < 860; i++ {
		b.WriteString(`<p>仕事内容の説明</p>`)
	}
	rec := telemetry.NewRecorder()

	out, err := compress.New().Compress(b.String(), rec)
	require.NoError(t, err)

	assert.Len(t, rec.Snapshot().HTMLProcessingNames, 2)
	assert.Greater(t, utf8.RuneCountInString(out), compress.DefaultTextBudget)
	assert.Contains(t, out, "<p>")
}

func TestCompress_TruncatesToTextBudget(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 300; i++ {
		b.WriteString("<p>" + strings.Repeat("あ", 100) + "</p>")
	}
	rec := telemetry.NewRecorder()

	out, err := compress.New().Compress(b.String(), rec)
	require.NoError(t, err)

	snap := rec.Snapshot()
	assert.Equal(t, []string{
		compress.StageOriginal,
		compress.StagePrune,
		compress.StageMetaScript,
		compress.StageMarkedText,
		compress.StagePlainText,
		compress.StageTruncate,
	}, snap.HTMLProcessingNames)
	assert.Len(t, snap.HTMLProcessingResults, len(snap.HTMLProcessingNames))
	assert.Equal(t, compress.DefaultTextBudget, utf8.RuneCountInString(out))
	assert.Equal(t, compress.DefaultTextBudget, snap.HTMLProcessingResults[5])
	assert.True(t, utf8.ValidString(out))
	assert.NotContains(t, out, "#")
}

func TestCompress_RemovesEmptyShells(t *testing.T) {
	raw := `<div><span></span><p id="x"></p><svg><path d="M0"/></svg></div><p>keep</p>`
	out, err := compress.New().Compress(raw, telemetry.NewRecorder())
	require.NoError(t, err)

	assert.Contains(t, out, "<p>keep</p>")
	assert.NotContains(t, out, "<div>")
	assert.NotContains(t, out, "<span>")
	assert.NotContains(t, out, "<svg")
}

func TestCompress_UppercaseMarkupAndNestedShells(t *testing.T) {
	raw := `<SECTION CLASS="hero"><DIV STYLE="x"><IMG SRC="/a.png"><LINK REL="icon"></DIV></SECTION><P ID="k">募集要項</P>`
	out, err := compress.New().Compress(raw, telemetry.NewRecorder())
	require.NoError(t, err)

	assert.Contains(t, out, "<p>募集要項</p>")
	assert.NotContains(t, out, "<section")
	assert.NotContains(t, out, "<div")
	assert.NotContains(t, out, "<img")
	assert.NotContains(t, out, "class=")
}

func TestCompress_KeepsElementsWithOtherAttributes(t *testing.T) {
	raw := `<a href="/apply" class="btn"></a>`
	out, err := compress.New().Compress(raw, telemetry.NewRecorder())
	require.NoError(t, err)
	assert.Contains(t, out, `<a href="/apply"></a>`)
}

func TestCompress_IdempotentOnSmallInput(t *testing.T) {
	c := compress.New()
	first, err := c.Compress(pageWithAssets(3000), telemetry.NewRecorder())
	require.NoError(t, err)

	rec := telemetry.NewRecorder()
	second, err := c.Compress(first, rec)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, rec.Snapshot().HTMLProcessingNames, 2)
}

func TestCompress_TextSkipsScriptBodies(t *testing.T) {
	raw := `<div><p>本文</p><noscript><p>JS無効</p></noscript><template><p>tmpl</p></template></div>`
	out, err := compress.New(compress.WithBudgets(10, 5)).Compress(raw, telemetry.NewRecorder())
	require.NoError(t, err)
	assert.NotContains(t, out, "tmpl")
	assert.NotContains(t, out, "<p>")
}

func TestCompress_CustomBudgets(t *testing.T) {
	raw := `<div><p>one</p><p>two</p><p>three</p></div>`
	rec := telemetry.NewRecorder()

	out, err := compress.New(compress.WithBudgets(20, 9)).Compress(raw, rec)
	require.NoError(t, err)

	assert.Equal(t, 9, utf8.RuneCountInString(out))
	assert.Equal(t, "one two t", out)
	assert.Equal(t, compress.StageTruncate, rec.Snapshot().HTMLProcessingNames[5])
}
