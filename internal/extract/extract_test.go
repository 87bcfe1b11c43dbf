package extract_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/kiranshivaraju/jobloader/internal/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- BuildPrompt ---

func TestBuildPrompt_EmbedsPostingAndCategories(t *testing.T) {
	p := extract.BuildPrompt("<p>バックエンドエンジニア募集</p>", []string{"エンジニア", "R&D"})

	assert.True(t, strings.HasPrefix(p, "### Order\nYou are a professional recruiter."))
	assert.Contains(t, p, "### Job posting\n<p>バックエンドエンジニア募集</p>\n### Job categories\n")
	assert.Contains(t, p, `["エンジニア","R&D"]`)
	assert.True(t, strings.HasSuffix(p, "}\n###\n"))
}

func TestBuildPrompt_FieldOrder(t *testing.T) {
	p := extract.BuildPrompt("", nil)
	order := []string{
		"company_name", "position", "layer", "employment_status", "job_category_name",
		"address", "remote", "benefit", "holiday", "working_hours", "trial_period",
		"min_salary", "max_salary", "salary", "smoking_prevention_measure",
		"min_qualifications", "pfd_qualifications", "ideal_profile",
		"_is_application_method_written", "summary", "other",
	}
	last := -1
	for _, field := range order {
		idx := strings.Index(p, `"`+field+`":`)
		require.GreaterOrEqual(t, idx, 0, field)
		assert.Greater(t, idx, last, "field %s out of order", field)
		last = idx
	}
	assert.Contains(t, p, "### Job categories\n[]\n")
}

func TestBuildPrompt_DoesNotExpandPlaceholdersInContent(t *testing.T) {
	p := extract.BuildPrompt("literal {{categories}}", []string{"営業"})
	assert.Contains(t, p, "literal {{categories}}")
}

// --- Repair / Parse ---

func TestParse_ScenarioC_TrailingComma(t *testing.T) {
	got, err := extract.Parse(`{"company_name": "Acme",}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"company_name": "Acme"}, got)
}

func TestRepair_TrailingCommaWithWhitespace(t *testing.T) {
	assert.Equal(t, "{\"a\": 1\n}\n", extract.Repair("{\"a\": 1,\n  }\n\n"))
}

func TestRepair_OnlyAtEnd(t *testing.T) {
	in := `{"a": {"b": 1,}, "c": 2}`
	assert.Equal(t, in, extract.Repair(in))
}

func TestRepair_NBSPEscape(t *testing.T) {
	got, err := extract.Parse(`{"address": "東京都\xa0渋谷区"}`)
	require.NoError(t, err)
	assert.Equal(t, "東京都 渋谷区", got["address"])
}

func TestParse_RawControlCharactersInStrings(t *testing.T) {
	got, err := extract.Parse("{\n\t\"summary\": \"line one\nline two\ttabbed\"\n}")
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\ttabbed", got["summary"])
}

func TestParse_EscapedQuotesStayInString(t *testing.T) {
	got, err := extract.Parse("{\"other\": \"say \\\"hi\\\"\nbye\"}")
	require.NoError(t, err)
	assert.Equal(t, "say \"hi\"\nbye", got["other"])
}

func TestParse_NumbersKeptExact(t *testing.T) {
	got, err := extract.Parse(`{"min_salary": 4000000, "max_salary": 8000000.0}`)
	require.NoError(t, err)
	assert.Equal(t, json.Number("4000000"), got["min_salary"])
	assert.Equal(t, json.Number("8000000.0"), got["max_salary"])
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"prose", "I could not find a job posting."},
		{"array", `["a"]`},
		{"extra data", `{"a": 1} trailing`},
		{"truncated", `{"a": "unterminated`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extract.Parse(tt.raw)
			require.Error(t, err)
		})
	}
}

func TestParse_NotObjectSentinel(t *testing.T) {
	_, err := extract.Parse(`"just a string"`)
	assert.ErrorIs(t, err, extract.ErrNotObject)
}

// --- Normalize ---

func TestNormalize_ScenarioD(t *testing.T) {
	parsed, err := extract.Parse(`{"_is_application_method_written": true, "company_name": null, "position": "Engineer"}`)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"position": "Engineer"}, extract.Normalize(parsed))
}

func TestNormalize_KeepsFalsyValues(t *testing.T) {
	got := extract.Normalize(map[string]any{"other": "", "min_salary": json.Number("0")})
	assert.Len(t, got, 2)
}
