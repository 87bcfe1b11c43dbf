package models_test

import (
	"encoding/json"
	"testing"

	"github.com/kiranshivaraju/jobloader/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobPosting_TextAndSalary(t *testing.T) {
	p, err := models.NewJobPosting(map[string]any{
		"company_name": "Acme",
		"position":     "Engineer",
		"min_salary":   json.Number("4000000"),
		"max_salary":   "8,000,000",
		"remote":       "一部リモート",
	})
	require.NoError(t, err)

	assert.Equal(t, "Acme", p.CompanyName)
	assert.Equal(t, "Engineer", p.Position)
	assert.Equal(t, "一部リモート", p.Remote)
	require.NotNil(t, p.MinSalary)
	require.NotNil(t, p.MaxSalary)
	assert.Equal(t, 4000000, *p.MinSalary)
	assert.Equal(t, 8000000, *p.MaxSalary)
}

func TestNewJobPosting_NonStringTextIsFormatted(t *testing.T) {
	p, err := models.NewJobPosting(map[string]any{
		"trial_period": json.Number("3"),
		"benefit":      []any{"社会保険完備", "交通費支給"},
		"other":        true,
	})
	require.NoError(t, err)
	assert.Equal(t, "3", p.TrialPeriod)
	assert.Equal(t, `["社会保険完備","交通費支給"]`, p.Benefit)
	assert.Equal(t, "true", p.Other)
}

func TestNewJobPosting_FractionalSalaryTruncates(t *testing.T) {
	p, err := models.NewJobPosting(map[string]any{"min_salary": json.Number("4500000.9")})
	require.NoError(t, err)
	require.NotNil(t, p.MinSalary)
	assert.Equal(t, 4500000, *p.MinSalary)
}

func TestNewJobPosting_BlankSalaryIsSkipped(t *testing.T) {
	p, err := models.NewJobPosting(map[string]any{"min_salary": "  "})
	require.NoError(t, err)
	assert.Nil(t, p.MinSalary)
}

func TestNewJobPosting_UnknownField(t *testing.T) {
	_, err := models.NewJobPosting(map[string]any{"application_url": "https://example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "application_url")
}

func TestNewJobPosting_BadSalary(t *testing.T) {
	_, err := models.NewJobPosting(map[string]any{"max_salary": "応相談"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_salary")
}

func TestNewJobPosting_NilValuesIgnored(t *testing.T) {
	p, err := models.NewJobPosting(map[string]any{"company_name": nil, "position": "Engineer"})
	require.NoError(t, err)
	assert.Empty(t, p.CompanyName)
	assert.Equal(t, "Engineer", p.Position)
}

func TestJobLoading_IsTerminal(t *testing.T) {
	assert.False(t, (&models.JobLoading{Status: models.JobLoadingStatusPending}).IsTerminal())
	assert.True(t, (&models.JobLoading{Status: models.JobLoadingStatusCompleted}).IsTerminal())
	assert.True(t, (&models.JobLoading{Status: models.JobLoadingStatusError}).IsTerminal())
}
