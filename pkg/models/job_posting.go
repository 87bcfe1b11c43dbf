package models

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// JobPosting holds the fields extracted from a job-posting page.
type JobPosting struct {
	CompanyName              string `db:"company_name"               json:"company_name"`
	Position                 string `db:"position"                   json:"position"`
	Layer                    string `db:"layer"                      json:"layer"`
	EmploymentStatus         string `db:"employment_status"          json:"employment_status"`
	JobCategoryName          string `db:"job_category_name"          json:"job_category_name"`
	Address                  string `db:"address"                    json:"address"`
	Remote                   string `db:"remote"                     json:"remote"`
	Benefit                  string `db:"benefit"                    json:"benefit"`
	Holiday                  string `db:"holiday"                    json:"holiday"`
	WorkingHours             string `db:"working_hours"              json:"working_hours"`
	TrialPeriod              string `db:"trial_period"               json:"trial_period"`
	MinSalary                *int   `db:"min_salary"                 json:"min_salary"`
	MaxSalary                *int   `db:"max_salary"                 json:"max_salary"`
	Salary                   string `db:"salary"                     json:"salary"`
	SmokingPreventionMeasure string `db:"smoking_prevention_measure" json:"smoking_prevention_measure"`
	MinQualifications        string `db:"min_qualifications"         json:"min_qualifications"`
	PfdQualifications        string `db:"pfd_qualifications"         json:"pfd_qualifications"`
	IdealProfile             string `db:"ideal_profile"              json:"ideal_profile"`
	Summary                  string `db:"summary"                    json:"summary"`
	Other                    string `db:"other"                      json:"other"`
}

func (p *JobPosting) textFields() map[string]*string {
	return map[string]*string{
		"company_name":               &p.CompanyName,
		"position":                   &p.Position,
		"layer":                      &p.Layer,
		"employment_status":          &p.EmploymentStatus,
		"job_category_name":          &p.JobCategoryName,
		"address":                    &p.Address,
		"remote":                     &p.Remote,
		"benefit":                    &p.Benefit,
		"holiday":                    &p.Holiday,
		"working_hours":              &p.WorkingHours,
		"trial_period":               &p.TrialPeriod,
		"salary":                     &p.Salary,
		"smoking_prevention_measure": &p.SmokingPreventionMeasure,
		"min_qualifications":         &p.MinQualifications,
		"pfd_qualifications":         &p.PfdQualifications,
		"ideal_profile":              &p.IdealProfile,
		"summary":                    &p.Summary,
		"other":                      &p.Other,
	}
}

func (p *JobPosting) intFields() map[string]**int {
	return map[string]**int{
		"min_salary": &p.MinSalary,
		"max_salary": &p.MaxSalary,
	}
}

// NewJobPosting converts a normalized extraction result into a JobPosting.
// Unknown keys and salary values that are not numbers are rejected, so a
// model that invents fields fails the save instead of silently losing data.
func NewJobPosting(fields map[string]any) (JobPosting, error) {
	var p JobPosting
	texts := p.textFields()
	ints := p.intFields()

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := fields[k]
		if v == nil {
			continue
		}
		if dst, ok := texts[k]; ok {
			s, err := toText(v)
			if err != nil {
				return JobPosting{}, fmt.Errorf("field %q: %w", k, err)
			}
			*dst = s
			continue
		}
		if dst, ok := ints[k]; ok {
			// A blank salary means "not stated".
			if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
				continue
			}
			n, err := toInt(v)
			if err != nil {
				return JobPosting{}, fmt.Errorf("field %q: %w", k, err)
			}
			*dst = &n
			continue
		}
		return JobPosting{}, fmt.Errorf("unknown job posting field %q", k)
	}
	return p, nil
}

func toText(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		return strconv.FormatBool(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(t), nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

func toInt(v any) (int, error) {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", t.String())
		}
		return floatToInt(f)
	case float64:
		return floatToInt(t)
	case int:
		return t, nil
	case string:
		s := strings.NewReplacer(",", "", " ", "", "　", "").Replace(strings.TrimSpace(t))
		if s == "" {
			return 0, fmt.Errorf("empty number")
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", t)
		}
		return floatToInt(f)
	default:
		return 0, fmt.Errorf("not a number: %v", t)
	}
}

func floatToInt(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("number out of range: %v", f)
	}
	return int(math.Trunc(f)), nil
}
