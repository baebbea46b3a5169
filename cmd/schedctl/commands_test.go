package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavshah/intervention-scheduler-api/pkg/scheduler"
)

const validSchedule = `{
  "window": {"start": "2024-01-01", "end": "2024-01-10"},
  "slots": [
    {"intervention_id": "B", "staff_id": "s2", "ward_id": "w1", "start": "2024-01-02", "end": "2024-01-10"},
    {"intervention_id": "A", "staff_id": "s1", "ward_id": "w1", "start": "2024-01-01", "end": "2024-01-01"}
  ]
}`

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c := validateCmd()
	if args[0] == "options" {
		c = optionsCmd()
	}
	c.SilenceUsage = true
	c.SilenceErrors = true
	c.SetArgs(args[1:])
	c.SetIn(strings.NewReader(stdin))
	c.SetOut(&out)
	c.SetErr(&out)
	err := c.Execute()
	return out.String(), err
}

func TestValidateCmd_Valid(t *testing.T) {
	out, err := run(t, validSchedule, "validate", "-")
	require.NoError(t, err)

	var got struct {
		Result struct {
			OK bool `json:"ok"`
		} `json:"result"`
		Order map[string]int `json:"order"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, got.Result.OK)
	assert.Equal(t, map[string]int{"A": 1, "B": 2}, got.Order)
}

func TestValidateCmd_Invalid(t *testing.T) {
	input := strings.Replace(validSchedule, `"2024-01-02", "end": "2024-01-10"`, `"2024-01-11", "end": "2024-01-12"`, 1)
	out, err := run(t, input, "validate", "-")
	assert.ErrorIs(t, err, errInvalid)
	assert.Contains(t, out, "OutOfWindow")
}

func TestValidateCmd_DuplicateIntervention(t *testing.T) {
	input := `{
  "window": {"start": "2024-01-01", "end": "2024-01-10"},
  "slots": [
    {"intervention_id": "A", "staff_id": "s1", "ward_id": "w1", "start": "2024-01-01", "end": "2024-01-05"},
    {"intervention_id": "A", "staff_id": "s1", "ward_id": "w1", "start": "2024-01-03", "end": "2024-01-04"}
  ]
}`
	out, err := run(t, input, "validate", "-")
	assert.ErrorIs(t, err, scheduler.ErrInvalidInput)
	assert.ErrorContains(t, err, `duplicate intervention_id "A"`)
	assert.Empty(t, out)

	_, err = run(t, input, "options", "-i", "A", "-")
	assert.ErrorIs(t, err, scheduler.ErrInvalidInput)
}

func TestValidateCmd_MissingInterventionID(t *testing.T) {
	input := `{"window": {"start": "2024-01-01", "end": "2024-01-10"}, "slots": [{"staff_id": "s1"}]}`
	_, err := run(t, input, "validate", "-")
	assert.ErrorIs(t, err, scheduler.ErrInvalidInput)
}

func TestOptionsCmd(t *testing.T) {
	out, err := run(t, validSchedule, "options", "-i", "C", "-")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 10)
	// every day is taken by A or B
	for _, line := range lines {
		assert.True(t, strings.HasSuffix(line, "\t-"), line)
	}
}
