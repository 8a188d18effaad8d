// Package scenario reads and runs acceptance scenarios for Logic Apps.
//
// A scenario is a CSV file where each row fires one trigger and optionally
// checks the resulting run or one of its actions.
//
// CSV format:
//
//	resource_group,workflow,trigger,kind,payload,action,expected_status
//	RG1,OrderFlow,manual,http,@orders/new.json,Send_Confirmation,Succeeded
//	RG1,OrderFlow,manual,http,"{""id"":1}",,Succeeded
//	RG1,Nightly,recurrence,named,,,
//
// The payload column holds an inline body, or a file path prefixed with "@"
// resolved against the scenario file's directory. When action is empty,
// expected_status is compared with the run status instead. Rows run in file
// order.
package scenario

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"logicprobe/internal/logicapp"
)

// Step is one row of a scenario.
type Step struct {
	// Line is the 1-based CSV line number, for error messages.
	Line int

	ResourceGroup string
	Workflow      string
	Trigger       string
	Kind          logicapp.TriggerKind

	// Payload is the raw payload column.
	Payload string

	// Action is the action whose status is checked. Optional.
	Action string

	// ExpectedStatus is compared with the action status, or with the run
	// status when Action is empty. Optional.
	ExpectedStatus string
}

// Scenario holds the steps of a scenario file.
type Scenario struct {
	// Steps are in execution order.
	Steps []Step

	// BaseDir resolves "@file" payloads. Empty means the working directory.
	BaseDir string
}

// ReadFromFile reads and parses a scenario CSV file.
func ReadFromFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scenario: %w", err)
	}
	defer f.Close()

	s, err := readFromReader(f)
	if err != nil {
		return nil, err
	}
	s.BaseDir = filepath.Dir(path)
	return s, nil
}

// ReadFromString parses a scenario from a CSV string.
func ReadFromString(data string) (*Scenario, error) {
	return readFromReader(strings.NewReader(data))
}

func readFromReader(r io.Reader) (*Scenario, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario header: %w", err)
	}

	colIndex := buildColumnIndex(header)
	if err := validateColumns(colIndex); err != nil {
		return nil, err
	}

	var steps []Step
	lineNum := 1
	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read scenario line %d: %w", lineNum, err)
		}

		kind, err := logicapp.ParseTriggerKind(getField(record, colIndex, "kind"))
		if err != nil {
			return nil, fmt.Errorf("scenario line %d: %w", lineNum, err)
		}

		step := Step{
			Line:           lineNum,
			ResourceGroup:  getField(record, colIndex, "resource_group"),
			Workflow:       getField(record, colIndex, "workflow"),
			Trigger:        getField(record, colIndex, "trigger"),
			Kind:           kind,
			Payload:        getField(record, colIndex, "payload"),
			Action:         getField(record, colIndex, "action"),
			ExpectedStatus: getField(record, colIndex, "expected_status"),
		}

		for _, required := range requiredColumns {
			if getField(record, colIndex, required) == "" {
				return nil, fmt.Errorf("scenario line %d: %s is required", lineNum, required)
			}
		}

		steps = append(steps, step)
	}

	if len(steps) == 0 {
		return nil, fmt.Errorf("scenario contains no steps")
	}

	return &Scenario{Steps: steps}, nil
}

// requiredColumns must be present in the header and non-empty in every row.
var requiredColumns = []string{"resource_group", "workflow", "trigger"}

func buildColumnIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(strings.ToLower(col))] = i
	}
	return index
}

func validateColumns(colIndex map[string]int) error {
	for _, col := range requiredColumns {
		if _, ok := colIndex[col]; !ok {
			return fmt.Errorf("scenario missing required column: %s", col)
		}
	}
	return nil
}

func getField(record []string, colIndex map[string]int, column string) string {
	idx, ok := colIndex[column]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// LoadPayload returns the request body for a step.
func (s *Scenario) LoadPayload(step Step) (logicapp.Payload, error) {
	if step.Payload == "" {
		return logicapp.Payload{}, nil
	}
	if !strings.HasPrefix(step.Payload, "@") {
		return logicapp.Payload{Body: []byte(step.Payload)}, nil
	}

	path := strings.TrimPrefix(step.Payload, "@")
	if !filepath.IsAbs(path) && s.BaseDir != "" {
		path = filepath.Join(s.BaseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return logicapp.Payload{}, fmt.Errorf("scenario line %d: failed to read payload: %w", step.Line, err)
	}
	return logicapp.Payload{Body: data}, nil
}

// Workflows returns the unique resource-group/workflow pairs in first-use order.
func (s *Scenario) Workflows() []string {
	seen := make(map[string]bool)
	var out []string
	for _, step := range s.Steps {
		key := step.ResourceGroup + "/" + step.Workflow
		if !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	return out
}
