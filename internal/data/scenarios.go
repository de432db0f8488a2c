package data

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wonny/aegis-risk/internal/contracts"
)

// scenarioFile YAML 시나리오 파일 형식
//
//	scenarios:
//	  - name: Equity crash
//	    shocks:
//	      AAPL: -0.30
//	      MSFT: -0.25
type scenarioFile struct {
	Scenarios []contracts.Scenario `yaml:"scenarios"`
}

// LoadScenariosYAML reads scenarios from a YAML file.
// KnownFields(true): 오타/미사용 필드는 즉시 실패
func LoadScenariosYAML(path string) ([]contracts.Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open scenarios: %w", err)
	}
	scenarios, err := ParseScenariosYAML(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scenarios, nil
}

// ParseScenariosYAML decodes a YAML scenario document.
func ParseScenariosYAML(raw []byte) ([]contracts.Scenario, error) {
	var file scenarioFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	for i := range file.Scenarios {
		file.Scenarios[i].Name = strings.TrimSpace(file.Scenarios[i].Name)
		if file.Scenarios[i].Shocks == nil {
			file.Scenarios[i].Shocks = map[string]float64{}
		}
	}
	return file.Scenarios, nil
}

// LoadScenarios dispatches on the file extension (.yaml/.yml or CSV).
func LoadScenarios(path string) ([]contracts.Scenario, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadScenariosYAML(path)
	default:
		return LoadScenariosCSV(path)
	}
}
