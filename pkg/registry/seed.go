// CLAUDE:SUMMARY Embedded default dataset loaded on first run and restored by a full reset.
package registry

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

type seedData struct {
	Schools  []School  `yaml:"schools"`
	Students []Student `yaml:"students"`
}

// loadSeed parses the embedded default dataset. The file ships inside the
// binary, so a parse failure is a build defect, not a runtime condition.
func loadSeed() (seedData, error) {
	var s seedData
	if err := yaml.Unmarshal(seedYAML, &s); err != nil {
		return seedData{}, fmt.Errorf("parse embedded seed dataset: %w", err)
	}
	return s, nil
}
