package intent

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var rulesYAML []byte

//go:embed rules_schema.json
var rulesSchemaJSON string

// Rule binds one service identifier to its detection keywords.
type Rule struct {
	ID       string   `yaml:"id" json:"id"`
	Display  string   `yaml:"display" json:"display"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// ruleTable is the on-disk shape of rules.yaml.
type ruleTable struct {
	Version  int    `yaml:"version" json:"version"`
	Services []Rule `yaml:"services" json:"services"`
}

// Classifier holds the compiled rule table.  It is read-only after New and
// safe for concurrent use from any number of goroutines.
type Classifier struct {
	rules    []Rule
	displays map[string]string
}

// New compiles the embedded rule table.  The YAML document is validated
// against the embedded JSON schema so a malformed table is caught at startup
// rather than silently misrouting messages.
func New() (*Classifier, error) {
	return newFromYAML(rulesYAML)
}

// newFromYAML is the injectable core of New (for tests).
func newFromYAML(data []byte) (*Classifier, error) {
	if err := validateRules(data); err != nil {
		return nil, fmt.Errorf("intent: rule table: %w", err)
	}

	var table ruleTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("intent: parse rule table: %w", err)
	}

	c := &Classifier{
		rules:    table.Services,
		displays: make(map[string]string, len(table.Services)),
	}
	seen := make(map[string]struct{}, len(table.Services))
	for _, r := range table.Services {
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("intent: duplicate service id %q in rule table", r.ID)
		}
		seen[r.ID] = struct{}{}
		c.displays[r.ID] = r.Display
	}
	return c, nil
}

// validateRules checks the YAML document against the rule-table JSON schema.
func validateRules(data []byte) error {
	schema, err := jsonschema.CompileString("rules_schema.json", rulesSchemaJSON)
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	// The schema validator expects encoding/json value types, so round-trip
	// the YAML document through JSON before validating.
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode for validation: %w", err)
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decode for validation: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return err
	}
	return nil
}

// Classify maps a message to a Classification.  It is deterministic,
// stateless, and never fails: empty or unmatched input maps to KindOpenEnded
// with no service.
//
// Services are scanned in rule-table order and the first keyword hit wins;
// ties between services are resolved by that fixed priority order, never by
// keyword count.
func (c *Classifier) Classify(text string) Classification {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return Classification{Kind: KindOpenEnded}
	}

	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return Classification{
					Kind:    KindStructured,
					Service: rule.ID,
					Keyword: kw,
				}
			}
		}
	}
	return Classification{Kind: KindOpenEnded}
}

// DisplayName returns the human-facing name for a service identifier, falling
// back to the identifier itself when unknown.
func (c *Classifier) DisplayName(service string) string {
	if d, ok := c.displays[service]; ok {
		return d
	}
	return service
}

// Services returns the service identifiers in priority order.
func (c *Classifier) Services() []string {
	ids := make([]string, 0, len(c.rules))
	for _, r := range c.rules {
		ids = append(ids, r.ID)
	}
	return ids
}
