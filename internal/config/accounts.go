package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// SoupRule selects a node out of a markup source with a CSS selector.
type SoupRule struct {
	Source   string `yaml:"source"`
	Selector string `yaml:"selector"`
}

// ExtractionRule describes how to pull one field out of an email. Exactly one
// mode is active: selector mode when Source is "soup", regex mode otherwise.
type ExtractionRule struct {
	Source    string    `yaml:"source"`
	Soup      *SoupRule `yaml:"soup,omitempty"`
	Regex     string    `yaml:"regex,omitempty"`
	RegexKeys []string  `yaml:"regex_keys,omitempty"`
}

func (r ExtractionRule) Validate() error {
	if r.Source == "soup" {
		if r.Soup == nil || r.Soup.Selector == "" {
			return fmt.Errorf("soup rule requires a nested source and selector")
		}
		if !validSource(r.Soup.Source) {
			return fmt.Errorf("unknown soup source: %s", r.Soup.Source)
		}
		return nil
	}
	if !validSource(r.Source) {
		return fmt.Errorf("unknown source: %s", r.Source)
	}
	if r.Regex == "" {
		return fmt.Errorf("regex rule requires a pattern")
	}
	re, err := regexp.Compile(r.Regex)
	if err != nil {
		return fmt.Errorf("invalid regex %q: %w", r.Regex, err)
	}
	if len(r.RegexKeys) == 0 {
		return fmt.Errorf("regex rule requires at least one key in regex_keys")
	}
	names := map[string]struct{}{}
	for _, n := range re.SubexpNames() {
		if n != "" {
			names[n] = struct{}{}
		}
	}
	for _, key := range r.RegexKeys {
		if _, ok := names[key]; !ok {
			return fmt.Errorf("regex %q does not define group %q", r.Regex, key)
		}
	}
	return nil
}

func validSource(source string) bool {
	switch source {
	case "text", "html", "body":
		return true
	}
	return false
}

// AccountRules is the per-account rule set. LastSync is the watermark:
// messages at or before it are considered already processed.
type AccountRules struct {
	Label             string         `yaml:"gmail_label"`
	ValidSubjectRegex string         `yaml:"valid_subject_regex"`
	Amount            ExtractionRule `yaml:"amount"`
	Description       ExtractionRule `yaml:"description"`
	DepositRegex      string         `yaml:"deposit_regex,omitempty"`
	IgnoreRegex       string         `yaml:"ignore_regex,omitempty"`
	LastSync          time.Time      `yaml:"last_sync"`
}

func (a *AccountRules) Validate() error {
	if a.Label == "" {
		return fmt.Errorf("gmail_label is required")
	}
	if _, err := regexp.Compile(a.ValidSubjectRegex); err != nil {
		return fmt.Errorf("invalid valid_subject_regex: %w", err)
	}
	if err := a.Amount.Validate(); err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	if err := a.Description.Validate(); err != nil {
		return fmt.Errorf("description: %w", err)
	}
	if a.DepositRegex != "" {
		if _, err := regexp.Compile(a.DepositRegex); err != nil {
			return fmt.Errorf("invalid deposit_regex: %w", err)
		}
	}
	if a.IgnoreRegex != "" {
		if _, err := regexp.Compile(a.IgnoreRegex); err != nil {
			return fmt.Errorf("invalid ignore_regex: %w", err)
		}
	}
	return nil
}

// AccountsFile is the loaded accounts config. The parsed node tree is kept so
// watermark write-back preserves key order and unknown fields.
type AccountsFile struct {
	Order    []string
	Accounts map[string]*AccountRules

	path string
	root yaml.Node
}

func LoadAccounts(path string) (*AccountsFile, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	f := &AccountsFile{path: path, Accounts: map[string]*AccountRules{}}
	if err := yaml.Unmarshal(blob, &f.root); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	accounts := f.accountsNode()
	if accounts == nil {
		return nil, fmt.Errorf("%s: missing accounts mapping", path)
	}

	for i := 0; i+1 < len(accounts.Content); i += 2 {
		name := accounts.Content[i].Value
		rules := &AccountRules{}
		if err := accounts.Content[i+1].Decode(rules); err != nil {
			return nil, fmt.Errorf("account %s: %w", name, err)
		}
		if err := rules.Validate(); err != nil {
			return nil, fmt.Errorf("account %s: %w", name, err)
		}
		f.Order = append(f.Order, name)
		f.Accounts[name] = rules
	}

	return f, nil
}

// CommitWatermark persists a new watermark for one account. It rewrites the
// file immediately: the watermark must be durable as soon as the matching
// ledger commit has succeeded.
func (f *AccountsFile) CommitWatermark(name string, ts time.Time) error {
	rules, ok := f.Accounts[name]
	if !ok {
		return fmt.Errorf("unknown account: %s", name)
	}

	accounts := f.accountsNode()
	node := mappingValue(accounts, name)
	if node == nil {
		return fmt.Errorf("account %s missing from config tree", name)
	}
	setMappingTimestamp(node, "last_sync", ts.Format(time.RFC3339))
	rules.LastSync = ts

	blob, err := yaml.Marshal(&f.root)
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, blob, 0o644)
}

func (f *AccountsFile) accountsNode() *yaml.Node {
	if f.root.Kind != yaml.DocumentNode || len(f.root.Content) == 0 {
		return nil
	}
	node := mappingValue(f.root.Content[0], "accounts")
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	return node
}

func mappingValue(mapping *yaml.Node, key string) *yaml.Node {
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

// RFC3339 scalars must stay plain so they round-trip as timestamps.
func setMappingTimestamp(mapping *yaml.Node, key, value string) {
	if existing := mappingValue(mapping, key); existing != nil {
		existing.Kind = yaml.ScalarNode
		existing.Tag = "!!timestamp"
		existing.Style = 0
		existing.Value = value
		return
	}
	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: key}
	valueNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!timestamp", Value: value}
	mapping.Content = append(mapping.Content, keyNode, valueNode)
}
