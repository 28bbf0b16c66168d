package model

// Rule injects Code right after the marker of Layer.
type Rule struct {
	Layer int    `yaml:"layer"`
	Code  string `yaml:"code"`
}

// RuleSet is the ordered list of rules loaded for one rule identifier.
type RuleSet struct {
	ID       string
	Filename Path
	Rules    []Rule
}
