package rules

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	sigma "github.com/bradleyjkemp/sigma-go"
	sigmaevaluator "github.com/bradleyjkemp/sigma-go/evaluator"

	"nidsboard/pkg/models"
)

//go:embed builtin/*.yml
var builtinRules embed.FS

var techniqueTagRegex = regexp.MustCompile(`^attack\.t\d{4}(?:\.\d{3})?$`)

// SigmaLoadStats tracks the number of loaded and skipped rules.
type SigmaLoadStats struct {
	TotalFiles        int
	Loaded            int
	SkippedComplex    int
	SkippedDatasource int
	SkippedInvalid    int
}

// Add merges another set of stats into s.
func (s *SigmaLoadStats) Add(o SigmaLoadStats) {
	s.TotalFiles += o.TotalFiles
	s.Loaded += o.Loaded
	s.SkippedComplex += o.SkippedComplex
	s.SkippedDatasource += o.SkippedDatasource
	s.SkippedInvalid += o.SkippedInvalid
}

type compiledSigmaRule struct {
	rule  sigma.Rule
	eval  *sigmaevaluator.RuleEvaluator
	label models.IndicatorTag
}

// SigmaEngine evaluates Sigma rules against simulated connection records.
type SigmaEngine struct {
	rules []compiledSigmaRule
	ctx   context.Context
}

// NewBuiltinEngine compiles the embedded network rule pack, plus any rules
// found at extraPath when it is non-empty.
func NewBuiltinEngine(extraPath string) (*SigmaEngine, SigmaLoadStats, error) {
	compiled, stats, err := compileFS(builtinRules, "builtin")
	if err != nil {
		return nil, stats, fmt.Errorf("load builtin rules: %w", err)
	}
	if strings.TrimSpace(extraPath) != "" {
		extra, extraStats, err := loadPath(extraPath)
		if err != nil {
			return nil, stats, err
		}
		compiled = append(compiled, extra...)
		stats.Add(extraStats)
	}
	return &SigmaEngine{rules: compiled, ctx: context.Background()}, stats, nil
}

// NewSigmaEngine loads Sigma rules from a file or directory and compiles evaluators.
// Unsupported or complex rules are skipped and included in stats.
func NewSigmaEngine(rulePath string) (*SigmaEngine, SigmaLoadStats, error) {
	compiled, stats, err := loadPath(rulePath)
	if err != nil {
		return nil, stats, err
	}
	return &SigmaEngine{rules: compiled, ctx: context.Background()}, stats, nil
}

// Len returns the number of compiled rules.
func (e *SigmaEngine) Len() int {
	if e == nil {
		return 0
	}
	return len(e.rules)
}

// Apply evaluates all loaded Sigma rules and returns tags for matched rules.
func (e *SigmaEngine) Apply(sample *models.TrafficSample) []models.IndicatorTag {
	if e == nil || sample == nil || len(e.rules) == 0 {
		return nil
	}

	event := sample.Fields()
	out := make([]models.IndicatorTag, 0, 4)
	for _, rule := range e.rules {
		res, err := rule.eval.Matches(e.ctx, event)
		if err != nil {
			continue
		}
		if res.Match {
			out = append(out, rule.label)
		}
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

func loadPath(rulePath string) ([]compiledSigmaRule, SigmaLoadStats, error) {
	var stats SigmaLoadStats

	resolved, err := filepath.Abs(rulePath)
	if err != nil {
		return nil, stats, fmt.Errorf("resolve rule path: %w", err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, stats, fmt.Errorf("stat rule path: %w", err)
	}

	if info.IsDir() {
		compiled, stats, err := compileFS(os.DirFS(resolved), ".")
		if err != nil {
			return nil, stats, fmt.Errorf("walk rule directory: %w", err)
		}
		return compiled, stats, nil
	}

	if !isYAMLFile(resolved) {
		return nil, stats, fmt.Errorf("rule file must end with .yml or .yaml: %s", resolved)
	}
	return compileFS(os.DirFS(filepath.Dir(resolved)), ".", filepath.Base(resolved))
}

// compileFS compiles every YAML rule under root, or only the named files
// when any are given.
func compileFS(fsys fs.FS, root string, only ...string) ([]compiledSigmaRule, SigmaLoadStats, error) {
	var stats SigmaLoadStats

	files := make([]string, 0, 32)
	if len(only) > 0 {
		for _, name := range only {
			files = append(files, path.Join(root, name))
		}
	} else {
		err := fs.WalkDir(fsys, root, func(filePath string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if !entry.IsDir() && isYAMLFile(filePath) {
				files = append(files, filePath)
			}
			return nil
		})
		if err != nil {
			return nil, stats, err
		}
	}
	sort.Strings(files)

	stats.TotalFiles = len(files)
	compiled := make([]compiledSigmaRule, 0, len(files))
	for _, ruleFile := range files {
		rule, err := parseSigmaRuleFile(fsys, ruleFile)
		if err != nil {
			stats.SkippedInvalid++
			continue
		}

		if !isNetworkCompatible(rule) {
			stats.SkippedDatasource++
			continue
		}

		if ok, _ := isSimpleSingleEventRule(rule); !ok {
			stats.SkippedComplex++
			continue
		}

		compiled = append(compiled, compiledSigmaRule{
			rule:  rule,
			eval:  sigmaevaluator.ForRule(rule),
			label: indicatorTagFromRule(rule),
		})
		stats.Loaded++
	}
	return compiled, stats, nil
}

func parseSigmaRuleFile(fsys fs.FS, name string) (sigma.Rule, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return sigma.Rule{}, fmt.Errorf("read sigma rule %s: %w", name, err)
	}
	rule, err := sigma.ParseRule(raw)
	if err != nil {
		return sigma.Rule{}, fmt.Errorf("parse sigma rule %s: %w", name, err)
	}
	return rule, nil
}

func isYAMLFile(p string) bool {
	lower := strings.ToLower(p)
	return strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".yaml")
}

// isNetworkCompatible accepts rules whose logsource is empty or targets
// network connection records.
func isNetworkCompatible(rule sigma.Rule) bool {
	product := strings.ToLower(strings.TrimSpace(rule.Logsource.Product))
	service := strings.ToLower(strings.TrimSpace(rule.Logsource.Service))

	if product != "" && product != "network" && product != "nids" {
		return false
	}
	if service != "" && service != "connection" && service != "kdd" {
		return false
	}
	return true
}

func isSimpleSingleEventRule(rule sigma.Rule) (bool, string) {
	if rule.Detection.Timeframe > 0 {
		return false, "timeframe is not supported"
	}

	for _, cond := range rule.Detection.Conditions {
		if cond.Aggregation != nil {
			return false, "aggregation condition is not supported"
		}
		if !isSimpleSearchExpression(cond.Search) {
			return false, "complex condition expression is not supported"
		}
	}

	for _, search := range rule.Detection.Searches {
		if len(search.Keywords) > 0 {
			return false, "keyword search is not supported"
		}
		if len(search.EventMatchers) == 0 {
			return false, "search has no event matchers"
		}
	}

	return true, ""
}

func isSimpleSearchExpression(expr sigma.SearchExpr) bool {
	switch e := expr.(type) {
	case sigma.SearchIdentifier:
		return true
	case sigma.And:
		for _, child := range e {
			if !isSimpleSearchExpression(child) {
				return false
			}
		}
		return true
	case sigma.Or:
		for _, child := range e {
			if !isSimpleSearchExpression(child) {
				return false
			}
		}
		return true
	case sigma.Not:
		return isSimpleSearchExpression(e.Expr)
	default:
		return false
	}
}

func indicatorTagFromRule(rule sigma.Rule) models.IndicatorTag {
	id := strings.TrimSpace(rule.ID)
	if id == "" {
		id = strings.TrimSpace(rule.Title)
	}

	level := strings.ToLower(strings.TrimSpace(rule.Level))
	if level == "" {
		level = "medium"
	}

	tactic, technique := parseAttackTags(rule.Tags)
	return models.IndicatorTag{
		ID:        id,
		Name:      strings.TrimSpace(rule.Title),
		Severity:  level,
		Tactic:    tactic,
		Technique: technique,
	}
}

func parseAttackTags(tags []string) (string, string) {
	var tactic string
	var technique string

	for _, raw := range tags {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if !strings.HasPrefix(tag, "attack.") {
			continue
		}
		suffix := strings.TrimPrefix(tag, "attack.")
		if technique == "" && techniqueTagRegex.MatchString(tag) {
			technique = strings.ToUpper(strings.ReplaceAll(suffix, ".", "/"))
			continue
		}
		if tactic == "" && !strings.HasPrefix(suffix, "t") {
			tactic = strings.ReplaceAll(suffix, "_", "-")
		}
	}

	return tactic, technique
}
