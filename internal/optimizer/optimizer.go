// Package optimizer suggests security, cost, performance and reliability
// improvements for the resources of a synthesized template.
package optimizer

import (
	"fmt"
	"sort"

	appstack "github.com/lex00/appstack-go"
)

// Categories.
const (
	CategoryAll         = "all"
	CategorySecurity    = "security"
	CategoryCost        = "cost"
	CategoryPerformance = "performance"
	CategoryReliability = "reliability"
)

// Categories lists the categories a suggestion can have, in report order.
var Categories = []string{CategorySecurity, CategoryCost, CategoryPerformance, CategoryReliability}

// Options configures the optimizer.
type Options struct {
	// Category filters suggestions. Empty means all.
	Category string
}

// Result contains optimization suggestions.
type Result struct {
	Suggestions []appstack.OptimizeSuggestion
	Summary     appstack.OptimizeSummary
}

// Resource is a named template resource handed to the rules.
type Resource struct {
	Name string
	appstack.ResourceDef
}

// Rule inspects one resource. Check returns nil when the resource is fine.
type Rule struct {
	ID       string
	Category string
	Check    func(res Resource) *appstack.OptimizeSuggestion
}

// Optimize applies every rule to every resource of t, in resource name
// order.
func Optimize(t *appstack.Template, opts Options) (*Result, error) {
	category := opts.Category
	if category == "" {
		category = CategoryAll
	}
	if !ValidCategory(category) {
		return nil, fmt.Errorf("invalid category: %s", category)
	}

	result := &Result{}

	names := make([]string, 0, len(t.Resources))
	for name := range t.Resources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		res := Resource{Name: name, ResourceDef: t.Resources[name]}
		result.Suggestions = append(result.Suggestions, analyzeResource(res, category)...)
	}

	result.Summary = calculateSummary(result.Suggestions)
	return result, nil
}

// ValidCategory reports whether c names a category or "all".
func ValidCategory(c string) bool {
	if c == CategoryAll {
		return true
	}
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// analyzeResource applies optimization rules to a single resource.
func analyzeResource(res Resource, category string) []appstack.OptimizeSuggestion {
	var suggestions []appstack.OptimizeSuggestion

	for _, rule := range getRulesForType(res.Type) {
		if category != CategoryAll && rule.Category != category {
			continue
		}
		if s := rule.Check(res); s != nil {
			s.Rule = rule.ID
			s.Resource = res.Name
			s.Category = rule.Category
			suggestions = append(suggestions, *s)
		}
	}

	return suggestions
}

// calculateSummary tallies suggestions by category.
func calculateSummary(suggestions []appstack.OptimizeSuggestion) appstack.OptimizeSummary {
	summary := appstack.OptimizeSummary{}
	for _, s := range suggestions {
		switch s.Category {
		case CategorySecurity:
			summary.Security++
		case CategoryCost:
			summary.Cost++
		case CategoryPerformance:
			summary.Performance++
		case CategoryReliability:
			summary.Reliability++
		}
		summary.Total++
	}
	return summary
}

// getRulesForType returns applicable rules for a resource type.
func getRulesForType(resourceType string) []Rule {
	var rules []Rule

	switch resourceType {
	case "AWS::Lambda::Function":
		rules = append(rules, lambdaFunctionRules...)
	case "AWS::IAM::Role", "AWS::IAM::Policy":
		rules = append(rules, iamRules...)
	case "AWS::DynamoDB::Table":
		rules = append(rules, dynamoDBTableRules...)
	case "AWS::RDS::DBCluster":
		rules = append(rules, rdsClusterRules...)
	case "AWS::AppSync::GraphQLApi":
		rules = append(rules, appSyncRules...)
	case "AWS::Cognito::UserPool":
		rules = append(rules, cognitoRules...)
	}

	rules = append(rules, genericRules...)

	return rules
}
