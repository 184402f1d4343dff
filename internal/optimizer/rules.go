package optimizer

import (
	appstack "github.com/lex00/appstack-go"
)

// lambdaFunctionRules contains optimization rules for Lambda functions.
var lambdaFunctionRules = []Rule{
	{
		ID:       "OPT-LAM-001",
		Category: CategoryPerformance,
		Check: func(res Resource) *appstack.OptimizeSuggestion {
			if mem, ok := number(res.Properties, "MemorySize"); ok && mem > 128 {
				return nil
			}
			return &appstack.OptimizeSuggestion{
				Severity:    "low",
				Title:       "Review Lambda memory configuration",
				Description: "The function runs with the minimum memory. Lambda allocates CPU in proportion to memory, so cold starts and CPU bound handlers are slow.",
				Suggestion:  "Set lambdas.<name>.memorySize in the context after measuring the workload.",
			}
		},
	},
	{
		ID:       "OPT-LAM-002",
		Category: CategoryReliability,
		Check: func(res Resource) *appstack.OptimizeSuggestion {
			if _, ok := res.Properties["DeadLetterConfig"]; ok {
				return nil
			}
			return &appstack.OptimizeSuggestion{
				Severity:    "medium",
				Title:       "Consider adding a dead letter queue",
				Description: "Failed asynchronous invocations, such as Cognito triggers, are dropped after the retries.",
				Suggestion:  "Add a DeadLetterConfig pointing to an SQS queue or SNS topic.",
			}
		},
	},
	{
		ID:       "OPT-LAM-003",
		Category: CategoryCost,
		Check: func(res Resource) *appstack.OptimizeSuggestion {
			if timeout, ok := number(res.Properties, "Timeout"); !ok || timeout < 300 {
				return nil
			}
			return &appstack.OptimizeSuggestion{
				Severity:    "low",
				Title:       "Review Lambda timeout setting",
				Description: "A long timeout keeps failing invocations billed until they time out. AppSync stops waiting after 30 seconds anyway.",
				Suggestion:  "Set lambdas.<name>.timeout to the expected execution time plus a buffer.",
			}
		},
	},
}

// iamRules contains optimization rules for IAM resources.
var iamRules = []Rule{
	{
		ID:       "OPT-IAM-001",
		Category: CategorySecurity,
		Check: func(res Resource) *appstack.OptimizeSuggestion {
			if !hasWildcard(res.Properties) {
				return nil
			}
			return &appstack.OptimizeSuggestion{
				Severity:    "high",
				Title:       "Review IAM permissions for least privilege",
				Description: "A policy statement grants * as action or resource.",
				Suggestion:  "Replace wildcard permissions with specific actions and resource ARNs, e.g. set auth.emailConfiguration so messaging is scoped to one SES identity.",
			}
		},
	},
}

// dynamoDBTableRules contains optimization rules for DynamoDB tables.
var dynamoDBTableRules = []Rule{
	{
		ID:       "OPT-DDB-001",
		Category: CategoryReliability,
		Check: func(res Resource) *appstack.OptimizeSuggestion {
			if boolean(res.Properties, "PointInTimeRecoverySpecification", "PointInTimeRecoveryEnabled") {
				return nil
			}
			return &appstack.OptimizeSuggestion{
				Severity:    "medium",
				Title:       "Enable point-in-time recovery",
				Description: "Point-in-time recovery (PITR) provides continuous backups of the table data.",
				Suggestion:  "Set PointInTimeRecoverySpecification.PointInTimeRecoveryEnabled to true.",
			}
		},
	},
}

// rdsClusterRules contains optimization rules for Aurora clusters.
var rdsClusterRules = []Rule{
	{
		ID:       "OPT-RDS-001",
		Category: CategoryReliability,
		Check: func(res Resource) *appstack.OptimizeSuggestion {
			if boolean(res.Properties, "DeletionProtection") {
				return nil
			}
			return &appstack.OptimizeSuggestion{
				Severity:    "medium",
				Title:       "Enable deletion protection",
				Description: "Without deletion protection the cluster can be deleted outside of the stack.",
				Suggestion:  "Set DeletionProtection to true for long lived environments.",
			}
		},
	},
	{
		ID:       "OPT-RDS-002",
		Category: CategoryReliability,
		Check: func(res Resource) *appstack.OptimizeSuggestion {
			if days, ok := number(res.Properties, "BackupRetentionPeriod"); ok && days >= 7 {
				return nil
			}
			return &appstack.OptimizeSuggestion{
				Severity:    "low",
				Title:       "Increase backup retention",
				Description: "Aurora keeps one day of automated backups by default.",
				Suggestion:  "Set BackupRetentionPeriod to at least 7 days.",
			}
		},
	},
	{
		ID:       "OPT-RDS-003",
		Category: CategoryPerformance,
		Check: func(res Resource) *appstack.OptimizeSuggestion {
			if !boolean(res.Properties, "ScalingConfiguration", "AutoPause") {
				return nil
			}
			return &appstack.OptimizeSuggestion{
				Severity:    "low",
				Title:       "Auto pause delays the first query",
				Description: "A paused cluster takes tens of seconds to resume, longer than the AppSync resolver timeout.",
				Suggestion:  "Set databases.postgres.autoPauseMinutes to 0 in production contexts.",
			}
		},
	},
}

// appSyncRules contains optimization rules for GraphQL APIs.
var appSyncRules = []Rule{
	{
		ID:       "OPT-API-001",
		Category: CategoryReliability,
		Check: func(res Resource) *appstack.OptimizeSuggestion {
			if _, ok := res.Properties["LogConfig"]; ok {
				return nil
			}
			return &appstack.OptimizeSuggestion{
				Severity:    "low",
				Title:       "Enable API logging",
				Description: "Resolver errors are not logged to CloudWatch.",
				Suggestion:  "Add a LogConfig with a CloudWatch Logs role and ERROR field log level.",
			}
		},
	},
	{
		ID:       "OPT-API-002",
		Category: CategoryPerformance,
		Check: func(res Resource) *appstack.OptimizeSuggestion {
			if boolean(res.Properties, "XrayEnabled") {
				return nil
			}
			return &appstack.OptimizeSuggestion{
				Severity:    "low",
				Title:       "Enable X-Ray tracing",
				Description: "Tracing shows which resolvers and data sources dominate request latency.",
				Suggestion:  "Set XrayEnabled to true.",
			}
		},
	},
}

// cognitoRules contains optimization rules for user pools.
var cognitoRules = []Rule{
	{
		ID:       "OPT-COG-001",
		Category: CategorySecurity,
		Check: func(res Resource) *appstack.OptimizeSuggestion {
			if mfa, _ := res.Properties["MfaConfiguration"].(string); mfa != "" && mfa != "OFF" {
				return nil
			}
			return &appstack.OptimizeSuggestion{
				Severity:    "medium",
				Title:       "Enable multi-factor authentication",
				Description: "Users sign in with a password only.",
				Suggestion:  "Set MfaConfiguration to OPTIONAL or ON.",
			}
		},
	},
	{
		ID:       "OPT-COG-002",
		Category: CategorySecurity,
		Check: func(res Resource) *appstack.OptimizeSuggestion {
			if n, ok := number(res.Properties, "Policies", "PasswordPolicy", "MinimumLength"); ok && n >= 12 {
				return nil
			}
			return &appstack.OptimizeSuggestion{
				Severity:    "low",
				Title:       "Require longer passwords",
				Description: "The password policy accepts passwords shorter than 12 characters.",
				Suggestion:  "Set auth.passwordPolicy.minLength to 12 or more.",
			}
		},
	},
}

// statefulTypes hold data that is lost when the resource is deleted.
var statefulTypes = map[string]bool{
	"AWS::DynamoDB::Table": true,
	"AWS::RDS::DBCluster":  true,
}

// genericRules apply to all resources.
var genericRules = []Rule{
	{
		ID:       "OPT-GEN-001",
		Category: CategoryReliability,
		Check: func(res Resource) *appstack.OptimizeSuggestion {
			if !statefulTypes[res.Type] || res.DeletionPolicy == "Retain" || res.DeletionPolicy == "Snapshot" {
				return nil
			}
			return &appstack.OptimizeSuggestion{
				Severity:    "low",
				Title:       "Consider retaining data on delete",
				Description: "Deleting the stack, or renaming the resource, deletes its data.",
				Suggestion:  "Use DeletionPolicy Retain or Snapshot outside of development environments.",
			}
		},
	},
}

// lookup follows path through nested maps.
func lookup(props map[string]any, path ...string) (any, bool) {
	var cur any = props
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func number(props map[string]any, path ...string) (float64, bool) {
	v, ok := lookup(props, path...)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func boolean(props map[string]any, path ...string) bool {
	v, _ := lookup(props, path...)
	b, _ := v.(bool)
	return b
}

// hasWildcard reports whether a permission policy of props has a statement
// whose Action or Resource is "*". Trust policies are not inspected.
func hasWildcard(props map[string]any) bool {
	var docs []any
	if doc, ok := props["PolicyDocument"]; ok {
		docs = append(docs, doc)
	}
	if policies, ok := props["Policies"].([]any); ok {
		for _, p := range policies {
			if doc, ok := lookup(asMap(p), "PolicyDocument"); ok {
				docs = append(docs, doc)
			}
		}
	}

	for _, doc := range docs {
		stmts, _ := lookup(asMap(doc), "Statement")
		list, _ := stmts.([]any)
		for _, stmt := range list {
			s := asMap(stmt)
			if isWildcard(s["Action"]) || isWildcard(s["Resource"]) {
				return true
			}
		}
	}
	return false
}

func isWildcard(v any) bool {
	switch val := v.(type) {
	case string:
		return val == "*"
	case []any:
		for _, item := range val {
			if s, ok := item.(string); ok && s == "*" {
				return true
			}
		}
	}
	return false
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}
