package stack

import (
	"fmt"
	"strings"

	"github.com/lex00/appstack-go/internal/config"
	"github.com/lex00/appstack-go/internal/naming"
	"github.com/lex00/appstack-go/intrinsics"
	"github.com/lex00/appstack-go/resources/iam"
)

// Action prefixes per permission category.
var actionPrefixes = map[string]string{
	config.CategoryAuth:      "cognito-idp",
	config.CategoryStorage:   "dynamodb",
	config.CategoryDatabase:  "rds-data",
	config.CategoryMessaging: "ses",
}

// qualify prefixes bare action names with the category's service.
func qualify(category string, actions []string) []string {
	out := make([]string, len(actions))
	for i, action := range actions {
		if strings.Contains(action, ":") {
			out[i] = action
		} else {
			out[i] = actionPrefixes[category] + ":" + action
		}
	}
	return out
}

func (a *assembler) addLambdaPolicies() error {
	for _, name := range sortedKeys(a.cfg.Permissions.Lambdas) {
		perms := a.cfg.Permissions.Lambdas[name]
		l, ok := a.lambdas[name]
		if !ok {
			if !perms.Empty() {
				a.log.Warn("permissions declared for a lambda that does not exist", "lambda", name)
			}
			continue
		}

		statements, err := a.permissionStatements(name, perms)
		if err != nil {
			return err
		}
		if len(statements) == 0 {
			continue
		}

		id := naming.ResourceID(l.function.ID, "Policy")
		if _, err := a.stack.Add(id, iam.Policy{
			PolicyName:     id,
			PolicyDocument: intrinsics.NewPolicyDocument(statements...),
			Roles:          []any{l.role.Ref()},
		}); err != nil {
			return err
		}
		a.log.Debug("added lambda policy", "lambda", name, "statements", len(statements))
	}
	return nil
}

// permissionStatements returns one statement per non-empty category, plus
// the secret access the database category needs.
func (a *assembler) permissionStatements(name string, perms config.LambdaPermissions) ([]any, error) {
	var statements []any

	if len(perms.Auth) > 0 {
		statements = append(statements, intrinsics.Allow(qualify(config.CategoryAuth, perms.Auth), a.userPool.Arn()))
	}

	if len(perms.Storage) > 0 {
		if len(a.proj.tables) == 0 {
			return nil, fmt.Errorf("%w: permissions.lambdas.%s.storage: no tables are defined", config.ErrInvalid, name)
		}
		var resources []any
		for _, t := range a.proj.tables {
			table := a.tables[t.Name]
			resources = append(resources, table.Arn(), intrinsics.Sub{String: fmt.Sprintf("${%s.Arn}/index/*", table.ID)})
		}
		statements = append(statements, intrinsics.Allow(qualify(config.CategoryStorage, perms.Storage), resources...))
	}

	if len(perms.Database) > 0 {
		if a.cluster == nil {
			return nil, fmt.Errorf("%w: permissions.lambdas.%s.database: no postgres cluster is defined", config.ErrInvalid, name)
		}
		statements = append(statements,
			intrinsics.Allow(qualify(config.CategoryDatabase, perms.Database), a.cluster.cluster.Attr("DBClusterArn")),
			intrinsics.Allow([]string{"secretsmanager:GetSecretValue", "secretsmanager:DescribeSecret"}, a.cluster.secret.Ref()),
		)
	}

	if len(perms.Messaging) > 0 {
		var resource any = "*"
		if ec := a.cfg.Auth.EmailConfiguration; ec != nil {
			resource = intrinsics.ServiceArn("ses", "identity/"+ec.FromAddress)
		}
		statements = append(statements, intrinsics.Allow(qualify(config.CategoryMessaging, perms.Messaging), resource))
	}
	return statements, nil
}
