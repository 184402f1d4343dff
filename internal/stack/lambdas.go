package stack

import (
	"slices"
	"sort"

	"github.com/lex00/appstack-go/internal/config"
	"github.com/lex00/appstack-go/internal/naming"
	"github.com/lex00/appstack-go/intrinsics"
	"github.com/lex00/appstack-go/resources/iam"
	"github.com/lex00/appstack-go/resources/lambda"
)

// Lambda defaults.
const (
	DefaultRuntime    = "nodejs20.x"
	DefaultHandler    = "index.handler"
	DefaultMemorySize = 128
)

// Lambda folders wired to user pool triggers.
const (
	CustomMessageTrigger = "auth-custom-message-trigger"
	PreSignUpTrigger     = "auth-pre-signup-trigger"
)

type lambdaHandles struct {
	name     string
	function Handle
	role     Handle
}

// lambdaTrustPolicy lets the Lambda service assume a role.
func lambdaTrustPolicy() intrinsics.PolicyDocument {
	return intrinsics.NewPolicyDocument(intrinsics.PolicyStatement{
		Effect:    "Allow",
		Principal: intrinsics.ServicePrincipal{"lambda.amazonaws.com"},
		Action:    "sts:AssumeRole",
	})
}

// addServiceRole registers <id>ServiceRole with the basic execution policy
// and any inline policies.
func (a *assembler) addServiceRole(id string, policies ...iam.Role_Policy) (Handle, error) {
	return a.stack.Add(naming.ResourceID(id, "ServiceRole"), iam.Role{
		AssumeRolePolicyDocument: lambdaTrustPolicy(),
		ManagedPolicyArns:        []any{intrinsics.ManagedPolicyArn("service-role/AWSLambdaBasicExecutionRole")},
		Policies:                 policies,
	})
}

func (a *assembler) addLambdas() error {
	for _, name := range sortedKeys(a.cfg.Lambdas) {
		if !slices.Contains(a.proj.lambdas, name) {
			a.log.Warn("configured lambda has no source folder", "lambda", name)
		}
	}

	outputs := make(map[string]any)
	for _, name := range a.proj.lambdas {
		settings := a.cfg.Lambdas[name]
		id := naming.ResourceID(a.stack.Name, name)

		role, err := a.addServiceRole(id)
		if err != nil {
			return err
		}

		fn := lambda.Function{
			FunctionName: id,
			Runtime:      orDefault(settings.Runtime, DefaultRuntime),
			Handler:      orDefault(settings.Handler, DefaultHandler),
			Code:         a.code(a.assets[name].Key),
			Role:         role.Arn(),
			MemorySize:   orDefaultInt(settings.MemorySize, DefaultMemorySize),
			Environment:  environment(settings),
		}
		if settings.Timeout > 0 {
			fn.Timeout = settings.Timeout
		}
		function, err := a.stack.Add(id, fn)
		if err != nil {
			return err
		}

		if settings.RetryAttempts != nil {
			if _, err := a.stack.Add(naming.ResourceID(id, "InvokeConfig"), lambda.EventInvokeConfig{
				FunctionName:         function.Ref(),
				Qualifier:            "$LATEST",
				MaximumRetryAttempts: *settings.RetryAttempts,
			}); err != nil {
				return err
			}
		}

		a.lambdas[name] = &lambdaHandles{name: name, function: function, role: role}
		outputs[naming.Camel("lambda-"+name+"-arn")] = function.Arn()
		a.log.Debug("added lambda", "lambda", name, "id", id)
	}

	// Folder names that collapse to the same key are caught by the
	// duplicate ID check above.
	a.outputs = append(a.outputs, outputs)
	return nil
}

// code points at an uploaded asset.
func (a *assembler) code(key string) *lambda.Function_Code {
	return &lambda.Function_Code{
		S3Bucket: intrinsics.Ref{LogicalName: AssetBucket},
		S3Key:    key,
	}
}

func environment(settings config.Lambda) *lambda.Function_Environment {
	if len(settings.Environment) == 0 {
		return nil
	}
	vars := make(map[string]any, len(settings.Environment))
	for k, v := range settings.Environment {
		vars[k] = v
	}
	return &lambda.Function_Environment{Variables: vars}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orDefaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
