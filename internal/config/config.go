// Package config loads the configuration context of a project.
//
// The context is read from appstack.json (or appstack.yaml / appstack.yml) at
// the project root, then an environment overlay appstack.<env>.json|yaml is
// deep-merged over it. env and namespace can also come from flags or from the
// APPSTACK_ENV / APPSTACK_NAMESPACE variables; a .env file in the root is
// loaded first.
package config

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/lex00/appstack-go/internal/layout"
	"github.com/lex00/appstack-go/internal/naming"
)

// Sentinel configuration errors.
var (
	ErrMissingEnv       = errors.New("missing env: set it with --env, APPSTACK_ENV or the \"env\" context key")
	ErrMissingNamespace = errors.New("missing namespace: set it with --namespace, APPSTACK_NAMESPACE or the \"namespace\" context key")
	ErrInvalid          = errors.New("invalid configuration")
)

// Resolution policies for a resolver whose data source does not exist.
const (
	UnresolvedError = "error"
	UnresolvedNone  = "none"
)

// Permission categories under permissions.lambdas.<name>.
const (
	CategoryAuth      = "auth"
	CategoryStorage   = "storage"
	CategoryDatabase  = "database"
	CategoryMessaging = "messaging"
)

// Custom attribute kinds.
const (
	KindString   = "String"
	KindNumber   = "Number"
	KindBoolean  = "Boolean"
	KindDateTime = "DateTime"
)

// AttributeKinds lists the supported custom attribute kinds.
var AttributeKinds = []string{KindString, KindNumber, KindBoolean, KindDateTime}

// Config is the configuration context.
type Config struct {
	Env         string            `json:"env"`
	Namespace   string            `json:"namespace"`
	Auth        Auth              `json:"auth"`
	Lambdas     map[string]Lambda `json:"lambdas,omitempty"`
	Databases   Databases         `json:"databases"`
	Permissions Permissions       `json:"permissions"`
	Resolution  Resolution        `json:"resolution"`
	Bundle      Bundle            `json:"bundle"`
	Layout      layout.Overrides  `json:"layout"`
}

// Auth configures the user pool and identity pool.
type Auth struct {
	SignInAliases                  *SignInAliases               `json:"signInAliases,omitempty"`
	AutoVerify                     *AutoVerify                  `json:"autoVerify,omitempty"`
	PasswordPolicy                 *PasswordPolicy              `json:"passwordPolicy,omitempty"`
	SelfSignUpEnabled              bool                         `json:"selfSignUpEnabled"`
	StandardAttributes             map[string]StandardAttribute `json:"standardAttributes,omitempty"`
	CustomAttributes               map[string]CustomAttribute   `json:"customAttributes,omitempty"`
	AllowUnauthenticatedIdentities bool                         `json:"allowUnauthenticatedIdentities"`
	EmailConfiguration             *EmailConfiguration          `json:"emailConfiguration,omitempty"`
}

// SignInAliases selects the attributes users can sign in with.
type SignInAliases struct {
	Username          bool `json:"username"`
	Email             bool `json:"email"`
	Phone             bool `json:"phone"`
	PreferredUsername bool `json:"preferredUsername"`
}

// AutoVerify selects the attributes verified automatically.
type AutoVerify struct {
	Email bool `json:"email"`
	Phone bool `json:"phone"`
}

// PasswordPolicy is the user pool password policy.
type PasswordPolicy struct {
	MinLength            int  `json:"minLength,omitempty"`
	RequireLowercase     bool `json:"requireLowercase"`
	RequireUppercase     bool `json:"requireUppercase"`
	RequireDigits        bool `json:"requireDigits"`
	RequireSymbols       bool `json:"requireSymbols"`
	TempPasswordValidity int  `json:"tempPasswordValidityDays,omitempty"`
}

// StandardAttribute configures a standard user attribute such as email.
type StandardAttribute struct {
	Required bool  `json:"required"`
	Mutable  *bool `json:"mutable,omitempty"`
}

// CustomAttribute declares a custom user attribute. Type selects the kind.
type CustomAttribute struct {
	Type    string   `json:"type"`
	Mutable bool     `json:"mutable"`
	MinLen  *int     `json:"minLen,omitempty"`
	MaxLen  *int     `json:"maxLen,omitempty"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
}

// EmailConfiguration sends user pool email through SES.
type EmailConfiguration struct {
	FromName    string `json:"fromName"`
	FromAddress string `json:"fromAddress"`
}

// Lambda holds runtime settings for one lambda folder.
type Lambda struct {
	Runtime       string            `json:"runtime,omitempty"`
	Handler       string            `json:"handler,omitempty"`
	MemorySize    int               `json:"memorySize,omitempty"`
	Timeout       int               `json:"timeout,omitempty"`
	RetryAttempts *int              `json:"retryAttempts,omitempty"`
	Environment   map[string]string `json:"environment,omitempty"`
}

// Databases configures relational storage.
type Databases struct {
	Postgres Postgres `json:"postgres"`
}

// Postgres configures the Aurora Serverless cluster.
type Postgres struct {
	DatabaseName     string   `json:"databaseName,omitempty"`
	EngineVersion    string   `json:"engineVersion,omitempty"`
	AutoPauseMinutes *int     `json:"autoPauseMinutes,omitempty"`
	MinCapacity      int      `json:"minCapacity,omitempty"`
	MaxCapacity      int      `json:"maxCapacity,omitempty"`
	SubnetIDs        []string `json:"subnetIds,omitempty"`
	SecurityGroupIDs []string `json:"securityGroupIds,omitempty"`
}

// Aurora capacity units used when the context leaves them unset.
const (
	DefaultMinCapacity = 2
	DefaultMaxCapacity = 16
)

// Capacity returns the effective capacity range.
func (p Postgres) Capacity() (minCapacity, maxCapacity int) {
	minCapacity, maxCapacity = p.MinCapacity, p.MaxCapacity
	if minCapacity == 0 {
		minCapacity = DefaultMinCapacity
	}
	if maxCapacity == 0 {
		maxCapacity = DefaultMaxCapacity
	}
	return minCapacity, maxCapacity
}

// Permissions is the declarative permission map.
type Permissions struct {
	Lambdas map[string]LambdaPermissions `json:"lambdas,omitempty"`
	Auth    AuthPermissions              `json:"auth"`
}

// LambdaPermissions lists action names per category for one lambda.
type LambdaPermissions struct {
	Auth      []string `json:"auth,omitempty"`
	Storage   []string `json:"storage,omitempty"`
	Database  []string `json:"database,omitempty"`
	Messaging []string `json:"messaging,omitempty"`
}

// Empty reports whether no category declares an action.
func (p LambdaPermissions) Empty() bool {
	return len(p.Auth) == 0 && len(p.Storage) == 0 && len(p.Database) == 0 && len(p.Messaging) == 0
}

// AuthPermissions grants API access to identity pool roles.
type AuthPermissions struct {
	Authenticated   RolePermissions `json:"authenticated"`
	Unauthenticated RolePermissions `json:"unauthenticated"`
}

// RolePermissions lists "<Type>/fields/<field>" style API entries.
type RolePermissions struct {
	API []string `json:"api,omitempty"`
}

// Resolution selects how unresolved references are handled.
type Resolution struct {
	UnresolvedDataSource string `json:"unresolvedDataSource,omitempty"`
}

// Bundle configures the external bundler.
type Bundle struct {
	Command string `json:"command,omitempty"`
	Timeout string `json:"timeout,omitempty"`
}

// ArtifactID is the logical prefix shared by namespaced resources.
func (c *Config) ArtifactID() string {
	return naming.ResourceID(c.Namespace, c.Env)
}

// UnresolvedDataSource returns the resolution policy, defaulting to error.
func (c *Config) UnresolvedDataSource() string {
	if c.Resolution.UnresolvedDataSource == "" {
		return UnresolvedError
	}
	return c.Resolution.UnresolvedDataSource
}

// BundleTimeout parses bundle.timeout. Zero means no timeout.
func (c *Config) BundleTimeout() (time.Duration, error) {
	if c.Bundle.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Bundle.Timeout)
	if err != nil {
		return 0, fmt.Errorf("%w: bundle.timeout: %v", ErrInvalid, err)
	}
	return d, nil
}

// Validate checks required keys and closed value sets.
func (c *Config) Validate() error {
	if c.Env == "" {
		return ErrMissingEnv
	}
	if c.Namespace == "" {
		return ErrMissingNamespace
	}

	switch c.UnresolvedDataSource() {
	case UnresolvedError, UnresolvedNone:
	default:
		return fmt.Errorf("%w: resolution.unresolvedDataSource must be %q or %q, got %q",
			ErrInvalid, UnresolvedError, UnresolvedNone, c.Resolution.UnresolvedDataSource)
	}

	for _, name := range sortedKeys(c.Auth.CustomAttributes) {
		attr := c.Auth.CustomAttributes[name]
		if !slices.Contains(AttributeKinds, attr.Type) {
			return fmt.Errorf("%w: auth.customAttributes.%s: unknown type %q (want one of %s)",
				ErrInvalid, name, attr.Type, strings.Join(AttributeKinds, ", "))
		}
	}

	if ec := c.Auth.EmailConfiguration; ec != nil && ec.FromAddress == "" {
		return fmt.Errorf("%w: auth.emailConfiguration.fromAddress is required", ErrInvalid)
	}

	pg := c.Databases.Postgres
	if pg.MinCapacity < 0 || pg.MaxCapacity < 0 {
		return fmt.Errorf("%w: databases.postgres capacity must not be negative", ErrInvalid)
	}
	if minCap, maxCap := pg.Capacity(); minCap > maxCap {
		return fmt.Errorf("%w: databases.postgres.minCapacity %d exceeds maxCapacity %d",
			ErrInvalid, minCap, maxCap)
	}

	for _, name := range sortedKeys(c.Lambdas) {
		l := c.Lambdas[name]
		if l.MemorySize < 0 || l.Timeout < 0 {
			return fmt.Errorf("%w: lambdas.%s: memorySize and timeout must not be negative", ErrInvalid, name)
		}
		if l.RetryAttempts != nil && (*l.RetryAttempts < 0 || *l.RetryAttempts > 2) {
			return fmt.Errorf("%w: lambdas.%s.retryAttempts must be between 0 and 2", ErrInvalid, name)
		}
	}

	if _, err := c.BundleTimeout(); err != nil {
		return err
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
