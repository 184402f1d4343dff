package stack

import (
	"fmt"
	"strconv"

	"github.com/lex00/appstack-go/internal/config"
	"github.com/lex00/appstack-go/internal/naming"
	"github.com/lex00/appstack-go/intrinsics"
	"github.com/lex00/appstack-go/resources/cognito"
	"github.com/lex00/appstack-go/resources/iam"
	"github.com/lex00/appstack-go/resources/lambda"
)

// Identity pool role types.
const (
	Authenticated   = "authenticated"
	Unauthenticated = "unauthenticated"
)

// standardAttributes maps configuration keys to Cognito attribute names.
var standardAttributes = map[string]string{
	"address":           "address",
	"birthdate":         "birthdate",
	"email":             "email",
	"familyName":        "family_name",
	"fullname":          "name",
	"gender":            "gender",
	"givenName":         "given_name",
	"lastUpdateTime":    "updated_at",
	"locale":            "locale",
	"middleName":        "middle_name",
	"nickname":          "nickname",
	"phoneNumber":       "phone_number",
	"preferredUsername": "preferred_username",
	"profilePage":       "profile",
	"profilePicture":    "picture",
	"timezone":          "zoneinfo",
	"website":           "website",
}

// customAttributeKinds builds the schema attribute of each custom
// attribute kind.
var customAttributeKinds = map[string]func(name string, attr config.CustomAttribute) cognito.UserPool_SchemaAttribute{
	config.KindString: func(name string, attr config.CustomAttribute) cognito.UserPool_SchemaAttribute {
		s := cognito.UserPool_SchemaAttribute{Name: name, AttributeDataType: "String", Mutable: attr.Mutable}
		if attr.MinLen != nil || attr.MaxLen != nil {
			c := &cognito.UserPool_StringAttributeConstraints{}
			if attr.MinLen != nil {
				c.MinLength = strconv.Itoa(*attr.MinLen)
			}
			if attr.MaxLen != nil {
				c.MaxLength = strconv.Itoa(*attr.MaxLen)
			}
			s.StringAttributeConstraints = c
		}
		return s
	},
	config.KindNumber: func(name string, attr config.CustomAttribute) cognito.UserPool_SchemaAttribute {
		s := cognito.UserPool_SchemaAttribute{Name: name, AttributeDataType: "Number", Mutable: attr.Mutable}
		if attr.Min != nil || attr.Max != nil {
			c := &cognito.UserPool_NumberAttributeConstraints{}
			if attr.Min != nil {
				c.MinValue = strconv.FormatFloat(*attr.Min, 'f', -1, 64)
			}
			if attr.Max != nil {
				c.MaxValue = strconv.FormatFloat(*attr.Max, 'f', -1, 64)
			}
			s.NumberAttributeConstraints = c
		}
		return s
	},
	config.KindBoolean: func(name string, attr config.CustomAttribute) cognito.UserPool_SchemaAttribute {
		return cognito.UserPool_SchemaAttribute{Name: name, AttributeDataType: "Boolean", Mutable: attr.Mutable}
	},
	// Cognito stores date-times as strings.
	config.KindDateTime: func(name string, attr config.CustomAttribute) cognito.UserPool_SchemaAttribute {
		return cognito.UserPool_SchemaAttribute{Name: name, AttributeDataType: "String", Mutable: attr.Mutable}
	},
}

func (a *assembler) addUserPool() error {
	auth := a.cfg.Auth
	id := naming.ResourceID(a.stack.Name, "Users")

	pool := cognito.UserPool{
		UserPoolName:          id,
		AdminCreateUserConfig: &cognito.UserPool_AdminCreateUserConfig{AllowAdminCreateUserOnly: !auth.SelfSignUpEnabled},
		UsernameConfiguration: &cognito.UserPool_UsernameConfiguration{CaseSensitive: false},
	}
	aliases, usernames, verified := signIn(auth)
	pool.AliasAttributes = aliases
	pool.UsernameAttributes = usernames
	pool.AutoVerifiedAttributes = verified

	if pp := auth.PasswordPolicy; pp != nil {
		policy := &cognito.UserPool_PasswordPolicy{
			RequireLowercase: pp.RequireLowercase,
			RequireUppercase: pp.RequireUppercase,
			RequireNumbers:   pp.RequireDigits,
			RequireSymbols:   pp.RequireSymbols,
		}
		if pp.MinLength > 0 {
			policy.MinimumLength = pp.MinLength
		}
		if pp.TempPasswordValidity > 0 {
			policy.TemporaryPasswordValidityDays = pp.TempPasswordValidity
		}
		pool.Policies = &cognito.UserPool_Policies{PasswordPolicy: policy}
	}

	schema, err := userPoolSchema(auth)
	if err != nil {
		return err
	}
	pool.Schema = schema

	if ec := auth.EmailConfiguration; ec != nil {
		from := ec.FromAddress
		if ec.FromName != "" {
			from = fmt.Sprintf("%s <%s>", ec.FromName, ec.FromAddress)
		}
		pool.EmailConfiguration = &cognito.UserPool_EmailConfiguration{
			EmailSendingAccount: "DEVELOPER",
			From:                from,
			SourceArn:           intrinsics.ServiceArn("ses", "identity/"+ec.FromAddress),
		}
	}

	triggers := &cognito.UserPool_LambdaConfig{}
	if l, ok := a.lambdas[CustomMessageTrigger]; ok {
		triggers.CustomMessage = l.function.Arn()
	}
	if l, ok := a.lambdas[PreSignUpTrigger]; ok {
		triggers.PreSignUp = l.function.Arn()
	}
	if triggers.CustomMessage != nil || triggers.PreSignUp != nil {
		pool.LambdaConfig = triggers
	}

	userPool, err := a.stack.Add(id, pool)
	if err != nil {
		return err
	}
	a.userPool = userPool

	for _, name := range []string{CustomMessageTrigger, PreSignUpTrigger} {
		l, ok := a.lambdas[name]
		if !ok {
			continue
		}
		if _, err := a.stack.Add(naming.ResourceID(l.function.ID, "UserPoolPermission"), lambda.Permission{
			FunctionName: l.function.Arn(),
			Action:       "lambda:InvokeFunction",
			Principal:    "cognito-idp.amazonaws.com",
			SourceArn:    userPool.Arn(),
		}); err != nil {
			return err
		}
		a.log.Debug("wired user pool trigger", "lambda", name)
	}

	a.outputs = append(a.outputs, map[string]any{
		"authRegion":      intrinsics.AWS_REGION,
		"authUserPoolArn": userPool.Arn(),
		"authUserPoolId":  userPool.Ref(),
	})
	return nil
}

// signIn derives the alias, username and auto-verified attributes. Without
// configured aliases users sign in with their username.
func signIn(auth config.Auth) (aliases, usernames, verified []any) {
	sa := auth.SignInAliases
	if sa == nil {
		sa = &config.SignInAliases{Username: true}
	}

	var attrs []any
	if sa.Email {
		attrs = append(attrs, "email")
	}
	if sa.Phone {
		attrs = append(attrs, "phone_number")
	}
	if sa.Username {
		if sa.PreferredUsername {
			attrs = append(attrs, "preferred_username")
		}
		aliases = attrs
	} else {
		usernames = attrs
	}

	av := auth.AutoVerify
	if av == nil {
		av = &config.AutoVerify{Email: sa.Email, Phone: sa.Phone}
	}
	if av.Email {
		verified = append(verified, "email")
	}
	if av.Phone {
		verified = append(verified, "phone_number")
	}
	return aliases, usernames, verified
}

func userPoolSchema(auth config.Auth) ([]cognito.UserPool_SchemaAttribute, error) {
	var schema []cognito.UserPool_SchemaAttribute
	for _, key := range sortedKeys(auth.StandardAttributes) {
		name, ok := standardAttributes[key]
		if !ok {
			return nil, fmt.Errorf("%w: auth.standardAttributes.%s: unknown attribute", config.ErrInvalid, key)
		}
		attr := auth.StandardAttributes[key]
		mutable := true
		if attr.Mutable != nil {
			mutable = *attr.Mutable
		}
		schema = append(schema, cognito.UserPool_SchemaAttribute{
			Name:              name,
			AttributeDataType: "String",
			Mutable:           mutable,
			Required:          attr.Required,
		})
	}

	for _, name := range sortedKeys(auth.CustomAttributes) {
		attr := auth.CustomAttributes[name]
		build, ok := customAttributeKinds[attr.Type]
		if !ok {
			return nil, fmt.Errorf("%w: auth.customAttributes.%s: unknown type %q", config.ErrInvalid, name, attr.Type)
		}
		schema = append(schema, build(name, attr))
	}
	return schema, nil
}

func (a *assembler) addUserPoolClient() error {
	id := naming.ResourceID(a.stack.Name, "WebClient")
	client, err := a.stack.Add(id, cognito.UserPoolClient{
		UserPoolId:                 a.userPool.Ref(),
		ClientName:                 id,
		GenerateSecret:             false,
		ExplicitAuthFlows:          []any{"ALLOW_USER_SRP_AUTH", "ALLOW_REFRESH_TOKEN_AUTH"},
		SupportedIdentityProviders: []any{"COGNITO"},
	})
	if err != nil {
		return err
	}
	a.client = client
	a.outputs = append(a.outputs, map[string]any{
		"authUserPoolWebClientId": client.Ref(),
	})
	return nil
}

func (a *assembler) addIdentityPool() error {
	auth := a.cfg.Auth
	id := naming.ResourceID(a.stack.Name, "Identities")
	pool, err := a.stack.Add(id, cognito.IdentityPool{
		IdentityPoolName:               id,
		AllowUnauthenticatedIdentities: auth.AllowUnauthenticatedIdentities,
		CognitoIdentityProviders: []cognito.IdentityPool_CognitoIdentityProvider{{
			ClientId:     a.client.Ref(),
			ProviderName: a.userPool.Attr("ProviderName"),
		}},
	})
	if err != nil {
		return err
	}
	a.identityPool = pool
	a.outputs = append(a.outputs, map[string]any{
		"authIdentityPoolId":  pool.Ref(),
		"authMandatorySignIn": strconv.FormatBool(!auth.AllowUnauthenticatedIdentities),
	})
	return nil
}

// addIdentityRoles registers the role federated identities assume, one per
// role type, and attaches them to the identity pool. The unauthenticated
// role exists only when unauthenticated identities are allowed.
func (a *assembler) addIdentityRoles() error {
	roles := map[string]any{}

	type roleType struct {
		name  string
		perms config.RolePermissions
	}
	types := []roleType{{Authenticated, a.cfg.Permissions.Auth.Authenticated}}
	if a.cfg.Auth.AllowUnauthenticatedIdentities {
		types = append(types, roleType{Unauthenticated, a.cfg.Permissions.Auth.Unauthenticated})
	} else if len(a.cfg.Permissions.Auth.Unauthenticated.API) > 0 {
		a.log.Warn("permissions.auth.unauthenticated is ignored, unauthenticated identities are not allowed")
	}

	for _, rt := range types {
		role := iam.Role{
			AssumeRolePolicyDocument: intrinsics.NewPolicyDocument(intrinsics.PolicyStatement{
				Effect:    "Allow",
				Principal: intrinsics.FederatedPrincipal{"cognito-identity.amazonaws.com"},
				Action:    "sts:AssumeRoleWithWebIdentity",
				Condition: intrinsics.Json{
					intrinsics.StringEquals: intrinsics.Json{
						"cognito-identity.amazonaws.com:aud": a.identityPool.Ref(),
					},
					intrinsics.ForAnyValueStringLike: intrinsics.Json{
						"cognito-identity.amazonaws.com:amr": rt.name,
					},
				},
			}),
		}

		if len(rt.perms.API) > 0 {
			resources := make([]any, len(rt.perms.API))
			for i, entry := range rt.perms.API {
				resources[i] = intrinsics.Sub{String: fmt.Sprintf("${%s.Arn}/types/%s", a.api.ID, entry)}
			}
			role.Policies = []iam.Role_Policy{{
				PolicyName:     "GraphQLAccess",
				PolicyDocument: intrinsics.NewPolicyDocument(intrinsics.Allow([]string{"appsync:GraphQL"}, resources...)),
			}}
		}

		h, err := a.stack.Add(naming.ResourceID(a.identityPool.ID, rt.name, "role"), role)
		if err != nil {
			return err
		}
		roles[rt.name] = h.Arn()
	}

	_, err := a.stack.Add(naming.ResourceID(a.identityPool.ID, "RoleAttachment"), cognito.IdentityPoolRoleAttachment{
		IdentityPoolId: a.identityPool.Ref(),
		Roles:          roles,
	})
	return err
}
