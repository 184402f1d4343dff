package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResourceID(t *testing.T) {
	tests := []struct {
		name     string
		parts    []string
		expected string
	}{
		{"lower parts", []string{"orders", "table"}, "OrdersTable"},
		{"title parts", []string{"Orders", "Table"}, "OrdersTable"},
		{"artifact", []string{"app", "dev"}, "AppDev"},
		{"empty parts skipped", []string{"", "none", "", "DataSource"}, "NoneDataSource"},
		{"kebab folder", []string{"AppDev", "auth-pre-signup-trigger"}, "AppDevAuthPreSignupTrigger"},
		{"camel field", []string{"Query", "getUser"}, "QueryGetUser"},
		{"snake name", []string{"user_orders"}, "UserOrders"},
		{"acronym", []string{"XMLParser"}, "XmlParser"},
		{"digits", []string{"v2", "api"}, "V2Api"},
		{"nothing", []string{"", ""}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResourceID(tt.parts...))
		})
	}
}

func TestResourceID_Deterministic(t *testing.T) {
	first := ResourceID("app", "dev", "hello", "ServiceRole")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ResourceID("app", "dev", "hello", "ServiceRole"))
	}
	assert.Equal(t, "AppDevHelloServiceRole", first)
}

func TestCamel(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"lambda-hello-arn", "lambdaHelloArn"},
		{"lambda-auth-pre-signup-trigger-arn", "lambdaAuthPreSignupTriggerArn"},
		{"GetUser", "getUser"},
		{"get_user", "getUser"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, Camel(tt.in))
		})
	}
}

func TestParam(t *testing.T) {
	assert.Equal(t, "app-dev-postgres-cluster", Param("AppDevPostgresCluster"))
	assert.Equal(t, "orders", Param("Orders"))
}

func TestWords(t *testing.T) {
	tests := []struct {
		in       string
		expected []string
	}{
		{"fooBar", []string{"foo", "Bar"}},
		{"XMLHttpRequest", []string{"XML", "Http", "Request"}},
		{"a.b-c_d e", []string{"a", "b", "c", "d", "e"}},
		{"version2Beta", []string{"version2", "Beta"}},
		{"---", nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, Words(tt.in))
		})
	}
}
