package template

import (
	"fmt"
	"testing"
)

// chain builds n resources where each one references its predecessor.
func chain(b *testing.B, n int) *Builder {
	b.Helper()
	builder := NewBuilder("")
	for i := 0; i < n; i++ {
		props := map[string]any{"Name": fmt.Sprintf("Resolver%d", i)}
		if i > 0 {
			props["ApiId"] = ref(fmt.Sprintf("Resolver%d", i-1))
		}
		if err := builder.AddResource(fmt.Sprintf("Resolver%d", i), Resource{
			Type:       "AWS::AppSync::Resolver",
			Properties: props,
		}); err != nil {
			b.Fatal(err)
		}
	}
	return builder
}

func BenchmarkBuild(b *testing.B) {
	for _, size := range []int{10, 50, 100, 200} {
		b.Run(fmt.Sprintf("resources_%d", size), func(b *testing.B) {
			builder := chain(b, size)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := builder.Build(); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkToJSON(b *testing.B) {
	for _, size := range []int{10, 50, 100} {
		b.Run(fmt.Sprintf("resources_%d", size), func(b *testing.B) {
			tmpl, err := chain(b, size).Build()
			if err != nil {
				b.Fatal(err)
			}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := ToJSON(tmpl); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
