package engine

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func BenchmarkEngineValidate(b *testing.B) {
	input := generateInput(50000)
	set := testSet(b)

	for _, threads := range []int{1, 4, 8} {
		for _, batch := range []int{1000, 100000} {
			b.Run(fmt.Sprintf("threads=%d/batch=%d", threads, batch), func(b *testing.B) {
				e, err := New(set, Options{Threads: threads, BatchSize: batch})
				if err != nil {
					b.Fatal(err)
				}
				b.SetBytes(int64(len(input)))
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					if _, err := e.Validate(context.Background(), strings.NewReader(input)); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkEnginePreserveOrder(b *testing.B) {
	input := generateInput(50000)
	e, err := New(testSet(b), Options{Threads: 8, BatchSize: 1000, PreserveOrder: true})
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(input)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := e.Validate(context.Background(), strings.NewReader(input)); err != nil {
			b.Fatal(err)
		}
	}
}
