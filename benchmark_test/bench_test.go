package vectree_bench_test

import (
	"fmt"
	"testing"

	"github.com/hupe1980/vectree"
	"github.com/hupe1980/vectree/distance"
	"github.com/hupe1980/vectree/index"
	"github.com/hupe1980/vectree/testutil"
)

var benchAlgorithms = []index.Algorithm{
	index.AlgorithmBruteForce,
	index.AlgorithmKDTree,
	index.AlgorithmVPTree,
}

func formatDim(dim int) string {
	return fmt.Sprintf("dim_%d", dim)
}

func seedLibrary(b *testing.B, algorithm index.Algorithm, dim, size int) *vectree.Library {
	b.Helper()

	lib, err := vectree.New(dim, distance.MetricEuclidean, algorithm)
	if err != nil {
		b.Fatal(err)
	}

	rng := testutil.NewRNG(4711)
	for _, v := range rng.UniformVectors(size, dim) {
		if _, err := lib.Add(v, nil); err != nil {
			b.Fatal(err)
		}
	}

	// Incremental inserts leave the trees unbalanced; rebuild so searches
	// are measured against the bulk-built structure.
	if err := lib.Rebuild(algorithm); err != nil {
		b.Fatal(err)
	}

	return lib
}

func BenchmarkInsert(b *testing.B) {
	for _, algorithm := range benchAlgorithms {
		b.Run(algorithm.String(), func(b *testing.B) {
			for _, dim := range []int{16, 128} {
				b.Run(formatDim(dim), func(b *testing.B) {
					lib, err := vectree.New(dim, distance.MetricEuclidean, algorithm)
					if err != nil {
						b.Fatal(err)
					}
					defer lib.Close()

					rng := testutil.NewRNG(1)
					vec := make([]float32, dim)
					b.ResetTimer()

					for b.Loop() {
						rng.FillUniform(vec)
						if _, err := lib.Add(vec, nil); err != nil {
							b.Fatal(err)
						}
					}
				})
			}
		})
	}
}

func BenchmarkSearch(b *testing.B) {
	const (
		size = 10000
		k    = 10
	)

	for _, algorithm := range benchAlgorithms {
		b.Run(algorithm.String(), func(b *testing.B) {
			for _, dim := range []int{4, 16} {
				b.Run(formatDim(dim), func(b *testing.B) {
					lib := seedLibrary(b, algorithm, dim, size)
					defer lib.Close()

					rng := testutil.NewRNG(2)
					query := make([]float32, dim)
					b.ResetTimer()

					for b.Loop() {
						rng.FillUniform(query)
						if _, err := lib.Search(query, k); err != nil {
							b.Fatal(err)
						}
					}
				})
			}
		})
	}
}

func BenchmarkRebuild(b *testing.B) {
	const (
		size = 5000
		dim  = 8
	)

	for _, algorithm := range benchAlgorithms {
		b.Run(algorithm.String(), func(b *testing.B) {
			lib := seedLibrary(b, algorithm, dim, size)
			defer lib.Close()

			b.ResetTimer()
			for b.Loop() {
				if err := lib.Rebuild(algorithm); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkSearchParallel(b *testing.B) {
	const (
		size = 10000
		dim  = 8
		k    = 10
	)

	for _, algorithm := range benchAlgorithms {
		b.Run(algorithm.String(), func(b *testing.B) {
			lib := seedLibrary(b, algorithm, dim, size)
			defer lib.Close()

			rng := testutil.NewRNG(3)
			b.ResetTimer()

			b.RunParallel(func(pb *testing.PB) {
				query := make([]float32, dim)
				for pb.Next() {
					rng.FillUniform(query)
					if _, err := lib.Search(query, k); err != nil {
						b.Error(err)
						return
					}
				}
			})
		})
	}
}
