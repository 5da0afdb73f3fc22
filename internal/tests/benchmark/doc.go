// Package benchmark provides performance benchmarks for the pcd device.
//
// Run benchmarks with:
//
//	go test -bench=. -benchmem ./internal/tests/benchmark/...
//
// Compare the serialized and unguarded access paths:
//
//	go test -bench=Parallel -benchmem -count=5 ./internal/tests/benchmark/... | tee bench.txt
//	benchstat bench.txt
package benchmark
