package main

import (
	"flag"
	"log"

	"github.com/vocalscribe/vocalscribe/internal/fixtures"
)

// fixturegen produces the canonical scenario WAVs used by tests and demos.
func main() {
	outDir := flag.String("out", "./testdata/audio", "output directory for generated audio")
	sampleRate := flag.Int("sample-rate", 0, "sample rate for generated fixtures (defaults to the pipeline's fixed rate)")
	flag.Parse()

	cfg := fixtures.Config{OutputDir: *outDir, SampleRate: *sampleRate}

	manifest, err := fixtures.Generate(cfg)
	if err != nil {
		log.Fatalf("generate fixtures: %v", err)
	}

	log.Printf("fixturegen wrote %d fixtures to %s (sample_rate=%d)", len(manifest.Fixtures), *outDir, manifest.SampleRate)
}
