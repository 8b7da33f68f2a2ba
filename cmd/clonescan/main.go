// clonescan walks a directory of source files, splits them into
// fragments, embeds and indexes every fragment, then reports clone
// clusters as a JSON stream on stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/fragmenthash/lshindex/clone"
	"github.com/fragmenthash/lshindex/fragment"
	"github.com/fragmenthash/lshindex/internal/logctx"
	"github.com/fragmenthash/lshindex/internal/stubembed"
	"github.com/fragmenthash/lshindex/internal/stubparse"
	"github.com/fragmenthash/lshindex/lsh"
	"github.com/fragmenthash/lshindex/persist"
)

func main() {
	root := flag.String("dir", "", "specify root directory to scan (required)")
	ext := flag.String("ext", ".go", "specify file extension to scan")
	minSim := flag.Float64("min-similarity", 0.85, "specify minimum cluster similarity")
	numTables := flag.Int("tables", 16, "specify number of LSH tables (L)")
	numBits := flag.Int("bits", 12, "specify number of hyperplane bits per table (K)")
	dimension := flag.Int("dim", 64, "specify embedding dimension")
	seed := flag.Int64("seed", 42, "specify deterministic hash seed")
	dbPath := flag.String("db", "", "specify path to persist the index to (optional)")
	verbose := flag.Bool("verbose", false, "specify verbose logging")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), `Usage of %[1]s:
  $ %[1]s -dir <src> [options] >clusters.json

Options:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *root == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := logctx.Default()
	if !*verbose {
		logger = logctx.New(ioutil.Discard)
	}

	cfg := lsh.Config{
		NumTables:     *numTables,
		NumBits:       *numBits,
		Dimension:     *dimension,
		Seed:          uint64(*seed),
		MaxBucketSize: 256,
		Overflow:      lsh.Overflow{Enabled: true, MaxChainLen: 8},
		MultiProbe:    lsh.MultiProbe{Enabled: true, NumProbes: 4, Scored: true},
		Analytics:     true,
	}

	index, err := lsh.NewIndex(cfg)
	if err != nil {
		logger.Fatalf("building index: %v", err)
	}

	embedder := stubembed.New(*dimension)
	parser := stubparse.New(20, 60)

	logger.Printf("scanning %s for *%s", *root, *ext)
	n, err := indexDirectory(index, parser, embedder, *root, *ext, logger)
	if err != nil {
		logger.Fatalf("indexing: %v", err)
	}
	logger.Printf("indexed %d fragments", n)

	if *dbPath != "" {
		kv, err := persist.OpenKV(*dbPath)
		if err != nil {
			logger.Fatalf("opening db: %v", err)
		}
		defer kv.Close()
		if err := index.Save(kv); err != nil {
			logger.Fatalf("saving index: %v", err)
		}
	}

	engine, err := clone.NewEngine(clone.Config{Index: index, Embedder: embedder})
	if err != nil {
		logger.Fatalf("building engine: %v", err)
	}

	clusters, err := engine.FindAllClones(clone.FindAllClonesOptions{MinSimilarity: *minSim})
	if err != nil {
		logger.Fatalf("finding clones: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	for _, c := range clusters {
		if err := enc.Encode(clusterJSON{
			Type:          c.Type.String(),
			AvgSimilarity: c.AvgSimilarity,
			Members:       memberLocators(c.Members),
		}); err != nil {
			logger.Fatalf("writing cluster: %v", err)
		}
	}
}

type clusterJSON struct {
	Type          string     `json:"type"`
	AvgSimilarity float64    `json:"avg_similarity"`
	Members       []location `json:"members"`
}

type location struct {
	ID        string `json:"id"`
	Path      string `json:"path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

func memberLocators(members []fragment.Fragment) []location {
	out := make([]location, len(members))
	for i, m := range members {
		out[i] = location{ID: string(m.ID), Path: m.Locator.Path, StartLine: m.Locator.StartLine, EndLine: m.Locator.EndLine}
	}
	return out
}

func indexDirectory(index *lsh.Index, parser clone.Parser, embedder clone.Embedder, root, ext string, logger *logctx.Logger) (int, error) {
	ctx := context.Background()
	n := 0
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ext) {
			return nil
		}
		src, err := ioutil.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		results, err := parser.Parse(ctx, path, strings.TrimPrefix(ext, "."), string(src))
		if err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		for i, r := range results {
			v, err := embedder.Embed(ctx, r.NormalizedText)
			if err != nil {
				return fmt.Errorf("embedding %s fragment %d: %w", path, i, err)
			}
			id := fmt.Sprintf("%s:%d:%d", path, r.Locator.StartLine, r.Locator.EndLine)
			f := fragment.Fragment{
				ID:             id,
				Locator:        r.Locator,
				Language:       strings.TrimPrefix(ext, "."),
				Kind:           r.Kind,
				NormalizedText: r.NormalizedText,
			}
			ok, err := index.Insert(f, v)
			if err != nil {
				return fmt.Errorf("inserting %s: %w", id, err)
			}
			if ok {
				n++
			} else {
				logger.Printf("fragment %s rejected by every table (bucket capacity exceeded)", id)
			}
		}
		return nil
	})
	return n, err
}
