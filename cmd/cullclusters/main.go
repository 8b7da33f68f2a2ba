// cullclusters discards clusters whose member set is a proper subset of
// a higher-quality cluster's, the same contained-feature culling shape
// the teacher's own cull tool applies to genomic intervals, but applied
// to cluster membership-set containment instead of coordinate ranges: a
// cluster survives unless some other cluster with a strictly higher
// avg_similarity has all of its members plus at least one more.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
)

type location struct {
	ID        string `json:"id"`
	Path      string `json:"path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

type clusterJSON struct {
	Type          string     `json:"type"`
	AvgSimilarity float64    `json:"avg_similarity"`
	Members       []location `json:"members"`
}

func main() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: cullclusters < clusters.json > culled.json")
	}
	flag.Parse()

	sc := bufio.NewScanner(os.Stdin)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var clusters []clusterJSON
	for sc.Scan() {
		var c clusterJSON
		if err := json.Unmarshal(sc.Bytes(), &c); err != nil {
			log.Fatalf("parsing cluster record: %v", err)
		}
		clusters = append(clusters, c)
	}
	if err := sc.Err(); err != nil {
		log.Fatal(err)
	}

	enc := json.NewEncoder(os.Stdout)
	for _, c := range cullContained(clusters) {
		if err := enc.Encode(c); err != nil {
			log.Fatalf("writing cluster: %v", err)
		}
	}
}

// cullContained drops any cluster whose member-id set is a proper
// subset of a cluster with strictly higher avg_similarity.
func cullContained(clusters []clusterJSON) []clusterJSON {
	sets := make([]map[string]bool, len(clusters))
	for i, c := range clusters {
		s := make(map[string]bool, len(c.Members))
		for _, m := range c.Members {
			s[m.ID] = true
		}
		sets[i] = s
	}

	var culled []clusterJSON
outer:
	for i, c := range clusters {
		for j, other := range clusters {
			if i == j || other.AvgSimilarity <= c.AvgSimilarity {
				continue
			}
			if isSubset(sets[i], sets[j]) {
				continue outer
			}
		}
		culled = append(culled, c)
	}
	return culled
}

func isSubset(small, big map[string]bool) bool {
	if len(small) == 0 || len(small) >= len(big) {
		return false
	}
	for id := range small {
		if !big[id] {
			return false
		}
	}
	return true
}
