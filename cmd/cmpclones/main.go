// cmpclones compares the cluster output of two clonescan runs (e.g.
// before and after a refactor) and reports how fragment membership
// across clusters has shifted: which fragments are clustered in both
// runs, which lost their cluster, which gained one, and which moved to
// a cluster with different members. With -dot, it also emits a
// weighted undirected graph in DOT format connecting corresponding
// clusters from each run by the size of their member overlap.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"
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
	aFile := flag.String("a", "", "specify the first clonescan output file (required)")
	bFile := flag.String("b", "", "specify the second clonescan output file (required)")
	out := flag.String("dot", "", "specify path prefix for a DOT file describing cluster correspondence")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), `Usage of %[1]s:
  $ %[1]s -a <run1.json> -b <run2.json> [-dot prefix]

Options:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if *aFile == "" || *bFile == "" {
		flag.Usage()
		os.Exit(2)
	}

	a, err := readClusters(*aFile)
	if err != nil {
		log.Fatal(err)
	}
	b, err := readClusters(*bFile)
	if err != nil {
		log.Fatal(err)
	}

	aClusterOf := fragmentToClusterIndex(a)
	bClusterOf := fragmentToClusterIndex(b)

	var agree, aOnly, bOnly, moved int
	seen := make(map[string]bool)
	for id := range aClusterOf {
		seen[id] = true
	}
	for id := range bClusterOf {
		seen[id] = true
	}
	for id := range seen {
		ai, inA := aClusterOf[id]
		bi, inB := bClusterOf[id]
		switch {
		case inA && !inB:
			aOnly++
		case !inA && inB:
			bOnly++
		case sameClusterMembership(a[ai], b[bi]):
			agree++
		default:
			moved++
		}
	}

	report := struct {
		Agree int `json:"agree"`
		AOnly int `json:"a_only"`
		BOnly int `json:"b_only"`
		Moved int `json:"moved"`
	}{Agree: agree, AOnly: aOnly, BOnly: bOnly, Moved: moved}

	m, err := json.Marshal(report)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s\n", m)

	if *out != "" {
		if err := writeDot(*out+".dot", a, b); err != nil {
			log.Fatal(err)
		}
	}
}

func readClusters(path string) ([]clusterJSON, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	var out []clusterJSON
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		var c clusterJSON
		if err := json.Unmarshal(sc.Bytes(), &c); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		out = append(out, c)
	}
	return out, sc.Err()
}

func fragmentToClusterIndex(clusters []clusterJSON) map[string]int {
	out := make(map[string]int)
	for i, c := range clusters {
		for _, m := range c.Members {
			out[m.ID] = i
		}
	}
	return out
}

func memberSet(c clusterJSON) map[string]bool {
	s := make(map[string]bool, len(c.Members))
	for _, m := range c.Members {
		s[m.ID] = true
	}
	return s
}

func sameClusterMembership(a, b clusterJSON) bool {
	as, bs := memberSet(a), memberSet(b)
	if len(as) != len(bs) {
		return false
	}
	for id := range as {
		if !bs[id] {
			return false
		}
	}
	return true
}

func writeDot(path string, a, b []clusterJSON) error {
	g := newClusterGraph()
	for i, ca := range a {
		as := memberSet(ca)
		for j, cb := range b {
			overlap := 0
			for id := range memberSet(cb) {
				if as[id] {
					overlap++
				}
			}
			if overlap == 0 {
				continue
			}
			g.SetWeightedEdge(edge{
				f: g.nodeFor("a", i),
				t: g.nodeFor("b", j),
				w: float64(overlap),
			})
		}
	}
	bytes, err := dot.Marshal(g, "clusters", "", "\t")
	if err != nil {
		return err
	}
	return ioutil.WriteFile(path, bytes, 0o644)
}

type clusterGraph struct {
	*simple.WeightedUndirectedGraph
	idFor map[string]int64
}

func newClusterGraph() clusterGraph {
	return clusterGraph{
		WeightedUndirectedGraph: simple.NewWeightedUndirectedGraph(0, 0),
		idFor:                   make(map[string]int64),
	}
}

func (g clusterGraph) nodeFor(run string, idx int) graph.Node {
	key := fmt.Sprintf("%s:%d", run, idx)
	id, ok := g.idFor[key]
	if ok {
		return g.Node(id)
	}
	id = g.WeightedUndirectedGraph.NewNode().ID()
	g.idFor[key] = id
	n := node{id: id, name: key}
	g.AddNode(n)
	return n
}

type node struct {
	id   int64
	name string
}

func (n node) ID() int64     { return n.id }
func (n node) DOTID() string { return n.name }

type edge struct {
	f, t graph.Node
	w    float64
}

func (e edge) From() graph.Node         { return e.f }
func (e edge) To() graph.Node           { return e.t }
func (e edge) ReversedEdge() graph.Edge { return edge{f: e.t, t: e.f, w: e.w} }
func (e edge) Weight() float64          { return e.w }
func (e edge) Attributes() []encoding.Attribute {
	return []encoding.Attribute{{Key: "weight", Value: fmt.Sprint(e.w)}}
}
