// auditclonedb dumps the contents of a persisted clone index database
// as a JSON stream on stdout, one record per indexed fragment, for
// offline inspection of exactly what a scan has stored.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fragmenthash/lshindex/internal/wirefmt"
	"github.com/fragmenthash/lshindex/lsh"
	"github.com/fragmenthash/lshindex/persist"
)

func main() {
	path := flag.String("db", "", "specify db file to audit (required)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), `Usage of %[1]s:
  $ %[1]s -db <index.kv> >records.json

Options:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *path == "" {
		flag.Usage()
		os.Exit(2)
	}

	store, err := persist.OpenKV(*path)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	blob, err := store.Load(lsh.MetadataKey)
	if err == persist.ErrNotFound {
		log.Println("no metadata record present in this db")
		return
	}
	if err != nil {
		log.Fatal(err)
	}

	var rec wirefmt.MetadataRecord
	if err := wirefmt.Decode(blob, &rec); err != nil {
		log.Fatal(err)
	}

	log.Printf("version=%d numTables=%d numBits=%d dimension=%d entries=%d",
		rec.Version, rec.NumTables, rec.NumBits, rec.Dimension, len(rec.Entries))

	enc := json.NewEncoder(os.Stdout)
	for _, e := range rec.Entries {
		if err := enc.Encode(e); err != nil {
			log.Fatalf("failed to write record: %v", err)
		}
	}
}
