// Command matchtest scores a screenshot against every template in a store
// document and prints the per-feature results.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"hmi-config/internal/condition"
	"hmi-config/internal/matcher"
	"hmi-config/internal/ocr"
	"hmi-config/internal/store"
)

func main() {
	storePath := flag.String("s", "templates.json", "Path to template store document")
	input := flag.String("i", "", "Path to screenshot to match")
	threshold := flag.Float64("t", 0.9, "Feature score threshold")
	workers := flag.Int("w", 4, "Concurrent template scans")
	readParams := flag.Bool("ocr", false, "Extract parameter values from the matched template")
	flag.Parse()

	if *input == "" {
		fmt.Println("Usage: matchtest -i <screenshot> [-s <store>] [-t <threshold>] [-ocr]")
		os.Exit(1)
	}

	st := store.Open(*storePath)
	doc := st.Snapshot()
	if len(doc.Images) == 0 {
		fmt.Fprintf(os.Stderr, "Store %s has no templates\n", *storePath)
		os.Exit(1)
	}

	m := matcher.New(matcher.Options{Threshold: *threshold, Workers: *workers})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fmt.Printf("=== Scoring %s against %d templates ===\n", *input, len(doc.Images))
	results, err := m.ScoreAll(ctx, *input, doc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scoring failed: %v\n", err)
		os.Exit(1)
	}

	var matched *matcher.Result
	for i := range results {
		res := &results[i]
		verdict := "no match"
		if res.Found {
			verdict = "MATCH"
			if matched == nil {
				matched = res
			}
		}
		fmt.Printf("\nTemplate %d: %s (min %.3f, mean %.3f)\n",
			res.TemplateID, verdict, res.MinScore, res.MeanScore)
		for _, fs := range res.Scores {
			mark := " "
			if fs.Score >= *threshold {
				mark = "*"
			}
			fmt.Printf("  %s feature %d %-20s %.3f\n", mark, fs.ItemID, fs.Name, fs.Score)
		}
	}

	if matched == nil {
		fmt.Println("\nNo template matched.")
		return
	}
	fmt.Printf("\n=== Matched template %d ===\n", matched.TemplateID)
	t := doc.Images[matched.TemplateID]

	if !*readParams {
		return
	}

	engine, err := ocr.NewEngine()
	if err != nil {
		fmt.Fprintf(os.Stderr, "OCR init failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	values, err := engine.ReadParameters(*input, t)
	if err != nil {
		fmt.Fprintf(os.Stderr, "OCR failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("\nParameter values:")
	for name, value := range values {
		fmt.Printf("  %-20s %q\n", name, value)
	}

	if len(t.StatusRules) > 0 {
		status, ok, err := condition.ResolveStatus(t.StatusRules, values)
		switch {
		case err != nil:
			fmt.Printf("\nStatus resolution failed: %v\n", err)
		case ok:
			fmt.Printf("\nMachine status: %s\n", status)
		default:
			fmt.Println("\nNo status rule matched.")
		}
	}
}
