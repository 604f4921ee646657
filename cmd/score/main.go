// Command score prints Sea Salt & Paper scores for card declarations given as
// arguments or, without arguments, one per line on stdin.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gamemaster/gamemaster-server-go/internal/scoring"
)

var bonus = flag.Bool("bonus", false, "compute the color bonus instead of the card score")

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: score [-bonus] [cards...]\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	evaluate := func(text string) string {
		return scoring.EvaluateScore(text).Text()
	}
	if *bonus {
		evaluate = scoring.ComputeColorBonus
	}

	if flag.NArg() > 0 {
		fmt.Println(evaluate(strings.Join(flag.Args(), " ")))
		return
	}

	if err := run(os.Stdin, os.Stdout, evaluate); err != nil {
		fmt.Fprintf(os.Stderr, "score: %v\n", err)
		os.Exit(1)
	}
}

// run evaluates every non-blank line of r and writes the results to w,
// separated by blank lines.
func run(r io.Reader, w io.Writer, evaluate func(string) string) error {
	scanner := bufio.NewScanner(r)
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !first {
			fmt.Fprintln(w)
		}
		first = false
		fmt.Fprintln(w, evaluate(line))
	}
	return scanner.Err()
}
