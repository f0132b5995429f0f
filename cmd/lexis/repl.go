// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/poiesic/lexis"
	"github.com/poiesic/lexis/session"
	"github.com/urfave/cli/v2"
)

// presets maps the REPL shortcuts 1-8 to sample queries.
var presets = []struct {
	Label string
	Query string
}{
	{"Divorce requirements", "divorce requirements separation"},
	{"Property settlement", "property settlement division assets"},
	{"Child custody", "child custody parenting arrangements"},
	{"Spousal maintenance", "spousal maintenance financial support"},
	{"Family violence protection", "family violence protection order"},
	{"Application forms", "application form affidavit"},
	{"Court procedures", "court procedure hearing trial"},
	{"De facto relationships", "de facto relationship"},
}

func replCommand() *cli.Command {
	return &cli.Command{
		Name:  "repl",
		Usage: "Interactive search prompt",
		Flags: append(sourceFlags(),
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of results per query",
				Value:   3,
			},
		),
		Action: replAction,
	}
}

func replAction(c *cli.Context) error {
	lib, err := openLibrary(c, nil)
	if err != nil {
		return err
	}

	r := &repl{
		lib:     lib,
		sess:    session.New(),
		in:      c.App.Reader,
		out:     c.App.Writer,
		styles:  getStyles(c.Bool("no-color")),
		limit:   c.Int("limit"),
		timeout: appConfig(c).Search.Timeout,
	}
	return r.run(c.Context)
}

type repl struct {
	lib     *lexis.Library
	sess    *session.Session
	in      io.Reader
	out     io.Writer
	styles  styles
	limit   int
	timeout time.Duration
}

func (r *repl) banner() {
	fmt.Fprintln(r.out, r.styles.Header.Render("lexis interactive search"))
	fmt.Fprintln(r.out, "Presets (enter a number):")
	for i, p := range presets {
		fmt.Fprintf(r.out, "  %d. %s\n", i+1, p.Label)
	}
	fmt.Fprintln(r.out, "Commands: history, clear, stats, quit")
	fmt.Fprintln(r.out)
}

// run reads queries until EOF or a quit command.
func (r *repl) run(ctx context.Context) error {
	r.banner()

	scanner := bufio.NewScanner(r.in)
	for {
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}
		if done := r.handle(ctx, strings.TrimSpace(scanner.Text())); done {
			return nil
		}
	}
}

// handle processes one input line and reports whether the loop should stop.
func (r *repl) handle(ctx context.Context, line string) bool {
	if line == "" {
		return false
	}

	switch strings.ToLower(line) {
	case "quit", "exit", "q":
		fmt.Fprintln(r.out, "Bye.")
		return true
	case "history":
		r.printHistory()
		return false
	case "clear":
		r.sess.Clear()
		fmt.Fprintln(r.out, "History cleared.")
		return false
	case "stats":
		renderStats(r.out, r.styles, r.lib.Index())
		return false
	}

	query := line
	if p, ok := preset(line); ok {
		query = p
		fmt.Fprintf(r.out, "Using preset: %s\n", query)
	}

	searchCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	results, err := r.lib.Search(searchCtx, r.sess, query, r.limit)
	if err != nil {
		fmt.Fprintln(r.out, r.styles.Error.Render("Error: "+err.Error()))
		return false
	}
	renderResults(r.out, r.styles, query, results)
	if len(results) == 0 && r.sess.Language() == session.Chinese {
		fmt.Fprintln(r.out, r.styles.Dim.Render("Tip: the corpus is English; try English keywords."))
	}
	return false
}

func preset(line string) (string, bool) {
	if len(line) != 1 || line[0] < '1' || line[0] > '0'+byte(len(presets)) {
		return "", false
	}
	return presets[line[0]-'1'].Query, true
}

func (r *repl) printHistory() {
	entries := r.sess.Recent(10)
	if len(entries) == 0 {
		fmt.Fprintln(r.out, "No searches yet.")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(r.out, "%s  %-40s %d results\n", e.Timestamp.Format("15:04:05"), e.Query, e.ResultCount)
	}
}
