package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"

	"github.com/btree-query-bench/leafchain/index/bplustree"
)

type Cli struct {
	scanner *bufio.Scanner
	out     io.Writer
	tree    *bplustree.Tree[string, string]

	key, val, warn, ok *color.Color
}

func NewCli(s *bufio.Scanner, out io.Writer, t *bplustree.Tree[string, string]) *Cli {
	return &Cli{
		scanner: s,
		out:     out,
		tree:    t,
		key:     color.New(color.FgCyan, color.Bold),
		val:     color.New(color.FgWhite),
		warn:    color.New(color.FgYellow),
		ok:      color.New(color.FgGreen),
	}
}

// Start reads commands until EXIT or the end of input.
func (c *Cli) Start() {
	c.printHelp()
	c.printPrompt()
	for c.scanner.Scan() {
		if !c.processInput(c.scanner.Text()) {
			return
		}
		c.printPrompt()
	}
}

func (c *Cli) printHelp() {
	fmt.Fprintln(c.out, `
B+tree CLI

Available Commands:
  SET <key> <val>   Insert or overwrite a key-value pair
  GET <key>         Retrieve the value for key
  DEL <key>         Remove a key-value pair
  SCAN              List every pair in key order
  RANGE <lo> <hi>   List pairs with lo <= key <= hi
  STATS             Show the shape of the tree
  CHECK             Verify the tree's invariants
  DOT <file>        Write the tree as a Graphviz digraph
  HELP              Show this message
  EXIT              Terminate this session`)
}

func (c *Cli) printPrompt() {
	fmt.Fprint(c.out, "> ")
}

// processInput runs one command line and reports whether to keep reading.
func (c *Cli) processInput(line string) bool {
	fields := strings.Fields(line)
	if len(fields) < 1 {
		return true
	}
	command := strings.ToLower(fields[0])
	switch command {
	default:
		c.warn.Fprintf(c.out, "Unknown command %q\n", command)
	case "set":
		c.processSetCommand(fields[1:])
	case "get":
		c.processGetCommand(fields[1:])
	case "del":
		c.processDeleteCommand(fields[1:])
	case "scan":
		c.processScanCommand(fields[1:])
	case "range":
		c.processRangeCommand(fields[1:])
	case "stats":
		c.processStatsCommand()
	case "check":
		c.processCheckCommand()
	case "dot":
		c.processDotCommand(fields[1:])
	case "help":
		c.printHelp()
	case "exit":
		return false
	}
	return true
}

func (c *Cli) processSetCommand(args []string) {
	if len(args) != 2 {
		c.warn.Fprintln(c.out, "Usage: SET <key> <value>")
		return
	}
	c.tree.Insert(args[0], args[1])
	c.ok.Fprintln(c.out, "OK")
}

func (c *Cli) processGetCommand(args []string) {
	if len(args) != 1 {
		c.warn.Fprintln(c.out, "Usage: GET <key>")
		return
	}
	val, found := c.tree.Get(args[0])
	if !found {
		c.warn.Fprintln(c.out, "Key not found.")
		return
	}
	c.val.Fprintln(c.out, val)
}

func (c *Cli) processDeleteCommand(args []string) {
	if len(args) != 1 {
		c.warn.Fprintln(c.out, "Usage: DEL <key>")
		return
	}
	if !c.tree.Delete(args[0]) {
		c.warn.Fprintln(c.out, "Key not found.")
		return
	}
	c.ok.Fprintln(c.out, "OK")
}

func (c *Cli) processScanCommand(args []string) {
	if len(args) != 0 {
		c.warn.Fprintln(c.out, "Usage: SCAN")
		return
	}
	n := 0
	for k, v := range c.tree.Scan() {
		c.printPair(k, v)
		n++
	}
	c.ok.Fprintf(c.out, "(%d entries)\n", n)
}

func (c *Cli) processRangeCommand(args []string) {
	if len(args) != 2 {
		c.warn.Fprintln(c.out, "Usage: RANGE <lo> <hi>")
		return
	}
	n := 0
	for k, v := range c.tree.Range(args[0], args[1]) {
		c.printPair(k, v)
		n++
	}
	c.ok.Fprintf(c.out, "(%d entries)\n", n)
}

func (c *Cli) processStatsCommand() {
	st := c.tree.Stats()
	fmt.Fprintf(c.out, "entries=%d height=%d leaves=%d (empty %d) internals=%d fill=%.1f%% fanout=%d split-at=%d\n",
		st.Entries, st.Height, st.Leaves, st.EmptyLeaves, st.Internals, st.Fill*100,
		c.tree.Max(), c.tree.SplitThreshold())
}

func (c *Cli) processCheckCommand() {
	if err := c.tree.Check(); err != nil {
		c.warn.Fprintf(c.out, "Invariant violated: %v\n", err)
		return
	}
	c.ok.Fprintln(c.out, "OK")
}

func (c *Cli) processDotCommand(args []string) {
	if len(args) != 1 {
		c.warn.Fprintln(c.out, "Usage: DOT <file>")
		return
	}
	f, err := os.Create(args[0])
	if err != nil {
		c.warn.Fprintf(c.out, "Cannot create %s: %v\n", args[0], err)
		return
	}
	if err := errors.CombineErrors(c.tree.WriteDOT(f), f.Close()); err != nil {
		c.warn.Fprintf(c.out, "Cannot write %s: %v\n", args[0], err)
		return
	}
	c.ok.Fprintf(c.out, "Wrote %s; render it with: dot -Tpng %s -o tree.png\n", args[0], args[0])
}

func (c *Cli) printPair(k, v string) {
	c.key.Fprint(c.out, k)
	fmt.Fprint(c.out, " ")
	c.val.Fprintln(c.out, v)
}
