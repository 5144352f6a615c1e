package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	metrics "github.com/armon/go-metrics"
	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/hashicorp/go-hclog"

	"github.com/conuredb/bplus/db"
)

var (
	okColor   = color.New(color.FgGreen)
	errColor  = color.New(color.FgRed)
	keyColor  = color.New(color.FgCyan)
	infoColor = color.New(color.FgYellow)
)

var completer = readline.NewPrefixCompleter(
	readline.PcItem("get"),
	readline.PcItem("put"),
	readline.PcItem("delete"),
	readline.PcItem("scan"),
	readline.PcItem("check"),
	readline.PcItem("dump"),
	readline.PcItem("leaves"),
	readline.PcItem("stats"),
	readline.PcItem("help"),
	readline.PcItem("exit"),
	readline.PcItem("quit"),
)

// session runs REPL commands against one database
type session struct {
	db     *db.DB
	sink   *metrics.InmemSink
	out    io.Writer
	logger hclog.Logger
}

// run reads lines until exit or EOF. Ctrl-C on an empty line also exits.
func (s *session) run(rl *readline.Instance) {
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				return
			}
			continue
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			s.logger.Error("read line", "error", err)
			return
		}
		if s.execute(line) {
			return
		}
	}
}

// execute runs a single command line and reports whether the REPL should exit
func (s *session) execute(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}

	cmd := parts[0]
	s.logger.Debug("command", "name", cmd, "args", len(parts)-1)
	switch cmd {
	case "help":
		s.printHelp()
	case "get":
		if len(parts) != 2 {
			s.usage("get <key>")
			return false
		}
		value, err := s.db.Get([]byte(parts[1]))
		if err != nil {
			s.fail(err)
			return false
		}
		fmt.Fprintf(s.out, "%s\n", value)
	case "put":
		if len(parts) < 3 {
			s.usage("put <key> <value>")
			return false
		}
		value := []byte(strings.Join(parts[2:], " "))
		replaced, err := s.db.Put([]byte(parts[1]), value)
		if err != nil {
			s.fail(err)
			return false
		}
		if replaced {
			s.ok("OK (replaced)")
			return false
		}
		s.ok("OK")
	case "delete":
		if len(parts) != 2 {
			s.usage("delete <key>")
			return false
		}
		if _, err := s.db.Delete([]byte(parts[1])); err != nil {
			s.fail(err)
			return false
		}
		s.ok("OK")
	case "scan":
		if len(parts) > 3 {
			s.usage("scan [from] [to]")
			return false
		}
		s.scan(parts[1:])
	case "check":
		if err := s.db.Check(); err != nil {
			s.fail(err)
			return false
		}
		s.ok("OK")
	case "dump":
		dump, err := s.db.Dump()
		if err != nil {
			s.fail(err)
			return false
		}
		fmt.Fprint(s.out, dump)
	case "leaves":
		leaves, err := s.db.Leaves()
		if err != nil {
			s.fail(err)
			return false
		}
		fmt.Fprintln(s.out, leaves)
	case "stats":
		s.stats()
	case "exit", "quit":
		fmt.Fprintln(s.out, "Goodbye!")
		return true
	default:
		fmt.Fprintf(s.out, "%s %s\n", errColor.Sprint("Unknown command:"), cmd)
		s.printHelp()
	}
	return false
}

func (s *session) scan(bounds []string) {
	var from, to []byte
	if len(bounds) > 0 {
		from = []byte(bounds[0])
	}
	if len(bounds) > 1 {
		to = []byte(bounds[1])
	}

	n := 0
	err := s.db.Scan(from, to, func(key, value []byte) bool {
		fmt.Fprintf(s.out, "%s = %s\n", keyColor.Sprint(string(key)), value)
		n++
		return true
	})
	if err != nil {
		s.fail(err)
		return
	}
	fmt.Fprintln(s.out, infoColor.Sprintf("(%d keys)", n))
}

func (s *session) stats() {
	st, err := s.db.Stats()
	if err != nil {
		s.fail(err)
		return
	}
	fmt.Fprintf(s.out, "keys:      %d\n", st.Len)
	fmt.Fprintf(s.out, "height:    %d\n", st.Height)
	fmt.Fprintf(s.out, "nodes:     %d (%d leaves, %d free ids)\n", st.Nodes, st.Leaves, st.FreeIDs)
	fmt.Fprintf(s.out, "splits:    %d\n", st.Splits)
	fmt.Fprintf(s.out, "merges:    %d\n", st.Merges)
	fmt.Fprintf(s.out, "collapses: %d\n", st.Collapses)

	if s.sink == nil {
		return
	}
	counts := make(map[string]int)
	for _, interval := range s.sink.Data() {
		for name, c := range interval.Counters {
			counts[name] += c.Count
		}
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(s.out, "%s %d\n", infoColor.Sprintf("%-24s", name), counts[name])
	}
}

func (s *session) ok(msg string) {
	fmt.Fprintln(s.out, okColor.Sprint(msg))
}

func (s *session) fail(err error) {
	fmt.Fprintf(s.out, "%s %v\n", errColor.Sprint("Error:"), err)
}

func (s *session) usage(u string) {
	fmt.Fprintf(s.out, "Usage: %s\n", u)
}

func (s *session) printHelp() {
	fmt.Fprintln(s.out, "Available commands:")
	fmt.Fprintln(s.out, "  get <key>              - Get a value")
	fmt.Fprintln(s.out, "  put <key> <value>      - Put a key-value pair")
	fmt.Fprintln(s.out, "  delete <key>           - Delete a key")
	fmt.Fprintln(s.out, "  scan [from] [to]       - List keys in [from, to)")
	fmt.Fprintln(s.out, "  check                  - Verify the tree structure")
	fmt.Fprintln(s.out, "  dump                   - Print the tree level by level")
	fmt.Fprintln(s.out, "  leaves                 - Print the leaf chain")
	fmt.Fprintln(s.out, "  stats                  - Show tree shape and operation counters")
	fmt.Fprintln(s.out, "  help                   - Show this help message")
	fmt.Fprintln(s.out, "  exit, quit             - Exit the program")
}
