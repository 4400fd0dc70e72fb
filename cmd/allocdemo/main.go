// Command allocdemo drives an alligator.Allocator from the command line, for
// manually exercising alloc/dealloc without embedding it in a real
// WebAssembly guest.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Noah-Huppert/alligator-wasm-alloc"
)

func main() {
	var (
		heapKind    = flag.String("heap", "dev", "Backing heap: dev (Go slice) or wazero")
		maxPages    = flag.Uint("max-pages", 0, "Override MaxHostPages (0 = default)")
		script      = flag.String("script", "", "Path to a file of newline-separated commands to run non-interactively")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	opts := []alligator.Option{}
	if *maxPages > 0 {
		opts = append(opts, alligator.WithMaxHostPages(uint32(*maxPages)))
	}
	cfg := alligator.NewConfig(opts...)

	heap, closeHeap, err := newHeap(*heapKind, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeHeap()

	a := alligator.New(heap, cfg)

	if *interactive {
		if err := runInteractive(a); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *script != "" {
		if err := runScript(a, *script); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println("Usage: allocdemo -i                 (interactive mode)")
	fmt.Println("       allocdemo -script <file>     (batch mode)")
	fmt.Println()
	fmt.Println("Commands: alloc <size> [align]  dealloc <ptr> [size] [align]  stats  quit")
}

func newHeap(kind string, cfg alligator.Config) (alligator.Heap, func(), error) {
	switch kind {
	case "dev":
		return alligator.NewDevHeap(cfg), func() {}, nil
	case "wazero":
		h, err := alligator.NewWazeroHeap(context.Background(), cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("create wazero heap: %w", err)
		}
		return h, func() { _ = h.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown heap kind %q, want dev or wazero", kind)
	}
}

func runScript(a *alligator.Allocator, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open script: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		result, err := runCommand(a, line)
		if err != nil {
			fmt.Printf("%s -> error: %v\n", line, err)
			continue
		}
		fmt.Printf("%s -> %s\n", line, result)
	}
	return scanner.Err()
}

// runCommand parses and executes one command against a, returning its
// human-readable result. Shared by batch mode and the interactive TUI.
func runCommand(a *alligator.Allocator, line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}

	switch fields[0] {
	case "alloc":
		size, align, err := parseSizeAlign(fields[1:])
		if err != nil {
			return "", err
		}
		ptr, err := a.Alloc(size, align)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("ptr=0x%x", ptr), nil

	case "dealloc":
		if len(fields) < 2 {
			return "", fmt.Errorf("dealloc requires <ptr> [size] [align]")
		}
		ptr, err := parseUint32(fields[1])
		if err != nil {
			return "", err
		}
		size, align, err := parseSizeAlign(fields[2:])
		if err != nil {
			return "", err
		}
		a.Dealloc(ptr, size, align)
		return "ok", nil

	case "stats":
		return formatMetrics(a.Metrics()), nil

	default:
		return "", fmt.Errorf("unknown command %q", fields[0])
	}
}

func parseSizeAlign(fields []string) (size, align uint32, err error) {
	size, align = 8, 8
	if len(fields) >= 1 {
		size, err = parseUint32(fields[0])
		if err != nil {
			return 0, 0, err
		}
	}
	if len(fields) >= 2 {
		align, err = parseUint32(fields[1])
		if err != nil {
			return 0, 0, err
		}
	}
	return size, align, nil
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return uint32(v), nil
}

func formatMetrics(m alligator.Metrics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "allocs=%d deallocs=%d bytes_in_use=%d high_water=0x%x",
		m.Allocations, m.Deallocations, m.BytesInUse, m.HighWater)
	if m.LastFailure != nil {
		fmt.Fprintf(&b, " last_failure=%v", m.LastFailure)
	}
	return b.String()
}
