package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// repl feeds each non-empty line of in to handle until "exit", "quit" or
// EOF. Piped input gets no prompt.
func repl(in *os.File, out io.Writer, prompt string, handle func(line string) error) error {
	stat, _ := in.Stat()
	interactive := stat != nil && stat.Mode()&os.ModeCharDevice != 0

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		if interactive {
			fmt.Fprint(out, prompt)
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		if err := handle(line); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}
