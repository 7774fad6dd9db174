package cmd

import (
	"bufio"
	"io"
)

// readLines streams lines from r so callers can select on input alongside
// timers. The channel is closed at EOF.
func readLines(r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			ch <- sc.Text()
		}
	}()
	return ch
}
