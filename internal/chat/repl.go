package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
)

// REPL reads user lines from in and writes streamed answers to out. The
// literal tokens quit/exit (case-insensitive) end the session; blank lines
// are ignored.
type REPL struct {
	chat    *Chat
	session *Session
	in      io.Reader
	out     io.Writer
	logger  *log.Logger
}

func NewREPL(c *Chat, sess *Session, in io.Reader, out io.Writer, logger *log.Logger) *REPL {
	return &REPL{chat: c, session: sess, in: in, out: out, logger: logger}
}

// Run loops until EOF, a quit token, or ctx cancellation. Cancellation while
// awaiting input terminates cleanly, leaving the conversation exactly as it
// stood after the last successful append.
func (r *REPL) Run(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(r.out, "USER: \n")

		var line string
		var ok bool
		select {
		case <-ctx.Done():
			r.logger.Printf("interrupted, exiting")
			fmt.Fprintln(r.out)
			return nil
		case line, ok = <-lines:
			if !ok {
				return nil
			}
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		switch strings.ToLower(input) {
		case "quit", "exit":
			r.logger.Printf("exiting")
			return nil
		}

		fmt.Fprint(r.out, "\nASSISTANT:\n")
		err := r.chat.Respond(ctx, r.session, input, func(token string) error {
			_, werr := io.WriteString(r.out, token)
			return werr
		})
		if err != nil {
			// The session continues; only this turn's answer is lost.
			r.logger.Printf("respond: %v", err)
			fmt.Fprintln(r.out, "\n[ERROR] Sorry, I encountered a problem while generating my response.")
			continue
		}
		fmt.Fprint(r.out, "\n\n")
	}
}
