package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Message is one decoded line: an opcode and its payload tokens.
type Message[Op ~int] struct {
	Op     Op
	Tokens []string
}

// EncodeLine renders an opcode and its tokens as a single line without the
// trailing newline.
func EncodeLine[Op ~int](op Op, tokens []string) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(int(op)))
	for _, t := range tokens {
		b.WriteByte(' ')
		b.WriteString(t)
	}
	return b.String()
}

// ParseClientLine decodes a line received by the server
func ParseClientLine(line string) (ClientOp, []string, error) {
	m, err := parseLine[ClientOp](line, ClientOpCount)
	return m.Op, m.Tokens, err
}

// ParseServerLine decodes a line received by a player
func ParseServerLine(line string) (ServerOp, []string, error) {
	m, err := parseLine[ServerOp](line, ServerOpCount)
	return m.Op, m.Tokens, err
}

func parseLine[Op ~int](line string, count int) (Message[Op], error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Message[Op]{}, fmt.Errorf("%w: empty line", ErrMalformedMessage)
	}

	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return Message[Op]{}, fmt.Errorf("%w: opcode %q", ErrMalformedMessage, fields[0])
	}
	if n < 0 || n >= count {
		return Message[Op]{}, fmt.Errorf("%w: opcode %d", ErrUnsupportedProtocol, n)
	}

	return Message[Op]{Op: Op(n), Tokens: fields[1:]}, nil
}
