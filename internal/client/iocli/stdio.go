package iocli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Stdio консоль поверх потоков процесса
type Stdio struct {
	in  *bufio.Reader
	out io.Writer
	fd  int // дескриптор для ввода пароля без эха, -1 если не терминал
}

// NewStdio создает консоль на os.Stdin и os.Stdout
func NewStdio() IO {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		fd = -1
	}
	return &Stdio{in: bufio.NewReader(os.Stdin), out: os.Stdout, fd: fd}
}

// NewStream создает консоль на произвольных потоках (пароль читается как обычная строка)
func NewStream(in io.Reader, out io.Writer) IO {
	return &Stdio{in: bufio.NewReader(in), out: out, fd: -1}
}

func (s *Stdio) Println(a ...any) {
	_, _ = fmt.Fprintln(s.out, a...)
}

func (s *Stdio) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(s.out, format, a...)
}

func (s *Stdio) ReadInput(prompt string) (string, error) {
	s.Printf("%s", prompt)
	input, err := s.in.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

func (s *Stdio) ReadPassword(prompt string) (string, error) {
	if s.fd < 0 {
		return s.ReadInput(prompt)
	}

	s.Printf("%s", prompt)
	pwBytes, err := term.ReadPassword(s.fd)
	s.Println("")
	if err != nil {
		return "", err
	}
	return string(pwBytes), nil
}

// ReadAll читает вход до EOF
func (s *Stdio) ReadAll() ([]byte, error) {
	return io.ReadAll(s.in)
}
