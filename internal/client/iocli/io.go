// Package iocli ввод-вывод терминала POS CLI
package iocli

//go:generate moq -out io_mock.go . IO

// IO консоль оператора
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	ReadInput(prompt string) (string, error)
	ReadPassword(prompt string) (string, error)
	ReadAll() ([]byte, error)
}
