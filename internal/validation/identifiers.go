package validation

import (
	"fmt"
	"regexp"
)

// IdentifierPattern допустимый формат идентификатора терминала:
// латинские буквы, цифры, "_" и "-" (UUID проходит), длина 1-64
var IdentifierPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// MaxIdentifierLen максимальная длина идентификатора
const MaxIdentifierLen = 64

// ValidateTerminalID проверяет идентификатор POS-терминала, пришедший от клиента
func ValidateTerminalID(id string) error {
	if id == "" {
		return fmt.Errorf("terminal id cannot be empty")
	}

	if len(id) > MaxIdentifierLen {
		return fmt.Errorf("terminal id must not exceed %d characters", MaxIdentifierLen)
	}

	if !IdentifierPattern.MatchString(id) {
		return fmt.Errorf("terminal id can only contain letters (a-z, A-Z), numbers (0-9), underscores (_) and dashes (-)")
	}

	return nil
}
