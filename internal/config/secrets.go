package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"
)

// KeyPrompter запрашивает ключ API у игрока.
type KeyPrompter func() (string, error)

// ReadSecret читает секрет из файла dir/name (Docker Secrets по умолчанию лежат в /run/secrets).
func ReadSecret(dir, name string) (string, error) {
	filePath := filepath.Join(dir, name)
	secretBytes, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file %s: %w", filePath, err)
	}
	secret := strings.TrimSpace(string(secretBytes))
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", filePath)
	}
	return secret, nil
}

// TerminalKeyPrompt спрашивает ключ без эха, если in - терминал.
// Для не-терминала возвращает nil: интерактивный ввод невозможен.
func TerminalKeyPrompt(in *os.File, out io.Writer) KeyPrompter {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	return func() (string, error) {
		fmt.Fprint(out, "Please enter your API key: ")
		key, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return string(key), nil
	}
}
