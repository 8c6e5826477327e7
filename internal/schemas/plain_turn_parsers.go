package schemas

import (
	"strings"

	"word-adventure/internal/domain"
)

// Метки строк в ответе модели. Сравнение регистронезависимое.
const (
	OutcomeLabel   = "outcome:"
	SituationLabel = "situation:"
	OptionsLabel   = "options:"

	// OptionsSeparator разделяет варианты в строке Options.
	OptionsSeparator = "|"
)

// ParseTurnPlain разбирает ответ модели вида
//
//	Outcome: <word>
//	Situation: <word>
//	Options: <word> | <word>
//
// Функция тотальна: на любом входе возвращает Turn, отсутствующие поля
// помечаются как Missing. Берется первая строка для каждой метки.
func ParseTurnPlain(text string) domain.Turn {
	outcome := domain.Missing()
	situation := domain.Missing()
	var options []string
	var seenOutcome, seenSituation, seenOptions bool

	for _, line := range getNonEmptyTrimmedLines(text) {
		line = stripDecorations(line)
		switch {
		case !seenOutcome && hasLabel(line, OutcomeLabel):
			seenOutcome = true
			outcome = fieldValue(line, OutcomeLabel)
		case !seenSituation && hasLabel(line, SituationLabel):
			seenSituation = true
			situation = fieldValue(line, SituationLabel)
		case !seenOptions && hasLabel(line, OptionsLabel):
			seenOptions = true
			if raw, ok := fieldValue(line, OptionsLabel).Value(); ok {
				options = splitOptions(raw)
			}
		}
	}

	return domain.NewTurn(outcome, situation, options)
}

// splitOptions делит строку вариантов по '|' и оставляет не больше двух непустых.
func splitOptions(raw string) []string {
	parts := strings.Split(raw, OptionsSeparator)
	options := make([]string, 0, domain.MaxOptions)
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		options = append(options, p)
		if len(options) == domain.MaxOptions {
			break
		}
	}
	if len(options) == 0 {
		return nil
	}
	return options
}

func hasLabel(line, label string) bool {
	return len(line) >= len(label) && strings.EqualFold(line[:len(label)], label)
}

// fieldValue отрезает метку. Пустое значение считается отсутствующим.
func fieldValue(line, label string) domain.Field {
	value := strings.TrimSpace(line[len(label):])
	value = strings.TrimSpace(strings.Trim(value, "*_"))
	if value == "" {
		return domain.Missing()
	}
	return domain.Present(value)
}

// stripDecorations убирает markdown-мусор перед меткой ("- ", "**", "# ").
// Модели иногда оформляют строки списком или жирным шрифтом.
func stripDecorations(line string) string {
	line = strings.TrimLeft(line, "-*#> \t")
	// "**Outcome:** Burned" -> "Outcome: Burned"
	if idx := strings.Index(line, ":**"); idx >= 0 && idx < len(SituationLabel) {
		line = line[:idx+1] + line[idx+3:]
	}
	return line
}

// getNonEmptyTrimmedLines возвращает непустые строки без пробелов по краям.
func getNonEmptyTrimmedLines(text string) []string {
	rawLines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	var nonEmptyLines []string
	for _, line := range rawLines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			nonEmptyLines = append(nonEmptyLines, trimmed)
		}
	}
	return nonEmptyLines
}
