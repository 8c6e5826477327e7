package game

import (
	"fmt"
	"strings"

	"word-adventure/internal/domain"
)

const (
	choicePrompt = "> "

	titleText      = "Three-Word Adventure"
	helpText       = "Answer with a single word or the option number. Type quit or exit to leave."
	farewellText   = "Farewell, adventurer."
	journeyPrefix  = "Your journey: "
	journeyJoiner  = " -> "
	missingOutcome = "(Outcome missing from model response)"
	incompleteTurn = "(Incomplete response from model)"
)

func (s *Session) showWelcome() {
	st := s.console.Styles()
	s.console.Clear()
	s.console.Println(st.Title.Render(titleText))
	s.console.Println(st.Muted.Render(helpText))
	s.console.Println()
	s.showTurn(s.current, strings.Join(SeedLines, "\n"))
}

func (s *Session) showOutcome(turn domain.Turn) {
	st := s.console.Styles()
	if outcome, ok := turn.Outcome().Value(); ok {
		s.console.Println(st.Outcome.Render("Outcome: " + outcome))
		return
	}
	s.console.Println(st.Warning.Render(missingOutcome))
}

// showTurn печатает ситуацию и варианты либо маркер неполного ответа с сырым текстом.
func (s *Session) showTurn(turn domain.Turn, raw string) {
	st := s.console.Styles()
	if turn.Degraded() {
		s.console.Println(st.Warning.Render(incompleteTurn))
		s.console.Println(st.Muted.Render(strings.TrimSpace(raw)))
		return
	}

	situation, _ := turn.Situation().Value()
	s.console.Println(st.Situation.Render("Situation: " + situation))
	options := turn.Options()
	s.console.Println(st.Option.Render("Options: " + strings.Join(options, " | ")))
	labels := make([]string, len(options))
	for i, opt := range options {
		labels[i] = fmt.Sprintf("%d) %s", i+1, opt)
	}
	s.console.Println(st.Muted.Render(strings.Join(labels, "   ")))
}

func (s *Session) showInvalidChoice() {
	st := s.console.Styles()
	options := s.current.Options()
	if len(options) == 0 {
		s.console.Println(st.Warning.Render("Please type a word to continue."))
		return
	}
	s.console.Println(st.Warning.Render("Please choose one of: " + strings.Join(options, ", ")))
}

func (s *Session) showGenerationError(err error) {
	s.console.Println(s.console.Styles().Warning.Render(fmt.Sprintf("Error generating story: %v", err)))
}

func (s *Session) showFarewell() {
	st := s.console.Styles()
	s.console.Println(st.Title.Render(farewellText))
	if len(s.journey) > 0 {
		s.console.Println(st.Muted.Render(journeyPrefix + strings.Join(s.journey, journeyJoiner)))
	}
}
