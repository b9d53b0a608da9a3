package mode

import (
	"fmt"
	"time"

	"github.com/dkoval/voxgate/internal/model"
)

// Triggers accepted by the state machine.
const (
	TriggerCommandDetected   = "command_detected"
	TriggerQuestionDetected  = "question_detected"
	TriggerDictationRequest  = "dictation_requested"
	TriggerCommandCompleted  = "command_completed"
	TriggerQuestionAnswered  = "question_answered"
	TriggerExitDictation     = "exit_dictation"
	TriggerSwitchToCommand   = "switch_to_command"
	TriggerSwitchToDictation = "switch_to_dictation"
	TriggerDisable           = "disable"
	TriggerEnable            = "enable"
)

// maxHistory bounds the transition log.
const maxHistory = 50

// InvalidTransitionError reports a rejected trigger. Recoverable: the
// mode is unchanged and the caller degrades to the current mode.
type InvalidTransitionError struct {
	From    model.Mode
	Trigger string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: trigger %q in mode %s", e.Trigger, e.From)
}

// Transition is one recorded mode change.
type Transition struct {
	From      model.Mode `json:"from"`
	To        model.Mode `json:"to"`
	Trigger   string     `json:"trigger"`
	Timestamp time.Time  `json:"timestamp"`
}

type edge struct {
	from    model.Mode
	trigger string
}

// Machine is the finite state machine owning the current interaction
// mode. Not goroutine-safe by itself: the fusion session serializes
// all access under its own lock.
type Machine struct {
	current   model.Mode
	previous  model.Mode
	history   []Transition
	observers []func(from, to model.Mode, trigger string)
	table     map[edge]model.Mode
	now       func() time.Time
}

// NewMachine creates a Machine in Listening mode with the fixed legal
// transition table.
func NewMachine() *Machine {
	m := &Machine{
		current:  model.ModeListening,
		previous: model.ModeListening,
		table:    map[edge]model.Mode{},
		now:      time.Now,
	}

	add := func(from model.Mode, trigger string, to model.Mode) {
		m.table[edge{from, trigger}] = to
	}

	add(model.ModeListening, TriggerCommandDetected, model.ModeCommand)
	add(model.ModeListening, TriggerQuestionDetected, model.ModeQuestion)
	add(model.ModeListening, TriggerDictationRequest, model.ModeDictation)

	add(model.ModeCommand, TriggerCommandCompleted, model.ModeListening)
	add(model.ModeCommand, TriggerSwitchToDictation, model.ModeDictation)

	add(model.ModeDictation, TriggerExitDictation, model.ModeListening)
	add(model.ModeDictation, TriggerSwitchToCommand, model.ModeCommand)

	add(model.ModeQuestion, TriggerQuestionAnswered, model.ModeListening)
	add(model.ModeQuestion, TriggerSwitchToCommand, model.ModeCommand)

	// Disabled is reachable from every state and is otherwise a sink.
	for _, from := range []model.Mode{
		model.ModeListening, model.ModeCommand, model.ModeDictation, model.ModeQuestion,
	} {
		add(from, TriggerDisable, model.ModeDisabled)
	}
	add(model.ModeDisabled, TriggerEnable, model.ModeListening)

	return m
}

// Current returns the active mode.
func (m *Machine) Current() model.Mode { return m.current }

// Previous returns the mode before the last recorded transition.
func (m *Machine) Previous() model.Mode { return m.previous }

// OnChange registers an observer invoked synchronously after every
// successful transition.
func (m *Machine) OnChange(fn func(from, to model.Mode, trigger string)) {
	m.observers = append(m.observers, fn)
}

// Request attempts a transition. On success the change is appended to
// the bounded history and observers fire. Requesting the mode the
// machine is already in is a no-op, not a transition: nothing is
// recorded. On an illegal trigger the mode is unchanged and the error
// carries the rejected trigger and current mode for diagnostics.
func (m *Machine) Request(trigger string) (model.Mode, error) {
	to, ok := m.table[edge{m.current, trigger}]
	if !ok {
		return m.current, &InvalidTransitionError{From: m.current, Trigger: trigger}
	}
	if to == m.current {
		return m.current, nil
	}

	from := m.current
	m.previous = from
	m.current = to

	m.history = append(m.history, Transition{
		From:      from,
		To:        to,
		Trigger:   trigger,
		Timestamp: m.now(),
	})
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}

	for _, fn := range m.observers {
		fn(from, to, trigger)
	}

	return to, nil
}

// CanExecute reports whether the current mode permits an intent of the
// given kind. Disabled admits only control intents. An unrecognized
// mode fails closed and behaves like Disabled.
func (m *Machine) CanExecute(kind model.IntentKind) bool {
	switch m.current {
	case model.ModeDisabled:
		return kind == model.KindControl
	case model.ModeDictation:
		return kind == model.KindDictation || kind == model.KindControl
	case model.ModeListening, model.ModeCommand, model.ModeQuestion:
		return true
	default:
		return kind == model.KindControl
	}
}

// History returns up to limit most recent transitions, oldest first.
func (m *Machine) History(limit int) []Transition {
	if limit <= 0 || limit > len(m.history) {
		limit = len(m.history)
	}
	out := make([]Transition, limit)
	copy(out, m.history[len(m.history)-limit:])
	return out
}
