package persona

import (
	"errors"
	"fmt"
)

type Stage int

const (
	StageOne Stage = 1
	StageTwo Stage = 2
)

var (
	ErrComplete      = errors.New("persona: classification already complete")
	ErrUnknownOption = errors.New("persona: unknown answer option")
	ErrUnknownTag    = errors.New("persona: answer tags a persona outside the current group")
)

// Snapshot is the state restored by Back. Tallies are never mutated after
// being recorded, so sharing them between snapshots is safe.
type Snapshot struct {
	Stage    Stage
	Index    int
	Types    Tally
	Personas Tally
	Resolved Type
}

type Outcome struct {
	Stage Stage
	// Resolved is set when this answer completed stage 1.
	Resolved Type
	// Complete is set when this answer completed stage 2; Persona holds the result.
	Complete bool
	Persona  Label
}

// Engine runs one questionnaire. It is not safe for concurrent use; the
// owning session serializes calls.
type Engine struct {
	bank     *Bank
	stage    Stage
	index    int
	types    Tally
	personas Tally
	resolved Type
	result   Label
	history  []Snapshot
}

func NewEngine(bank *Bank) *Engine {
	e := &Engine{bank: bank}
	e.Reset()
	return e
}

// Reset starts a new questionnaire with a fresh history.
func (e *Engine) Reset() {
	seed := make([]string, 0, len(e.bank.types))
	for _, t := range e.bank.types {
		seed = append(seed, string(t))
	}
	e.stage = StageOne
	e.index = 0
	e.types = newTally(seed...)
	e.personas = newTally()
	e.resolved = ""
	e.result = ""
	e.history = nil
}

func (e *Engine) Stage() Stage        { return e.stage }
func (e *Engine) Index() int          { return e.index }
func (e *Engine) Resolved() Type      { return e.resolved }
func (e *Engine) Result() Label       { return e.result }
func (e *Engine) Complete() bool      { return e.result != "" }
func (e *Engine) Depth() int          { return len(e.history) }
func (e *Engine) TypeTally() Tally    { return e.types }
func (e *Engine) PersonaTally() Tally { return e.personas }

func (e *Engine) questions() []Question {
	return e.bank.Questions(e.stage, e.resolved)
}

// Current returns the question awaiting an answer.
func (e *Engine) Current() (Question, bool) {
	qs := e.questions()
	if e.Complete() || e.index >= len(qs) {
		return Question{}, false
	}
	return qs[e.index], true
}

// Progress reports the 1-based position within the current stage.
func (e *Engine) Progress() (int, int) {
	return e.index + 1, len(e.questions())
}

// AnswerIndex answers the current question with its i-th option.
func (e *Engine) AnswerIndex(i int) (Outcome, error) {
	q, ok := e.Current()
	if !ok {
		return Outcome{}, ErrComplete
	}
	if i < 0 || i >= len(q.Options) {
		return Outcome{}, fmt.Errorf("%w: %d of %d", ErrUnknownOption, i, len(q.Options))
	}
	return e.Answer(q.Options[i])
}

func (e *Engine) Answer(opt Option) (Outcome, error) {
	if e.Complete() {
		return Outcome{}, ErrComplete
	}
	if e.stage == StageTwo {
		for _, tag := range opt.Tags {
			if !e.bank.personaOf(e.resolved, tag) {
				return Outcome{}, fmt.Errorf("%w: %q (type %s)", ErrUnknownTag, tag, e.resolved)
			}
		}
	}

	e.history = append(e.history, e.snapshot())

	if e.stage == StageOne {
		next := e.types
		for _, tag := range opt.Tags {
			// Unknown stage-1 tags are ignored on purpose: tightening this would
			// change how borderline answer sets resolve.
			if next.Has(tag) {
				next = next.with(tag)
			}
		}
		e.types = next
	} else {
		next := e.personas
		for _, tag := range opt.Tags {
			next = next.with(tag)
		}
		e.personas = next
	}

	if e.index+1 < len(e.questions()) {
		e.index++
		return Outcome{Stage: e.stage}, nil
	}

	if e.stage == StageOne {
		winner, _ := e.types.Winner()
		e.resolved = Type(winner)
		e.stage = StageTwo
		e.index = 0
		return Outcome{Stage: StageOne, Resolved: e.resolved}, nil
	}

	winner, ok := e.personas.Winner()
	if !ok {
		// A stage-2 group where no option carries a tag; fall back to the
		// first persona of the type so the flow can still finish.
		if ps := e.bank.personas[e.resolved]; len(ps) > 0 {
			winner = string(ps[0].Label)
		}
	}
	e.result = Label(winner)
	return Outcome{Stage: StageTwo, Complete: true, Persona: e.result}, nil
}

// Back restores the state before the most recent answer. It returns false
// when there is nothing to undo and the caller should leave the questionnaire.
func (e *Engine) Back() bool {
	if len(e.history) == 0 {
		return false
	}
	last := e.history[len(e.history)-1]
	e.history = e.history[:len(e.history)-1]
	e.stage = last.Stage
	e.index = last.Index
	e.types = last.Types
	e.personas = last.Personas
	e.resolved = last.Resolved
	e.result = ""
	return true
}

func (e *Engine) snapshot() Snapshot {
	return Snapshot{
		Stage:    e.stage,
		Index:    e.index,
		Types:    e.types,
		Personas: e.personas,
		Resolved: e.resolved,
	}
}
