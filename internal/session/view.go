package session

import (
	"stylefit/internal/budget"
	"stylefit/internal/canvas"
	"stylefit/internal/catalog"
	"stylefit/internal/checkout"
	"stylefit/internal/persona"
)

type QuestionView struct {
	Stage   persona.Stage `json:"stage"`
	Number  int           `json:"number"`
	Total   int           `json:"total"`
	Text    string        `json:"text"`
	Options []string      `json:"options"`
}

type PersonaView struct {
	Label       persona.Label `json:"label"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Type        persona.Type  `json:"type"`
	TypeName    string        `json:"typeName"`
}

type CompositionView struct {
	Seed     catalog.Seed        `json:"seed"`
	Buckets  catalog.Buckets     `json:"buckets"`
	Loading  []catalog.Category  `json:"loading"`
	Origin   canvas.Point        `json:"origin"`
	Items    []canvas.PlacedItem `json:"items"`
	Dragging uint64              `json:"dragging,omitempty"`
}

type CheckoutView struct {
	Snapshot checkout.Snapshot `json:"snapshot"`
	Outcome  string            `json:"outcome,omitempty"`
	Pending  bool              `json:"pending"`
}

// View is what the front end renders for the current screen. Only the
// section for the active screen is populated.
type View struct {
	SessionID   string            `json:"sessionId"`
	Screen      Screen            `json:"screen"`
	Loading     bool              `json:"loading"`
	Question    *QuestionView     `json:"question,omitempty"`
	Persona     *PersonaView      `json:"persona,omitempty"`
	Guide       []persona.Profile `json:"guide,omitempty"`
	Bounds      catalog.Bounds    `json:"bounds,omitempty"`
	Ranges      catalog.Ranges    `json:"ranges,omitempty"`
	Issues      budget.Issues     `json:"issues,omitempty"`
	Composition *CompositionView  `json:"composition,omitempty"`
	Checkout    *CheckoutView     `json:"checkout,omitempty"`
	Notices     []Notice          `json:"notices,omitempty"`
}

// Render returns the current view and hands out pending notices once.
func (s *Session) Render() View {
	s.lock()
	defer s.mu.Unlock()
	v := View{SessionID: s.id, Screen: s.screen, Loading: s.loading, Notices: s.notices}
	s.notices = nil

	switch s.screen {
	case Stage1, Stage2:
		if q, ok := s.engine.Current(); ok {
			n, total := s.engine.Progress()
			qv := &QuestionView{Stage: s.engine.Stage(), Number: n, Total: total, Text: q.Text}
			for _, o := range q.Options {
				qv.Options = append(qv.Options, o.Text)
			}
			v.Question = qv
		}
	case Result:
		v.Persona = s.personaView()
	case Guide:
		v.Persona = s.personaView()
		v.Guide = s.deps.Bank.Personas()
	case Budget:
		v.Persona = s.personaView()
		v.Bounds = s.bounds.Clone()
		v.Ranges = s.ranges
		v.Issues = budget.Validate(s.bounds, s.ranges)
	case Composition:
		cv := &CompositionView{
			Seed:    s.seed,
			Buckets: s.pools.Buckets(),
			Origin:  s.canvas.Origin(),
			Items:   s.canvas.Items(),
		}
		for _, cat := range s.pools.Categories() {
			if s.pools.Loading(cat) {
				cv.Loading = append(cv.Loading, cat)
			}
		}
		if id, ok := s.canvas.Dragging(); ok {
			cv.Dragging = id
		}
		v.Composition = cv
	case Checkout:
		cv := &CheckoutView{Snapshot: *s.order, Pending: s.paying}
		if s.outcome != 0 {
			cv.Outcome = s.outcome.String()
		}
		v.Checkout = cv
	}
	return v
}

func (s *Session) personaView() *PersonaView {
	if s.persona == "" {
		return nil
	}
	pv := &PersonaView{
		Label:       s.persona,
		Name:        string(s.persona),
		Description: s.deps.Bank.Describe(s.persona),
	}
	if p, ok := s.deps.Bank.Profile(s.persona); ok {
		pv.Name = p.Name
		pv.Type = p.Type
		pv.TypeName = s.deps.Bank.TypeName(p.Type)
	}
	return pv
}
