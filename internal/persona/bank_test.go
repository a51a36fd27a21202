package persona

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBankShape(t *testing.T) {
	b := mustBank(t)
	assert.Equal(t, []Type{"A", "B", "C", "D"}, b.Types())
	assert.Len(t, b.Personas(), 16)
	assert.Equal(t, "Relaxed", b.TypeName("A"))

	p, ok := b.Profile("old-money")
	require.True(t, ok)
	assert.Equal(t, Type("B"), p.Type)
	assert.Equal(t, p.Description, b.Describe("old-money"))
	assert.Equal(t, fallbackDescription, b.Describe("unheard-of"))
}

func TestLoadBankValidation(t *testing.T) {
	cases := map[string]string{
		"no types": `stage1: [{text: q, options: [{text: a, tags: [A]}]}]`,
		"empty stage 2": `
stage1: [{text: q, options: [{text: a, tags: [A]}]}]
types:
  - type: A
    personas: [{label: p1}]
`,
		"foreign persona tag": `
stage1: [{text: q, options: [{text: a, tags: [A]}]}]
types:
  - type: A
    personas: [{label: p1}]
    questions: [{text: q, options: [{text: a, tags: [p2]}]}]
  - type: B
    personas: [{label: p2}]
    questions: [{text: q, options: [{text: a, tags: [p2]}]}]
`,
		"duplicate persona": `
stage1: [{text: q, options: [{text: a, tags: [A]}]}]
types:
  - type: A
    personas: [{label: p1}, {label: p1}]
    questions: [{text: q, options: [{text: a, tags: [p1]}]}]
`,
		"not yaml": "stage1: [",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadBank([]byte(raw))
			assert.Error(t, err)
		})
	}
}
