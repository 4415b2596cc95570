package config

import (
	"fmt"
	"strings"

	"github.com/diogo/cleansight/internal/models"
)

// DefaultPreambleName selects the stock CleanSight framing
const DefaultPreambleName = "cleansight"

// Persona is a named preamble: the instruction text sent as the final user
// entry of every request.
type Persona struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Preamble    string `json:"preamble"`
}

// DefaultPersonas returns the built-in preambles
func DefaultPersonas() []Persona {
	return []Persona{
		{
			Name:        DefaultPreambleName,
			Description: "Friendly recycling, reuse and disposal assistant",
			Preamble:    models.DefaultPreamble,
		},
		{
			Name:        "concise",
			Description: "Short answers, one bullet list per reply",
			Preamble: `You are CleanSight 🌱, a recycling and disposal assistant.
- Answer in at most five bullet points.
- Start with a one-line verdict: recycle, reuse, or dispose.
- Mention hazards only when they apply.

User's latest query or image:`,
		},
		{
			Name:        "classroom",
			Description: "Explains sorting rules to children",
			Preamble: `You are CleanSight 🌱, helping children learn how to sort waste.
- Use simple words and short sentences.
- Give one fun reuse idea when it is safe.
- Always suggest asking an adult before handling sharp, electrical, or chemical items.

User's latest query or image:`,
		},
	}
}

// GetPersona returns a built-in persona by name
func GetPersona(name string) (*Persona, error) {
	for _, p := range DefaultPersonas() {
		if p.Name == name {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("persona '%s' not found", name)
}

// ListPersonaNames returns the names of all personas
func ListPersonaNames() []string {
	personas := DefaultPersonas()
	names := make([]string, len(personas))
	for i, p := range personas {
		names[i] = p.Name
	}
	return names
}

// ResolvePreamble returns the literal preamble when one is configured,
// otherwise the preamble of the named persona.
func ResolvePreamble(c ClientConfig) (string, error) {
	if strings.TrimSpace(c.Preamble) != "" {
		return c.Preamble, nil
	}

	name := c.PreambleName
	if name == "" {
		name = DefaultPreambleName
	}
	p, err := GetPersona(name)
	if err != nil {
		return "", err
	}
	return p.Preamble, nil
}
