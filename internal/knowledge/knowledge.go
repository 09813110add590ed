// Package knowledge answers general questions from a static business profile.
package knowledge

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lookup answers a general customer question. It always returns some text.
type Lookup interface {
	Answer(text string) string
}

type FAQ struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

type Templates struct {
	Greeting            string `yaml:"greeting"`
	AgentRequested      string `yaml:"agent_requested"`
	ReservationDetected string `yaml:"reservation_detected"`
}

// Base is the business profile loaded from the knowledge file.
type Base struct {
	Name     string            `yaml:"name"`
	Location string            `yaml:"location"`
	Schedule map[string]string `yaml:"schedule"`
	FAQs     []FAQ             `yaml:"faqs"`
	Messages Templates         `yaml:"message_examples"`
	Fallback string            `yaml:"fallback"`
}

type file struct {
	Restaurant Base `yaml:"restaurant"`
}

var (
	greetingKeywords = []string{"hola", "buenos dias", "buenos días", "buenas tardes", "buenas noches", "hello", "hi "}
	locationKeywords = []string{"donde", "dónde", "ubicacion", "ubicación", "llegar", "direccion", "dirección", "where", "address"}
	scheduleKeywords = []string{"horario", "abren", "hora", "cuándo", "cuando", "open", "hours"}
)

// Default is used when no knowledge file is configured.
func Default() *Base {
	b := &Base{}
	b.applyDefaults()
	return b
}

// Load reads a YAML knowledge file. A missing file yields the defaults.
func Load(path string) (*Base, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read knowledge file: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse knowledge file: %w", err)
	}
	f.Restaurant.applyDefaults()

	return &f.Restaurant, nil
}

func (b *Base) applyDefaults() {
	if b.Messages.Greeting == "" {
		b.Messages.Greeting = "¡Hola! ¿En qué podemos ayudarte?"
	}
	if b.Messages.AgentRequested == "" {
		b.Messages.AgentRequested = "Un agente se comunicará contigo en breve."
	}
	if b.Messages.ReservationDetected == "" {
		b.Messages.ReservationDetected = "Recibimos tu solicitud de reserva. Te confirmaremos a la brevedad."
	}
	if b.Fallback == "" {
		b.Fallback = "Lo siento, no tengo esa información específica. ¿Te gustaría que te comunique con un agente?"
	}
}

// Answer checks greetings, location, schedule and FAQ keywords in that order.
func (b *Base) Answer(text string) string {
	msg := strings.ToLower(text)

	if containsAny(msg, greetingKeywords) {
		return b.Messages.Greeting
	}
	if b.Location != "" && containsAny(msg, locationKeywords) {
		return "Estamos ubicados en: " + b.Location
	}
	if len(b.Schedule) > 0 && containsAny(msg, scheduleKeywords) {
		return "Nuestros horarios son:\n" + b.formatSchedule()
	}

	for _, faq := range b.FAQs {
		if containsAny(msg, significantWords(faq.Question)) {
			return faq.Answer
		}
	}

	return b.Fallback
}

func (b *Base) formatSchedule() string {
	days := make([]string, 0, len(b.Schedule))
	for d := range b.Schedule {
		days = append(days, d)
	}
	sort.Strings(days)

	lines := make([]string, 0, len(days))
	for _, d := range days {
		lines = append(lines, fmt.Sprintf("- %s: %s", capitalize(d), b.Schedule[d]))
	}
	return strings.Join(lines, "\n")
}

// significantWords drops short connectors like "de", "la", "que".
func significantWords(question string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(question)) {
		w = strings.Trim(w, "¿?¡!.,;:")
		if len([]rune(w)) > 3 {
			out = append(out, w)
		}
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
