package prompt

import (
	"fmt"
	"strings"
	"time"
)

// TimeZone is the business-local zone every prompt timestamp renders in.
const TimeZone = "America/Sao_Paulo"

var ptMonths = []string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

var ptWeekdays = []string{
	"domingo", "segunda-feira", "terça-feira", "quarta-feira",
	"quinta-feira", "sexta-feira", "sábado",
}

// Builder assembles the two agent system prompts. Prompts are recomputed on
// every call because the embedded timestamp must be current; the builder
// itself is stateless apart from the clock.
type Builder struct {
	now func() time.Time
	loc *time.Location
}

// NewBuilder creates a prompt builder. A nil clock means time.Now.
func NewBuilder(now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	loc, err := time.LoadLocation(TimeZone)
	if err != nil {
		// São Paulo has not observed DST since 2019.
		loc = time.FixedZone("-03", -3*60*60)
	}
	return &Builder{now: now, loc: loc}
}

// IntentPrompt returns the system prompt for the intent-extraction agent.
func (b *Builder) IntentPrompt() string {
	return fmt.Sprintf(intentPromptTemplate, b.currentDateTime())
}

// ConversationalPrompt returns the system prompt for the conversational
// agent. When the latest structured result carried a message, it is appended
// under the schedule-information section so the reply is grounded in the
// just-executed action; otherwise the base persona prompt is returned as is.
func (b *Builder) ConversationalPrompt(priorResultMessage string) string {
	base := fmt.Sprintf(conversationalPromptTemplate, b.currentDateTime())
	priorResultMessage = strings.TrimSpace(priorResultMessage)
	if priorResultMessage == "" {
		return base
	}
	return base + "\n" + priorResultMessage + "\n"
}

// currentDateTime renders the current business-local date and time in
// Portuguese, including the day of week.
func (b *Builder) currentDateTime() string {
	t := b.now().In(b.loc)
	return fmt.Sprintf("Hoje é %s, %d de %s de %d às %02d:%02d em São Paulo, Brasil.",
		ptWeekdays[int(t.Weekday())],
		t.Day(),
		ptMonths[int(t.Month())-1],
		t.Year(),
		t.Hour(),
		t.Minute(),
	)
}
