package console

import (
	"context"
	"strings"
)

// Commands is the command surface of a quiz session.
type Commands interface {
	Start(ctx context.Context)
	Stop(ctx context.Context)
	Repeat(ctx context.Context)
	Hint(ctx context.Context)
	Next(ctx context.Context)
	Help(ctx context.Context)
	Ladder(ctx context.Context)
	SubmitAnswer(ctx context.Context, name, text string)
}

// Dispatcher routes chat messages: exact "!" commands go to the matching
// session command, anything else is treated as an answer attempt.
type Dispatcher struct {
	quiz     Commands
	commands map[string]func(context.Context)
}

func NewDispatcher(quiz Commands) *Dispatcher {
	return &Dispatcher{
		quiz: quiz,
		commands: map[string]func(context.Context){
			"!start":  quiz.Start,
			"!stop":   quiz.Stop,
			"!repeat": quiz.Repeat,
			"!hint":   quiz.Hint,
			"!next":   quiz.Next,
			"!help":   quiz.Help,
			"!ladder": quiz.Ladder,
		},
	}
}

// Dispatch handles one message sent by from.
func (d *Dispatcher) Dispatch(ctx context.Context, from, message string) {
	if cmd, ok := d.commands[strings.TrimSpace(message)]; ok {
		cmd(ctx)
		return
	}
	d.quiz.SubmitAnswer(ctx, from, message)
}
