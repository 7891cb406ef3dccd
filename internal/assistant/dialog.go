package assistant

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"maps"
	"regexp"
	"slices"
	"strings"

	"voxdesk/internal/command"
	"voxdesk/internal/config"
	"voxdesk/internal/desktop"
	"voxdesk/internal/mail"
	"voxdesk/internal/nlu"
)

var (
	yesRe = regexp.MustCompile(`\b(?:yes|yeah|yep|sure|confirm|affirmative|correct)\b`)
	noRe  = regexp.MustCompile(`\b(?:no|nope|cancel|don't|do not|stop)\b`)
)

type answer int

const (
	unclear answer = iota
	affirmative
	negative
)

func classify(reply string) answer {
	q := nlu.Normalize(reply)
	switch {
	case noRe.MatchString(q):
		return negative
	case yesRe.MatchString(q):
		return affirmative
	}
	return unclear
}

type powerLines struct {
	prompt, doing, done, cancelled string
}

var powerText = map[desktop.PowerAction]powerLines{
	desktop.Shutdown: {
		prompt:    "Are you sure you want to shut down? Please say yes or no.",
		doing:     "Shutting down.",
		done:      "Shutdown initiated by user.",
		cancelled: "Shutdown cancelled.",
	},
	desktop.Restart: {
		prompt:    "Are you sure you want to restart? Please say yes or no.",
		doing:     "Restarting.",
		done:      "Restart initiated by user.",
		cancelled: "Restart cancelled.",
	},
	desktop.Sleep: {
		prompt:    "Are you sure you want to put the computer to sleep? Please say yes or no.",
		doing:     "Putting computer to sleep.",
		done:      "Sleep initiated by user.",
		cancelled: "Sleep command cancelled.",
	},
}

// power asks once for confirmation. Anything short of a clear yes cancels.
func (a *Assistant) power(action desktop.PowerAction) handler {
	lines := powerText[action]

	return func(ctx context.Context, _ nlu.Result) (command.Result, error) {
		heard, ok := a.ask(ctx, lines.prompt)
		if !ok || classify(heard) != affirmative {
			return command.Handled("%s", lines.cancelled), nil
		}

		a.say(lines.doing)
		if err := a.Desktop.Power(ctx, action); err != nil {
			return command.Result{}, fmt.Errorf("power %s: %w", action, err)
		}
		return command.Handled("%s", lines.done), nil
	}
}

type emailState int

const (
	askAccount emailState = iota
	askRecipient
	askSubject
	askBody
	askConfirm
	emailDone
	emailCancelled
)

// attempts each state gets before the dialog gives up.
var emailBudget = map[emailState]int{
	askAccount:   2,
	askRecipient: 2,
	askSubject:   3,
	askBody:      3,
	askConfirm:   3,
}

type draft struct {
	account   mail.Account
	recipient string
	to        string
	subject   string
	body      string
}

var errEmailSend = errors.New("email send failed")

// email walks account, recipient, subject, body and confirmation. Every
// step has its own retry budget; running out cancels the whole dialog.
func (a *Assistant) email(ctx context.Context, _ nlu.Result) (command.Result, error) {
	if a.Mail == nil || len(a.Accounts) == 0 {
		return command.Handled("Email is not configured."), nil
	}

	a.say("Starting the email process.")

	var (
		d      draft
		state  = askAccount
		tries  int
		result command.Result
	)

	for state != emailDone && state != emailCancelled {
		if ctx.Err() != nil {
			return command.Handled("Email cancelled."), nil
		}

		next, res, err := a.emailStep(ctx, state, tries, &d)
		if err != nil {
			if errors.Is(err, errEmailSend) {
				log.Error("Email failed", "to", d.to, "err", err)
				return command.Result{
					Response: "An error occurred during the email process. Email not sent.",
					Status:   command.StatusError,
				}, nil
			}
			return command.Result{}, err
		}

		if next == state {
			tries++
			if tries >= emailBudget[state] {
				return command.Handled("%s", exhausted(state)), nil
			}
			continue
		}

		state, tries, result = next, 0, res
	}
	return result, nil
}

func exhausted(s emailState) string {
	switch s {
	case askAccount:
		return "Account not recognized. Email process cancelled."
	case askRecipient:
		return "Recipient not found in contacts. Email process cancelled."
	case askSubject:
		return "I couldn't get the subject. Email process cancelled."
	case askBody:
		return "I couldn't get the message. Email process cancelled."
	default:
		return "Confirmation failed after multiple attempts. Email cancelled."
	}
}

// emailStep runs one prompt. Returning the same state means retry.
func (a *Assistant) emailStep(ctx context.Context, s emailState, tries int, d *draft) (emailState, command.Result, error) {
	retry := tries > 0

	switch s {
	case askAccount:
		prompt := "Which account would you like to send from?"
		if retry {
			prompt = "Sorry, I didn't recognize that account. Which account would you like to send from?"
		}
		heard, ok := a.ask(ctx, prompt)
		if !ok {
			return s, command.Result{}, nil
		}
		name, acc, found := lookupName(a.Accounts, heard)
		if !found {
			return s, command.Result{}, nil
		}
		if config.IsPlaceholder(acc.Address) || config.IsPlaceholder(acc.Password) {
			log.Warn("Email account has placeholder credentials", "account", name, "err", mail.ErrNotConfigured)
			return emailCancelled, command.Handled("The %s email account is not configured.", name), nil
		}
		d.account = acc
		return askRecipient, command.Result{}, nil

	case askRecipient:
		prompt := "Who is the recipient?"
		if retry {
			prompt = "Sorry, I couldn't find that contact. Who is the recipient?"
		}
		heard, ok := a.ask(ctx, prompt)
		if !ok {
			return s, command.Result{}, nil
		}
		_, addr, found := lookupName(a.Contacts, heard)
		if !found {
			return s, command.Result{}, nil
		}
		d.recipient, d.to = nlu.Normalize(heard), addr
		return askSubject, command.Result{}, nil

	case askSubject:
		prompt := "What is the subject?"
		if retry {
			prompt = "I didn't catch that. Please repeat the subject."
		}
		heard, ok := a.ask(ctx, prompt)
		if !ok || strings.TrimSpace(heard) == "" {
			return s, command.Result{}, nil
		}
		d.subject = strings.TrimSpace(heard)
		return askBody, command.Result{}, nil

	case askBody:
		prompt := "What is the message?"
		if retry {
			prompt = "I didn't catch that. Please repeat the message."
		}
		heard, ok := a.ask(ctx, prompt)
		if !ok || strings.TrimSpace(heard) == "" {
			return s, command.Result{}, nil
		}
		d.body = strings.TrimSpace(heard)
		return askConfirm, command.Result{}, nil

	case askConfirm:
		prompt := fmt.Sprintf("Please confirm. You are sending an email to %s with the subject '%s'. Is this correct? Say yes or no.",
			d.recipient, d.subject)
		if retry {
			prompt = "I didn't understand. Please say yes or no."
		}
		heard, ok := a.ask(ctx, prompt)
		if !ok {
			return s, command.Result{}, nil
		}

		switch classify(heard) {
		case negative:
			return emailCancelled, command.Handled("Okay, email cancelled."), nil
		case affirmative:
			err := a.Mail.Send(ctx, mail.Message{From: d.account, To: d.to, Subject: d.subject, Body: d.body})
			if err != nil {
				return s, command.Result{}, fmt.Errorf("%w: %w", errEmailSend, err)
			}
			log.Info("Email sent", "to", d.to)
			return emailDone, command.Handled("Email sent successfully."), nil
		}
		return s, command.Result{}, nil
	}

	return emailCancelled, command.Handled("Email cancelled."), nil
}

// lookupName finds a key mentioned anywhere in the answer, so "my work
// account" selects "work". Keys match case-insensitively.
func lookupName[V any](table map[string]V, heard string) (string, V, bool) {
	q := nlu.Normalize(heard)
	for _, name := range slices.Sorted(maps.Keys(table)) {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if key == q {
			return name, table[name], true
		}
	}
	for _, name := range slices.Sorted(maps.Keys(table)) {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(key) + `\b`)
		if re.MatchString(q) {
			return name, table[name], true
		}
	}
	var zero V
	return "", zero, false
}
