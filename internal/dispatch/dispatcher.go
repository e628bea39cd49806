// Package dispatch runs the per-message pipeline: passphrase transitions,
// prefix check, channel and admin gates, parsing, routing to the registered
// handler and rendering the reply.
//
// Every failure ends as a chat-visible message or a deliberate silent drop;
// nothing escapes Handle, including handler panics.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/google/uuid"

	"github.com/Gerardo115pp/Dexnet/internal/access"
	"github.com/Gerardo115pp/Dexnet/internal/command"
	"github.com/Gerardo115pp/Dexnet/internal/journal"
)

// Journal command names for the two passphrase transitions. The passphrase
// text itself is never logged or recorded.
const (
	passphraseCommand      = "passphrase"
	adminPassphraseCommand = "admin-passphrase"
)

// OperatorID is the author recorded for console commands.
const OperatorID = "operator"

// Options configures a Dispatcher.
type Options struct {
	BotName         string
	Sigil           string
	Passphrase      string
	AdminPassphrase string
	Logger          *slog.Logger
	// Recorder is optional.
	Recorder Recorder
}

// Dispatcher owns the command table and the authorization state.
type Dispatcher struct {
	opts      Options
	prefix    string
	servers   *access.Servers
	responder Responder
	grammar   *command.Grammar
	handlers  map[string]HandlerFunc
	log       *slog.Logger
	newTrace  func() string
}

// New creates a dispatcher with an empty command table.
func New(servers *access.Servers, responder Responder, opts Options) *Dispatcher {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		opts:      opts,
		prefix:    opts.Sigil + opts.BotName + " ",
		servers:   servers,
		responder: responder,
		grammar:   command.NewGrammar(),
		handlers:  map[string]HandlerFunc{},
		log:       log,
		newTrace:  uuid.NewString,
	}
}

// Register appends a command to the table. Declaration order is match order.
func (d *Dispatcher) Register(spec command.Spec, h HandlerFunc) error {
	if h == nil {
		return fmt.Errorf("command %q has no handler", spec.Name)
	}
	if err := d.grammar.Add(spec); err != nil {
		return err
	}
	d.handlers[handlerKey(spec)] = h
	return nil
}

// Grammar returns the command table.
func (d *Dispatcher) Grammar() *command.Grammar {
	return d.grammar
}

// Prefix returns the invocation prefix, e.g. "$dexnet ".
func (d *Dispatcher) Prefix() string {
	return d.prefix
}

// SetResponder swaps the outbound side. Used when the gateway session is
// created after the dispatcher.
func (d *Dispatcher) SetResponder(r Responder) {
	d.responder = r
}

// Handle runs the pipeline for one inbound message.
func (d *Dispatcher) Handle(ctx context.Context, msg Message) {
	if msg.FromSelf || msg.ServerID == "" || msg.Content == "" {
		return
	}

	trace := d.newTrace()
	log := d.log.With("trace_id", trace, "server_id", msg.ServerID, "channel_id", msg.ChannelID)

	switch msg.Content {
	case d.opts.Passphrase:
		d.enableByPassphrase(ctx, log, trace, msg)
		return
	case d.opts.AdminPassphrase:
		d.grantAdmin(ctx, log, trace, msg)
		return
	}

	if !strings.HasPrefix(msg.Content, d.prefix) {
		return
	}
	d.route(ctx, log, trace, msg, strings.TrimPrefix(msg.Content, d.prefix))
}

// --- Passphrase transitions ---

func (d *Dispatcher) enableByPassphrase(ctx context.Context, log *slog.Logger, trace string, msg Message) {
	log.Info("enable request", "channel", msg.ChannelName, "author", msg.AuthorName)
	if err := d.responder.Delete(ctx, msg); err != nil {
		log.Warn("deleting passphrase message", "error", err)
	}

	changed, err := d.servers.EnableChannel(msg.Location())
	if err != nil {
		log.Error("enabling channel", "error", err)
		d.send(ctx, log, msg.ChannelID, fmt.Sprintf("Error enabling channel '%s': %v", msg.ChannelName, err))
		d.record(ctx, log, trace, msg, passphraseCommand, journal.OutcomeFailed, err.Error())
		return
	}
	if !changed {
		d.record(ctx, log, trace, msg, passphraseCommand, journal.OutcomeOK, "already enabled")
		return
	}

	log.Info("channel enabled", "channel", msg.ChannelName)
	d.send(ctx, log, msg.ChannelID, fmt.Sprintf("bot commands enabled for channel '%s' in server '%s'", msg.ChannelName, msg.ServerName))
	d.record(ctx, log, trace, msg, passphraseCommand, journal.OutcomeOK, "enabled")
}

func (d *Dispatcher) grantAdmin(ctx context.Context, log *slog.Logger, trace string, msg Message) {
	log.Info("admin request", "author", msg.AuthorName)
	if err := d.responder.Delete(ctx, msg); err != nil {
		log.Warn("deleting admin passphrase message", "error", err)
	}

	added, err := d.servers.GrantAdmin(msg.Location(), msg.AuthorID)
	if err != nil {
		log.Error("granting admin", "error", err)
		d.send(ctx, log, msg.ChannelID, fmt.Sprintf("Error adding admin %s: %v", msg.AuthorName, err))
		d.record(ctx, log, trace, msg, adminPassphraseCommand, journal.OutcomeFailed, err.Error())
		return
	}
	if !added {
		d.send(ctx, log, msg.ChannelID, fmt.Sprintf("%s is already an admin", msg.AuthorName))
		d.record(ctx, log, trace, msg, adminPassphraseCommand, journal.OutcomeOK, "already admin")
		return
	}

	log.Info("admin added", "author", msg.AuthorName)
	d.send(ctx, log, msg.ChannelID, fmt.Sprintf("%s is now an admin", msg.AuthorName))
	d.record(ctx, log, trace, msg, adminPassphraseCommand, journal.OutcomeOK, "granted")
}

// --- Routing ---

func (d *Dispatcher) route(ctx context.Context, log *slog.Logger, trace string, msg Message, body string) {
	enabled := d.servers.IsChannelEnabled(msg.ServerID, msg.ChannelID)
	admin := d.servers.IsAdmin(msg.ServerID, msg.AuthorID)

	tokens, err := command.Tokenize(body)
	if err != nil {
		if !enabled {
			return
		}
		d.reply(ctx, log, msg, fmt.Sprintf("Error: could not parse command: %v", err))
		d.record(ctx, log, trace, msg, "", journal.OutcomeInvalid, err.Error())
		return
	}

	spec, matched := d.grammar.Match(tokens)
	switch {
	case matched && spec.Ungated && (!spec.Admin || admin):
		// answered in any channel state
	case !enabled:
		log.Debug("dropped command in disabled channel")
		return
	case !matched:
		d.reply(ctx, log, msg, unknownReply(body))
		d.record(ctx, log, trace, msg, firstToken(tokens), journal.OutcomeUnknown, "")
		return
	case spec.Admin && !admin:
		log.Info("admin command refused", "command", spec.Name, "author", msg.AuthorName)
		d.reply(ctx, log, msg, unknownReply(body))
		d.record(ctx, log, trace, msg, spec.Name, journal.OutcomeDenied, "")
		return
	}

	args, err := command.Bind(spec, tokens)
	if err != nil {
		d.send(ctx, log, msg.ChannelID, argumentReply(err))
		d.record(ctx, log, trace, msg, spec.Name, journal.OutcomeInvalid, err.Error())
		return
	}

	if spec.Slow {
		if err := d.responder.Typing(ctx, msg.ChannelID); err != nil {
			log.Debug("typing indicator", "error", err)
		}
	}

	req := &Request{Message: msg, Spec: spec, Args: args, TraceID: trace, Log: log.With("command", spec.Name)}
	out, err := d.invoke(ctx, req)
	if err != nil {
		outcome := journal.OutcomeFailed
		var pe *panicError
		if errors.As(err, &pe) {
			outcome = journal.OutcomePanic
			log.Error("handler panicked", "command", spec.Name, "panic", pe.value, "stack", string(pe.stack))
		} else {
			log.Error("command failed", "command", spec.Name, "error", err)
		}
		d.send(ctx, log, msg.ChannelID, failureReply(spec.Name, err))
		d.record(ctx, log, trace, msg, spec.Name, outcome, err.Error())
		return
	}

	log.Info("command handled", "command", spec.Name, "author", msg.AuthorName)
	if out != "" {
		d.send(ctx, log, msg.ChannelID, out)
	}
	d.record(ctx, log, trace, msg, spec.Name, journal.OutcomeOK, "")
}

// Execute runs one command line on behalf of the operator console. It skips
// the passphrase forms and every chat gate; unknown commands and argument
// errors come back as errors.
func (d *Dispatcher) Execute(ctx context.Context, msg Message, line string) (string, error) {
	trace := d.newTrace()
	log := d.log.With("trace_id", trace, "server_id", msg.ServerID, "operator", true)
	if msg.AuthorID == "" {
		msg.AuthorID, msg.AuthorName = OperatorID, OperatorID
	}

	spec, args, err := d.grammar.Parse(line)
	if err != nil {
		outcome := journal.OutcomeInvalid
		var unknown *command.UnknownError
		if errors.As(err, &unknown) {
			outcome = journal.OutcomeUnknown
		}
		d.record(ctx, log, trace, msg, spec.Name, outcome, err.Error())
		return "", err
	}

	req := &Request{Message: msg, Spec: spec, Args: args, TraceID: trace, Log: log.With("command", spec.Name), Operator: true}
	out, err := d.invoke(ctx, req)
	if err != nil {
		log.Error("console command failed", "command", spec.Name, "error", err)
		d.record(ctx, log, trace, msg, spec.Name, journal.OutcomeFailed, err.Error())
		return "", err
	}
	d.record(ctx, log, trace, msg, spec.Name, journal.OutcomeOK, "")
	return out, nil
}

// invoke calls the handler, converting a panic into an error.
func (d *Dispatcher) invoke(ctx context.Context, req *Request) (out string, err error) {
	h, ok := d.handlers[handlerKey(req.Spec)]
	if !ok {
		return "", fmt.Errorf("no handler registered for %q", req.Spec.Name)
	}
	defer func() {
		if r := recover(); r != nil {
			out, err = "", &panicError{value: r, stack: debug.Stack()}
		}
	}()
	return h(ctx, req)
}

// --- Output ---

func (d *Dispatcher) send(ctx context.Context, log *slog.Logger, channelID, text string) {
	if err := d.responder.Send(ctx, channelID, text); err != nil {
		log.Warn("sending reply", "error", err)
	}
}

func (d *Dispatcher) reply(ctx context.Context, log *slog.Logger, msg Message, text string) {
	if err := d.responder.Reply(ctx, msg, text); err != nil {
		log.Warn("sending reply", "error", err)
	}
}

func (d *Dispatcher) record(ctx context.Context, log *slog.Logger, trace string, msg Message, cmd string, outcome journal.Outcome, detail string) {
	if d.opts.Recorder == nil {
		return
	}
	e := journal.Entry{
		TraceID:    trace,
		ServerID:   msg.ServerID,
		ChannelID:  msg.ChannelID,
		AuthorID:   msg.AuthorID,
		AuthorName: msg.AuthorName,
		Command:    cmd,
		Outcome:    outcome,
		Detail:     detail,
	}
	if err := d.opts.Recorder.Record(ctx, e); err != nil {
		log.Warn("journal write failed", "error", err)
	}
}

func handlerKey(spec command.Spec) string {
	return spec.Name + " " + spec.Arity.String()
}

func firstToken(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	return tokens[0]
}
