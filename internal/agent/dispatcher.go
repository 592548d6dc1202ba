package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"squad/internal/llm"
	"squad/internal/policy"
	"squad/internal/profile"
	"squad/internal/trace"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/responses"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const (
	defaultMaxTurns        = 32
	defaultMaxToolTimeouts = 3
)

// Request is one task handed to the dispatcher.
type Request struct {
	Profile string
	Task    string
	Context string // optional attached context appended to the first turn
}

// Result pairs a report with the error that replaced it, for fan-out.
type Result struct {
	Report *Report
	Err    error
}

type Option func(*Dispatcher)

func WithMaxTurns(n int) Option {
	return func(d *Dispatcher) { d.maxTurns = n }
}

func WithMaxToolTimeouts(n int) Option {
	return func(d *Dispatcher) { d.maxToolTimeouts = n }
}

// WithRecorder attaches a persistent audit sink for tool-call verdicts.
func WithRecorder(rec Recorder) Option {
	return func(d *Dispatcher) { d.recorder = rec }
}

// Dispatcher binds tasks to profile-scoped runs and drives the
// turn loop: the backend proposes tool calls, the mediator resolves them,
// results are merged back in request order, and the final message becomes a
// Report.
type Dispatcher struct {
	profiles        *profile.Registry
	providers       *llm.Factory
	mediator        *Mediator
	recorder        Recorder
	maxTurns        int
	maxToolTimeouts int
}

func NewDispatcher(profiles *profile.Registry, providers *llm.Factory, mediator *Mediator, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		profiles:        profiles,
		providers:       providers,
		mediator:        mediator,
		maxTurns:        defaultMaxTurns,
		maxToolTimeouts: defaultMaxToolTimeouts,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch runs a single task under the named profile until the backend
// emits a final message, the caller cancels, or a fatal limit is hit.
// Every error returned is a *DispatchError; in-band conditions (blocked or
// failed tool calls) never surface here.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request, emit func(Event)) (*Report, error) {
	if emit == nil {
		emit = func(Event) {}
	}

	p, err := d.profiles.Lookup(req.Profile)
	if err != nil {
		return nil, &DispatchError{Kind: KindNotFound, Reason: err.Error(), Err: err}
	}

	provider, err := d.providers.For(string(p.Tier))
	if err != nil {
		return nil, &DispatchError{Kind: KindFailed, Reason: "resolving model tier", Err: err}
	}

	run := &Run{ID: uuid.NewString(), Profile: p, Status: StatusRunning}

	ctx, span := trace.Tracer().Start(ctx, "agent.dispatch",
		oteltrace.WithAttributes(
			attribute.String("run.id", run.ID),
			attribute.String("run.profile", p.Name),
			attribute.String("run.tier", string(p.Tier)),
		),
	)
	defer span.End()

	slog.Info("dispatching run", "run_id", run.ID, "profile", p.Name, "tier", p.Tier)

	task := req.Task
	if req.Context != "" {
		task += "\n\nContext:\n" + req.Context
	}
	input := []responses.ResponseInputItemUnionParam{
		responses.ResponseInputItemParamOfMessage(p.Prompt, "developer"),
		responses.ResponseInputItemParamOfMessage(task, "user"),
	}

	med := d.mediator.Scoped(p)
	rep, derr := d.loop(ctx, run, provider, med, med.toolParams(p), input, emit)

	if d.recorder != nil {
		summary := ""
		if rep != nil {
			summary = rep.Summary
		}
		if err := d.recorder.SaveRun(context.WithoutCancel(ctx), run.ID, p.Name, string(run.Status), summary); err != nil {
			slog.Warn("failed to save run record", "run_id", run.ID, "error", err)
		}
	}

	if derr != nil {
		span.RecordError(derr)
		span.SetStatus(codes.Error, derr.Error())
		slog.Warn("run terminated", "run_id", run.ID, "status", run.Status, "error", derr)
		return nil, derr
	}

	slog.Info("run completed", "run_id", run.ID, "profile", p.Name, "artifacts", len(rep.Artifacts))
	emit(Event{Type: EventDone, Data: rep})
	return rep, nil
}

// DispatchAll fans out independent requests as concurrent runs and returns
// their results in request order. The emit callback, if any, is shared
// across runs and must be safe for concurrent use.
func (d *Dispatcher) DispatchAll(ctx context.Context, reqs []Request, emit func(Event)) []Result {
	results := make([]Result, len(reqs))
	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req Request) {
			defer wg.Done()
			rep, err := d.Dispatch(ctx, req, emit)
			results[i] = Result{Report: rep, Err: err}
		}(i, req)
	}
	wg.Wait()
	return results
}

// loop is the run's turn cycle. Each iteration is one backend call; tool
// calls it proposes are mediated and executed, and their outputs (including
// rejections and failures) go back into the conversation so the model can
// adapt. The loop exits on a final message, cancellation, or a fatal limit.
func (d *Dispatcher) loop(
	ctx context.Context,
	run *Run,
	provider llm.Provider,
	med *Mediator,
	toolParams []responses.ToolUnionParam,
	input []responses.ResponseInputItemUnionParam,
	emit func(Event),
) (*Report, *DispatchError) {
	reprompted := false

	for turn := 0; turn < d.maxTurns; turn++ {
		if err := ctx.Err(); err != nil {
			run.Status = StatusRejected
			emit(Event{Type: EventError, Data: "run cancelled"})
			return nil, &DispatchError{Kind: KindRejected, Reason: "run cancelled by caller", Trace: run.Trace, Err: err}
		}

		llmCtx, llmSpan := trace.Tracer().Start(ctx, "llm.turn",
			oteltrace.WithAttributes(
				attribute.String("run.id", run.ID),
				attribute.Int("llm.turn", turn),
			),
		)
		resp, err := provider.ChatStream(llmCtx, input, toolParams, func(token string) {
			emit(Event{Type: EventToken, Data: token})
		})
		if err != nil {
			llmSpan.RecordError(err)
			llmSpan.SetStatus(codes.Error, err.Error())
			llmSpan.End()
			run.Status = StatusFailed
			emit(Event{Type: EventError, Data: err.Error()})
			return nil, &DispatchError{Kind: KindFailed, Reason: "backend error", Trace: run.Trace, Err: err}
		}
		llmSpan.SetAttributes(
			attribute.String("llm.model", string(resp.Model)),
			attribute.Int64("llm.input_tokens", resp.Usage.InputTokens),
			attribute.Int64("llm.output_tokens", resp.Usage.OutputTokens),
		)
		llmSpan.End()
		run.turns++

		input = append(input, outputToInput(resp.Output)...)

		var calls []responses.ResponseOutputItemUnion
		for _, item := range resp.Output {
			if item.Type == "function_call" {
				calls = append(calls, item)
			}
		}

		// No tool calls: the backend considers the task done. The final
		// message still has to satisfy the profile's output contract.
		if len(calls) == 0 {
			rep, aerr := aggregate(run.ID, run.Profile, finalText(resp))
			if aerr != nil {
				if !reprompted {
					reprompted = true
					slog.Debug("re-prompting for required output shape", "run_id", run.ID, "error", aerr)
					input = append(input, responses.ResponseInputItemParamOfMessage(
						fmt.Sprintf("Your final message was rejected: %s. Reply again with the complete answer in the required format.", aerr),
						"user"))
					continue
				}
				run.Status = StatusFailed
				return nil, &DispatchError{Kind: KindFailed, Reason: "malformed output: " + aerr.Error(), Trace: run.Trace, Err: aerr}
			}
			run.Status = StatusCompleted
			return rep, nil
		}

		results, timeouts := d.act(ctx, run, med, calls, emit)
		run.timeouts += timeouts
		if run.timeouts > d.maxToolTimeouts {
			run.Status = StatusFailed
			return nil, &DispatchError{Kind: KindFailed, Reason: "too many tool timeouts", Trace: run.Trace, Err: context.DeadlineExceeded}
		}
		input = append(input, results...)
	}

	run.Status = StatusFailed
	return nil, &DispatchError{Kind: KindFailed, Reason: fmt.Sprintf("turn limit exceeded (%d turns)", d.maxTurns), Trace: run.Trace}
}

// act mediates and executes one turn's batch of tool calls. Mediation and
// trace recording happen synchronously in request order so the audit trail
// is deterministic; allowed calls then execute in parallel, and results are
// merged back in request order regardless of completion order.
func (d *Dispatcher) act(
	ctx context.Context,
	run *Run,
	med *Mediator,
	calls []responses.ResponseOutputItemUnion,
	emit func(Event),
) ([]responses.ResponseInputItemUnionParam, int) {
	verdicts := make([]policy.Verdict, len(calls))
	base := len(run.Trace)

	for i, call := range calls {
		fc := call.AsFunctionCall()
		emit(Event{Type: EventToolCall, Data: map[string]string{
			"name":      fc.Name,
			"arguments": fc.Arguments,
		}})

		var args map[string]any
		if err := json.Unmarshal([]byte(fc.Arguments), &args); err != nil {
			args = nil // classifier fails closed on missing arguments
		}
		verdicts[i] = med.Mediate(run.Profile, fc.Name, args)
		run.addTrace(fc.Name, fc.Arguments, verdicts[i])
	}

	results := make([]responses.ResponseInputItemUnionParam, len(calls))
	timedOut := make([]bool, len(calls))
	var wg sync.WaitGroup

	for i, call := range calls {
		fc := call.AsFunctionCall()
		entry := &run.Trace[base+i]

		if !verdicts[i].Allowed {
			entry.Error = verdicts[i].Reason
			results[i] = responses.ResponseInputItemParamOfFunctionCallOutput(fc.CallID, "error: "+verdicts[i].Reason)
			slog.Info("tool call blocked",
				"run_id", run.ID,
				"tool", fc.Name,
				"class", verdicts[i].Class.String(),
				"reason", verdicts[i].Reason,
			)
			emit(Event{Type: EventToolDenied, Data: map[string]string{
				"name":   fc.Name,
				"reason": verdicts[i].Reason,
			}})
			continue
		}

		wg.Add(1)
		go func(i int, call responses.ResponseOutputItemUnion) {
			defer wg.Done()
			fc := call.AsFunctionCall()
			entry := &run.Trace[base+i]
			entry.Executed = true

			result, err := med.Execute(ctx, fc.Name, fc.Arguments)
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					timedOut[i] = true
				}
				slog.Warn("tool execution failed", "run_id", run.ID, "tool", fc.Name, "error", err)
				entry.Error = err.Error()
				errMsg := "error: " + err.Error()
				results[i] = responses.ResponseInputItemParamOfFunctionCallOutput(fc.CallID, errMsg)
				emit(Event{Type: EventToolResult, Data: map[string]string{
					"name":    fc.Name,
					"content": errMsg,
				}})
				return
			}

			results[i] = responses.ResponseInputItemParamOfFunctionCallOutput(fc.CallID, result)
			emit(Event{Type: EventToolResult, Data: map[string]string{
				"name":    fc.Name,
				"content": result,
			}})
		}(i, call)
	}
	wg.Wait()

	if d.recorder != nil {
		for i := range calls {
			if err := d.recorder.Record(ctx, run.ID, run.Trace[base+i]); err != nil {
				slog.Warn("failed to record verdict", "run_id", run.ID, "error", err)
			}
		}
	}

	timeouts := 0
	for _, t := range timedOut {
		if t {
			timeouts++
		}
	}
	return results, timeouts
}

// toolParams builds the function-tool declarations for the profile's scoped
// registry, in the profile's declared order.
func (m *Mediator) toolParams(p *profile.Profile) []responses.ToolUnionParam {
	var params []responses.ToolUnionParam
	for _, name := range p.Tools {
		t, ok := m.registry.Get(name)
		if !ok {
			continue
		}
		schema, _ := t.InputSchema().(map[string]any)
		params = append(params, responses.ToolUnionParam{
			OfFunction: &responses.FunctionToolParam{
				Name:        t.Name(),
				Description: openai.String(t.Description()),
				Parameters:  schema,
				Strict:      openai.Bool(true),
			},
		})
	}
	return params
}
