//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"syscall/js"

	"quiz-studio/internal/app"
	"quiz-studio/internal/domain"
)

type stepResult struct {
	View  app.View `json:"view"`
	Error string   `json:"error,omitempty"`
	Code  string   `json:"code,omitempty"`
}

type certificateResult struct {
	Certificate any    `json:"certificate,omitempty"`
	Error       string `json:"error,omitempty"`
}

// newRuntime builds the quizRuntime object. Every method returns a JSON
// string, except captureCertificate which returns a Promise of one;
// subscribe takes a callback that receives one per change.
func newRuntime(ctx context.Context, service *app.QuizService) js.Value {
	fns := map[string]func(args []js.Value) any{
		"view": func([]js.Value) any { return service.View() },
		"submit": func(args []js.Value) any {
			if len(args) == 0 {
				return step(service.View(), domain.ErrInvalidAnswer)
			}
			answer := domain.DecodeAnswer(service.View().Kind, json.RawMessage(args[0].String()))
			if answer == nil {
				return step(service.View(), domain.ErrInvalidAnswer)
			}
			_, v, err := service.Submit(ctx, answer)
			return step(v, err)
		},
		"next": func([]js.Value) any {
			v, err := service.Next(ctx)
			return step(v, err)
		},
		"prev":        func([]js.Value) any { return service.Prev(ctx) },
		"togglePause": func([]js.Value) any { return service.TogglePause(ctx) },
		"restart":     func([]js.Value) any { return service.Restart(ctx) },
		"certificate": func(args []js.Value) any {
			var student, teacher string
			if len(args) > 0 {
				student = args[0].String()
			}
			if len(args) > 1 {
				teacher = args[1].String()
			}
			cert, err := service.Certificate(student, teacher)
			if err != nil {
				return certificateResult{Error: errorText(err)}
			}
			return certificateResult{Certificate: cert}
		},
	}

	obj := js.Global().Get("Object").New()
	for name, fn := range fns {
		fn := fn
		obj.Set(name, js.FuncOf(func(_ js.Value, args []js.Value) any {
			return encode(fn(args))
		}))
	}
	obj.Set("captureCertificate", js.FuncOf(func(js.Value, []js.Value) any {
		return promise(func() any { return captureCertificate(ctx) })
	}))
	obj.Set("subscribe", js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) == 0 || args[0].Type() != js.TypeFunction {
			return nil
		}
		cb := args[0]
		updates, cancel := service.Subscribe(ctx)
		go func() {
			for v := range updates {
				cb.Invoke(encode(v))
			}
		}()
		return js.FuncOf(func(js.Value, []js.Value) any {
			cancel()
			return nil
		})
	}))
	return obj
}

func step(v app.View, err error) stepResult {
	r := stepResult{View: v}
	if err != nil {
		r.Error = errorText(err)
		r.Code = errorCode(err)
	}
	return r
}

func encode(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `{"error":"encode failed"}`
	}
	return string(b)
}

func errorText(err error) string {
	_, msg := app.Describe(err)
	return msg
}

func errorCode(err error) string {
	code, _ := app.Describe(err)
	return code
}
