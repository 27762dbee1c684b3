//go:build js && wasm

package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"syscall/js"
	"time"

	"quiz-studio/internal/certificate"
	"quiz-studio/internal/media"
)

const captureTimeout = 30 * time.Second

var errNoCanvas = errors.New("html2canvas is not loaded")

type captureResult struct {
	Image string `json:"image,omitempty"`
	Error string `json:"error,omitempty"`
}

// canvasRenderer rasterizes an element with the page's html2canvas.
type canvasRenderer struct {
	target js.Value
}

func (r canvasRenderer) Render(ctx context.Context) ([]byte, error) {
	h2c := js.Global().Get("html2canvas")
	if h2c.Type() != js.TypeFunction {
		return nil, errNoCanvas
	}
	opts := js.ValueOf(map[string]any{"scale": 2, "useCORS": true, "logging": false})
	canvas, err := await(ctx, h2c.Invoke(r.target, opts))
	if err != nil {
		return nil, err
	}
	_, b64, ok := strings.Cut(canvas.Call("toDataURL", "image/png").String(), ",")
	if !ok {
		return nil, errors.New("canvas returned no image")
	}
	return base64.StdEncoding.DecodeString(b64)
}

// domChrome hides the certificate buttons while the image is taken.
type domChrome struct {
	el js.Value
}

func (c domChrome) Hide()    { c.set(true) }
func (c domChrome) Restore() { c.set(false) }

func (c domChrome) set(hidden bool) {
	if c.el.Truthy() {
		c.el.Set("hidden", hidden)
	}
}

func captureCertificate(ctx context.Context) captureResult {
	ctx, cancel := context.WithTimeout(ctx, captureTimeout)
	defer cancel()

	target := js.Global().Get("document").Call("getElementById", "certificateContainer")
	if !target.Truthy() {
		return captureResult{Error: "تعذر إنشاء الصورة."}
	}
	img, err := certificate.Capture(ctx, canvasRenderer{target: target},
		domChrome{el: target.Call("querySelector", "[data-chrome]")})
	if err != nil {
		js.Global().Get("console").Call("error", err.Error())
		return captureResult{Error: "تعذر إنشاء الصورة."}
	}
	m, err := media.FromBytes(img, "image/png")
	if err != nil {
		return captureResult{Error: "تعذر إنشاء الصورة."}
	}
	return captureResult{Image: string(m)}
}

// promise runs fn off the event loop and resolves with its JSON result.
// Blocking inside a js.FuncOf callback would deadlock on awaited promises.
func promise(fn func() any) js.Value {
	var executor js.Func
	executor = js.FuncOf(func(_ js.Value, args []js.Value) any {
		resolve := args[0]
		go func() {
			defer executor.Release()
			resolve.Invoke(encode(fn()))
		}()
		return nil
	})
	return js.Global().Get("Promise").New(executor)
}

// await blocks the calling goroutine until p settles.
func await(ctx context.Context, p js.Value) (js.Value, error) {
	type outcome struct {
		v   js.Value
		err error
	}
	settled := make(chan outcome, 1)
	onDone := js.FuncOf(func(_ js.Value, args []js.Value) any {
		settled <- outcome{v: arg(args)}
		return nil
	})
	onFail := js.FuncOf(func(_ js.Value, args []js.Value) any {
		settled <- outcome{err: fmt.Errorf("promise rejected: %s", js.Global().Get("String").Invoke(arg(args)).String())}
		return nil
	})
	p.Call("then", onDone, onFail)
	select {
	case o := <-settled:
		onDone.Release()
		onFail.Release()
		return o.v, o.err
	case <-ctx.Done():
		// the callbacks stay registered: the promise may still settle
		return js.Undefined(), ctx.Err()
	}
}

func arg(args []js.Value) js.Value {
	if len(args) == 0 {
		return js.Undefined()
	}
	return args[0]
}
