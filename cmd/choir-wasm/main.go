//go:build js && wasm

package main

import (
	"strings"
	"syscall/js"
	"unsafe"

	"github.com/cwbudde/algo-choir/choir"
	"github.com/cwbudde/algo-choir/phoneme"
	"github.com/cwbudde/algo-choir/preset"
)

const maxFrames = 128

var (
	globalChoir  *choir.VoiceManager
	left, right  []float32
	outputBuffer []float32
	heldMethod   = choir.MethodKind(-1)
)

func main() {
	c := make(chan struct{})

	js.Global().Set("wasmInit", js.FuncOf(wasmInit))
	js.Global().Set("wasmNoteOn", js.FuncOf(wasmNoteOn))
	js.Global().Set("wasmNoteOff", js.FuncOf(wasmNoteOff))
	js.Global().Set("wasmAllNotesOff", js.FuncOf(wasmAllNotesOff))
	js.Global().Set("wasmSetPhoneme", js.FuncOf(wasmSetPhoneme))
	js.Global().Set("wasmSetMethod", js.FuncOf(wasmSetMethod))
	js.Global().Set("wasmLoadPreset", js.FuncOf(wasmLoadPreset))
	js.Global().Set("wasmProcessBlock", js.FuncOf(wasmProcessBlock))
	js.Global().Set("wasmGetMemoryBuffer", js.FuncOf(wasmGetMemoryBuffer))

	println("WASM choir module loaded")
	<-c
}

// wasmInit(sampleRate, voices)
func wasmInit(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	sampleRate := args[0].Float()
	voices := 16
	if len(args) > 1 {
		voices = args[1].Int()
	}

	m, err := choir.NewVoiceManager(voices)
	if err != nil {
		println("choir init failed:", err.Error())
		return nil
	}
	if err := m.Prepare(float32(sampleRate), maxFrames); err != nil {
		println("choir prepare failed:", err.Error())
		return nil
	}
	globalChoir = m
	left = make([]float32, maxFrames)
	right = make([]float32, maxFrames)
	outputBuffer = make([]float32, maxFrames*2)

	println("Choir initialized at", int(sampleRate), "Hz with", voices, "voices")
	return nil
}

// wasmNoteOn(note, velocity[, phoneme])
func wasmNoteOn(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 || globalChoir == nil {
		return nil
	}
	var ph *phoneme.Phoneme
	if len(args) > 2 {
		ph = lookupPhoneme(args[2].String())
	}
	ev := choir.NoteOnEvent(args[0].Int(), float32(args[1].Float()))
	ev.Method = heldMethod
	ev.Phoneme = ph
	return globalChoir.Post(ev)
}

func wasmNoteOff(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || globalChoir == nil {
		return nil
	}
	return globalChoir.Post(choir.NoteOffEvent(args[0].Int(), 0))
}

func wasmAllNotesOff(this js.Value, args []js.Value) interface{} {
	if globalChoir == nil {
		return nil
	}
	return globalChoir.Post(choir.AllNotesOffEvent())
}

// wasmSetPhoneme(note, symbol)
func wasmSetPhoneme(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 || globalChoir == nil {
		return nil
	}
	ph := lookupPhoneme(args[1].String())
	if ph == nil {
		return false
	}
	return globalChoir.Post(choir.PhonemeEvent(args[0].Int(), ph))
}

// wasmSetMethod(name) selects the method for subsequent note-ons. An empty
// name goes back to the configured default.
func wasmSetMethod(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	name := strings.TrimSpace(args[0].String())
	if name == "" {
		heldMethod = -1
		return true
	}
	kind, err := choir.ParseMethodKind(name)
	if err != nil {
		println(err.Error())
		return false
	}
	heldMethod = kind
	return true
}

// wasmLoadPreset(text) applies a YAML or JSON preset document.
func wasmLoadPreset(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || globalChoir == nil {
		return nil
	}
	cfg, err := preset.LoadYAMLFromReader(strings.NewReader(args[0].String()))
	if err != nil {
		println("preset rejected:", err.Error())
		return false
	}
	p := *cfg.Params
	return globalChoir.Post(choir.Event{Kind: choir.EventParams, Params: &p})
}

func wasmProcessBlock(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || globalChoir == nil {
		return 0
	}

	numFrames := args[0].Int()
	if numFrames > maxFrames {
		numFrames = maxFrames
	}

	if err := globalChoir.ProcessBlock(left, right, numFrames); err != nil {
		clear(left)
		clear(right)
	}
	for i := 0; i < numFrames; i++ {
		outputBuffer[2*i] = left[i]
		outputBuffer[2*i+1] = right[i]
	}

	ptr := &outputBuffer[0]
	return js.ValueOf(uintptr(unsafe.Pointer(ptr)))
}

func wasmGetMemoryBuffer(this js.Value, args []js.Value) interface{} {
	return js.Global().Get("Go").Get("_inst").Get("exports").Get("mem").Get("buffer")
}

func lookupPhoneme(symbol string) *phoneme.Phoneme {
	ph, ok := phoneme.Lookup(strings.ToUpper(strings.TrimSpace(symbol)))
	if !ok {
		println("unknown phoneme:", symbol)
		return nil
	}
	return ph
}
