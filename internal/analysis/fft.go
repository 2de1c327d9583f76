// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"
	"sync"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// Backend selects the FFT implementation used by a Transform.
type Backend int

const (
	// BackendGonum uses gonum's real-input FFT (default).
	BackendGonum Backend = iota
	// BackendGoDSP uses go-dsp's FFTReal.
	BackendGoDSP
)

func (b Backend) String() string {
	switch b {
	case BackendGonum:
		return "gonum"
	case BackendGoDSP:
		return "godsp"
	default:
		return fmt.Sprintf("Backend(%d)", int(b))
	}
}

// ParseBackend converts a backend name (case-insensitive) to a Backend.
func ParseBackend(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "gonum":
		return BackendGonum, nil
	case "godsp", "go-dsp":
		return BackendGoDSP, nil
	default:
		return BackendGonum, fmt.Errorf("unknown FFT backend: '%s'", name)
	}
}

// WindowFunc selects the tapering applied to samples before the FFT.
type WindowFunc int

// Available window functions. NoWindow leaves the samples untouched.
const (
	NoWindow WindowFunc = iota
	BartlettHann
	Blackman
	BlackmanNuttall
	Hann
	Hamming
	Lanczos
	Nuttall
)

var windowNames = [...]string{"none", "bartletthann", "blackman", "blackmannuttall", "hann", "hamming", "lanczos", "nuttall"}

func (w WindowFunc) String() string {
	if w < 0 || int(w) >= len(windowNames) {
		return fmt.Sprintf("WindowFunc(%d)", int(w))
	}
	return windowNames[w]
}

// ParseWindowFunc converts a string name (case-insensitive) to a WindowFunc.
// Unknown names return NoWindow and an error.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none", "rectangular":
		return NoWindow, nil
	case "bartletthann":
		return BartlettHann, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return NoWindow, fmt.Errorf("unknown FFT window function name: '%s'", name)
	}
}

// Bin is one labelled spectral bin.
type Bin struct {
	FrequencyHz float32
	Amplitude   float32
}

// maxCachedPlans bounds the per-length plan cache. Playback windows vary
// by the drift correction, so a handful of lengths are live at once.
const maxCachedPlans = 16

// Transform computes single-sided amplitude spectra of real windows.
//
// A window of N samples yields N/2 bins. Bin i is labelled i*rate/N Hz and
// carries |X[i]|/N*gain, a DFT-magnitude normalization rather than a power
// spectral density. Plans and window coefficients are cached per N, so
// windows whose length changes from call to call do not rebuild them.
type Transform struct {
	backend    Backend
	windowType WindowFunc

	mu    sync.Mutex
	plans map[int]*fftPlan
	input []float64
}

// fftPlan holds everything that depends only on the window length.
type fftPlan struct {
	fft    *fourier.FFT
	coeffs []complex128
	window []float64
}

// NewTransform creates a Transform using the given backend and window.
func NewTransform(backend Backend, windowType WindowFunc) *Transform {
	return &Transform{
		backend:    backend,
		windowType: windowType,
		plans:      make(map[int]*fftPlan),
	}
}

// Backend returns the configured FFT backend.
func (t *Transform) Backend() Backend { return t.backend }

// Compute returns the spectrum of samples. Windows shorter than two samples
// have no bins and return nil.
func (t *Transform) Compute(samples []float32, sampleRate float64, gain float32) []Bin {
	return t.ComputeInto(nil, samples, sampleRate, gain)
}

// ComputeInto is Compute writing into dst, which is grown as needed and
// returned resliced to N/2 bins.
func (t *Transform) ComputeInto(dst []Bin, samples []float32, sampleRate float64, gain float32) []Bin {
	n := len(samples)
	if n < 2 {
		return dst[:0]
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	p := t.plan(n)
	if cap(t.input) < n {
		t.input = make([]float64, n)
	}
	input := t.input[:n]
	for i, s := range samples {
		input[i] = float64(s)
		if p.window != nil {
			input[i] *= p.window[i]
		}
	}

	var coeffs []complex128
	switch t.backend {
	case BackendGoDSP:
		coeffs = fft.FFTReal(input)
	default:
		coeffs = p.fft.Coefficients(p.coeffs, input)
	}

	half := n / 2
	if cap(dst) < half {
		dst = make([]Bin, half)
	}
	dst = dst[:half]

	resolution := sampleRate / float64(n)
	scale := float64(gain) / float64(n)
	for i := range dst {
		dst[i] = Bin{
			FrequencyHz: float32(float64(i) * resolution),
			Amplitude:   float32(cmplx.Abs(coeffs[i]) * scale),
		}
	}
	return dst
}

// plan returns the cached plan for length n, building it on first use.
// Callers hold t.mu.
func (t *Transform) plan(n int) *fftPlan {
	if p, ok := t.plans[n]; ok {
		return p
	}
	if len(t.plans) >= maxCachedPlans {
		clear(t.plans)
	}

	p := &fftPlan{}
	if t.backend == BackendGonum {
		p.fft = fourier.NewFFT(n)
		p.coeffs = make([]complex128, n/2+1)
	}
	if t.windowType != NoWindow {
		p.window = make([]float64, n)
		applyWindow(p.window, t.windowType)
	}
	t.plans[n] = p
	return p
}

// FrequencyBins returns the labels of the N/2 bins of an N-sample window:
// i*sampleRate/N for i in [0, N/2).
func FrequencyBins(sampleRate float64, n int) []float32 {
	if n < 2 {
		return nil
	}
	freqs := make([]float32, n/2)
	for i := range freqs {
		freqs[i] = float32(float64(i) * sampleRate / float64(n))
	}
	return freqs
}

// MeanAmplitude returns the arithmetic mean of the bin amplitudes, or 0 for
// an empty spectrum.
func MeanAmplitude(bins []Bin) float32 {
	if len(bins) == 0 {
		return 0
	}
	var sum float64
	for _, b := range bins {
		sum += float64(b.Amplitude)
	}
	mean := sum / float64(len(bins))
	if math.IsNaN(mean) || math.IsInf(mean, 0) {
		return 0
	}
	return float32(mean)
}

// applyWindow fills coeffs with the selected window function.
func applyWindow(coeffs []float64, windowType WindowFunc) {
	// gonum's window functions scale the slice in place, so start from ones.
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch windowType {
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Hann:
		window.Hann(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	}
}
