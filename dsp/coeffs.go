package dsp

import "math"

// FilterType tags which RBJ cookbook form a band uses. Filter variants
// live in this small closed set rather than behind a pointer-based
// interface, so the hot path never dynamically dispatches.
type FilterType int

const (
	Peaking FilterType = iota
	LowShelf
	HighShelf
	HighPass
	LowPass
)

func sanitizeFreq(freq, sampleRate float64) float64 {
	nyquist := sampleRate/2 - 1
	if nyquist < 10 {
		nyquist = 10
	}
	if freq < 10 {
		return 10
	}
	if freq > nyquist {
		return nyquist
	}
	return freq
}

func sanitizeQ(q float64) float64 {
	if q < 0.1 {
		return 0.1
	}
	if q > 18 {
		return 18
	}
	return q
}

func sanitizeGain(db float64) float64 {
	if db < -24 {
		return -24
	}
	if db > 24 {
		return 24
	}
	return db
}

func sanitizeSlope(s float64) float64 {
	if s < 0.1 {
		return 0.1
	}
	if s > 18 {
		return 18
	}
	return s
}

// PeakingCoeffs computes a peaking-EQ biquad per the RBJ Audio EQ Cookbook.
func PeakingCoeffs(sampleRate, freq, gainDB, q float64) Coeffs {
	freq = sanitizeFreq(freq, sampleRate)
	q = sanitizeQ(q)
	gainDB = sanitizeGain(gainDB)

	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freq / sampleRate
	sinW0, cosW0 := math.Sin(w0), math.Cos(w0)
	alpha := sinW0 / (2 * q)

	b0 := 1 + alpha*a
	b1 := -2 * cosW0
	b2 := 1 - alpha*a
	a0 := 1 + alpha/a
	a1 := -2 * cosW0
	a2 := 1 - alpha/a

	return normalize(b0, b1, b2, a0, a1, a2)
}

// LowShelfCoeffs computes a low-shelf biquad parameterized by slope S.
func LowShelfCoeffs(sampleRate, freq, gainDB, slope float64) Coeffs {
	return shelfCoeffs(sampleRate, freq, gainDB, slope, true)
}

// HighShelfCoeffs computes a high-shelf biquad parameterized by slope S.
func HighShelfCoeffs(sampleRate, freq, gainDB, slope float64) Coeffs {
	return shelfCoeffs(sampleRate, freq, gainDB, slope, false)
}

func shelfCoeffs(sampleRate, freq, gainDB, slope float64, low bool) Coeffs {
	freq = sanitizeFreq(freq, sampleRate)
	slope = sanitizeSlope(slope)
	gainDB = sanitizeGain(gainDB)

	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freq / sampleRate
	sinW0, cosW0 := math.Sin(w0), math.Cos(w0)
	alpha := sinW0 / 2 * math.Sqrt((a+1/a)*(1/slope-1)+2)
	beta := 2 * math.Sqrt(a) * alpha

	var b0, b1, b2, a0, a1, a2 float64
	if low {
		b0 = a * ((a + 1) - (a-1)*cosW0 + beta)
		b1 = 2 * a * ((a - 1) - (a+1)*cosW0)
		b2 = a * ((a + 1) - (a-1)*cosW0 - beta)
		a0 = (a + 1) + (a-1)*cosW0 + beta
		a1 = -2 * ((a - 1) + (a+1)*cosW0)
		a2 = (a + 1) + (a-1)*cosW0 - beta
	} else {
		b0 = a * ((a + 1) + (a-1)*cosW0 + beta)
		b1 = -2 * a * ((a - 1) + (a+1)*cosW0)
		b2 = a * ((a + 1) + (a-1)*cosW0 - beta)
		a0 = (a + 1) - (a-1)*cosW0 + beta
		a1 = 2 * ((a - 1) - (a+1)*cosW0)
		a2 = (a + 1) - (a-1)*cosW0 - beta
	}

	return normalize(b0, b1, b2, a0, a1, a2)
}

// LowPassCoeffs computes a standard RBJ low-pass biquad.
func LowPassCoeffs(sampleRate, freq, q float64) Coeffs {
	freq = sanitizeFreq(freq, sampleRate)
	q = sanitizeQ(q)
	w0 := 2 * math.Pi * freq / sampleRate
	sinW0, cosW0 := math.Sin(w0), math.Cos(w0)
	alpha := sinW0 / (2 * q)

	b0 := (1 - cosW0) / 2
	b1 := 1 - cosW0
	b2 := (1 - cosW0) / 2
	a0 := 1 + alpha
	a1 := -2 * cosW0
	a2 := 1 - alpha

	return normalize(b0, b1, b2, a0, a1, a2)
}

// HighPassCoeffs computes a standard RBJ high-pass biquad.
func HighPassCoeffs(sampleRate, freq, q float64) Coeffs {
	freq = sanitizeFreq(freq, sampleRate)
	q = sanitizeQ(q)
	w0 := 2 * math.Pi * freq / sampleRate
	sinW0, cosW0 := math.Sin(w0), math.Cos(w0)
	alpha := sinW0 / (2 * q)

	b0 := (1 + cosW0) / 2
	b1 := -(1 + cosW0)
	b2 := (1 + cosW0) / 2
	a0 := 1 + alpha
	a1 := -2 * cosW0
	a2 := 1 - alpha

	return normalize(b0, b1, b2, a0, a1, a2)
}

func normalize(b0, b1, b2, a0, a1, a2 float64) Coeffs {
	return Coeffs{
		B0: float32(b0 / a0),
		B1: float32(b1 / a0),
		B2: float32(b2 / a0),
		A1: float32(a1 / a0),
		A2: float32(a2 / a0),
	}
}

// ForType dispatches to the right cookbook form for a band's FilterType.
func ForType(t FilterType, sampleRate, freq, gainDB, q float64) Coeffs {
	switch t {
	case LowShelf:
		return LowShelfCoeffs(sampleRate, freq, gainDB, 1.0)
	case HighShelf:
		return HighShelfCoeffs(sampleRate, freq, gainDB, 1.0)
	case HighPass:
		return HighPassCoeffs(sampleRate, freq, q)
	case LowPass:
		return LowPassCoeffs(sampleRate, freq, q)
	default:
		return PeakingCoeffs(sampleRate, freq, gainDB, q)
	}
}

// MagnitudeSquared evaluates |H(e^{jw})|^2 for a biquad's coefficients at
// angular frequency w = 2*pi*freq/sampleRate, accumulating in float64 to
// avoid underflow across a cascade.
func MagnitudeSquared(c Coeffs, freq, sampleRate float64) float64 {
	w := 2 * math.Pi * freq / sampleRate
	cosW, cos2W := math.Cos(w), math.Cos(2*w)
	sinW, sin2W := math.Sin(w), math.Sin(2*w)

	numRe := float64(c.B0) + float64(c.B1)*cosW + float64(c.B2)*cos2W
	numIm := -float64(c.B1)*sinW - float64(c.B2)*sin2W
	denRe := 1 + float64(c.A1)*cosW + float64(c.A2)*cos2W
	denIm := -float64(c.A1)*sinW - float64(c.A2)*sin2W

	numMag2 := numRe*numRe + numIm*numIm
	denMag2 := denRe*denRe + denIm*denIm
	if denMag2 == 0 {
		return 0
	}
	return numMag2 / denMag2
}
