// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// multinomial_bench times the categorical sampling engine on a synthetic
// batch of logits and sanity-checks the empirical distribution of the
// samples against the exact softmax probabilities with a chi-square test.
//
// Example:
//
//	multinomial_bench -batch=512 -classes=32000 -samples=16 -trials=20
package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/janpfeifer/must"
	"github.com/schollz/progressbar/v3"
	"gonum.org/v1/gonum/stat/distuv"
	"k8s.io/klog/v2"

	"github.com/gomlx/multinomial"
)

var (
	flagBatch       = flag.Int("batch", 256, "Number of rows (independent categorical distributions).")
	flagClasses     = flag.Int("classes", 1024, "Number of classes per row.")
	flagSamples     = flag.Int("samples", 32, "Samples drawn per row per trial.")
	flagTrials      = flag.Int("trials", 10, "Number of timed sampling calls.")
	flagParallelism = flag.Int("parallelism", -2, "Worker pool parallelism: 0 disables, -1 unlimited, -2 keeps the default (NumCPU).")
	flagSeed        = flag.Int64("seed", 42, "Seed for the synthetic logits and the sampling streams.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	batch, classes, samples := *flagBatch, *flagClasses, *flagSamples
	if batch <= 0 || classes <= 0 || samples <= 0 || *flagTrials <= 0 {
		klog.Errorf("-batch, -classes, -samples and -trials must all be positive.")
		os.Exit(1)
	}

	var options []multinomial.Option
	if *flagParallelism != -2 {
		options = append(options, multinomial.WithMaxParallelism(*flagParallelism))
	}
	sampler := must.M1(multinomial.New(options...))

	rng := rand.New(rand.NewSource(*flagSeed))
	data := make([]float32, batch*classes)
	for i := range data {
		data[i] = float32(rng.NormFloat64())
	}
	logits := must.M1(multinomial.NewLogits(batch, classes, data))

	fmt.Printf("Sampling %s rows x %s classes, %s samples/row, %d trials:\n",
		humanize.Comma(int64(batch)), humanize.Comma(int64(classes)),
		humanize.Comma(int64(samples)), *flagTrials)

	counts := make([]int, classes) // Class frequencies of row 0, across trials.
	bar := progressbar.Default(int64(*flagTrials))
	start := time.Now()
	for trial := 0; trial < *flagTrials; trial++ {
		out := must.M1(sampler.StatelessSample(logits, samples, []uint64{uint64(*flagSeed), uint64(trial)}))
		for i := 0; i < samples; i++ {
			counts[out.At(0, i)]++
		}
		must.M(bar.Add(1))
	}
	elapsed := time.Since(start)

	totalSamples := int64(batch) * int64(samples) * int64(*flagTrials)
	perSecond := float64(totalSamples) / elapsed.Seconds()
	fmt.Printf("\t%s samples in %s (%s samples/sec, %s rows/sec)\n",
		humanize.Comma(totalSamples), elapsed.Round(time.Millisecond),
		humanize.SIWithDigits(perSecond, 1, ""),
		humanize.SIWithDigits(float64(batch)*float64(*flagTrials)/elapsed.Seconds(), 1, ""))

	reportChiSquare(data[:classes], counts)
}

// reportChiSquare compares the sampled class frequencies of row 0 against the
// exact softmax of its logits.
func reportChiSquare(rowLogits []float32, counts []int) {
	maxLogit := math.Inf(-1)
	for _, l := range rowLogits {
		maxLogit = math.Max(maxLogit, float64(l))
	}
	probs := make([]float64, len(rowLogits))
	var total float64
	for i, l := range rowLogits {
		probs[i] = math.Exp(float64(l) - maxLogit)
		total += probs[i]
	}
	var n int
	for _, c := range counts {
		n += c
	}

	var chi2 float64
	dof := 0
	for i, c := range counts {
		expected := float64(n) * probs[i] / total
		if expected < 5 {
			// Too few expected observations for the chi-square approximation;
			// skip sparse classes.
			continue
		}
		diff := float64(c) - expected
		chi2 += diff * diff / expected
		dof++
	}
	if dof < 2 {
		fmt.Println("\tdistribution check skipped: not enough samples per class (raise -trials or -samples)")
		return
	}
	pValue := 1.0 - distuv.ChiSquared{K: float64(dof - 1)}.CDF(chi2)
	fmt.Printf("\tdistribution check (row 0): chi2=%.1f dof=%d p=%.3f\n", chi2, dof-1, pValue)
	if pValue < 0.001 {
		fmt.Println("\tWARNING: sampled distribution deviates from softmax(logits)!")
	}
}
