package pitch

// findKeyMaxima appends to maxima the lag of the highest NSDF value inside
// each positive region that starts at a positive-going zero crossing. The
// positive lobe around lag 0 is skipped. A region still open at the last lag
// counts only when its maximum lies before that lag; one still rising at the
// edge has no peak inside the window.
func findKeyMaxima(nsdf []float64, maxima []int) []int {
	i := 0
	for i < len(nsdf) && nsdf[i] > 0 {
		i++
	}

	inRegion := false
	best := -1
	for ; i < len(nsdf); i++ {
		v := nsdf[i]
		if v > 0 {
			if !inRegion {
				inRegion = true
				best = i
			} else if v > nsdf[best] {
				best = i
			}
			continue
		}
		if inRegion {
			maxima = append(maxima, best)
			inRegion = false
		}
	}
	if inRegion && best < len(nsdf)-1 {
		maxima = append(maxima, best)
	}

	return maxima
}

// selectPeak returns the first key maximum whose height reaches cutoff times
// the highest key maximum, or -1 when there are none.
func selectPeak(nsdf []float64, maxima []int, cutoff float64) int {
	if len(maxima) == 0 {
		return -1
	}

	highest := nsdf[maxima[0]]
	for _, lag := range maxima[1:] {
		highest = max(highest, nsdf[lag])
	}

	threshold := cutoff * highest
	for _, lag := range maxima {
		if nsdf[lag] >= threshold {
			return lag
		}
	}
	return -1
}

// interpolatePeak fits a parabola through the peak and its neighbours and
// returns the refined lag and height. Peaks at either edge are returned unrefined.
func interpolatePeak(nsdf []float64, lag int) (refinedLag, height float64) {
	if lag <= 0 || lag >= len(nsdf)-1 {
		return float64(lag), nsdf[lag]
	}

	y1, y2, y3 := nsdf[lag-1], nsdf[lag], nsdf[lag+1]
	a := (y1 - 2*y2 + y3) / 2
	b := (y3 - y1) / 2
	if a == 0 {
		return float64(lag), y2
	}

	shift := -b / (2 * a)
	return float64(lag) + shift, y2 - b*b/(4*a)
}
