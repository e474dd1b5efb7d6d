package phoneme

func bands(f1, f2, f3, f4, f5, b1, b2, b3, b4, b5 float32) Target {
	return Target{
		Freqs:      [Bands]float32{f1, f2, f3, f4, f5},
		Bandwidths: [Bands]float32{b1, b2, b3, b4, b5},
	}
}

var entries = []Phoneme{
	// Vowels.
	{Symbol: "IY", IPA: "i", Category: Vowel, Voiced: true, Target: bands(270, 2300, 3000, 3500, 4500, 60, 90, 120, 130, 140)},
	{Symbol: "IH", IPA: "ɪ", Category: Vowel, Voiced: true, Target: bands(390, 2000, 2800, 3500, 4500, 50, 80, 120, 130, 140)},
	{Symbol: "EH", IPA: "ɛ", Category: Vowel, Voiced: true, Target: bands(530, 1800, 2500, 3500, 4500, 50, 80, 120, 130, 140)},
	{Symbol: "AE", IPA: "æ", Category: Vowel, Voiced: true, Target: bands(660, 1700, 2600, 3500, 4500, 60, 90, 120, 130, 140)},
	{Symbol: "AA", IPA: "ɑ", Category: Vowel, Voiced: true, Target: bands(730, 1090, 2440, 3500, 4500, 80, 100, 120, 130, 140)},
	{Symbol: "AH", IPA: "ʌ", Category: Vowel, Voiced: true, Target: bands(570, 1200, 2500, 3500, 4500, 70, 100, 120, 130, 140)},
	{Symbol: "AO", IPA: "ɔ", Category: Vowel, Voiced: true, Target: bands(570, 840, 2500, 3500, 4500, 50, 80, 120, 130, 140)},
	{Symbol: "OW", IPA: "o", Category: Vowel, Voiced: true, Target: bands(440, 1020, 2500, 3500, 4500, 50, 80, 120, 130, 140)},
	{Symbol: "UH", IPA: "ʊ", Category: Vowel, Voiced: true, Target: bands(440, 1020, 2500, 3500, 4500, 50, 80, 120, 130, 140)},
	{Symbol: "UW", IPA: "u", Category: Vowel, Voiced: true, Target: bands(300, 870, 2250, 3500, 4500, 50, 80, 120, 130, 140)},
	{Symbol: "AX", IPA: "ə", Category: Vowel, Voiced: true, Target: bands(500, 1500, 2500, 3500, 4500, 60, 90, 120, 130, 140)},

	// Fricatives.
	{Symbol: "S", IPA: "s", Category: Fricative, Target: bands(5000, 6000, 7000, 8000, 9000, 1000, 1000, 1000, 1000, 1000)},
	{Symbol: "SH", IPA: "ʃ", Category: Fricative, Target: bands(3000, 4000, 5000, 6000, 7000, 1000, 1000, 1000, 1000, 1000)},
	{Symbol: "F", IPA: "f", Category: Fricative, Target: bands(4000, 5000, 6000, 7000, 8000, 1000, 1000, 1000, 1000, 1000)},
	{Symbol: "Z", IPA: "z", Category: Fricative, Voiced: true, Target: bands(4500, 5500, 6500, 7500, 8500, 800, 900, 1000, 1000, 1000)},
	{Symbol: "V", IPA: "v", Category: Fricative, Voiced: true, Target: bands(3500, 4500, 5500, 6500, 7500, 800, 900, 1000, 1000, 1000)},
	{Symbol: "HH", IPA: "h", Category: Aspirate, Target: bands(500, 1500, 2500, 3500, 4500, 200, 220, 250, 300, 300)},

	// Plosives.
	{Symbol: "P", IPA: "p", Category: Plosive, Target: bands(300, 1200, 2500, 3500, 4500, 50, 80, 120, 130, 140)},
	{Symbol: "T", IPA: "t", Category: Plosive, Target: bands(400, 1500, 2500, 3500, 4500, 50, 80, 120, 130, 140)},
	{Symbol: "K", IPA: "k", Category: Plosive, Target: bands(500, 1800, 2500, 3500, 4500, 50, 80, 120, 130, 140)},
	{Symbol: "B", IPA: "b", Category: Plosive, Voiced: true, Target: bands(300, 1200, 2500, 3500, 4500, 50, 80, 120, 130, 140)},
	{Symbol: "D", IPA: "d", Category: Plosive, Voiced: true, Target: bands(400, 1500, 2500, 3500, 4500, 50, 80, 120, 130, 140)},
	{Symbol: "G", IPA: "ɡ", Category: Plosive, Voiced: true, Target: bands(500, 1800, 2500, 3500, 4500, 50, 80, 120, 130, 140)},

	// Nasals.
	{Symbol: "M", IPA: "m", Category: Nasal, Voiced: true, Target: bands(300, 1200, 2500, 3500, 4500, 50, 100, 120, 130, 140)},
	{Symbol: "N", IPA: "n", Category: Nasal, Voiced: true, Target: bands(350, 1400, 2500, 3500, 4500, 50, 100, 120, 130, 140)},

	// Approximants.
	{Symbol: "L", IPA: "l", Category: Approximant, Voiced: true, Target: bands(360, 1300, 2700, 3500, 4500, 60, 100, 120, 130, 140)},
	{Symbol: "R", IPA: "ɹ", Category: Approximant, Voiced: true, Target: bands(310, 1060, 1380, 3500, 4500, 70, 100, 120, 130, 140)},
	{Symbol: "W", IPA: "w", Category: Approximant, Voiced: true, Target: bands(290, 610, 2150, 3500, 4500, 50, 80, 120, 130, 140)},
	{Symbol: "Y", IPA: "j", Category: Approximant, Voiced: true, Target: bands(260, 2070, 3020, 3500, 4500, 50, 90, 120, 130, 140)},
}

var table = func() map[string]*Phoneme {
	m := make(map[string]*Phoneme, len(entries))
	for i := range entries {
		m[entries[i].Symbol] = &entries[i]
	}
	return m
}()
