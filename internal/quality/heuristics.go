package quality

import (
	"strings"
	"unicode"
)

// HeuristicScorer scores drafts with deterministic text statistics.
// It is intentionally cheap: no model calls, same input same output.
type HeuristicScorer struct{}

// Score implements Scorer over the seven rubric dimensions.
func (HeuristicScorer) Score(text, topic string) map[string]float64 {
	stats := analyze(text)
	topicTerms := significantTerms(topic)

	return map[string]float64{
		"clarity":      scoreClarity(stats),
		"accuracy":     scoreAccuracy(stats),
		"completeness": scoreCompleteness(stats),
		"relevance":    scoreRelevance(stats, topicTerms),
		"seo_quality":  scoreSEO(stats, topicTerms),
		"readability":  scoreReadability(stats),
		"engagement":   scoreEngagement(stats),
	}
}

// textStats holds the measurements the dimension scores draw on.
type textStats struct {
	words       []string
	lowerWords  []string
	sentences   int
	paragraphs  int
	headings    int
	digits      int
	longWords   int
	questions   int
	youCount    int
	exampleCues int
	factCues    int
}

// analyze walks the text once and collects all statistics.
func analyze(text string) textStats {
	var s textStats

	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			s.headings++
		}
	}
	for _, block := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(block) != "" {
			s.paragraphs++
		}
	}

	for _, r := range text {
		switch r {
		case '.', '!', '?':
			s.sentences++
		}
		if unicode.IsDigit(r) {
			s.digits++
		}
		if r == '?' {
			s.questions++
		}
	}

	s.words = strings.Fields(text)
	s.lowerWords = make([]string, len(s.words))
	for i, w := range s.words {
		lw := strings.ToLower(strings.Trim(w, ".,;:!?\"'()[]"))
		s.lowerWords[i] = lw
		if len(lw) > 7 {
			s.longWords++
		}
		if lw == "you" || lw == "your" {
			s.youCount++
		}
	}

	lower := strings.ToLower(text)
	for _, cue := range []string{"for example", "for instance", "imagine", "consider", "such as"} {
		s.exampleCues += strings.Count(lower, cue)
	}
	for _, cue := range []string{"according to", "research", "study", "studies", "data", "evidence", "report"} {
		s.factCues += strings.Count(lower, cue)
	}

	return s
}

// scoreClarity rewards moderate sentence length (12-25 words).
func scoreClarity(s textStats) float64 {
	if s.sentences == 0 || len(s.words) == 0 {
		return 0
	}
	avg := float64(len(s.words)) / float64(s.sentences)
	switch {
	case avg >= 12 && avg <= 25:
		return 9
	case avg >= 8 && avg < 12, avg > 25 && avg <= 32:
		return 7
	case avg > 32 && avg <= 45:
		return 5
	default:
		return 3
	}
}

// scoreAccuracy is a proxy: concrete figures and sourced-claim cues.
func scoreAccuracy(s textStats) float64 {
	if len(s.words) == 0 {
		return 0
	}
	score := 5.0
	if s.digits > 0 {
		score += 1.5
	}
	score += float64(min(s.factCues, 3))
	return clamp(score, 0, 10)
}

// scoreCompleteness rewards substantial, structured drafts.
func scoreCompleteness(s textStats) float64 {
	n := len(s.words)
	var base float64
	switch {
	case n == 0:
		return 0
	case n < 100:
		base = 2
	case n < 300:
		base = 4
	case n < 600:
		base = 6
	case n < 1000:
		base = 7.5
	default:
		base = 8.5
	}
	if s.paragraphs >= 4 {
		base += 1
	}
	return clamp(base, 0, 10)
}

// scoreRelevance measures topic-term coverage in the body text.
func scoreRelevance(s textStats, topicTerms []string) float64 {
	if len(s.words) == 0 {
		return 0
	}
	if len(topicTerms) == 0 {
		return 5
	}
	covered := 0
	for _, term := range topicTerms {
		for _, w := range s.lowerWords {
			if w == term {
				covered++
				break
			}
		}
	}
	return clamp(float64(covered)/float64(len(topicTerms))*10, 0, 10)
}

// scoreSEO checks topic presence early in the text plus heading use.
func scoreSEO(s textStats, topicTerms []string) float64 {
	if len(s.words) == 0 {
		return 0
	}
	score := 3.0
	if s.headings > 0 {
		score += 2
	}

	lead := s.lowerWords
	if len(lead) > 100 {
		lead = lead[:100]
	}
	for _, term := range topicTerms {
		for _, w := range lead {
			if w == term {
				score += 4.0 / float64(len(topicTerms))
				break
			}
		}
	}
	return clamp(score, 0, 10)
}

// scoreReadability penalizes dense vocabulary.
func scoreReadability(s textStats) float64 {
	if len(s.words) == 0 {
		return 0
	}
	longRatio := float64(s.longWords) / float64(len(s.words))
	switch {
	case longRatio <= 0.15:
		return 9
	case longRatio <= 0.25:
		return 7.5
	case longRatio <= 0.35:
		return 6
	default:
		return 4
	}
}

// scoreEngagement rewards examples, questions, and direct address.
func scoreEngagement(s textStats) float64 {
	if len(s.words) == 0 {
		return 0
	}
	score := 4.0
	score += float64(min(s.exampleCues, 3)) * 1.5
	if s.questions > 0 {
		score += 1
	}
	if s.youCount > 0 {
		score += 1
	}
	return clamp(score, 0, 10)
}

// significantTerms extracts the topic words worth matching, dropping
// short stopword-like tokens.
func significantTerms(topic string) []string {
	var terms []string
	for _, w := range strings.Fields(strings.ToLower(topic)) {
		w = strings.Trim(w, ".,;:!?\"'()[]")
		if len(w) > 2 {
			terms = append(terms, w)
		}
	}
	return terms
}
