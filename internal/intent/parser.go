package intent

import (
	"strings"

	"github.com/dkoval/voxgate/internal/model"
)

// Context carries the reference-memory hints the fallback layer may
// consult. The parser never mutates session state.
type Context struct {
	LastTarget string
}

// Parser converts raw text into a structured Intent.
//
// Three ordered layers, first match wins:
//  1. Keyword layer — normalized keyword anywhere in the text
//  2. Pattern layer — structured patterns with named capture groups
//  3. Context layer — dictation passthrough, pronoun resolution, Unknown
//
// Layer order is strict priority; a keyword match is never overridden
// by a textually closer pattern. Within a layer the first registered
// group or pattern wins on ambiguous input.
type Parser struct {
	vocab *Vocabulary
	norm  normalizer
}

// NewParser creates a Parser over the given vocabulary. A nil
// vocabulary uses the built-in defaults.
func NewParser(vocab *Vocabulary) *Parser {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	return &Parser{vocab: vocab, norm: normalizer{vocab: vocab}}
}

// Vocab exposes the parser's word tables for reply classification.
func (p *Parser) Vocab() *Vocabulary { return p.vocab }

// ResolveReferences substitutes the first pronoun in text with the
// remembered target. Fusion calls this before Parse so a back-reference
// like "close it" resolves before parsing completes. Returns text
// unchanged when no pronoun is present or no target is remembered.
func (p *Parser) ResolveReferences(text, lastTarget string) string {
	if lastTarget == "" {
		return text
	}
	fields := strings.Fields(text)
	for i, f := range fields {
		for _, pr := range p.vocab.Pronouns {
			if strings.EqualFold(f, pr) {
				fields[i] = lastTarget
				return strings.Join(fields, " ")
			}
		}
	}
	return text
}

// Parse never fails; the worst case is an Unknown intent with low
// confidence. The returned intent carries a parser-proposed risk of 0 —
// risk assignment belongs to the safety policy.
func (p *Parser) Parse(text string, mode model.Mode, hints Context) model.Intent {
	raw := text
	normalized := p.norm.normalize(text)

	if normalized == "" {
		return model.Intent{
			Kind:       model.KindUnknown,
			Confidence: 0.3,
			Source:     model.SourceContext,
			RawText:    raw,
		}
	}

	if in, ok := p.matchKeywords(normalized, raw, mode); ok {
		p.enrichTarget(&in, hints)
		return in
	}
	// In dictation mode everything below the keyword layer is text to
	// type; patterns must not hijack the transcript.
	if mode != model.ModeDictation {
		if in, ok := p.matchPatterns(normalized, raw); ok {
			p.enrichTarget(&in, hints)
			return in
		}
	}
	return p.inferFromContext(normalized, raw, mode, hints)
}

// matchKeywords is the highest-confidence layer. Control groups fire in
// any mode; in dictation mode only control and type keywords are live,
// everything else is treated as text to type by the context layer.
func (p *Parser) matchKeywords(normalized, raw string, mode model.Mode) (model.Intent, bool) {
	tokens := strings.Fields(normalized)

	for _, g := range p.vocab.Keywords {
		kind := kindOf(g.Kind)
		if mode == model.ModeDictation && kind != model.KindControl && kind != model.KindDictation {
			continue
		}

		word, ok := containsAny(tokens, g.Words)
		if !ok {
			continue
		}

		conf := g.Confidence
		if conf == 0 {
			conf = 0.92
		}

		// A leading question token reclassifies a command keyword hit:
		// "what does delete do" is a question about delete, not a
		// delete command. The risky action is dropped with the
		// reclassification so the question runs in the knowledge lane
		// and never raises a confirmation.
		if kind == model.KindCommand && p.startsWithQuestionWord(tokens) {
			return model.Intent{
				Kind:       model.KindQuestion,
				Action:     "answer",
				Target:     normalized,
				Confidence: 0.90,
				Source:     model.SourceKeyword,
				RawText:    raw,
			}, true
		}

		return model.Intent{
			Kind:       kind,
			Action:     g.Action,
			Target:     remainder(normalized, word),
			Confidence: conf,
			Source:     model.SourceKeyword,
			RawText:    raw,
		}, true
	}

	// No action keyword: a leading question token alone still yields a
	// question in listening/question mode.
	if mode != model.ModeDictation && p.startsWithQuestionWord(tokens) {
		return model.Intent{
			Kind:       model.KindQuestion,
			Action:     "answer",
			Target:     normalized,
			Confidence: 0.90,
			Source:     model.SourceKeyword,
			RawText:    raw,
		}, true
	}

	return model.Intent{}, false
}

func (p *Parser) matchPatterns(normalized, raw string) (model.Intent, bool) {
	for _, pr := range p.vocab.Patterns {
		if pr.compiled == nil {
			continue
		}
		m := pr.compiled.FindStringSubmatch(normalized)
		if m == nil {
			continue
		}

		in := model.Intent{
			Kind:       kindOf(pr.Kind),
			Action:     pr.Action,
			Confidence: 0.75,
			Source:     model.SourcePattern,
			RawText:    raw,
		}
		for i, name := range pr.compiled.SubexpNames() {
			if name == "" || i >= len(m) || m[i] == "" {
				continue
			}
			in.Entities = append(in.Entities, model.Entity{
				Label:      name,
				Value:      m[i],
				Confidence: 0.75,
			})
			if name == "target" {
				in.Target = m[i]
			}
		}
		return in, true
	}
	return model.Intent{}, false
}

// enrichTarget fills a missing target from reference memory for actions
// that take one ("close" alone closes the last thing that worked).
// Provenance is recorded so the decision trail shows the inference.
func (p *Parser) enrichTarget(in *model.Intent, hints Context) {
	if in.Target != "" || hints.LastTarget == "" {
		return
	}
	if in.Kind != model.KindCommand || !p.vocab.TakesTarget(in.Action) {
		return
	}
	in.Target = hints.LastTarget
	in.InferredFrom = "last_target"
}

// inferFromContext is the fallback layer.
func (p *Parser) inferFromContext(normalized, raw string, mode model.Mode, hints Context) model.Intent {
	if mode == model.ModeDictation {
		return model.Intent{
			Kind:       model.KindDictation,
			Action:     "type",
			Target:     normalized,
			Confidence: 0.5,
			Source:     model.SourceContext,
			RawText:    raw,
		}
	}

	// Pronoun back-reference: substitute the remembered target and give
	// the earlier layers one more chance at reduced confidence.
	if hints.LastTarget != "" && p.containsPronoun(normalized) {
		resolved := p.substitutePronoun(normalized, hints.LastTarget)
		if in, ok := p.matchKeywords(resolved, raw, mode); ok {
			in.Confidence = 0.5
			in.Source = model.SourceContext
			in.InferredFrom = "last_target"
			return in
		}
		if in, ok := p.matchPatterns(resolved, raw); ok {
			in.Confidence = 0.5
			in.Source = model.SourceContext
			in.InferredFrom = "last_target"
			return in
		}
	}

	return model.Intent{
		Kind:       model.KindUnknown,
		Confidence: 0.3,
		Source:     model.SourceContext,
		RawText:    raw,
	}
}

func (p *Parser) startsWithQuestionWord(tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	for _, q := range p.vocab.QuestionWords {
		if tokens[0] == q {
			return true
		}
	}
	return false
}

func (p *Parser) containsPronoun(text string) bool {
	_, ok := containsAny(strings.Fields(text), p.vocab.Pronouns)
	return ok
}

func (p *Parser) substitutePronoun(text, target string) string {
	fields := strings.Fields(text)
	for i, f := range fields {
		for _, pr := range p.vocab.Pronouns {
			if f == pr {
				fields[i] = target
				return strings.Join(fields, " ")
			}
		}
	}
	return text
}

// containsAny returns the first word of set found in tokens, honoring
// set order so earlier-registered words win ties.
func containsAny(tokens []string, set []string) (string, bool) {
	for _, w := range set {
		for _, t := range tokens {
			if t == w {
				return w, true
			}
		}
	}
	return "", false
}
