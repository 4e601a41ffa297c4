package schema

import (
	"context"
	"encoding/json"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Renderer turns schema templates into rendered documents.
//
// Rendering is pure given stable backend state, so documents are memoized
// per exact template string and concurrent renders of the same template
// collapse to a single computation. The cache lives as long as the renderer;
// build a fresh renderer (and provider) to observe backend changes.
type Renderer struct {
	provider *ChoiceProvider

	mu    sync.RWMutex
	cache map[string]*Document
	group singleflight.Group
}

// NewRenderer creates a renderer over the given choice provider.
func NewRenderer(provider *ChoiceProvider) *Renderer {
	return &Renderer{
		provider: provider,
		cache:    make(map[string]*Document),
	}
}

// Render substitutes every choice token in template and parses the result.
// A template with no tokens parses as JSON directly, so static schemas
// render identically to their raw text.
func (r *Renderer) Render(ctx context.Context, template string) (*Document, error) {
	r.mu.RLock()
	if doc, ok := r.cache[template]; ok {
		r.mu.RUnlock()
		return doc, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.group.Do(template, func() (interface{}, error) {
		r.mu.RLock()
		if doc, ok := r.cache[template]; ok {
			r.mu.RUnlock()
			return doc, nil
		}
		r.mu.RUnlock()

		doc, err := r.render(ctx, template, nil)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cache[template] = doc
		r.mu.Unlock()
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Document), nil
}

// RenderForEvent renders with an event context so dynamic choices can keep a
// saved reference displayable. Results are event-specific and bypass the
// template cache.
func (r *Renderer) RenderForEvent(ctx context.Context, template string, event *EventContext) (*Document, error) {
	return r.render(ctx, template, event)
}

// RenderSchema renders a template and returns just its schema fragment.
func (r *Renderer) RenderSchema(ctx context.Context, template string) (map[string]interface{}, error) {
	doc, err := r.Render(ctx, template)
	if err != nil {
		return nil, err
	}
	return doc.Schema, nil
}

// Invalidate drops a cached document so the next render recomputes it.
func (r *Renderer) Invalidate(template string) {
	r.mu.Lock()
	delete(r.cache, template)
	r.mu.Unlock()
}

func (r *Renderer) render(ctx context.Context, template string, event *EventContext) (*Document, error) {
	tokens, err := ParseTokens(template)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return ParseDocument([]byte(template))
	}

	replacements := make(map[string]json.RawMessage, len(tokens))
	for _, tok := range tokens {
		if _, done := replacements[tok.Raw]; done {
			continue
		}
		var resolved json.RawMessage
		if tok.Lookup == LookupQuery && event != nil {
			resolved, err = r.provider.ResolveQuery(ctx, tok.Field, tok.Kind, event)
		} else {
			resolved, err = r.provider.Resolve(ctx, tok)
		}
		if err != nil {
			return nil, err
		}
		replacements[tok.Raw] = resolved
	}

	rendered := tokenPattern.ReplaceAllStringFunc(template, func(match string) string {
		tag := tokenPattern.FindStringSubmatch(match)[1]
		return string(replacements[tag])
	})
	return ParseDocument([]byte(rendered))
}
